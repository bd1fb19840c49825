// Package ast implements the program model of the execution engine: the
// typed expression/statement nodes (actions, fluents, effects, formulas,
// arithmetic, procedural constructs, references, values), the scope they
// live in, and the language-element base every node realizes.
//
// Semantics attachment (the factory plug-in boundary) is colocated here
// rather than in its own package: Factory.MakeSemantics must accept every
// concrete node type, and every node's AttachSemantics must accept a
// Factory, so splitting the two across packages would force an import
// cycle. See DESIGN.md for the full rationale.
package ast

import (
	"golog/internal/golerr"
	"golog/internal/scope"
)

// Node is the minimal identity every AST element exposes to the
// semantics layer and to diagnostics.
type Node interface {
	ToString(indent string) string
}

// Evaluator is attached to exactly one AST node by a Factory and
// implements that node's backend-specific behavior. It carries no
// methods of its own; concrete plug-ins type-assert to
// StatementEvaluator or ExpressionEvaluator.
type Evaluator interface{}

// Global is the common interface satisfied by every named, fixed-arity
// top-level element: Action, ExogAction, and Fluent.
type Global interface {
	Node
	Name() string
	Arity() int
}

// Factory attaches an Evaluator to a freshly-walked AST node
// (bottom-up: children first, then the node itself) and compiles each
// global into the backend's own representation. AST nodes are inert
// until a Factory has been attached.
type Factory interface {
	MakeSemantics(node Node) (Evaluator, error)

	// Precompile/CompileGlobal/Postcompile implement the backend
	// compilation phase of Context.Run (§4.3 step 2): Precompile is
	// invoked once before any global is compiled, CompileGlobal once
	// per action/fluent, Postcompile once after all globals are
	// compiled.
	Precompile() error
	CompileGlobal(g Global) error
	Postcompile() error
}

// StatementEvaluator is implemented by evaluators attached to
// statement/program nodes: the non-deterministic step relation (Trans)
// and the termination predicate (Final) of Golog semantics.
type StatementEvaluator interface {
	Evaluator
	// Trans computes one step of the program. ok=false means "no
	// transition possible" (None in the spec's pseudocode).
	Trans(b Binding, h History) (plan *Plan, ok bool, err error)
	Final(b Binding, h History) (bool, error)
}

// ExpressionEvaluator is implemented by evaluators attached to
// expression nodes.
type ExpressionEvaluator interface {
	Evaluator
	Evaluate(b Binding, h History) (Value, error)
}

// History is the minimal view of the append-only transition/event log
// that expression and statement evaluators need. The concrete
// implementation lives in internal/history; this interface exists so
// this package never imports it (history attaches semantics to itself,
// so the dependency must run history -> ast, not the reverse).
type History interface {
	Node
	Append(t Transition)
	ShouldProgress() bool
	Progress() error
	// LastHook reports the most recently appended Hook for a grounding
	// hash, across the entire run (never discarded by Progress's
	// compaction) — the signal ActionInvoke's Trans/Final use to decide
	// whether a grounding is currently startable or already terminal.
	LastHook(groundingHash string) (Hook, bool)
	// CurrentValue returns a fluent grounding's value computed from the
	// folded baseline plus every pending (not yet compacted) transition,
	// without mutating the folded table — the view Reference<Fluent>
	// expressions read.
	CurrentValue(fluentName string, args []Value) (Value, bool, error)
	// SetFluent immediately overwrites a fluent grounding's folded value,
	// bypassing effect-axiom replay. Assign is the only statement that
	// calls this: unlike a primitive action, an assignment's effect is
	// not mediated by an Activity lifecycle, so there is no Hook/Guard to
	// replay later.
	SetFluent(fluentName string, args []Value, v Value)
}

// Element is the base embedded by every concrete AST node. It tracks
// the node's owning/parent scope, its semantic type, and its attached
// evaluator, and implements the idempotent attach-then-cache pattern
// every node's AttachSemantics follows.
type Element struct {
	parentScope *scope.Scope
	ownScope    *scope.Scope // equal to parentScope if this node doesn't open one
	typ         scope.Type
	semantics   Evaluator
}

// NewElement constructs an Element that does not open its own scope.
func NewElement(parent *scope.Scope, typ scope.Type) Element {
	return Element{parentScope: parent, ownScope: parent, typ: typ}
}

// NewScopeOwningElement constructs an Element that opens own as a child
// scope of parent.
func NewScopeOwningElement(parent *scope.Scope, own *scope.Scope, typ scope.Type) Element {
	return Element{parentScope: parent, ownScope: own, typ: typ}
}

func (e *Element) ParentScope() *scope.Scope { return e.parentScope }
func (e *Element) Scope() *scope.Scope       { return e.ownScope }
func (e *Element) Type() scope.Type          { return e.typ }
func (e *Element) Semantics() Evaluator      { return e.semantics }
func (e *Element) HasSemantics() bool        { return e.semantics != nil }

// Attach is called by each concrete node's AttachSemantics once its
// children have already been attached. It is a no-op (idempotent) on a
// second call, matching §4.1/P1.
func (e *Element) Attach(self Node, f Factory) error {
	if e.semantics != nil {
		return nil
	}
	sem, err := f.MakeSemantics(self)
	if err != nil {
		return err
	}
	e.semantics = sem
	return nil
}

// AttachChildren is a small helper that attaches semantics to a list of
// children, short-circuiting on the first error. Concrete nodes use it
// to implement the "children first" half of attach_semantics.
func AttachChildren(f Factory, children ...interface {
	AttachSemantics(Factory) error
}) error {
	for _, c := range children {
		if c == nil {
			continue
		}
		if err := c.AttachSemantics(f); err != nil {
			return err
		}
	}
	return nil
}

// errNotAttached builds the Bug that evaluator accessors return when a
// node's semantics have not been attached yet.
func errNotAttached(node Node) error {
	return golerr.NewBug("semantics not attached: %s", node.ToString(""))
}
