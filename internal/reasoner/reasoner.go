// Package reasoner implements the reference ast.Factory: the semantics
// "plug-in" of §6 that attaches a StatementEvaluator/ExpressionEvaluator
// to every compiled node and mirrors declarations, fluent reads and
// elected transitions into a google/mangle fact store. It is grounded in the teacher's
// internal/mangle.Engine wrapper around github.com/google/mangle.
//
// Control-flow semantics (Sequence, Test, Conditional, While, Choose,
// Pick, Star, ProcCall, Return, Assign) are plain Go — they read only
// Binding/History, never the fact store — and live in control.go.
// Primitive semantics (ActionInvoke, Reference<Fluent|Function>) evaluate
// preconditions and fluent values in Go from Binding/History as well,
// only writing what they computed into the fact store, and live in
// primitive.go. Mangle derives nothing here: action/fluent declarations,
// every fluent read, every elected transition and each final
// configuration are mirrored into it as ground facts for after-the-fact
// inspection (the `action_decl`, `fluent_decl`, `fluent_value`,
// `trans_step` and `program_final` predicates), which is the feature
// surface the engine's own tests exercise (§4.9).
package reasoner

import (
	"context"
	"fmt"

	"golog/internal/ast"
	"golog/internal/golerr"
	"golog/internal/logging"
	"golog/internal/mangle"
)

const schema = `
Decl action_decl(Name, Arity) descr [mode("+", "+")].
Decl fluent_decl(Name, Arity) descr [mode("+", "+")].
Decl fluent_value(Name, ArgKey, Val) descr [mode("+", "+", "+")].
Decl trans_step(Action, ArgKey, Hook) descr [mode("+", "+", "+")].
Decl program_final(Seq) descr [mode("+")].
`

// Factory is the reference google/mangle-backed ast.Factory.
type Factory struct {
	program    *ast.Program
	engine     *mangle.Engine
	schemaPath string
	finalSeq   int
}

// New constructs a Factory over program, backed by a freshly constructed
// mangle.Engine. cfg is forwarded to mangle.NewEngine as-is: a zero
// Config is not replaced by mangle.DefaultConfig(), so callers wanting
// the defaults pass mangle.DefaultConfig() themselves. cfg.SchemaPath is
// kept for Precompile.
func New(program *ast.Program, cfg mangle.Config) (*Factory, error) {
	eng, err := mangle.NewEngine(cfg)
	if err != nil {
		return nil, fmt.Errorf("reasoner: constructing mangle engine: %w", err)
	}
	return &Factory{program: program, engine: eng, schemaPath: cfg.SchemaPath}, nil
}

// Precompile loads the fixed predicate schema, plus an operator-supplied
// schema file (config.yaml's mangle.schema_path) if one is configured: a
// deployment can declare extra introspection predicates of its own
// without this package knowing about them, as long as CompileGlobal and
// the primitive evaluators only ever write into the fixed schema above.
func (f *Factory) Precompile() error {
	if err := f.engine.LoadSchemaString(schema); err != nil {
		return fmt.Errorf("reasoner: loading schema: %w", err)
	}
	if f.schemaPath != "" {
		if err := f.engine.LoadSchema(f.schemaPath); err != nil {
			return fmt.Errorf("reasoner: loading schema %s: %w", f.schemaPath, err)
		}
	}
	logging.ReasonerDebug("schema loaded")
	return nil
}

// CompileGlobal mirrors an action/exog-action/fluent declaration into the
// fact store as a (name, arity) fact, for introspection only — the
// declaration's actual semantics (precondition, effects) are evaluated by
// the Go-native evaluators attached to its own children.
func (f *Factory) CompileGlobal(g ast.Global) error {
	switch g.(type) {
	case *ast.Action, *ast.ExogAction:
		if err := f.engine.AddFact("action_decl", g.Name(), g.Arity()); err != nil {
			return fmt.Errorf("reasoner: recording action_decl(%s): %w", g.Name(), err)
		}
	case *ast.Fluent:
		if err := f.engine.AddFact("fluent_decl", g.Name(), g.Arity()); err != nil {
			return fmt.Errorf("reasoner: recording fluent_decl(%s): %w", g.Name(), err)
		}
	}
	return nil
}

// Postcompile is a no-op: nothing in this backend depends on every global
// having been compiled before procedures attach.
func (f *Factory) Postcompile() error { return nil }

// MakeSemantics dispatches by concrete node type to this package's
// evaluator constructors.
func (f *Factory) MakeSemantics(node ast.Node) (ast.Evaluator, error) {
	switch n := node.(type) {
	case *ast.Sequence:
		return &sequenceEval{node: n}, nil
	case *ast.Test:
		return &testEval{node: n}, nil
	case *ast.Conditional:
		return &conditionalEval{node: n}, nil
	case *ast.While:
		return &whileEval{node: n}, nil
	case *ast.Assign:
		return &assignEval{node: n}, nil
	case *ast.Choose:
		return &chooseEval{node: n}, nil
	case *ast.Pick:
		return &pickEval{node: n}, nil
	case *ast.Star:
		return &starEval{node: n}, nil
	case *ast.ProcCall:
		return &procCallEval{f: f, node: n}, nil
	case *ast.Return:
		return &returnEval{node: n}, nil
	case *ast.ActionInvoke:
		return &actionInvokeEval{f: f, node: n}, nil
	case *ast.GlobalExpr:
		return &globalExprEval{f: f, node: n}, nil
	case *ast.Literal, *ast.VarRef, *ast.ListExpr, *ast.CompoundExpr, *ast.UnaryOp, *ast.BinaryOp:
		// These nodes evaluate themselves (or, for VarRef, fall back to
		// the Binding) without consulting an attached evaluator in the
		// normal path; a stub satisfies Attach's idempotency guard.
		return selfSufficientStub{}, nil
	default:
		return nil, golerr.NewBug("reasoner: no semantics for node type %T", node)
	}
}

// selfSufficientStub satisfies ExpressionEvaluator so MakeSemantics can
// return a single value for every self-evaluating expression node kind;
// its Evaluate is reached only by a VarRef whose variable is unbound,
// and reports that as a Bug.
type selfSufficientStub struct{}

func (selfSufficientStub) Evaluate(b ast.Binding, h ast.History) (ast.Value, error) {
	return ast.Value{}, golerr.NewBug("reasoner: evaluator invoked on a self-sufficient expression node")
}

func (f *Factory) recordFluentFact(name string, args []ast.Value, v ast.Value) {
	if err := f.engine.AddFact("fluent_value", name, argKeyOf(args), v.String()); err != nil {
		logging.ReasonerWarn("recording fluent_value(%s): %v", name, err)
	}
}

func (f *Factory) recordTransStep(g ast.Grounding, hook ast.Hook) {
	if err := f.engine.AddFact("trans_step", g.ActionName, argKeyOf(g.Args), hook.String()); err != nil {
		logging.ReasonerWarn("recording trans_step(%s): %v", g.ActionName, err)
	}
}

func argKeyOf(args []ast.Value) string {
	s := ""
	for i, a := range args {
		if i > 0 {
			s += ","
		}
		s += a.String()
	}
	return s
}

// Facts exposes the raw fact rows recorded for a predicate, for tests and
// diagnostics (see cmd/golog's `run --inspect-facts`).
func (f *Factory) Facts(ctx context.Context, predicate string) ([]mangle.Fact, error) {
	return f.engine.GetFacts(predicate)
}

// RecordFinal mirrors the program reaching a final, transition-less
// configuration into the fact store as program_final(Seq). engine.Context
// calls this (via the optional finalRecorder interface) once, just before
// Run returns on reaching a final configuration, so each completed Run
// adds one row; Seq counts the rows this Factory has recorded.
func (f *Factory) RecordFinal() error {
	f.finalSeq++
	if err := f.engine.AddFact("program_final", f.finalSeq); err != nil {
		return fmt.Errorf("reasoner: recording program_final(%d): %w", f.finalSeq, err)
	}
	return nil
}

// Close releases the underlying mangle engine's resources.
func (f *Factory) Close() error { return f.engine.Close() }
