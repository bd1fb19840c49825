package ast

import (
	"strings"

	"golog/internal/scope"
)

// Statement is the common interface for every procedural construct:
// Sequence, Test, Conditional, While, Assign, Choose, Pick, Star,
// ProcCall, Return and ActionInvoke. AttachSemantics walks children
// first, then attaches the node's own evaluator (§4.1).
type Statement interface {
	Node
	AttachSemantics(f Factory) error
	Trans(b Binding, h History) (*Plan, bool, error)
	Final(b Binding, h History) (bool, error)
}

func statementEvaluatorOf(e *Element, node Node) (StatementEvaluator, error) {
	if e.semantics == nil {
		return nil, errNotAttached(node)
	}
	ev, ok := e.semantics.(StatementEvaluator)
	if !ok {
		return nil, errNotAttached(node)
	}
	return ev, nil
}

// Sequence is the ordered composition of two statements (first ; rest).
type Sequence struct {
	Element
	First, Rest Statement
}

func NewSequence(parent *scope.Scope, first, rest Statement) *Sequence {
	return &Sequence{Element: NewElement(parent, scope.Bool()), First: first, Rest: rest}
}

func (s *Sequence) ToString(indent string) string {
	return s.First.ToString(indent) + ";\n" + indent + s.Rest.ToString(indent)
}

func (s *Sequence) AttachSemantics(f Factory) error {
	if err := s.First.AttachSemantics(f); err != nil {
		return err
	}
	if err := s.Rest.AttachSemantics(f); err != nil {
		return err
	}
	return s.Attach(s, f)
}

func (s *Sequence) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&s.Element, s)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (s *Sequence) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&s.Element, s)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Test is a pure formula evaluated against the current binding/history,
// with no primitive transition of its own (trans succeeds immediately if
// the formula holds).
type Test struct {
	Element
	Condition Expression
}

func NewTest(parent *scope.Scope, cond Expression) *Test {
	return &Test{Element: NewElement(parent, scope.Bool()), Condition: cond}
}

func (t *Test) ToString(indent string) string { return "?(" + t.Condition.ToString(indent) + ")" }

func (t *Test) AttachSemantics(f Factory) error {
	if err := t.Condition.AttachSemantics(f); err != nil {
		return err
	}
	return t.Attach(t, f)
}

func (t *Test) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&t.Element, t)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (t *Test) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&t.Element, t)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Conditional is if Condition then Then else Else.
type Conditional struct {
	Element
	Condition Expression
	Then, Else Statement
}

func NewConditional(parent *scope.Scope, cond Expression, then, els Statement) *Conditional {
	return &Conditional{Element: NewElement(parent, scope.Bool()), Condition: cond, Then: then, Else: els}
}

func (c *Conditional) ToString(indent string) string {
	return "if " + c.Condition.ToString(indent) + " then " + c.Then.ToString(indent) + " else " + c.Else.ToString(indent)
}

func (c *Conditional) AttachSemantics(f Factory) error {
	if err := c.Condition.AttachSemantics(f); err != nil {
		return err
	}
	if err := c.Then.AttachSemantics(f); err != nil {
		return err
	}
	if err := c.Else.AttachSemantics(f); err != nil {
		return err
	}
	return c.Attach(c, f)
}

func (c *Conditional) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&c.Element, c)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (c *Conditional) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&c.Element, c)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// While is the conventional loop: while Condition do Body.
type While struct {
	Element
	Condition Expression
	Body      Statement
}

func NewWhile(parent *scope.Scope, cond Expression, body Statement) *While {
	return &While{Element: NewElement(parent, scope.Bool()), Condition: cond, Body: body}
}

func (w *While) ToString(indent string) string {
	return "while " + w.Condition.ToString(indent) + " do " + w.Body.ToString(indent)
}

func (w *While) AttachSemantics(f Factory) error {
	if err := w.Condition.AttachSemantics(f); err != nil {
		return err
	}
	if err := w.Body.AttachSemantics(f); err != nil {
		return err
	}
	return w.Attach(w, f)
}

func (w *While) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&w.Element, w)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (w *While) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&w.Element, w)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Assign sets a fluent reference to the value of an expression.
type Assign struct {
	Element
	Target *GlobalExpr
	Value  Expression
}

func NewAssign(parent *scope.Scope, target *GlobalExpr, value Expression) *Assign {
	return &Assign{Element: NewElement(parent, scope.Bool()), Target: target, Value: value}
}

func (a *Assign) ToString(indent string) string {
	return a.Target.ToString(indent) + " := " + a.Value.ToString(indent)
}

func (a *Assign) AttachSemantics(f Factory) error {
	if err := a.Target.AttachSemantics(f); err != nil {
		return err
	}
	if err := a.Value.AttachSemantics(f); err != nil {
		return err
	}
	return a.Attach(a, f)
}

func (a *Assign) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&a.Element, a)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (a *Assign) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&a.Element, a)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Choose is a non-deterministic branch among a set of statements.
type Choose struct {
	Element
	Branches []Statement
}

func NewChoose(parent *scope.Scope, branches []Statement) *Choose {
	return &Choose{Element: NewElement(parent, scope.Bool()), Branches: branches}
}

func (c *Choose) ToString(indent string) string {
	parts := make([]string, len(c.Branches))
	for i, br := range c.Branches {
		parts[i] = br.ToString(indent)
	}
	return "choose(" + strings.Join(parts, " | ") + ")"
}

func (c *Choose) AttachSemantics(f Factory) error {
	for _, br := range c.Branches {
		if err := br.AttachSemantics(f); err != nil {
			return err
		}
	}
	return c.Attach(c, f)
}

func (c *Choose) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&c.Element, c)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (c *Choose) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&c.Element, c)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Pick opens own as a child scope binding Var, ranging over Domain, for
// the lifetime of Body: a non-deterministic choice of value.
type Pick struct {
	Element
	Var    *scope.Variable
	Domain string // a registered domain name
	Body   Statement
}

func NewPick(parent *scope.Scope, own *scope.Scope, v *scope.Variable, domain string, body Statement) *Pick {
	return &Pick{Element: NewScopeOwningElement(parent, own, scope.Bool()), Var: v, Domain: domain, Body: body}
}

func (p *Pick) ToString(indent string) string {
	return "pick(" + p.Var.Name + " in " + p.Domain + ") " + p.Body.ToString(indent)
}

func (p *Pick) AttachSemantics(f Factory) error {
	if err := p.Body.AttachSemantics(f); err != nil {
		return err
	}
	return p.Attach(p, f)
}

func (p *Pick) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&p.Element, p)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (p *Pick) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&p.Element, p)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Star is non-deterministic iteration: Body executed zero or more times.
type Star struct {
	Element
	Body Statement
}

func NewStar(parent *scope.Scope, body Statement) *Star {
	return &Star{Element: NewElement(parent, scope.Bool()), Body: body}
}

func (s *Star) ToString(indent string) string { return "(" + s.Body.ToString(indent) + ")*" }

func (s *Star) AttachSemantics(f Factory) error {
	if err := s.Body.AttachSemantics(f); err != nil {
		return err
	}
	return s.Attach(s, f)
}

func (s *Star) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&s.Element, s)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (s *Star) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&s.Element, s)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// ProcCall invokes a declared procedure with actual-argument expressions.
type ProcCall struct {
	Element
	Name string
	Args []Expression
}

func NewProcCall(parent *scope.Scope, name string, args []Expression) *ProcCall {
	return &ProcCall{Element: NewElement(parent, scope.Bool()), Name: name, Args: args}
}

func (p *ProcCall) ToString(indent string) string {
	parts := make([]string, len(p.Args))
	for i, a := range p.Args {
		parts[i] = a.ToString(indent)
	}
	return p.Name + "(" + strings.Join(parts, ", ") + ")"
}

func (p *ProcCall) AttachSemantics(f Factory) error {
	for _, a := range p.Args {
		if err := a.AttachSemantics(f); err != nil {
			return err
		}
	}
	return p.Attach(p, f)
}

func (p *ProcCall) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&p.Element, p)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (p *ProcCall) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&p.Element, p)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// Return terminates the enclosing procedure, optionally carrying a value.
type Return struct {
	Element
	Value Expression // nil for a procedure with no return value
}

func NewReturn(parent *scope.Scope, value Expression) *Return {
	return &Return{Element: NewElement(parent, scope.Bool()), Value: value}
}

func (r *Return) ToString(indent string) string {
	if r.Value == nil {
		return "return"
	}
	return "return " + r.Value.ToString(indent)
}

func (r *Return) AttachSemantics(f Factory) error {
	if r.Value != nil {
		if err := r.Value.AttachSemantics(f); err != nil {
			return err
		}
	}
	return r.Attach(r, f)
}

func (r *Return) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&r.Element, r)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (r *Return) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&r.Element, r)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}

// ActionInvoke is the primitive-transition leaf node: a reference to an
// Action or ExogAction global together with actual arguments and the
// Hook the statement requests, fixed at construction (HookStart starts
// the grounding; HookStop requests cancellation of its running activity).
type ActionInvoke struct {
	Element
	Decl *scope.GlobalDecl
	Args []Expression
	Hook Hook
}

func NewActionInvoke(parent *scope.Scope, decl *scope.GlobalDecl, args []Expression, hook Hook) *ActionInvoke {
	return &ActionInvoke{Element: NewElement(parent, scope.Bool()), Decl: decl, Args: args, Hook: hook}
}

func (a *ActionInvoke) ToString(indent string) string {
	parts := make([]string, len(a.Args))
	for i, ar := range a.Args {
		parts[i] = ar.ToString(indent)
	}
	return a.Decl.Name + "(" + strings.Join(parts, ", ") + ")@" + a.Hook.String()
}

func (a *ActionInvoke) AttachSemantics(f Factory) error {
	for _, ar := range a.Args {
		if err := ar.AttachSemantics(f); err != nil {
			return err
		}
	}
	return a.Attach(a, f)
}

func (a *ActionInvoke) Trans(b Binding, h History) (*Plan, bool, error) {
	ev, err := statementEvaluatorOf(&a.Element, a)
	if err != nil {
		return nil, false, err
	}
	return ev.Trans(b, h)
}

func (a *ActionInvoke) Final(b Binding, h History) (bool, error) {
	ev, err := statementEvaluatorOf(&a.Element, a)
	if err != nil {
		return false, err
	}
	return ev.Final(b, h)
}
