package reasoner

import (
	"golog/internal/ast"
)

// sequenceEval implements Golog's classic sequence equations directly
// against History rather than a substituted residual program: once the
// first statement is Final, every further step (and the final check
// itself) delegates entirely to Rest.
type sequenceEval struct{ node *ast.Sequence }

func (e *sequenceEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	firstFinal, err := e.node.First.Final(b, h)
	if err != nil {
		return nil, false, err
	}
	if firstFinal {
		return e.node.Rest.Trans(b, h)
	}
	return e.node.First.Trans(b, h)
}

func (e *sequenceEval) Final(b ast.Binding, h ast.History) (bool, error) {
	firstFinal, err := e.node.First.Final(b, h)
	if err != nil || !firstFinal {
		return false, err
	}
	return e.node.Rest.Final(b, h)
}

// testEval: a Test has no primitive transition of its own; it succeeds
// with an empty plan exactly when its condition holds, and is Final
// exactly when it holds (a bare test is a legal place to stop).
type testEval struct{ node *ast.Test }

func (e *testEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	v, err := e.node.Condition.Evaluate(b, h)
	if err != nil {
		return nil, false, err
	}
	if !v.Bool() {
		return nil, false, nil
	}
	return &ast.Plan{}, true, nil
}

func (e *testEval) Final(b ast.Binding, h ast.History) (bool, error) {
	v, err := e.node.Condition.Evaluate(b, h)
	if err != nil {
		return false, err
	}
	return v.Bool(), nil
}

type conditionalEval struct{ node *ast.Conditional }

func (e *conditionalEval) branch(b ast.Binding, h ast.History) (ast.Statement, error) {
	v, err := e.node.Condition.Evaluate(b, h)
	if err != nil {
		return nil, err
	}
	if v.Bool() {
		return e.node.Then, nil
	}
	return e.node.Else, nil
}

func (e *conditionalEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	br, err := e.branch(b, h)
	if err != nil {
		return nil, false, err
	}
	return br.Trans(b, h)
}

func (e *conditionalEval) Final(b ast.Binding, h ast.History) (bool, error) {
	br, err := e.branch(b, h)
	if err != nil {
		return false, err
	}
	return br.Final(b, h)
}

// whileEval treats "while c do body" as its own unfolding: while the
// condition holds, body.Trans is offered directly (body is free to start
// a fresh iteration once its own grounding has retired into a terminal
// state — see actionInvokeEval). Final per the standard equation:
// !holds(c) or Final(body).
type whileEval struct{ node *ast.While }

func (e *whileEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	v, err := e.node.Condition.Evaluate(b, h)
	if err != nil {
		return nil, false, err
	}
	if !v.Bool() {
		return nil, false, nil
	}
	return e.node.Body.Trans(b, h)
}

func (e *whileEval) Final(b ast.Binding, h ast.History) (bool, error) {
	v, err := e.node.Condition.Evaluate(b, h)
	if err != nil {
		return false, err
	}
	if !v.Bool() {
		return true, nil
	}
	return e.node.Body.Final(b, h)
}

// assignEval evaluates the target's arguments and the right-hand side
// eagerly, then synthesizes a Grounding under the reserved assign
// pseudo-action name carrying the assigned value as its trailing
// argument; the engine's dispatch recognizes it (ast.ParseAssignGrounding)
// and writes straight into History, bypassing effect-axiom replay.
type assignEval struct{ node *ast.Assign }

func (e *assignEval) grounding(b ast.Binding, h ast.History) (ast.Grounding, error) {
	targetArgs, err := ast.Ground(e.node.Target.Args, b, h)
	if err != nil {
		return ast.Grounding{}, err
	}
	val, err := e.node.Value.Evaluate(b, h)
	if err != nil {
		return ast.Grounding{}, err
	}
	return ast.NewGrounding(ast.AssignGroundingName(e.node.Target.Decl.Name), append(targetArgs, val)), nil
}

func (e *assignEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	g, err := e.grounding(b, h)
	if err != nil {
		return nil, false, err
	}
	if lastHook, known := h.LastHook(g.Hash()); known && lastHook == ast.HookFinish {
		return nil, false, nil
	}
	return &ast.Plan{Elements: []ast.PlanElement{{Instruction: e.node, Transition: ast.NewTransition(g, ast.HookFinish)}}}, true, nil
}

func (e *assignEval) Final(b ast.Binding, h ast.History) (bool, error) {
	g, err := e.grounding(b, h)
	if err != nil {
		return false, err
	}
	lastHook, known := h.LastHook(g.Hash())
	return known && lastHook == ast.HookFinish, nil
}

// chooseEval resolves non-determinism with a leftmost-first policy: trans
// offers the first branch able to offer one; final holds if any branch is
// final (a choose is a legal stopping point whenever one of its arms is).
type chooseEval struct{ node *ast.Choose }

func (e *chooseEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	for _, br := range e.node.Branches {
		if plan, ok, err := br.Trans(b, h); err != nil {
			return nil, false, err
		} else if ok {
			return plan, true, nil
		}
	}
	return nil, false, nil
}

func (e *chooseEval) Final(b ast.Binding, h ast.History) (bool, error) {
	for _, br := range e.node.Branches {
		final, err := br.Final(b, h)
		if err != nil {
			return false, err
		}
		if final {
			return true, nil
		}
	}
	return false, nil
}

// pickEval resolves the non-deterministic choice of value the same way
// chooseEval resolves branches: leftmost domain constant (in declaration
// order) whose body offers a transition.
type pickEval struct{ node *ast.Pick }

func (e *pickEval) domain() ([]string, error) {
	d, ok := e.node.Scope().Registry().Domain(e.node.Domain)
	if !ok {
		return nil, unknownDomainErr(e.node.Domain)
	}
	return d, nil
}

func (e *pickEval) bindingFor(b ast.Binding, c string) ast.Binding {
	return b.With(e.node.Var.Name, valueForConstant(e.node.Var, c))
}

func (e *pickEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	constants, err := e.domain()
	if err != nil {
		return nil, false, err
	}
	for _, c := range constants {
		bc := e.bindingFor(b, c)
		if plan, ok, err := e.node.Body.Trans(bc, h); err != nil {
			return nil, false, err
		} else if ok {
			return plan, true, nil
		}
	}
	return nil, false, nil
}

func (e *pickEval) Final(b ast.Binding, h ast.History) (bool, error) {
	constants, err := e.domain()
	if err != nil {
		return false, err
	}
	for _, c := range constants {
		final, err := e.node.Body.Final(e.bindingFor(b, c), h)
		if err != nil {
			return false, err
		}
		if final {
			return true, nil
		}
	}
	return false, nil
}

// starEval is non-deterministic iteration: zero executions is always a
// legal stop (Final is always true), and each further iteration is
// offered by delegating straight to Body, the same unfolding whileEval
// uses.
type starEval struct{ node *ast.Star }

func (e *starEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	return e.node.Body.Trans(b, h)
}

func (e *starEval) Final(b ast.Binding, h ast.History) (bool, error) {
	return true, nil
}

// procCallEval invokes a declared Procedure in a fresh Binding containing
// only its own actual-to-formal parameter mapping (Golog procedures do
// not close over the caller's variables). Parameters are bound by name,
// not by *scope.Variable identity; since every call builds its own
// Binding, two calls whose procedures share a parameter name do not see
// each other's values.
type procCallEval struct {
	f    *Factory
	node *ast.ProcCall
}

func (e *procCallEval) callBinding(b ast.Binding, h ast.History) (ast.Binding, *ast.Procedure, error) {
	proc, ok := e.f.program.Procedures[e.node.Name]
	if !ok {
		return nil, nil, unknownProcedureErr(e.node.Name)
	}
	args, err := ast.Ground(e.node.Args, b, h)
	if err != nil {
		return nil, nil, err
	}
	cb := ast.EmptyBinding()
	for i, p := range proc.Params {
		if i < len(args) {
			cb = cb.With(p.Name, args[i])
		}
	}
	return cb, proc, nil
}

func (e *procCallEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	cb, proc, err := e.callBinding(b, h)
	if err != nil {
		return nil, false, err
	}
	return proc.Body.Trans(cb, h)
}

func (e *procCallEval) Final(b ast.Binding, h ast.History) (bool, error) {
	cb, proc, err := e.callBinding(b, h)
	if err != nil {
		return false, err
	}
	return proc.Body.Final(cb, h)
}

// returnEval: reaching a return statement always terminates the
// enclosing procedure's execution at this point and requires no
// primitive transition of its own.
type returnEval struct{ node *ast.Return }

func (e *returnEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	return &ast.Plan{}, true, nil
}

func (e *returnEval) Final(b ast.Binding, h ast.History) (bool, error) {
	return true, nil
}
