package reasoner

import (
	"strconv"

	"golog/internal/ast"
	"golog/internal/golerr"
	"golog/internal/scope"
)

func unknownDomainErr(name string) error {
	return golerr.NewUserError(golerr.TypeError, name, "pick: unknown domain %q", name)
}

func unknownProcedureErr(name string) error {
	return golerr.NewUserError(golerr.TypeError, name, "call to undeclared procedure %q", name)
}

// valueForConstant coerces a raw domain constant string to v's declared
// type: domains are registered as plain string enumerations (see
// scope.Registry.RegisterDomain) regardless of whether the pick variable
// ranges over symbols, integers or floats.
func valueForConstant(v *scope.Variable, c string) ast.Value {
	switch v.Type.Kind {
	case scope.KindInt:
		if n, err := strconv.ParseInt(c, 10, 64); err == nil {
			return ast.IntValue(n)
		}
	case scope.KindFloat:
		if n, err := strconv.ParseFloat(c, 64); err == nil {
			return ast.FloatValue(n)
		}
	}
	return ast.SymbolValue(c)
}

func isActivityTerminalHook(h ast.Hook) bool {
	return h == ast.HookFinish || h == ast.HookFail || h == ast.HookEnd
}

// actionInvokeEval is the primitive-transition leaf: it decides
// startability and precondition-holding from History alone (no platform
// access — by the time dispatch reaches the platform registry, trans has
// already committed to offering this transition).
type actionInvokeEval struct {
	f    *Factory
	node *ast.ActionInvoke
}

func (e *actionInvokeEval) grounding(b ast.Binding, h ast.History) (ast.Grounding, error) {
	args, err := ast.Ground(e.node.Args, b, h)
	if err != nil {
		return ast.Grounding{}, err
	}
	return ast.NewGrounding(e.node.Decl.Name, args), nil
}

func (e *actionInvokeEval) Trans(b ast.Binding, h ast.History) (*ast.Plan, bool, error) {
	if e.node.Decl.Kind != scope.GlobalAction {
		return nil, false, golerr.NewBug("ActionInvoke references a non-action global %q", e.node.Decl.Name)
	}
	g, err := e.grounding(b, h)
	if err != nil {
		return nil, false, err
	}

	if e.node.Hook == ast.HookStop {
		return e.transStop(g, h)
	}

	if lastHook, known := h.LastHook(g.Hash()); known && !isActivityTerminalHook(lastHook) {
		// Already running (or preempted, awaiting confirmation): trans
		// offers nothing further here. Its eventual completion arrives
		// through the exogenous queue, not through another trans step.
		return nil, false, nil
	}

	action, ok := e.f.program.ActionByName(e.node.Decl.Name)
	if ok && action.Precondition != nil {
		pb := ast.EmptyBinding()
		for i, p := range action.Params {
			if i < len(g.Args) {
				pb = pb.With(p.Name, g.Args[i])
			}
		}
		holds, err := action.Precondition.Evaluate(pb, h)
		if err != nil {
			return nil, false, err
		}
		if !holds.Bool() {
			return nil, false, nil
		}
	}

	e.f.recordTransStep(g, ast.HookStart)
	return &ast.Plan{Elements: []ast.PlanElement{{Instruction: e.node, Transition: ast.NewTransition(g, ast.HookStart)}}}, true, nil
}

// transStop elects a STOP transition for a node written with Hook ==
// ast.HookStop: the program statement that requests cancellation of the
// activity currently running for g. It offers STOP exactly once, while
// the activity is RUNNING (its last recorded hook is START); once
// cancellation has been requested or the activity has already reached a
// terminal state on its own, there is nothing further to elect here —
// Final picks up the same way it does for a START invocation, waiting
// for the backend's terminal confirmation.
func (e *actionInvokeEval) transStop(g ast.Grounding, h ast.History) (*ast.Plan, bool, error) {
	lastHook, known := h.LastHook(g.Hash())
	if !known || lastHook != ast.HookStart {
		return nil, false, nil
	}
	e.f.recordTransStep(g, ast.HookStop)
	return &ast.Plan{Elements: []ast.PlanElement{{Instruction: e.node, Transition: ast.NewTransition(g, ast.HookStop)}}}, true, nil
}

func (e *actionInvokeEval) Final(b ast.Binding, h ast.History) (bool, error) {
	g, err := e.grounding(b, h)
	if err != nil {
		return false, err
	}
	lastHook, known := h.LastHook(g.Hash())
	return known && isActivityTerminalHook(lastHook), nil
}

// globalExprEval evaluates a Reference<Fluent|Function> by reading the
// fluent's current History-folded value, mirroring the read into the
// fact store as a fluent_value fact for introspection.
type globalExprEval struct {
	f    *Factory
	node *ast.GlobalExpr
}

func (e *globalExprEval) Evaluate(b ast.Binding, h ast.History) (ast.Value, error) {
	if e.node.Decl.Kind != scope.GlobalFluent {
		return ast.Value{}, golerr.NewBug("reasoner: function globals are not supported by this reference backend (%s)", e.node.Decl.Name)
	}
	args, err := ast.Ground(e.node.Args, b, h)
	if err != nil {
		return ast.Value{}, err
	}
	v, ok, err := h.CurrentValue(e.node.Decl.Name, args)
	if err != nil {
		return ast.Value{}, err
	}
	if !ok {
		return ast.Value{}, golerr.NewEngineError(golerr.LostTransition,
			"fluent %s has no value for grounding %v", e.node.Decl.Name, args)
	}
	e.f.recordFluentFact(e.node.Decl.Name, args, v)
	return v, nil
}
