package ast

import (
	"strings"

	"golog/internal/scope"
)

// Action is a durative primitive, declared with typed parameters, an
// optional precondition formula, an optional sensing-result fluent
// reference, and an EffectAxiom set keyed by Hook.
type Action struct {
	Element
	Name_         string
	Params        []*scope.Variable
	Precondition  Expression // nil means "always possible"
	Effects       []*EffectAxiom
	SensingFluent *GlobalExpr // nil if the action doesn't sense
}

func NewAction(parent, own *scope.Scope, name string, params []*scope.Variable, precond Expression) *Action {
	return &Action{
		Element: NewScopeOwningElement(parent, own, scope.Bool()),
		Name_:   name,
		Params:  params,
		Precondition: precond,
	}
}

func (a *Action) Name() string { return a.Name_ }
func (a *Action) Arity() int   { return len(a.Params) }

func (a *Action) ToString(indent string) string {
	names := make([]string, len(a.Params))
	for i, p := range a.Params {
		names[i] = p.Name
	}
	return "action " + a.Name_ + "(" + strings.Join(names, ", ") + ")"
}

// AttachSemantics attaches children (precondition, effects, sensing
// reference) first, then registers the action itself via CompileGlobal.
func (a *Action) AttachSemantics(f Factory) error {
	if a.Precondition != nil {
		if err := a.Precondition.AttachSemantics(f); err != nil {
			return err
		}
	}
	for _, e := range a.Effects {
		if err := e.AttachSemantics(f); err != nil {
			return err
		}
	}
	if a.SensingFluent != nil {
		if err := a.SensingFluent.AttachSemantics(f); err != nil {
			return err
		}
	}
	if err := a.Attach(a, f); err != nil {
		return err
	}
	return f.CompileGlobal(a)
}

// EffectAxiom describes how one fluent's value changes when an action
// with the given Hook successfully transitions, conditional on a guard
// formula evaluated against the pre-transition binding/history.
type EffectAxiom struct {
	Element
	Hook   Hook
	Fluent *GlobalExpr
	Guard  Expression // nil means unconditional
	Update Expression
}

func NewEffectAxiom(parent *scope.Scope, hook Hook, fluent *GlobalExpr, guard, update Expression) *EffectAxiom {
	return &EffectAxiom{Element: NewElement(parent, scope.Bool()), Hook: hook, Fluent: fluent, Guard: guard, Update: update}
}

func (e *EffectAxiom) ToString(indent string) string {
	return e.Hook.String() + " -> " + e.Fluent.ToString(indent) + " := " + e.Update.ToString(indent)
}

func (e *EffectAxiom) AttachSemantics(f Factory) error {
	if err := e.Fluent.AttachSemantics(f); err != nil {
		return err
	}
	if e.Guard != nil {
		if err := e.Guard.AttachSemantics(f); err != nil {
			return err
		}
	}
	if err := e.Update.AttachSemantics(f); err != nil {
		return err
	}
	return e.Attach(e, f)
}

// ExogAction is an action whose transitions are driven exclusively by
// exogenous events delivered through the execution context's queue,
// never chosen by trans.
type ExogAction struct {
	Element
	Name_   string
	Params  []*scope.Variable
	Effects []*EffectAxiom
}

func NewExogAction(parent, own *scope.Scope, name string, params []*scope.Variable) *ExogAction {
	return &ExogAction{Element: NewScopeOwningElement(parent, own, scope.Bool()), Name_: name, Params: params}
}

func (e *ExogAction) Name() string { return e.Name_ }
func (e *ExogAction) Arity() int   { return len(e.Params) }

func (e *ExogAction) ToString(indent string) string {
	names := make([]string, len(e.Params))
	for i, p := range e.Params {
		names[i] = p.Name
	}
	return "exog_action " + e.Name_ + "(" + strings.Join(names, ", ") + ")"
}

func (e *ExogAction) AttachSemantics(f Factory) error {
	for _, ea := range e.Effects {
		if err := ea.AttachSemantics(f); err != nil {
			return err
		}
	}
	if err := e.Attach(e, f); err != nil {
		return err
	}
	return f.CompileGlobal(e)
}

// Fluent is a typed, history-dependent state variable with a finite set
// of initial-value tuples (argument values paired with the value held
// at history length zero) and an implicit domain over its arguments.
type Fluent struct {
	Element
	Name_         string
	Params        []*scope.Variable
	ValueType     scope.Type
	InitialValues []InitialValue
}

// InitialValue pairs one ground argument tuple with the fluent's value
// at the start of history (history length zero), per the Fluent<T>
// template's initialization contract.
type InitialValue struct {
	Args  []Value
	Value Value
}

func NewFluent(parent, own *scope.Scope, name string, params []*scope.Variable, valueType scope.Type, initial []InitialValue) *Fluent {
	return &Fluent{
		Element:       NewScopeOwningElement(parent, own, valueType),
		Name_:         name,
		Params:        params,
		ValueType:     valueType,
		InitialValues: initial,
	}
}

func (fl *Fluent) Name() string { return fl.Name_ }
func (fl *Fluent) Arity() int   { return len(fl.Params) }

func (fl *Fluent) ToString(indent string) string {
	names := make([]string, len(fl.Params))
	for i, p := range fl.Params {
		names[i] = p.Name
	}
	return "fluent " + fl.Name_ + "(" + strings.Join(names, ", ") + "): " + fl.ValueType.String()
}

func (fl *Fluent) AttachSemantics(f Factory) error {
	if err := fl.Attach(fl, f); err != nil {
		return err
	}
	return f.CompileGlobal(fl)
}
