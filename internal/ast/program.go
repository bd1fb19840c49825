package ast

import (
	"strings"

	"golog/internal/scope"
)

// Procedure is a named, fixed-arity statement macro: invoking it via
// ProcCall binds its parameters to the actual arguments and runs Body in
// the procedure's own child scope.
type Procedure struct {
	Element
	Name_  string
	Params []*scope.Variable
	Body   Statement
}

func NewProcedure(parent, own *scope.Scope, name string, params []*scope.Variable, body Statement) *Procedure {
	return &Procedure{Element: NewScopeOwningElement(parent, own, scope.Bool()), Name_: name, Params: params, Body: body}
}

func (p *Procedure) Name() string { return p.Name_ }
func (p *Procedure) Arity() int   { return len(p.Params) }

func (p *Procedure) ToString(indent string) string {
	names := make([]string, len(p.Params))
	for i, v := range p.Params {
		names[i] = v.Name
	}
	return "proc " + p.Name_ + "(" + strings.Join(names, ", ") + ") " + p.Body.ToString(indent+"  ")
}

func (p *Procedure) AttachSemantics(f Factory) error {
	return p.Body.AttachSemantics(f)
}

// Program is the top-level compilation unit: the global scope holding
// every declared action/exog-action/fluent/type/domain, the set of
// declared procedures, and the main top-level statement that Context.Run
// repeatedly steps.
type Program struct {
	Scope_     *scope.Scope
	Actions    []*Action
	Exogs      []*ExogAction
	Fluents    []*Fluent
	Procedures map[string]*Procedure
	Main       Statement
}

func NewProgram(global *scope.Scope) *Program {
	return &Program{Scope_: global, Procedures: make(map[string]*Procedure)}
}

// ActionByName finds a declared Action by name, used by history
// progression to look up effect axioms for a grounded transition.
func (p *Program) ActionByName(name string) (*Action, bool) {
	for _, a := range p.Actions {
		if a.Name_ == name {
			return a, true
		}
	}
	return nil, false
}

// ExogByName finds a declared ExogAction by name.
func (p *Program) ExogByName(name string) (*ExogAction, bool) {
	for _, e := range p.Exogs {
		if e.Name_ == name {
			return e, true
		}
	}
	return nil, false
}

// FluentByName finds a declared Fluent by name.
func (p *Program) FluentByName(name string) (*Fluent, bool) {
	for _, fl := range p.Fluents {
		if fl.Name_ == name {
			return fl, true
		}
	}
	return nil, false
}

// EffectsFor returns the effect axioms of the action or exog-action named
// by a grounding, regardless of which of the two it is.
func (p *Program) EffectsFor(actionName string) ([]*EffectAxiom, []*scope.Variable, bool) {
	if a, ok := p.ActionByName(actionName); ok {
		return a.Effects, a.Params, true
	}
	if e, ok := p.ExogByName(actionName); ok {
		return e.Effects, e.Params, true
	}
	return nil, nil, false
}

func (p *Program) ToString(indent string) string {
	var b strings.Builder
	for _, a := range p.Actions {
		b.WriteString(a.ToString(indent))
		b.WriteString("\n")
	}
	for _, e := range p.Exogs {
		b.WriteString(e.ToString(indent))
		b.WriteString("\n")
	}
	for _, fl := range p.Fluents {
		b.WriteString(fl.ToString(indent))
		b.WriteString("\n")
	}
	for _, proc := range p.Procedures {
		b.WriteString(proc.ToString(indent))
		b.WriteString("\n")
	}
	if p.Main != nil {
		b.WriteString(p.Main.ToString(indent))
	}
	return b.String()
}

// AttachAll runs the full compilation phase of §4.3 step 2: Precompile,
// then CompileGlobal for every action/exog-action/fluent (which each, in
// turn, attach semantics to their own children bottom-up), then
// Postcompile, then attach semantics to every procedure body and the
// main statement.
func (p *Program) AttachAll(f Factory) error {
	if err := f.Precompile(); err != nil {
		return err
	}
	for _, a := range p.Actions {
		if err := a.AttachSemantics(f); err != nil {
			return err
		}
	}
	for _, e := range p.Exogs {
		if err := e.AttachSemantics(f); err != nil {
			return err
		}
	}
	for _, fl := range p.Fluents {
		if err := fl.AttachSemantics(f); err != nil {
			return err
		}
	}
	if err := f.Postcompile(); err != nil {
		return err
	}
	for _, proc := range p.Procedures {
		if err := proc.AttachSemantics(f); err != nil {
			return err
		}
	}
	if p.Main != nil {
		return p.Main.AttachSemantics(f)
	}
	return nil
}
