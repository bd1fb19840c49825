package scope

import "golog/internal/golerr"

// Variable is a named, typed placeholder declared in some scope.
type Variable struct {
	Name string
	Type Type
}

// Scope maps variable names (unique within the scope) to typed
// variables, with a back-reference to the parent scope and the shared
// Registry of globals/domains/types. The global scope is its own
// parent, terminating the resolution chain.
type Scope struct {
	parent   *Scope
	registry *Registry
	vars     map[string]*Variable
}

// NewGlobalScope constructs the root scope of the scope tree. Its
// parent is itself.
func NewGlobalScope() *Scope {
	s := &Scope{registry: NewRegistry(), vars: make(map[string]*Variable)}
	s.parent = s
	return s
}

// NewChild opens a new scope nested in parent, sharing its registry.
func (s *Scope) NewChild() *Scope {
	return &Scope{parent: s, registry: s.registry, vars: make(map[string]*Variable)}
}

func (s *Scope) Parent() *Scope   { return s.parent }
func (s *Scope) IsGlobal() bool   { return s.parent == s }
func (s *Scope) Registry() *Registry { return s.registry }

// Declare adds a new variable to this scope. Redeclaring the same name
// within the same scope is a RedefinitionError.
func (s *Scope) Declare(name string, t Type) (*Variable, error) {
	if _, ok := s.vars[name]; ok {
		return nil, golerr.NewUserError(golerr.RedefinitionError, name,
			"variable %s already declared in this scope", name)
	}
	v := &Variable{Name: name, Type: t}
	s.vars[name] = v
	return v, nil
}

// LookupVar walks the parent chain innermost-first and returns the
// first variable bound to name. The spec requires every variable
// reference's target be reachable via this chain.
func (s *Scope) LookupVar(name string) (*Variable, bool) {
	cur := s
	for {
		if v, ok := cur.vars[name]; ok {
			return v, true
		}
		if cur.IsGlobal() {
			return nil, false
		}
		cur = cur.parent
	}
}

// DeclareGlobal forwards to the shared registry.
func (s *Scope) DeclareGlobal(g *GlobalDecl) error { return s.registry.DeclareGlobal(g) }

// DefineGlobal forwards to the shared registry.
func (s *Scope) DefineGlobal(g *GlobalDecl) (bool, error) { return s.registry.DefineGlobal(g) }

// LookupGlobal forwards to the shared registry.
func (s *Scope) LookupGlobal(name string, arity int) (*GlobalDecl, bool) {
	return s.registry.LookupGlobal(name, arity)
}

// RegisterType forwards to the shared registry.
func (s *Scope) RegisterType(name string, fields map[string]Type) error {
	return s.registry.RegisterType(name, fields)
}

// RegisterDomain forwards to the shared registry.
func (s *Scope) RegisterDomain(name string, constants []string) {
	s.registry.RegisterDomain(name, constants)
}
