package scope

import (
	"fmt"
	"sync"

	"golog/internal/golerr"
)

// GlobalKind distinguishes the four global element flavors that share
// the (name, arity) namespace: actions, exogenous actions, fluents and
// functions.
type GlobalKind int

const (
	GlobalAction GlobalKind = iota
	GlobalExogAction
	GlobalFluent
	GlobalFunction
)

func (k GlobalKind) String() string {
	switch k {
	case GlobalAction:
		return "action"
	case GlobalExogAction:
		return "exog-action"
	case GlobalFluent:
		return "fluent"
	case GlobalFunction:
		return "function"
	default:
		return "global"
	}
}

// GlobalDecl is the registry's record for one named, fixed-arity global
// (action, exogenous action, fluent, or function).
type GlobalDecl struct {
	Kind       GlobalKind
	Name       string
	ParamTypes []Type
	// ReturnType is set for fluents and functions; zero value for actions.
	ReturnType Type
	HasReturn  bool
}

func (g *GlobalDecl) Arity() int { return len(g.ParamTypes) }

func key(name string, arity int) string { return fmt.Sprintf("%s/%d", name, arity) }

// Registry holds the shared, process-wide tables of globals, domains and
// named compound types. It is built during setup and treated as
// read-only once the execution context begins Run (§5).
type Registry struct {
	mu      sync.RWMutex
	globals map[string]*GlobalDecl
	domains map[string][]string
	types   map[string]map[string]Type
}

func NewRegistry() *Registry {
	return &Registry{
		globals: make(map[string]*GlobalDecl),
		domains: make(map[string][]string),
		types:   make(map[string]map[string]Type),
	}
}

// DeclareGlobal registers a new global or validates a redeclaration.
// Redeclaration with parameter types that widen the existing declaration
// is permitted; a narrowing or kind-changing redeclaration fails with a
// UserError (TypeError).
func (r *Registry) DeclareGlobal(g *GlobalDecl) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := key(g.Name, g.Arity())
	existing, ok := r.globals[k]
	if !ok {
		r.globals[k] = g
		return nil
	}
	if existing.Kind != g.Kind {
		return golerr.NewUserError(golerr.TypeError, k,
			"cannot redeclare %s as %s", existing.Kind, g.Kind)
	}
	for i, pt := range g.ParamTypes {
		if !Widens(existing.ParamTypes[i], pt) {
			return golerr.NewUserError(golerr.TypeError, k,
				"redeclaration of %s narrows parameter %d from %s to %s", k, i, existing.ParamTypes[i], pt)
		}
	}
	if existing.HasReturn && g.HasReturn && !Widens(existing.ReturnType, g.ReturnType) {
		return golerr.NewUserError(golerr.TypeError, k,
			"redeclaration of %s narrows return type from %s to %s", k, existing.ReturnType, g.ReturnType)
	}
	r.globals[k] = g
	return nil
}

// DefineGlobal is DeclareGlobal plus a warning signal (returned as the
// second value) when the identical signature was already defined —
// "warns on silent redefinition" per §4.2.
func (r *Registry) DefineGlobal(g *GlobalDecl) (redefined bool, err error) {
	r.mu.RLock()
	_, existed := r.globals[key(g.Name, g.Arity())]
	r.mu.RUnlock()
	if err := r.DeclareGlobal(g); err != nil {
		return false, err
	}
	return existed, nil
}

// LookupGlobal finds a global by (name, arity).
func (r *Registry) LookupGlobal(name string, arity int) (*GlobalDecl, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.globals[key(name, arity)]
	return g, ok
}

// RegisterDomain registers a finite enumeration of constant symbols
// under a domain name, used for Cartesian-product fluent argument
// domains.
func (r *Registry) RegisterDomain(name string, constants []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.domains[name] = append([]string(nil), constants...)
}

func (r *Registry) Domain(name string) ([]string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.domains[name]
	return d, ok
}

// RegisterType registers a named compound type's field layout. Defining
// the same name twice with a different field set is a RedefinitionError.
func (r *Registry) RegisterType(name string, fields map[string]Type) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[name]; ok {
		if !sameFields(existing, fields) {
			return golerr.NewUserError(golerr.RedefinitionError, name,
				"compound type %s redefined with incompatible fields", name)
		}
		return nil
	}
	r.types[name] = fields
	return nil
}

func (r *Registry) TypeFields(name string) (map[string]Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	f, ok := r.types[name]
	return f, ok
}

func sameFields(a, b map[string]Type) bool {
	if len(a) != len(b) {
		return false
	}
	for k, v := range a {
		bv, ok := b[k]
		if !ok || !v.Equal(bv) {
			return false
		}
	}
	return true
}
