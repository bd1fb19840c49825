// Package platform implements the execution context's platform-backend
// boundary: the Registry tracks at most one Activity per grounding hash
// and dispatches lifecycle transitions to a pluggable Backend, grounded
// in PlatformBackend::start_activity/cancel_activity/end_activity and
// register_component_backend/get_component_backend/terminate_components.
package platform

import (
	"sync"

	"golog/internal/activity"
	"golog/internal/ast"
	"golog/internal/clock"
	"golog/internal/golerr"
	"golog/internal/logging"
)

// ComponentBackend is a named sub-backend a Backend can route individual
// actions to (e.g. one per physical component/device).
type ComponentBackend interface {
	Name() string
}

// DummyComponent is the lazily-constructed no-op ComponentBackend
// GetComponentBackend returns, with a Warn-level log, when no backend
// was registered under the requested name.
type DummyComponent struct{ name string }

func (d *DummyComponent) Name() string { return d.name }

// Backend is the pluggable execution surface a platform implementation
// provides: a clock source plus activity dispatch and component
// management.
type Backend interface {
	clock.Source
	ExecuteActivity(act *activity.Activity) error
	PreemptActivity(act *activity.Activity) error
	TerminateComponents()
}

// Registry owns the grounding-hash-keyed activity map and mediates every
// lifecycle transition through a Backend. Its mutex guards only the map;
// it is never held across a call into the backend.
type Registry struct {
	mu         sync.Mutex
	backend    Backend
	activities map[string]*activity.Activity
	components map[string]ComponentBackend
	compMu     sync.RWMutex
}

func NewRegistry(backend Backend) *Registry {
	return &Registry{
		backend:    backend,
		activities: make(map[string]*activity.Activity),
		components: make(map[string]ComponentBackend),
	}
}

// StartActivity creates the Activity for g, applies the START hook, and
// dispatches ExecuteActivity to the backend. Per the data model's
// invariant, at most one Activity exists per grounding hash at any
// time: starting a grounding that is already tracked fails with an
// AlreadyRunning UserError and leaves the map unchanged.
func (r *Registry) StartActivity(g ast.Grounding) (*activity.Activity, error) {
	r.mu.Lock()
	if _, existed := r.activities[g.Hash()]; existed {
		r.mu.Unlock()
		return nil, golerr.NewUserError(golerr.AlreadyRunning, g.Hash(),
			"activity %s is already running", g.Hash())
	}
	act := activity.New(g)
	r.activities[g.Hash()] = act
	r.mu.Unlock()

	logging.AuditWithCategory(logging.CategoryActivity).ActivityCreated(g.Hash())

	if _, err := act.ApplyHook(ast.HookStart); err != nil {
		return nil, err
	}
	logging.PlatformDebug("dispatching execute for %s", g.Hash())
	if err := r.backend.ExecuteActivity(act); err != nil {
		logging.PlatformError("backend execute failed for %s: %v", g.Hash(), err)
		return act, err
	}
	return act, nil
}

// CancelActivity applies the STOP hook to the activity named by hash
// and dispatches PreemptActivity to the backend.
func (r *Registry) CancelActivity(hash string) error {
	r.mu.Lock()
	act, ok := r.activities[hash]
	r.mu.Unlock()
	if !ok {
		return golerr.NewEngineError(golerr.LostTransition, "cancel: no activity for %s", hash)
	}
	if _, err := act.ApplyHook(ast.HookStop); err != nil {
		return err
	}
	return r.backend.PreemptActivity(act)
}

// EndActivity applies a terminal or END hook reported by the backend
// (FINISH, FAIL or END) to the activity named by the transition's
// grounding, retiring it from the registry once it reaches a terminal
// state. Returns whether the transition was a duplicate no-op.
func (r *Registry) EndActivity(t ast.Transition) (duplicate bool, err error) {
	hash := t.Grounding.Hash()
	r.mu.Lock()
	act, ok := r.activities[hash]
	r.mu.Unlock()
	if !ok {
		return false, golerr.NewEngineError(golerr.LostTransition, "end: no activity for %s", hash)
	}

	already, err := act.ApplyHook(t.Hook)
	if err != nil {
		return false, err
	}
	if already {
		logging.AuditWithCategory(logging.CategoryActivity).ActivityDuplicate(hash)
	}

	if activity.IsTerminal(act.State()) {
		r.mu.Lock()
		delete(r.activities, hash)
		r.mu.Unlock()
		logging.AuditWithCategory(logging.CategoryActivity).ActivityRetired(hash)
	}
	return already, nil
}

// CurrentState returns the state of the activity named by hash, if any
// is currently tracked.
func (r *Registry) CurrentState(hash string) (activity.State, bool) {
	r.mu.Lock()
	act, ok := r.activities[hash]
	r.mu.Unlock()
	if !ok {
		return 0, false
	}
	return act.State(), true
}

// RegisterComponentBackend installs a named ComponentBackend.
func (r *Registry) RegisterComponentBackend(name string, impl ComponentBackend) {
	r.compMu.Lock()
	defer r.compMu.Unlock()
	r.components[name] = impl
}

// GetComponentBackend returns the named ComponentBackend, or a lazily
// constructed DummyComponent (with a Warn log) if none was registered.
func (r *Registry) GetComponentBackend(name string) ComponentBackend {
	r.compMu.RLock()
	c, ok := r.components[name]
	r.compMu.RUnlock()
	if ok {
		return c
	}
	logging.PlatformWarn("no component backend registered for %q, using dummy", name)
	return &DummyComponent{name: name}
}

// TerminateComponents forwards to the backend's shutdown hook.
func (r *Registry) TerminateComponents() {
	r.backend.TerminateComponents()
}
