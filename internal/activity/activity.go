// Package activity implements the Activity lifecycle state machine: one
// Activity exists per (action, constant-arg-tuple) grounding hash while
// it is IDLE, RUNNING or PREEMPTED, and is retired once it reaches a
// terminal state. State edges are grounded in PlatformBackend's
// start_activity/cancel_activity/end_activity consistency checks.
package activity

import (
	"sync"

	"golog/internal/ast"
	"golog/internal/golerr"
)

// State is one member of the activity lifecycle.
type State int

const (
	Idle State = iota
	Running
	Final
	Failed
	Preempted
	Cancelled
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Final:
		return "final"
	case Failed:
		return "failed"
	case Preempted:
		return "preempted"
	case Cancelled:
		return "cancelled"
	default:
		return "?"
	}
}

// IsTerminal reports whether a state retires its Activity: no further
// hook but END can legally apply to it.
func IsTerminal(s State) bool {
	return s == Final || s == Failed || s == Cancelled
}

// TargetState reports the state a non-END hook transitions toward. END
// has no single target: it either confirms an already-terminal state or
// settles a PREEMPTED activity into CANCELLED.
func TargetState(h ast.Hook) (State, bool) {
	switch h {
	case ast.HookStart:
		return Running, true
	case ast.HookStop:
		return Preempted, true
	case ast.HookFail:
		return Failed, true
	case ast.HookFinish:
		return Final, true
	default:
		return 0, false
	}
}

func legalEdge(cur State, hook ast.Hook) bool {
	switch hook {
	case ast.HookStart:
		return cur == Idle
	case ast.HookStop:
		return cur == Running
	case ast.HookFail:
		return cur == Idle || cur == Running
	case ast.HookFinish:
		return cur == Running
	default:
		return false
	}
}

// Activity tracks the current state of one grounded action invocation,
// plus any sensing result a FINISH hook carried.
type Activity struct {
	mu        sync.Mutex
	Grounding ast.Grounding
	state     State
	sensed    ast.Value
	hasSensed bool
}

// New constructs an IDLE activity for a grounding. Callers (the platform
// registry) are responsible for the "at most one Activity per grounding
// hash" invariant.
func New(g ast.Grounding) *Activity {
	return &Activity{Grounding: g, state: Idle}
}

func (a *Activity) Hash() string { return a.Grounding.Hash() }

func (a *Activity) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// SetSensingResult records the value a sensing action's completion
// reported, readable by the effect axiom that consumes it.
func (a *Activity) SetSensingResult(v ast.Value) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sensed = v
	a.hasSensed = true
}

func (a *Activity) SensingResult() (ast.Value, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sensed, a.hasSensed
}

// ApplyHook advances the activity's state for hook. already=true means
// the transition is a duplicate of one already reflected in the
// activity's current state (the backend may re-report it harmlessly);
// err is an EngineError when hook is not a legal edge from the current
// state at all.
func (a *Activity) ApplyHook(hook ast.Hook) (already bool, err error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if hook == ast.HookEnd {
		if IsTerminal(a.state) {
			return true, nil
		}
		if a.state == Preempted {
			a.state = Cancelled
			return false, nil
		}
		return false, golerr.NewEngineError(golerr.InconsistentTransition,
			"end hook on non-terminal, non-preempted activity %s in state %s", a.Grounding.Hash(), a.state)
	}

	target, ok := TargetState(hook)
	if !ok {
		return false, golerr.NewEngineError(golerr.InconsistentTransition,
			"unrecognized hook for activity %s", a.Grounding.Hash())
	}
	if a.state == target {
		return true, nil
	}
	if !legalEdge(a.state, hook) {
		return false, golerr.NewEngineError(golerr.LostTransition,
			"hook %s illegal from state %s for activity %s", hook, a.state, a.Grounding.Hash())
	}
	a.state = target
	return false, nil
}
