package ast

import (
	"fmt"
	"strings"
)

// Hook identifies the lifecycle edge a Transition denotes.
type Hook int

const (
	HookStart Hook = iota
	HookStop
	HookFail
	HookFinish
	// HookEnd is a wildcard matching any terminal activity state.
	HookEnd
)

func (h Hook) String() string {
	switch h {
	case HookStart:
		return "start"
	case HookStop:
		return "stop"
	case HookFail:
		return "fail"
	case HookFinish:
		return "finish"
	case HookEnd:
		return "end"
	default:
		return "?"
	}
}

// Grounding is an (action, constant-arg-tuple) pair with no free
// variables: a fully-instantiated reference to a Global (Action or
// ExogAction).
type Grounding struct {
	ActionName string
	Args       []Value
}

// NewGrounding constructs a Grounding, requiring every argument to
// already be a ground Value (no free variables) per the data model's
// invariant.
func NewGrounding(actionName string, args []Value) Grounding {
	return Grounding{ActionName: actionName, Args: append([]Value(nil), args...)}
}

// Hash returns a stable key identifying this grounding, used to key the
// activity map (§3: "at most one Activity exists per grounding hash at
// any time").
func (g Grounding) Hash() string {
	parts := make([]string, len(g.Args))
	for i, a := range g.Args {
		parts[i] = a.String()
	}
	return g.ActionName + "(" + strings.Join(parts, ",") + ")"
}

func (g Grounding) String() string { return g.Hash() }

// Transition is a Grounding plus a lifecycle Hook. It is used both as
// the symbolic transition produced by trans and as the command
// delivered to the platform backend.
type Transition struct {
	Grounding Grounding
	Hook      Hook
}

func NewTransition(g Grounding, h Hook) Transition {
	return Transition{Grounding: g, Hook: h}
}

func (t Transition) Hash() string { return t.Grounding.Hash() }

func (t Transition) String() string {
	return fmt.Sprintf("%s:%s", t.Hook, t.Grounding)
}

// TargetStateName names the Activity state a Hook other than END
// transitions toward; it is re-exported from the activity package's
// perspective via this string-level mapping to avoid a dependency
// cycle (internal/activity imports ast, not the reverse).
func (h Hook) TargetStateName() string {
	switch h {
	case HookStart:
		return "running"
	case HookStop:
		return "preempted"
	case HookFail:
		return "failed"
	case HookFinish:
		return "final"
	default:
		return ""
	}
}

// assignActionPrefix names the reserved, never-declared pseudo-action an
// Assign statement's Trans synthesizes a Grounding under: assignment has
// no Activity lifecycle of its own, but routing it through the ordinary
// Transition/history-append path (rather than a side channel) keeps
// Sequence's "has first completed" check working unmodified for both
// durative and instantaneous first-statements.
const assignActionPrefix = "$assign$"

// AssignGroundingName returns the pseudo-action name an Assign targeting
// fluentName grounds under.
func AssignGroundingName(fluentName string) string { return assignActionPrefix + fluentName }

// ParseAssignGrounding recognizes a Grounding produced by an Assign
// statement and splits it back into the target fluent's name, its
// argument tuple, and the assigned value (smuggled as the grounding's
// trailing argument).
func ParseAssignGrounding(g Grounding) (fluentName string, args []Value, value Value, ok bool) {
	if !strings.HasPrefix(g.ActionName, assignActionPrefix) {
		return "", nil, Value{}, false
	}
	if len(g.Args) == 0 {
		return "", nil, Value{}, false
	}
	n := len(g.Args) - 1
	return strings.TrimPrefix(g.ActionName, assignActionPrefix), g.Args[:n], g.Args[n], true
}

// Plan is an ordered sequence of primitive transitions produced by one
// step of trans.
type Plan struct {
	Elements []PlanElement
}

// PlanElement pairs the primitive AST instruction to execute with the
// Transition it denotes once successfully performed.
type PlanElement struct {
	Instruction Statement
	Transition  Transition
}

// Empty reports whether a plan has no elements — the signal that a
// primitive step's own trans succeeded (§4.3: "primitive transitions do
// not nest").
func (p *Plan) Empty() bool { return p == nil || len(p.Elements) == 0 }
