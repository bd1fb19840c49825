// Package golerr implements the engine's error taxonomy: Bug (fatal
// invariant violation), EngineError (recoverable protocol error),
// UserError (model-construction problem), and the cooperative Terminate
// signal. See the execution context's main loop for where each is raised.
package golerr

import "fmt"

// Bug indicates an invariant violation inside the engine itself. It is
// always fatal and unwinds the execution loop.
type Bug struct {
	Msg string
}

func (b *Bug) Error() string { return "bug: " + b.Msg }

// NewBug constructs a Bug with a formatted message.
func NewBug(format string, args ...interface{}) *Bug {
	return &Bug{Msg: fmt.Sprintf(format, args...)}
}

// EngineKind classifies an EngineError.
type EngineKind int

const (
	LostTransition EngineKind = iota
	InconsistentTransition
	DuplicateTransition
)

func (k EngineKind) String() string {
	switch k {
	case LostTransition:
		return "lost-transition"
	case InconsistentTransition:
		return "inconsistent-transition"
	case DuplicateTransition:
		return "duplicate-transition"
	default:
		return "unknown-engine-error"
	}
}

// EngineError is recoverable by the caller of the activity lifecycle API,
// but not by the main loop itself.
type EngineError struct {
	Kind EngineKind
	Msg  string
}

func (e *EngineError) Error() string { return e.Kind.String() + ": " + e.Msg }

func NewEngineError(kind EngineKind, format string, args ...interface{}) *EngineError {
	return &EngineError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// UserKind classifies a UserError.
type UserKind int

const (
	TypeError UserKind = iota
	ExpressionTypeMismatch
	RedefinitionError
	AlreadyRunning
)

func (k UserKind) String() string {
	switch k {
	case TypeError:
		return "type-error"
	case ExpressionTypeMismatch:
		return "expression-type-mismatch"
	case RedefinitionError:
		return "redefinition-error"
	case AlreadyRunning:
		return "already-running"
	default:
		return "unknown-user-error"
	}
}

// UserError surfaces a model-construction problem. Element is the
// to_string-like diagnostic of the offending AST element, if any.
type UserError struct {
	Kind    UserKind
	Msg     string
	Element string
}

func (e *UserError) Error() string {
	if e.Element == "" {
		return e.Kind.String() + ": " + e.Msg
	}
	return e.Kind.String() + ": " + e.Msg + " (" + e.Element + ")"
}

func NewUserError(kind UserKind, element string, format string, args ...interface{}) *UserError {
	return &UserError{Kind: kind, Msg: fmt.Sprintf(format, args...), Element: element}
}

// ErrTerminate is the cooperative termination signal. It is not an error
// in the diagnostic sense and should never be logged as a failure.
type ErrTerminate struct{}

func (ErrTerminate) Error() string { return "terminated" }

// Terminate is the singleton ErrTerminate value, for use with errors.Is.
var Terminate error = ErrTerminate{}
