// Package engine implements Context.Run: the execution context's
// compile-then-step main loop, grounded in ExecutionContext::run and
// AExecutionContext's exogenous-queue handling in the reference
// implementation.
package engine

import (
	"context"
	"time"

	"golog/internal/activity"
	"golog/internal/ast"
	"golog/internal/clock"
	"golog/internal/golerr"
	"golog/internal/history"
	"golog/internal/logging"
	"golog/internal/platform"
)

// Context is the execution context: the compiled program, its history,
// the platform registry, and the exogenous-event queue feeding it.
type Context struct {
	program     *ast.Program
	factory     ast.Factory
	registry    *platform.Registry
	hist        *history.History
	exog        *ExogQueue
	contextTime time.Time
}

// New constructs a Context. The factory and the backend are independent
// values: a Factory's job is semantics attachment, while the Backend
// (wrapped here in a platform.Registry) does activity dispatch.
func New(program *ast.Program, factory ast.Factory, backend platform.Backend, watermark int) *Context {
	return &Context{
		program:  program,
		factory:  factory,
		registry: platform.NewRegistry(backend),
		hist:     history.New(program, watermark),
		exog:     NewExogQueue(),
	}
}

// History exposes the context's history, e.g. for tests asserting on
// its folded fluent state.
func (c *Context) History() *history.History { return c.hist }

// ActivityState reports whether an activity is currently tracked for
// the grounding hash, and its lifecycle state if so. A retired
// (finished, failed or cancelled) activity is untracked: this returns
// false once its terminal hook has been dispatched.
func (c *Context) ActivityState(hash string) (activity.State, bool) {
	return c.registry.CurrentState(hash)
}

// PushExog enqueues an exogenous transition observed by a backend.
func (c *Context) PushExog(t ast.Transition) { c.exog.Push(t) }

// Terminate requests cooperative shutdown: the current or next blocking
// drain returns golerr.Terminate.
func (c *Context) Terminate() { c.exog.Terminate() }

// ContextTime returns the wall-clock sample taken at the start of the
// current (or most recently completed) loop iteration.
func (c *Context) ContextTime() time.Time { return c.contextTime }

// Run drives the program to completion: compile (Precompile ->
// CompileGlobal* -> Postcompile -> attach procedures/main), then
// repeatedly sample context time, compute trans, dispatch the resulting
// plan's primitive transitions to the platform registry, drain
// exogenous events between them, and progress history once its
// watermark is crossed. Returns nil on Final with no further trans, a
// UserError/EngineError/Bug on an unrecoverable condition, or
// golerr.Terminate if Terminate was called.
func (c *Context) Run(ctx context.Context) error {
	if err := c.program.AttachAll(c.factory); err != nil {
		return err
	}

	watchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-watchCtx.Done()
		c.exog.Terminate()
	}()

	binding := ast.EmptyBinding()
	for {
		now, err := clock.Now()
		if err != nil {
			return err
		}
		c.contextTime = now

		final, err := c.program.Main.Final(binding, c.hist)
		if err != nil {
			return err
		}

		plan, ok, err := c.program.Main.Trans(binding, c.hist)
		if err != nil {
			return err
		}

		if !ok {
			if final {
				logging.Engine("program reached a final, transition-less configuration")
				c.recordFinal()
				return nil
			}
			logging.EngineDebug("no transition available, blocking on exogenous queue")
			batch, err := c.exog.DrainBlocking()
			if err != nil {
				return err
			}
			for _, t := range batch {
				if err := c.dispatchExog(t); err != nil {
					return err
				}
				c.hist.Append(t)
			}
			continue
		}

		if plan.Empty() {
			if final {
				logging.Engine("program reached a final configuration with no further work")
				c.recordFinal()
				return nil
			}
			// A non-durative step (e.g. a satisfied Test) succeeded with
			// nothing to dispatch, but the program isn't done; re-evaluate
			// next iteration so the residual statement gets its turn.
			continue
		}

		for _, pe := range plan.Elements {
			if err := c.dispatch(pe.Transition); err != nil {
				return err
			}
			c.hist.Append(pe.Transition)

			for _, t := range c.exog.DrainNonblocking() {
				if err := c.dispatchExog(t); err != nil {
					return err
				}
				c.hist.Append(t)
			}
		}

		if c.hist.ShouldProgress() {
			if err := c.hist.Progress(); err != nil {
				return err
			}
			logging.HistoryDebug("progressed history at length %d", c.hist.Len())
		}
	}
}

// finalRecorder is implemented by factories that mirror "the program
// stopped here" into their own bookkeeping (the reference reasoner
// records a program_final fact for introspection, per SPEC_FULL §4.9).
// It is optional: a minimal Factory that only needs Trans/Final need not
// implement it.
type finalRecorder interface {
	RecordFinal() error
}

// recordFinal notifies the factory, if it cares, that Run is stopping
// because Main reached a final configuration with no further Trans to
// offer. Errors are logged rather than propagated: a bookkeeping failure
// in the factory's own fact store shouldn't turn a successful run into a
// failed one.
func (c *Context) recordFinal() {
	fr, ok := c.factory.(finalRecorder)
	if !ok {
		return
	}
	if err := fr.RecordFinal(); err != nil {
		logging.EngineDebug("recording final configuration: %v", err)
	}
}

// dispatchExog retires the tracked activity named by a transition
// drained from the exogenous queue, before it is recorded in history.
// Terminal and END hooks reported asynchronously by the backend (a
// simulated completion, a confirmed preemption) never pass through
// dispatch's plan-element path the way a locally elected HookStart or
// HookStop does, so EndActivity is applied here instead. A hook naming
// an untracked grounding (an exogenous action with no StartActivity of
// its own) is left to history alone.
func (c *Context) dispatchExog(t ast.Transition) error {
	if !isActivityEndHook(t.Hook) {
		return nil
	}
	if _, tracked := c.registry.CurrentState(t.Grounding.Hash()); !tracked {
		return nil
	}
	_, err := c.registry.EndActivity(t)
	return err
}

func isActivityEndHook(h ast.Hook) bool {
	return h == ast.HookFinish || h == ast.HookFail || h == ast.HookEnd
}

func (c *Context) dispatch(t ast.Transition) error {
	logging.EngineDebug("dispatching %s", t)
	if fluentName, args, value, ok := ast.ParseAssignGrounding(t.Grounding); ok {
		c.hist.SetFluent(fluentName, args, value)
		return nil
	}
	switch t.Hook {
	case ast.HookStart:
		_, err := c.registry.StartActivity(t.Grounding)
		return err
	case ast.HookStop:
		return c.registry.CancelActivity(t.Grounding.Hash())
	case ast.HookFinish, ast.HookFail, ast.HookEnd:
		_, err := c.registry.EndActivity(t)
		return err
	default:
		return golerr.NewBug("dispatch: unrecognized hook %s", t.Hook)
	}
}
