// Package simplatform implements a deterministic, in-memory reference
// platform.Backend: ExecuteActivity schedules a synthetic-duration FINISH
// (or FAIL, for groundings configured on the negative path) delivered
// back through the exogenous queue rather than synchronously, so callers
// observe the same start-then-later-completion shape a real backend
// would produce. Grounded in PlatformBackend's execute_activity/
// cancel_activity contract, using the teacher's errgroup.Group-supervised
// goroutine style for every in-flight simulated activity.
package simplatform

import (
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"golog/internal/activity"
	"golog/internal/ast"
	"golog/internal/logging"
)

// DefaultDuration is how long ExecuteActivity waits before reporting
// FINISH for a grounding with no configured override, absent a
// Backend-level override set via SetDefaultDuration.
const DefaultDuration = 50 * time.Millisecond

// Backend is the in-memory reference platform.Backend.
type Backend struct {
	mu         sync.Mutex
	pushExog   func(ast.Transition)
	defaultDur time.Duration
	durations  map[string]time.Duration // keyed by grounding hash
	failures   map[string]bool          // keyed by grounding hash
	stops      map[string]chan struct{} // keyed by grounding hash
	group      errgroup.Group
}

// New constructs a Backend that delivers every simulated completion to
// pushExog — ordinarily engine.Context.PushExog, so completions surface
// through the same exogenous path a real backend's callbacks would use.
func New(pushExog func(ast.Transition)) *Backend {
	return &Backend{
		pushExog:   pushExog,
		defaultDur: DefaultDuration,
		durations:  make(map[string]time.Duration),
		failures:   make(map[string]bool),
		stops:      make(map[string]chan struct{}),
	}
}

// SetDefaultDuration overrides the synthetic completion duration used
// for any grounding with no per-grounding SetDuration override, e.g.
// from config.Config.Run.SimActivityDuration.
func (b *Backend) SetDefaultDuration(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.defaultDur = d
}

// Time satisfies clock.Source, letting a program register this backend
// as the process-wide clock for deterministic single-process tests.
func (b *Backend) Time() time.Time { return time.Now() }

// SetDuration overrides how long a specific grounding takes to complete.
func (b *Backend) SetDuration(hash string, d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.durations[hash] = d
}

// SetFails marks a specific grounding as reporting FAIL instead of
// FINISH once its synthetic duration elapses.
func (b *Backend) SetFails(hash string, fails bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures[hash] = fails
}

// ExecuteActivity schedules act's eventual completion on a
// group-supervised goroutine, cancellable via PreemptActivity.
func (b *Backend) ExecuteActivity(act *activity.Activity) error {
	hash := act.Hash()
	b.mu.Lock()
	d, ok := b.durations[hash]
	if !ok {
		d = b.defaultDur
	}
	fails := b.failures[hash]
	stop := make(chan struct{})
	b.stops[hash] = stop
	b.mu.Unlock()

	logging.PlatformDebug("sim: executing %s, completing in %s", hash, d)
	grounding := act.Grounding
	b.group.Go(func() error {
		select {
		case <-time.After(d):
			hook := ast.HookFinish
			if fails {
				hook = ast.HookFail
			}
			b.pushExog(ast.NewTransition(grounding, hook))
		case <-stop:
		}
		return nil
	})
	return nil
}

// PreemptActivity cancels the pending completion goroutine and reports
// the activity's confirmed cancellation (PREEMPTED -> CANCELLED) via an
// END transition.
func (b *Backend) PreemptActivity(act *activity.Activity) error {
	hash := act.Hash()
	b.mu.Lock()
	stop, ok := b.stops[hash]
	delete(b.stops, hash)
	b.mu.Unlock()
	if ok {
		close(stop)
	}
	logging.PlatformDebug("sim: preempted %s", hash)
	b.pushExog(ast.NewTransition(act.Grounding, ast.HookEnd))
	return nil
}

// TerminateComponents stops every pending simulated activity and waits
// for their supervised goroutines to return.
func (b *Backend) TerminateComponents() {
	b.mu.Lock()
	for hash, stop := range b.stops {
		close(stop)
		delete(b.stops, hash)
	}
	b.mu.Unlock()
	if err := b.group.Wait(); err != nil {
		logging.PlatformWarn("sim: TerminateComponents: %v", err)
	}
}
