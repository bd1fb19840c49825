// Package clock provides the engine's single process-wide time source.
// A platform backend registers itself as the source at construction;
// attempting to register a second source fails loudly, matching the
// source implementation's Clock::set_clock_source check.
package clock

import (
	"sync/atomic"
	"time"

	"golog/internal/golerr"
)

// Source is anything that can report the current time with
// backend-defined resolution. Platform backends implement this.
type Source interface {
	Time() time.Time
}

var source atomic.Pointer[Source]

// SetSource registers the process-wide clock source. It fails with a Bug
// if a source is already registered, enforcing the "exactly one source"
// invariant from the data model.
func SetSource(s Source) error {
	var holder Source = s
	if !source.CompareAndSwap(nil, &holder) {
		return golerr.NewBug("clock source already registered")
	}
	return nil
}

// Reset clears the registered source. Intended for tests only.
func Reset() {
	source.Store(nil)
}

// Now returns the current time from the registered source. It is a Bug
// to call Now before a source has been registered.
func Now() (time.Time, error) {
	p := source.Load()
	if p == nil {
		return time.Time{}, golerr.NewBug("clock: no source registered")
	}
	return (*p).Time(), nil
}
