// Package history implements the append-only transition/event log that
// every expression and statement evaluator consults, and the progress
// operation that folds a log prefix into updated fluent initial values
// (see AExecutionContext's history compaction in the reference
// implementation).
package history

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golog/internal/ast"
	"golog/internal/clock"
	"golog/internal/golerr"
)

// DefaultWatermark is the default number of un-folded entries that
// triggers ShouldProgress, absent an explicit configuration.
const DefaultWatermark = 500

// entry is one append-only record: a grounded transition plus the wall
// time it was appended.
type entry struct {
	transition ast.Transition
	at         time.Time
}

// History is the concrete, thread-safe implementation of ast.History.
// It owns the fluent-initial-value table its Progress folds into.
type History struct {
	mu         sync.RWMutex
	program    *ast.Program
	watermark  int
	entries    []entry // un-folded entries only; Progress drops the folded prefix
	folded     int     // number of entries already accounted for in initial
	initial    map[string]map[string]ast.Value
	lastHook   map[string]ast.Hook // grounding hash -> most recent hook, never pruned by Progress
}

// New constructs a History seeded from the program's declared fluent
// initial values. watermark <= 0 selects DefaultWatermark.
func New(program *ast.Program, watermark int) *History {
	if watermark <= 0 {
		watermark = DefaultWatermark
	}
	h := &History{
		program:   program,
		watermark: watermark,
		initial:   make(map[string]map[string]ast.Value),
		lastHook:  make(map[string]ast.Hook),
	}
	for _, fl := range program.Fluents {
		table := make(map[string]ast.Value, len(fl.InitialValues))
		for _, iv := range fl.InitialValues {
			table[argKey(iv.Args)] = iv.Value
		}
		h.initial[fl.Name()] = table
	}
	return h
}

func argKey(args []ast.Value) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = a.String()
	}
	return strings.Join(parts, ",")
}

// ToString renders the full (unfolded + folded-away summary) log, newest
// last, for diagnostics.
func (h *History) ToString(indent string) string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	var b strings.Builder
	fmt.Fprintf(&b, "%s[history folded=%d pending=%d]\n", indent, h.folded, len(h.entries))
	for _, e := range h.entries {
		fmt.Fprintf(&b, "%s  %s @ %s\n", indent, e.transition.String(), e.at.Format(time.RFC3339Nano))
	}
	return b.String()
}

// Append records a grounded transition at the current clock time.
func (h *History) Append(t ast.Transition) {
	now, err := clock.Now()
	if err != nil {
		now = time.Time{}
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, entry{transition: t, at: now})
	h.lastHook[t.Grounding.Hash()] = t.Hook
}

// LastHook reports the most recently appended Hook for a grounding hash.
// Unlike the rest of the log, this index survives Progress's compaction:
// ActionInvoke's Trans/Final need to know whether a grounding is
// currently startable or already terminal long after its entries have
// been folded away.
func (h *History) LastHook(groundingHash string) (ast.Hook, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	hook, ok := h.lastHook[groundingHash]
	return hook, ok
}

// Len reports the number of entries currently in the log (folded and
// pending together), used by termination-predicate evaluators that key
// on history length (e.g. "final once at least N actions completed").
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.folded + len(h.entries)
}

// At returns the transition at position i (0-indexed from the start of
// the un-compacted log, i.e. folded entries are no longer retrievable).
func (h *History) At(i int) (ast.Transition, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	idx := i - h.folded
	if idx < 0 || idx >= len(h.entries) {
		return ast.Transition{}, false
	}
	return h.entries[idx].transition, true
}

// FluentValue returns the current folded initial value of a fluent's
// ground argument tuple, i.e. its value as of the last progress() call.
// Expression evaluators combine this with any pending (un-folded)
// entries to compute the fluent's true current value.
func (h *History) FluentValue(fluentName string, args []ast.Value) (ast.Value, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	table, ok := h.initial[fluentName]
	if !ok {
		return ast.Value{}, false
	}
	v, ok := table[argKey(args)]
	return v, ok
}

// Pending returns the entries appended since the last progress(), for
// evaluators that need to replay un-folded effects on top of
// FluentValue's folded baseline.
func (h *History) Pending() []ast.Transition {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]ast.Transition, len(h.entries))
	for i, e := range h.entries {
		out[i] = e.transition
	}
	return out
}

// ShouldProgress reports whether the number of un-folded entries has
// crossed the configured watermark.
func (h *History) ShouldProgress() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.entries) >= h.watermark
}

// Progress folds every un-folded transition into the fluent
// initial-value table by replaying its matching effect axioms, then
// compacts the log by discarding the now-folded prefix. It is the
// concrete realization of "progress() compacts a prefix of history into
// the fluents' initial values" (§4 data model).
func (h *History) Progress() error {
	h.mu.Lock()
	pending := append([]entry(nil), h.entries...)
	h.mu.Unlock()

	for _, e := range pending {
		if err := h.foldOne(e.transition); err != nil {
			return err
		}
	}

	h.mu.Lock()
	h.entries = h.entries[len(pending):]
	h.folded += len(pending)
	h.mu.Unlock()
	return nil
}

func (h *History) foldOne(t ast.Transition) error {
	if t.Hook == ast.HookEnd {
		return nil
	}
	effects, params, ok := h.program.EffectsFor(t.Grounding.ActionName)
	if !ok {
		return golerr.NewEngineError(golerr.InconsistentTransition,
			"progress: no declaration for action %q", t.Grounding.ActionName)
	}
	if len(params) != len(t.Grounding.Args) {
		return golerr.NewEngineError(golerr.InconsistentTransition,
			"progress: %q expects %d args, grounding has %d", t.Grounding.ActionName, len(params), len(t.Grounding.Args))
	}
	b := ast.EmptyBinding()
	for i, p := range params {
		b = b.With(p.Name, t.Grounding.Args[i])
	}
	for _, eff := range effects {
		if eff.Hook != t.Hook {
			continue
		}
		if eff.Guard != nil {
			gv, err := eff.Guard.Evaluate(b, h)
			if err != nil {
				return err
			}
			if !gv.Bool() {
				continue
			}
		}
		uv, err := eff.Update.Evaluate(b, h)
		if err != nil {
			return err
		}
		fluentArgs, err := ast.Ground(eff.Fluent.Args, b, h)
		if err != nil {
			return err
		}
		table, ok := h.initial[eff.Fluent.Decl.Name]
		if !ok {
			table = make(map[string]ast.Value)
			h.initial[eff.Fluent.Decl.Name] = table
		}
		table[argKey(fluentArgs)] = uv
	}
	return nil
}

// CurrentValue returns a fluent grounding's value computed from the
// folded baseline plus every pending (un-compacted) transition's matching
// effect axioms, without mutating the folded table itself — the read
// Reference<Fluent> expressions perform on every evaluation.
func (h *History) CurrentValue(fluentName string, args []ast.Value) (ast.Value, bool, error) {
	h.mu.RLock()
	val, ok := ast.Value{}, false
	if table, exists := h.initial[fluentName]; exists {
		val, ok = table[argKey(args)]
	}
	pending := append([]entry(nil), h.entries...)
	h.mu.RUnlock()

	want := argKey(args)
	for _, e := range pending {
		t := e.transition
		if t.Hook == ast.HookEnd {
			continue
		}
		effects, params, found := h.program.EffectsFor(t.Grounding.ActionName)
		if !found {
			continue
		}
		b := ast.EmptyBinding()
		for i, p := range params {
			if i >= len(t.Grounding.Args) {
				break
			}
			b = b.With(p.Name, t.Grounding.Args[i])
		}
		for _, eff := range effects {
			if eff.Hook != t.Hook || eff.Fluent.Decl.Name != fluentName {
				continue
			}
			fluentArgs, err := ast.Ground(eff.Fluent.Args, b, h)
			if err != nil {
				return ast.Value{}, false, err
			}
			if argKey(fluentArgs) != want {
				continue
			}
			if eff.Guard != nil {
				gv, err := eff.Guard.Evaluate(b, h)
				if err != nil {
					return ast.Value{}, false, err
				}
				if !gv.Bool() {
					continue
				}
			}
			uv, err := eff.Update.Evaluate(b, h)
			if err != nil {
				return ast.Value{}, false, err
			}
			val, ok = uv, true
		}
	}
	return val, ok, nil
}

// SetFluent immediately overwrites a fluent grounding's folded value.
// Only Assign's dispatch calls this — see ast.ParseAssignGrounding.
func (h *History) SetFluent(fluentName string, args []ast.Value, v ast.Value) {
	h.mu.Lock()
	defer h.mu.Unlock()
	table, ok := h.initial[fluentName]
	if !ok {
		table = make(map[string]ast.Value)
		h.initial[fluentName] = table
	}
	table[argKey(args)] = v
}

// SortedFluentNames returns the names of fluents with folded state, for
// deterministic diagnostics/testing.
func (h *History) SortedFluentNames() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	names := make([]string, 0, len(h.initial))
	for n := range h.initial {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
