package activity

import (
	"errors"
	"testing"

	"golog/internal/ast"
	"golog/internal/golerr"
)

func newTestActivity() *Activity {
	return New(ast.NewGrounding("turn_on", nil))
}

func TestNewActivityStartsIdle(t *testing.T) {
	a := newTestActivity()
	if a.State() != Idle {
		t.Fatalf("State() = %v, want Idle", a.State())
	}
}

func TestApplyHookStartThenFinish(t *testing.T) {
	a := newTestActivity()

	already, err := a.ApplyHook(ast.HookStart)
	if err != nil {
		t.Fatalf("ApplyHook(Start) error = %v", err)
	}
	if already {
		t.Fatal("ApplyHook(Start) from Idle should not report already=true")
	}
	if a.State() != Running {
		t.Fatalf("State() = %v, want Running", a.State())
	}

	already, err = a.ApplyHook(ast.HookFinish)
	if err != nil {
		t.Fatalf("ApplyHook(Finish) error = %v", err)
	}
	if already {
		t.Fatal("ApplyHook(Finish) from Running should not report already=true")
	}
	if a.State() != Final {
		t.Fatalf("State() = %v, want Final", a.State())
	}
	if !IsTerminal(a.State()) {
		t.Fatal("Final should be terminal")
	}
}

func TestApplyHookDuplicateIsIdempotent(t *testing.T) {
	a := newTestActivity()
	if _, err := a.ApplyHook(ast.HookStart); err != nil {
		t.Fatalf("ApplyHook(Start) error = %v", err)
	}
	already, err := a.ApplyHook(ast.HookStart)
	if err != nil {
		t.Fatalf("duplicate ApplyHook(Start) error = %v", err)
	}
	if !already {
		t.Fatal("duplicate ApplyHook(Start) should report already=true")
	}
}

func TestApplyHookIllegalEdge(t *testing.T) {
	a := newTestActivity()
	// Finish is illegal from Idle: the activity never started.
	_, err := a.ApplyHook(ast.HookFinish)
	if err == nil {
		t.Fatal("expected an error for Finish from Idle")
	}
	var engineErr *golerr.EngineError
	if !errors.As(err, &engineErr) {
		t.Fatalf("expected a golerr.EngineError, got %T: %v", err, err)
	}
}

func TestApplyHookStopThenEndSettlesCancelled(t *testing.T) {
	a := newTestActivity()
	if _, err := a.ApplyHook(ast.HookStart); err != nil {
		t.Fatalf("ApplyHook(Start) error = %v", err)
	}
	if _, err := a.ApplyHook(ast.HookStop); err != nil {
		t.Fatalf("ApplyHook(Stop) error = %v", err)
	}
	if a.State() != Preempted {
		t.Fatalf("State() = %v, want Preempted", a.State())
	}

	already, err := a.ApplyHook(ast.HookEnd)
	if err != nil {
		t.Fatalf("ApplyHook(End) error = %v", err)
	}
	if already {
		t.Fatal("ApplyHook(End) settling Preempted should not report already=true")
	}
	if a.State() != Cancelled {
		t.Fatalf("State() = %v, want Cancelled", a.State())
	}
}

func TestApplyHookEndOnNonTerminalNonPreemptedFails(t *testing.T) {
	a := newTestActivity()
	if _, err := a.ApplyHook(ast.HookStart); err != nil {
		t.Fatalf("ApplyHook(Start) error = %v", err)
	}
	if _, err := a.ApplyHook(ast.HookEnd); err == nil {
		t.Fatal("expected an error ending a Running (non-terminal, non-preempted) activity")
	}
}

func TestApplyHookEndOnTerminalIsIdempotent(t *testing.T) {
	a := newTestActivity()
	if _, err := a.ApplyHook(ast.HookStart); err != nil {
		t.Fatalf("ApplyHook(Start) error = %v", err)
	}
	if _, err := a.ApplyHook(ast.HookFinish); err != nil {
		t.Fatalf("ApplyHook(Finish) error = %v", err)
	}
	already, err := a.ApplyHook(ast.HookEnd)
	if err != nil {
		t.Fatalf("ApplyHook(End) on Final error = %v", err)
	}
	if !already {
		t.Fatal("ApplyHook(End) on an already-terminal activity should report already=true")
	}
}

func TestSensingResult(t *testing.T) {
	a := newTestActivity()
	if _, ok := a.SensingResult(); ok {
		t.Fatal("expected no sensing result before SetSensingResult")
	}
	a.SetSensingResult(ast.IntValue(42))
	v, ok := a.SensingResult()
	if !ok || v.Int() != 42 {
		t.Fatalf("SensingResult() = %v, %v; want 42, true", v, ok)
	}
}

func TestHashMatchesGroundingHash(t *testing.T) {
	g := ast.NewGrounding("turn_on", []ast.Value{ast.IntValue(1)})
	a := New(g)
	if a.Hash() != g.Hash() {
		t.Fatalf("Hash() = %q, want %q", a.Hash(), g.Hash())
	}
}
