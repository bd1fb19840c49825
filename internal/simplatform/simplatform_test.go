package simplatform

import (
	"testing"
	"time"

	"golog/internal/activity"
	"golog/internal/ast"
)

func newExogChannel() (func(ast.Transition), chan ast.Transition) {
	ch := make(chan ast.Transition, 8)
	return func(t ast.Transition) { ch <- t }, ch
}

func TestExecuteActivityReportsFinishAfterDuration(t *testing.T) {
	push, exog := newExogChannel()
	b := New(push)
	act := activity.New(ast.NewGrounding("open_door", nil))
	b.SetDuration(act.Hash(), 10*time.Millisecond)

	if err := b.ExecuteActivity(act); err != nil {
		t.Fatalf("ExecuteActivity() error = %v", err)
	}

	select {
	case tr := <-exog:
		if tr.Hook != ast.HookFinish {
			t.Fatalf("Hook = %v, want HookFinish", tr.Hook)
		}
		if tr.Grounding.Hash() != act.Hash() {
			t.Fatalf("Grounding = %v, want %v", tr.Grounding, act.Grounding)
		}
	case <-time.After(time.Second):
		t.Fatal("ExecuteActivity did not report completion in time")
	}
}

func TestExecuteActivityHonorsSetFails(t *testing.T) {
	push, exog := newExogChannel()
	b := New(push)
	act := activity.New(ast.NewGrounding("open_door", nil))
	b.SetDuration(act.Hash(), 10*time.Millisecond)
	b.SetFails(act.Hash(), true)

	if err := b.ExecuteActivity(act); err != nil {
		t.Fatalf("ExecuteActivity() error = %v", err)
	}

	select {
	case tr := <-exog:
		if tr.Hook != ast.HookFail {
			t.Fatalf("Hook = %v, want HookFail", tr.Hook)
		}
	case <-time.After(time.Second):
		t.Fatal("ExecuteActivity did not report a failure in time")
	}
}

func TestSetDefaultDurationAppliesWithNoOverride(t *testing.T) {
	push, exog := newExogChannel()
	b := New(push)
	b.SetDefaultDuration(5 * time.Millisecond)
	act := activity.New(ast.NewGrounding("open_door", nil))

	start := time.Now()
	if err := b.ExecuteActivity(act); err != nil {
		t.Fatalf("ExecuteActivity() error = %v", err)
	}

	select {
	case <-exog:
		if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
			t.Fatalf("completion took %s, expected well under the 50ms package default", elapsed)
		}
	case <-time.After(time.Second):
		t.Fatal("ExecuteActivity did not complete in time")
	}
}

func TestPreemptActivityCancelsPendingCompletion(t *testing.T) {
	push, exog := newExogChannel()
	b := New(push)
	act := activity.New(ast.NewGrounding("open_door", nil))
	b.SetDuration(act.Hash(), time.Hour)

	if err := b.ExecuteActivity(act); err != nil {
		t.Fatalf("ExecuteActivity() error = %v", err)
	}
	if err := b.PreemptActivity(act); err != nil {
		t.Fatalf("PreemptActivity() error = %v", err)
	}

	select {
	case tr := <-exog:
		if tr.Hook != ast.HookEnd {
			t.Fatalf("Hook = %v, want HookEnd from the preemption", tr.Hook)
		}
	case <-time.After(time.Second):
		t.Fatal("PreemptActivity did not report an END transition in time")
	}

	// The pending hour-long completion must never fire now that it was
	// cancelled; give it a brief window to (wrongly) arrive.
	select {
	case tr := <-exog:
		t.Fatalf("unexpected second transition after preemption: %v", tr)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTerminateComponentsStopsPendingActivities(t *testing.T) {
	push, exog := newExogChannel()
	b := New(push)
	act := activity.New(ast.NewGrounding("open_door", nil))
	b.SetDuration(act.Hash(), time.Hour)

	if err := b.ExecuteActivity(act); err != nil {
		t.Fatalf("ExecuteActivity() error = %v", err)
	}

	done := make(chan struct{})
	go func() {
		b.TerminateComponents()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("TerminateComponents did not return promptly after stopping pending activities")
	}

	select {
	case tr := <-exog:
		t.Fatalf("unexpected transition after TerminateComponents: %v", tr)
	case <-time.After(50 * time.Millisecond):
	}
}
