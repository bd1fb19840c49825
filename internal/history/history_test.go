package history

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"golog/internal/ast"
	"golog/internal/scope"
)

// buildFixture constructs a program with two bool fluents ("lit" and
// "armed", both initially false) and one action "turn_on" whose
// finish-hook effect sets lit := true guarded by a literal-true guard.
// It exercises only ast.Literal nodes, so Evaluate works without a
// Factory attached (see ast/expression.go). "armed" carries no effect
// of its own; it exists solely to give SortedFluentNames more than one
// name to sort.
func buildFixture(t *testing.T) *ast.Program {
	t.Helper()
	global := scope.NewGlobalScope()

	lit := ast.NewFluent(global, global.NewChild(), "lit", nil, scope.Bool(), []ast.InitialValue{
		{Args: nil, Value: ast.BoolValue(false)},
	})
	litDecl := &scope.GlobalDecl{Kind: scope.GlobalFluent, Name: "lit", ReturnType: scope.Bool(), HasReturn: true}
	if _, err := global.Registry().DefineGlobal(litDecl); err != nil {
		t.Fatalf("DefineGlobal(lit): %v", err)
	}

	armed := ast.NewFluent(global, global.NewChild(), "armed", nil, scope.Bool(), []ast.InitialValue{
		{Args: nil, Value: ast.BoolValue(false)},
	})
	armedDecl := &scope.GlobalDecl{Kind: scope.GlobalFluent, Name: "armed", ReturnType: scope.Bool(), HasReturn: true}
	if _, err := global.Registry().DefineGlobal(armedDecl); err != nil {
		t.Fatalf("DefineGlobal(armed): %v", err)
	}

	fluentRef := ast.NewGlobalExpr(global, litDecl, nil)
	guard := ast.NewLiteral(global, ast.BoolValue(true))
	update := ast.NewLiteral(global, ast.BoolValue(true))
	effect := ast.NewEffectAxiom(global, ast.HookFinish, fluentRef, guard, update)

	action := ast.NewAction(global, global.NewChild(), "turn_on", nil, nil)
	action.Effects = []*ast.EffectAxiom{effect}

	prog := ast.NewProgram(global)
	prog.Fluents = []*ast.Fluent{lit, armed}
	prog.Actions = []*ast.Action{action}
	return prog
}

func turnOnTransition(hook ast.Hook) ast.Transition {
	return ast.NewTransition(ast.NewGrounding("turn_on", nil), hook)
}

func TestNewSeedsInitialValues(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	v, ok, err := h.CurrentValue("lit", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Bool() {
		t.Fatalf("expected lit to start false, got ok=%v v=%v", ok, v)
	}
	if h.Len() != 0 {
		t.Fatalf("expected empty log, got Len()=%d", h.Len())
	}
}

func TestAppendTracksLastHook(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	g := ast.NewGrounding("turn_on", nil)
	if _, ok := h.LastHook(g.Hash()); ok {
		t.Fatal("expected no LastHook before any Append")
	}

	h.Append(ast.NewTransition(g, ast.HookStart))
	hook, ok := h.LastHook(g.Hash())
	if !ok || hook != ast.HookStart {
		t.Fatalf("LastHook() = %v, %v; want HookStart, true", hook, ok)
	}

	h.Append(ast.NewTransition(g, ast.HookFinish))
	hook, ok = h.LastHook(g.Hash())
	if !ok || hook != ast.HookFinish {
		t.Fatalf("LastHook() = %v, %v; want HookFinish, true", hook, ok)
	}
	if h.Len() != 2 {
		t.Fatalf("expected Len()=2, got %d", h.Len())
	}
}

func TestCurrentValueReflectsPendingEffects(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	h.Append(turnOnTransition(ast.HookStart))
	v, ok, err := h.CurrentValue("lit", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Bool() {
		t.Fatalf("expected lit still false after start-only, got ok=%v v=%v", ok, v)
	}

	h.Append(turnOnTransition(ast.HookFinish))
	v, ok, err = h.CurrentValue("lit", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || !v.Bool() {
		t.Fatalf("expected lit true after finish, got ok=%v v=%v", ok, v)
	}

	// Folded table is untouched until Progress runs.
	if fv, ok := h.FluentValue("lit", nil); !ok || fv.Bool() {
		t.Fatalf("expected folded table unchanged before Progress, got ok=%v v=%v", ok, fv)
	}
}

func TestShouldProgressCrossesWatermark(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 2)

	if h.ShouldProgress() {
		t.Fatal("expected ShouldProgress() false on empty log")
	}
	h.Append(turnOnTransition(ast.HookStart))
	if h.ShouldProgress() {
		t.Fatal("expected ShouldProgress() false below watermark")
	}
	h.Append(turnOnTransition(ast.HookFinish))
	if !h.ShouldProgress() {
		t.Fatal("expected ShouldProgress() true once the watermark is reached")
	}
}

func TestProgressFoldsEffectsAndCompacts(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	h.Append(turnOnTransition(ast.HookStart))
	h.Append(turnOnTransition(ast.HookFinish))

	if err := h.Progress(); err != nil {
		t.Fatalf("Progress() error = %v", err)
	}

	if fv, ok := h.FluentValue("lit", nil); !ok || !fv.Bool() {
		t.Fatalf("expected folded table to reflect finish effect, got ok=%v v=%v", ok, fv)
	}
	if h.Len() != 2 {
		t.Fatalf("Len() should still count folded entries, got %d", h.Len())
	}
	if got := len(h.Pending()); got != 0 {
		t.Fatalf("expected no pending entries after Progress, got %d", got)
	}

	v, ok, err := h.CurrentValue("lit", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || !v.Bool() {
		t.Fatalf("CurrentValue should still report true post-fold, got ok=%v v=%v", ok, v)
	}
}

func TestSetFluentOverridesFoldedValue(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	h.SetFluent("lit", nil, ast.BoolValue(true))
	v, ok, err := h.CurrentValue("lit", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || !v.Bool() {
		t.Fatalf("expected SetFluent to take effect immediately, got ok=%v v=%v", ok, v)
	}
}

func TestSortedFluentNames(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)
	if diff := cmp.Diff([]string{"armed", "lit"}, h.SortedFluentNames()); diff != "" {
		t.Errorf("SortedFluentNames() mismatch (-want +got):\n%s", diff)
	}
}

func TestAtRespectsFoldedOffset(t *testing.T) {
	prog := buildFixture(t)
	h := New(prog, 0)

	h.Append(turnOnTransition(ast.HookStart))
	h.Append(turnOnTransition(ast.HookFinish))
	if err := h.Progress(); err != nil {
		t.Fatalf("Progress() error = %v", err)
	}

	if _, ok := h.At(0); ok {
		t.Fatal("expected At(0) to be unavailable after folding")
	}

	h.Append(turnOnTransition(ast.HookStart))
	tr, ok := h.At(2)
	if !ok || tr.Hook != ast.HookStart {
		t.Fatalf("At(2) = %v, %v; want HookStart, true", tr, ok)
	}
}
