package reasoner_test

import (
	"context"
	"testing"
	"time"

	"golog/internal/ast"
	"golog/internal/ast/astjson"
	"golog/internal/clock"
	"golog/internal/engine"
	"golog/internal/history"
	"golog/internal/mangle"
	"golog/internal/reasoner"
	"golog/internal/simplatform"
)

// runProgram loads programJSON, wires it through a fresh simplatform
// Backend and Factory exactly as cmd/golog does, and drives it to
// completion (or t.Fatal on error/timeout).
func runProgram(t *testing.T, programJSON string) *engine.Context {
	t.Helper()
	prog, err := astjson.Load([]byte(programJSON))
	if err != nil {
		t.Fatalf("astjson.Load() error = %v", err)
	}

	var ctx *engine.Context
	backend := simplatform.New(func(tr ast.Transition) { ctx.PushExog(tr) })
	if err := clock.SetSource(backend); err != nil {
		t.Fatalf("clock.SetSource() error = %v", err)
	}
	t.Cleanup(clock.Reset)

	factory, err := reasoner.New(prog, mangle.DefaultConfig())
	if err != nil {
		t.Fatalf("reasoner.New() error = %v", err)
	}
	t.Cleanup(factory.Close)

	ctx = engine.New(prog, factory, backend, 0)

	runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctx.Run(runCtx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	return ctx
}

// Choose offers the leftmost branch able to transition: "impossible" can
// never fire (its precondition is a literal false), so "possible" is the
// one that ends up setting picked.
const chooseProgram = `{
  "fluents": [
    {
      "name": "picked",
      "params": [],
      "value_type": "symbol",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "symbol", "value": "none"}}
      ]
    }
  ],
  "actions": [
    {
      "name": "impossible",
      "params": [],
      "precondition": {"kind": "literal", "value_type": "bool", "value": false},
      "effects": [
        {"hook": "finish", "fluent": {"name": "picked", "args": []}, "update": {"kind": "literal", "value_type": "symbol", "value": "impossible"}}
      ]
    },
    {
      "name": "possible",
      "params": [],
      "effects": [
        {"hook": "finish", "fluent": {"name": "picked", "args": []}, "update": {"kind": "literal", "value_type": "symbol", "value": "possible"}}
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {
      "kind": "choose",
      "branches": [
        {"kind": "action_invoke", "name": "impossible", "args": [], "hook": "start"},
        {"kind": "action_invoke", "name": "possible", "args": [], "hook": "start"}
      ]
    },
    "rest": {
      "kind": "test",
      "condition": {
        "kind": "eq",
        "left": {"kind": "global", "name": "picked", "args": []},
        "right": {"kind": "literal", "value_type": "symbol", "value": "possible"}
      }
    }
  }
}`

func TestChooseSkipsUnavailableBranch(t *testing.T) {
	ctx := runProgram(t, chooseProgram)

	v, ok, err := ctx.History().CurrentValue("picked", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Symbol() != "possible" {
		t.Fatalf("picked = %v, %v; want symbol possible", v, ok)
	}
}

// Pick binds the leftmost domain constant whose body can transition: an
// assign always can, so "red" (declared first) wins over "green".
const pickProgram = `{
  "domains": {"colors": ["red", "green"]},
  "fluents": [
    {
      "name": "chosen",
      "params": [],
      "value_type": "symbol",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "symbol", "value": "none"}}
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {
      "kind": "pick",
      "var": "c",
      "domain": "colors",
      "body": {
        "kind": "assign",
        "target": {"name": "chosen", "args": []},
        "value": {"kind": "var", "var": "c"}
      }
    },
    "rest": {
      "kind": "test",
      "condition": {
        "kind": "eq",
        "left": {"kind": "global", "name": "chosen", "args": []},
        "right": {"kind": "literal", "value_type": "symbol", "value": "red"}
      }
    }
  }
}`

func TestPickBindsLeftmostDomainConstant(t *testing.T) {
	ctx := runProgram(t, pickProgram)

	v, ok, err := ctx.History().CurrentValue("chosen", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Symbol() != "red" {
		t.Fatalf("chosen = %v, %v; want symbol red", v, ok)
	}
}

// Star's Final holds unconditionally, so a bare Star(Test(false)) is a
// legal program to stop at without ever offering a transition: zero
// iterations of the body is always a valid way to finish.
const starZeroIterationsProgram = `{
  "main": {
    "kind": "star",
    "body": {"kind": "test", "condition": {"kind": "literal", "value_type": "bool", "value": false}}
  }
}`

func TestStarPermitsZeroIterations(t *testing.T) {
	// runProgram already asserts Run() returns without error; reaching
	// here confirms the engine treated the always-false body as a legal
	// stop rather than blocking forever waiting for it to transition.
	runProgram(t, starZeroIterationsProgram)
}

// While unfolds assign repeatedly until its condition goes false, then
// Sequence hands off to the trailing test: this exercises While, Assign
// and Sequence together without any asynchronous activity involved.
const whileCountsToThreeProgram = `{
  "fluents": [
    {
      "name": "counter",
      "params": [],
      "value_type": "int",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "int", "value": 0}}
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {
      "kind": "while",
      "condition": {"kind": "lt", "left": {"kind": "global", "name": "counter", "args": []}, "right": {"kind": "literal", "value_type": "int", "value": 3}},
      "body": {
        "kind": "assign",
        "target": {"name": "counter", "args": []},
        "value": {"kind": "add", "left": {"kind": "global", "name": "counter", "args": []}, "right": {"kind": "literal", "value_type": "int", "value": 1}}
      }
    },
    "rest": {"kind": "test", "condition": {"kind": "ge", "left": {"kind": "global", "name": "counter", "args": []}, "right": {"kind": "literal", "value_type": "int", "value": 3}}}
  }
}`

func TestWhileLoopsUntilConditionFails(t *testing.T) {
	ctx := runProgram(t, whileCountsToThreeProgram)

	v, ok, err := ctx.History().CurrentValue("counter", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Int() != 3 {
		t.Fatalf("counter = %v, %v; want 3", v, ok)
	}
}

// ProcCall binds its actuals into a fresh, caller-isolated binding: the
// procedure's own "n" parameter carries the call's argument into its body.
const procCallProgram = `{
  "procedures": [
    {
      "name": "set_to",
      "params": [{"name": "n", "type": "int"}],
      "body": {
        "kind": "assign",
        "target": {"name": "counter", "args": []},
        "value": {"kind": "var", "var": "n"}
      }
    }
  ],
  "fluents": [
    {
      "name": "counter",
      "params": [],
      "value_type": "int",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "int", "value": 0}}
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {"kind": "proc_call", "name": "set_to", "args": [{"kind": "literal", "value_type": "int", "value": 7}]},
    "rest": {"kind": "test", "condition": {"kind": "eq", "left": {"kind": "global", "name": "counter", "args": []}, "right": {"kind": "literal", "value_type": "int", "value": 7}}}
  }
}`

func TestProcCallBindsActualsByName(t *testing.T) {
	ctx := runProgram(t, procCallProgram)

	v, ok, err := ctx.History().CurrentValue("counter", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || v.Int() != 7 {
		t.Fatalf("counter = %v, %v; want 7", v, ok)
	}
}

// An ActionInvoke node built with Hook == HookStop models "cancel the
// activity running for this grounding": it is exercised here directly
// against a hand-built History, without an engine.Context or platform
// registry in the loop, to isolate the STOP-election logic in
// actionInvokeEval.Trans/Final (see internal/reasoner/primitive.go).
const stopInvokeProgram = `{
  "actions": [{"name": "move", "params": []}],
  "main": {"kind": "action_invoke", "name": "move", "args": [], "hook": "stop"}
}`

func TestActionInvokeStopElectsCancellationOnlyWhileRunning(t *testing.T) {
	prog, err := astjson.Load([]byte(stopInvokeProgram))
	if err != nil {
		t.Fatalf("astjson.Load() error = %v", err)
	}

	factory, err := reasoner.New(prog, mangle.DefaultConfig())
	if err != nil {
		t.Fatalf("reasoner.New() error = %v", err)
	}
	defer factory.Close()
	if err := prog.AttachAll(factory); err != nil {
		t.Fatalf("AttachAll() error = %v", err)
	}

	h := history.New(prog, 0)
	b := ast.EmptyBinding()
	g := ast.NewGrounding("move", nil)

	if _, ok, err := prog.Main.Trans(b, h); err != nil {
		t.Fatalf("Trans() error = %v", err)
	} else if ok {
		t.Fatal("expected no STOP to elect before the activity has started")
	}

	h.Append(ast.NewTransition(g, ast.HookStart))

	plan, ok, err := prog.Main.Trans(b, h)
	if err != nil {
		t.Fatalf("Trans() error = %v", err)
	}
	if !ok || len(plan.Elements) != 1 || plan.Elements[0].Transition.Hook != ast.HookStop {
		t.Fatalf("Trans() = %v, %v; want a single-element plan electing HookStop", plan, ok)
	}
	h.Append(plan.Elements[0].Transition)

	if final, err := prog.Main.Final(b, h); err != nil {
		t.Fatalf("Final() error = %v", err)
	} else if final {
		t.Fatal("expected Final() false once STOP is requested but not yet confirmed")
	}
	if _, ok, err := prog.Main.Trans(b, h); err != nil {
		t.Fatalf("Trans() error = %v", err)
	} else if ok {
		t.Fatal("expected no further STOP to elect once cancellation has already been requested")
	}

	h.Append(ast.NewTransition(g, ast.HookEnd))

	if final, err := prog.Main.Final(b, h); err != nil {
		t.Fatalf("Final() error = %v", err)
	} else if !final {
		t.Fatal("expected Final() true once the backend confirms END")
	}
}

// Run's final-configuration branches call Context.recordFinal, which
// type-asserts the factory against engine's optional finalRecorder
// interface and calls Factory.RecordFinal: this exercises that whole
// path end-to-end, then reads the resulting fact back through
// Factory.Facts — the same reader cmd/golog's `run --inspect-facts` uses.
func TestRunRecordsProgramFinalFact(t *testing.T) {
	prog, err := astjson.Load([]byte(doorLikeProgram))
	if err != nil {
		t.Fatalf("astjson.Load() error = %v", err)
	}

	var ctx *engine.Context
	backend := simplatform.New(func(tr ast.Transition) { ctx.PushExog(tr) })
	if err := clock.SetSource(backend); err != nil {
		t.Fatalf("clock.SetSource() error = %v", err)
	}
	t.Cleanup(clock.Reset)

	factory, err := reasoner.New(prog, mangle.DefaultConfig())
	if err != nil {
		t.Fatalf("reasoner.New() error = %v", err)
	}
	t.Cleanup(factory.Close)

	ctx = engine.New(prog, factory, backend, 0)

	runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := ctx.Run(runCtx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	facts, err := factory.Facts(context.Background(), "program_final")
	if err != nil {
		t.Fatalf("Facts(program_final) error = %v", err)
	}
	if len(facts) != 1 {
		t.Fatalf("got %d program_final facts, want exactly 1: %v", len(facts), facts)
	}

	declFacts, err := factory.Facts(context.Background(), "action_decl")
	if err != nil {
		t.Fatalf("Facts(action_decl) error = %v", err)
	}
	// "move" auto-atomizes to the Mangle Name constant /move: the schema
	// declares action_decl's Name column with no type bound, and
	// convertValueToTypedTerm promotes unbounded identifier-like strings
	// to Names (see internal/mangle/engine.go's isIdentifier heuristic).
	if len(declFacts) != 1 || declFacts[0].Args[0] != "/move" {
		t.Fatalf("action_decl facts = %v, want a single /move(0) row", declFacts)
	}
}

const doorLikeProgram = `{
  "fluents": [
    {
      "name": "moved",
      "params": [],
      "value_type": "bool",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "bool", "value": false}}
      ]
    }
  ],
  "actions": [
    {
      "name": "move",
      "params": [],
      "effects": [
        {"hook": "finish", "fluent": {"name": "moved", "args": []}, "update": {"kind": "literal", "value_type": "bool", "value": true}}
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {"kind": "action_invoke", "name": "move", "args": [], "hook": "start"},
    "rest": {"kind": "test", "condition": {"kind": "global", "name": "moved", "args": []}}
  }
}`
