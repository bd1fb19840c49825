package astjson

import (
	"context"
	"testing"
	"time"

	"golog/internal/ast"
	"golog/internal/clock"
	"golog/internal/engine"
	"golog/internal/mangle"
	"golog/internal/reasoner"
	"golog/internal/simplatform"
)

const doorProgram = `{
  "fluents": [
    {
      "name": "door_open",
      "params": [],
      "value_type": "bool",
      "initial_values": [
        {"args": [], "value": {"kind": "literal", "value_type": "bool", "value": false}}
      ]
    }
  ],
  "actions": [
    {
      "name": "open_door",
      "params": [],
      "effects": [
        {
          "hook": "finish",
          "fluent": {"name": "door_open", "args": []},
          "update": {"kind": "literal", "value_type": "bool", "value": true}
        }
      ]
    }
  ],
  "main": {
    "kind": "sequence",
    "first": {"kind": "action_invoke", "name": "open_door", "args": [], "hook": "start"},
    "rest": {"kind": "test", "condition": {"kind": "global", "name": "door_open", "args": []}}
  }
}`

func TestLoadDecodesDoorProgram(t *testing.T) {
	prog, err := Load([]byte(doorProgram))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(prog.Fluents) != 1 || prog.Fluents[0].Name() != "door_open" {
		t.Fatalf("expected one fluent named door_open, got %+v", prog.Fluents)
	}
	if len(prog.Actions) != 1 || prog.Actions[0].Name() != "open_door" {
		t.Fatalf("expected one action named open_door, got %+v", prog.Actions)
	}
	if prog.Main == nil {
		t.Fatal("expected a non-nil Main statement")
	}
}

func TestLoadedProgramRunsToCompletion(t *testing.T) {
	prog, err := Load([]byte(doorProgram))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	var ctx *engine.Context
	backend := simplatform.New(func(t ast.Transition) { ctx.PushExog(t) })
	if err := clock.SetSource(backend); err != nil {
		t.Fatalf("clock.SetSource() error = %v", err)
	}
	t.Cleanup(clock.Reset)

	factory, err := reasoner.New(prog, mangle.DefaultConfig())
	if err != nil {
		t.Fatalf("reasoner.New() error = %v", err)
	}
	defer factory.Close()

	ctx = engine.New(prog, factory, backend, 0)

	runCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := ctx.Run(runCtx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	v, ok, err := ctx.History().CurrentValue("door_open", nil)
	if err != nil {
		t.Fatalf("CurrentValue() error = %v", err)
	}
	if !ok || !v.Bool() {
		t.Fatal("expected door_open to be true after the program completed")
	}
}

func TestLoadRejectsMissingMain(t *testing.T) {
	if _, err := Load([]byte(`{"actions": []}`)); err == nil {
		t.Fatal("Load() should reject a document with no main body")
	}
}

func TestLoadRejectsUndeclaredAction(t *testing.T) {
	doc := `{"main": {"kind": "action_invoke", "name": "nope", "args": [], "hook": "start"}}`
	if _, err := Load([]byte(doc)); err == nil {
		t.Fatal("Load() should reject an invocation of an undeclared action")
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load([]byte(`{not json`)); err == nil {
		t.Fatal("Load() should reject malformed JSON")
	}
}
