package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"golog/internal/ast"
	"golog/internal/ast/astjson"
	"golog/internal/clock"
	"golog/internal/config"
	"golog/internal/engine"
	"golog/internal/golerr"
	"golog/internal/mangle"
	"golog/internal/reasoner"
	"golog/internal/simplatform"
)

var (
	backendFlag      string
	configFlag       string
	inspectFactsFlag string
)

var runCmd = &cobra.Command{
	Use:   "run <program.golog>",
	Short: "Run a pre-compiled Golog-family program to completion",
	Long: `run loads a program from its JSON AST encoding (see internal/ast/astjson
— a CLI stand-in for the out-of-scope surface-syntax parser; the
conventional .golog extension names the program, not its on-disk
encoding) and drives it to completion via Context.Run, reporting
exogenous activity completions through the platform backend.`,
	Args: cobra.ExactArgs(1),
	RunE: runProgram,
}

func init() {
	runCmd.Flags().StringVar(&backendFlag, "backend", "", "platform backend: sim or reasoner (default: config.yaml's backend, or reasoner)")
	runCmd.Flags().StringVar(&configFlag, "config", ".golog/config.yaml", "path to config.yaml")
	runCmd.Flags().StringVar(&inspectFactsFlag, "inspect-facts", "", "after the run completes, print every recorded fact for this predicate (action_decl, fluent_decl, fluent_value, trans_step or program_final)")
}

func runProgram(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configFlag)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading program %s: %w", args[0], err)
	}
	program, err := astjson.Load(data)
	if err != nil {
		return fmt.Errorf("loading program %s: %w", args[0], err)
	}

	var ctx *engine.Context
	backend := simplatform.New(func(t ast.Transition) { ctx.PushExog(t) })
	if d, err := cfg.GetSimActivityDuration(); err == nil {
		backend.SetDefaultDuration(d)
	}
	if err := clock.SetSource(backend); err != nil {
		return fmt.Errorf("registering clock source: %w", err)
	}

	schemaPath, policyPath, factLimit, queryTimeoutSec, autoEval, err := cfg.MangleEngineConfig()
	if err != nil {
		return fmt.Errorf("resolving mangle config: %w", err)
	}
	mangleCfg := mangle.Config{
		FactLimit:    factLimit,
		QueryTimeout: queryTimeoutSec,
		AutoEval:     autoEval,
		SchemaPath:   schemaPath,
		PolicyPath:   policyPath,
	}
	factory, err := reasoner.New(program, mangleCfg)
	if err != nil {
		return fmt.Errorf("constructing reasoner: %w", err)
	}
	defer factory.Close()

	ctx = engine.New(program, factory, backend, cfg.History.Watermark)

	runCtx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			console.Info("received interrupt, terminating")
			ctx.Terminate()
		case <-runCtx.Done():
		}
	}()
	defer signal.Stop(sigCh)

	if timeout, err := cfg.GetRunTimeout(); err == nil && timeout > 0 {
		var timeoutCancel context.CancelFunc
		runCtx, timeoutCancel = context.WithTimeout(runCtx, timeout)
		defer timeoutCancel()
	}

	runID := uuid.NewString()
	console.Info("starting run", zap.String("run_id", runID), zap.String("backend", cfg.Backend), zap.String("program", args[0]))
	defer backend.TerminateComponents()

	if err := ctx.Run(runCtx); err != nil {
		return err
	}

	if inspectFactsFlag != "" {
		return printFacts(factory, inspectFactsFlag)
	}
	return nil
}

// printFacts prints every fact recorded for predicate, one JSON object per
// line, via reasoner.Factory.Facts — the reader side of the fact store
// that internal/reasoner's CompileGlobal/recordFluentFact/recordTransStep
// and engine.Context's final-configuration hook populate during Run.
func printFacts(factory *reasoner.Factory, predicate string) error {
	facts, err := factory.Facts(context.Background(), predicate)
	if err != nil {
		return fmt.Errorf("inspecting facts for %s: %w", predicate, err)
	}
	enc := json.NewEncoder(os.Stdout)
	for _, fact := range facts {
		if err := enc.Encode(fact); err != nil {
			return err
		}
	}
	return nil
}

// exitCodeFor maps the error taxonomy of internal/golerr onto process
// exit codes: 0 is reserved for a nil error by main's own caller.
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	var userErr *golerr.UserError
	var engineErr *golerr.EngineError
	var bug *golerr.Bug
	switch {
	case errors.As(err, &userErr):
		return 1
	case errors.As(err, &engineErr):
		return 2
	case errors.As(err, &bug):
		return 3
	case errors.Is(err, golerr.Terminate):
		return 0
	default:
		return 1
	}
}
