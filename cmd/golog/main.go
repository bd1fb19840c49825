// Package main implements the golog CLI entrypoint: a thin cobra command
// tree wrapping config load, logging init and Context.Run, grounded in
// the teacher's cmd/nerd/main.go rootCmd/PersistentPreRunE idiom.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"golog/internal/logging"
)

var (
	verbose   bool
	workspace string

	console *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "golog",
	Short: "golog - a Golog-family agent program executor",
	Long: `golog executes a pre-compiled Golog-family agent program: an
imperative, non-deterministic control language over durative actions and
history-dependent fluents.

Logic determines which transitions are offered; the platform backend
merely carries them out.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		if verbose {
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		console, err = cfg.Build()
		if err != nil {
			return fmt.Errorf("initializing console logger: %w", err)
		}

		ws := workspace
		if ws == "" {
			ws, _ = os.Getwd()
		}
		if err := logging.Initialize(ws); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if console != nil {
			_ = console.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level console logging")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory holding .golog/ (default: current directory)")
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitCodeFor(err))
	}
}
