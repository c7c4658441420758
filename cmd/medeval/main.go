// Package main provides the medeval command, which scores generated lay
// summaries and radiology reports against references and writes a
// "key: value" report.
//
// # Basic Usage
//
//	medeval --task_name open_rrg \
//	  --prediction_file open_rrg.txt \
//	  --groundtruth_file OPEN_test.jsonl
//
// Lay summaries are evaluated from directories holding elife.txt/plos.txt
// and eLife_test.jsonl/PLOS_test.jsonl:
//
//	medeval --task_name lay_summ --prediction_file preds/ --groundtruth_file refs/
//
// # Environment Variables
//
//   - GOOGLE_PROJECT_ID, GOOGLE_REGION: Vertex AI project and region for Gemini
//   - any ${VAR} referenced from the --config file
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/datar-psa/medeval/internal/config"
	"github.com/datar-psa/medeval/internal/runner"
	"github.com/datar-psa/medeval/internal/task"
	"github.com/datar-psa/medeval/internal/telemetry"
)

// Build information - populated by ldflags during build.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := buildRootCmd().ExecuteContext(ctx); err != nil {
		slog.Error("command execution failed", "error", err)
		stop()
		os.Exit(1)
	}
}

type rootFlags struct {
	predictionFile  string
	groundtruthFile string
	taskName        string
	output          string
	configPath      string
	parallelism     int
	closedSplit     int
	logLevel        string
	trace           bool
}

// buildRootCmd creates the medeval command. Separated from main() for tests.
func buildRootCmd() *cobra.Command {
	var flags rootFlags

	cmd := &cobra.Command{
		Use:   "medeval",
		Short: "Score medical text generation against references",
		Long: `medeval evaluates one task per run:

  lay_summ   lay summaries of eLife and PLOS articles
  open_rrg   open-domain radiology report generation
  close_rrg  closed-domain radiology report generation

Lexical metrics are computed natively; model-based metrics use the
providers selected in the --config file.`,
		Version:      fmt.Sprintf("%s (commit: %s)", version, commit),
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEvaluate(cmd, flags)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.predictionFile, "prediction_file", "", "Prediction file, or directory holding the task's prediction files")
	f.StringVar(&flags.groundtruthFile, "groundtruth_file", "", "Reference .jsonl file, or directory holding the task's reference files")
	f.StringVar(&flags.taskName, "task_name", "", "Task: lay_summ, open_rrg or close_rrg")
	f.StringVar(&flags.output, "output", config.DefaultOutput, "Report path")
	f.StringVar(&flags.configPath, "config", "", "YAML configuration file")
	f.IntVar(&flags.parallelism, "parallelism", 1, "Metric adapters run concurrently per corpus")
	f.IntVar(&flags.closedSplit, "closed-split", config.DefaultClosedSplit, "Item index where the close_rrg corpus is split")
	f.StringVar(&flags.logLevel, "log-level", "info", "Log level: debug, info, warn or error")
	f.BoolVar(&flags.trace, "trace", false, "Print OpenTelemetry spans to stderr")
	for _, name := range []string{"prediction_file", "groundtruth_file", "task_name"} {
		_ = cmd.MarkFlagRequired(name)
	}
	return cmd
}

func runEvaluate(cmd *cobra.Command, flags rootFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	applyFlags(cmd, flags, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	t, err := task.Parse(flags.taskName)
	if err != nil {
		return err
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return err
	}
	if logger.Enabled(cmd.Context(), slog.LevelDebug) {
		if data, err := cfg.Marshal(); err == nil {
			logger.Debug("effective configuration", "config", string(data))
		}
	}

	shutdown, err := telemetry.Setup(cfg.Trace, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() {
		if err := shutdown(context.Background()); err != nil {
			logger.Warn("failed to flush traces", "error", err)
		}
	}()

	return runner.Run(cmd.Context(), cfg, logger, runner.Request{
		Task:           t,
		PredictionPath: flags.predictionFile,
		ReferencePath:  flags.groundtruthFile,
	})
}

// applyFlags overrides configuration values with explicitly set flags.
func applyFlags(cmd *cobra.Command, flags rootFlags, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("output") || flags.configPath == "" {
		cfg.Output = flags.output
	}
	if f.Changed("parallelism") {
		cfg.Parallelism = flags.parallelism
	}
	if f.Changed("closed-split") {
		cfg.ClosedSplit = flags.closedSplit
	}
	if f.Changed("log-level") {
		cfg.LogLevel = flags.logLevel
	}
	if f.Changed("trace") {
		cfg.Trace = flags.trace
	}
}

func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: lvl})), nil
}
