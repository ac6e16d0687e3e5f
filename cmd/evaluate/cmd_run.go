package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/analyst-eval/internal/config"
	"github.com/danielpatrickdp/analyst-eval/internal/evaluate"
	"github.com/danielpatrickdp/analyst-eval/internal/runstore"
	"github.com/danielpatrickdp/analyst-eval/internal/telemetry"
)

// #region run-command
func runEvaluate(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if inputPath != "" {
		cfg.Input = inputPath
	}
	if outputPath != "" {
		cfg.Output = outputPath
	}
	if noHeaders {
		cfg.Headers = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return evaluateFile(ctx, cfg, logger)
}

// evaluateFile runs one configured evaluation, recording it in the ledger
// when one is configured and exporting metrics when a textfile is set.
func evaluateFile(ctx context.Context, cfg *config.Run, logger *slog.Logger) (err error) {
	set, err := cfg.Descriptors()
	if err != nil {
		return err
	}
	evalCfg, err := cfg.Evaluator()
	if err != nil {
		return err
	}
	inFormat, _, err := cfg.Formats()
	if err != nil {
		return err
	}

	caps, closeModel, err := openModel(cfg.Model)
	if err != nil {
		return fmt.Errorf("open model: %w", err)
	}
	defer closeModel()

	metrics := telemetry.NewMetrics()

	var store *runstore.Store
	var run runstore.RunRecord
	var recorder *runstore.Recorder
	if cfg.Ledger != "" {
		store, err = runstore.NewStore(cfg.Ledger)
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer store.Close()
		run, err = store.StartRun(cfg.Input, cfg.Output, cfg.Model.Kind)
		if err != nil {
			return err
		}
		recorder = store.NewRecorder(run.RunID)
		logger = logger.With(slog.String("run_id", run.RunID))
	}

	observers := telemetry.Fanout{telemetry.NewObserver(logger, metrics)}
	if recorder != nil {
		observers = append(observers, recorder)
	}
	e := evaluate.New(set, evalCfg, evaluate.WithObserver(observers))
	var stats evaluate.Stats
	defer func() {
		records := 0
		if rc := e.Run(); rc != nil {
			records = rc.RecordCount
		}
		if store != nil {
			if rerr := recorder.Err(); rerr != nil {
				logger.Warn("record progress", slog.Any("error", rerr))
			}
			if ferr := store.FinishRun(run.RunID, runstore.ResultOf(stats, records, err)); ferr != nil {
				logger.Error("record run", slog.Any("error", ferr))
			}
		}
		if cfg.MetricsFile != "" {
			if merr := metrics.WriteTextfile(cfg.MetricsFile); merr != nil {
				logger.Error("export metrics", slog.Any("error", merr))
			}
		}
	}()

	logger.Info("analyzing input", slog.String("input", cfg.Input), slog.Bool("headers", cfg.Headers))
	if err = e.Analyze(ctx, cfg.Input, cfg.Headers, inFormat); err != nil {
		return err
	}
	rc := e.Run()
	logger.Info("input analyzed",
		slog.Int("records", rc.RecordCount),
		slog.Int("input_columns", rc.InputColumns),
		slog.Int("output_columns", rc.OutputColumns),
		slog.String("mode", caps.Mode().String()),
	)

	stats, err = e.Process(ctx, cfg.Output, caps)
	if errors.Is(err, context.Canceled) {
		logger.Warn("evaluation interrupted", slog.Int("rows_written", stats.Rows))
	}
	if err != nil {
		return err
	}
	logger.Info("output written", slog.String("output", cfg.Output))
	return nil
}

// #endregion run-command
