package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// --- Global Command Variables ---
var (
	logLevel   string
	logger     = slog.New(slog.NewTextHandler(os.Stderr, nil))
	configPath string
	inputPath  string
	outputPath string
	noHeaders  bool
	dbPath     string
	lastRuns   int
	listenAddr string
	modelPath  string

	rootCmd = &cobra.Command{
		Use:           "evaluate",
		Short:         "Evaluate a trained model over a delimited input file",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
			slog.SetDefault(logger)
			return nil
		},
	}

	runCmd = &cobra.Command{
		Use:   "run",
		Short: "Evaluate every input row and write the augmented output file",
		Args:  cobra.NoArgs,
		RunE:  runEvaluate, // Defined in cmd_run.go
	}

	runsCmd = &cobra.Command{
		Use:   "runs",
		Short: "List recent runs recorded in the ledger",
		Args:  cobra.NoArgs,
		RunE:  runListRuns, // Defined in cmd_runs.go
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Serve a linear model file over the remote model gRPC service",
		Args:  cobra.NoArgs,
		RunE:  runServe, // Defined in cmd_serve.go
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")

	runCmd.Flags().StringVarP(&configPath, "config", "c", "run.yaml", "Run configuration file")
	runCmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file, overrides the config")
	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, overrides the config")
	runCmd.Flags().BoolVar(&noHeaders, "no-headers", false, "Input file has no header row")

	runsCmd.Flags().StringVar(&dbPath, "db", "", "Run ledger database (default $ANALYST_DB or analyst_runs.db)")
	runsCmd.Flags().IntVar(&lastRuns, "last", 20, "Show N most recent runs")

	serveCmd.Flags().StringVar(&listenAddr, "listen", "localhost:50051", "Address to listen on")
	serveCmd.Flags().StringVar(&modelPath, "model", "", "Linear model JSON file")
	_ = serveCmd.MarkFlagRequired("model")

	rootCmd.AddCommand(runCmd, runsCmd, serveCmd)
}

// #region helpers
func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return level, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion helpers
