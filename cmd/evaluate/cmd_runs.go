package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/danielpatrickdp/analyst-eval/internal/runstore"
)

// #region runs-command
func runListRuns(cmd *cobra.Command, _ []string) error {
	path := dbPath
	if path == "" {
		path = envOr("ANALYST_DB", "analyst_runs.db")
	}
	store, err := runstore.NewStore(path)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(lastRuns)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTATUS\tMODE\tROWS\tSKIPPED\tUNKNOWN\tSTARTED\tINPUT")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%d\t%d\t%s\t%s\n",
			shortID(r.RunID), r.Status, orDash(r.Mode), r.Rows, r.Records, r.Skipped, r.Unknown,
			r.StartedAt.Format("2006-01-02T15:04:05Z"), r.InputPath)
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// #endregion runs-command
