package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/analyst-eval/internal/runstore"
)

// #region main

func main() {
	dbPath := flag.String("db", envOr("ANALYST_DB", ""), "path to the run ledger database")
	last := flag.Int("last", 20, "show N most recent runs")
	runID := flag.String("run", "", "show single run detail (full ID or unique prefix)")
	events := flag.Bool("events", false, "include progress events in run detail")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *dbPath == "" {
		fmt.Fprintln(os.Stderr, "usage: inspect --db path/to/analyst_runs.db [--last N] [--run id] [--events] [--json]")
		os.Exit(2)
	}

	store, err := runstore.NewStore(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	if *runID != "" {
		err = runDetailMode(store, *runID, *events, *jsonOut)
	} else {
		err = runListMode(store, *last, *jsonOut)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		store.Close()
		os.Exit(1)
	}
}

// #endregion main

// #region list-mode

type listRow struct {
	RunID     string  `json:"run_id"`
	Status    string  `json:"status"`
	Mode      string  `json:"mode,omitempty"`
	Rows      int     `json:"rows"`
	Records   int     `json:"records"`
	SkipRate  float64 `json:"skip_rate"`
	Unknown   int     `json:"unknown"`
	Seconds   float64 `json:"seconds"`
	StartedAt string  `json:"started_at"`
}

func runListMode(store *runstore.Store, last int, jsonOut bool) error {
	runs, err := store.ListRuns(last)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(os.Stderr, "no runs found")
		return nil
	}

	// Store returns newest first, reverse for chronological
	rows := make([]listRow, len(runs))
	for i, r := range runs {
		rows[len(runs)-1-i] = listRow{
			RunID:     r.RunID,
			Status:    string(r.Status),
			Mode:      r.Mode,
			Rows:      r.Rows,
			Records:   r.Records,
			SkipRate:  skipRate(r),
			Unknown:   r.Unknown,
			Seconds:   r.Duration().Seconds(),
			StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
		}
	}

	if jsonOut {
		return printJSON(rows)
	}

	fmt.Printf("%-10s  %-10s  %-14s  %12s  %6s  %7s  %8s  %s\n",
		"Run", "Status", "Mode", "Rows", "Skip%", "Unknown", "Seconds", "Started")
	fmt.Printf("%-10s+-%-10s+-%-14s+-%12s+-%6s+-%7s+-%8s+-%s\n",
		"----------", "----------", "--------------", "------------", "------", "-------", "--------", "--------------------")
	for _, r := range rows {
		fmt.Printf("%-10s  %-10s  %-14s  %12s  %6.1f  %7d  %8.2f  %s\n",
			shortID(r.RunID), r.Status, orDash(r.Mode), fmt.Sprintf("%d/%d", r.Rows, r.Records),
			r.SkipRate*100, r.Unknown, r.Seconds, r.StartedAt)
	}
	return nil
}

// #endregion list-mode

// #region detail-mode

type detailOutput struct {
	RunID      string        `json:"run_id"`
	Status     string        `json:"status"`
	Error      string        `json:"error,omitempty"`
	Input      string        `json:"input"`
	Output     string        `json:"output"`
	ModelKind  string        `json:"model_kind"`
	Mode       string        `json:"mode,omitempty"`
	Records    int           `json:"records"`
	Rows       int           `json:"rows"`
	Evaluated  int           `json:"evaluated"`
	Skipped    int           `json:"skipped"`
	Unknown    int           `json:"unknown"`
	StartedAt  string        `json:"started_at"`
	FinishedAt string        `json:"finished_at,omitempty"`
	Events     []eventDetail `json:"events,omitempty"`
}

type eventDetail struct {
	Kind   string `json:"kind"`
	Row    int    `json:"row"`
	Detail string `json:"detail,omitempty"`
	At     string `json:"at"`
}

func runDetailMode(store *runstore.Store, id string, withEvents, jsonOut bool) error {
	r, err := store.GetRun(id)
	if err != nil {
		return err
	}

	out := detailOutput{
		RunID:     r.RunID,
		Status:    string(r.Status),
		Error:     r.Error,
		Input:     r.InputPath,
		Output:    r.OutputPath,
		ModelKind: r.ModelKind,
		Mode:      r.Mode,
		Records:   r.Records,
		Rows:      r.Rows,
		Evaluated: r.Evaluated,
		Skipped:   r.Skipped,
		Unknown:   r.Unknown,
		StartedAt: r.StartedAt.Format("2006-01-02T15:04:05Z"),
	}
	if !r.FinishedAt.IsZero() {
		out.FinishedAt = r.FinishedAt.Format("2006-01-02T15:04:05Z")
	}
	if withEvents {
		evs, err := runstore.Events(store.DB(), r.RunID)
		if err != nil {
			return err
		}
		for _, ev := range evs {
			out.Events = append(out.Events, eventDetail{
				Kind:   ev.Kind,
				Row:    ev.Row,
				Detail: ev.Detail,
				At:     ev.CreatedAt.Format("15:04:05.000"),
			})
		}
	}

	if jsonOut {
		return printJSON(out)
	}

	fmt.Printf("Run:        %s\n", out.RunID)
	fmt.Printf("Status:     %s\n", out.Status)
	if out.Error != "" {
		fmt.Printf("Error:      %s\n", out.Error)
	}
	fmt.Printf("Input:      %s\n", out.Input)
	fmt.Printf("Output:     %s\n", out.Output)
	fmt.Printf("Model:      %s (%s)\n", out.ModelKind, out.Mode)
	fmt.Printf("Started:    %s\n", out.StartedAt)
	fmt.Printf("Finished:   %s\n", out.FinishedAt)

	fmt.Printf("\nRows:\n")
	fmt.Printf("  %-10s %d/%d\n", "written", out.Rows, out.Records)
	fmt.Printf("  %-10s %d\n", "evaluated", out.Evaluated)
	fmt.Printf("  %-10s %d (%.1f%%)\n", "skipped", out.Skipped, skipRate(r)*100)
	fmt.Printf("  %-10s %d\n", "unknown", out.Unknown)

	if len(out.Events) > 0 {
		fmt.Printf("\nEvents:\n")
		for _, ev := range out.Events {
			fmt.Printf("  %s  %-8s  %8d  %s\n", ev.At, ev.Kind, ev.Row, ev.Detail)
		}
	}
	return nil
}

// #endregion detail-mode

// #region output

func skipRate(r runstore.RunRecord) float64 {
	if r.Rows == 0 {
		return 0
	}
	return float64(r.Skipped) / float64(r.Rows)
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// #endregion output
