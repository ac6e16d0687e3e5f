package runstore

import (
	"database/sql"
	"fmt"
	"time"
)

// #region log-event
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

// LogEvent writes one entry to the run_events table.
func LogEvent(db *sql.DB, ev Event) error {
	return insertEvent(db, ev)
}

func insertEvent(db execer, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now().UTC()
	}
	_, err := db.Exec(
		`INSERT INTO run_events (run_id, kind, row_number, detail, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ev.RunID,
		ev.Kind,
		ev.Row,
		nullIfEmpty(ev.Detail),
		ev.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("log event: %w", err)
	}
	return nil
}

// #endregion log-event

// #region list-events
// Events returns the events of one run in the order they were logged.
func Events(db *sql.DB, runID string) ([]Event, error) {
	rows, err := db.Query(
		`SELECT run_id, kind, row_number, detail, created_at FROM run_events
		 WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		var detail sql.NullString
		var created string
		if err := rows.Scan(&ev.RunID, &ev.Kind, &ev.Row, &detail, &created); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Detail = detail.String
		ev.CreatedAt, _ = time.Parse(timeLayout, created)
		events = append(events, ev)
	}
	return events, rows.Err()
}

// #endregion list-events

// #region helpers
func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
