package runstore

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// timeLayout is fixed width so that timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS eval_runs (
	run_id       TEXT PRIMARY KEY,
	input_path   TEXT NOT NULL,
	output_path  TEXT NOT NULL,
	model_kind   TEXT NOT NULL,
	mode         TEXT,
	records      INTEGER NOT NULL DEFAULT 0,
	rows_written INTEGER NOT NULL DEFAULT 0,
	evaluated    INTEGER NOT NULL DEFAULT 0,
	skipped      INTEGER NOT NULL DEFAULT 0,
	unknown      INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	error        TEXT,
	started_at   TEXT NOT NULL,
	finished_at  TEXT
);

CREATE TABLE IF NOT EXISTS run_events (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	kind        TEXT NOT NULL,
	row_number  INTEGER NOT NULL DEFAULT 0,
	detail      TEXT,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES eval_runs(run_id)
);
`

// #endregion schema

// #region store-struct
// Store is the SQLite ledger of evaluation runs.
type Store struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor
// NewStore opens a SQLite database and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// #endregion constructor

// #region close
// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for event logging.
func (s *Store) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region start-run
// StartRun inserts a running record and returns it with a fresh run ID.
func (s *Store) StartRun(inputPath, outputPath, modelKind string) (RunRecord, error) {
	rec := RunRecord{
		RunID:      uuid.New().String(),
		InputPath:  inputPath,
		OutputPath: outputPath,
		ModelKind:  modelKind,
		Status:     StatusRunning,
		StartedAt:  time.Now().UTC(),
	}
	_, err := s.db.Exec(
		`INSERT INTO eval_runs (run_id, input_path, output_path, model_kind, status, started_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.InputPath, rec.OutputPath, rec.ModelKind,
		string(rec.Status), rec.StartedAt.Format(timeLayout),
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("insert run: %w", err)
	}
	return rec, nil
}

// #endregion start-run

// #region finish-run
// FinishRun stores the outcome of a run and logs a terminal event in one transaction.
func (s *Store) FinishRun(runID string, res Result) error {
	status, kind, detail := StatusSucceeded, "done", ""
	if res.Err != nil {
		status, kind, detail = StatusFailed, "failed", res.Err.Error()
	}
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	r, err := tx.Exec(
		`UPDATE eval_runs SET mode = ?, records = ?, rows_written = ?, evaluated = ?, skipped = ?, unknown = ?,
		 status = ?, error = ?, finished_at = ? WHERE run_id = ?`,
		nullIfEmpty(res.Mode), res.Records, res.Rows, res.Evaluated, res.Skipped, res.Unknown,
		string(status), nullIfEmpty(detail), now.Format(timeLayout), runID,
	)
	if err != nil {
		return fmt.Errorf("update run: %w", err)
	}
	if n, _ := r.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run %s: %w", runID, ErrRunNotFound)
	}

	if err := insertEvent(tx, Event{RunID: runID, Kind: kind, Row: res.Rows, Detail: detail, CreatedAt: now}); err != nil {
		return err
	}
	return tx.Commit()
}

// #endregion finish-run

// #region get-run
const runColumns = `run_id, input_path, output_path, model_kind, mode, records, rows_written,
	evaluated, skipped, unknown, status, error, started_at, finished_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (RunRecord, error) {
	var rec RunRecord
	var mode, errText, finished sql.NullString
	var status, started string
	err := row.Scan(&rec.RunID, &rec.InputPath, &rec.OutputPath, &rec.ModelKind, &mode, &rec.Records,
		&rec.Rows, &rec.Evaluated, &rec.Skipped, &rec.Unknown, &status, &errText, &started, &finished)
	if err != nil {
		return RunRecord{}, err
	}
	rec.Mode = mode.String
	rec.Status = Status(status)
	rec.Error = errText.String
	rec.StartedAt, _ = time.Parse(timeLayout, started)
	if finished.Valid {
		rec.FinishedAt, _ = time.Parse(timeLayout, finished.String)
	}
	return rec, nil
}

// GetRun retrieves one run by ID. A unique ID prefix is accepted.
func (s *Store) GetRun(id string) (RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM eval_runs WHERE run_id = ? OR run_id LIKE ? || '%' LIMIT 2`, id, id,
	)
	if err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	defer rows.Close()

	var found []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return RunRecord{}, fmt.Errorf("scan run: %w", err)
		}
		if rec.RunID == id {
			return rec, nil
		}
		found = append(found, rec)
	}
	if err := rows.Err(); err != nil {
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, err)
	}
	switch len(found) {
	case 0:
		return RunRecord{}, fmt.Errorf("get run %s: %w", id, ErrRunNotFound)
	case 1:
		return found[0], nil
	}
	return RunRecord{}, fmt.Errorf("get run %s: prefix is ambiguous", id)
}

// #endregion get-run

// #region list-runs
// ListRuns returns the most recent runs, newest first.
func (s *Store) ListRuns(limit int) ([]RunRecord, error) {
	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM eval_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var records []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// #endregion list-runs
