package runstore

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// #region schema
const schema = `
CREATE TABLE IF NOT EXISTS evaluation_runs (
	run_id        TEXT PRIMARY KEY,
	model_name    TEXT NOT NULL,
	mode          TEXT NOT NULL,
	normalize     INTEGER NOT NULL,
	inputs_json   TEXT NOT NULL,
	outputs_json  TEXT NOT NULL,
	error         TEXT,
	created_at    TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_model ON evaluation_runs(model_name, created_at);

CREATE TABLE IF NOT EXISTS unresolved_log (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id        TEXT NOT NULL,
	attribute     TEXT NOT NULL,
	reason        TEXT,
	created_at    TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES evaluation_runs(run_id) ON DELETE CASCADE
);
`
// #endregion schema

// #region store-struct
// Store persists evaluation runs in SQLite.
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
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, fmt.Errorf("pragma fk: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
// #endregion constructor

// #region save
// Save inserts a run, assigning an ID and timestamp when missing.
func (s *Store) Save(run Run) (Run, error) {
	if run.RunID == "" {
		run.RunID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}

	inJSON, err := json.Marshal(nonNil(run.Inputs))
	if err != nil {
		return Run{}, fmt.Errorf("marshal inputs: %w", err)
	}
	outJSON, err := json.Marshal(nonNil(run.Outputs))
	if err != nil {
		return Run{}, fmt.Errorf("marshal outputs: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO evaluation_runs (run_id, model_name, mode, normalize, inputs_json, outputs_json, error, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID, run.ModelName, run.Mode, boolInt(run.Normalize),
		string(inJSON), string(outJSON), nullIfEmpty(run.Error),
		run.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return Run{}, fmt.Errorf("insert run: %w", err)
	}
	return run, nil
}

// LogUnresolved appends an unresolved attribute to a stored run.
func (s *Store) LogUnresolved(entry UnresolvedEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(
		`INSERT INTO unresolved_log (run_id, attribute, reason, created_at) VALUES (?, ?, ?, ?)`,
		entry.RunID, entry.Attribute, nullIfEmpty(entry.Reason), entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("log unresolved: %w", err)
	}
	return nil
}
// #endregion save

// #region get
const runColumns = `run_id, model_name, mode, normalize, inputs_json, outputs_json, error, created_at`

// Get retrieves a run by ID.
func (s *Store) Get(id string) (Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM evaluation_runs WHERE run_id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("get run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("get run %s: %w", id, err)
	}
	return run, nil
}

// Unresolved lists the unresolved attributes logged for a run.
func (s *Store) Unresolved(runID string) ([]UnresolvedEntry, error) {
	rows, err := s.db.Query(
		`SELECT run_id, attribute, reason, created_at FROM unresolved_log WHERE run_id = ? ORDER BY id`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("list unresolved: %w", err)
	}
	defer rows.Close()

	var entries []UnresolvedEntry
	for rows.Next() {
		var e UnresolvedEntry
		var reason sql.NullString
		var createdStr string
		if err := rows.Scan(&e.RunID, &e.Attribute, &reason, &createdStr); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		e.Reason = reason.String
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
// #endregion get

// #region list
// List returns the most recent runs, newest first.
func (s *Store) List(limit int) ([]Run, error) {
	return s.query(`SELECT `+runColumns+` FROM evaluation_runs ORDER BY created_at DESC LIMIT ?`, limit)
}

// ListByModel returns the most recent runs of one model, newest first.
func (s *Store) ListByModel(modelName string, limit int) ([]Run, error) {
	return s.query(
		`SELECT `+runColumns+` FROM evaluation_runs WHERE model_name = ? ORDER BY created_at DESC LIMIT ?`,
		modelName, limit,
	)
}

func (s *Store) query(q string, args ...any) ([]Run, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
// #endregion list

// #region delete
// Delete removes a run and its unresolved log entries.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM evaluation_runs WHERE run_id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("delete run %s: %w", id, ErrNotFound)
	}
	return nil
}
// #endregion delete

// #region helpers
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var run Run
	var normalize int
	var inJSON, outJSON, createdStr string
	var errStr sql.NullString

	if err := row.Scan(&run.RunID, &run.ModelName, &run.Mode, &normalize,
		&inJSON, &outJSON, &errStr, &createdStr); err != nil {
		return Run{}, err
	}
	run.Normalize = normalize != 0
	run.Error = errStr.String
	if err := json.Unmarshal([]byte(inJSON), &run.Inputs); err != nil {
		return Run{}, fmt.Errorf("unmarshal inputs: %w", err)
	}
	if err := json.Unmarshal([]byte(outJSON), &run.Outputs); err != nil {
		return Run{}, fmt.Errorf("unmarshal outputs: %w", err)
	}
	run.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return run, nil
}

func nonNil(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
// #endregion helpers
