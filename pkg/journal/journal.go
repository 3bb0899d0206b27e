// Package journal records maneuver runs in a SQLite database.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/dturobocup/raubot/pkg/maneuver"
)

// ErrUnknownRun is returned for run IDs that are not in the journal.
var ErrUnknownRun = errors.New("unknown run")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id      TEXT PRIMARY KEY,
	plan        TEXT NOT NULL,
	started_at  TEXT NOT NULL,
	ended_at    TEXT,
	outcome     TEXT
);

CREATE TABLE IF NOT EXISTS transitions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	maneuver    TEXT NOT NULL,
	from_index  INTEGER NOT NULL,
	to_index    INTEGER NOT NULL,
	from_step   TEXT NOT NULL,
	to_step     TEXT NOT NULL,
	tick        INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
CREATE INDEX IF NOT EXISTS idx_transitions_run ON transitions(run_id);

CREATE TABLE IF NOT EXISTS stalls (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id      TEXT NOT NULL,
	maneuver    TEXT NOT NULL,
	step_index  INTEGER NOT NULL,
	step        TEXT NOT NULL,
	ticks       INTEGER NOT NULL,
	created_at  TEXT NOT NULL,
	FOREIGN KEY (run_id) REFERENCES runs(run_id)
);
`

// Run is one execution of a plan.
type Run struct {
	ID          string
	Plan        []string
	StartedAt   time.Time
	EndedAt     time.Time // zero while the run is open
	Outcome     string
	Transitions int
}

// TransitionRow is a recorded step advance.
type TransitionRow struct {
	maneuver.Transition
	CreatedAt time.Time
}

// StallRow is a recorded stall report.
type StallRow struct {
	maneuver.Stall
	CreatedAt time.Time
}

// Store manages the run journal.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens a SQLite database and runs migrations.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

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
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// BeginRun opens a run for the named maneuvers and returns its ID.
func (s *Store) BeginRun(plan []string) (string, error) {
	id := uuid.New().String()
	_, err := s.db.Exec(
		`INSERT INTO runs (run_id, plan, started_at) VALUES (?, ?, ?)`,
		id, strings.Join(plan, ","), s.stamp(),
	)
	if err != nil {
		return "", fmt.Errorf("begin run: %w", err)
	}
	return id, nil
}

// RecordTransition appends a step advance to a run.
func (s *Store) RecordTransition(runID string, t maneuver.Transition) error {
	_, err := s.db.Exec(
		`INSERT INTO transitions (run_id, maneuver, from_index, to_index, from_step, to_step, tick, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, t.Maneuver, t.From, t.To, t.FromStep, t.ToStep, int64(t.Tick), s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// RecordStall appends a stall report to a run.
func (s *Store) RecordStall(runID string, st maneuver.Stall) error {
	_, err := s.db.Exec(
		`INSERT INTO stalls (run_id, maneuver, step_index, step, ticks, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		runID, st.Maneuver, st.Index, st.Step, st.Ticks, s.stamp(),
	)
	if err != nil {
		return fmt.Errorf("record stall: %w", err)
	}
	return nil
}

// EndRun closes a run with its outcome.
func (s *Store) EndRun(runID, outcome string) error {
	res, err := s.db.Exec(
		`UPDATE runs SET ended_at = ?, outcome = ? WHERE run_id = ?`,
		s.stamp(), outcome, runID,
	)
	if err != nil {
		return fmt.Errorf("end run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("end run %s: %w", runID, ErrUnknownRun)
	}
	return nil
}

const selectRuns = `
SELECT r.run_id, r.plan, r.started_at, COALESCE(r.ended_at, ''), COALESCE(r.outcome, ''),
       (SELECT COUNT(*) FROM transitions t WHERE t.run_id = r.run_id)
FROM runs r`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(sc rowScanner) (Run, error) {
	var r Run
	var plan, startedAt, endedAt string
	if err := sc.Scan(&r.ID, &plan, &startedAt, &endedAt, &r.Outcome, &r.Transitions); err != nil {
		return Run{}, err
	}
	if plan != "" {
		r.Plan = strings.Split(plan, ",")
	}
	r.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	if endedAt != "" {
		r.EndedAt, _ = time.Parse(time.RFC3339Nano, endedAt)
	}
	return r, nil
}

// Runs returns up to limit runs, most recent first. limit <= 0 returns all.
func (s *Store) Runs(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(selectRuns+`
		 ORDER BY r.started_at DESC, r.rowid DESC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Run returns one run by ID.
func (s *Store) Run(runID string) (Run, error) {
	r, err := scanRun(s.db.QueryRow(selectRuns+` WHERE r.run_id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrUnknownRun, runID)
	}
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	return r, nil
}

// Transitions returns the transitions of a run in the order they happened.
func (s *Store) Transitions(runID string) ([]TransitionRow, error) {
	rows, err := s.db.Query(
		`SELECT maneuver, from_index, to_index, from_step, to_step, tick, created_at
		 FROM transitions WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query transitions: %w", err)
	}
	defer rows.Close()

	var out []TransitionRow
	for rows.Next() {
		var tr TransitionRow
		var tick int64
		var createdAt string
		if err := rows.Scan(&tr.Maneuver, &tr.From, &tr.To, &tr.FromStep, &tr.ToStep, &tick, &createdAt); err != nil {
			return nil, err
		}
		tr.Tick = uint64(tick)
		tr.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, tr)
	}
	return out, rows.Err()
}

// Stalls returns the stall reports of a run.
func (s *Store) Stalls(runID string) ([]StallRow, error) {
	rows, err := s.db.Query(
		`SELECT maneuver, step_index, step, ticks, created_at
		 FROM stalls WHERE run_id = ? ORDER BY id`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("query stalls: %w", err)
	}
	defer rows.Close()

	var out []StallRow
	for rows.Next() {
		var sr StallRow
		var createdAt string
		if err := rows.Scan(&sr.Maneuver, &sr.Index, &sr.Step, &sr.Ticks, &createdAt); err != nil {
			return nil, err
		}
		sr.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, sr)
	}
	return out, rows.Err()
}
