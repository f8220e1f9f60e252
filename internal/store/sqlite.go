package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("not found")

type SQLiteStore struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS experiments (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    start_at INTEGER,
    end_at INTEGER,
    is_active INTEGER NOT NULL DEFAULT 1,
    metric_kind TEXT NOT NULL DEFAULT '',
    metric_event TEXT NOT NULL DEFAULT '',
    metric_value REAL,
    winner TEXT,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    updated_at INTEGER NOT NULL DEFAULT (unixepoch())
);

CREATE INDEX IF NOT EXISTS idx_experiments_active ON experiments(is_active);

CREATE TABLE IF NOT EXISTS variations (
    experiment_id TEXT NOT NULL,
    name TEXT NOT NULL,
    weight REAL NOT NULL DEFAULT 1,
    is_baseline INTEGER NOT NULL DEFAULT 0,
    position INTEGER NOT NULL,
    PRIMARY KEY (experiment_id, name),
    FOREIGN KEY (experiment_id) REFERENCES experiments(id)
);

CREATE TABLE IF NOT EXISTS assignments (
    experiment_id TEXT NOT NULL,
    visitor_key TEXT NOT NULL,
    variation TEXT NOT NULL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    PRIMARY KEY (experiment_id, visitor_key),
    FOREIGN KEY (experiment_id) REFERENCES experiments(id)
);

CREATE INDEX IF NOT EXISTS idx_assignments_variation ON assignments(experiment_id, variation);

CREATE TABLE IF NOT EXISTS success_events (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    experiment_id TEXT NOT NULL,
    visitor_key TEXT NOT NULL,
    event TEXT NOT NULL,
    value REAL,
    created_at INTEGER NOT NULL DEFAULT (unixepoch()),
    FOREIGN KEY (experiment_id) REFERENCES experiments(id)
);

CREATE INDEX IF NOT EXISTS idx_success_events_experiment ON success_events(experiment_id);
CREATE INDEX IF NOT EXISTS idx_success_events_visitor ON success_events(experiment_id, visitor_key, event);
`

func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Apply schema
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateExperiment(ctx context.Context, exp *Experiment, variations []Variation) (*Experiment, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO experiments (id, name, description, start_at, end_at, is_active, metric_kind, metric_event, metric_value, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exp.ID, exp.Name, exp.Description,
		nullableTime(exp.StartAt), nullableTime(exp.EndAt),
		boolToInt(exp.IsActive), string(exp.MetricKind), exp.MetricEvent,
		nullableFloat(exp.MetricValue), now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert experiment: %w", err)
	}

	for i, v := range variations {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO variations (experiment_id, name, weight, is_baseline, position)
			 VALUES (?, ?, ?, ?, ?)`,
			exp.ID, v.Name, v.Weight, boolToInt(v.IsBaseline), i,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert variation %q: %w", v.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}

	created := *exp
	created.CreatedAt = time.Unix(now, 0)
	created.UpdatedAt = time.Unix(now, 0)
	return &created, nil
}

const experimentColumns = `id, name, description, start_at, end_at, is_active, metric_kind, metric_event, metric_value, winner, created_at, updated_at`

func (s *SQLiteStore) GetExperiment(ctx context.Context, id string) (*Experiment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments WHERE id = ?`, id,
	)

	exp, err := scanExperiment(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get experiment: %w", err)
	}
	return exp, nil
}

func (s *SQLiteStore) ListExperiments(ctx context.Context) ([]*Experiment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+experimentColumns+` FROM experiments ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list experiments: %w", err)
	}
	defer rows.Close()

	var experiments []*Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan experiment: %w", err)
		}
		experiments = append(experiments, exp)
	}

	return experiments, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (*Experiment, error) {
	var exp Experiment
	var startAt, endAt sql.NullInt64
	var isActive int
	var metricKind string
	var metricValue sql.NullFloat64
	var winner sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&exp.ID, &exp.Name, &exp.Description, &startAt, &endAt,
		&isActive, &metricKind, &exp.MetricEvent, &metricValue, &winner,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	exp.IsActive = isActive != 0
	exp.MetricKind = MetricKind(metricKind)
	if startAt.Valid {
		t := time.Unix(startAt.Int64, 0)
		exp.StartAt = &t
	}
	if endAt.Valid {
		t := time.Unix(endAt.Int64, 0)
		exp.EndAt = &t
	}
	if metricValue.Valid {
		v := metricValue.Float64
		exp.MetricValue = &v
	}
	if winner.Valid {
		w := winner.String
		exp.Winner = &w
	}
	exp.CreatedAt = time.Unix(createdAt, 0)
	exp.UpdatedAt = time.Unix(updatedAt, 0)

	return &exp, nil
}

func (s *SQLiteStore) UpdateExperimentState(ctx context.Context, id string, active bool) error {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET is_active = ?, end_at = CASE WHEN ? = 0 THEN ? ELSE end_at END, updated_at = ? WHERE id = ?`,
		boolToInt(active), boolToInt(active), now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update experiment state: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) SetWinner(ctx context.Context, id string, variation string) error {
	now := time.Now().Unix()
	result, err := s.db.ExecContext(ctx,
		`UPDATE experiments SET winner = ?, is_active = 0, end_at = ?, updated_at = ? WHERE id = ?`,
		variation, now, now, id,
	)
	if err != nil {
		return fmt.Errorf("failed to set winner: %w", err)
	}
	return requireRow(result)
}

func (s *SQLiteStore) DeleteExperiment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"success_events", "assignments", "variations"} {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE experiment_id = ?`, id); err != nil {
			return fmt.Errorf("failed to delete from %s: %w", table, err)
		}
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM experiments WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete experiment: %w", err)
	}
	if err := requireRow(result); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *SQLiteStore) GetVariations(ctx context.Context, experimentID string) ([]Variation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, name, weight, is_baseline, position
		 FROM variations WHERE experiment_id = ? ORDER BY position`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get variations: %w", err)
	}
	defer rows.Close()

	var variations []Variation
	for rows.Next() {
		var v Variation
		var isBaseline int
		if err := rows.Scan(&v.ExperimentID, &v.Name, &v.Weight, &isBaseline, &v.Position); err != nil {
			return nil, fmt.Errorf("failed to scan variation: %w", err)
		}
		v.IsBaseline = isBaseline != 0
		variations = append(variations, v)
	}

	return variations, rows.Err()
}

func (s *SQLiteStore) GetAssignment(ctx context.Context, experimentID, visitorKey string) (*Assignment, error) {
	var a Assignment
	var createdAt int64

	err := s.db.QueryRowContext(ctx,
		`SELECT experiment_id, visitor_key, variation, created_at
		 FROM assignments WHERE experiment_id = ? AND visitor_key = ?`,
		experimentID, visitorKey,
	).Scan(&a.ExperimentID, &a.VisitorKey, &a.Variation, &createdAt)

	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	a.CreatedAt = time.Unix(createdAt, 0)
	return &a, nil
}

// PutAssignment records an assignment if none exists yet. The primary key
// on (experiment_id, visitor_key) plus INSERT OR IGNORE makes concurrent
// writers race safely: the loser's row is discarded and a re-read returns
// the winner's variation.
func (s *SQLiteStore) PutAssignment(ctx context.Context, a Assignment) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO assignments (experiment_id, visitor_key, variation, created_at)
		 VALUES (?, ?, ?, ?)`,
		a.ExperimentID, a.VisitorKey, a.Variation, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to put assignment: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListAssignments(ctx context.Context, experimentID string) ([]Assignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT experiment_id, visitor_key, variation, created_at
		 FROM assignments WHERE experiment_id = ?`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}
	defer rows.Close()

	var assignments []Assignment
	for rows.Next() {
		var a Assignment
		var createdAt int64
		if err := rows.Scan(&a.ExperimentID, &a.VisitorKey, &a.Variation, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		a.CreatedAt = time.Unix(createdAt, 0)
		assignments = append(assignments, a)
	}

	return assignments, rows.Err()
}

func (s *SQLiteStore) RecordSuccess(ctx context.Context, e SuccessEvent) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO success_events (experiment_id, visitor_key, event, value, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		e.ExperimentID, e.VisitorKey, e.Event, nullableFloat(e.Value), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to record success event: %w", err)
	}
	return nil
}

func (s *SQLiteStore) ListSuccessEvents(ctx context.Context, experimentID string) ([]SuccessEvent, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, experiment_id, visitor_key, event, value, created_at
		 FROM success_events WHERE experiment_id = ? ORDER BY created_at`,
		experimentID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list success events: %w", err)
	}
	defer rows.Close()

	var events []SuccessEvent
	for rows.Next() {
		var e SuccessEvent
		var value sql.NullFloat64
		var createdAt int64
		if err := rows.Scan(&e.ID, &e.ExperimentID, &e.VisitorKey, &e.Event, &value, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan success event: %w", err)
		}
		if value.Valid {
			v := value.Float64
			e.Value = &v
		}
		e.CreatedAt = time.Unix(createdAt, 0)
		events = append(events, e)
	}

	return events, rows.Err()
}

// DB returns the underlying database connection for health checks
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func requireRow(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableTime(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}

func nullableFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}
