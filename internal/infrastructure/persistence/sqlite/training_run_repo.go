// Package sqlite keeps the training run ledger in a local database file for
// environments without Postgres.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // register the sqlite driver

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
)

const schema = `
CREATE TABLE IF NOT EXISTS training_runs (
	id             TEXT PRIMARY KEY,
	model_version  TEXT NOT NULL UNIQUE,
	dataset_source TEXT NOT NULL,
	status         TEXT NOT NULL,
	artifact_path  TEXT NOT NULL DEFAULT '',
	failure        TEXT NOT NULL DEFAULT '',
	train_rows     INTEGER NOT NULL DEFAULT 0,
	test_rows      INTEGER NOT NULL DEFAULT 0,
	evaluation     TEXT NOT NULL DEFAULT '{}',
	started_at     TEXT NOT NULL,
	completed_at   TEXT NOT NULL DEFAULT ''
);`

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// TrainingRunRepo implements port.TrainingRunRepository on SQLite.
type TrainingRunRepo struct {
	db *sql.DB
}

var _ port.TrainingRunRepository = (*TrainingRunRepo)(nil)

// Open opens (or creates) the ledger at path and ensures its table exists.
func Open(ctx context.Context, path string) (*TrainingRunRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: create schema: %w", err)
	}
	return &TrainingRunRepo{db: db}, nil
}

// Close releases the database handle.
func (r *TrainingRunRepo) Close() error {
	return r.db.Close()
}

// Save upserts the run.
func (r *TrainingRunRepo) Save(ctx context.Context, run *model.TrainingRun) error {
	evaluation, err := json.Marshal(run.Evaluation())
	if err != nil {
		return fmt.Errorf("sqlite: marshal evaluation: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO training_runs (
			id, model_version, dataset_source, status, artifact_path, failure,
			train_rows, test_rows, evaluation, started_at, completed_at
		) VALUES (?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT (id) DO UPDATE SET
			status        = excluded.status,
			artifact_path = excluded.artifact_path,
			failure       = excluded.failure,
			train_rows    = excluded.train_rows,
			test_rows     = excluded.test_rows,
			evaluation    = excluded.evaluation,
			completed_at  = excluded.completed_at`,
		run.ID().String(), run.ModelVersion(), run.DatasetSource(), run.Status(),
		run.ArtifactPath(), run.Failure(), run.TrainRows(), run.TestRows(),
		string(evaluation), formatTime(run.StartedAt()), formatTime(run.CompletedAt()),
	)
	if err != nil {
		return fmt.Errorf("sqlite: save training run: %w", err)
	}
	return nil
}

// FindLatest returns up to limit runs, newest first.
func (r *TrainingRunRepo) FindLatest(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, model_version, dataset_source, status, artifact_path, failure,
		       train_rows, test_rows, evaluation, started_at, completed_at
		FROM training_runs
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query training runs: %w", err)
	}
	defer rows.Close()

	var runs []*model.TrainingRun
	for rows.Next() {
		var (
			id, version, source, status, path, fail string
			trainRows, testRows                     int
			evaluation, startedAt, completedAt      string
		)
		if err := rows.Scan(&id, &version, &source, &status, &path, &fail,
			&trainRows, &testRows, &evaluation, &startedAt, &completedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scan training run: %w", err)
		}

		runID, err := uuid.Parse(id)
		if err != nil {
			return nil, fmt.Errorf("sqlite: parse run id: %w", err)
		}
		var report model.EvaluationReport
		if err := json.Unmarshal([]byte(evaluation), &report); err != nil {
			return nil, fmt.Errorf("sqlite: decode evaluation: %w", err)
		}
		started, err := parseTime(startedAt)
		if err != nil {
			return nil, err
		}
		completed, err := parseTime(completedAt)
		if err != nil {
			return nil, err
		}

		runs = append(runs, model.ReconstructTrainingRun(
			runID, version, source, status, path, fail,
			trainRows, testRows, report, started, completed,
		))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterate training runs: %w", err)
	}
	return runs, nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("sqlite: parse time %q: %w", s, err)
	}
	return t, nil
}
