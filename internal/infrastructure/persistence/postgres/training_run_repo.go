package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/pkg/events"
	pkgpostgres "github.com/bibbank/loan-approval/pkg/postgres"
)

// TrainingRunRepo implements port.TrainingRunRepository.
type TrainingRunRepo struct {
	pool *pgxpool.Pool
}

var _ port.TrainingRunRepository = (*TrainingRunRepo)(nil)

// NewTrainingRunRepo creates a new repository backed by PostgreSQL.
func NewTrainingRunRepo(pool *pgxpool.Pool) *TrainingRunRepo {
	return &TrainingRunRepo{pool: pool}
}

// Save upserts the run, replaces its classification report and stages the
// run's pending events in the outbox, all in one transaction. The events stay
// on the run for the caller to publish.
func (r *TrainingRunRepo) Save(ctx context.Context, run *model.TrainingRun) error {
	return pkgpostgres.WithTransaction(ctx, r.pool, func(tx pgx.Tx) error {
		query := `
			INSERT INTO training_runs (
				id, model_version, dataset_source, status, artifact_path, failure,
				train_rows, test_rows, accuracy, f1, started_at, completed_at
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
			ON CONFLICT (id) DO UPDATE SET
				status        = EXCLUDED.status,
				artifact_path = EXCLUDED.artifact_path,
				failure       = EXCLUDED.failure,
				train_rows    = EXCLUDED.train_rows,
				test_rows     = EXCLUDED.test_rows,
				accuracy      = EXCLUDED.accuracy,
				f1            = EXCLUDED.f1,
				completed_at  = EXCLUDED.completed_at
		`
		eval := run.Evaluation()
		_, err := tx.Exec(ctx, query,
			run.ID(), run.ModelVersion(), run.DatasetSource(), run.Status(),
			run.ArtifactPath(), run.Failure(),
			run.TrainRows(), run.TestRows(), eval.Accuracy, eval.F1,
			run.StartedAt(), nullableTime(run.CompletedAt()),
		)
		if err != nil {
			return fmt.Errorf("save training run: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM training_run_classes WHERE run_id = $1`, run.ID()); err != nil {
			return fmt.Errorf("clear classification report: %w", err)
		}
		for i, c := range eval.Classes {
			_, err := tx.Exec(ctx, `
				INSERT INTO training_run_classes (run_id, label, precision, recall, f1, support, position)
				VALUES ($1,$2,$3,$4,$5,$6,$7)`,
				run.ID(), c.Label, c.Precision, c.Recall, c.F1, c.Support, i,
			)
			if err != nil {
				return fmt.Errorf("save classification report: %w", err)
			}
		}

		for _, evt := range run.Events() {
			entry, err := events.NewOutboxEntry(evt)
			if err != nil {
				return err
			}
			_, err = tx.Exec(ctx, `
				INSERT INTO outbox (id, aggregate_id, aggregate_type, event_type, payload, created_at)
				VALUES ($1,$2,$3,$4,$5,$6)
				ON CONFLICT (id) DO NOTHING`,
				entry.ID, entry.AggregateID, entry.AggregateType, entry.EventType, entry.Payload, entry.CreatedAt,
			)
			if err != nil {
				return fmt.Errorf("insert outbox event: %w", err)
			}
		}
		return nil
	})
}

// FindLatest returns up to limit runs, newest first.
func (r *TrainingRunRepo) FindLatest(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, model_version, dataset_source, status, artifact_path, failure,
		       train_rows, test_rows, accuracy, f1, started_at, completed_at
		FROM training_runs
		ORDER BY started_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query training runs: %w", err)
	}
	defer rows.Close()

	var (
		runs []*model.TrainingRun
		ids  []string
	)
	for rows.Next() {
		run, err := scanTrainingRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
		ids = append(ids, run.ID().String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate training runs: %w", err)
	}
	if len(runs) == 0 {
		return runs, nil
	}

	classes, err := r.findClasses(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i, run := range runs {
		if report, ok := classes[run.ID()]; ok {
			runs[i] = withClasses(run, report)
		}
	}
	return runs, nil
}

func (r *TrainingRunRepo) findClasses(ctx context.Context, ids []string) (map[uuid.UUID][]model.ClassMetrics, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT run_id, label, precision, recall, f1, support
		FROM training_run_classes
		WHERE run_id = ANY($1::uuid[])
		ORDER BY run_id, position
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("query classification reports: %w", err)
	}
	defer rows.Close()

	result := make(map[uuid.UUID][]model.ClassMetrics)
	for rows.Next() {
		var (
			runID uuid.UUID
			c     model.ClassMetrics
		)
		if err := rows.Scan(&runID, &c.Label, &c.Precision, &c.Recall, &c.F1, &c.Support); err != nil {
			return nil, fmt.Errorf("scan classification report: %w", err)
		}
		result[runID] = append(result[runID], c)
	}
	return result, rows.Err()
}

// ---------------------------------------------------------------------------
// scan helpers
// ---------------------------------------------------------------------------

type scannable interface {
	Scan(dest ...any) error
}

func scanTrainingRun(s scannable) (*model.TrainingRun, error) {
	var (
		id                                  uuid.UUID
		version, source, status, path, fail string
		trainRows, testRows                 int
		accuracy, f1                        float64
		startedAt                           time.Time
		completedAt                         *time.Time
	)
	err := s.Scan(
		&id, &version, &source, &status, &path, &fail,
		&trainRows, &testRows, &accuracy, &f1, &startedAt, &completedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("scan training run: %w", err)
	}

	var completed time.Time
	if completedAt != nil {
		completed = completedAt.UTC()
	}
	return model.ReconstructTrainingRun(
		id, version, source, status, path, fail,
		trainRows, testRows,
		model.EvaluationReport{Accuracy: accuracy, F1: f1},
		startedAt.UTC(), completed,
	), nil
}

func withClasses(run *model.TrainingRun, classes []model.ClassMetrics) *model.TrainingRun {
	eval := run.Evaluation()
	eval.Classes = classes
	return model.ReconstructTrainingRun(
		run.ID(), run.ModelVersion(), run.DatasetSource(), run.Status(),
		run.ArtifactPath(), run.Failure(),
		run.TrainRows(), run.TestRows(),
		eval, run.StartedAt(), run.CompletedAt(),
	)
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
