package model

import (
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/loan-approval/internal/domain/event"
	"github.com/bibbank/loan-approval/pkg/events"
)

// TrainingRun statuses.
const (
	RunStatusRunning   = "RUNNING"
	RunStatusCompleted = "COMPLETED"
	RunStatusFailed    = "FAILED"
)

// TrainingRun is the ledger entry of one offline training job.
type TrainingRun struct {
	events.EventCollector

	id            uuid.UUID
	modelVersion  string
	datasetSource string
	status        string
	artifactPath  string
	failure       string
	trainRows     int
	testRows      int
	evaluation    EvaluationReport
	startedAt     time.Time
	completedAt   time.Time
}

// NewTrainingRun starts a run. The model version is derived from the run ID.
func NewTrainingRun(datasetSource string, now time.Time) (*TrainingRun, error) {
	if datasetSource == "" {
		return nil, errors.New("dataset source is required")
	}
	id := uuid.New()
	return &TrainingRun{
		id:            id,
		modelVersion:  now.UTC().Format("20060102T150405Z") + "-" + id.String()[:8],
		datasetSource: datasetSource,
		status:        RunStatusRunning,
		startedAt:     now.UTC(),
	}, nil
}

// ReconstructTrainingRun rebuilds a run from persistence without side-effects.
func ReconstructTrainingRun(
	id uuid.UUID,
	modelVersion, datasetSource, status, artifactPath, failure string,
	trainRows, testRows int,
	evaluation EvaluationReport,
	startedAt, completedAt time.Time,
) *TrainingRun {
	return &TrainingRun{
		id:            id,
		modelVersion:  modelVersion,
		datasetSource: datasetSource,
		status:        status,
		artifactPath:  artifactPath,
		failure:       failure,
		trainRows:     trainRows,
		testRows:      testRows,
		evaluation:    evaluation,
		startedAt:     startedAt,
		completedAt:   completedAt,
	}
}

// Complete records the persisted artifact and raises ModelTrained.
func (r *TrainingRun) Complete(artifactPath string, trainRows, testRows int, evaluation EvaluationReport, now time.Time) error {
	if r.status != RunStatusRunning {
		return errors.New("only a running training run can complete")
	}
	if artifactPath == "" {
		return errors.New("artifact path is required")
	}
	r.status = RunStatusCompleted
	r.artifactPath = artifactPath
	r.trainRows = trainRows
	r.testRows = testRows
	r.evaluation = evaluation
	r.completedAt = now.UTC()

	r.Record(event.NewModelTrained(r.id, r.modelVersion, artifactPath, evaluation.Accuracy, evaluation.F1, trainRows, testRows))
	return nil
}

// Fail marks the run as failed with the given reason.
func (r *TrainingRun) Fail(reason string, now time.Time) {
	r.status = RunStatusFailed
	r.failure = reason
	r.completedAt = now.UTC()
}

func (r *TrainingRun) ID() uuid.UUID { return r.id }
func (r *TrainingRun) ModelVersion() string { return r.modelVersion }
func (r *TrainingRun) DatasetSource() string { return r.datasetSource }
func (r *TrainingRun) Status() string { return r.status }
func (r *TrainingRun) ArtifactPath() string { return r.artifactPath }
func (r *TrainingRun) Failure() string { return r.failure }
func (r *TrainingRun) TrainRows() int { return r.trainRows }
func (r *TrainingRun) TestRows() int { return r.testRows }
func (r *TrainingRun) Evaluation() EvaluationReport { return r.evaluation }
func (r *TrainingRun) StartedAt() time.Time { return r.startedAt }
func (r *TrainingRun) CompletedAt() time.Time { return r.completedAt }
