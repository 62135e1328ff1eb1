package port

import (
	"context"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/pkg/events"
)

// FittedPipeline scores prepared rows. Each returned value is the probability of the bad class.
type FittedPipeline interface {
	PredictProba(rows []model.PreparedRow) ([]float64, error)
}

// DescribedPipeline is implemented by fitted pipelines that can report what
// they learned. Training logs it when available.
type DescribedPipeline interface {
	FittedPipeline
	FeatureNames() []string
	Converged() bool
}

// Model is a loaded, read-only artifact: a fitted pipeline plus the schema and
// provenance it was trained with. It is safe for concurrent use.
type Model interface {
	FittedPipeline
	Metadata() model.ArtifactMetadata
}

// PipelineFitter fits preprocessing and classifier on prepared training rows.
type PipelineFitter interface {
	Fit(ctx context.Context, schema model.FeatureSchema, rows []model.PreparedRow, labels []int) (FittedPipeline, error)
}

// ArtifactStore persists and loads trained pipelines.
type ArtifactStore interface {
	// Save writes the artifact atomically and returns its location.
	Save(ctx context.Context, meta model.ArtifactMetadata, pipeline FittedPipeline) (string, error)

	// Load reads the artifact. Failures are reported as *model.ArtifactLoadError.
	Load(ctx context.Context) (Model, error)
}

// DatasetSource reads labeled loan records for training.
type DatasetSource interface {
	// Name identifies the source, e.g. "csv:data/loans.csv".
	Name() string

	// Load returns the schema columns and target of every record. Absent
	// columns are reported as *model.SchemaMismatchError.
	Load(ctx context.Context, schema model.FeatureSchema, target string) (model.Dataset, error)
}

// TrainingRunRepository defines the persistence port for training runs.
type TrainingRunRepository interface {
	Save(ctx context.Context, run *model.TrainingRun) error
	FindLatest(ctx context.Context, limit int) ([]*model.TrainingRun, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}
