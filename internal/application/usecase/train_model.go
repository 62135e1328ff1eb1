package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/loan-approval/internal/application/dto"
	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/internal/domain/service"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// EvaluationCutoff is the probability above which a hold-out row counts as
// predicted bad when computing diagnostics. Serving uses the decision threshold instead.
const EvaluationCutoff = 0.5

// previousRunWindow bounds how far back the ledger is searched for a completed run.
const previousRunWindow = 10

// TrainModel is the offline use case that fits, evaluates and persists a pipeline.
type TrainModel struct {
	source    port.DatasetSource
	fitter    port.PipelineFitter
	store     port.ArtifactStore
	runs      port.TrainingRunRepository
	publisher port.EventPublisher
	polarity  valueobject.LabelPolarity
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewTrainModel creates the use case. runs may be nil when no ledger is kept.
func NewTrainModel(
	source port.DatasetSource,
	fitter port.PipelineFitter,
	store port.ArtifactStore,
	runs port.TrainingRunRepository,
	publisher port.EventPublisher,
	logger *slog.Logger,
) *TrainModel {
	return &TrainModel{
		source:    source,
		fitter:    fitter,
		store:     store,
		runs:      runs,
		publisher: publisher,
		polarity:  valueobject.DefaultLabelPolarity,
		logger:    logger,
		tracer:    otel.Tracer(instrumentationName),
		now:       time.Now,
	}
}

// Execute runs one training job. A failed job is still recorded in the ledger.
func (uc *TrainModel) Execute(ctx context.Context, req dto.TrainModelRequest) (dto.TrainModelResponse, error) {
	ctx, span := uc.tracer.Start(ctx, "TrainModel.Execute")
	defer span.End()

	schema := req.Schema
	if schema.Len() == 0 {
		schema = model.DefaultSchema()
	}

	run, err := model.NewTrainingRun(uc.source.Name(), uc.now())
	if err != nil {
		return dto.TrainModelResponse{}, fmt.Errorf("failed to start training run: %w", err)
	}
	span.SetAttributes(
		attribute.String("training.run_id", run.ID().String()),
		attribute.String("training.source", run.DatasetSource()),
	)
	logger := uc.logger.With("run_id", run.ID(), "model_version", run.ModelVersion())
	logger.InfoContext(ctx, "training started", "source", run.DatasetSource())
	previous := uc.previousRun(ctx, logger)

	meta, pipeline, split, err := uc.fit(ctx, logger, schema, req)
	if err != nil {
		return dto.TrainModelResponse{}, uc.fail(ctx, run, err)
	}

	meta.Version = run.ModelVersion()
	path, err := uc.store.Save(ctx, meta, pipeline)
	if err != nil {
		return dto.TrainModelResponse{}, uc.fail(ctx, run, fmt.Errorf("failed to save artifact: %w", err))
	}

	if err := run.Complete(path, len(split.Train), len(split.Test), meta.Evaluation, uc.now()); err != nil {
		return dto.TrainModelResponse{}, uc.fail(ctx, run, err)
	}
	if uc.runs != nil {
		if err := uc.runs.Save(ctx, run); err != nil {
			return dto.TrainModelResponse{}, fmt.Errorf("failed to save training run: %w", err)
		}
	}

	if events := run.ClearEvents(); len(events) > 0 {
		if err := uc.publisher.Publish(ctx, events...); err != nil {
			logger.WarnContext(ctx, "failed to publish training events", "error", err)
		}
	}

	logger.InfoContext(ctx, "training completed",
		"artifact", path,
		"accuracy", meta.Evaluation.Accuracy,
		"f1", meta.Evaluation.F1,
	)
	if previous != nil {
		logger.InfoContext(ctx, "compared with previous model",
			"previous_version", previous.ModelVersion(),
			"accuracy_delta", meta.Evaluation.Accuracy-previous.Evaluation().Accuracy,
			"f1_delta", meta.Evaluation.F1-previous.Evaluation().F1,
		)
	}
	return dto.FromTrainingRun(run), nil
}

func (uc *TrainModel) fit(
	ctx context.Context,
	logger *slog.Logger,
	schema model.FeatureSchema,
	req dto.TrainModelRequest,
) (model.ArtifactMetadata, port.FittedPipeline, service.Split, error) {
	var (
		meta  model.ArtifactMetadata
		split service.Split
	)

	ds, err := uc.source.Load(ctx, schema, model.TargetColumn)
	if err != nil {
		return meta, nil, split, fmt.Errorf("failed to load dataset: %w", err)
	}
	labels, err := service.EncodeLabels(ds.Labels, uc.polarity)
	if err != nil {
		return meta, nil, split, err
	}
	rows, err := service.NewFeaturePreparer(schema).PrepareAll(ds.Records)
	if err != nil {
		return meta, nil, split, fmt.Errorf("failed to prepare dataset: %w", err)
	}

	summary := service.Describe(schema, rows, labels)
	logger.InfoContext(ctx, "dataset loaded",
		"rows", summary.Rows,
		"good", summary.ClassCounts[valueobject.ClassGood],
		"bad", summary.ClassCounts[valueobject.ClassBad],
	)
	for _, f := range summary.Features {
		logger.DebugContext(ctx, "feature summary",
			"feature", f.Name,
			"count", f.Count,
			"missing", f.Missing,
			"mean", f.Mean,
			"std", f.Std,
			"min", f.Min,
			"max", f.Max,
		)
	}

	split, err = service.StratifiedSplit(labels, req.TestFraction, req.Seed)
	if err != nil {
		return meta, nil, split, err
	}
	trainRows, trainLabels := subset(rows, labels, split.Train)
	testRows, testLabels := subset(rows, labels, split.Test)

	pipeline, err := uc.fitter.Fit(ctx, schema, trainRows, trainLabels)
	if err != nil {
		return meta, nil, split, fmt.Errorf("failed to fit pipeline: %w", err)
	}
	if described, ok := pipeline.(port.DescribedPipeline); ok {
		logger.InfoContext(ctx, "pipeline fitted",
			"features", described.FeatureNames(),
			"converged", described.Converged(),
		)
		if !described.Converged() {
			logger.WarnContext(ctx, "classifier stopped before reaching its tolerance")
		}
	}

	proba, err := pipeline.PredictProba(testRows)
	if err != nil {
		return meta, nil, split, fmt.Errorf("failed to score hold-out set: %w", err)
	}
	report, err := service.Evaluate(testLabels, service.BinaryPredictions(proba, EvaluationCutoff), uc.polarity)
	if err != nil {
		return meta, nil, split, err
	}

	meta = model.ArtifactMetadata{
		Schema:       schema,
		Target:       model.TargetColumn,
		GoodLabel:    uc.polarity.Good(),
		BadLabel:     uc.polarity.Bad(),
		TrainedAt:    uc.now().UTC(),
		Seed:         req.Seed,
		TestFraction: req.TestFraction,
		TrainRows:    len(split.Train),
		TestRows:     len(split.Test),
		Evaluation:   report,
	}
	return meta, pipeline, split, nil
}

// previousRun returns the most recent completed run in the ledger, if any.
// Ledger read failures only cost the comparison.
func (uc *TrainModel) previousRun(ctx context.Context, logger *slog.Logger) *model.TrainingRun {
	if uc.runs == nil {
		return nil
	}
	recent, err := uc.runs.FindLatest(ctx, previousRunWindow)
	if err != nil {
		logger.WarnContext(ctx, "failed to read training ledger", "error", err)
		return nil
	}
	for _, r := range recent {
		if r.Status() == model.RunStatusCompleted {
			return r
		}
	}
	return nil
}

// fail records the failure on the run and persists it. The original error is returned.
func (uc *TrainModel) fail(ctx context.Context, run *model.TrainingRun, cause error) error {
	span := trace.SpanFromContext(ctx)
	span.RecordError(cause)
	span.SetStatus(codes.Error, cause.Error())

	run.Fail(cause.Error(), uc.now())
	uc.logger.ErrorContext(ctx, "training failed",
		"run_id", run.ID(),
		"error", cause,
	)
	if uc.runs != nil {
		if err := uc.runs.Save(ctx, run); err != nil {
			uc.logger.ErrorContext(ctx, "failed to record failed training run",
				"run_id", run.ID(),
				"error", err,
			)
		}
	}
	return cause
}

func subset(rows []model.PreparedRow, labels []int, idx []int) ([]model.PreparedRow, []int) {
	outRows := make([]model.PreparedRow, len(idx))
	outLabels := make([]int, len(idx))
	for i, j := range idx {
		outRows[i] = rows[j]
		outLabels[i] = labels[j]
	}
	return outRows, outLabels
}
