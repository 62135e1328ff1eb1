package usecase_test

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
	"github.com/bibbank/loan-approval/pkg/events"
)

// --- Mock implementations ---

type mockModel struct {
	meta             model.ArtifactMetadata
	calls            int
	predictProbaFunc func(rows []model.PreparedRow) ([]float64, error)
}

func (m *mockModel) PredictProba(rows []model.PreparedRow) ([]float64, error) {
	m.calls++
	if m.predictProbaFunc != nil {
		return m.predictProbaFunc(rows)
	}
	return make([]float64, len(rows)), nil
}

func (m *mockModel) Metadata() model.ArtifactMetadata {
	return m.meta
}

type mockEventPublisher struct {
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, evts ...events.DomainEvent) error
}

func (m *mockEventPublisher) Publish(ctx context.Context, evts ...events.DomainEvent) error {
	if m.publishFunc != nil {
		return m.publishFunc(ctx, evts...)
	}
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}

type mockDatasetSource struct {
	name     string
	loadFunc func(ctx context.Context, schema model.FeatureSchema, target string) (model.Dataset, error)
}

func (m *mockDatasetSource) Name() string {
	if m.name == "" {
		return "mock:loans"
	}
	return m.name
}

func (m *mockDatasetSource) Load(ctx context.Context, schema model.FeatureSchema, target string) (model.Dataset, error) {
	if m.loadFunc != nil {
		return m.loadFunc(ctx, schema, target)
	}
	return model.Dataset{}, errors.New("no dataset")
}

type mockFitter struct {
	trainRows int
	fitFunc   func(ctx context.Context, schema model.FeatureSchema, rows []model.PreparedRow, labels []int) (port.FittedPipeline, error)
}

func (m *mockFitter) Fit(ctx context.Context, schema model.FeatureSchema, rows []model.PreparedRow, labels []int) (port.FittedPipeline, error) {
	m.trainRows = len(rows)
	if m.fitFunc != nil {
		return m.fitFunc(ctx, schema, rows, labels)
	}
	return constantPipeline(0.2), nil
}

type constantPipeline float64

func (c constantPipeline) PredictProba(rows []model.PreparedRow) ([]float64, error) {
	out := make([]float64, len(rows))
	for i := range out {
		out[i] = float64(c)
	}
	return out, nil
}

// describedPipeline is a constant pipeline that reports its fit.
type describedPipeline struct {
	constantPipeline
	features  []string
	converged bool
}

func (d describedPipeline) FeatureNames() []string { return d.features }
func (d describedPipeline) Converged() bool { return d.converged }

type mockArtifactStore struct {
	savedMeta model.ArtifactMetadata
	saveFunc  func(ctx context.Context, meta model.ArtifactMetadata, pipeline port.FittedPipeline) (string, error)
}

func (m *mockArtifactStore) Save(ctx context.Context, meta model.ArtifactMetadata, pipeline port.FittedPipeline) (string, error) {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, meta, pipeline)
	}
	m.savedMeta = meta
	return "/models/loan_model.json", nil
}

func (m *mockArtifactStore) Load(_ context.Context) (port.Model, error) {
	return nil, &model.ArtifactLoadError{Path: "/models/loan_model.json", Err: errors.New("not implemented")}
}

type mockTrainingRunRepository struct {
	saved          []*model.TrainingRun
	saveFunc       func(ctx context.Context, run *model.TrainingRun) error
	findLatestFunc func(ctx context.Context, limit int) ([]*model.TrainingRun, error)
}

func (m *mockTrainingRunRepository) Save(ctx context.Context, run *model.TrainingRun) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, run)
	}
	m.saved = append(m.saved, run)
	return nil
}

func (m *mockTrainingRunRepository) FindLatest(ctx context.Context, limit int) ([]*model.TrainingRun, error) {
	if m.findLatestFunc != nil {
		return m.findLatestFunc(ctx, limit)
	}
	return m.saved, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
