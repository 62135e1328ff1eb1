package ml

import (
	"context"
	"fmt"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/port"
)

// Defaults mirror the classifier settings the loan book model has always been trained with.
const (
	DefaultC       = 1.0
	DefaultMaxIter = 2000
)

// Pipeline is a fitted preprocessing stage followed by a classifier. It is
// read-only after fitting and safe for concurrent PredictProba calls.
type Pipeline struct {
	Transformer *ColumnTransformer  `json:"transformer"`
	Classifier  *LogisticRegression `json:"classifier"`
}

var _ port.DescribedPipeline = (*Pipeline)(nil)

// PredictProba returns the probability of the bad class for every row.
func (p *Pipeline) PredictProba(rows []model.PreparedRow) ([]float64, error) {
	X, err := p.Transformer.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("transform: %w", err)
	}
	return p.Classifier.PredictProba(X)
}

// FeatureNames labels the columns the classifier was fitted on.
func (p *Pipeline) FeatureNames() []string { return p.Transformer.FeatureNames() }

// Converged reports whether the classifier reached its gradient tolerance.
func (p *Pipeline) Converged() bool { return p.Classifier.Converged() }

// Validate checks that the stages fit together and hold usable parameters.
func (p *Pipeline) Validate() error {
	if p.Transformer == nil || p.Classifier == nil {
		return fmt.Errorf("pipeline is missing a stage")
	}
	if err := p.Transformer.Validate(); err != nil {
		return err
	}
	return p.Classifier.validate(p.Transformer.Width())
}

// Trainer fits Pipelines. It implements port.PipelineFitter.
type Trainer struct {
	c       float64
	maxIter int
}

var _ port.PipelineFitter = (*Trainer)(nil)

// NewTrainer creates a Trainer with the given regularisation strength and iteration cap.
func NewTrainer(c float64, maxIter int) *Trainer {
	return &Trainer{c: c, maxIter: maxIter}
}

// Fit learns preprocessing on rows and then the classifier on the transformed matrix.
func (t *Trainer) Fit(ctx context.Context, schema model.FeatureSchema, rows []model.PreparedRow, labels []int) (port.FittedPipeline, error) {
	transformer, err := FitColumnTransformer(schema, rows)
	if err != nil {
		return nil, fmt.Errorf("fit preprocessing: %w", err)
	}
	X, err := transformer.Transform(rows)
	if err != nil {
		return nil, fmt.Errorf("transform training rows: %w", err)
	}

	classifier := NewLogisticRegression(t.c, t.maxIter)
	if err := classifier.Fit(ctx, X, labels); err != nil {
		return nil, fmt.Errorf("fit classifier: %w", err)
	}
	return &Pipeline{Transformer: transformer, Classifier: classifier}, nil
}
