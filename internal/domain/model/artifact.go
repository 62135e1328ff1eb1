package model

import (
	"fmt"
	"time"
)

// ClassMetrics is one row of a classification report.
type ClassMetrics struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// EvaluationReport holds hold-out diagnostics of a training run.
type EvaluationReport struct {
	Accuracy float64        `json:"accuracy"`
	F1       float64        `json:"f1"`
	Classes  []ClassMetrics `json:"classes"`
}

// ArtifactMetadata describes a persisted pipeline: what it expects and how it was trained.
type ArtifactMetadata struct {
	Version      string           `json:"version"`
	Schema       FeatureSchema    `json:"schema"`
	Target       string           `json:"target"`
	GoodLabel    string           `json:"good_label"`
	BadLabel     string           `json:"bad_label"`
	TrainedAt    time.Time        `json:"trained_at"`
	Seed         int64            `json:"seed"`
	TestFraction float64          `json:"test_fraction"`
	TrainRows    int              `json:"train_rows"`
	TestRows     int              `json:"test_rows"`
	Evaluation   EvaluationReport `json:"evaluation"`
}

// Validate checks the fields inference depends on.
func (m ArtifactMetadata) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("artifact version is required")
	}
	if _, err := NewFeatureSchema(m.Schema.Features...); err != nil {
		return fmt.Errorf("artifact schema: %w", err)
	}
	if m.Target == "" {
		return fmt.Errorf("artifact target is required")
	}
	return nil
}
