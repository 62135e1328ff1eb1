package event

import (
	"github.com/google/uuid"

	"github.com/bibbank/loan-approval/pkg/events"
)

// DomainEvent is an alias for the shared pkg/events.DomainEvent interface.
type DomainEvent = events.DomainEvent

const (
	// EventTypeModelTrained is emitted when a training run persists a new artifact.
	EventTypeModelTrained = "lending.model.trained"

	// EventTypeLoanDecisionMade is emitted for every decision served by the API.
	EventTypeLoanDecisionMade = "lending.decision.made"
)

// ModelTrained is raised when a training run completes.
type ModelTrained struct {
	events.BaseEvent
	ModelVersion string  `json:"model_version"`
	ArtifactPath string  `json:"artifact_path"`
	Accuracy     float64 `json:"accuracy"`
	F1           float64 `json:"f1"`
	TrainRows    int     `json:"train_rows"`
	TestRows     int     `json:"test_rows"`
}

func NewModelTrained(runID uuid.UUID, modelVersion, artifactPath string, accuracy, f1 float64, trainRows, testRows int) ModelTrained {
	return ModelTrained{
		BaseEvent:    events.NewBaseEvent(EventTypeModelTrained, runID, "TrainingRun"),
		ModelVersion: modelVersion,
		ArtifactPath: artifactPath,
		Accuracy:     accuracy,
		F1:           f1,
		TrainRows:    trainRows,
		TestRows:     testRows,
	}
}

// LoanDecisionMade is raised when an application is scored. It carries no applicant data.
type LoanDecisionMade struct {
	events.BaseEvent
	ModelVersion   string  `json:"model_version"`
	Decision       string  `json:"decision"`
	ProbabilityBad float64 `json:"probability_bad"`
	Threshold      float64 `json:"threshold"`
}

func NewLoanDecisionMade(predictionID uuid.UUID, modelVersion, decision string, probabilityBad, threshold float64) LoanDecisionMade {
	return LoanDecisionMade{
		BaseEvent:      events.NewBaseEvent(EventTypeLoanDecisionMade, predictionID, "Prediction"),
		ModelVersion:   modelVersion,
		Decision:       decision,
		ProbabilityBad: probabilityBad,
		Threshold:      threshold,
	}
}
