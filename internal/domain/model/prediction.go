package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// Prediction is the outcome of scoring one application.
type Prediction struct {
	ID             uuid.UUID
	ModelVersion   string
	ProbabilityBad float64
	Threshold      float64
	Decision       valueobject.Decision
	DecidedAt      time.Time
}

// ClassLabel is the class implied by the decision threshold, not by the classifier's own cut-off.
func (p Prediction) ClassLabel() int {
	if p.Decision.IsApproved() {
		return valueobject.ClassGood
	}
	return valueobject.ClassBad
}

// Confidence is the probability of the returned decision being the true outcome.
func (p Prediction) Confidence() float64 {
	if p.Decision.IsApproved() {
		return 1 - p.ProbabilityBad
	}
	return p.ProbabilityBad
}
