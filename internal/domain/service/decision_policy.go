package service

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// DecisionPolicy turns a probability of default into an approval decision.
type DecisionPolicy struct {
	threshold valueobject.DecisionThreshold
	now       func() time.Time
}

// NewDecisionPolicy creates a policy for the given threshold.
func NewDecisionPolicy(threshold valueobject.DecisionThreshold) *DecisionPolicy {
	return &DecisionPolicy{threshold: threshold, now: time.Now}
}

// Threshold returns the configured cut-off.
func (p *DecisionPolicy) Threshold() float64 {
	return p.threshold.Value()
}

// Decide builds a Prediction. Probabilities outside [0, 1] are rejected rather than clamped.
func (p *DecisionPolicy) Decide(probabilityBad float64, modelVersion string) (model.Prediction, error) {
	if math.IsNaN(probabilityBad) || probabilityBad < 0 || probabilityBad > 1 {
		return model.Prediction{}, fmt.Errorf("%w: probability %v out of range", model.ErrDecisionUnavailable, probabilityBad)
	}

	return model.Prediction{
		ID:             uuid.New(),
		ModelVersion:   modelVersion,
		ProbabilityBad: probabilityBad,
		Threshold:      p.threshold.Value(),
		Decision:       p.threshold.Decide(probabilityBad),
		DecidedAt:      p.now().UTC(),
	}, nil
}
