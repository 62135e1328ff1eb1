package valueobject

import "fmt"

// DefaultDecisionThreshold is the probability of default at or above which an application is rejected.
const DefaultDecisionThreshold = 0.35

// DecisionThreshold is a cut-off on the probability of the bad class.
type DecisionThreshold struct {
	value float64
}

// NewDecisionThreshold validates that t lies strictly between 0 and 1.
func NewDecisionThreshold(t float64) (DecisionThreshold, error) {
	if !(t > 0 && t < 1) {
		return DecisionThreshold{}, fmt.Errorf("decision threshold must be in (0, 1), got %v", t)
	}
	return DecisionThreshold{value: t}, nil
}

// Value returns the threshold as a float.
func (t DecisionThreshold) Value() float64 { return t.value }

// Decide approves iff probabilityBad is strictly below the threshold.
func (t DecisionThreshold) Decide(probabilityBad float64) Decision {
	if probabilityBad < t.value {
		return DecisionApproved
	}
	return DecisionRejected
}
