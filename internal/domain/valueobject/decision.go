package valueobject

// Decision is an immutable value object representing the outcome of a loan approval prediction.
type Decision struct {
	value string
}

const (
	decisionApproved = "Approved"
	decisionRejected = "Rejected"
)

var (
	DecisionApproved = Decision{value: decisionApproved}
	DecisionRejected = Decision{value: decisionRejected}
)

// String returns the string representation.
func (d Decision) String() string {
	return d.value
}

// IsZero returns true if the decision has not been set.
func (d Decision) IsZero() bool {
	return d.value == ""
}

// Equal checks equality with another Decision.
func (d Decision) Equal(other Decision) bool {
	return d.value == other.value
}

// IsApproved returns true if the application was approved.
func (d Decision) IsApproved() bool {
	return d.value == decisionApproved
}

// IsRejected returns true if the application was rejected.
func (d Decision) IsRejected() bool {
	return d.value == decisionRejected
}
