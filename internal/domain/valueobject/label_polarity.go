package valueobject

import (
	"fmt"
	"strings"
)

// Class indices used by the classifier. The bad outcome is the positive class,
// so every probability produced by a pipeline is the probability of default.
const (
	ClassGood = 0
	ClassBad  = 1
)

// LabelPolarity maps the raw outcome labels of the loan book onto classifier classes.
type LabelPolarity struct {
	good string
	bad  string
}

// DefaultLabelPolarity treats fully paid loans as good and charged off loans as bad.
var DefaultLabelPolarity = LabelPolarity{good: "Fully Paid", bad: "Charged Off"}

// NewLabelPolarity creates a LabelPolarity from the good and bad outcome labels.
func NewLabelPolarity(good, bad string) (LabelPolarity, error) {
	good, bad = strings.TrimSpace(good), strings.TrimSpace(bad)
	if good == "" || bad == "" {
		return LabelPolarity{}, fmt.Errorf("label polarity requires both a good and a bad label")
	}
	if good == bad {
		return LabelPolarity{}, fmt.Errorf("good and bad labels must differ, both are %q", good)
	}
	return LabelPolarity{good: good, bad: bad}, nil
}

// Good returns the label of the good outcome.
func (p LabelPolarity) Good() string { return p.good }

// Bad returns the label of the bad outcome.
func (p LabelPolarity) Bad() string { return p.bad }

// Encode maps a raw label onto its class index. Surrounding whitespace is ignored.
func (p LabelPolarity) Encode(label string) (int, bool) {
	switch strings.TrimSpace(label) {
	case p.good:
		return ClassGood, true
	case p.bad:
		return ClassBad, true
	default:
		return 0, false
	}
}

// Decode maps a class index back to its raw label.
func (p LabelPolarity) Decode(class int) string {
	if class == ClassBad {
		return p.bad
	}
	return p.good
}
