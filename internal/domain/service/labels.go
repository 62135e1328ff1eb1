package service

import (
	"sort"
	"strings"

	"github.com/bibbank/loan-approval/internal/domain/model"
	"github.com/bibbank/loan-approval/internal/domain/valueobject"
)

// EncodeLabels maps raw target values onto classes. Every value outside the
// polarity is collected into one LabelMappingError.
func EncodeLabels(raw []string, polarity valueobject.LabelPolarity) ([]int, error) {
	encoded := make([]int, len(raw))
	unknown := map[string]struct{}{}
	for i, label := range raw {
		class, ok := polarity.Encode(label)
		if !ok {
			unknown[strings.TrimSpace(label)] = struct{}{}
			continue
		}
		encoded[i] = class
	}

	if len(unknown) > 0 {
		labels := make([]string, 0, len(unknown))
		for l := range unknown {
			labels = append(labels, l)
		}
		sort.Strings(labels)
		return nil, &model.LabelMappingError{Column: model.TargetColumn, Labels: labels}
	}
	return encoded, nil
}
