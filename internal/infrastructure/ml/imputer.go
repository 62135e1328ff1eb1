package ml

import (
	"fmt"
	"math"
	"sort"
)

// MedianImputer replaces missing numeric cells (NaN) with the training median of their column.
type MedianImputer struct {
	Medians []float64 `json:"medians"`
}

// Fit learns one median per column. A column with no observed value cannot be imputed.
func (m *MedianImputer) Fit(X [][]float64, names []string) error {
	if len(X) == 0 {
		return fmt.Errorf("median imputer: no rows")
	}
	cols := len(X[0])
	m.Medians = make([]float64, cols)
	for j := 0; j < cols; j++ {
		observed := make([]float64, 0, len(X))
		for i := range X {
			if !math.IsNaN(X[i][j]) {
				observed = append(observed, X[i][j])
			}
		}
		if len(observed) == 0 {
			return fmt.Errorf("median imputer: column %q has no observed values", names[j])
		}
		sort.Float64s(observed)
		n := len(observed)
		if n%2 == 1 {
			m.Medians[j] = observed[n/2]
		} else {
			m.Medians[j] = (observed[n/2-1] + observed[n/2]) / 2
		}
	}
	return nil
}

// Transform fills NaN cells in place.
func (m *MedianImputer) Transform(X [][]float64) {
	for i := range X {
		for j, v := range X[i] {
			if math.IsNaN(v) {
				X[i][j] = m.Medians[j]
			}
		}
	}
}

func (m *MedianImputer) validate(cols int) error {
	if len(m.Medians) != cols {
		return fmt.Errorf("median imputer has %d medians for %d numeric features", len(m.Medians), cols)
	}
	return checkFinite("median imputer", m.Medians)
}

// MostFrequentImputer replaces missing categorical cells ("") with the modal category.
type MostFrequentImputer struct {
	Modes []string `json:"modes"`
}

// Fit learns one mode per column. Ties go to the lexicographically smallest category.
func (m *MostFrequentImputer) Fit(X [][]string, names []string) error {
	if len(X) == 0 {
		return fmt.Errorf("most frequent imputer: no rows")
	}
	cols := len(X[0])
	m.Modes = make([]string, cols)
	for j := 0; j < cols; j++ {
		counts := map[string]int{}
		for i := range X {
			if X[i][j] != "" {
				counts[X[i][j]]++
			}
		}
		if len(counts) == 0 {
			return fmt.Errorf("most frequent imputer: column %q has no observed values", names[j])
		}

		best, bestCount := "", 0
		for cat, c := range counts {
			if c > bestCount || (c == bestCount && cat < best) {
				best, bestCount = cat, c
			}
		}
		m.Modes[j] = best
	}
	return nil
}

// Transform fills empty cells in place.
func (m *MostFrequentImputer) Transform(X [][]string) {
	for i := range X {
		for j, v := range X[i] {
			if v == "" {
				X[i][j] = m.Modes[j]
			}
		}
	}
}

func (m *MostFrequentImputer) validate(cols int) error {
	if len(m.Modes) != cols {
		return fmt.Errorf("most frequent imputer has %d modes for %d categorical features", len(m.Modes), cols)
	}
	for j, mode := range m.Modes {
		if mode == "" {
			return fmt.Errorf("most frequent imputer: column %d has no mode", j)
		}
	}
	return nil
}

// checkFinite rejects NaN and infinite parameters.
func checkFinite(step string, vs []float64) error {
	for j, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: value %d is not finite", step, j)
		}
	}
	return nil
}
