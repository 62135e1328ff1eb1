package ml

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each column on its mean and divides by its population standard deviation.
type StandardScaler struct {
	Mean  []float64 `json:"mean"`
	Scale []float64 `json:"scale"`
}

// Fit learns column means and scales. Constant columns get a scale of 1.
func (s *StandardScaler) Fit(X [][]float64) error {
	if len(X) == 0 {
		return fmt.Errorf("standard scaler: no rows")
	}
	cols := len(X[0])
	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)

	col := make([]float64, len(X))
	for j := 0; j < cols; j++ {
		for i := range X {
			col[i] = X[i][j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Mean[j], s.Scale[j] = mean, std
	}
	return nil
}

// Transform standardises X in place.
func (s *StandardScaler) Transform(X [][]float64) {
	for i := range X {
		for j := range X[i] {
			X[i][j] = (X[i][j] - s.Mean[j]) / s.Scale[j]
		}
	}
}

func (s *StandardScaler) validate(cols int) error {
	if len(s.Mean) != cols || len(s.Scale) != cols {
		return fmt.Errorf("standard scaler has %d means and %d scales for %d numeric features", len(s.Mean), len(s.Scale), cols)
	}
	if err := checkFinite("standard scaler mean", s.Mean); err != nil {
		return err
	}
	if err := checkFinite("standard scaler scale", s.Scale); err != nil {
		return err
	}
	for j, v := range s.Scale {
		if v <= 0 {
			return fmt.Errorf("standard scaler: scale %d is %v, must be positive", j, v)
		}
	}
	return nil
}
