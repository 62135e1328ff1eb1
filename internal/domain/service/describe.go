package service

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/bibbank/loan-approval/internal/domain/model"
)

// FeatureSummary describes the observed values of one numeric feature.
type FeatureSummary struct {
	Name    string
	Count   int
	Missing int
	Mean    float64
	Std     float64
	Min     float64
	Max     float64
}

// DatasetSummary is logged before fitting so the operator can sanity check the input.
type DatasetSummary struct {
	Rows        int
	Features    []FeatureSummary
	ClassCounts map[int]int
}

// Describe summarises numeric features and the class balance of a prepared dataset.
func Describe(schema model.FeatureSchema, rows []model.PreparedRow, labels []int) DatasetSummary {
	summary := DatasetSummary{Rows: len(rows), ClassCounts: map[int]int{}}
	for _, y := range labels {
		summary.ClassCounts[y]++
	}

	for _, col := range schema.NumericIndices() {
		fs := FeatureSummary{Name: schema.Features[col].Name}
		values := make([]float64, 0, len(rows))
		for _, row := range rows {
			if row[col].Missing {
				fs.Missing++
				continue
			}
			values = append(values, row[col].Number)
		}
		fs.Count = len(values)
		if len(values) > 0 {
			fs.Min = floats.Min(values)
			fs.Max = floats.Max(values)
			fs.Mean, fs.Std = stat.MeanStdDev(values, nil)
		}
		summary.Features = append(summary.Features, fs)
	}
	return summary
}
