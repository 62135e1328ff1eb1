package ml

import (
	"fmt"
	"sort"
)

// OneHotEncoder expands each categorical column into one indicator per known
// category. Categories unseen at fit time encode as all zeros.
type OneHotEncoder struct {
	Categories [][]string `json:"categories"`
}

// Fit collects the sorted categories of every column.
func (e *OneHotEncoder) Fit(X [][]string) error {
	if len(X) == 0 {
		return fmt.Errorf("one-hot encoder: no rows")
	}
	cols := len(X[0])
	e.Categories = make([][]string, cols)
	for j := 0; j < cols; j++ {
		seen := map[string]struct{}{}
		for i := range X {
			seen[X[i][j]] = struct{}{}
		}
		cats := make([]string, 0, len(seen))
		for c := range seen {
			cats = append(cats, c)
		}
		sort.Strings(cats)
		e.Categories[j] = cats
	}
	return nil
}

// Width is the number of output columns.
func (e *OneHotEncoder) Width() int {
	w := 0
	for _, cats := range e.Categories {
		w += len(cats)
	}
	return w
}

// Encode sets the indicators of row in out, a zeroed slice of length Width.
func (e *OneHotEncoder) Encode(row []string, out []float64) {
	offset := 0
	for j, cats := range e.Categories {
		if k := sort.SearchStrings(cats, row[j]); k < len(cats) && cats[k] == row[j] {
			out[offset+k] = 1
		}
		offset += len(cats)
	}
}

// validate checks the column count and that every category list is non-empty,
// sorted and free of duplicates, which Encode's binary search relies on.
func (e *OneHotEncoder) validate(cols int) error {
	if len(e.Categories) != cols {
		return fmt.Errorf("one-hot encoder has %d category lists for %d categorical features", len(e.Categories), cols)
	}
	for j, cats := range e.Categories {
		if len(cats) == 0 {
			return fmt.Errorf("one-hot encoder: column %d has no categories", j)
		}
		for k := 1; k < len(cats); k++ {
			if cats[k-1] >= cats[k] {
				return fmt.Errorf("one-hot encoder: categories of column %d are not sorted and unique", j)
			}
		}
	}
	return nil
}
