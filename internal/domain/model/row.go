package model

// RawApplication is an external key/value record as received from a caller or read from a dataset.
type RawApplication map[string]any

// Value is one cell of a prepared row.
type Value struct {
	Number   float64
	Category string
	Missing  bool
}

// NumberValue builds a numeric cell.
func NumberValue(v float64) Value { return Value{Number: v} }

// CategoryValue builds a categorical cell.
func CategoryValue(s string) Value { return Value{Category: s} }

// MissingValue builds a cell the pipeline will impute.
func MissingValue() Value { return Value{Missing: true} }

// PreparedRow holds one value per schema feature, in schema order.
type PreparedRow []Value

// Dataset is a labeled table read from a training source.
type Dataset struct {
	Source  string
	Records []RawApplication
	Labels  []string
}

// Len returns the number of records.
func (d Dataset) Len() int { return len(d.Records) }
