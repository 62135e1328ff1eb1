package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrDecisionUnavailable is returned when the pipeline cannot produce a usable probability.
var ErrDecisionUnavailable = errors.New("decision unavailable")

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every out-of-range or missing field of a request.
type ValidationError struct {
	Fields []FieldError
}

// Add records a field failure.
func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

// OrNil returns nil when no field failed.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// ParseError is returned when a structured string field cannot be parsed.
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// TypeConversionError is returned when a value cannot be coerced to its feature kind.
type TypeConversionError struct {
	Field string
	Value any
	Kind  FeatureKind
}

func (e *TypeConversionError) Error() string {
	return fmt.Sprintf("cannot convert %s value %v (%T) to %s", e.Field, e.Value, e.Value, e.Kind)
}

// SchemaMismatchError lists expected columns absent from a dataset or request.
type SchemaMismatchError struct {
	Missing []string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("schema mismatch: missing columns %s", strings.Join(e.Missing, ", "))
}

// LabelMappingError lists target values outside the label polarity.
type LabelMappingError struct {
	Column string
	Labels []string
}

func (e *LabelMappingError) Error() string {
	quoted := make([]string, len(e.Labels))
	for i, l := range e.Labels {
		quoted[i] = strconv.Quote(l)
	}
	return fmt.Sprintf("unmapped %s values: %s", e.Column, strings.Join(quoted, ", "))
}

// ArtifactLoadError wraps any failure to read or validate a persisted artifact.
type ArtifactLoadError struct {
	Path string
	Err  error
}

func (e *ArtifactLoadError) Error() string {
	return fmt.Sprintf("load artifact %s: %v", e.Path, e.Err)
}

func (e *ArtifactLoadError) Unwrap() error { return e.Err }
