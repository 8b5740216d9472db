package dataprocessing

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for structural input problems
var (
	ErrMissingColumn  = errors.New("missing description column")
	ErrAmbiguousShape = errors.New("ambiguous table shape")
)

// MissingColumnError is returned when the input does not have exactly one description column
type MissingColumnError struct {
	Column  string
	Found   int
	Columns []string
}

// Error implements the error interface
func (e *MissingColumnError) Error() string {
	if e.Found > 1 {
		return fmt.Sprintf("input must contain exactly one %q column (case-insensitive), found %d", e.Column, e.Found)
	}
	return fmt.Sprintf("input must contain a %q column (case-insensitive); columns: [%s]", e.Column, strings.Join(e.Columns, ", "))
}

// Unwrap allows errors.Is(err, ErrMissingColumn)
func (e *MissingColumnError) Unwrap() error {
	return ErrMissingColumn
}

// AmbiguousShapeError is returned when a long-format table lacks a date or value column
type AmbiguousShapeError struct {
	Columns      []string
	MissingDate  bool
	MissingValue bool
}

// Error implements the error interface
func (e *AmbiguousShapeError) Error() string {
	var missing []string
	if e.MissingDate {
		missing = append(missing, "date")
	}
	if e.MissingValue {
		missing = append(missing, "value")
	}
	return fmt.Sprintf("cannot determine table shape: no %s column among [%s]",
		strings.Join(missing, " or "), strings.Join(e.Columns, ", "))
}

// Unwrap allows errors.Is(err, ErrAmbiguousShape)
func (e *AmbiguousShapeError) Unwrap() error {
	return ErrAmbiguousShape
}
