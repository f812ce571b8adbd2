// internal/domain/errors.go
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrInvalidDateRange is returned when the selected window ends before it
	// starts. Nothing downstream runs in that case.
	ErrInvalidDateRange = errors.New("window end date is before start date")

	// ErrMissingJoinKey is returned when a manual edit references a product
	// that is not present in the reconciled table.
	ErrMissingJoinKey = errors.New("edit references a product absent from the plan")

	// ErrNoMatchingProducts signals that the join produced an empty table.
	// It is not fatal, but callers must be able to tell it apart from a
	// legitimately empty order.
	ErrNoMatchingProducts = errors.New("no products matched between sales and purchases")

	// ErrUnknownOutlet is returned when the selected outlet appears in no
	// sales record at all.
	ErrUnknownOutlet = errors.New("outlet not present in sales data")
)

// ValidationError wraps an input-contract violation with the offending field.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid input %q: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// NewValidationError builds a ValidationError for the given field.
func NewValidationError(field string, err error) *ValidationError {
	return &ValidationError{Field: field, Err: err}
}

// RowError records a normalization failure for a single input row. Ingest
// collects every RowError instead of stopping at the first bad cell, so the
// caller can report all bad rows at once.
type RowError struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
	Value  string `json:"value"`
	Err    error  `json:"-"`
}

func (e RowError) Error() string {
	return fmt.Sprintf("row %d, column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e RowError) Unwrap() error { return e.Err }

// MarshalJSON flattens Err into a message field so API consumers see why the
// row was skipped.
func (e RowError) MarshalJSON() ([]byte, error) {
	message := ""
	if e.Err != nil {
		message = e.Err.Error()
	}
	return json.Marshal(struct {
		Row     int    `json:"row"`
		Column  string `json:"column"`
		Value   string `json:"value"`
		Message string `json:"message"`
	}{e.Row, e.Column, e.Value, message})
}
