package shared

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	// ErrNotFound indicates the addressed record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrValidation indicates a malformed or incomplete request, rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrConstraint indicates a referential or uniqueness violation raised by the storage engine.
	ErrConstraint = errors.New("constraint violation")
	// ErrConsistency indicates ledger state that breaks a mirror or sequence invariant.
	ErrConsistency = errors.New("consistency anomaly")
)

// ValidationError carries per-field messages.
type ValidationError struct {
	Fields map[string]string
}

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: message}}
}

func (e *ValidationError) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap lets errors.Is match ErrValidation.
func (e *ValidationError) Unwrap() error { return ErrValidation }

// ConstraintError wraps a storage engine constraint violation.
type ConstraintError struct {
	Constraint string
	Message    string
}

func (e *ConstraintError) Error() string {
	if e.Constraint == "" {
		return fmt.Sprintf("%s: %s", ErrConstraint, e.Message)
	}
	return fmt.Sprintf("%s (%s): %s", ErrConstraint, e.Constraint, e.Message)
}

// Unwrap lets errors.Is match ErrConstraint.
func (e *ConstraintError) Unwrap() error { return ErrConstraint }

// FromPg converts integrity constraint violations (SQLSTATE class 23) into ConstraintError.
// Other errors are returned unchanged.
func FromPg(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && strings.HasPrefix(pgErr.Code, "23") {
		return &ConstraintError{Constraint: pgErr.ConstraintName, Message: pgErr.Message}
	}
	return err
}
