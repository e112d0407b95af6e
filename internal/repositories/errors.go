package repositories

import (
	"errors"
	"fmt"
)

// Common repository errors
var (
	// ErrNotFound is returned when no row matched
	ErrNotFound = errors.New("entity not found")

	// ErrConflict is returned when an insert skipped every row because the
	// keys already exist
	ErrConflict = errors.New("conflict")

	// ErrInvalidColumn is returned when a column outside the whitelist is requested
	ErrInvalidColumn = errors.New("invalid column")
)

// RepositoryError represents a repository-specific error with additional context
type RepositoryError struct {
	Op      string // Operation that failed
	Entity  string // Entity type
	ID      string // Entity ID (if applicable)
	Err     error  // Underlying error
	Message string // Human-readable message
}

// Error implements the error interface
func (e *RepositoryError) Error() string {
	if e.Message != "" {
		return e.Message
	}

	if e.ID != "" {
		return fmt.Sprintf("%s %s operation failed for ID %s: %v", e.Entity, e.Op, e.ID, e.Err)
	}

	return fmt.Sprintf("%s %s operation failed: %v", e.Entity, e.Op, e.Err)
}

// Unwrap returns the underlying error
func (e *RepositoryError) Unwrap() error {
	return e.Err
}

// NewRepositoryError creates a new repository error
func NewRepositoryError(op, entity, id string, err error) *RepositoryError {
	return &RepositoryError{
		Op:     op,
		Entity: entity,
		ID:     id,
		Err:    err,
	}
}

// NotFoundError creates a "not found" repository error
func NotFoundError(op, entity, id string) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		ID:      id,
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s with ID %s not found", entity, id),
	}
}

// ConflictError creates a "conflict" repository error
func ConflictError(op, entity string, attempted int) *RepositoryError {
	return &RepositoryError{
		Op:      op,
		Entity:  entity,
		Err:     ErrConflict,
		Message: fmt.Sprintf("none of %d %s rows were inserted", attempted, entity),
	}
}

// IsNotFound checks if an error is a "not found" error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict checks if an error is a "conflict" error
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
