package redaction

import (
	"errors"
	"fmt"
)

// ErrUnscopedQuery is returned by Count and Delete for a query that names
// no subject email.
var ErrUnscopedQuery = errors.New("event query has no subject email")

// PolicyParseError reports a malformed policy for one user and data type.
// It is scoped to that pair; other pairs are unaffected.
type PolicyParseError struct {
	Email    string
	DataType string
	Cause    error
}

// Error implements the error interface.
func (e *PolicyParseError) Error() string {
	return fmt.Sprintf("policy parse error [email=%s, data_type=%s]: %v", e.Email, e.DataType, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *PolicyParseError) Unwrap() error {
	return e.Cause
}

// NewPolicyParseError creates a new PolicyParseError.
func NewPolicyParseError(email, dataType string, cause error) *PolicyParseError {
	return &PolicyParseError{
		Email:    email,
		DataType: dataType,
		Cause:    cause,
	}
}

// MissingPolicyError reports a time or location mode whose policy object is
// absent. Consumers treat the pair as producing no intervals.
type MissingPolicyError struct {
	Email    string
	DataType string
	Mode     Mode
}

// Error implements the error interface.
func (e *MissingPolicyError) Error() string {
	return fmt.Sprintf("missing %s policy [email=%s, data_type=%s]", e.Mode, e.Email, e.DataType)
}

// NewMissingPolicyError creates a new MissingPolicyError.
func NewMissingPolicyError(email, dataType string, mode Mode) *MissingPolicyError {
	return &MissingPolicyError{
		Email:    email,
		DataType: dataType,
		Mode:     mode,
	}
}

// StorageError represents an error from a store backend. It is fatal to a
// redaction run.
type StorageError struct {
	Backend   string // Storage backend type ("mongo", "sqlite", "memory", "file")
	Operation string // Operation that failed ("list_users", "delete", etc.)
	Cause     error  // Underlying error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [backend=%s, operation=%s]: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a new StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{
		Backend:   backend,
		Operation: operation,
		Cause:     cause,
	}
}

// RunError wraps the fatal error that ended a redaction run.
type RunError struct {
	RunID string
	Cause error
}

// Error implements the error interface.
func (e *RunError) Error() string {
	return fmt.Sprintf("redaction run %s aborted: %v", e.RunID, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *RunError) Unwrap() error {
	return e.Cause
}

// NewRunError creates a new RunError.
func NewRunError(runID string, cause error) *RunError {
	return &RunError{
		RunID: runID,
		Cause: cause,
	}
}
