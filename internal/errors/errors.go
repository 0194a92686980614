// Package errors provides centralized error definitions and error handling utilities
// for the maintenance tracker. It defines the task error taxonomy, semantic error
// types, error constructors with context wrapping, and error classification helpers.
//
// # Error Types
//
// Semantic errors represent common error conditions:
//   - NotFoundError: a referenced task does not exist
//   - AlreadyExistsError: a task with the same id already exists
//   - LockedError: a task is held by a different owner
//   - ValidationError: invalid input rejected by the command layer
//
// Domain errors carry subsystem context:
//   - PersistError: the durable backend failed to store the task document
//
// # Usage
//
// Creating errors:
//
//	err := errors.NewNotFoundError("task", "vacuum_stairs")
//	err := errors.NewLockedError("vacuum_stairs", "alice")
//	err := errors.NewPersistError("file", cause)
//
// Checking errors:
//
//	if errors.Is(err, errors.ErrTaskLocked) { ... }
//
//	var locked *errors.LockedError
//	if errors.As(err, &locked) {
//	    fmt.Println("held by", locked.Holder)
//	}
//
// # Error Classification
//
// Errors can be classified by severity and behavior:
//   - Retryable: transient errors that may succeed on retry (persistence failures)
//   - UserFacing: errors safe to display to users (vs internal errors)
//   - Severity: Debug, Info, Warning, Error, Critical
//
// The HTTP API masks messages that are not user facing and logs each
// failed request at its severity.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Severity represents the severity level of an error.
type Severity int

const (
	// SeverityDebug is for errors that are useful for debugging but not critical.
	SeverityDebug Severity = iota
	// SeverityInfo is for informational errors that don't indicate a problem.
	SeverityInfo
	// SeverityWarning is for errors that might indicate a problem but aren't critical.
	SeverityWarning
	// SeverityError is for errors that indicate a real problem.
	SeverityError
	// SeverityCritical is for errors that require immediate attention.
	SeverityCritical
)

// String returns the string representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityCritical:
		return "critical"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Task sentinel errors
var (
	// ErrTaskNotFound indicates that an operation referenced an unknown task id.
	ErrTaskNotFound = New("task not found")
	// ErrTaskExists indicates that a task with the given id already exists.
	ErrTaskExists = New("task already exists")
	// ErrTaskLocked indicates that a task is locked by a different owner.
	ErrTaskLocked = New("task is locked")
	// ErrInvalidState indicates a task record whose status, lock and timer
	// fields disagree with each other.
	ErrInvalidState = New("invalid task state")
)

// Storage sentinel errors
var (
	// ErrPersist indicates that the task document could not be written.
	ErrPersist = New("failed to persist tasks")
	// ErrNoDocument indicates that the backend holds no document yet.
	ErrNoDocument = New("no stored document")
)

// General sentinel errors
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = New("invalid input")
)

// -----------------------------------------------------------------------------
// Base Error Interface
// -----------------------------------------------------------------------------

// TrackerError is the base interface for all tracker errors.
// It extends the standard error interface with additional methods for
// error handling and classification.
type TrackerError interface {
	error

	// Unwrap returns the underlying error, if any.
	Unwrap() error

	// Is reports whether this error matches the target error.
	// This is used by errors.Is() for error comparison.
	Is(target error) bool

	// Severity returns the severity level of this error.
	Severity() Severity

	// IsRetryable returns true if the error is transient and the operation
	// may succeed on retry.
	IsRetryable() bool

	// IsUserFacing returns true if the error message is safe to display
	// to end users.
	IsUserFacing() bool
}

// -----------------------------------------------------------------------------
// Base Error Implementation
// -----------------------------------------------------------------------------

// baseError provides common functionality for all error types.
type baseError struct {
	message    string
	cause      error
	severity   Severity
	retryable  bool
	userFacing bool
}

// Error returns the error message.
func (e *baseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.message, e.cause)
	}
	return e.message
}

// Unwrap returns the underlying error.
func (e *baseError) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target.
func (e *baseError) Is(target error) bool {
	if e.cause != nil {
		return errors.Is(e.cause, target)
	}
	return false
}

// Severity returns the error severity.
func (e *baseError) Severity() Severity {
	return e.severity
}

// IsRetryable returns whether the error is retryable.
func (e *baseError) IsRetryable() bool {
	return e.retryable
}

// IsUserFacing returns whether the error is safe to show users.
func (e *baseError) IsUserFacing() bool {
	return e.userFacing
}

// -----------------------------------------------------------------------------
// Domain-Specific Errors
// -----------------------------------------------------------------------------

// PersistError represents a failure to write the task document to its
// durable backend. The operation that triggered the write is not committed.
// Its message carries backend detail, so it is not user facing.
//
// Example:
//
//	err := errors.NewPersistError("sqlite", cause).WithKey("maintenance_db_home")
//	fmt.Println(err) // "persist error [backend=sqlite, key=maintenance_db_home]: failed to persist tasks: disk I/O error"
type PersistError struct {
	baseError
	Backend string
	Key     string
}

// NewPersistError creates a new PersistError for the named backend.
func NewPersistError(backend string, cause error) *PersistError {
	return &PersistError{
		baseError: baseError{
			message:    ErrPersist.Error(),
			cause:      cause,
			severity:   SeverityError,
			retryable:  true,
			userFacing: false,
		},
		Backend: backend,
	}
}

// WithKey adds the document key to the error context.
func (e *PersistError) WithKey(key string) *PersistError {
	e.Key = key
	return e
}

// Error returns the formatted error message.
func (e *PersistError) Error() string {
	var parts []string
	if e.Backend != "" {
		parts = append(parts, fmt.Sprintf("backend=%s", e.Backend))
	}
	if e.Key != "" {
		parts = append(parts, fmt.Sprintf("key=%s", e.Key))
	}

	prefix := "persist error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("persist error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *PersistError) Is(target error) bool {
	if _, ok := target.(*PersistError); ok {
		return true
	}
	if target == ErrPersist {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Semantic Errors
// -----------------------------------------------------------------------------

// NotFoundError represents a resource that could not be found.
//
// Example:
//
//	err := errors.NewNotFoundError("task", "mop_floor")
//	fmt.Println(err) // "task 'mop_floor' not found"
type NotFoundError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewNotFoundError creates a new NotFoundError.
func NewNotFoundError(resourceType, resourceID string) *NotFoundError {
	return &NotFoundError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' not found", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *NotFoundError) WithCause(cause error) *NotFoundError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *NotFoundError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' not found: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' not found", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target. A task NotFoundError also
// matches ErrTaskNotFound.
func (e *NotFoundError) Is(target error) bool {
	if _, ok := target.(*NotFoundError); ok {
		return true
	}
	if target == ErrTaskNotFound && e.ResourceType == "task" {
		return true
	}
	return e.baseError.Is(target)
}

// AlreadyExistsError represents a resource that already exists.
//
// Example:
//
//	err := errors.NewAlreadyExistsError("task", "clean_gutters")
//	fmt.Println(err) // "task 'clean_gutters' already exists"
type AlreadyExistsError struct {
	baseError
	ResourceType string
	ResourceID   string
}

// NewAlreadyExistsError creates a new AlreadyExistsError.
func NewAlreadyExistsError(resourceType, resourceID string) *AlreadyExistsError {
	return &AlreadyExistsError{
		baseError: baseError{
			message:    fmt.Sprintf("%s '%s' already exists", resourceType, resourceID),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
}

// WithCause adds a cause to the error.
func (e *AlreadyExistsError) WithCause(cause error) *AlreadyExistsError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *AlreadyExistsError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s '%s' already exists: %v", e.ResourceType, e.ResourceID, e.cause)
	}
	return fmt.Sprintf("%s '%s' already exists", e.ResourceType, e.ResourceID)
}

// Is checks if this error matches the target. A task AlreadyExistsError
// also matches ErrTaskExists.
func (e *AlreadyExistsError) Is(target error) bool {
	if _, ok := target.(*AlreadyExistsError); ok {
		return true
	}
	if target == ErrTaskExists && e.ResourceType == "task" {
		return true
	}
	return e.baseError.Is(target)
}

// LockedError represents an operation rejected because another owner
// holds the task.
//
// Example:
//
//	err := errors.NewLockedError("mow_lawn", "alice")
//	fmt.Println(err) // "task 'mow_lawn' is locked by alice"
type LockedError struct {
	baseError
	TaskID string
	Holder string
}

// NewLockedError creates a new LockedError.
func NewLockedError(taskID, holder string) *LockedError {
	return &LockedError{
		baseError: baseError{
			message:    fmt.Sprintf("task '%s' is locked by %s", taskID, holder),
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
		TaskID: taskID,
		Holder: holder,
	}
}

// Error returns the formatted error message.
func (e *LockedError) Error() string {
	return fmt.Sprintf("task '%s' is locked by %s", e.TaskID, e.Holder)
}

// Is checks if this error matches the target.
func (e *LockedError) Is(target error) bool {
	if _, ok := target.(*LockedError); ok {
		return true
	}
	if target == ErrTaskLocked {
		return true
	}
	return e.baseError.Is(target)
}

// ValidationError represents invalid input or state.
//
// Example:
//
//	err := errors.NewValidationError("must be a slug").WithField("task_id").WithValue("Mop Floor")
type ValidationError struct {
	baseError
	Field string
	Value any
}

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{
		baseError: baseError{
			message:    message,
			severity:   SeverityWarning,
			retryable:  false,
			userFacing: true,
		},
	}
}

// WithField adds a field name to the error context.
func (e *ValidationError) WithField(field string) *ValidationError {
	e.Field = field
	return e
}

// WithValue adds the invalid value to the error context.
func (e *ValidationError) WithValue(value any) *ValidationError {
	e.Value = value
	return e
}

// WithCause adds a cause to the error.
func (e *ValidationError) WithCause(cause error) *ValidationError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *ValidationError) Error() string {
	var parts []string
	if e.Field != "" {
		parts = append(parts, fmt.Sprintf("field=%s", e.Field))
	}
	if e.Value != nil {
		parts = append(parts, fmt.Sprintf("value=%v", e.Value))
	}

	prefix := "validation error"
	if len(parts) > 0 {
		prefix = fmt.Sprintf("validation error [%s]", strings.Join(parts, ", "))
	}

	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.message, e.cause)
	}
	return fmt.Sprintf("%s: %s", prefix, e.message)
}

// Is checks if this error matches the target.
func (e *ValidationError) Is(target error) bool {
	if _, ok := target.(*ValidationError); ok {
		return true
	}
	if target == ErrInvalidInput {
		return true
	}
	return e.baseError.Is(target)
}

// -----------------------------------------------------------------------------
// Error Classification Helpers
// -----------------------------------------------------------------------------

// IsRetryable returns true if the error represents a transient condition
// that may succeed on retry. Persistence failures are retryable because the
// store rolls back its in-memory state before returning them.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var trackerErr TrackerError
	if As(err, &trackerErr) {
		return trackerErr.IsRetryable()
	}

	return Is(err, ErrPersist)
}

// IsUserFacing returns true if the error message is safe to display to end users.
//
// Example:
//
//	if errors.IsUserFacing(err) {
//	    fmt.Fprintln(os.Stderr, err)
//	} else {
//	    fmt.Fprintln(os.Stderr, "internal error")
//	    logger.Error("internal error", "error", err)
//	}
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}

	var trackerErr TrackerError
	if As(err, &trackerErr) {
		return trackerErr.IsUserFacing()
	}

	return false
}

// GetSeverity returns the severity level of the error.
// Returns SeverityError for errors that don't implement TrackerError.
func GetSeverity(err error) Severity {
	if err == nil {
		return SeverityDebug
	}

	var trackerErr TrackerError
	if As(err, &trackerErr) {
		return trackerErr.Severity()
	}

	return SeverityError
}

// -----------------------------------------------------------------------------
// Convenience Constructors
// -----------------------------------------------------------------------------

// Wrap wraps an error with additional context message.
// Unlike fmt.Errorf with %w, this returns nil for a nil error.
//
// Example:
//
//	err := errors.Wrap(baseErr, "failed to load tasks")
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted context message.
//
// Example:
//
//	err := errors.Wrapf(baseErr, "failed to start task %s", taskID)
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
