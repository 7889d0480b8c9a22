// Package shared contains common domain types, errors, events, and value objects
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation      = errors.New("validation error")
	ErrInvalidID       = errors.New("invalid ID")
	ErrInvalidInput    = errors.New("invalid input")
	ErrEmptyValue      = errors.New("value cannot be empty")
	ErrValueOutOfRange = errors.New("value out of range")

	// State errors
	ErrInvalidState = errors.New("invalid state")

	// I/O errors
	ErrStorage = errors.New("storage error")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "assignment", "phrase", "snapshot"
	Op      string // Operation that failed, e.g., "RenameHeading", "Load"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)

	origin *DomainError // sentinel this error was derived from
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok && (t == e || (e.origin != nil && t == e.origin)) {
		return true
	}
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

func (e *DomainError) root() *DomainError {
	if e.origin != nil {
		return e.origin
	}
	return e
}

// With returns a copy of a sentinel domain error carrying the underlying cause.
// errors.Is(copy, sentinel) keeps matching.
func (e *DomainError) With(err error) *DomainError {
	return &DomainError{
		Domain:  e.Domain,
		Op:      e.Op,
		Kind:    e.Kind,
		Message: e.Message,
		Err:     err,
		origin:  e.root(),
	}
}

// Detail returns a copy of a sentinel domain error with extra context appended to the message.
func (e *DomainError) Detail(format string, args ...any) *DomainError {
	return &DomainError{
		Domain:  e.Domain,
		Op:      e.Op,
		Kind:    e.Kind,
		Message: e.Message + ": " + fmt.Sprintf(format, args...),
		Err:     e.Err,
		origin:  e.root(),
	}
}

// Identifier errors
var (
	ErrInvalidIdentifier = NewDomainError("student", "NewStudentID", ErrInvalidID, "invalid student identifier")
)

// Assignment errors
var (
	ErrUnknownHeading        = NewDomainError("assignment", "Section", ErrNotFound, "unknown heading")
	ErrUnknownStudent        = NewDomainError("assignment", "Document", ErrNotFound, "unknown student")
	ErrDuplicateStudent      = NewDomainError("assignment", "AddStudent", ErrAlreadyExists, "student already exists")
	ErrDuplicateHeading      = NewDomainError("assignment", "RenameHeading", ErrAlreadyExists, "heading already exists")
	ErrBlankHeading          = NewDomainError("assignment", "RenameHeading", ErrEmptyValue, "heading cannot be blank")
	ErrBlankTitle            = NewDomainError("assignment", "New", ErrEmptyValue, "title cannot be blank")
	ErrInvalidStyle          = NewDomainError("assignment", "NewExportStyle", ErrInvalidInput, "invalid export style")
	ErrInvalidGrade          = NewDomainError("assignment", "UpdateGrade", ErrValueOutOfRange, "grade must be between 0 and 20")
	ErrPhraseNotFound        = NewDomainError("phrase", "Find", ErrNotFound, "custom phrase not found")
	ErrNotADirectory         = NewDomainError("assignment", "Create", ErrInvalidInput, "path exists and is not a directory")
	ErrAssignmentAlreadyOpen = NewDomainError("session", "Open", ErrInvalidState, "an assignment is already open")
	ErrNoAssignment          = NewDomainError("session", "Current", ErrInvalidState, "no assignment is open")
	ErrMissingDirectory      = NewDomainError("session", "CreateAssignment", ErrEmptyValue, "directory is required")
)

// Persistence errors
var (
	ErrLoadFailure = NewDomainError("snapshot", "Load", ErrStorage, "failed to load assignment")
	ErrIOFailure   = NewDomainError("snapshot", "Save", ErrStorage, "failed to write assignment")
	ErrExport      = NewDomainError("export", "ExportAll", ErrStorage, "failed to export feedback")
)

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsStorage checks if the error came from reading or writing files.
func IsStorage(err error) bool {
	return errors.Is(err, ErrStorage)
}
