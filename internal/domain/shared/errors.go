package shared

import "errors"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause, if any
func (e *DomainError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a DomainError with the same code.
// This lets callers match sentinels even when the message was customised.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// WithMessage returns a copy of the error carrying a more specific message
func (e *DomainError) WithMessage(message string) *DomainError {
	return &DomainError{Code: e.Code, Message: message, cause: e.cause}
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes shared by every bounded context
const (
	CodeNotFound            = "NOT_FOUND"
	CodeAlreadyExists       = "ALREADY_EXISTS"
	CodeInvalidInput        = "INVALID_INPUT"
	CodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidState        = "INVALID_STATE"
	CodeInsufficientBalance = "INSUFFICIENT_BALANCE"
	CodeUnverifiedAccount   = "UNVERIFIED_ACCOUNT"
	CodeInvalidTransition   = "INVALID_TRANSITION"
	CodeDuplicateKey        = "DUPLICATE_KEY"
	CodeStorage             = "STORAGE_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists       = NewDomainError(CodeAlreadyExists, "Resource already exists")
	ErrInvalidInput        = NewDomainError(CodeInvalidInput, "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrUnauthorized        = NewDomainError(CodeUnauthorized, "Not authorized to perform this action")
	ErrForbidden           = NewDomainError(CodeForbidden, "Access to this resource is forbidden")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrInsufficientBalance = NewDomainError(CodeInsufficientBalance, "Insufficient balance for this transaction")
	ErrUnverifiedAccount   = NewDomainError(CodeUnverifiedAccount, "Account e-mail is not verified")
	ErrInvalidTransition   = NewDomainError(CodeInvalidTransition, "Status transition is not allowed")
	ErrDuplicateKey        = NewDomainError(CodeDuplicateKey, "A record with the same key already exists")
	ErrStorage             = NewDomainError(CodeStorage, "Storage temporarily unavailable, please retry")
)

// NewStorageError wraps an infrastructure failure. The cause stays available
// through errors.Unwrap for logging but is never part of the message.
func NewStorageError(cause error) *DomainError {
	return &DomainError{
		Code:    CodeStorage,
		Message: ErrStorage.Message,
		cause:   cause,
	}
}

// AsStorageError passes domain errors through untouched and wraps anything
// else as a storage error.
func AsStorageError(err error) error {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return err
	}
	return NewStorageError(err)
}

// IsDomainError reports whether err carries a DomainError
func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}
