package errors

import (
	"errors"
	"fmt"
)

// Domain-specific error types
var (
	// ErrNotFound indicates a resource was not found
	ErrNotFound = errors.New("resource not found")

	// ErrDuplicateEntry indicates a unique constraint violation
	ErrDuplicateEntry = errors.New("duplicate entry")

	// ErrInvalidInput indicates invalid input data
	ErrInvalidInput = errors.New("invalid input")

	// ErrUserNotFound indicates the user was not found
	ErrUserNotFound = errors.New("user not found")

	// ErrRecipientNotFound indicates the recipient was not found
	ErrRecipientNotFound = errors.New("recipient not found")

	// ErrMessageNotFound indicates the message was not found
	ErrMessageNotFound = errors.New("message not found")

	// ErrSendingNotFound indicates the sending was not found
	ErrSendingNotFound = errors.New("sending not found")

	// ErrUnauthorized indicates unauthorized access
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates forbidden access
	ErrForbidden = errors.New("forbidden")

	// ErrInternal indicates an internal server error
	ErrInternal = errors.New("internal server error")

	// Sending engine errors

	// ErrMissingCompany indicates a sending has no resolvable company at persist time
	ErrMissingCompany = errors.New("sending has no resolvable company")

	// ErrInvalidFrequency indicates a frequency outside daily, weekly and monthly
	ErrInvalidFrequency = errors.New("invalid sending frequency")

	// ErrInvalidStatus indicates a status outside created, launched and completed
	ErrInvalidStatus = errors.New("invalid sending status")

	// ErrLetterRequired indicates a launched sending has no letter to deliver
	ErrLetterRequired = errors.New("sending has no letter")

	// ErrTransport indicates the mail transport rejected a message
	ErrTransport = errors.New("mail transport failed")

	// ErrDispatchInProgress indicates another dispatch holds the sending's lock
	ErrDispatchInProgress = errors.New("dispatch already in progress")
)

// Error codes for API responses
const (
	CodeNotFound           = "NOT_FOUND"
	CodeDuplicateEntry     = "DUPLICATE_ENTRY"
	CodeInvalidInput       = "INVALID_INPUT"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeInternalError      = "INTERNAL_ERROR"
	CodeMissingCompany     = "MISSING_COMPANY"
	CodeInvalidFrequency   = "INVALID_FREQUENCY"
	CodeInvalidStatus      = "INVALID_STATUS"
	CodeLetterRequired     = "LETTER_REQUIRED"
	CodeTransportError     = "TRANSPORT_ERROR"
	CodeDispatchInProgress = "DISPATCH_IN_PROGRESS"
)

// AppError represents an application error with context
type AppError struct {
	Err     error
	Message string
	Code    string
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewAppError creates a new AppError
func NewAppError(err error, message string, code string) *AppError {
	return &AppError{
		Err:     err,
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an error with additional context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// IsNotFound checks if the error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrUserNotFound) ||
		errors.Is(err, ErrRecipientNotFound) ||
		errors.Is(err, ErrMessageNotFound) ||
		errors.Is(err, ErrSendingNotFound)
}

// IsDuplicateEntry checks if the error is a duplicate entry error
func IsDuplicateEntry(err error) bool {
	return errors.Is(err, ErrDuplicateEntry)
}

// IsInvalidInput checks if the error is an invalid input error
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsSchedulingError checks if the error came from sending scheduling
func IsSchedulingError(err error) bool {
	return errors.Is(err, ErrMissingCompany) || errors.Is(err, ErrInvalidFrequency)
}

// GetErrorCode returns the appropriate error code for an error
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Code != "" {
		return appErr.Code
	}

	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsDuplicateEntry(err):
		return CodeDuplicateEntry
	case IsInvalidInput(err):
		return CodeInvalidInput
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.Is(err, ErrForbidden):
		return CodeForbidden
	case errors.Is(err, ErrMissingCompany):
		return CodeMissingCompany
	case errors.Is(err, ErrInvalidFrequency):
		return CodeInvalidFrequency
	case errors.Is(err, ErrInvalidStatus):
		return CodeInvalidStatus
	case errors.Is(err, ErrLetterRequired):
		return CodeLetterRequired
	case errors.Is(err, ErrTransport):
		return CodeTransportError
	case errors.Is(err, ErrDispatchInProgress):
		return CodeDispatchInProgress
	default:
		return CodeInternalError
	}
}
