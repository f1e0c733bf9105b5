package common

import (
	"errors"
	"net/http"
)

// Common error types
var (
	ErrNotFound       = errors.New("resource not found")
	ErrBadRequest     = errors.New("bad request")
	ErrInternalServer = errors.New("internal server error")
	ErrConflict       = errors.New("resource conflict")
	ErrValidation     = errors.New("validation error")
)

// Machine-readable error codes surfaced to API clients so they can react to
// expected contention outcomes without parsing messages.
const (
	CodeAlreadyParked   = "ALREADY_PARKED"
	CodeHookOccupied    = "HOOK_OCCUPIED"
	CodeHooksExhausted  = "HOOKS_EXHAUSTED"
	CodeAlreadyAssigned = "ALREADY_ASSIGNED"
	CodeDuplicateActive = "DUPLICATE_ACTIVE"
	CodeTooLate         = "TOO_LATE"
	CodeNotParked       = "NOT_PARKED"
	CodeNotReady        = "NOT_READY"
)

// AppError represents an application error with HTTP status code
type AppError struct {
	Code      int         `json:"code"`
	ErrorCode string      `json:"error_code,omitempty"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Err       error       `json:"-"`
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// NewAppError creates a new AppError
func NewAppError(code int, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func NewNotFoundError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusNotFound,
		Message: message,
		Err:     err,
	}
}

func NewBadRequestError(message string, err error) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Err:     err,
	}
}

func NewInternalServerError(message string) *AppError {
	return &AppError{
		Code:    http.StatusInternalServerError,
		Message: message,
		Err:     ErrInternalServer,
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    http.StatusBadRequest,
		Message: message,
		Err:     ErrValidation,
	}
}

// NewConflictError builds a 409 with a machine-readable code from the set
// above. Conflicts are expected under concurrent check-ins and accepts, so
// callers need the code to branch on, not just a message.
func NewConflictError(errorCode, message string) *AppError {
	return &AppError{
		Code:      http.StatusConflict,
		ErrorCode: errorCode,
		Message:   message,
		Err:       ErrConflict,
	}
}
