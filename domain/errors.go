package domain

import (
	"errors"
	"fmt"
)

// ErrorCode represents a semantic classification shared across transport layers.
type ErrorCode string

const (
	ErrCodeNotFound       ErrorCode = "NOT_FOUND"
	ErrCodeInvalid        ErrorCode = "INVALID"
	ErrCodeDuplicateEmail ErrorCode = "DUPLICATE_EMAIL"
	ErrCodeStorage        ErrorCode = "STORAGE_FAILURE"
	ErrCodeUnauthorized   ErrorCode = "UNAUTHORIZED"
	ErrCodeInternal       ErrorCode = "INTERNAL"
)

// Error represents a domain-level error.
type Error struct {
	Code    ErrorCode
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewError builds a domain error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError wraps an existing error with a domain classification.
func WrapError(code ErrorCode, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Validation builds an INVALID error for a caller-level input problem.
func Validation(format string, args ...any) *Error {
	return NewError(ErrCodeInvalid, fmt.Sprintf(format, args...))
}

// Common domain errors.
var (
	ErrUserNotFound         = NewError(ErrCodeNotFound, "user not found")
	ErrTaskNotFound         = NewError(ErrCodeNotFound, "task not found")
	ErrNoTasksMatched       = NewError(ErrCodeNotFound, "no tasks matched")
	ErrNotificationNotFound = NewError(ErrCodeNotFound, "notification not found")
	ErrSessionNotFound      = NewError(ErrCodeNotFound, "session not found")
	ErrDuplicateEmail       = NewError(ErrCodeDuplicateEmail, "email already exists")
	ErrInvalidCredentials   = NewError(ErrCodeUnauthorized, "invalid email or password")
	ErrUnauthorized         = NewError(ErrCodeUnauthorized, "unauthorized")
	ErrInvalidPayload       = NewError(ErrCodeInvalid, "invalid payload")
)

// IsDomainError helps checking error codes.
func IsDomainError(err error, code ErrorCode) bool {
	var dErr *Error
	if errors.As(err, &dErr) {
		return dErr.Code == code
	}
	return false
}
