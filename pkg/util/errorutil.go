package util

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Error codes for the gateway's failure taxonomy.
const (
	CodeMissingCredential     = "MISSING_CREDENTIAL"
	CodeMalformedCredential   = "MALFORMED_CREDENTIAL"
	CodeInvalidOrExpiredToken = "INVALID_OR_EXPIRED_TOKEN"
	CodeInvalidSignature      = "INVALID_SIGNATURE"
	CodeRegistrationFailed    = "REGISTRATION_FAILED"
	CodeAccountNotFound       = "ACCOUNT_NOT_FOUND"
	CodeTimeout               = "TIMEOUT"
	CodeExternalStoreFailure  = "EXTERNAL_STORE_FAILURE"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodeInternalError         = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

// NewUnauthorized builds a 401 carrying the given taxonomy code. Every
// authentication-path rejection at the gateway boundary goes through
// here so the client only ever sees the status, not which check failed.
func NewUnauthorized(code, message string) error {
	return NewDomainError(code, message, http.StatusUnauthorized, nil)
}

func NewRegistrationFailed(err error) error {
	return &DomainError{
		Code:       CodeRegistrationFailed,
		Message:    "registration failed",
		HTTPStatus: http.StatusBadRequest,
		Err:        err,
	}
}

func NewAccountNotFound(userID string) error {
	return &DomainError{
		Code:       CodeAccountNotFound,
		Message:    "account not found",
		HTTPStatus: http.StatusUnauthorized,
		Details:    map[string]any{"userId": userID},
	}
}

func NewTimeout(op string, err error) error {
	return &DomainError{
		Code:       CodeTimeout,
		Message:    fmt.Sprintf("%s timed out", op),
		HTTPStatus: http.StatusGatewayTimeout,
		Err:        err,
	}
}

func NewExternalStoreFailure(op string, err error) error {
	return &DomainError{
		Code:       CodeExternalStoreFailure,
		Message:    fmt.Sprintf("%s failed", op),
		HTTPStatus: http.StatusBadGateway,
		Err:        err,
	}
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	if errors.Is(err, context.DeadlineExceeded) {
		if de, ok := NewTimeout("operation", err).(*DomainError); ok {
			return de
		}
	}
	if de, ok := NewInternalError(err).(*DomainError); ok {
		return de
	}
	return &DomainError{
		Code:       CodeInternalError,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func MapError(err error) error {
	return ToDomainError(err)
}
