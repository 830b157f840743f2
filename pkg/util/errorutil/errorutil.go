package errorutil

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// DomainError standardizes application errors. Every error carries an English
// and a Latvian message so clients can render either.
type DomainError struct {
	Code       string
	Message    string
	MessageLV  string
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
func NewDomainError(code, message, messageLV string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, MessageLV: messageLV, HTTPStatus: status, Details: details}
}

func NewValidationError(details map[string]any) error {
	return NewDomainError("VALIDATION_FAILED", "Validation error", "Validācijas kļūda", http.StatusBadRequest, details)
}

func NewBadRequest(message, messageLV string) error {
	return NewDomainError("BAD_REQUEST", message, messageLV, http.StatusBadRequest, nil)
}

func NewNotFound(message, messageLV string) error {
	return NewDomainError("NOT_FOUND", message, messageLV, http.StatusNotFound, nil)
}

// NewUnauthorized builds a 401 with a specific code so clients can tell a
// missing token from an expired one.
func NewUnauthorized(code, message, messageLV string) error {
	return NewDomainError(code, message, messageLV, http.StatusUnauthorized, nil)
}

func NewForbidden(message, messageLV string) error {
	return NewDomainError("FORBIDDEN", message, messageLV, http.StatusForbidden, nil)
}

func NewConflict(message, messageLV string) error {
	return NewDomainError("CONFLICT", message, messageLV, http.StatusConflict, nil)
}

func NewTooManyRequests(message, messageLV string) error {
	return NewDomainError("RATE_LIMITED", message, messageLV, http.StatusTooManyRequests, nil)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Server error",
		MessageLV:  "Servera kļūda",
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
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return &DomainError{
			Code:       codeForStatus(fiberErr.Code),
			Message:    fiberErr.Message,
			MessageLV:  fiberErr.Message,
			HTTPStatus: fiberErr.Code,
		}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Server error",
		MessageLV:  "Servera kļūda",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "BAD_REQUEST"
	case http.StatusUnauthorized:
		return "UNAUTHORIZED"
	case http.StatusForbidden:
		return "FORBIDDEN"
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return "PAYLOAD_TOO_LARGE"
	}
	if status >= http.StatusInternalServerError {
		return "INTERNAL_ERROR"
	}
	return "REQUEST_FAILED"
}
