package model

import (
	"errors"
	"fmt"
)

// ErrorCode represents a structured error code shared by the kernel and the API.
type ErrorCode string

const (
	ErrValidation ErrorCode = "VALIDATION_ERROR"
	ErrNotFound   ErrorCode = "NOT_FOUND"
	ErrConflict   ErrorCode = "CONFLICT"
	ErrInternal   ErrorCode = "INTERNAL_ERROR"
)

// APIError is a structured error returned by the kernsim API.
type APIError struct {
	Code    ErrorCode    `json:"code"`
	Message string       `json:"message"`
	Details []FieldError `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// FieldError describes a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Path    string `json:"path,omitempty"`
	Message string `json:"message"`
}

// NewValidationError creates an APIError with validation details.
func NewValidationError(msg string, details ...FieldError) *APIError {
	return &APIError{Code: ErrValidation, Message: msg, Details: details}
}

// NewNotFoundError creates a NOT_FOUND APIError.
func NewNotFoundError(resource, id string) *APIError {
	return &APIError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s '%s' not found", resource, id),
	}
}

// KernelError is returned when a driver violates a kernel precondition,
// such as naming a semaphore that was never initialized.
type KernelError struct {
	Code     ErrorCode
	Resource string // "semaphore", "mutex", "process"
	ID       int
	Message  string
}

func (e *KernelError) Error() string {
	if e.Resource == "" {
		return e.Message
	}
	return fmt.Sprintf("%s %d: %s", e.Resource, e.ID, e.Message)
}

// Is matches any KernelError carrying the same code, so the sentinels below
// work with errors.Is regardless of resource and id.
func (e *KernelError) Is(target error) bool {
	t, ok := target.(*KernelError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks against kernel failures.
var (
	ErrUnknownResource = &KernelError{Code: ErrNotFound, Message: "unknown resource"}
	ErrAlreadyExists   = &KernelError{Code: ErrConflict, Message: "resource already exists"}
	ErrInvalidArgument = &KernelError{Code: ErrValidation, Message: "invalid argument"}
)

// UnknownResource builds a NOT_FOUND KernelError for the given registry.
func UnknownResource(resource string, id int) *KernelError {
	return &KernelError{Code: ErrNotFound, Resource: resource, ID: id, Message: "unknown resource"}
}

// AlreadyExists builds a CONFLICT KernelError for the given registry.
func AlreadyExists(resource string, id int) *KernelError {
	return &KernelError{Code: ErrConflict, Resource: resource, ID: id, Message: "already initialized"}
}

// InvalidArgument builds a VALIDATION_ERROR KernelError.
func InvalidArgument(resource string, id int, msg string) *KernelError {
	return &KernelError{Code: ErrValidation, Resource: resource, ID: id, Message: msg}
}

// ToAPIError converts err into an APIError, keeping the kernel error code when present.
func ToAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	var kerr *KernelError
	if errors.As(err, &kerr) {
		return &APIError{Code: kerr.Code, Message: err.Error()}
	}
	return &APIError{Code: ErrInternal, Message: err.Error()}
}
