package services

import (
	"errors"
	"fmt"
)

// ErrorKind classifies service failures for the transport layer
type ErrorKind int

const (
	KindAuthorizationDenied ErrorKind = iota + 1
	KindValidationFailed
	KindStorageUnavailable
	KindNotFound
	KindConflict
)

func (k ErrorKind) String() string {
	switch k {
	case KindAuthorizationDenied:
		return "authorization_denied"
	case KindValidationFailed:
		return "validation_failed"
	case KindStorageUnavailable:
		return "storage_unavailable"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	default:
		return "unknown"
	}
}

// ServiceError is returned by every service operation that fails for a
// reason the caller can act on
type ServiceError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// deniedMessage is shared by every denial so callers cannot tell a missing
// listing from a forbidden one
const deniedMessage = "You do not have access to this conversation"

// ErrAccessDenied creates the uniform authorization failure
func ErrAccessDenied() *ServiceError {
	return &ServiceError{Kind: KindAuthorizationDenied, Code: "FORBIDDEN", Message: deniedMessage}
}

// NewValidationError creates a validation failure
func NewValidationError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindValidationFailed, Code: code, Message: message}
}

// NewNotFoundError creates a not-found failure
func NewNotFoundError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindNotFound, Code: code, Message: message}
}

// NewStorageError wraps a transient store failure
func NewStorageError(message string, err error) *ServiceError {
	return &ServiceError{Kind: KindStorageUnavailable, Code: "STORAGE_UNAVAILABLE", Message: message, Err: err}
}

// NewConflictError creates a conflict failure
func NewConflictError(code, message string) *ServiceError {
	return &ServiceError{Kind: KindConflict, Code: code, Message: message}
}

// KindOf returns the kind of a ServiceError anywhere in err's chain, or 0
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
