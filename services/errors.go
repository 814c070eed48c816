package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorKind classifies a service failure so handlers can pick a status code
// without string-matching messages.
type ErrorKind int

const (
	KindUnexpected ErrorKind = iota
	KindUnauthenticated
	KindForbidden
	KindValidationFailed
	KindNotFound
	KindInvalidTransition
	KindStorageFailure
)

// ServiceError is the error type returned by every service operation that
// fails for a classifiable reason. Fields is populated for validation
// failures and enumerates every failing field at once.
type ServiceError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	cause   error
}

func (e *ServiceError) Error() string {
	if len(e.Fields) > 0 {
		names := make([]string, 0, len(e.Fields))
		for f := range e.Fields {
			names = append(names, f)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, f := range names {
			parts = append(parts, fmt.Sprintf("%s: %s", f, e.Fields[f]))
		}
		return e.Message + " (" + strings.Join(parts, "; ") + ")"
	}
	return e.Message
}

func (e *ServiceError) Unwrap() error { return e.cause }

func errUnauthenticated(msg string) error {
	return &ServiceError{Kind: KindUnauthenticated, Message: msg}
}

func errForbidden(msg string) error {
	return &ServiceError{Kind: KindForbidden, Message: msg}
}

func errValidation(fields map[string]string) error {
	return &ServiceError{Kind: KindValidationFailed, Message: "validation failed", Fields: fields}
}

func errNotFound(msg string) error {
	return &ServiceError{Kind: KindNotFound, Message: msg}
}

func errInvalidTransition(msg string) error {
	return &ServiceError{Kind: KindInvalidTransition, Message: msg}
}

// StorageError classifies a file-store failure so handlers map it with the
// rest of the taxonomy. The cause is kept for logging, not for the response.
func StorageError(msg string, cause error) error {
	return &ServiceError{Kind: KindStorageFailure, Message: msg, cause: cause}
}

// KindOf extracts the ErrorKind from err, defaulting to KindUnexpected.
func KindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindUnexpected
}

// FieldsOf returns the per-field messages of a validation failure, or nil.
func FieldsOf(err error) map[string]string {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Fields
	}
	return nil
}
