package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound represents a lookup that matched no owned, live record
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeMalformedURN represents an identifier that does not parse
	ErrorTypeMalformedURN ErrorType = "malformed_urn"
	// ErrorTypeStoreUnavailable represents connectivity loss to the graph store
	ErrorTypeStoreUnavailable ErrorType = "store_unavailable"
	// ErrorTypeStoreQuery represents a query the store rejected
	ErrorTypeStoreQuery ErrorType = "store_query"
	// ErrorTypeNotImplemented represents an unrecognized use case
	ErrorTypeNotImplemented ErrorType = "not_implemented"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type    ErrorType
	Message string
	Err     error // wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// ErrType reports the taxonomy category. Promoted into every typed error.
func (e *BaseError) ErrType() ErrorType {
	return e.Type
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{Type: errType, Message: message, Err: err}
}

// ErrNotFound is returned when a single-entity fetch matched zero rows.
// A row owned by somebody else is indistinguishable from a missing row,
// so ownership misses surface as this same error.
type ErrNotFound struct {
	*BaseError
	ID string
}

func NewNotFound(id string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, fmt.Sprintf("record not found: %s", id), nil),
		ID:        id,
	}
}

// ErrMalformedURN is returned when an identifier fails to parse
type ErrMalformedURN struct {
	*BaseError
	Raw string
}

func NewMalformedURN(raw string) *ErrMalformedURN {
	return &ErrMalformedURN{
		BaseError: NewBaseError(ErrorTypeMalformedURN, fmt.Sprintf("malformed identifier: %q", raw), nil),
		Raw:       raw,
	}
}

// ErrStoreUnavailable is returned when the graph store cannot be reached
type ErrStoreUnavailable struct {
	*BaseError
}

func NewStoreUnavailable(err error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BaseError: NewBaseError(ErrorTypeStoreUnavailable, "graph store unreachable", err),
	}
}

// ErrStoreQuery is returned when the store rejects a well-formed call
type ErrStoreQuery struct {
	*BaseError
	Query string
}

func NewStoreQuery(query string, err error) *ErrStoreQuery {
	return &ErrStoreQuery{
		BaseError: NewBaseError(ErrorTypeStoreQuery, "query failed", err),
		Query:     query,
	}
}

// ErrNotImplemented is returned for an unrecognized use-case keyword
type ErrNotImplemented struct {
	*BaseError
	UseCase string
}

func NewNotImplemented(useCase string) *ErrNotImplemented {
	return &ErrNotImplemented{
		BaseError: NewBaseError(ErrorTypeNotImplemented, fmt.Sprintf("unsupported use case: %s", useCase), nil),
		UseCase:   useCase,
	}
}

// TypeOf returns the taxonomy category of err, or "" for foreign errors.
func TypeOf(err error) ErrorType {
	var t interface{ ErrType() ErrorType }
	if stderrors.As(err, &t) {
		return t.ErrType()
	}
	return ""
}

// IsNotFound checks whether err is a not-found error
func IsNotFound(err error) bool {
	return TypeOf(err) == ErrorTypeNotFound
}

// IsMalformedURN checks whether err is a malformed-identifier error
func IsMalformedURN(err error) bool {
	return TypeOf(err) == ErrorTypeMalformedURN
}

// IsStoreUnavailable checks whether err is a connectivity error
func IsStoreUnavailable(err error) bool {
	return TypeOf(err) == ErrorTypeStoreUnavailable
}

// IsNotImplemented checks whether err is an unsupported use-case error
func IsNotImplemented(err error) bool {
	return TypeOf(err) == ErrorTypeNotImplemented
}
