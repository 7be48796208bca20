// Package errs defines the error kinds raised by the storage engine.
//
// Every kind is an immediate, synchronous failure: the operation that returns
// it has not modified any buffer. Callers match kinds with [errors.Is] against
// the sentinels below, or read [Error.Code] directly.
package errs

import (
	"errors"
	"fmt"
)

// Code identifies an error kind.
type Code string

const (
	// IndexOutOfRange is returned when an index or range falls outside the field.
	IndexOutOfRange Code = "INDEX_OUT_OF_RANGE"
	// Overflow is returned when a length or offset exceeds its encoding limit.
	Overflow Code = "OVERFLOW"
	// ReadOnly is returned when writing through a view bound to a plain value.
	ReadOnly Code = "READ_ONLY"
	// CrossContextViolation is returned when a body is mutated from a
	// transaction that does not own it.
	CrossContextViolation Code = "CROSS_CONTEXT_VIOLATION"
	// ConcurrencyViolation is returned when a transaction's write guard is
	// already held.
	ConcurrencyViolation Code = "CONCURRENCY_VIOLATION"
	// EmptyCollection is returned by Pop, Shift, First and Last on empty views.
	EmptyCollection Code = "EMPTY_COLLECTION"
	// InvalidTransactionState is returned when a transaction is used in a state
	// that does not allow the operation.
	InvalidTransactionState Code = "INVALID_TRANSACTION_STATE"
	// NestedContext is returned when a transaction is begun from a context that
	// already carries an open transaction.
	NestedContext Code = "NESTED_CONTEXT"
	// InvalidArgument is returned for malformed schemas, element types and byte
	// ranges that do not fall on element boundaries.
	InvalidArgument Code = "INVALID_ARGUMENT"
	// Misaligned is returned when a typed slice is requested over an address
	// that is not aligned for the element type.
	Misaligned Code = "MISALIGNED"
	// NotFound is returned when a body is not present in the store.
	NotFound Code = "NOT_FOUND"
)

// Sentinels for use with errors.Is.
var (
	ErrIndexOutOfRange         = &Error{code: IndexOutOfRange, message: "index out of range"}
	ErrOverflow                = &Error{code: Overflow, message: "overflow"}
	ErrReadOnly                = &Error{code: ReadOnly, message: "read-only view"}
	ErrCrossContextViolation   = &Error{code: CrossContextViolation, message: "cross-context violation"}
	ErrConcurrencyViolation    = &Error{code: ConcurrencyViolation, message: "concurrency violation"}
	ErrEmptyCollection         = &Error{code: EmptyCollection, message: "empty collection"}
	ErrInvalidTransactionState = &Error{code: InvalidTransactionState, message: "invalid transaction state"}
	ErrNestedContext           = &Error{code: NestedContext, message: "nested context"}
	ErrInvalidArgument         = &Error{code: InvalidArgument, message: "invalid argument"}
	ErrMisaligned              = &Error{code: Misaligned, message: "misaligned"}
	ErrNotFound                = &Error{code: NotFound, message: "not found"}
)

// Error is a concrete error with a code and optional details.
type Error struct {
	code       Code
	message    string
	details    map[string]any
	wrappedErr error
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		code:    code,
		message: fmt.Sprintf(format, args...),
	}
}

// WithDetail adds a single detail to the error.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.details == nil {
		e.details = make(map[string]any)
	}
	e.details[key] = value
	return e
}

// Wrap wraps an underlying error.
func (e *Error) Wrap(err error) *Error {
	e.wrappedErr = err
	return e
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.wrappedErr != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.message, e.wrappedErr)
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

// Code returns the error code.
func (e *Error) Code() Code {
	return e.code
}

// Details returns additional error details.
func (e *Error) Details() map[string]any {
	return e.details
}

// Unwrap returns the wrapped error if any.
func (e *Error) Unwrap() error {
	return e.wrappedErr
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.code == e.code
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.code
	}
	return ""
}

// Constructors for the common cases.

// OutOfRange reports index outside [0, length).
func OutOfRange(index, length int) *Error {
	return New(IndexOutOfRange, "index %d out of range [0, %d)", index, length).
		WithDetail("index", index).
		WithDetail("length", length)
}

// RangeOutOfBounds reports a [start, start+count) range outside [0, length].
func RangeOutOfBounds(start, count, length int) *Error {
	return New(IndexOutOfRange, "range [%d, %d) out of bounds [0, %d]", start, start+count, length).
		WithDetail("start", start).
		WithDetail("count", count).
		WithDetail("length", length)
}

// Empty reports an operation that needs at least one element.
func Empty(op string) *Error {
	return New(EmptyCollection, "%s on empty collection", op)
}

// ReadOnlyView reports a write attempt through a read-only view.
func ReadOnlyView(op string) *Error {
	return New(ReadOnly, "%s: view is bound to a read-only value", op)
}
