// Package result defines the uniform error taxonomy and success/failure
// carrier used at every fallible boundary in the analytics core.
package result

import (
	"fmt"
	"runtime"

	"github.com/go-playground/validator/v10"
)

var configValidator = validator.New()

// ValidateConfig runs struct-tag validation (github.com/go-playground/validator)
// against cfg and wraps the first failing field into an *Error with Kind
// InvalidInput. Constructors that take a Config/Priors/EnsembleConfig-style
// struct call this before using any field.
func ValidateConfig(cfg interface{}) error {
	if err := configValidator.Struct(cfg); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			fe := verrs[0]
			return New(InvalidInput, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
		return Wrap(InvalidInput, "config validation failed", err)
	}
	return nil
}

// Kind enumerates the error categories every fallible core operation may
// return. Callers switch on Kind rather than matching error strings.
type Kind int

const (
	// Success is never attached to an error; it exists so Kind has a
	// documented zero-value meaning "no failure".
	Success Kind = iota
	InvalidInput
	InsufficientData
	DivisionByZero
	NumericOverflow
	MissingData
	InvalidDateRange
	InvalidSymbol
	CalculationError
	FileNotFound
	ParseError
	MemoryError
	UnknownError
)

func (k Kind) String() string {
	switch k {
	case Success:
		return "Success"
	case InvalidInput:
		return "InvalidInput"
	case InsufficientData:
		return "InsufficientData"
	case DivisionByZero:
		return "DivisionByZero"
	case NumericOverflow:
		return "NumericOverflow"
	case MissingData:
		return "MissingData"
	case InvalidDateRange:
		return "InvalidDateRange"
	case InvalidSymbol:
		return "InvalidSymbol"
	case CalculationError:
		return "CalculationError"
	case FileNotFound:
		return "FileNotFound"
	case ParseError:
		return "ParseError"
	case MemoryError:
		return "MemoryError"
	default:
		return "UnknownError"
	}
}

// Error is the error type every function in this module returns. It carries
// a Kind, a short human message, a free-form context string describing the
// step that failed, and the source location where it was raised.
type Error struct {
	Kind     Kind
	Message  string
	Context  string
	Location string
	Err      error // wrapped cause, if any
}

func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (%s) [%s]", e.Kind, e.Message, e.Context, e.Location)
	}
	return fmt.Sprintf("%s: %s [%s]", e.Kind, e.Message, e.Location)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New builds an *Error with the caller's source location attached.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message, Location: caller()}
}

// Wrap builds an *Error around an existing error, preserving it for errors.Is/As.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err, Location: caller()}
}

// WithContext returns a copy of e with Context set, for adding the failing
// step's description without losing the original Kind/Message.
func (e *Error) WithContext(context string) *Error {
	cp := *e
	cp.Context = context
	return &cp
}

func caller() string {
	_, file, line, ok := runtime.Caller(2)
	if !ok {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", file, line)
}

// Result is an explicit Ok/Err sum type for call sites that want to carry a
// value and its failure together (e.g. across a channel or in a slice of
// per-window rolling results) rather than using Go's (T, error) convention
// directly.
type Result[T any] struct {
	value T
	err   error
	ok    bool
}

// Ok wraps a successful value.
func Ok[T any](v T) Result[T] {
	return Result[T]{value: v, ok: true}
}

// Err wraps a failure.
func Err[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Of adapts a (T, error) pair, as returned by most functions in this module,
// into a Result[T].
func Of[T any](v T, err error) Result[T] {
	if err != nil {
		return Err[T](err)
	}
	return Ok(v)
}

// IsOk reports whether the Result holds a value.
func (r Result[T]) IsOk() bool { return r.ok }

// Unwrap returns the underlying (value, error) pair.
func (r Result[T]) Unwrap() (T, error) { return r.value, r.err }

// Must returns the value, panicking if the Result is an error. Reserved for
// call sites that have already checked IsOk or for tests.
func (r Result[T]) Must() T {
	if !r.ok {
		panic(r.err)
	}
	return r.value
}
