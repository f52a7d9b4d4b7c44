package model

import (
	"errors"
	"fmt"
)

// Kind classifies a failure.
type Kind int

const (
	// KindExtractionFailure is scoped to one page, slide, table or image.
	KindExtractionFailure Kind = iota + 1
	// KindUnsupportedFormat means the declared format is not handled.
	KindUnsupportedFormat
	// KindDependencyUnavailable means the OCR engine, rasterizer or remote
	// recognizer is missing, misconfigured or unreachable.
	KindDependencyUnavailable
	// KindMalformedInput means the document container could not be parsed.
	KindMalformedInput
)

// String returns the stable name used in serialized results.
func (k Kind) String() string {
	switch k {
	case KindExtractionFailure:
		return "extraction_failure"
	case KindUnsupportedFormat:
		return "unsupported_format"
	case KindDependencyUnavailable:
		return "dependency_unavailable"
	case KindMalformedInput:
		return "malformed_input"
	default:
		return "unknown"
	}
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) Kind {
	switch s {
	case "extraction_failure":
		return KindExtractionFailure
	case "unsupported_format":
		return KindUnsupportedFormat
	case "dependency_unavailable":
		return KindDependencyUnavailable
	case "malformed_input":
		return KindMalformedInput
	}
	return 0
}

// CallLevel reports whether failures of this kind end the whole call.
func (k Kind) CallLevel() bool {
	return k == KindUnsupportedFormat || k == KindDependencyUnavailable || k == KindMalformedInput
}

// Sentinel errors for use with errors.Is.
var (
	ErrExtractionFailure     = errors.New("extraction failure")
	ErrUnsupportedFormat     = errors.New("unsupported format")
	ErrDependencyUnavailable = errors.New("dependency unavailable")
	ErrMalformedInput        = errors.New("malformed input")
)

func (k Kind) sentinel() error {
	switch k {
	case KindExtractionFailure:
		return ErrExtractionFailure
	case KindUnsupportedFormat:
		return ErrUnsupportedFormat
	case KindDependencyUnavailable:
		return ErrDependencyUnavailable
	case KindMalformedInput:
		return ErrMalformedInput
	}
	return nil
}

// Error is a typed extraction failure.
type Error struct {
	Kind Kind
	// Unit names the failing unit ("page 3", "slide 2", "image 1"); empty for
	// call-level failures.
	Unit string
	Err  error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		msg = s.Error()
	}
	if e.Unit != "" {
		msg = e.Unit + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel for the error's kind.
func (e *Error) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// NewError builds an *Error.
func NewError(kind Kind, unit string, err error) *Error {
	return &Error{Kind: kind, Unit: unit, Err: err}
}

// Errorf builds an *Error with a formatted cause.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, defaulting to KindExtractionFailure for
// errors that carry no classification.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindExtractionFailure
}

// IsCallLevel reports whether err must end the current call.
func IsCallLevel(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind.CallLevel()
}

// Failure is the serializable form of an *Error.
type Failure struct {
	Kind    string `json:"kind" yaml:"kind"`
	Unit    string `json:"unit,omitempty" yaml:"unit,omitempty"`
	Message string `json:"message" yaml:"message"`
}

// FailureOf converts err to a Failure. It returns nil for a nil error.
func FailureOf(err error) *Failure {
	if err == nil {
		return nil
	}
	f := &Failure{Kind: KindOf(err).String(), Message: err.Error()}
	var e *Error
	if errors.As(err, &e) {
		f.Unit = e.Unit
	}
	return f
}

// Err converts a Failure back to an *Error.
func (f *Failure) Err() error {
	if f == nil {
		return nil
	}
	return &Error{Kind: ParseKind(f.Kind), Unit: f.Unit, Err: errors.New(f.Message)}
}
