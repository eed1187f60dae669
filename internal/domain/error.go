package domain

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures surfaced by the token client.
type ErrorKind string

// Known error kinds.
const (
	KindConfiguration ErrorKind = "configuration"
	KindConnection    ErrorKind = "connection"
	KindContract      ErrorKind = "contract"
	KindValidation    ErrorKind = "validation"
	KindUnsupported   ErrorKind = "unsupported_capability"
)

var (
	// ErrConfiguration means a malformed address or an unresolved placeholder was configured.
	ErrConfiguration = errors.New("configuration error")

	// ErrConnection means no candidate endpoint is reachable or no binding is held.
	ErrConnection = errors.New("connection error")

	// ErrContract means a required read failed against a live endpoint.
	ErrContract = errors.New("contract error")

	// ErrValidation means caller-supplied input failed a local precondition.
	ErrValidation = errors.New("validation error")

	// ErrUnsupportedCapability means an optional contract method is not implemented.
	// It never leaves the client: fetchers convert it to a fallback value.
	ErrUnsupportedCapability = errors.New("unsupported capability")
)

var kindSentinels = map[ErrorKind]error{
	KindConfiguration: ErrConfiguration,
	KindConnection:    ErrConnection,
	KindContract:      ErrContract,
	KindValidation:    ErrValidation,
	KindUnsupported:   ErrUnsupportedCapability,
}

// Error is the typed error returned by the token client.
type Error struct {
	Kind     ErrorKind
	Message  string
	Endpoint string
	Err      error
}

// NewError builds an Error of the given kind wrapping cause (may be nil).
func NewError(kind ErrorKind, endpoint string, cause error, format string, args ...any) *Error {
	return &Error{
		Kind:     kind,
		Message:  fmt.Sprintf(format, args...),
		Endpoint: endpoint,
		Err:      cause,
	}
}

func (e *Error) Error() string {
	sentinel := kindSentinels[e.Kind]
	if sentinel == nil {
		sentinel = errors.New(string(e.Kind))
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", sentinel, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", sentinel, e.Message)
}

// Unwrap exposes both the kind sentinel and the underlying cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if sentinel, ok := kindSentinels[e.Kind]; ok {
		errs = append(errs, sentinel)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// KindOf reports the ErrorKind carried by err, or "" when err is not a client error.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
