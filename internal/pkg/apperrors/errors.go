package apperrors

import "errors"

// Standard application errors
var (
	// ErrNotFound is returned when a requested resource is not found.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidInput is returned when the input provided by the client is invalid.
	ErrInvalidInput = errors.New("invalid input provided")

	// ErrExternalServiceFailure is returned when an interaction with an external service fails.
	ErrExternalServiceFailure = errors.New("external service interaction failed")

	// ErrTimeout is returned when an operation times out.
	ErrTimeout = errors.New("operation timed out")

	// ErrReverted is returned when a contract call was executed by the node and reverted.
	ErrReverted = errors.New("execution reverted")

	// ErrInternal is returned for unexpected internal system errors.
	ErrInternal = errors.New("internal system error")
)
