package types

import (
	"context"
	"errors"
	"net"
)

// ValidationError is a local, synchronous input problem. It never ends a flow.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Msg
	}
	return e.Field + ": " + e.Msg
}

// ProviderError is a business error reported by a collaborator (OTP issuer,
// payment provider). Message is safe to show to the buyer.
type ProviderError struct {
	Code    string
	Message string
}

func (e *ProviderError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return e.Code + ": " + e.Message
}

// TransportError means the call itself failed: connection refused, timeout,
// malformed response.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func NewProviderError(code, msg string) error {
	return &ProviderError{Code: code, Message: msg}
}

func NewTransportError(op string, err error) error {
	return &TransportError{Op: op, Err: err}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsTransport reports whether err is a transport failure, including context
// deadlines and net errors that were not wrapped explicitly.
func IsTransport(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if errors.As(err, &te) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne)
}

// ProviderMessage returns the user-facing message of a ProviderError in the
// chain, or "" when there is none.
func ProviderMessage(err error) string {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Message
	}
	return ""
}
