package checkout

import "errors"

var (
	ErrBusy              = errors.New("checkout: a request is already in progress")
	ErrSessionReset      = errors.New("checkout: session changed while the request was in flight")
	ErrInvalidTransition = errors.New("checkout: action not allowed at the current step")
	ErrSessionNotFound   = errors.New("checkout: session not found")
	ErrUnknownTier       = errors.New("checkout: unknown pricing tier")
	ErrTierUnavailable   = errors.New("checkout: tier cannot be purchased online for this billing cycle")
	ErrPaymentIncomplete = errors.New("checkout: payment not completed")
)

// ErrInvalidCode is returned when the verifier rejects a well-formed code.
var ErrInvalidCode = errors.New("checkout: invalid verification code")

var ErrPaymentLocked = errors.New("checkout: payment lock held by another request")
