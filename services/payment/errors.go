package payment

import (
	"errors"
	"net/http"

	"github.com/stripe/stripe-go/v79"

	"lexcora-checkout-api/types"
)

var ErrConfirmNotSupported = errors.New("payment: embedded payments complete synchronously")

// classifyError maps a Stripe failure onto the checkout error taxonomy.
// Anything that is not a Stripe API error is treated as a transport failure.
func classifyError(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *stripe.Error
	if !errors.As(err, &se) {
		return types.NewTransportError(op, err)
	}
	switch se.Type {
	case stripe.ErrorTypeCard, stripe.ErrorTypeInvalidRequest:
		return types.NewProviderError(string(se.Code), se.Msg)
	}
	if se.HTTPStatusCode >= http.StatusInternalServerError || se.HTTPStatusCode == 0 {
		return types.NewTransportError(op, err)
	}
	return types.NewProviderError(string(se.Code), se.Msg)
}
