package checkout

import (
	"context"
	"errors"
	"time"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
)

// OTPIssuer is the trusted collaborator that delivers and checks codes. The
// issued code never passes through the session.
type OTPIssuer interface {
	Issue(ctx context.Context, req models.OTPRequest) error
	Verify(ctx context.Context, email, code string) (bool, error)
}

// PaymentHandoff starts a payment for an order and, for redirect flows,
// confirms it once the buyer comes back.
type PaymentHandoff interface {
	Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error)
	Confirm(ctx context.Context, providerSessionID string) (models.PaymentOutcome, error)
}

// Recorder is told about milestones after they are applied. Its errors are
// logged and never change the session.
type Recorder interface {
	ContactCaptured(ctx context.Context, rec models.CheckoutRecord) error
	CodeVerified(ctx context.Context, checkoutID string) error
	PaymentStarted(ctx context.Context, checkoutID string, outcome models.PaymentOutcome) error
	PaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error
}

// Locker guards a payment attempt across service instances.
type Locker interface {
	LockCheckout(ctx context.Context, checkoutID string) (bool, error)
	ReleaseLock(ctx context.Context, checkoutID string) error
}

type Deps struct {
	OTP      OTPIssuer
	Payment  PaymentHandoff
	Recorder Recorder
	Locker   Locker

	// RequestTimeout bounds every collaborator call. Zero means no bound.
	RequestTimeout time.Duration
	// CallbackBaseURL is the public base the payment provider redirects back to.
	CallbackBaseURL string
}

const recordTimeout = 10 * time.Second

// remoteMessage picks the buyer-facing text for a failed collaborator call.
func remoteMessage(err error, lang models.Language, fallback msgKey) string {
	if msg := types.ProviderMessage(err); msg != "" {
		return msg
	}
	if types.IsTransport(err) {
		return localize(lang, msgNetwork)
	}
	return localize(lang, fallback)
}

func paymentMessage(err error, lang models.Language) string {
	var ve *types.ValidationError
	switch {
	case errors.As(err, &ve) && ve.Field == "paymentMethodId":
		return localize(lang, msgPaymentMethodRequired)
	case errors.Is(err, ErrPaymentLocked):
		return localize(lang, msgPaymentInProgress)
	case errors.Is(err, ErrPaymentIncomplete):
		return localize(lang, msgPaymentFailed)
	}
	return remoteMessage(err, lang, msgPaymentFailed)
}
