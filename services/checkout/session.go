package checkout

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/types"
)

// Session is one buyer's checkout attempt. All fields are guarded by mu,
// which is never held across a collaborator call. Every state change bumps
// seq; a call result is applied only if seq still matches the value
// captured when the call started.
type Session struct {
	id   string
	deps *Deps
	now  func() time.Time

	mu                sync.Mutex
	step              models.Step
	contact           models.ContactInfo
	tier              models.PricingTier
	cycle             models.BillingCycle
	lang              models.Language
	otp               challenge
	errMsg            string
	processing        bool
	redirectURL       string
	providerSessionID string
	seq               uint64
	lastActive        time.Time
}

func newSession(id string, deps *Deps, now func() time.Time) *Session {
	return &Session{
		id:         id,
		deps:       deps,
		now:        now,
		step:       models.StepClosed,
		lang:       models.LangEnglish,
		lastActive: now(),
	}
}

func (s *Session) ID() string {
	return s.id
}

// Open starts the flow at the contact step for tier and cycle.
func (s *Session) Open(tier models.PricingTier, cycle models.BillingCycle, lang models.Language) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := transition(s.step, evOpen)
	if err != nil {
		return err
	}
	s.resetLocked()
	s.tier = tier
	s.cycle = cycle
	s.lang = lang
	s.step = next
	log.Printf("Checkout %s opened: tier=%s cycle=%s lang=%s", s.id, tier.Key, cycle, lang)
	return nil
}

// Close resets the session from any step, including while a request is in
// flight. The outstanding result is discarded when it arrives.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, _ := transition(s.step, evClose)
	if s.processing {
		log.Printf("Checkout %s closed with a request in flight", s.id)
	}
	s.resetLocked()
	s.tier = models.PricingTier{}
	s.cycle = ""
	s.step = next
}

func (s *Session) resetLocked() {
	s.contact = models.ContactInfo{}
	s.otp = challenge{}
	s.errMsg = ""
	s.processing = false
	s.redirectURL = ""
	s.providerSessionID = ""
	s.seq++
	s.lastActive = s.now()
}

// Back moves otp->contact (dropping the entered code) or payment->otp.
func (s *Session) Back() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := transition(s.step, evBack)
	if err != nil {
		return err
	}
	if s.step == models.StepOTP {
		s.otp.enteredCode = ""
	}
	log.Printf("Checkout %s: %s -> %s (back)", s.id, s.step, next)
	s.step = next
	s.errMsg = ""
	s.processing = false
	s.redirectURL = ""
	s.seq++
	s.lastActive = s.now()
	return nil
}

// SubmitContact validates the contact details and asks the issuer to send a
// code. The session moves to otp only when the send succeeds.
func (s *Session) SubmitContact(ctx context.Context, info models.ContactInfo) error {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != models.StepContact {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	clean, err := ValidateContact(info)
	s.contact = clean
	if err != nil {
		s.errMsg = contactMessage(err, s.lang)
		s.lastActive = s.now()
		s.mu.Unlock()
		return err
	}

	seq := s.beginLocked()
	req := models.OTPRequest{Email: clean.Email, Name: clean.Name, Lang: s.lang}
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	err = s.deps.OTP.Issue(callCtx, req)
	cancel()

	s.mu.Lock()
	if !s.settleLocked(seq) {
		s.mu.Unlock()
		log.Printf("Checkout %s: discarding stale OTP send result", s.id)
		return ErrSessionReset
	}
	if err != nil {
		s.errMsg = remoteMessage(err, s.lang, msgOTPSendFailed)
		s.mu.Unlock()
		log.Printf("Checkout %s: OTP send failed: %v", s.id, err)
		return err
	}

	s.advanceLocked(evContactAccepted)
	s.otp = challenge{sends: 1, lastSentAt: s.now()}
	rec := s.recordLocked(models.CheckoutStatusPending)
	s.mu.Unlock()

	s.notify(ctx, "contact", func(rctx context.Context) error {
		return s.deps.Recorder.ContactCaptured(rctx, rec)
	})
	return nil
}

// SubmitOTP forwards a 6-digit code to the verifier. A rejected code keeps
// the session at otp with the entered code retained.
func (s *Session) SubmitOTP(ctx context.Context, raw string) error {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != models.StepOTP {
		s.mu.Unlock()
		return ErrInvalidTransition
	}

	code := NormalizeCode(raw)
	s.otp.enteredCode = code
	if !IsCompleteCode(code) {
		s.errMsg = localize(s.lang, msgCodeFormat)
		s.lastActive = s.now()
		s.mu.Unlock()
		return types.NewValidationError("code", "code must be 6 digits")
	}

	seq := s.beginLocked()
	email := s.contact.Email
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	ok, err := s.deps.OTP.Verify(callCtx, email, code)
	cancel()

	s.mu.Lock()
	if !s.settleLocked(seq) {
		s.mu.Unlock()
		log.Printf("Checkout %s: discarding stale OTP verification result", s.id)
		return ErrSessionReset
	}
	if err != nil {
		s.errMsg = remoteMessage(err, s.lang, msgInvalidCode)
		s.mu.Unlock()
		log.Printf("Checkout %s: OTP verification failed: %v", s.id, err)
		return err
	}
	if !ok {
		s.errMsg = localize(s.lang, msgInvalidCode)
		s.mu.Unlock()
		return ErrInvalidCode
	}

	s.advanceLocked(evCodeVerified)
	s.mu.Unlock()

	s.notify(ctx, "verification", func(rctx context.Context) error {
		return s.deps.Recorder.CodeVerified(rctx, s.id)
	})
	return nil
}

// ResendOTP asks the issuer for a fresh code. The step never changes.
func (s *Session) ResendOTP(ctx context.Context) error {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != models.StepOTP {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	seq := s.beginLocked()
	req := models.OTPRequest{Email: s.contact.Email, Name: s.contact.Name, Lang: s.lang}
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	err := s.deps.OTP.Issue(callCtx, req)
	cancel()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.settleLocked(seq) {
		return ErrSessionReset
	}
	if err != nil {
		s.errMsg = remoteMessage(err, s.lang, msgOTPSendFailed)
		log.Printf("Checkout %s: OTP resend failed: %v", s.id, err)
		return err
	}
	s.otp.sends++
	s.otp.lastSentAt = s.now()
	return nil
}

// CompletePayment hands the verified order to the payment strategy. The
// session reaches success only when the provider reports completion; a
// redirect outcome leaves it at payment with a redirect URL.
func (s *Session) CompletePayment(ctx context.Context, input models.PaymentInput) error {
	s.mu.Lock()
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != models.StepPayment {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if !s.tier.Purchasable(s.cycle) {
		s.errMsg = localize(s.lang, msgTierUnavailable)
		s.mu.Unlock()
		return ErrTierUnavailable
	}

	seq := s.beginLocked()
	s.redirectURL = ""
	order := s.orderLocked(input)
	// Taken before the call: a reset while it runs clears the contact.
	paidRec := s.recordLocked(models.CheckoutStatusPaid)
	paidTier := s.tier
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	outcome, err := s.pay(callCtx, order)
	cancel()

	s.mu.Lock()
	if !s.settleLocked(seq) {
		s.mu.Unlock()
		log.Printf("Checkout %s: discarding stale payment result (completed=%t, err=%v)", s.id, outcome.Completed, err)
		if err == nil && outcome.Completed {
			// The session stays reset, but the charge happened and must be recorded.
			paidRec.SubscriptionID = outcome.SubscriptionID
			paidRec.ProviderSessionID = outcome.ProviderSessionID
			s.notify(ctx, "payment", func(rctx context.Context) error {
				return s.deps.Recorder.PaymentCompleted(rctx, paidRec, paidTier, outcome)
			})
		}
		return ErrSessionReset
	}
	if err != nil {
		s.errMsg = paymentMessage(err, s.lang)
		s.mu.Unlock()
		log.Printf("Checkout %s: payment failed: %v", s.id, err)
		return err
	}

	s.providerSessionID = outcome.ProviderSessionID
	if !outcome.Completed {
		s.redirectURL = outcome.RedirectURL
		s.mu.Unlock()
		s.notify(ctx, "payment start", func(rctx context.Context) error {
			return s.deps.Recorder.PaymentStarted(rctx, s.id, outcome)
		})
		return nil
	}

	s.advanceLocked(evPaid)
	rec := s.recordLocked(models.CheckoutStatusPaid)
	rec.SubscriptionID = outcome.SubscriptionID
	tier := s.tier
	s.mu.Unlock()

	s.notify(ctx, "payment", func(rctx context.Context) error {
		return s.deps.Recorder.PaymentCompleted(rctx, rec, tier, outcome)
	})
	return nil
}

func (s *Session) pay(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	if s.deps.Locker != nil {
		locked, err := s.deps.Locker.LockCheckout(ctx, s.id)
		if err != nil {
			return models.PaymentOutcome{}, types.NewTransportError("lock checkout", err)
		}
		if !locked {
			return models.PaymentOutcome{}, ErrPaymentLocked
		}
		defer func() {
			if err := s.deps.Locker.ReleaseLock(context.WithoutCancel(ctx), s.id); err != nil {
				log.Printf("Warning: failed to release payment lock for checkout %s: %v", s.id, err)
			}
		}()
	}
	return s.deps.Payment.Begin(ctx, order)
}

// ConfirmRedirect verifies a hosted payment with the provider after the
// buyer returns through the success callback (or the provider's webhook
// reports it). Confirming an already successful session is a no-op.
func (s *Session) ConfirmRedirect(ctx context.Context, providerSessionID string) error {
	s.mu.Lock()
	if s.step == models.StepSuccess &&
		(providerSessionID == "" || providerSessionID == s.providerSessionID) {
		s.mu.Unlock()
		return nil
	}
	if s.processing {
		s.mu.Unlock()
		return ErrBusy
	}
	if s.step != models.StepPayment {
		s.mu.Unlock()
		return ErrInvalidTransition
	}
	if providerSessionID == "" {
		providerSessionID = s.providerSessionID
	}
	if providerSessionID == "" || (s.providerSessionID != "" && providerSessionID != s.providerSessionID) {
		s.mu.Unlock()
		return types.NewValidationError("session_id", "provider session does not belong to this checkout")
	}
	seq := s.beginLocked()
	s.mu.Unlock()

	callCtx, cancel := s.callContext(ctx)
	outcome, err := s.deps.Payment.Confirm(callCtx, providerSessionID)
	cancel()

	s.mu.Lock()
	if !s.settleLocked(seq) {
		s.mu.Unlock()
		return ErrSessionReset
	}
	if err == nil && !outcome.Completed {
		err = ErrPaymentIncomplete
	}
	if err != nil {
		s.errMsg = paymentMessage(err, s.lang)
		s.mu.Unlock()
		log.Printf("Checkout %s: redirect confirmation failed: %v", s.id, err)
		return err
	}

	s.providerSessionID = providerSessionID
	s.redirectURL = ""
	s.advanceLocked(evPaid)
	rec := s.recordLocked(models.CheckoutStatusPaid)
	rec.SubscriptionID = outcome.SubscriptionID
	tier := s.tier
	s.mu.Unlock()

	s.notify(ctx, "payment", func(rctx context.Context) error {
		return s.deps.Recorder.PaymentCompleted(rctx, rec, tier, outcome)
	})
	return nil
}

// CancelRedirect handles the provider's cancel callback: the buyer stays at
// payment and may try again.
func (s *Session) CancelRedirect() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.processing {
		return ErrBusy
	}
	if s.step != models.StepPayment {
		return ErrInvalidTransition
	}
	s.redirectURL = ""
	s.errMsg = localize(s.lang, msgPaymentCancelled)
	s.seq++
	s.lastActive = s.now()
	return nil
}

// View renders the session for the presentation layer.
func (s *Session) View() models.CheckoutView {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.CheckoutView{
		SessionID:   s.id,
		Step:        s.step,
		Contact:     s.contact,
		Language:    s.lang,
		EnteredCode: s.otp.enteredCode,
		OTPSends:    s.otp.sends,
		Error:       s.errMsg,
		Processing:  s.processing,
		RedirectURL: s.redirectURL,
	}
	if s.step != models.StepClosed {
		tier := s.tier
		tier.Features = append([]string(nil), s.tier.Features...)
		v.Tier = &tier
		v.Cycle = s.cycle
		v.Price = tier.DisplayPrice(s.cycle)
	}
	if s.step >= models.StepOTP && s.contact.Email != "" {
		v.MaskedEmail = MaskEmail(s.contact.Email)
	}
	return v
}

func (s *Session) Step() models.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

func (s *Session) idleSince(now time.Time) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastActive), s.processing
}

// beginLocked marks the session busy and returns the sequence number the
// result must still match.
func (s *Session) beginLocked() uint64 {
	s.processing = true
	s.errMsg = ""
	s.lastActive = s.now()
	return s.seq
}

// settleLocked reports whether a result captured at seq may be applied, and
// clears processing if so.
func (s *Session) settleLocked(seq uint64) bool {
	if s.seq != seq {
		return false
	}
	s.processing = false
	s.lastActive = s.now()
	return true
}

func (s *Session) advanceLocked(ev event) {
	next, err := transition(s.step, ev)
	if err != nil {
		log.Printf("Checkout %s: %v (%s at %s)", s.id, err, ev, s.step)
		return
	}
	log.Printf("Checkout %s: %s -> %s", s.id, s.step, next)
	s.step = next
	s.errMsg = ""
	s.seq++
}

func (s *Session) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.deps.RequestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.deps.RequestTimeout)
}

func (s *Session) notify(ctx context.Context, what string, fn func(context.Context) error) {
	if s.deps.Recorder == nil {
		return
	}
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
	defer cancel()
	if err := fn(rctx); err != nil {
		log.Printf("Error recording %s for checkout %s: %v", what, s.id, err)
	}
}

func (s *Session) recordLocked(status models.CheckoutStatus) models.CheckoutRecord {
	return models.CheckoutRecord{
		SessionID:         s.id,
		Name:              s.contact.Name,
		Email:             s.contact.Email,
		Phone:             s.contact.Phone,
		TierKey:           s.tier.Key,
		Cycle:             s.cycle,
		Language:          s.lang,
		Status:            status,
		ProviderSessionID: s.providerSessionID,
	}
}

func (s *Session) orderLocked(input models.PaymentInput) models.PaymentOrder {
	order := models.PaymentOrder{
		CheckoutID:      s.id,
		Contact:         s.contact,
		TierKey:         s.tier.Key,
		TierName:        s.tier.Name,
		Cycle:           s.cycle,
		PriceRef:        s.tier.PriceRef(s.cycle),
		Language:        s.lang,
		PaymentMethodID: input.PaymentMethodID,
	}
	if base := s.deps.CallbackBaseURL; base != "" {
		id := url.QueryEscape(s.id)
		order.SuccessURL = base + "/api/checkout/callback/success?checkout=" + id + "&session_id={CHECKOUT_SESSION_ID}"
		order.CancelURL = base + "/api/checkout/callback/cancel?checkout=" + id
	}
	return order
}
