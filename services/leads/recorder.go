package leads

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/queue"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/services/payment"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

type Store interface {
	SaveCheckoutContact(ctx context.Context, rec *models.CheckoutRecord) error
	UpdateCheckoutStatus(ctx context.Context, sessionID string, status models.CheckoutStatus) error
	SetProviderSession(ctx context.Context, sessionID, providerSessionID string) error
	GetCheckoutRecord(ctx context.Context, sessionID string) (*models.CheckoutRecord, error)
	FindCheckoutByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error)
	MarkPaid(ctx context.Context, sessionID string, outcome models.PaymentOutcome, amount float64) (bool, error)
	SaveTrialRequest(ctx context.Context, req *models.TrialRequest) error
}

type Jobs interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

// Service persists checkout milestones and schedules the follow-up work
// (receipts, sales notifications, events) on the job queue.
type Service struct {
	store Store
	jobs  Jobs
	now   func() time.Time
}

func NewService(store Store, jobs Jobs) *Service {
	return &Service{store: store, jobs: jobs, now: time.Now}
}

func (s *Service) ContactCaptured(ctx context.Context, rec models.CheckoutRecord) error {
	rec.Status = models.CheckoutStatusPending
	if err := s.store.SaveCheckoutContact(ctx, &rec); err != nil {
		return err
	}

	return s.publish(ctx, models.CheckoutEvent{
		Type:       models.EventLead,
		CheckoutID: rec.SessionID,
		Email:      rec.Email,
		Name:       rec.Name,
		Tier:       rec.TierKey,
		Cycle:      rec.Cycle,
		Language:   rec.Language,
	})
}

func (s *Service) CodeVerified(ctx context.Context, checkoutID string) error {
	if err := s.store.UpdateCheckoutStatus(ctx, checkoutID, models.CheckoutStatusVerified); err != nil {
		return err
	}
	return s.publish(ctx, models.CheckoutEvent{Type: models.EventVerified, CheckoutID: checkoutID})
}

func (s *Service) PaymentStarted(ctx context.Context, checkoutID string, outcome models.PaymentOutcome) error {
	if outcome.ProviderSessionID == "" {
		return nil
	}
	return s.store.SetProviderSession(ctx, checkoutID, outcome.ProviderSessionID)
}

// PaymentCompleted marks the record paid and queues the receipt. A record
// that was already paid (webhook and callback both arriving) queues nothing.
func (s *Service) PaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error {
	amount, display := payment.AmountFor(tier, rec.Cycle)

	changed, err := s.store.MarkPaid(ctx, rec.SessionID, outcome, amount)
	if err != nil {
		return err
	}
	if !changed {
		log.Printf("Checkout %s already marked paid, skipping receipt", rec.SessionID)
		return nil
	}

	reference := outcome.SubscriptionID
	if reference == "" {
		reference = outcome.ProviderSessionID
	}

	receipt, err := queue.ToData(models.ReceiptPayload{
		CheckoutID: rec.SessionID,
		Email:      rec.Email,
		Name:       rec.Name,
		TierName:   tier.Name,
		Cycle:      rec.Cycle,
		Amount:     display,
		RenewalOn:  utils.FormatDate(utils.NextRenewal(s.now(), rec.Cycle)),
		Reference:  reference,
		Language:   rec.Language,
	})
	if err != nil {
		return err
	}
	if err := s.jobs.Enqueue(ctx, queue.JobTypeSendReceipt, receipt); err != nil {
		return fmt.Errorf("failed to queue receipt: %w", err)
	}

	return s.publish(ctx, models.CheckoutEvent{
		Type:       models.EventPaid,
		CheckoutID: rec.SessionID,
		Email:      rec.Email,
		Name:       rec.Name,
		Tier:       rec.TierKey,
		Cycle:      rec.Cycle,
		Language:   rec.Language,
		Reference:  reference,
	})
}

// CheckoutExpired marks a record whose hosted payment page expired unpaid.
func (s *Service) CheckoutExpired(ctx context.Context, checkoutID string) error {
	rec, err := s.store.GetCheckoutRecord(ctx, checkoutID)
	if err != nil {
		return err
	}
	if rec.Status == models.CheckoutStatusPaid {
		return nil
	}
	return s.store.UpdateCheckoutStatus(ctx, checkoutID, models.CheckoutStatusCancelled)
}

// DirectPaymentCompleted records a payment for a checkout that was never
// stored, such as a hosted session created through the direct endpoint. The
// record is inserted from what the provider reported, then marked paid.
func (s *Service) DirectPaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error {
	rec.Status = models.CheckoutStatusPending
	if err := s.store.SaveCheckoutContact(ctx, &rec); err != nil {
		return err
	}
	if outcome.ProviderSessionID != "" {
		if err := s.store.SetProviderSession(ctx, rec.SessionID, outcome.ProviderSessionID); err != nil {
			return err
		}
	}
	return s.PaymentCompleted(ctx, rec, tier, outcome)
}

// RecordByProviderSession finds the checkout a hosted payment session was
// created for.
func (s *Service) RecordByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error) {
	return s.store.FindCheckoutByProviderSession(ctx, providerSessionID)
}

// Record loads the persisted checkout, used when a webhook arrives for a
// session this instance no longer holds.
func (s *Service) Record(ctx context.Context, checkoutID string) (*models.CheckoutRecord, error) {
	return s.store.GetCheckoutRecord(ctx, checkoutID)
}

// ValidateTrial normalizes a trial signup the same way checkout contacts are.
func ValidateTrial(req *models.TrialRequest) error {
	contact, err := checkout.ValidateContact(models.ContactInfo{
		Name:  req.FullName,
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		return err
	}
	req.FullName, req.Email, req.Phone = contact.Name, contact.Email, contact.Phone

	req.FirmName = strings.TrimSpace(req.FirmName)
	req.FirmSize = strings.TrimSpace(req.FirmSize)
	if req.FirmName == "" {
		return types.NewValidationError("firmName", "firm name is required")
	}
	return nil
}

// TrialRequested stores a trial signup and notifies sales.
func (s *Service) TrialRequested(ctx context.Context, req *models.TrialRequest) error {
	if err := ValidateTrial(req); err != nil {
		return err
	}
	if req.ID == "" {
		req.ID = uuid.New().String()
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = s.now().UTC()
	}

	if err := s.store.SaveTrialRequest(ctx, req); err != nil {
		return err
	}

	sales, err := queue.ToData(models.SalesPayload{
		Subject: fmt.Sprintf("New LEXCORA trial request: %s", req.FirmName),
		Title:   "New trial request",
		Fields: [][2]string{
			{"Name", req.FullName},
			{"Email", req.Email},
			{"Phone", req.Phone},
			{"Firm", req.FirmName},
			{"Firm size", req.FirmSize},
			{"Language", string(req.Language)},
		},
	})
	if err != nil {
		return err
	}
	if err := s.jobs.Enqueue(ctx, queue.JobTypeNotifySales, sales); err != nil {
		return fmt.Errorf("failed to queue sales notification: %w", err)
	}

	return s.publish(ctx, models.CheckoutEvent{
		Type:     models.EventTrialRequested,
		Email:    req.Email,
		Name:     req.FullName,
		Language: req.Language,
	})
}

func (s *Service) publish(ctx context.Context, event models.CheckoutEvent) error {
	event.OccurredAt = s.now().UTC()
	data, err := queue.ToData(event)
	if err != nil {
		return err
	}
	if err := s.jobs.Enqueue(ctx, queue.JobTypePublishEvent, data); err != nil {
		return fmt.Errorf("failed to queue %s event: %w", event.Type, err)
	}
	return nil
}
