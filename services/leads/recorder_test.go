package leads

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/queue"
	"lexcora-checkout-api/types"
)

type fakeStore struct {
	saved    []models.CheckoutRecord
	statuses map[string]models.CheckoutStatus
	provider map[string]string
	paid     map[string]float64
	trials   []models.TrialRequest
	err      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		statuses: map[string]models.CheckoutStatus{},
		provider: map[string]string{},
		paid:     map[string]float64{},
	}
}

func (f *fakeStore) SaveCheckoutContact(ctx context.Context, rec *models.CheckoutRecord) error {
	if f.err != nil {
		return f.err
	}
	f.saved = append(f.saved, *rec)
	if _, ok := f.statuses[rec.SessionID]; !ok {
		f.statuses[rec.SessionID] = rec.Status
	}
	return nil
}

func (f *fakeStore) UpdateCheckoutStatus(ctx context.Context, id string, status models.CheckoutStatus) error {
	f.statuses[id] = status
	return nil
}

func (f *fakeStore) SetProviderSession(ctx context.Context, id, providerSessionID string) error {
	f.provider[id] = providerSessionID
	return nil
}

func (f *fakeStore) GetCheckoutRecord(ctx context.Context, id string) (*models.CheckoutRecord, error) {
	for _, rec := range f.saved {
		if rec.SessionID == id {
			rec.Status = f.statuses[id]
			return &rec, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) FindCheckoutByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error) {
	for id, ref := range f.provider {
		if ref == providerSessionID {
			return f.GetCheckoutRecord(ctx, id)
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeStore) MarkPaid(ctx context.Context, id string, outcome models.PaymentOutcome, amount float64) (bool, error) {
	if _, ok := f.paid[id]; ok {
		return false, nil
	}
	f.paid[id] = amount
	f.statuses[id] = models.CheckoutStatusPaid
	return true, nil
}

func (f *fakeStore) SaveTrialRequest(ctx context.Context, req *models.TrialRequest) error {
	f.trials = append(f.trials, *req)
	return nil
}

type fakeJobs struct {
	types []queue.JobType
	data  []map[string]interface{}
}

func (f *fakeJobs) Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error {
	f.types = append(f.types, jobType)
	f.data = append(f.data, data)
	return nil
}

func newTestService() (*Service, *fakeStore, *fakeJobs) {
	store, jobs := newFakeStore(), &fakeJobs{}
	svc := NewService(store, jobs)
	svc.now = func() time.Time { return time.Date(2026, 1, 31, 9, 0, 0, 0, time.UTC) }
	return svc, store, jobs
}

func record() models.CheckoutRecord {
	return models.CheckoutRecord{
		SessionID: "chk-1",
		Name:      "Mona Saleh",
		Email:     "mona@firm.ae",
		Phone:     "+971 50 123 4567",
		TierKey:   "professional",
		Cycle:     models.BillingMonthly,
		Language:  models.LangEnglish,
	}
}

func TestContactCapturedSavesPendingAndPublishesLead(t *testing.T) {
	svc, store, jobs := newTestService()

	require.NoError(t, svc.ContactCaptured(context.Background(), record()))

	require.Len(t, store.saved, 1)
	assert.Equal(t, models.CheckoutStatusPending, store.saved[0].Status)
	assert.Equal(t, []queue.JobType{queue.JobTypePublishEvent}, jobs.types)
	assert.Equal(t, "lead", jobs.data[0]["type"])
}

func TestContactCapturedStoreError(t *testing.T) {
	svc, store, jobs := newTestService()
	store.err = errors.New("db down")

	assert.Error(t, svc.ContactCaptured(context.Background(), record()))
	assert.Empty(t, jobs.types)
}

func TestCodeVerifiedAndPaymentStarted(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()

	require.NoError(t, svc.CodeVerified(ctx, "chk-1"))
	assert.Equal(t, models.CheckoutStatusVerified, store.statuses["chk-1"])

	require.NoError(t, svc.PaymentStarted(ctx, "chk-1", models.PaymentOutcome{}))
	assert.Empty(t, store.provider)

	require.NoError(t, svc.PaymentStarted(ctx, "chk-1", models.PaymentOutcome{ProviderSessionID: "cs_1"}))
	assert.Equal(t, "cs_1", store.provider["chk-1"])
}

func TestPaymentCompletedQueuesReceiptOnce(t *testing.T) {
	svc, store, jobs := newTestService()
	ctx := context.Background()
	tier := models.PricingTier{Key: "professional", Name: "Professional", PriceMonthly: "299"}
	outcome := models.PaymentOutcome{Completed: true, SubscriptionID: "sub_1"}

	require.NoError(t, svc.PaymentCompleted(ctx, record(), tier, outcome))
	require.NoError(t, svc.PaymentCompleted(ctx, record(), tier, outcome))

	assert.Equal(t, 299.0, store.paid["chk-1"])
	assert.Equal(t, []queue.JobType{queue.JobTypeSendReceipt, queue.JobTypePublishEvent}, jobs.types)

	var receipt models.ReceiptPayload
	require.NoError(t, (&queue.Job{Data: jobs.data[0]}).Decode(&receipt))
	assert.Equal(t, "mona@firm.ae", receipt.Email)
	assert.Equal(t, "Professional", receipt.TierName)
	assert.Equal(t, "sub_1", receipt.Reference)
	assert.Equal(t, "2026-03-03", receipt.RenewalOn)
}

func TestTrialRequested(t *testing.T) {
	svc, store, jobs := newTestService()

	req := &models.TrialRequest{
		FullName: "  Omar Haddad ",
		Email:    "omar@haddad-law.ae",
		Phone:    "+971 4 555 0101",
		FirmName: "Haddad & Partners",
		FirmSize: "10-50",
		Language: models.LangArabic,
	}
	require.NoError(t, svc.TrialRequested(context.Background(), req))

	require.Len(t, store.trials, 1)
	assert.Equal(t, "Omar Haddad", store.trials[0].FullName)
	assert.NotEmpty(t, store.trials[0].ID)
	assert.False(t, store.trials[0].CreatedAt.IsZero())
	assert.Equal(t, []queue.JobType{queue.JobTypeNotifySales, queue.JobTypePublishEvent}, jobs.types)
	assert.Contains(t, jobs.data[0]["subject"], "Haddad & Partners")
}

func TestTrialRequestedValidation(t *testing.T) {
	svc, store, _ := newTestService()

	err := svc.TrialRequested(context.Background(), &models.TrialRequest{
		FullName: "Omar",
		Email:    "omar@haddad-law.ae",
		Phone:    "+971 4 555 0101",
	})
	var ve *types.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "firmName", ve.Field)
	assert.Empty(t, store.trials)
}

func TestCheckoutExpiredKeepsPaidRecords(t *testing.T) {
	svc, store, _ := newTestService()
	ctx := context.Background()
	require.NoError(t, svc.ContactCaptured(ctx, record()))

	require.NoError(t, svc.CheckoutExpired(ctx, "chk-1"))
	assert.Equal(t, models.CheckoutStatusCancelled, store.statuses["chk-1"])

	store.statuses["chk-1"] = models.CheckoutStatusPaid
	require.NoError(t, svc.CheckoutExpired(ctx, "chk-1"))
	assert.Equal(t, models.CheckoutStatusPaid, store.statuses["chk-1"])

	assert.Error(t, svc.CheckoutExpired(ctx, "missing"))
}

func TestDirectPaymentCompletedInsertsThenMarksPaid(t *testing.T) {
	svc, store, jobs := newTestService()
	ctx := context.Background()
	rec := record()
	rec.SessionID = "direct-1f0c"
	outcome := models.PaymentOutcome{Completed: true, ProviderSessionID: "cs_direct", SubscriptionID: "sub_9"}

	require.NoError(t, svc.DirectPaymentCompleted(ctx, rec, models.PricingTier{Key: "professional", Name: "Professional Package", PriceMonthly: "349"}, outcome))

	require.Len(t, store.saved, 1)
	assert.Equal(t, "direct-1f0c", store.saved[0].SessionID)
	assert.Equal(t, models.CheckoutStatusPaid, store.statuses["direct-1f0c"])
	assert.Equal(t, 349.0, store.paid["direct-1f0c"])
	assert.Equal(t, []queue.JobType{queue.JobTypeSendReceipt, queue.JobTypePublishEvent}, jobs.types)

	found, err := svc.RecordByProviderSession(ctx, "cs_direct")
	require.NoError(t, err)
	assert.Equal(t, "direct-1f0c", found.SessionID)

	// A redelivered webhook does not send a second receipt.
	require.NoError(t, svc.DirectPaymentCompleted(ctx, rec, models.PricingTier{Key: "professional", PriceMonthly: "349"}, outcome))
	assert.Len(t, jobs.types, 2)
}
