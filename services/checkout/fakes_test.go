package checkout

import (
	"context"
	"sync"
	"time"

	"lexcora-checkout-api/models"
)

// gate blocks a fake call until released or the context ends.
type gate struct {
	once    sync.Once
	release chan struct{}
	entered chan struct{}
}

func newGate() *gate {
	return &gate{release: make(chan struct{}), entered: make(chan struct{}, 8)}
}

func (g *gate) wait(ctx context.Context) error {
	if g == nil {
		return nil
	}
	g.entered <- struct{}{}
	select {
	case <-g.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *gate) open() {
	g.once.Do(func() { close(g.release) })
}

type fakeOTP struct {
	mu        sync.Mutex
	code      string
	issueErr  error
	verifyErr error
	issues    int
	verifies  int
	issueGate *gate
	lastReq   models.OTPRequest
}

func (f *fakeOTP) Issue(ctx context.Context, req models.OTPRequest) error {
	if err := f.issueGate.wait(ctx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.issues++
	f.lastReq = req
	return f.issueErr
}

func (f *fakeOTP) Verify(ctx context.Context, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifies++
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return code == f.code, nil
}

func (f *fakeOTP) issueCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.issues
}

type fakePayment struct {
	mu             sync.Mutex
	outcome        models.PaymentOutcome
	err            error
	confirmOutcome models.PaymentOutcome
	confirmErr     error
	beginGate      *gate
	orders         []models.PaymentOrder
	confirmed      []string
}

func (f *fakePayment) Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	if err := f.beginGate.wait(ctx); err != nil {
		return models.PaymentOutcome{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return f.outcome, f.err
}

func (f *fakePayment) Confirm(ctx context.Context, providerSessionID string) (models.PaymentOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, providerSessionID)
	return f.confirmOutcome, f.confirmErr
}

type fakeRecorder struct {
	mu        sync.Mutex
	contacts  []models.CheckoutRecord
	verified  []string
	started   []string
	completed []models.CheckoutRecord
	err       error
}

func (f *fakeRecorder) ContactCaptured(ctx context.Context, rec models.CheckoutRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, rec)
	return f.err
}

func (f *fakeRecorder) CodeVerified(ctx context.Context, checkoutID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verified = append(f.verified, checkoutID)
	return f.err
}

func (f *fakeRecorder) PaymentStarted(ctx context.Context, checkoutID string, outcome models.PaymentOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, checkoutID)
	return f.err
}

func (f *fakeRecorder) PaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, rec)
	return f.err
}

func (f *fakeRecorder) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

type fakeLocker struct {
	mu       sync.Mutex
	held     bool
	refuse   bool
	released int
}

func (f *fakeLocker) LockCheckout(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.refuse || f.held {
		return false, nil
	}
	f.held = true
	return true, nil
}

func (f *fakeLocker) ReleaseLock(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.held = false
	f.released++
	return nil
}

type fakeCatalog map[string]models.PricingTier

func (c fakeCatalog) Find(ctx context.Context, key string, lang models.Language) (models.PricingTier, bool) {
	t, ok := c[key]
	return t, ok
}

var professional = models.PricingTier{
	Key:              "professional",
	Name:             "Professional Package",
	Stars:            3,
	PriceMonthly:     "349",
	PriceAnnually:    "3,490",
	PriceRefMonthly:  "price_pro_m",
	PriceRefAnnually: "price_pro_y",
}

var testCatalog = fakeCatalog{
	"professional": professional,
	"enterprise":   {Key: "enterprise", Name: "Enterprise Package", PriceMonthly: "500+", PriceAnnually: "Custom"},
}

type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}
