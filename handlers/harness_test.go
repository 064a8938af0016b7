package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"

	"lexcora-checkout-api/config"
	"lexcora-checkout-api/database"
	"lexcora-checkout-api/middleware"
	"lexcora-checkout-api/models"
	authsvc "lexcora-checkout-api/services/auth"
	"lexcora-checkout-api/services/catalog"
	"lexcora-checkout-api/services/checkout"
)

type fakeIssuer struct {
	mu        sync.Mutex
	code      string
	issueErr  error
	verifyErr error
	issued    []models.OTPRequest
}

func (f *fakeIssuer) Issue(ctx context.Context, req models.OTPRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.issueErr != nil {
		return f.issueErr
	}
	f.issued = append(f.issued, req)
	return nil
}

func (f *fakeIssuer) Verify(ctx context.Context, email, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.verifyErr != nil {
		return false, f.verifyErr
	}
	return code == f.code, nil
}

type fakeHandoff struct {
	mu         sync.Mutex
	begin      models.PaymentOutcome
	beginErr   error
	confirm    models.PaymentOutcome
	confirmErr error
	orders     []models.PaymentOrder
	confirmed  []string
}

func (f *fakeHandoff) Begin(ctx context.Context, order models.PaymentOrder) (models.PaymentOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders = append(f.orders, order)
	return f.begin, f.beginErr
}

func (f *fakeHandoff) Confirm(ctx context.Context, id string) (models.PaymentOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, id)
	return f.confirm, f.confirmErr
}

// fakeRecords is both the session recorder and the webhook's record store.
type fakeRecords struct {
	mu        sync.Mutex
	records   map[string]*models.CheckoutRecord
	completed []models.CheckoutRecord
	tiers     []models.PricingTier
	expired   []string
	direct    []models.CheckoutRecord
}

func newFakeRecords() *fakeRecords {
	return &fakeRecords{records: map[string]*models.CheckoutRecord{}}
}

func (f *fakeRecords) ContactCaptured(ctx context.Context, rec models.CheckoutRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records[rec.SessionID] = &rec
	return nil
}

func (f *fakeRecords) CodeVerified(ctx context.Context, id string) error { return nil }

func (f *fakeRecords) PaymentStarted(ctx context.Context, id string, outcome models.PaymentOutcome) error {
	return nil
}

func (f *fakeRecords) PaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.completed = append(f.completed, rec)
	f.tiers = append(f.tiers, tier)
	return nil
}

func (f *fakeRecords) Record(ctx context.Context, id string) (*models.CheckoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, database.ErrCheckoutNotFound
	}
	copied := *rec
	return &copied, nil
}

func (f *fakeRecords) RecordByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, rec := range f.records {
		if rec.ProviderSessionID == providerSessionID {
			copied := *rec
			return &copied, nil
		}
	}
	return nil, database.ErrCheckoutNotFound
}

func (f *fakeRecords) DirectPaymentCompleted(ctx context.Context, rec models.CheckoutRecord, tier models.PricingTier, outcome models.PaymentOutcome) error {
	f.mu.Lock()
	f.records[rec.SessionID] = &rec
	f.direct = append(f.direct, rec)
	f.mu.Unlock()
	return f.PaymentCompleted(ctx, rec, tier, outcome)
}

func (f *fakeRecords) CheckoutExpired(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.expired = append(f.expired, id)
	return nil
}

func (f *fakeRecords) completedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.completed)
}

const (
	testFrontendURL = "https://lexcora.ae"
	testCode        = "482913"
)

type harness struct {
	router  *mux.Router
	manager *checkout.Manager
	catalog *catalog.Catalog
	otp     *fakeIssuer
	handoff *fakeHandoff
	records *fakeRecords
}

func testCatalog() *catalog.Catalog {
	return catalog.New(nil, map[string]config.PriceRefs{
		"starter":      {Monthly: "price_starter_m", Annually: "price_starter_y"},
		"professional": {Monthly: "price_pro_m", Annually: "price_pro_y"},
	})
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	h := &harness{
		catalog: testCatalog(),
		otp:     &fakeIssuer{code: testCode},
		handoff: &fakeHandoff{},
		records: newFakeRecords(),
	}
	h.manager = checkout.NewManager(h.catalog, checkout.Deps{
		OTP:             h.otp,
		Payment:         h.handoff,
		Recorder:        h.records,
		RequestTimeout:  time.Second,
		CallbackBaseURL: "https://api.lexcora.ae",
	}, checkout.Options{})
	t.Cleanup(h.manager.Stop)

	auth := middleware.NewCheckoutAuth(
		authsvc.NewJWTService("test-secret", "lexcora-checkout-api", time.Minute),
		middleware.NewCookieStore(middleware.CookieOptions{Secret: "0123456789abcdef0123456789abcdef", MaxAge: 1800}),
	)
	ch, err := NewCheckoutHandler(h.manager, auth, testFrontendURL)
	require.NoError(t, err)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/checkout/open", ch.Open).Methods("POST")
	api.HandleFunc("/checkout/callback/success", ch.PaymentSuccessCallback).Methods("GET")
	api.HandleFunc("/checkout/callback/cancel", ch.PaymentCancelCallback).Methods("GET")

	session := api.PathPrefix("/checkout").Subrouter()
	session.Use(auth.RequireCheckout())
	session.HandleFunc("", ch.Get).Methods("GET")
	session.HandleFunc("/contact", ch.SubmitContact).Methods("POST")
	session.HandleFunc("/otp", ch.SubmitOTP).Methods("POST")
	session.HandleFunc("/otp/resend", ch.ResendOTP).Methods("POST")
	session.HandleFunc("/back", ch.Back).Methods("POST")
	session.HandleFunc("/payment", ch.CompletePayment).Methods("POST")
	session.HandleFunc("/close", ch.Close).Methods("POST")

	h.router = router
	return h
}

func (h *harness) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// viewJSON mirrors models.CheckoutView as the client receives it.
type viewJSON struct {
	SessionID   string `json:"session_id"`
	Step        string `json:"step"`
	MaskedEmail string `json:"masked_email"`
	Price       string `json:"price"`
	EnteredCode string `json:"entered_code"`
	OTPSends    int    `json:"otp_sends"`
	Error       string `json:"error"`
	Processing  bool   `json:"processing"`
	RedirectURL string `json:"redirect_url"`
	Tier        *struct {
		Key string `json:"key"`
	} `json:"tier"`
}

func decodeView(t *testing.T, rec *httptest.ResponseRecorder) (envelope, viewJSON) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	var view viewJSON
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &view))
	}
	return env, view
}

// open starts a checkout and returns its bearer token and id.
func (h *harness) open(t *testing.T, tier, cycle, lang string) (string, string) {
	t.Helper()
	rec := h.do(t, http.MethodPost, "/api/checkout/open", "", map[string]string{
		"tier": tier, "billingCycle": cycle, "lang": lang,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	var data struct {
		Token    string   `json:"token"`
		Checkout viewJSON `json:"checkout"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token, data.Checkout.SessionID
}

func validContact() map[string]string {
	return map[string]string{
		"name":  "Mona Saleh",
		"email": "mona@saleh-legal.ae",
		"phone": "+971 50 123 4567",
	}
}

// toPayment drives a fresh checkout to the payment step.
func (h *harness) toPayment(t *testing.T) (string, string) {
	t.Helper()
	token, id := h.open(t, "professional", "monthly", "en")
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/checkout/contact", token, validContact()).Code)
	require.Equal(t, http.StatusOK, h.do(t, http.MethodPost, "/api/checkout/otp", token, map[string]string{"code": testCode}).Code)
	return token, id
}

func jsonBody(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}
