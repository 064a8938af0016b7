package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"

	"lexcora-checkout-api/middleware"
	"lexcora-checkout-api/models"
	"lexcora-checkout-api/services/checkout"
	"lexcora-checkout-api/types"
	"lexcora-checkout-api/utils"
)

// CheckoutHandler exposes the guided checkout session over HTTP. The
// session is found through middleware.CheckoutAuth.
type CheckoutHandler struct {
	manager     *checkout.Manager
	auth        *middleware.CheckoutAuth
	frontendURL string
}

func NewCheckoutHandler(manager *checkout.Manager, auth *middleware.CheckoutAuth, frontendURL string) (*CheckoutHandler, error) {
	if manager == nil {
		return nil, fmt.Errorf("checkout manager is required")
	}
	if auth == nil {
		return nil, fmt.Errorf("checkout auth is required")
	}
	return &CheckoutHandler{manager: manager, auth: auth, frontendURL: frontendURL}, nil
}

type openCheckoutRequest struct {
	Tier         string `json:"tier"`
	BillingCycle string `json:"billingCycle"`
	Lang         string `json:"lang"`
}

type openCheckoutResponse struct {
	Token     string              `json:"token"`
	ExpiresAt time.Time           `json:"expires_at"`
	Checkout  models.CheckoutView `json:"checkout"`
}

func (h *CheckoutHandler) Open(w http.ResponseWriter, r *http.Request) {
	var req openCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	cycle, err := models.ParseBillingCycle(req.BillingCycle)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid billing cycle")
		return
	}
	lang := models.ParseLanguage(req.Lang)

	// Reopening replaces whatever session this browser had.
	if previous, err := h.auth.Resolve(r); err == nil {
		if err := h.manager.Close(previous); err == nil {
			log.Printf("Checkout %s replaced by a new checkout", previous)
		}
	}

	sess, err := h.manager.Open(r.Context(), req.Tier, cycle, lang)
	switch {
	case errors.Is(err, checkout.ErrUnknownTier):
		utils.SendErrorResponse(w, http.StatusNotFound, "Unknown pricing tier")
		return
	case errors.Is(err, checkout.ErrTierUnavailable):
		utils.SendErrorResponse(w, http.StatusConflict, "This plan cannot be purchased online. Please contact sales.")
		return
	case err != nil:
		log.Printf("Error opening checkout: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	token, expiresAt, err := h.auth.Attach(w, r, sess.ID())
	if err != nil {
		log.Printf("Error attaching checkout %s: %v", sess.ID(), err)
		h.manager.Close(sess.ID())
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Checkout opened",
		Data: openCheckoutResponse{
			Token:     token,
			ExpiresAt: expiresAt,
			Checkout:  sess.View(),
		},
	})
}

func (h *CheckoutHandler) Get(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, sess, nil)
}

func (h *CheckoutHandler) SubmitContact(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var info models.ContactInfo
	if err := json.NewDecoder(r.Body).Decode(&info); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.respond(w, sess, sess.SubmitContact(r.Context(), info))
}

func (h *CheckoutHandler) SubmitOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var req struct {
		Code string `json:"code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	h.respond(w, sess, sess.SubmitOTP(r.Context(), req.Code))
}

func (h *CheckoutHandler) ResendOTP(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, sess, sess.ResendOTP(r.Context()))
}

func (h *CheckoutHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}
	h.respond(w, sess, sess.Back())
}

func (h *CheckoutHandler) CompletePayment(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.session(w, r)
	if !ok {
		return
	}

	var input models.PaymentInput
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	h.respond(w, sess, sess.CompletePayment(r.Context(), input))
}

func (h *CheckoutHandler) Close(w http.ResponseWriter, r *http.Request) {
	id := middleware.CheckoutIDFromContext(r.Context())
	if err := h.manager.Close(id); err != nil && !errors.Is(err, checkout.ErrSessionNotFound) {
		log.Printf("Error closing checkout %s: %v", id, err)
	}
	h.auth.Clear(w, r)

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Checkout closed",
	})
}

// PaymentSuccessCallback is where the hosted payment page sends the buyer
// after paying. The payment is confirmed with the provider before the
// session moves to success.
func (h *CheckoutHandler) PaymentSuccessCallback(w http.ResponseWriter, r *http.Request) {
	checkoutID := r.URL.Query().Get("checkout")
	providerSessionID := r.URL.Query().Get("session_id")

	sess, err := h.manager.Get(checkoutID)
	if err != nil {
		// The webhook still records the payment for sessions this instance
		// no longer holds.
		log.Printf("Success callback for unknown checkout %s", checkoutID)
		h.redirectToFrontend(w, r, "pending")
		return
	}

	if err := sess.ConfirmRedirect(r.Context(), providerSessionID); err != nil {
		log.Printf("Checkout %s: confirming redirect payment failed: %v", checkoutID, err)
		h.redirectToFrontend(w, r, "failed")
		return
	}
	h.redirectToFrontend(w, r, "success")
}

func (h *CheckoutHandler) PaymentCancelCallback(w http.ResponseWriter, r *http.Request) {
	checkoutID := r.URL.Query().Get("checkout")

	if sess, err := h.manager.Get(checkoutID); err == nil {
		if err := sess.CancelRedirect(); err != nil {
			log.Printf("Checkout %s: cancel callback ignored: %v", checkoutID, err)
		}
	}
	h.redirectToFrontend(w, r, "cancel")
}

func (h *CheckoutHandler) redirectToFrontend(w http.ResponseWriter, r *http.Request, status string) {
	target := h.frontendURL
	if target == "" {
		target = "/"
	}
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}
	q := u.Query()
	q.Set("payment", status)
	u.RawQuery = q.Encode()
	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

func (h *CheckoutHandler) session(w http.ResponseWriter, r *http.Request) (*checkout.Session, bool) {
	id := middleware.CheckoutIDFromContext(r.Context())
	sess, err := h.manager.Get(id)
	if err != nil {
		h.auth.Clear(w, r)
		utils.SendErrorResponse(w, http.StatusNotFound, "Checkout session expired. Please start again.")
		return nil, false
	}
	return sess, true
}

// respond writes the session view. Failed actions still carry the view so
// the client can render the localized error it holds.
func (h *CheckoutHandler) respond(w http.ResponseWriter, sess *checkout.Session, err error) {
	view := sess.View()
	if err == nil {
		utils.SendSuccessResponse(w, models.APIResponse{
			Status:  "success",
			Message: view.Step.String(),
			Data:    view,
		})
		return
	}

	status, message := checkoutErrorStatus(err)
	if view.Error != "" {
		message = view.Error
	}
	utils.SendErrorWithData(w, status, message, view)
}

func checkoutErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, checkout.ErrBusy):
		return http.StatusConflict, "A request is already in progress"
	case errors.Is(err, checkout.ErrSessionReset):
		return http.StatusConflict, "The checkout changed while the request was in flight"
	case errors.Is(err, checkout.ErrInvalidTransition):
		return http.StatusConflict, "This action is not available at the current step"
	case errors.Is(err, checkout.ErrPaymentLocked):
		return http.StatusConflict, "A payment for this checkout is already being processed"
	case errors.Is(err, checkout.ErrTierUnavailable):
		return http.StatusConflict, "This plan cannot be purchased online"
	case errors.Is(err, checkout.ErrInvalidCode):
		return http.StatusUnprocessableEntity, "Invalid verification code"
	case errors.Is(err, checkout.ErrPaymentIncomplete):
		return http.StatusPaymentRequired, "Payment was not completed"
	case types.IsValidation(err):
		return http.StatusBadRequest, err.Error()
	case types.IsTransport(err):
		return http.StatusBadGateway, "Upstream service unavailable"
	case types.ProviderMessage(err) != "":
		return http.StatusPaymentRequired, types.ProviderMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
