package middleware

import (
	"context"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/sessions"

	"lexcora-checkout-api/services/auth"
	"lexcora-checkout-api/utils"
)

const (
	CheckoutCookieName = "lexcora-checkout"
	checkoutSessionKey = "checkout_id"
)

type contextKey string

const CheckoutContextKey contextKey = "checkout_id"

var ErrNoCheckout = errors.New("no checkout session")

type CookieOptions struct {
	Secret string
	Domain string
	MaxAge int
	Secure bool
}

// NewCookieStore builds the signed cookie store that carries the checkout id.
func NewCookieStore(opts CookieOptions) *sessions.CookieStore {
	secret := opts.Secret
	if secret == "" {
		secret = utils.GenerateRandomString(32)
	}
	store := sessions.NewCookieStore([]byte(secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   opts.Domain,
		MaxAge:   opts.MaxAge,
		Secure:   opts.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}
	return store
}

// CheckoutAuth binds requests to a checkout session, either through the
// session cookie or an "Authorization: Bearer" checkout token.
type CheckoutAuth struct {
	jwt   *auth.JWTService
	store sessions.Store
}

func NewCheckoutAuth(jwtService *auth.JWTService, store sessions.Store) *CheckoutAuth {
	return &CheckoutAuth{jwt: jwtService, store: store}
}

// Attach stores checkoutID in the cookie and returns a bearer token for the
// same session.
func (a *CheckoutAuth) Attach(w http.ResponseWriter, r *http.Request, checkoutID string) (string, time.Time, error) {
	sess, err := a.store.Get(r, CheckoutCookieName)
	if err != nil {
		log.Printf("Discarding unreadable checkout cookie from %s: %v", r.RemoteAddr, err)
	}
	sess.Values[checkoutSessionKey] = checkoutID
	if err := sess.Save(r, w); err != nil {
		return "", time.Time{}, err
	}
	return a.jwt.GenerateToken(checkoutID)
}

// Clear expires the checkout cookie.
func (a *CheckoutAuth) Clear(w http.ResponseWriter, r *http.Request) {
	sess, _ := a.store.Get(r, CheckoutCookieName)
	sess.Options.MaxAge = -1
	delete(sess.Values, checkoutSessionKey)
	if err := sess.Save(r, w); err != nil {
		log.Printf("Error clearing checkout cookie: %v", err)
	}
}

// Resolve returns the checkout id of the request. A bearer token wins over
// the cookie.
func (a *CheckoutAuth) Resolve(r *http.Request) (string, error) {
	if authHeader := r.Header.Get("Authorization"); authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			return "", auth.ErrInvalidToken
		}
		return a.jwt.ValidateToken(parts[1])
	}

	sess, err := a.store.Get(r, CheckoutCookieName)
	if err != nil {
		return "", ErrNoCheckout
	}
	id, ok := sess.Values[checkoutSessionKey].(string)
	if !ok || id == "" {
		return "", ErrNoCheckout
	}
	return id, nil
}

// RequireCheckout rejects requests that carry no checkout session.
func (a *CheckoutAuth) RequireCheckout() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := a.Resolve(r)
			if err != nil {
				log.Printf("Checkout session resolution failed from %s: %v", r.RemoteAddr, err)

				var message string
				switch err {
				case auth.ErrTokenExpired:
					message = "Checkout session expired"
				case auth.ErrInvalidToken:
					message = "Invalid checkout token"
				default:
					message = "No active checkout session"
				}

				utils.SendErrorResponse(w, http.StatusUnauthorized, message)
				return
			}

			ctx := context.WithValue(r.Context(), CheckoutContextKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// CheckoutIDFromContext returns the id put there by RequireCheckout.
func CheckoutIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(CheckoutContextKey).(string)
	return id
}
