package handlers

import (
	"context"
	"crypto/subtle"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"lexcora-checkout-api/models"
	"lexcora-checkout-api/queue"
	"lexcora-checkout-api/utils"
)

type JobAdmin interface {
	Stats(ctx context.Context) (queue.Stats, error)
	RetryJob(ctx context.Context, jobID string) error
}

type SessionCounter interface {
	Len() int
}

// InternalHandler serves operator endpoints guarded by X-Internal-Secret.
// With no secret configured every request is refused.
type InternalHandler struct {
	internalSecret string
	jobs           JobAdmin
	sessions       SessionCounter
}

func NewInternalHandler(secret string, jobs JobAdmin, sessions SessionCounter) *InternalHandler {
	if secret == "" {
		log.Printf("Warning: INTERNAL_API_SECRET not set, internal endpoints disabled")
	}
	return &InternalHandler{internalSecret: secret, jobs: jobs, sessions: sessions}
}

func (h *InternalHandler) RequireInternalSecret(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		secret := r.Header.Get("X-Internal-Secret")
		if h.internalSecret == "" || secret == "" ||
			subtle.ConstantTimeCompare([]byte(secret), []byte(h.internalSecret)) != 1 {
			log.Printf("Invalid or missing internal secret from %s", r.RemoteAddr)
			utils.SendErrorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	}
}

func (h *InternalHandler) QueueStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.jobs.Stats(r.Context())
	if err != nil {
		log.Printf("Error reading queue stats: %v", err)
		utils.SendErrorResponse(w, http.StatusServiceUnavailable, "Queue unavailable")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Queue stats retrieved",
		Data: map[string]interface{}{
			"queue":            stats,
			"active_checkouts": h.sessions.Len(),
			"timestamp":        time.Now().UTC().Format(time.RFC3339),
		},
	})
}

func (h *InternalHandler) RetryJob(w http.ResponseWriter, r *http.Request) {
	jobID := mux.Vars(r)["id"]
	if jobID == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Job id is required")
		return
	}

	if err := h.jobs.RetryJob(r.Context(), jobID); err != nil {
		if errors.Is(err, queue.ErrJobNotFound) {
			utils.SendErrorResponse(w, http.StatusNotFound, "Job not found in failed queue")
			return
		}
		log.Printf("Error retrying job %s: %v", jobID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Job requeued",
	})
}
