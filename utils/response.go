package utils

import (
	"encoding/json"
	"net/http"

	"lexcora-checkout-api/models"
)

func SendErrorResponse(w http.ResponseWriter, status int, message string) {
	SendJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
	})
}

// SendErrorWithData is an error response that still carries a payload, used
// when the client needs the current checkout view to re-render.
func SendErrorWithData(w http.ResponseWriter, status int, message string, data interface{}) {
	SendJSON(w, status, models.APIResponse{
		Status:  "error",
		Message: message,
		Data:    data,
	})
}

func SendSuccessResponse(w http.ResponseWriter, response models.APIResponse) {
	SendJSON(w, http.StatusOK, response)
}

// SendProviderResponse writes the {success, message} envelope. Business
// failures are reported with 200 and success=false, like the frontend expects.
func SendProviderResponse(w http.ResponseWriter, status int, response models.ProviderResponse) {
	SendJSON(w, status, response)
}

func SendJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
