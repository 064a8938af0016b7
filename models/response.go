package models

type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ProviderResponse is the {success, message} envelope used by the OTP,
// checkout-session and subscription endpoints.
type ProviderResponse struct {
	Success        bool   `json:"success"`
	Message        string `json:"message,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
	URL            string `json:"url,omitempty"`
	SubscriptionID string `json:"subscriptionId,omitempty"`
}
