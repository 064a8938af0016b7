package models

// OTPRequest asks the issuer to deliver a one-time code to an email address.
type OTPRequest struct {
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Lang  Language `json:"lang"`
}
