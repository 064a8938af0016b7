package models

import "time"

// TrialRequest is a free-trial signup submitted from the marketing site.
type TrialRequest struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	FirmName  string    `json:"firmName"`
	FirmSize  string    `json:"firmSize"`
	Language  Language  `json:"lang"`
	CreatedAt time.Time `json:"created_at"`
}
