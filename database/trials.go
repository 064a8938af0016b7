package database

import (
	"context"
	"fmt"

	"lexcora-checkout-api/models"
)

func (c *Connection) SaveTrialRequest(ctx context.Context, req *models.TrialRequest) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO trial_requests (
            id, full_name, email, phone, firm_name, firm_size, lang, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
    `, req.ID, req.FullName, req.Email, req.Phone, req.FirmName, req.FirmSize,
		string(req.Language), req.CreatedAt)
	if err != nil {
		return fmt.Errorf("error saving trial request: %w", err)
	}
	return nil
}
