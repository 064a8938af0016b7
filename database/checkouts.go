package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"

	"lexcora-checkout-api/models"
)

var ErrCheckoutNotFound = errors.New("checkout record not found")

// SaveCheckoutContact inserts the record for a checkout session or refreshes
// its contact fields when the buyer went back and changed them.
func (c *Connection) SaveCheckoutContact(ctx context.Context, rec *models.CheckoutRecord) error {
	_, err := c.db.ExecContext(ctx, `
        INSERT INTO checkout_records (
            session_id, name, email, phone, tier, billing_cycle,
            lang, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
        ON DUPLICATE KEY UPDATE
            name = VALUES(name),
            email = VALUES(email),
            phone = VALUES(phone),
            updated_at = NOW()
    `,
		rec.SessionID, rec.Name, rec.Email, rec.Phone, rec.TierKey,
		string(rec.Cycle), string(rec.Language), string(models.CheckoutStatusPending),
	)
	if err != nil {
		log.Printf("Error saving checkout contact for session %s: %v", rec.SessionID, err)
		return fmt.Errorf("error saving checkout contact: %w", err)
	}
	return nil
}

func (c *Connection) UpdateCheckoutStatus(ctx context.Context, sessionID string, status models.CheckoutStatus) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid checkout status: %q", status)
	}

	result, err := c.db.ExecContext(ctx, `
        UPDATE checkout_records
        SET status = ?, updated_at = NOW()
        WHERE session_id = ? AND status <> 'paid'
    `, string(status), sessionID)
	if err != nil {
		return fmt.Errorf("error updating checkout status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}
	if rows == 0 {
		log.Printf("No checkout record updated for session %s (status %s)", sessionID, status)
	}
	return nil
}

// SetProviderSession stores the hosted checkout session id created for a record.
func (c *Connection) SetProviderSession(ctx context.Context, sessionID, providerSessionID string) error {
	_, err := c.db.ExecContext(ctx, `
        UPDATE checkout_records
        SET provider_session_id = ?, updated_at = NOW()
        WHERE session_id = ?
    `, providerSessionID, sessionID)
	if err != nil {
		return fmt.Errorf("error storing provider session: %w", err)
	}
	return nil
}

func (c *Connection) GetCheckoutRecord(ctx context.Context, sessionID string) (*models.CheckoutRecord, error) {
	return c.scanRecord(c.db.QueryRowContext(ctx, selectCheckoutRecord+` WHERE session_id = ?`, sessionID))
}

func (c *Connection) FindCheckoutByProviderSession(ctx context.Context, providerSessionID string) (*models.CheckoutRecord, error) {
	return c.scanRecord(c.db.QueryRowContext(ctx, selectCheckoutRecord+` WHERE provider_session_id = ?`, providerSessionID))
}

const selectCheckoutRecord = `
        SELECT session_id, name, email, phone, tier, billing_cycle, lang, status,
               COALESCE(provider_session_id, ''), COALESCE(subscription_id, ''),
               created_at, updated_at
        FROM checkout_records`

func (c *Connection) scanRecord(row *sql.Row) (*models.CheckoutRecord, error) {
	var rec models.CheckoutRecord
	var cycle, lang, status string
	err := row.Scan(
		&rec.SessionID,
		&rec.Name,
		&rec.Email,
		&rec.Phone,
		&rec.TierKey,
		&cycle,
		&lang,
		&status,
		&rec.ProviderSessionID,
		&rec.SubscriptionID,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, ErrCheckoutNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading checkout record: %w", err)
	}
	rec.Cycle = models.BillingCycle(cycle)
	rec.Language = models.Language(lang)
	rec.Status = models.CheckoutStatus(status)
	return &rec, nil
}
