package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	"lexcora-checkout-api/models"
)

type Transaction struct {
	tx *sql.Tx
}

func (t *Transaction) Commit() error {
	return t.tx.Commit()
}

func (t *Transaction) Rollback() error {
	return t.tx.Rollback()
}

// MarkCheckoutPaid flips a record to paid and stores the provider references.
// It is idempotent: a record that is already paid is left as is.
func (t *Transaction) MarkCheckoutPaid(ctx context.Context, sessionID string, outcome models.PaymentOutcome) (bool, error) {
	result, err := t.tx.ExecContext(ctx, `
        UPDATE checkout_records
        SET status = 'paid',
            provider_session_id = COALESCE(NULLIF(?, ''), provider_session_id),
            subscription_id = COALESCE(NULLIF(?, ''), subscription_id),
            updated_at = NOW()
        WHERE session_id = ? AND status <> 'paid'
    `, outcome.ProviderSessionID, outcome.SubscriptionID, sessionID)
	if err != nil {
		return false, fmt.Errorf("failed to mark checkout paid: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

// SavePaymentRecord appends the provider-side references of a completed payment.
func (t *Transaction) SavePaymentRecord(ctx context.Context, sessionID string, outcome models.PaymentOutcome, amount float64) error {
	_, err := t.tx.ExecContext(ctx, `
        INSERT INTO checkout_payments (
            session_id, provider_session_id, subscription_id, customer_id, amount, created_at
        ) VALUES (?, ?, ?, ?, ?, NOW())
    `, sessionID, outcome.ProviderSessionID, outcome.SubscriptionID, outcome.CustomerID, amount)
	if err != nil {
		log.Printf("Error saving payment record for session %s: %v", sessionID, err)
		return fmt.Errorf("failed to save payment record: %w", err)
	}
	return nil
}

// MarkPaid records a completed payment in one transaction. It reports false
// when the record was already paid, in which case nothing is written.
func (c *Connection) MarkPaid(ctx context.Context, sessionID string, outcome models.PaymentOutcome, amount float64) (bool, error) {
	tx, err := c.BeginTransaction(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	changed, err := tx.MarkCheckoutPaid(ctx, sessionID, outcome)
	if err != nil {
		return false, err
	}
	if !changed {
		return false, nil
	}

	if err := tx.SavePaymentRecord(ctx, sessionID, outcome, amount); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit payment: %w", err)
	}
	return true, nil
}
