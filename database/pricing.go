package database

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"lexcora-checkout-api/models"
)

// GetPricingTiers loads the tiers of one language ordered for display. An
// empty result means the built-in catalog should be used.
func (c *Connection) GetPricingTiers(ctx context.Context, lang models.Language) ([]models.PricingTier, error) {
	rows, err := c.db.QueryContext(ctx, `
        SELECT tier_key, name, stars, price_monthly, price_annually, period_label,
               min_users, features_json, highlight, cta,
               COALESCE(price_ref_monthly, ''), COALESCE(price_ref_annually, '')
        FROM pricing_tiers
        WHERE lang = ? AND deleted_at IS NULL
        ORDER BY position ASC
    `, string(lang))
	if err != nil {
		return nil, fmt.Errorf("error querying pricing tiers: %w", err)
	}
	defer rows.Close()

	var tiers []models.PricingTier
	for rows.Next() {
		var tier models.PricingTier
		var featuresJSON string
		var highlight int
		if err := rows.Scan(
			&tier.Key,
			&tier.Name,
			&tier.Stars,
			&tier.PriceMonthly,
			&tier.PriceAnnually,
			&tier.PeriodLabel,
			&tier.MinUsers,
			&featuresJSON,
			&highlight,
			&tier.CTA,
			&tier.PriceRefMonthly,
			&tier.PriceRefAnnually,
		); err != nil {
			return nil, fmt.Errorf("error scanning pricing tier: %w", err)
		}
		if err := json.Unmarshal([]byte(featuresJSON), &tier.Features); err != nil {
			log.Printf("Warning: invalid features json for tier %s (%s): %v", tier.Key, lang, err)
			tier.Features = nil
		}
		tier.Highlight = highlight == 1
		tiers = append(tiers, tier)
	}

	return tiers, rows.Err()
}
