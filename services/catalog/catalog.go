package catalog

import (
	"context"
	"log"
	"sync"
	"time"

	"lexcora-checkout-api/config"
	"lexcora-checkout-api/models"
)

// TierSource supplies tiers from storage. An empty result falls back to
// the built-in tiers.
type TierSource interface {
	GetPricingTiers(ctx context.Context, lang models.Language) ([]models.PricingTier, error)
}

type cacheEntry struct {
	tiers    []models.PricingTier
	loadedAt time.Time
}

type Catalog struct {
	source   TierSource
	refs     map[string]config.PriceRefs
	cacheTTL time.Duration

	mu    sync.Mutex
	cache map[models.Language]cacheEntry
}

// New builds a catalog. source may be nil.
func New(source TierSource, refs map[string]config.PriceRefs) *Catalog {
	return &Catalog{
		source:   source,
		refs:     refs,
		cacheTTL: 5 * time.Minute,
		cache:    make(map[models.Language]cacheEntry),
	}
}

// Tiers returns the tiers shown for lang, in display order.
func (c *Catalog) Tiers(ctx context.Context, lang models.Language) []models.PricingTier {
	if lang != models.LangArabic {
		lang = models.LangEnglish
	}

	c.mu.Lock()
	entry, ok := c.cache[lang]
	c.mu.Unlock()
	if ok && time.Since(entry.loadedAt) < c.cacheTTL {
		return copyTiers(entry.tiers)
	}

	tiers := c.load(ctx, lang)

	c.mu.Lock()
	c.cache[lang] = cacheEntry{tiers: tiers, loadedAt: time.Now()}
	c.mu.Unlock()

	return copyTiers(tiers)
}

func (c *Catalog) load(ctx context.Context, lang models.Language) []models.PricingTier {
	var tiers []models.PricingTier
	if c.source != nil {
		stored, err := c.source.GetPricingTiers(ctx, lang)
		if err != nil {
			log.Printf("Error loading pricing tiers (%s), using built-in catalog: %v", lang, err)
		} else {
			tiers = stored
		}
	}
	if len(tiers) == 0 {
		tiers = copyTiers(builtinTiers[lang])
	}

	for i := range tiers {
		refs, ok := c.refs[tiers[i].Key]
		if !ok {
			continue
		}
		if tiers[i].PriceRefMonthly == "" {
			tiers[i].PriceRefMonthly = refs.Monthly
		}
		if tiers[i].PriceRefAnnually == "" {
			tiers[i].PriceRefAnnually = refs.Annually
		}
	}
	return tiers
}

// Find looks a tier up by key.
func (c *Catalog) Find(ctx context.Context, key string, lang models.Language) (models.PricingTier, bool) {
	for _, t := range c.Tiers(ctx, lang) {
		if t.Key == key {
			return t, true
		}
	}
	return models.PricingTier{}, false
}

// Invalidate drops cached tiers so the next read hits the source.
func (c *Catalog) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[models.Language]cacheEntry)
}

func copyTiers(in []models.PricingTier) []models.PricingTier {
	out := make([]models.PricingTier, len(in))
	for i, t := range in {
		t.Features = append([]string(nil), t.Features...)
		out[i] = t
	}
	return out
}
