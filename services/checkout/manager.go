package checkout

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"lexcora-checkout-api/models"
)

// Catalog resolves the tier a checkout is opened for.
type Catalog interface {
	Find(ctx context.Context, key string, lang models.Language) (models.PricingTier, bool)
}

type Options struct {
	SessionTTL      time.Duration
	JanitorInterval time.Duration
}

// Manager owns every live checkout session.
type Manager struct {
	catalog Catalog
	deps    *Deps
	ttl     time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session

	stop     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

func NewManager(catalog Catalog, deps Deps, opts Options) *Manager {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 30 * time.Minute
	}
	m := &Manager{
		catalog:  catalog,
		deps:     &deps,
		ttl:      opts.SessionTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
		stop:     make(chan struct{}),
	}
	if opts.JanitorInterval > 0 {
		m.wg.Add(1)
		go m.janitor(opts.JanitorInterval)
	}
	return m
}

// Open creates a session at the contact step. The tier must exist and carry
// a price reference for the cycle.
func (m *Manager) Open(ctx context.Context, tierKey string, cycle models.BillingCycle, lang models.Language) (*Session, error) {
	tier, ok := m.catalog.Find(ctx, tierKey, lang)
	if !ok {
		return nil, ErrUnknownTier
	}
	if !tier.Purchasable(cycle) {
		return nil, ErrTierUnavailable
	}

	s := newSession(uuid.New().String(), m.deps, m.now)
	if err := s.Open(tier, cycle, lang); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Close resets the session and forgets it.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	s.Close()
	log.Printf("Checkout %s closed", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Sweep closes sessions idle longer than the TTL. Sessions with a request
// in flight are left alone.
func (m *Manager) Sweep() int {
	now := m.now()

	m.mu.RLock()
	var expired []string
	for id, s := range m.sessions {
		idle, busy := s.idleSince(now)
		if !busy && idle > m.ttl {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		m.Close(id)
	}
	if len(expired) > 0 {
		log.Printf("Swept %d idle checkout sessions", len(expired))
	}
	return len(expired)
}

func (m *Manager) janitor(interval time.Duration) {
	defer m.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.Sweep()
		case <-m.stop:
			return
		}
	}
}

// Stop ends the janitor goroutine.
func (m *Manager) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
	m.wg.Wait()
}
