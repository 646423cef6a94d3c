package app

import (
	"sync"
	"time"

	"github.com/fd1az/streamfeed/business/streaming/domain"
)

// SubscriptionRegistry is the in-memory set of subscription descriptors
// for one client. It survives reconnects and drives replay; entries are
// never deleted on unsubscribe, only marked inactive, so post-unsubscribe
// bookkeeping remains inspectable. It owns its own lock rather than
// referencing the client back, breaking the registry/client reference
// cycle the design notes call out.
type SubscriptionRegistry struct {
	mu    sync.Mutex
	order []domain.SubscriptionKey
	byKey map[domain.SubscriptionKey]*domain.Subscription
}

// NewSubscriptionRegistry returns an empty registry.
func NewSubscriptionRegistry() *SubscriptionRegistry {
	return &SubscriptionRegistry{
		byKey: make(map[domain.SubscriptionKey]*domain.Subscription),
	}
}

// GetOrCreate returns the existing descriptor for (channel, symbol,
// extra) or creates one in insertion order.
func (r *SubscriptionRegistry) GetOrCreate(channel domain.Channel, symbol, extra string) *domain.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := domain.SubscriptionKey{Channel: channel, Symbol: symbol, Extra: extra}
	if sub, ok := r.byKey[key]; ok {
		return sub
	}

	now := time.Now()
	sub := &domain.Subscription{
		Channel:   channel,
		Symbol:    symbol,
		Extra:     extra,
		CreatedAt: now,
	}
	r.byKey[key] = sub
	r.order = append(r.order, key)
	return sub
}

// MarkActive marks a descriptor active and stamps SubscribedAt.
func (r *SubscriptionRegistry) MarkActive(sub *domain.Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sub.IsActive = true
	sub.SubscribedAt = time.Now()
	sub.LastUpdateAt = sub.SubscribedAt
}

// MarkInactive marks a descriptor inactive without removing it.
func (r *SubscriptionRegistry) MarkInactive(channel domain.Channel, symbol, extra string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := domain.SubscriptionKey{Channel: channel, Symbol: symbol, Extra: extra}
	if sub, ok := r.byKey[key]; ok {
		sub.IsActive = false
		sub.LastUpdateAt = time.Now()
	}
}

// Active returns every active descriptor, in insertion order, for replay
// after a reconnect.
func (r *SubscriptionRegistry) Active() []*domain.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Subscription, 0, len(r.order))
	for _, key := range r.order {
		if sub := r.byKey[key]; sub != nil && sub.IsActive {
			out = append(out, sub)
		}
	}
	return out
}

// All returns every descriptor ever created, active or not, in insertion
// order.
func (r *SubscriptionRegistry) All() []*domain.Subscription {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]*domain.Subscription, 0, len(r.order))
	for _, key := range r.order {
		out = append(out, r.byKey[key])
	}
	return out
}
