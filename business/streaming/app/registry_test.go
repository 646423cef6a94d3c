package app

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
)

func TestGetOrCreateIsIdempotentPerKey(t *testing.T) {
	r := NewSubscriptionRegistry()
	a := r.GetOrCreate(domain.ChannelTicker, "BTC/USD", "")
	b := r.GetOrCreate(domain.ChannelTicker, "BTC/USD", "")
	if a != b {
		t.Fatal("expected the same *Subscription for a repeated key")
	}
}

func TestActiveOnlyReturnsMarkedDescriptorsInInsertionOrder(t *testing.T) {
	r := NewSubscriptionRegistry()
	s1 := r.GetOrCreate(domain.ChannelTicker, "BTC/USD", "")
	s2 := r.GetOrCreate(domain.ChannelOrderbook, "ETH/USD", "")
	r.GetOrCreate(domain.ChannelTrades, "LTC/USD", "") // never marked active

	r.MarkActive(s2)
	r.MarkActive(s1)

	active := r.Active()
	if len(active) != 2 {
		t.Fatalf("expected 2 active subscriptions, got %d", len(active))
	}
	if active[0].Symbol != "ETH/USD" || active[1].Symbol != "BTC/USD" {
		t.Fatalf("expected insertion order ETH/USD, BTC/USD; got %s, %s", active[0].Symbol, active[1].Symbol)
	}
}

func TestMarkInactiveKeepsDescriptorInAll(t *testing.T) {
	r := NewSubscriptionRegistry()
	sub := r.GetOrCreate(domain.ChannelTicker, "BTC/USD", "")
	r.MarkActive(sub)
	r.MarkInactive(domain.ChannelTicker, "BTC/USD", "")

	if len(r.Active()) != 0 {
		t.Fatal("expected no active subscriptions after MarkInactive")
	}
	all := r.All()
	if len(all) != 1 {
		t.Fatalf("expected the descriptor to survive unsubscribe, got %d entries", len(all))
	}
	if all[0].IsActive {
		t.Fatal("expected IsActive to be false after MarkInactive")
	}
}

func TestMarkInactiveOnUnknownKeyIsNoop(t *testing.T) {
	r := NewSubscriptionRegistry()
	r.MarkInactive(domain.ChannelTicker, "NEVER/SUBSCRIBED", "")
	if len(r.All()) != 0 {
		t.Fatal("MarkInactive on an unknown key must not create an entry")
	}
}
