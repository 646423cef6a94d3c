package domain

import "time"

// Channel is a logical stream kind.
type Channel string

const (
	ChannelTicker    Channel = "ticker"
	ChannelOrderbook Channel = "orderbook"
	ChannelTrades    Channel = "trades"
	ChannelCandles   Channel = "candles"
)

// SubscriptionKey is the uniqueness key for a subscription within a venue:
// (Channel, Symbol, Extra).
type SubscriptionKey struct {
	Channel Channel
	Symbol  string
	Extra   string // e.g. candle interval; empty for channels without one
}

// Subscription is the full descriptor tracked in a client's registry.
type Subscription struct {
	Channel        Channel
	Symbol         string
	Extra          string
	SubscriptionID string // issued by the venue, when applicable
	IsActive       bool
	CreatedAt      time.Time
	SubscribedAt   time.Time
	LastUpdateAt   time.Time
}

// Key returns the subscription's uniqueness key.
func (s *Subscription) Key() SubscriptionKey {
	return SubscriptionKey{Channel: s.Channel, Symbol: s.Symbol, Extra: s.Extra}
}
