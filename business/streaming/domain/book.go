package domain

import (
	"github.com/shopspring/decimal"
)

// OrderbookLevel is a single price level. Count and ID are optional and
// venue-specific (e.g. Bitfinex order count, MEXC-assigned level id);
// Action is an optional venue-supplied tag ("add", "delete", ...) carried
// through for observability, not interpreted by the engine.
type OrderbookLevel struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
	Count    int
	ID       string
	Action   string
}

// IsDelete reports whether this level is the delete sentinel
// (integer quantity = 0).
func (l OrderbookLevel) IsDelete() bool {
	return l.Quantity.IsZero()
}

// OrderbookData is the per-symbol ladder: bids strictly non-increasing by
// price, asks strictly non-decreasing, no two levels on a side sharing a
// price, plus the event timestamp (Unix milliseconds) of the last applied
// update.
type OrderbookData struct {
	Symbol       string
	Bids         []OrderbookLevel
	Asks         []OrderbookLevel
	TimestampMs  int64
	CrossedCount uint64 // incremented whenever best bid >= best ask after an update
}

// BestBid returns the highest bid level, or nil if the book has no bids.
func (b *OrderbookData) BestBid() *OrderbookLevel {
	if len(b.Bids) == 0 {
		return nil
	}
	return &b.Bids[0]
}

// BestAsk returns the lowest ask level, or nil if the book has no asks.
func (b *OrderbookData) BestAsk() *OrderbookLevel {
	if len(b.Asks) == 0 {
		return nil
	}
	return &b.Asks[0]
}

// IsCrossed reports whether best bid >= best ask with both sides present.
func (b *OrderbookData) IsCrossed() bool {
	bid, ask := b.BestBid(), b.BestAsk()
	if bid == nil || ask == nil {
		return false
	}
	return bid.Price.GreaterThanOrEqual(ask.Price)
}

// Clear empties both sides, used when the engine resets a book on
// reconnect so the next frame is guaranteed to be a snapshot applied to a
// known-empty state.
func (b *OrderbookData) Clear() {
	b.Bids = nil
	b.Asks = nil
}
