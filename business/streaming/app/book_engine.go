// Package app contains the application-layer pieces of the streaming
// core: the order-book engine, the subscription registry, the venue
// adapter port, and the stream-client state machine that composes them.
package app

import (
	"sort"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

// BookEngine merges venue snapshot and delta payloads into the sorted,
// invariant-preserving ladder held in domain.OrderbookData. It is a pure,
// stateless set of operations over the caller-owned book value; the
// stream client owns one domain.OrderbookData per (venue, symbol) and
// calls these functions as frames arrive.
type BookEngine struct{}

// NewBookEngine returns a BookEngine. It carries no state of its own.
func NewBookEngine() *BookEngine {
	return &BookEngine{}
}

// ApplySnapshot discards the existing ladder and rebuilds it from the
// given levels: levels with quantity > 0 are kept, sorted bids descending
// and asks ascending, and the book timestamp is set.
func (e *BookEngine) ApplySnapshot(book *domain.OrderbookData, bids, asks []domain.OrderbookLevel, timestampMs int64) {
	book.Bids = keepPositive(bids)
	book.Asks = keepPositive(asks)
	sortBidsDesc(book.Bids)
	sortAsksAsc(book.Asks)
	book.TimestampMs = timestampMs
	e.checkCrossed(book)
}

// ApplyBidDelta applies a single (price, quantity) tuple to the bid side:
// quantity = 0 removes the level at that exact price (no-op if absent);
// otherwise the level is overwritten if present, or inserted and the side
// re-sorted.
func (e *BookEngine) ApplyBidDelta(book *domain.OrderbookData, level domain.OrderbookLevel, timestampMs int64) {
	book.Bids = applyDelta(book.Bids, level, true)
	if timestampMs > book.TimestampMs {
		book.TimestampMs = timestampMs
	}
	e.checkCrossed(book)
}

// ApplyAskDelta applies a single (price, quantity) tuple to the ask side,
// with the same semantics as ApplyBidDelta.
func (e *BookEngine) ApplyAskDelta(book *domain.OrderbookData, level domain.OrderbookLevel, timestampMs int64) {
	book.Asks = applyDelta(book.Asks, level, false)
	if timestampMs > book.TimestampMs {
		book.TimestampMs = timestampMs
	}
	e.checkCrossed(book)
}

// ApplySignedAmountRow applies the Bitfinex-style encoding: count = 0 is
// delete, amount > 0 is a bid-side level, amount < 0 is an ask-side level
// with the absolute value as quantity.
func (e *BookEngine) ApplySignedAmountRow(book *domain.OrderbookData, price decimal.Decimal, count int, amount decimal.Decimal, timestampMs int64) {
	if count == 0 {
		book.Bids = removeAtPrice(book.Bids, price)
		book.Asks = removeAtPrice(book.Asks, price)
		if timestampMs > book.TimestampMs {
			book.TimestampMs = timestampMs
		}
		e.checkCrossed(book)
		return
	}

	level := domain.OrderbookLevel{Price: price, Quantity: amount.Abs(), Count: count}
	if amount.IsPositive() {
		e.ApplyBidDelta(book, level, timestampMs)
		return
	}
	e.ApplyAskDelta(book, level, timestampMs)
}

// ResetForReconnect clears the book's cached ladder. Called before the
// first post-reconnect frame is applied, since the spec treats the public
// wire as trust-the-venue with no per-level sequence verification.
func (e *BookEngine) ResetForReconnect(book *domain.OrderbookData) {
	book.Clear()
}

// checkCrossed implements the "best-effort cross resolution" rule: the
// engine never auto-corrects a crossed book, it only counts the event.
func (e *BookEngine) checkCrossed(book *domain.OrderbookData) {
	if book.IsCrossed() {
		book.CrossedCount++
	}
}

func keepPositive(levels []domain.OrderbookLevel) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, 0, len(levels))
	for _, l := range levels {
		if l.Quantity.IsPositive() {
			out = append(out, l)
		}
	}
	return out
}

func sortBidsDesc(levels []domain.OrderbookLevel) {
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price.GreaterThan(levels[j].Price)
	})
}

func sortAsksAsc(levels []domain.OrderbookLevel) {
	sort.Slice(levels, func(i, j int) bool {
		return levels[i].Price.LessThan(levels[j].Price)
	})
}

// applyDelta applies one (price, quantity) tuple to a single side,
// keeping the descending-for-bids/ascending-for-asks sort invariant.
func applyDelta(levels []domain.OrderbookLevel, update domain.OrderbookLevel, isBid bool) []domain.OrderbookLevel {
	if update.IsDelete() {
		return removeAtPrice(levels, update.Price)
	}

	for i, l := range levels {
		if l.Price.Equal(update.Price) {
			levels[i].Quantity = update.Quantity
			levels[i].Count = update.Count
			levels[i].ID = update.ID
			levels[i].Action = update.Action
			return levels
		}
	}

	levels = append(levels, update)
	if isBid {
		sortBidsDesc(levels)
	} else {
		sortAsksAsc(levels)
	}
	return levels
}

func removeAtPrice(levels []domain.OrderbookLevel, price decimal.Decimal) []domain.OrderbookLevel {
	for i, l := range levels {
		if l.Price.Equal(price) {
			return append(levels[:i], levels[i+1:]...)
		}
	}
	return levels
}
