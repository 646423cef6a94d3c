package domain

import "github.com/shopspring/decimal"

// TradeSide is the resting side the aggressor traded against.
type TradeSide string

const (
	TradeSideBid TradeSide = "bid"
	TradeSideAsk TradeSide = "ask"
)

// TradeEntry is a single executed trade.
type TradeEntry struct {
	ID          string
	TimestampMs int64
	Side        TradeSide
	OrderType   string // venue-specific, e.g. "limit", "market"
	Price       decimal.Decimal
	Quantity    decimal.Decimal
	Amount      decimal.Decimal // Price * Quantity, in quote currency
}

// Trade is a normalized batch of trade entries for one symbol, as venues
// typically deliver them in small bursts rather than one frame per trade.
type Trade struct {
	Venue       string
	Symbol      string
	TimestampMs int64
	Entries     []TradeEntry
}
