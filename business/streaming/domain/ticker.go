package domain

import "github.com/shopspring/decimal"

// Ticker is a normalized best-bid/ask-plus-24h-stats snapshot.
type Ticker struct {
	Venue       string
	Symbol      string
	TimestampMs int64
	BestBid     decimal.Decimal
	BestAsk     decimal.Decimal
	LastPrice   decimal.Decimal
	High24h     decimal.Decimal
	Low24h      decimal.Decimal
	Volume24h   decimal.Decimal
	ChangePct   decimal.Decimal
}
