// Package domain contains the core, venue-agnostic types for the
// market-data streaming core: markets, subscriptions, order-book ladders,
// tickers, trades, and the metrics records the observer maintains.
package domain

import (
	"fmt"
	"strings"

	"github.com/fd1az/streamfeed/internal/apperror"
)

// Market is an immutable currency pair. Equality and hash are structural.
type Market struct {
	Base  string
	Quote string
}

// NewMarket constructs a Market from base/quote codes, uppercasing both.
func NewMarket(base, quote string) Market {
	return Market{Base: strings.ToUpper(base), Quote: strings.ToUpper(quote)}
}

// String renders the canonical "BASE/QUOTE" textual form.
func (m Market) String() string {
	return m.Base + "/" + m.Quote
}

// IsZero reports whether the market carries no currency codes.
func (m Market) IsZero() bool {
	return m.Base == "" && m.Quote == ""
}

// ParseMarket parses a canonical "BASE/QUOTE" string. Any shape other than
// exactly one '/' with two non-empty uppercase-able sides is an
// ArgumentError.
func ParseMarket(canonical string) (Market, error) {
	parts := strings.Split(canonical, "/")
	if len(parts) != 2 {
		return Market{}, apperror.New(apperror.CodeArgumentError,
			apperror.WithMessage("market must have exactly one '/'"),
			apperror.WithContext(fmt.Sprintf("input=%q", canonical)))
	}

	base, quote := strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
	if base == "" || quote == "" {
		return Market{}, apperror.New(apperror.CodeArgumentError,
			apperror.WithMessage("market base and quote must be non-empty"),
			apperror.WithContext(fmt.Sprintf("input=%q", canonical)))
	}

	return NewMarket(base, quote), nil
}
