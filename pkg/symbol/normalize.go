// Package symbol holds the pure, venue-agnostic helpers the streaming core
// consumes but does not define the policy of: canonical symbol
// normalization and candle-interval conversion.
package symbol

import "strings"

// recognizedQuotes is the set of quote currencies the joined-form parser
// (BTCUSDT, KRWBTC, ...) knows how to split on. An unrecognized quote means
// the input is not a joined pair we can split, so it is returned unmodified
// (uppercased).
var recognizedQuotes = []string{
	"USDT", "USDC", "BUSD", "KRW", "EUR", "GBP", "MX", "BTC", "ETH", "USD",
}

// Normalize converts a venue-specific or loosely-formatted symbol string
// into the canonical "BASE/QUOTE" uppercase form. Recognized shapes:
// "btc/usdt", "BTC-USDT", "BTCUSDT", "KRW-BTC". Nil, empty, or
// whitespace-only input is returned unchanged. An unrecognized quote in a
// joined form is returned uppercased, unmodified otherwise.
func Normalize(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return raw
	}

	upper := strings.ToUpper(strings.TrimSpace(raw))

	if idx := strings.IndexByte(upper, '/'); idx >= 0 {
		return upper
	}

	if idx := strings.IndexByte(upper, '-'); idx >= 0 {
		base, quote := upper[:idx], upper[idx+1:]
		return base + "/" + quote
	}

	if idx := strings.IndexByte(upper, '_'); idx >= 0 {
		base, quote := upper[:idx], upper[idx+1:]
		return base + "/" + quote
	}

	for _, q := range recognizedQuotes {
		if len(upper) > len(q) && strings.HasSuffix(upper, q) {
			base := upper[:len(upper)-len(q)]
			if base != "" {
				return base + "/" + q
			}
		}
	}

	return upper
}

// ToVenueJoined renders a canonical "BASE/QUOTE" symbol as a joined,
// lowercase-or-uppercase wire form (e.g. "btcusd", "BTCUSDT") with no
// separator, for venues that expect concatenated symbols.
func ToVenueJoined(canonical string, lower bool) string {
	parts := strings.SplitN(canonical, "/", 2)
	if len(parts) != 2 {
		if lower {
			return strings.ToLower(canonical)
		}
		return strings.ToUpper(canonical)
	}
	joined := parts[0] + parts[1]
	if lower {
		return strings.ToLower(joined)
	}
	return strings.ToUpper(joined)
}

// ToVenueDash renders a canonical "BASE/QUOTE" symbol with a dash
// separator (e.g. "BTC-USDT"), upper or lower case as requested.
func ToVenueDash(canonical string, lower bool) string {
	parts := strings.SplitN(canonical, "/", 2)
	if len(parts) != 2 {
		if lower {
			return strings.ToLower(canonical)
		}
		return strings.ToUpper(canonical)
	}
	joined := parts[0] + "-" + parts[1]
	if lower {
		return strings.ToLower(joined)
	}
	return strings.ToUpper(joined)
}

// ToBitfinexSymbol renders a canonical symbol as Bitfinex's "tBTCUSD" form.
func ToBitfinexSymbol(canonical string) string {
	return "t" + ToVenueJoined(canonical, false)
}
