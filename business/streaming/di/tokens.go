// Package di contains dependency injection tokens for the streaming
// context, plus typed accessors over the generic di.ServiceRegistry.
package di

import (
	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/observer"
	internaldi "github.com/fd1az/streamfeed/internal/di"
)

// DI tokens for the streaming module. One Client token per venue, plus
// the shared Observer.
const (
	Observer       = "streaming.Observer"
	KrakenClient   = "streaming.KrakenClient"
	BitfinexClient = "streaming.BitfinexClient"
	BitstampClient = "streaming.BitstampClient"
	MEXCClient     = "streaming.MEXCClient"
	OKXClient      = "streaming.OKXClient"
	CoinbaseClient = "streaming.CoinbaseClient"
)

// GetObserver resolves the shared Observer.
func GetObserver(sr internaldi.ServiceRegistry) *observer.Observer {
	return sr.Get(Observer).(*observer.Observer)
}

// GetClient resolves one venue's stream client by its DI token.
func GetClient(sr internaldi.ServiceRegistry, token string) *app.Client {
	return sr.Get(token).(*app.Client)
}

// AllClientTokens lists every venue client token a full deployment may
// register, in the fixed startup order the module uses to stagger
// connects.
var AllClientTokens = []string{
	KrakenClient,
	BitfinexClient,
	BitstampClient,
	MEXCClient,
	OKXClient,
	CoinbaseClient,
}

// VenueToken maps a venue name (as used in venues.enabled) to its DI
// token. Shared by the module's own registration/startup code and by
// cmd/streamfeed, which needs it to wire per-venue callbacks.
var VenueToken = map[string]string{
	"kraken":   KrakenClient,
	"bitfinex": BitfinexClient,
	"bitstamp": BitstampClient,
	"mexc":     MEXCClient,
	"okx":      OKXClient,
	"coinbase": CoinbaseClient,
}

// TokenFor resolves a venue name to its DI token.
func TokenFor(venue string) (string, bool) {
	token, ok := VenueToken[venue]
	return token, ok
}
