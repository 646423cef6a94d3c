// Package streaming implements the real-time market-data streaming
// bounded context: one stream client per enabled venue, a shared
// observability core, and the venue adapters under infra/.
package streaming

import (
	"context"
	"fmt"

	"github.com/fd1az/streamfeed/business/streaming/app"
	streamingDI "github.com/fd1az/streamfeed/business/streaming/di"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/business/streaming/infra/bitfinex"
	"github.com/fd1az/streamfeed/business/streaming/infra/bitstamp"
	"github.com/fd1az/streamfeed/business/streaming/infra/coinbase"
	"github.com/fd1az/streamfeed/business/streaming/infra/kraken"
	"github.com/fd1az/streamfeed/business/streaming/infra/mexc"
	"github.com/fd1az/streamfeed/business/streaming/infra/okx"
	"github.com/fd1az/streamfeed/business/streaming/observer"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/internal/config"
	"github.com/fd1az/streamfeed/internal/di"
	"github.com/fd1az/streamfeed/internal/logger"
	"github.com/fd1az/streamfeed/internal/monolith"
)

// Module implements the streaming bounded context.
type Module struct{}

// venueFactory builds the adapter for one enabled-venue name.
var venueFactory = map[string]func() app.VenueAdapter{
	"kraken":   func() app.VenueAdapter { return kraken.New() },
	"bitfinex": func() app.VenueAdapter { return bitfinex.New() },
	"bitstamp": func() app.VenueAdapter { return bitstamp.New() },
	"mexc":     func() app.VenueAdapter { return mexc.New() },
	"okx":      func() app.VenueAdapter { return okx.New() },
	"coinbase": func() app.VenueAdapter { return coinbase.New() },
}

// venueToken is an alias for streamingDI.VenueToken, kept local so the
// rest of this file reads the same as before the token map moved to the
// di package for reuse by cmd/streamfeed.
var venueToken = streamingDI.VenueToken

// RegisterServices registers the shared Observer and one Client per
// venue named in cfg.Venues.Enabled.
func (m *Module) RegisterServices(c di.Container) error {
	di.RegisterToken(c, streamingDI.Observer, func(sr di.ServiceRegistry) *observer.Observer {
		obs, err := observer.New()
		if err != nil {
			panic("failed to create streaming observer: " + err.Error())
		}
		return obs
	})

	cfgHolder := func(sr di.ServiceRegistry) *config.Config {
		return sr.Get("config").(*config.Config)
	}

	for venue, newAdapter := range venueFactory {
		venue, newAdapter := venue, newAdapter
		token, ok := venueToken[venue]
		if !ok {
			continue
		}
		di.RegisterToken(c, token, func(sr di.ServiceRegistry) *app.Client {
			cfg := cfgHolder(sr)
			log := sr.Get("logger").(logger.LoggerInterface)
			obs := streamingDI.GetObserver(sr)

			client, err := app.NewClient(app.ClientConfig{
				Adapter:             newAdapter(),
				Observer:            obs,
				Logger:              log.With("venue", venue),
				Connect:             app.ConnectOptions{HandshakeTimeout: cfg.Venues.HandshakeTimeout, SendTimeout: cfg.Venues.SendTimeout},
				QuarantineThreshold: cfg.Venues.MaxMessageFailures,
				QuarantineWindow:    cfg.Venues.FailureWindow,
				SubscribeRateLimit:  cfg.Venues.SubscribeRateLimit,
			})
			if err != nil {
				panic(fmt.Sprintf("failed to create %s client: %v", venue, err))
			}
			return client
		})
	}

	return nil
}

// Startup connects every enabled venue client and subscribes the
// configured markets' ticker, orderbook, and trades channels. A venue
// that fails to connect is logged and skipped (its markets are not
// subscribed); it does not fail the whole module, since the client's
// transport keeps reconnecting in the background and may come up later.
func (m *Module) Startup(ctx context.Context, mono monolith.Monolith) error {
	cfg := mono.Config()
	log := mono.Logger()
	sr := mono.Services()

	markets := make([]domain.Market, 0, len(cfg.Venues.Markets))
	for _, raw := range cfg.Venues.Markets {
		market, err := domain.ParseMarket(raw)
		if err != nil {
			return apperror.New(apperror.CodeArgumentError,
				apperror.WithMessage("invalid configured market"),
				apperror.WithCause(err),
				apperror.WithContext(raw))
		}
		markets = append(markets, market)
	}

	for _, venue := range cfg.Venues.Enabled {
		token, ok := venueToken[venue]
		if !ok {
			log.Warn(ctx, "unknown venue in venues.enabled, skipping", "venue", venue)
			continue
		}

		client := streamingDI.GetClient(sr, token)
		if err := client.Connect(ctx); err != nil {
			log.Warn(ctx, "venue connect failed, will rely on background reconnect", "venue", venue, "error", err)
			continue
		}

		for _, market := range markets {
			if err := client.SubscribeTicker(market); err != nil {
				log.Warn(ctx, "ticker subscribe failed", "venue", venue, "market", market.String(), "error", err)
			}
			if err := client.SubscribeOrderbook(market); err != nil {
				log.Warn(ctx, "orderbook subscribe failed", "venue", venue, "market", market.String(), "error", err)
			}
			if err := client.SubscribeTrades(market); err != nil {
				log.Warn(ctx, "trades subscribe failed", "venue", venue, "market", market.String(), "error", err)
			}
		}
	}

	log.Info(ctx, "streaming module started", "venues", cfg.Venues.Enabled, "markets", cfg.Venues.Markets)
	return nil
}
