// Package coinbase implements business/streaming/app.VenueAdapter for
// Coinbase Exchange's public WebSocket feed, supplementing the canonical
// four adapters.
package coinbase

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/pkg/symbol"
)

const publicURL = "wss://ws-feed.exchange.coinbase.com"

// Adapter implements app.VenueAdapter for Coinbase Exchange.
type Adapter struct{}

// New returns a Coinbase Exchange adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string          { return "coinbase" }
func (a *Adapter) PublicURL() string     { return publicURL }
func (a *Adapter) PrivateURL() string    { return "" }
func (a *Adapter) PingIntervalMs() int64 { return 0 }

// CreatePingMessage returns "": Coinbase Exchange pushes its own
// "heartbeat" channel messages and requires no client ping.
func (a *Adapter) CreatePingMessage() string       { return "" }
func (a *Adapter) SupportsBatchSubscription() bool { return true }

// FormatSymbol renders the canonical Market as Coinbase's dash-joined
// product id, e.g. "BTC-USD".
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return symbol.ToVenueDash(m.String(), false)
}

func coinbaseChannel(c domain.Channel) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return "ticker", nil
	case domain.ChannelOrderbook:
		return "level2", nil
	case domain.ChannelTrades:
		return "matches", nil
	case domain.ChannelCandles:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage("coinbase exchange has no candle channel on this feed"))
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

type subscribeFrame struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := coinbaseChannel(sub.Channel)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{
		Type:       "subscribe",
		ProductIDs: []string{sub.Symbol},
		Channels:   []string{channel},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames coalesces every subscription into one frame:
// Coinbase accepts a full product_ids list paired with a channels list
// and applies the cross product, so channel/symbol pairs that were
// requested individually are collapsed into the union of both lists.
func (a *Adapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	symbolSet := make(map[string]struct{})
	channelSet := make(map[string]struct{})
	var symbols, channels []string

	for _, sub := range subs {
		channel, err := coinbaseChannel(sub.Channel)
		if err != nil {
			return nil, err
		}
		if _, ok := symbolSet[sub.Symbol]; !ok {
			symbolSet[sub.Symbol] = struct{}{}
			symbols = append(symbols, sub.Symbol)
		}
		if _, ok := channelSet[channel]; !ok {
			channelSet[channel] = struct{}{}
			channels = append(channels, channel)
		}
	}

	data, err := json.Marshal(subscribeFrame{Type: "subscribe", ProductIDs: symbols, Channels: channels})
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}

func (a *Adapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := coinbaseChannel(sub.Channel)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{
		Type:       "unsubscribe",
		ProductIDs: []string{sub.Symbol},
		Channels:   []string{channel},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type envelope struct {
	Type      string          `json:"type"`
	ProductID string          `json:"product_id"`
	Message   string          `json:"message"`
	Reason    string          `json:"reason"`
}

type tickerFrame struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	BestBid   decimal.Decimal `json:"best_bid"`
	BestAsk   decimal.Decimal `json:"best_ask"`
	High24h   decimal.Decimal `json:"high_24h"`
	Low24h    decimal.Decimal `json:"low_24h"`
	Volume24h decimal.Decimal `json:"volume_24h"`
}

type l2SnapshotFrame struct {
	ProductID string              `json:"product_id"`
	Bids      [][2]decimal.Decimal `json:"bids"`
	Asks      [][2]decimal.Decimal `json:"asks"`
}

type l2UpdateFrame struct {
	ProductID string     `json:"product_id"`
	Changes   [][3]string `json:"changes"`
}

type matchFrame struct {
	ProductID string          `json:"product_id"`
	Price     decimal.Decimal `json:"price"`
	Size      decimal.Decimal `json:"size"`
	Side      string          `json:"side"`
	TradeID   int64           `json:"trade_id"`
	Time      string          `json:"time"`
}

// ProcessMessage parses one Coinbase Exchange frame and routes it to
// sink.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid coinbase frame"),
			apperror.WithCause(err))
	}

	switch env.Type {
	case "subscriptions", "heartbeat":
		sink.HandleInfo(env.Type)
		return nil
	case "error":
		sink.HandleProtocolError(env.Message+": "+env.Reason, false)
		return nil
	case "ticker":
		var t tickerFrame
		if err := json.Unmarshal(raw, &t); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleTicker(domain.Ticker{
			Symbol:    t.ProductID,
			BestBid:   t.BestBid,
			BestAsk:   t.BestAsk,
			LastPrice: t.Price,
			High24h:   t.High24h,
			Low24h:    t.Low24h,
			Volume24h: t.Volume24h,
		})
		return nil
	case "snapshot":
		var s l2SnapshotFrame
		if err := json.Unmarshal(raw, &s); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleOrderbookSnapshot(s.ProductID, toLevels(s.Bids), toLevels(s.Asks), 0)
		return nil
	case "l2update":
		var u l2UpdateFrame
		if err := json.Unmarshal(raw, &u); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		var bids, asks []domain.OrderbookLevel
		for _, ch := range u.Changes {
			if len(ch) != 3 {
				continue
			}
			price, err := decimal.NewFromString(ch[1])
			if err != nil {
				continue
			}
			qty, err := decimal.NewFromString(ch[2])
			if err != nil {
				continue
			}
			level := domain.OrderbookLevel{Price: price, Quantity: qty}
			if ch[0] == "buy" {
				bids = append(bids, level)
			} else {
				asks = append(asks, level)
			}
		}
		sink.HandleOrderbookDelta(u.ProductID, bids, asks, 0)
		return nil
	case "match", "last_match":
		var m matchFrame
		if err := json.Unmarshal(raw, &m); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		side := domain.TradeSideBid
		if m.Side == "sell" {
			side = domain.TradeSideAsk
		}
		sink.HandleTrade(domain.Trade{
			Symbol: m.ProductID,
			Entries: []domain.TradeEntry{{
				ID:       fmt.Sprintf("%d", m.TradeID),
				Side:     side,
				Price:    m.Price,
				Quantity: m.Size,
				Amount:   m.Price.Mul(m.Size),
			}},
		})
		return nil
	default:
		return nil
	}
}

func toLevels(rows [][2]decimal.Decimal) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, len(rows))
	for i, r := range rows {
		out[i] = domain.OrderbookLevel{Price: r[0], Quantity: r[1]}
	}
	return out
}
