// Package bitstamp implements business/streaming/app.VenueAdapter for
// Bitstamp's public WebSocket API.
package bitstamp

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/pkg/symbol"
)

const publicURL = "wss://ws.bitstamp.net"

// Adapter implements app.VenueAdapter for Bitstamp.
type Adapter struct{}

// New returns a Bitstamp adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string          { return "bitstamp" }
func (a *Adapter) PublicURL() string     { return publicURL }
func (a *Adapter) PrivateURL() string    { return "" }
func (a *Adapter) PingIntervalMs() int64 { return 0 }

// CreatePingMessage returns "": Bitstamp pushes its own heartbeat
// channel messages and expects no client-initiated ping.
func (a *Adapter) CreatePingMessage() string       { return "" }
func (a *Adapter) SupportsBatchSubscription() bool { return false }

// FormatSymbol renders the canonical Market as Bitstamp's lowercase
// joined form, e.g. "btcusd".
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return symbol.ToVenueJoined(m.String(), true)
}

// wireChannel renders the Bitstamp channel-name prefix for one logical
// channel, joined with the wire symbol to form the full channel string
// Bitstamp expects in its subscribe frame (e.g. "live_trades_btcusd").
func wireChannel(c domain.Channel, symbol string) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return "live_trades_" + symbol, nil
	case domain.ChannelOrderbook:
		return "diff_order_book_" + symbol, nil
	case domain.ChannelTrades:
		return "live_trades_" + symbol, nil
	case domain.ChannelCandles:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage("bitstamp does not support a candle channel"))
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

type subscribeData struct {
	Channel string `json:"channel"`
}

type subscribeFrame struct {
	Event string         `json:"event"`
	Data  subscribeData  `json:"data"`
}

func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := wireChannel(sub.Channel, sub.Symbol)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{Event: "bts:subscribe", Data: subscribeData{Channel: channel}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames is never invoked (SupportsBatchSubscription
// is false); Bitstamp requires one frame per subscription.
func (a *Adapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	frames := make([]string, 0, len(subs))
	for _, sub := range subs {
		frame, err := a.BuildSubscribeFrame(sub)
		if err != nil {
			return nil, err
		}
		frames = append(frames, frame)
	}
	return frames, nil
}

func (a *Adapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := wireChannel(sub.Channel, sub.Symbol)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{Event: "bts:unsubscribe", Data: subscribeData{Channel: channel}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type envelope struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel"`
	Data    json.RawMessage `json:"data"`
}

type tradeData struct {
	ID        int64           `json:"id"`
	Timestamp string          `json:"timestamp"`
	Amount    decimal.Decimal `json:"amount"`
	Price     decimal.Decimal `json:"price"`
	Type      int             `json:"type"` // 0 = buy, 1 = sell
}

type orderBookData struct {
	Timestamp string     `json:"timestamp"`
	Bids      [][2]decimal.Decimal `json:"bids"`
	Asks      [][2]decimal.Decimal `json:"asks"`
}

// ProcessMessage parses one Bitstamp frame and routes it to sink.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid bitstamp frame"),
			apperror.WithCause(err))
	}

	switch env.Event {
	case "bts:subscription_succeeded", "bts:unsubscription_succeeded":
		sink.HandleInfo(env.Event)
		return nil
	case "bts:error":
		sink.HandleProtocolError(string(env.Data), false)
		return nil
	case "bts:request_reconnect":
		sink.HandleProtocolError("venue requested reconnect", true)
		return nil
	}

	symbol := symbolFromChannel(env.Channel)
	switch {
	case strings.HasPrefix(env.Channel, "live_trades_") && env.Event == "trade":
		var td tradeData
		if err := json.Unmarshal(env.Data, &td); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		side := domain.TradeSideBid
		if td.Type == 1 {
			side = domain.TradeSideAsk
		}
		sink.HandleTrade(domain.Trade{
			Symbol: symbol,
			Entries: []domain.TradeEntry{{
				Side:     side,
				Price:    td.Price,
				Quantity: td.Amount,
				Amount:   td.Price.Mul(td.Amount),
			}},
		})
		return nil
	case strings.HasPrefix(env.Channel, "order_book_") && env.Event == "data":
		var ob orderBookData
		if err := json.Unmarshal(env.Data, &ob); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleOrderbookSnapshot(symbol, toLevels(ob.Bids), toLevels(ob.Asks), 0)
		return nil
	case strings.HasPrefix(env.Channel, "diff_order_book_") && env.Event == "data":
		var ob orderBookData
		if err := json.Unmarshal(env.Data, &ob); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleOrderbookDelta(symbol, toLevels(ob.Bids), toLevels(ob.Asks), 0)
		return nil
	default:
		return nil
	}
}

func symbolFromChannel(channel string) string {
	for _, prefix := range []string{"diff_order_book_", "order_book_", "live_trades_"} {
		if strings.HasPrefix(channel, prefix) {
			return strings.TrimPrefix(channel, prefix)
		}
	}
	return channel
}

func toLevels(rows [][2]decimal.Decimal) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, len(rows))
	for i, r := range rows {
		out[i] = domain.OrderbookLevel{Price: r[0], Quantity: r[1]}
	}
	return out
}
