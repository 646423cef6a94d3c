// Package okx implements business/streaming/app.VenueAdapter for OKX's
// public v5 WebSocket API, supplementing the canonical four adapters.
package okx

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/pkg/symbol"
)

const publicURL = "wss://ws.okx.com:8443/ws/v5/public"

// Adapter implements app.VenueAdapter for OKX.
type Adapter struct{}

// New returns an OKX adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string          { return "okx" }
func (a *Adapter) PublicURL() string     { return publicURL }
func (a *Adapter) PrivateURL() string    { return "" }
func (a *Adapter) PingIntervalMs() int64 { return 20000 }

// CreatePingMessage returns the literal string "ping": OKX's only
// venue in this set that expects a bare string frame rather than JSON.
func (a *Adapter) CreatePingMessage() string       { return "ping" }
func (a *Adapter) SupportsBatchSubscription() bool { return true }

// FormatSymbol renders the canonical Market as OKX's dash-joined form,
// e.g. "BTC-USDT".
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return symbol.ToVenueDash(m.String(), false)
}

func okxChannel(c domain.Channel) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return "tickers", nil
	case domain.ChannelOrderbook:
		return "books", nil
	case domain.ChannelTrades:
		return "trades", nil
	case domain.ChannelCandles:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage("okx candle channel is not wired by this adapter"))
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type subscribeFrame struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := okxChannel(sub.Channel)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{
		Op:   "subscribe",
		Args: []subscribeArg{{Channel: channel, InstID: sub.Symbol}},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames coalesces every subscription's (channel,
// instId) pair into one frame's args array, OKX's native batching unit.
func (a *Adapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	args := make([]subscribeArg, 0, len(subs))
	for _, sub := range subs {
		channel, err := okxChannel(sub.Channel)
		if err != nil {
			return nil, err
		}
		args = append(args, subscribeArg{Channel: channel, InstID: sub.Symbol})
	}
	data, err := json.Marshal(subscribeFrame{Op: "subscribe", Args: args})
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}

func (a *Adapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := okxChannel(sub.Channel)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{
		Op:   "unsubscribe",
		Args: []subscribeArg{{Channel: channel, InstID: sub.Symbol}},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type eventFrame struct {
	Event   string       `json:"event"`
	Code    string       `json:"code"`
	Msg     string       `json:"msg"`
	Arg     subscribeArg `json:"arg"`
}

type dataFrame struct {
	Arg  subscribeArg      `json:"arg"`
	Data []json.RawMessage `json:"data"`
}

type tickerPayload struct {
	InstID  string          `json:"instId"`
	Last    decimal.Decimal `json:"last"`
	BidPx   decimal.Decimal `json:"bidPx"`
	AskPx   decimal.Decimal `json:"askPx"`
	High24h decimal.Decimal `json:"high24h"`
	Low24h  decimal.Decimal `json:"low24h"`
	Vol24h  decimal.Decimal `json:"vol24h"`
	TS      string          `json:"ts"`
}

type bookPayload struct {
	Bids [][]decimal.Decimal `json:"bids"`
	Asks [][]decimal.Decimal `json:"asks"`
	TS   string              `json:"ts"`
}

type tradePayload struct {
	InstID  string          `json:"instId"`
	Px      decimal.Decimal `json:"px"`
	Sz      decimal.Decimal `json:"sz"`
	Side    string          `json:"side"`
	TS      string          `json:"ts"`
}

// ProcessMessage parses one OKX v5 frame and routes it to sink.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	if string(raw) == "pong" {
		sink.HandleInfo("pong")
		return nil
	}

	var ev eventFrame
	if err := json.Unmarshal(raw, &ev); err == nil && ev.Event != "" {
		if ev.Event == "error" {
			sink.HandleProtocolError(ev.Msg, false)
			return nil
		}
		sink.HandleInfo(ev.Event)
		return nil
	}

	var df dataFrame
	if err := json.Unmarshal(raw, &df); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid okx frame"),
			apperror.WithCause(err))
	}

	switch df.Arg.Channel {
	case "tickers":
		for _, raw := range df.Data {
			var t tickerPayload
			if err := json.Unmarshal(raw, &t); err != nil {
				return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
			}
			sink.HandleTicker(domain.Ticker{
				Symbol:    t.InstID,
				BestBid:   t.BidPx,
				BestAsk:   t.AskPx,
				LastPrice: t.Last,
				High24h:   t.High24h,
				Low24h:    t.Low24h,
				Volume24h: t.Vol24h,
			})
		}
		return nil
	case "books":
		for _, raw := range df.Data {
			var b bookPayload
			if err := json.Unmarshal(raw, &b); err != nil {
				return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
			}
			bids := toLevels(b.Bids)
			asks := toLevels(b.Asks)
			sink.HandleOrderbookDelta(df.Arg.InstID, bids, asks, 0)
		}
		return nil
	case "trades":
		entries := make([]domain.TradeEntry, 0, len(df.Data))
		for _, raw := range df.Data {
			var t tradePayload
			if err := json.Unmarshal(raw, &t); err != nil {
				return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
			}
			side := domain.TradeSideBid
			if t.Side == "sell" {
				side = domain.TradeSideAsk
			}
			entries = append(entries, domain.TradeEntry{
				Side:     side,
				Price:    t.Px,
				Quantity: t.Sz,
				Amount:   t.Px.Mul(t.Sz),
			})
		}
		if len(entries) == 0 {
			return nil
		}
		sink.HandleTrade(domain.Trade{Symbol: df.Arg.InstID, Entries: entries})
		return nil
	default:
		return nil
	}
}

// toLevels converts OKX's [price, size, deprecated, numOrders] rows to
// levels, using only the first two fields.
func toLevels(rows [][]decimal.Decimal) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, 0, len(rows))
	for _, r := range rows {
		if len(r) < 2 {
			continue
		}
		out = append(out, domain.OrderbookLevel{Price: r[0], Quantity: r[1]})
	}
	return out
}
