// Package kraken implements business/streaming/app.VenueAdapter for
// Kraken's v2 WebSocket API.
package kraken

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
)

const publicURL = "wss://ws.kraken.com/v2"

// Adapter implements app.VenueAdapter for Kraken.
type Adapter struct{}

// New returns a Kraken adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string           { return "kraken" }
func (a *Adapter) PublicURL() string      { return publicURL }
func (a *Adapter) PrivateURL() string     { return "" }
func (a *Adapter) PingIntervalMs() int64  { return 15000 }
func (a *Adapter) CreatePingMessage() string {
	return `{"method":"ping"}`
}
func (a *Adapter) SupportsBatchSubscription() bool { return true }

// FormatSymbol renders the canonical Market as Kraken's BASE/QUOTE form.
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return m.String()
}

func channelName(c domain.Channel) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return "ticker", nil
	case domain.ChannelOrderbook:
		return "book", nil
	case domain.ChannelTrades:
		return "trade", nil
	case domain.ChannelCandles:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage("kraken v2 candles are not supported by this adapter"))
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

type subscribeFrame struct {
	Method string         `json:"method"`
	Params subscribeParam `json:"params"`
}

type subscribeParam struct {
	Channel  string   `json:"channel"`
	Symbol   []string `json:"symbol"`
	Depth    int      `json:"depth,omitempty"`
	Snapshot bool     `json:"snapshot,omitempty"`
}

func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := channelName(sub.Channel)
	if err != nil {
		return "", err
	}
	param := subscribeParam{Channel: channel, Symbol: []string{sub.Symbol}}
	if sub.Channel == domain.ChannelOrderbook {
		param.Depth = 25
		param.Snapshot = true
	}
	data, err := json.Marshal(subscribeFrame{Method: "subscribe", Params: param})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames groups subscriptions per channel: Kraken
// accepts one symbol array per channel per frame.
func (a *Adapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	bySymbols := make(map[string][]string)
	order := make([]string, 0, 4)
	depthSnapshot := make(map[string]bool)

	for _, sub := range subs {
		channel, err := channelName(sub.Channel)
		if err != nil {
			return nil, err
		}
		if _, ok := bySymbols[channel]; !ok {
			order = append(order, channel)
		}
		bySymbols[channel] = append(bySymbols[channel], sub.Symbol)
		if sub.Channel == domain.ChannelOrderbook {
			depthSnapshot[channel] = true
		}
	}

	frames := make([]string, 0, len(order))
	for _, channel := range order {
		param := subscribeParam{Channel: channel, Symbol: bySymbols[channel]}
		if depthSnapshot[channel] {
			param.Depth = 25
			param.Snapshot = true
		}
		data, err := json.Marshal(subscribeFrame{Method: "subscribe", Params: param})
		if err != nil {
			return nil, err
		}
		frames = append(frames, string(data))
	}
	return frames, nil
}

func (a *Adapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := channelName(sub.Channel)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscribeFrame{
		Method: "unsubscribe",
		Params: subscribeParam{Channel: channel, Symbol: []string{sub.Symbol}},
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type envelope struct {
	Channel string          `json:"channel"`
	Type    string          `json:"type"`
	Method  string          `json:"method"`
	Success *bool           `json:"success"`
	Error   string          `json:"error"`
	Data    json.RawMessage `json:"data"`
}

type tickerRow struct {
	Symbol    string          `json:"symbol"`
	Bid       decimal.Decimal `json:"bid"`
	Ask       decimal.Decimal `json:"ask"`
	Last      decimal.Decimal `json:"last"`
	Volume    decimal.Decimal `json:"volume"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	ChangePct decimal.Decimal `json:"change_pct"`
}

type bookRow struct {
	Symbol string        `json:"symbol"`
	Bids   []priceQtyRow `json:"bids"`
	Asks   []priceQtyRow `json:"asks"`
}

type priceQtyRow struct {
	Price decimal.Decimal `json:"price"`
	Qty   decimal.Decimal `json:"qty"`
}

type tradeRow struct {
	Symbol    string          `json:"symbol"`
	Side      string          `json:"side"`
	Price     decimal.Decimal `json:"price"`
	Qty       decimal.Decimal `json:"qty"`
	OrdType   string          `json:"ord_type"`
	TradeID   int64           `json:"trade_id"`
	Timestamp string          `json:"timestamp"`
}

// ProcessMessage parses one Kraken v2 frame and routes it to sink.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid kraken frame"),
			apperror.WithCause(err))
	}

	if env.Method == "pong" {
		sink.HandleInfo("pong")
		return nil
	}
	if env.Success != nil && !*env.Success {
		sink.HandleProtocolError(env.Error, false)
		return nil
	}

	switch env.Channel {
	case "heartbeat", "status":
		sink.HandleInfo(env.Channel)
		return nil
	case "ticker":
		var rows []tickerRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		for _, r := range rows {
			sink.HandleTicker(domain.Ticker{
				Symbol:    r.Symbol,
				BestBid:   r.Bid,
				BestAsk:   r.Ask,
				LastPrice: r.Last,
				High24h:   r.High,
				Low24h:    r.Low,
				Volume24h: r.Volume,
				ChangePct: r.ChangePct,
			})
		}
		return nil
	case "book":
		var rows []bookRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		for _, r := range rows {
			bids := toLevels(r.Bids)
			asks := toLevels(r.Asks)
			if env.Type == "snapshot" {
				sink.HandleOrderbookSnapshot(r.Symbol, bids, asks, 0)
			} else {
				sink.HandleOrderbookDelta(r.Symbol, bids, asks, 0)
			}
		}
		return nil
	case "trade":
		var rows []tradeRow
		if err := json.Unmarshal(env.Data, &rows); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		for _, r := range rows {
			side := domain.TradeSideBid
			if strings.EqualFold(r.Side, "sell") {
				side = domain.TradeSideAsk
			}
			sink.HandleTrade(domain.Trade{
				Symbol: r.Symbol,
				Entries: []domain.TradeEntry{{
					Side:      side,
					OrderType: r.OrdType,
					Price:     r.Price,
					Quantity:  r.Qty,
					Amount:    r.Price.Mul(r.Qty),
				}},
			})
		}
		return nil
	default:
		return nil
	}
}

func toLevels(rows []priceQtyRow) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, len(rows))
	for i, r := range rows {
		out[i] = domain.OrderbookLevel{Price: r.Price, Quantity: r.Qty}
	}
	return out
}
