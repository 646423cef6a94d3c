// Package mexc implements business/streaming/app.VenueAdapter for MEXC's
// public spot WebSocket API.
package mexc

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

const publicURL = "wss://wbs.mexc.com/ws"

// Adapter implements app.VenueAdapter for MEXC.
type Adapter struct{}

// New returns a MEXC adapter.
func New() *Adapter { return &Adapter{} }

func (a *Adapter) Name() string          { return "mexc" }
func (a *Adapter) PublicURL() string     { return publicURL }
func (a *Adapter) PrivateURL() string    { return "" }
func (a *Adapter) PingIntervalMs() int64 { return 20000 }

func (a *Adapter) CreatePingMessage() string {
	return `{"method":"PING"}`
}

// SupportsBatchSubscription is true: MEXC accepts every subscription
// string in a single "params" array regardless of channel.
func (a *Adapter) SupportsBatchSubscription() bool { return true }

// FormatSymbol renders the canonical Market as MEXC's uppercase joined
// form, e.g. "BTCUSDT".
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return symbol.ToVenueJoined(m.String(), false)
}

// wireParam renders the "spot@public...@SYMBOL" subscription string for
// one (channel, symbol[, interval]).
func wireParam(c domain.Channel, wireSymbol, interval string) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return fmt.Sprintf("spot@public.bookTicker.v3.api@%s", wireSymbol), nil
	case domain.ChannelOrderbook:
		return fmt.Sprintf("spot@public.aggre.depth.v3.api.pb@100ms@%s", wireSymbol), nil
	case domain.ChannelTrades:
		return fmt.Sprintf("spot@public.aggre.deals.v3.api.pb@100ms@%s", wireSymbol), nil
	case domain.ChannelCandles:
		return fmt.Sprintf("spot@public.kline.v3.api@%s@%s", wireSymbol, mexcInterval(interval)), nil
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

// mexcInterval renders a canonical interval as MEXC's "Min1"/"Hour4"/"Day1"
// kline window name. Empty input defaults to one minute.
func mexcInterval(interval string) string {
	if interval == "" {
		return "Min1"
	}
	canon := symbol.CanonicalInterval(interval)
	n := canon[:len(canon)-1]
	switch canon[len(canon)-1:] {
	case "m":
		return "Min" + n
	case "h":
		return "Hour" + n
	case "d":
		return "Day" + n
	case "w":
		return "Week" + n
	case "M":
		return "Month" + n
	default:
		return "Min1"
	}
}

type subscriptionFrame struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	param, err := wireParam(sub.Channel, sub.Symbol, sub.Extra)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscriptionFrame{Method: "SUBSCRIPTION", Params: []string{param}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames coalesces every subscription into one frame,
// regardless of channel: MEXC's "params" array mixes channel strings
// freely.
func (a *Adapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	params := make([]string, 0, len(subs))
	for _, sub := range subs {
		param, err := wireParam(sub.Channel, sub.Symbol, sub.Extra)
		if err != nil {
			return nil, err
		}
		params = append(params, param)
	}
	data, err := json.Marshal(subscriptionFrame{Method: "SUBSCRIPTION", Params: params})
	if err != nil {
		return nil, err
	}
	return []string{string(data)}, nil
}

func (a *Adapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	param, err := wireParam(sub.Channel, sub.Symbol, sub.Extra)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(subscriptionFrame{Method: "UNSUBSCRIPTION", Params: []string{param}})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

type envelope struct {
	Channel string          `json:"c"`
	Symbol  string          `json:"s"`
	Data    json.RawMessage `json:"d"`
	Code    *int            `json:"code"`
	Msg     string          `json:"msg"`
}

type bookTicker struct {
	BidPrice decimal.Decimal `json:"b"`
	BidQty   decimal.Decimal `json:"B"`
	AskPrice decimal.Decimal `json:"a"`
	AskQty   decimal.Decimal `json:"A"`
}

type depthRow struct {
	Price decimal.Decimal `json:"p"`
	Qty   decimal.Decimal `json:"v"`
}

type depthData struct {
	Bids []depthRow `json:"bids"`
	Asks []depthRow `json:"asks"`
}

type dealRow struct {
	Price decimal.Decimal `json:"p"`
	Qty   decimal.Decimal `json:"v"`
	Side  int             `json:"S"` // 1 = buy, 2 = sell
	Time  int64           `json:"t"`
}

type dealsData struct {
	Deals []dealRow `json:"deals"`
}

// ProcessMessage parses one MEXC frame and routes it to sink.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid mexc frame"),
			apperror.WithCause(err))
	}

	if env.Code != nil {
		if *env.Code != 0 {
			sink.HandleProtocolError(env.Msg, false)
			return nil
		}
		sink.HandleInfo(env.Msg)
		return nil
	}

	switch {
	case strings.Contains(env.Channel, "bookTicker"):
		var bt bookTicker
		if err := json.Unmarshal(env.Data, &bt); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleTicker(domain.Ticker{
			Symbol:  env.Symbol,
			BestBid: bt.BidPrice,
			BestAsk: bt.AskPrice,
		})
		return nil
	case strings.Contains(env.Channel, "depth"):
		var d depthData
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		sink.HandleOrderbookDelta(env.Symbol, toLevels(d.Bids), toLevels(d.Asks), 0)
		return nil
	case strings.Contains(env.Channel, "deals"):
		var dd dealsData
		if err := json.Unmarshal(env.Data, &dd); err != nil {
			return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
		}
		entries := make([]domain.TradeEntry, 0, len(dd.Deals))
		for _, r := range dd.Deals {
			side := domain.TradeSideBid
			if r.Side == 2 {
				side = domain.TradeSideAsk
			}
			entries = append(entries, domain.TradeEntry{
				TimestampMs: r.Time,
				Side:        side,
				Price:       r.Price,
				Quantity:    r.Qty,
				Amount:      r.Price.Mul(r.Qty),
			})
		}
		if len(entries) == 0 {
			return nil
		}
		sink.HandleTrade(domain.Trade{Symbol: env.Symbol, Entries: entries})
		return nil
	default:
		return nil
	}
}

func toLevels(rows []depthRow) []domain.OrderbookLevel {
	out := make([]domain.OrderbookLevel, len(rows))
	for i, r := range rows {
		out[i] = domain.OrderbookLevel{Price: r.Price, Quantity: r.Qty}
	}
	return out
}
