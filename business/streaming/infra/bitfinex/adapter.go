// Package bitfinex implements business/streaming/app.VenueAdapter for
// Bitfinex's public WebSocket API v2.
package bitfinex

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/fd1az/streamfeed/business/streaming/app"
	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/fd1az/streamfeed/internal/apperror"
	"github.com/fd1az/streamfeed/pkg/symbol"
)

const publicURL = "wss://api-pub.bitfinex.com/ws/2"

// Adapter implements app.VenueAdapter for Bitfinex.
//
// Bitfinex addresses subsequent channel frames by a numeric channel ID
// handed out in the subscribe acknowledgement, not by symbol, so the
// adapter has to keep a small id->(channel,symbol) table alive across
// the life of one connection. The table is not cleared on reconnect:
// a "subscribed" acknowledgement replaces any id already held for the
// same (channel, symbol), and an "unsubscribed" event removes its id.
type Adapter struct {
	mu       sync.Mutex
	channels map[int64]channelInfo
}

type channelInfo struct {
	channel domain.Channel
	symbol  string
}

// New returns a Bitfinex adapter.
func New() *Adapter {
	return &Adapter{channels: make(map[int64]channelInfo)}
}

func (a *Adapter) Name() string             { return "bitfinex" }
func (a *Adapter) PublicURL() string        { return publicURL }
func (a *Adapter) PrivateURL() string       { return "" }
func (a *Adapter) PingIntervalMs() int64    { return 15000 }
func (a *Adapter) CreatePingMessage() string {
	return `{"event":"ping"}`
}
func (a *Adapter) SupportsBatchSubscription() bool { return false }

// FormatSymbol renders the canonical Market as Bitfinex's "tBTCUSD" form.
func (a *Adapter) FormatSymbol(m domain.Market) string {
	return symbol.ToBitfinexSymbol(m.String())
}

func bitfinexChannel(c domain.Channel) (string, error) {
	switch c {
	case domain.ChannelTicker:
		return "ticker", nil
	case domain.ChannelOrderbook:
		return "book", nil
	case domain.ChannelTrades:
		return "trades", nil
	case domain.ChannelCandles:
		return "candles", nil
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unsupported channel %q", c)))
	}
}

type subscribeFrame struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	Symbol  string `json:"symbol,omitempty"`
	Key     string `json:"key,omitempty"`
	Prec    string `json:"prec,omitempty"`
	Freq    string `json:"freq,omitempty"`
	Len     string `json:"len,omitempty"`
}

// BuildSubscribeFrame renders one subscription. Bitfinex requires one
// frame per subscription; there is no batched form.
func (a *Adapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	channel, err := bitfinexChannel(sub.Channel)
	if err != nil {
		return "", err
	}

	frame := subscribeFrame{Event: "subscribe", Channel: channel}
	switch sub.Channel {
	case domain.ChannelOrderbook:
		frame.Symbol = sub.Symbol
		frame.Prec = "P0"
		frame.Freq = "F0"
		frame.Len = "25"
	case domain.ChannelCandles:
		frame.Key = fmt.Sprintf("trade:%s:%s", symbol.CanonicalInterval(sub.Extra), sub.Symbol)
	default:
		frame.Symbol = sub.Symbol
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// BuildBatchSubscribeFrames is never invoked (SupportsBatchSubscription
// is false) but is implemented for interface completeness, falling back
// to one frame per subscription.
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
	chanID := a.channelIDFor(sub.Channel, sub.Symbol)
	if chanID == 0 {
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage("no known channel id for unsubscribe"),
			apperror.WithContext(fmt.Sprintf("%s/%s", sub.Channel, sub.Symbol)))
	}
	data, err := json.Marshal(map[string]interface{}{
		"event":   "unsubscribe",
		"chanId":  chanID,
	})
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (a *Adapter) channelIDFor(channel domain.Channel, symbol string) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	for id, info := range a.channels {
		if info.channel == channel && info.symbol == symbol {
			return id
		}
	}
	return 0
}

// ProcessMessage parses one Bitfinex v2 frame. Frames are either a JSON
// object (events: subscribed/unsubscribed/error/info/pong) or a JSON
// array whose first element is the channel ID, handled by dispatching on
// the remembered channel kind.
func (a *Adapter) ProcessMessage(sink app.MessageSink, raw []byte, isPrivate bool) error {
	trimmed := strings.TrimSpace(string(raw))
	if len(trimmed) == 0 {
		return nil
	}

	if trimmed[0] == '{' {
		return a.processEvent(sink, raw)
	}
	return a.processChannelFrame(sink, raw)
}

type eventFrame struct {
	Event   string `json:"event"`
	Channel string `json:"channel"`
	ChanID  int64  `json:"chanId"`
	Symbol  string `json:"symbol"`
	Key     string `json:"key"`
	Code    int    `json:"code"`
	Msg     string `json:"msg"`
}

func (a *Adapter) processEvent(sink app.MessageSink, raw []byte) error {
	var ev eventFrame
	if err := json.Unmarshal(raw, &ev); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid bitfinex event frame"),
			apperror.WithCause(err))
	}

	switch ev.Event {
	case "pong", "info":
		sink.HandleInfo(ev.Event)
		return nil
	case "error":
		sink.HandleProtocolError(ev.Msg, false)
		return nil
	case "subscribed":
		channel, err := channelFromWire(ev.Channel)
		if err != nil {
			return err
		}
		symbol := ev.Symbol
		if symbol == "" {
			symbol = ev.Key
		}
		a.mu.Lock()
		for id, info := range a.channels {
			if info.channel == channel && info.symbol == symbol {
				delete(a.channels, id)
			}
		}
		a.channels[ev.ChanID] = channelInfo{channel: channel, symbol: symbol}
		a.mu.Unlock()
		sink.HandleInfo("subscribed:" + ev.Channel)
		return nil
	case "unsubscribed":
		a.mu.Lock()
		delete(a.channels, ev.ChanID)
		a.mu.Unlock()
		sink.HandleInfo("unsubscribed")
		return nil
	default:
		return nil
	}
}

func channelFromWire(wireChannel string) (domain.Channel, error) {
	switch wireChannel {
	case "ticker":
		return domain.ChannelTicker, nil
	case "book":
		return domain.ChannelOrderbook, nil
	case "trades":
		return domain.ChannelTrades, nil
	case "candles":
		return domain.ChannelCandles, nil
	default:
		return "", apperror.New(apperror.CodeContractError,
			apperror.WithMessage(fmt.Sprintf("unknown bitfinex channel %q", wireChannel)))
	}
}

// processChannelFrame decodes "[chanId, payload...]" frames: a heartbeat
// ("hb" literal in position 1), a ticker row, a book snapshot/update, or
// a trade row, dispatched by the channel kind remembered from the
// subscribed event.
func (a *Adapter) processChannelFrame(sink app.MessageSink, raw []byte) error {
	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid bitfinex channel frame"),
			apperror.WithCause(err))
	}
	if len(outer) < 2 {
		return nil
	}

	var chanID int64
	if err := json.Unmarshal(outer[0], &chanID); err != nil {
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}

	var maybeHB string
	if json.Unmarshal(outer[1], &maybeHB) == nil && maybeHB == "hb" {
		sink.HandleInfo("heartbeat")
		return nil
	}

	a.mu.Lock()
	info, ok := a.channels[chanID]
	a.mu.Unlock()
	if !ok {
		return nil
	}

	switch info.channel {
	case domain.ChannelTicker:
		return a.processTicker(sink, info.symbol, outer[1])
	case domain.ChannelOrderbook:
		return a.processBook(sink, info.symbol, outer[1])
	case domain.ChannelTrades:
		if len(outer) >= 3 {
			return a.processTradeUpdate(sink, info.symbol, outer[1], outer[2])
		}
		return a.processTradeSnapshot(sink, info.symbol, outer[1])
	default:
		return nil
	}
}

func (a *Adapter) processTicker(sink app.MessageSink, symbol string, payload json.RawMessage) error {
	var row []decimal.Decimal
	if err := json.Unmarshal(payload, &row); err != nil {
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}
	if len(row) < 10 {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("ticker row too short"))
	}
	sink.HandleTicker(domain.Ticker{
		Symbol:    symbol,
		BestBid:   row[0],
		BestAsk:   row[2],
		ChangePct: row[5],
		LastPrice: row[6],
		Volume24h: row[7],
		High24h:   row[8],
		Low24h:    row[9],
	})
	return nil
}

// bookRow decodes as [price, count, amount]: both the signed-amount
// snapshot rows and the individual update row share this three-field
// shape; the snapshot frame is an array of rows, the update frame one
// row.
func (a *Adapter) processBook(sink app.MessageSink, symbol string, payload json.RawMessage) error {
	var rows [][3]decimal.Decimal
	if err := json.Unmarshal(payload, &rows); err == nil {
		for _, r := range rows {
			sink.HandleSignedAmountRow(symbol, r[0], r[2], int(r[1].IntPart()), 0)
		}
		return nil
	}

	var row [3]decimal.Decimal
	if err := json.Unmarshal(payload, &row); err != nil {
		return apperror.New(apperror.CodeParseError,
			apperror.WithMessage("invalid bitfinex book row"),
			apperror.WithCause(err))
	}
	sink.HandleSignedAmountRow(symbol, row[0], row[2], int(row[1].IntPart()), 0)
	return nil
}

func (a *Adapter) processTradeSnapshot(sink app.MessageSink, symbol string, payload json.RawMessage) error {
	var rows [][4]decimal.Decimal
	if err := json.Unmarshal(payload, &rows); err != nil {
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}
	entries := make([]domain.TradeEntry, 0, len(rows))
	for _, r := range rows {
		entries = append(entries, tradeEntryFromRow(r))
	}
	if len(entries) == 0 {
		return nil
	}
	sink.HandleTrade(domain.Trade{Symbol: symbol, Entries: entries})
	return nil
}

func (a *Adapter) processTradeUpdate(sink app.MessageSink, symbol string, kind, payload json.RawMessage) error {
	var tag string
	if err := json.Unmarshal(kind, &tag); err != nil {
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}
	if tag != "te" {
		// "tu" (trade executed, confirmed) duplicates "te"; only "te" is
		// forwarded to avoid double-counting the same fill.
		return nil
	}
	var row [4]decimal.Decimal
	if err := json.Unmarshal(payload, &row); err != nil {
		return apperror.New(apperror.CodeParseError, apperror.WithCause(err))
	}
	sink.HandleTrade(domain.Trade{Symbol: symbol, Entries: []domain.TradeEntry{tradeEntryFromRow(row)}})
	return nil
}

// tradeEntryFromRow converts a Bitfinex [id, timestampMs, amount, price]
// row: amount > 0 is an aggressor buy (bid side), amount < 0 a sell.
func tradeEntryFromRow(row [4]decimal.Decimal) domain.TradeEntry {
	side := domain.TradeSideBid
	amount := row[2]
	if amount.IsNegative() {
		side = domain.TradeSideAsk
		amount = amount.Neg()
	}
	return domain.TradeEntry{
		ID:          strconv.FormatInt(row[0].IntPart(), 10),
		TimestampMs: row[1].IntPart(),
		Side:        side,
		Price:       row[3],
		Quantity:    amount,
		Amount:      row[3].Mul(amount),
	}
}
