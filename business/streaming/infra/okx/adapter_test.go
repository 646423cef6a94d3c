package okx

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

type fakeSink struct {
	tickers  []domain.Ticker
	deltas   []string
	trades   []domain.Trade
	infos    []string
	protoErr []string
}

func (f *fakeSink) HandleTicker(t domain.Ticker) { f.tickers = append(f.tickers, t) }
func (f *fakeSink) HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
}
func (f *fakeSink) HandleOrderbookDelta(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
	f.deltas = append(f.deltas, symbol)
}
func (f *fakeSink) HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, ts int64) {
}
func (f *fakeSink) HandleTrade(t domain.Trade) { f.trades = append(f.trades, t) }
func (f *fakeSink) HandleInfo(message string)  { f.infos = append(f.infos, message) }
func (f *fakeSink) HandleProtocolError(message string, fatal bool) {
	f.protoErr = append(f.protoErr, message)
}

func TestFormatSymbolDashJoined(t *testing.T) {
	a := New()
	if got := a.FormatSymbol(domain.NewMarket("BTC", "USDT")); got != "BTC-USDT" {
		t.Fatalf("FormatSymbol = %q, want BTC-USDT", got)
	}
}

func TestCreatePingMessageIsBareString(t *testing.T) {
	a := New()
	if a.CreatePingMessage() != "ping" {
		t.Fatalf("okx ping frame must be the bare string \"ping\", got %q", a.CreatePingMessage())
	}
}

func TestProcessMessagePong(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	if err := a.ProcessMessage(sink, []byte("pong"), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.infos) != 1 || sink.infos[0] != "pong" {
		t.Fatalf("expected pong info, got %+v", sink.infos)
	}
}

func TestBuildBatchSubscribeFramesSingleArgsFrame(t *testing.T) {
	a := New()
	subs := []*domain.Subscription{
		{Channel: domain.ChannelTicker, Symbol: "BTC-USDT"},
		{Channel: domain.ChannelOrderbook, Symbol: "ETH-USDT"},
	}
	frames, err := a.BuildBatchSubscribeFrames(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("okx coalesces into one args frame, got %d", len(frames))
	}
}

func TestProcessMessageTickerData(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"arg":{"channel":"tickers","instId":"BTC-USDT"},"data":[{"instId":"BTC-USDT","last":"50005","bidPx":"50000","askPx":"50010","high24h":"51000","low24h":"49000","vol24h":"10"}]}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.tickers) != 1 || sink.tickers[0].Symbol != "BTC-USDT" {
		t.Fatalf("expected 1 ticker for BTC-USDT, got %+v", sink.tickers)
	}
}

func TestProcessMessageBooksIsDelta(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"arg":{"channel":"books","instId":"BTC-USDT"},"data":[{"bids":[["50000","1","0","2"]],"asks":[["50010","2","0","1"]],"ts":"1000"}]}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.deltas) != 1 {
		t.Fatalf("expected 1 delta dispatch, got %d", len(sink.deltas))
	}
}

func TestProcessMessageErrorEvent(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"event":"error","code":"60012","msg":"invalid request"}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.protoErr) != 1 || sink.protoErr[0] != "invalid request" {
		t.Fatalf("expected protocol error, got %+v", sink.protoErr)
	}
}

func TestCandlesChannelUnsupported(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelCandles, Symbol: "BTC-USDT"}
	if _, err := a.BuildSubscribeFrame(sub); err == nil {
		t.Fatal("expected error: okx candle channel is not wired by this adapter")
	}
}
