package kraken

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

type fakeSink struct {
	tickers  []domain.Ticker
	snapshot []string
	deltas   []string
	trades   []domain.Trade
	infos    []string
	protoErr []string
}

func (f *fakeSink) HandleTicker(t domain.Ticker) { f.tickers = append(f.tickers, t) }
func (f *fakeSink) HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
	f.snapshot = append(f.snapshot, symbol)
}
func (f *fakeSink) HandleOrderbookDelta(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
	f.deltas = append(f.deltas, symbol)
}
func (f *fakeSink) HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, ts int64) {
}
func (f *fakeSink) HandleTrade(t domain.Trade)            { f.trades = append(f.trades, t) }
func (f *fakeSink) HandleInfo(message string)             { f.infos = append(f.infos, message) }
func (f *fakeSink) HandleProtocolError(message string, fatal bool) {
	f.protoErr = append(f.protoErr, message)
}

func TestAdapterIdentity(t *testing.T) {
	a := New()
	if a.Name() != "kraken" {
		t.Fatalf("Name() = %q", a.Name())
	}
	if a.PublicURL() == "" {
		t.Fatal("PublicURL must not be empty")
	}
	if !a.SupportsBatchSubscription() {
		t.Fatal("kraken adapter should support batch subscription")
	}
}

func TestBuildSubscribeFrameTicker(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelTicker, Symbol: "BTC/USD"}
	frame, err := a.BuildSubscribeFrame(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"method":"subscribe","params":{"channel":"ticker","symbol":["BTC/USD"]}}`
	if frame != want {
		t.Fatalf("frame = %s, want %s", frame, want)
	}
}

func TestBuildSubscribeFrameOrderbookIncludesDepth(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelOrderbook, Symbol: "ETH/USD"}
	frame, err := a.BuildSubscribeFrame(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"method":"subscribe","params":{"channel":"book","symbol":["ETH/USD"],"depth":25,"snapshot":true}}`
	if frame != want {
		t.Fatalf("frame = %s, want %s", frame, want)
	}
}

func TestBuildSubscribeFrameCandlesUnsupported(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelCandles, Symbol: "BTC/USD"}
	if _, err := a.BuildSubscribeFrame(sub); err == nil {
		t.Fatal("expected error for candles channel")
	}
}

func TestBuildBatchSubscribeFramesGroupsByChannel(t *testing.T) {
	a := New()
	subs := []*domain.Subscription{
		{Channel: domain.ChannelTicker, Symbol: "BTC/USD"},
		{Channel: domain.ChannelTicker, Symbol: "ETH/USD"},
		{Channel: domain.ChannelOrderbook, Symbol: "BTC/USD"},
	}
	frames, err := a.BuildBatchSubscribeFrames(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames (one per channel), got %d: %v", len(frames), frames)
	}
}

func TestProcessMessagePong(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	if err := a.ProcessMessage(sink, []byte(`{"method":"pong"}`), false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.infos) != 1 || sink.infos[0] != "pong" {
		t.Fatalf("expected pong info, got %+v", sink.infos)
	}
}

func TestProcessMessageTicker(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"channel":"ticker","type":"update","data":[{"symbol":"BTC/USD","bid":"50000","ask":"50010","last":"50005","volume":"10","high":"51000","low":"49000","change_pct":"0.5"}]}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.tickers) != 1 {
		t.Fatalf("expected 1 ticker, got %d", len(sink.tickers))
	}
	if sink.tickers[0].Symbol != "BTC/USD" {
		t.Fatalf("ticker symbol = %q", sink.tickers[0].Symbol)
	}
}

func TestProcessMessageInvalidJSON(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	if err := a.ProcessMessage(sink, []byte("not json"), false); err == nil {
		t.Fatal("expected parse error for invalid JSON")
	}
}

func TestProcessMessageFailureReportsProtocolError(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"method":"subscribe","success":false,"error":"symbol unknown"}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.protoErr) != 1 || sink.protoErr[0] != "symbol unknown" {
		t.Fatalf("expected protocol error, got %+v", sink.protoErr)
	}
}
