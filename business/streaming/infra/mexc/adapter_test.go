package mexc

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

func TestFormatSymbolUppercaseJoined(t *testing.T) {
	a := New()
	if got := a.FormatSymbol(domain.NewMarket("btc", "usdt")); got != "BTCUSDT" {
		t.Fatalf("FormatSymbol = %q, want BTCUSDT", got)
	}
}

func TestBuildBatchSubscribeFramesSingleFrame(t *testing.T) {
	a := New()
	subs := []*domain.Subscription{
		{Channel: domain.ChannelTicker, Symbol: "BTCUSDT"},
		{Channel: domain.ChannelOrderbook, Symbol: "BTCUSDT"},
		{Channel: domain.ChannelTrades, Symbol: "ETHUSDT"},
	}
	frames, err := a.BuildBatchSubscribeFrames(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("mexc coalesces every subscription into one frame, got %d", len(frames))
	}
}

func TestProcessMessageBookTicker(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"c":"spot@public.bookTicker.v3.api@BTCUSDT","s":"BTCUSDT","d":{"b":"50000","B":"1","a":"50010","A":"2"}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.tickers) != 1 {
		t.Fatalf("expected 1 ticker, got %d", len(sink.tickers))
	}
	if sink.tickers[0].BestBid.String() != "50000" {
		t.Fatalf("BestBid = %s, want 50000", sink.tickers[0].BestBid)
	}
}

func TestProcessMessageDepthIsDelta(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"c":"spot@public.aggre.depth.v3.api.pb@100ms@BTCUSDT","s":"BTCUSDT","d":{"bids":[{"p":"50000","v":"1"}],"asks":[{"p":"50010","v":"2"}]}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.deltas) != 1 {
		t.Fatalf("expected depth frame dispatched as delta, got %d", len(sink.deltas))
	}
}

func TestProcessMessageErrorCode(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"c":"","s":"","code":1,"msg":"invalid subscription"}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.protoErr) != 1 || sink.protoErr[0] != "invalid subscription" {
		t.Fatalf("expected protocol error, got %+v", sink.protoErr)
	}
}

func TestProcessMessageDealsSideMapping(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"c":"spot@public.aggre.deals.v3.api.pb@100ms@BTCUSDT","s":"BTCUSDT","d":{"deals":[{"p":"50000","v":"1","S":2,"t":1000}]}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.trades) != 1 || sink.trades[0].Entries[0].Side != domain.TradeSideAsk {
		t.Fatalf("S=2 should map to ask side, got %+v", sink.trades)
	}
}
