package coinbase

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
func (f *fakeSink) HandleTrade(t domain.Trade) { f.trades = append(f.trades, t) }
func (f *fakeSink) HandleInfo(message string)  { f.infos = append(f.infos, message) }
func (f *fakeSink) HandleProtocolError(message string, fatal bool) {
	f.protoErr = append(f.protoErr, message)
}

func TestFormatSymbolDashJoined(t *testing.T) {
	a := New()
	if got := a.FormatSymbol(domain.NewMarket("BTC", "USD")); got != "BTC-USD" {
		t.Fatalf("FormatSymbol = %q, want BTC-USD", got)
	}
}

func TestBuildBatchSubscribeFramesUnionsProductsAndChannels(t *testing.T) {
	a := New()
	subs := []*domain.Subscription{
		{Channel: domain.ChannelTicker, Symbol: "BTC-USD"},
		{Channel: domain.ChannelOrderbook, Symbol: "BTC-USD"},
		{Channel: domain.ChannelTrades, Symbol: "ETH-USD"},
	}
	frames, err := a.BuildBatchSubscribeFrames(subs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(frames) != 1 {
		t.Fatalf("coinbase coalesces into one frame, got %d", len(frames))
	}
}

func TestProcessMessageSnapshotAndUpdate(t *testing.T) {
	a := New()
	sink := &fakeSink{}

	snap := []byte(`{"type":"snapshot","product_id":"BTC-USD","bids":[["50000","1"]],"asks":[["50010","2"]]}`)
	if err := a.ProcessMessage(sink, snap, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.snapshot) != 1 {
		t.Fatalf("expected 1 snapshot dispatch, got %d", len(sink.snapshot))
	}

	upd := []byte(`{"type":"l2update","product_id":"BTC-USD","changes":[["buy","50000","2"],["sell","50010","0"]]}`)
	if err := a.ProcessMessage(sink, upd, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.deltas) != 1 {
		t.Fatalf("expected 1 delta dispatch, got %d", len(sink.deltas))
	}
}

func TestProcessMessageMatchIsTrade(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"type":"match","product_id":"BTC-USD","price":"50000","size":"1.5","side":"sell","trade_id":42}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.trades) != 1 || sink.trades[0].Entries[0].Side != domain.TradeSideAsk {
		t.Fatalf("side=sell should map to ask side, got %+v", sink.trades)
	}
	if sink.trades[0].Entries[0].ID != "42" {
		t.Fatalf("trade id not carried through: %+v", sink.trades[0].Entries[0])
	}
}

func TestProcessMessageHeartbeatIsInfoOnly(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"type":"heartbeat","product_id":"BTC-USD"}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.infos) != 1 || sink.infos[0] != "heartbeat" {
		t.Fatalf("expected heartbeat info, got %+v", sink.infos)
	}
}

func TestCandlesChannelUnsupported(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelCandles, Symbol: "BTC-USD"}
	if _, err := a.BuildSubscribeFrame(sub); err == nil {
		t.Fatal("expected error: coinbase exchange has no candle channel on this feed")
	}
}
