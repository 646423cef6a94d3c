package bitstamp

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

type fakeSink struct {
	trades   []domain.Trade
	snapshot []string
	deltas   []string
	protoErr []string
}

func (f *fakeSink) HandleTicker(t domain.Ticker) {}
func (f *fakeSink) HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
	f.snapshot = append(f.snapshot, symbol)
}
func (f *fakeSink) HandleOrderbookDelta(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
	f.deltas = append(f.deltas, symbol)
}
func (f *fakeSink) HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, ts int64) {
}
func (f *fakeSink) HandleTrade(t domain.Trade) { f.trades = append(f.trades, t) }
func (f *fakeSink) HandleInfo(message string)  {}
func (f *fakeSink) HandleProtocolError(message string, fatal bool) {
	f.protoErr = append(f.protoErr, message)
}

func TestCreatePingMessageIsEmpty(t *testing.T) {
	a := New()
	if a.CreatePingMessage() != "" {
		t.Fatal("bitstamp adapter must not synthesize a ping frame")
	}
}

func TestFormatSymbolLowercasesJoined(t *testing.T) {
	a := New()
	if got := a.FormatSymbol(domain.NewMarket("BTC", "USD")); got != "btcusd" {
		t.Fatalf("FormatSymbol = %q, want btcusd", got)
	}
}

func TestBuildSubscribeFrameDiffOrderBook(t *testing.T) {
	a := New()
	sub := &domain.Subscription{Channel: domain.ChannelOrderbook, Symbol: "btcusd"}
	frame, err := a.BuildSubscribeFrame(sub)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := `{"event":"bts:subscribe","data":{"channel":"diff_order_book_btcusd"}}`
	if frame != want {
		t.Fatalf("frame = %s, want %s", frame, want)
	}
}

func TestProcessMessageTradeEvent(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"event":"trade","channel":"live_trades_btcusd","data":{"id":1,"amount":"1.5","price":"50000","type":1}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(sink.trades))
	}
	if sink.trades[0].Entries[0].Side != domain.TradeSideAsk {
		t.Fatalf("type=1 should map to ask side, got %s", sink.trades[0].Entries[0].Side)
	}
	if sink.trades[0].Symbol != "btcusd" {
		t.Fatalf("symbol stripped incorrectly: %q", sink.trades[0].Symbol)
	}
}

func TestProcessMessageDiffOrderBookIsDelta(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"event":"data","channel":"diff_order_book_btcusd","data":{"bids":[["50000","1"]],"asks":[["50010","2"]]}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.deltas) != 1 || len(sink.snapshot) != 0 {
		t.Fatalf("diff_order_book must dispatch as delta, got deltas=%v snapshot=%v", sink.deltas, sink.snapshot)
	}
}

func TestProcessMessageReconnectRequestIsFatalProtocolError(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	raw := []byte(`{"event":"bts:request_reconnect","channel":"","data":{}}`)
	if err := a.ProcessMessage(sink, raw, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.protoErr) != 1 {
		t.Fatalf("expected a protocol error signal, got %+v", sink.protoErr)
	}
}
