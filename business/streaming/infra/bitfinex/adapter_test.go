package bitfinex

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

type fakeSink struct {
	tickers []domain.Ticker
	rows    int
	trades  []domain.Trade
	infos   []string
}

func (f *fakeSink) HandleTicker(t domain.Ticker) { f.tickers = append(f.tickers, t) }
func (f *fakeSink) HandleOrderbookSnapshot(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
}
func (f *fakeSink) HandleOrderbookDelta(symbol string, bids, asks []domain.OrderbookLevel, ts int64) {
}
func (f *fakeSink) HandleSignedAmountRow(symbol string, price, amount decimal.Decimal, count int, ts int64) {
	f.rows++
}
func (f *fakeSink) HandleTrade(t domain.Trade)            { f.trades = append(f.trades, t) }
func (f *fakeSink) HandleInfo(message string)             { f.infos = append(f.infos, message) }
func (f *fakeSink) HandleProtocolError(message string, fatal bool) {}

func TestFormatSymbol(t *testing.T) {
	a := New()
	got := a.FormatSymbol(domain.NewMarket("BTC", "USD"))
	if got != "tBTCUSD" {
		t.Fatalf("FormatSymbol = %q, want tBTCUSD", got)
	}
}

func TestSubscribeThenChannelFrameRoutesByRememberedID(t *testing.T) {
	a := New()
	sink := &fakeSink{}

	// subscribed ack assigns chanId 5 to the ticker channel for tBTCUSD
	ack := []byte(`{"event":"subscribed","channel":"ticker","chanId":5,"symbol":"tBTCUSD"}`)
	if err := a.ProcessMessage(sink, ack, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.infos) != 1 {
		t.Fatalf("expected subscribed info, got %+v", sink.infos)
	}

	tickerFrame := []byte(`[5,[50000,10,50010,12,100,0.01,50005,1000,51000,49000]]`)
	if err := a.ProcessMessage(sink, tickerFrame, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.tickers) != 1 {
		t.Fatalf("expected 1 ticker dispatched via remembered channel id, got %d", len(sink.tickers))
	}
	if sink.tickers[0].Symbol != "tBTCUSD" {
		t.Fatalf("ticker symbol = %q", sink.tickers[0].Symbol)
	}
}

func TestUnknownChannelIDIsIgnored(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	frame := []byte(`[999,[1,2,3]]`)
	if err := a.ProcessMessage(sink, frame, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.tickers) != 0 {
		t.Fatalf("unknown channel id must not dispatch, got %+v", sink.tickers)
	}
}

func TestHeartbeatFrameIsInfoOnly(t *testing.T) {
	a := New()
	sink := &fakeSink{}
	frame := []byte(`[5,"hb"]`)
	if err := a.ProcessMessage(sink, frame, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(sink.infos) != 1 || sink.infos[0] != "heartbeat" {
		t.Fatalf("expected heartbeat info, got %+v", sink.infos)
	}
}

func TestTradeEntryFromRowSignConvention(t *testing.T) {
	buy := tradeEntryFromRow([4]decimal.Decimal{
		decimal.NewFromInt(1), decimal.NewFromInt(1000), decimal.NewFromFloat(1.5), decimal.NewFromInt(50000),
	})
	if buy.Side != domain.TradeSideBid {
		t.Fatalf("positive amount should be bid side, got %s", buy.Side)
	}

	sell := tradeEntryFromRow([4]decimal.Decimal{
		decimal.NewFromInt(2), decimal.NewFromInt(1001), decimal.NewFromFloat(-2.0), decimal.NewFromInt(50010),
	})
	if sell.Side != domain.TradeSideAsk {
		t.Fatalf("negative amount should be ask side, got %s", sell.Side)
	}
	if sell.Quantity.String() != "2" {
		t.Fatalf("quantity should be un-negated, got %s", sell.Quantity)
	}
}

func TestBatchSubscriptionUnsupported(t *testing.T) {
	a := New()
	if a.SupportsBatchSubscription() {
		t.Fatal("bitfinex requires one frame per subscription")
	}
}
