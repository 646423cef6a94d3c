package app

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"github.com/shopspring/decimal"
)

type stubAdapter struct {
	name           string
	batch          bool
	pingInterval   int64
	pingMessage    string
	processMessage func(sink MessageSink, raw []byte, isPrivate bool) error
}

func (a *stubAdapter) Name() string                                         { return a.name }
func (a *stubAdapter) PublicURL() string                                    { return "wss://example.invalid/ws" }
func (a *stubAdapter) PrivateURL() string                                   { return "" }
func (a *stubAdapter) PingIntervalMs() int64                                { return a.pingInterval }
func (a *stubAdapter) FormatSymbol(m domain.Market) string                  { return m.String() }
func (a *stubAdapter) CreatePingMessage() string                            { return a.pingMessage }
func (a *stubAdapter) SupportsBatchSubscription() bool                      { return a.batch }
func (a *stubAdapter) BuildSubscribeFrame(sub *domain.Subscription) (string, error) {
	return "subscribe:" + sub.Symbol, nil
}
func (a *stubAdapter) BuildBatchSubscribeFrames(subs []*domain.Subscription) ([]string, error) {
	return []string{"batch"}, nil
}
func (a *stubAdapter) BuildUnsubscribeFrame(sub *domain.Subscription) (string, error) {
	return "unsubscribe:" + sub.Symbol, nil
}
func (a *stubAdapter) ProcessMessage(sink MessageSink, raw []byte, isPrivate bool) error {
	if a.processMessage != nil {
		return a.processMessage(sink, raw, isPrivate)
	}
	return nil
}

type receivedMessage struct {
	venue, symbol string
	channel       domain.Channel
	sizeBytes     int
}

type stubObserver struct {
	errors   []string
	states   []bool
	subs     []bool
	messages []receivedMessage
}

func (o *stubObserver) OnMessageReceived(venue string, channel domain.Channel, symbol string, sizeBytes int, latencyMs float64) {
	o.messages = append(o.messages, receivedMessage{venue, symbol, channel, sizeBytes})
}
func (o *stubObserver) OnConnectionStateChanged(venue string, connected bool) {
	o.states = append(o.states, connected)
}
func (o *stubObserver) OnError(venue string, message string) { o.errors = append(o.errors, message) }
func (o *stubObserver) OnSubscriptionChanged(venue string, channel domain.Channel, symbol string, active bool) {
	o.subs = append(o.subs, active)
}
func (o *stubObserver) GetStatistics(venue string, channel domain.Channel, symbol string) domain.StatisticsSnapshot {
	return domain.StatisticsSnapshot{}
}
func (o *stubObserver) GetHealth(venue string) domain.HealthSnapshot { return domain.HealthSnapshot{} }
func (o *stubObserver) ResetStatistics(venue string)                {}
func (o *stubObserver) OnMetricsUpdated(h func(venue string, snapshot domain.StatisticsSnapshot)) {}
func (o *stubObserver) OnHealthChanged(h func(venue string, health domain.HealthSnapshot))        {}

func newTestClient(t *testing.T) (*Client, *stubObserver) {
	t.Helper()
	obs := &stubObserver{}
	c, err := NewClient(ClientConfig{
		Adapter:  &stubAdapter{name: "stub"},
		Observer: obs,
	})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c, obs
}

func TestNewClientRequiresAdapterAndObserver(t *testing.T) {
	if _, err := NewClient(ClientConfig{Observer: &stubObserver{}}); err == nil {
		t.Fatal("expected error with nil adapter")
	}
	if _, err := NewClient(ClientConfig{Adapter: &stubAdapter{name: "stub"}}); err == nil {
		t.Fatal("expected error with nil observer")
	}
}

func TestNewClientDefaultsState(t *testing.T) {
	c, _ := newTestClient(t)
	if c.State() != StateIdle {
		t.Fatalf("initial state = %s, want idle", c.State())
	}
	if c.Name() != "stub" {
		t.Fatalf("Name() = %q", c.Name())
	}
}

func TestHandleTickerStampsVenueAndInvokesCallback(t *testing.T) {
	c, _ := newTestClient(t)
	var got domain.Ticker
	c.OnTicker(func(t domain.Ticker) { got = t })

	c.HandleTicker(domain.Ticker{Symbol: "BTC/USD", LastPrice: decimal.NewFromInt(50000)})

	if got.Venue != "stub" {
		t.Fatalf("ticker venue = %q, want stub", got.Venue)
	}
	if got.Symbol != "BTC/USD" {
		t.Fatalf("ticker symbol = %q", got.Symbol)
	}
}

func TestHandleOrderbookSnapshotThenDeltaUpdatesSameBook(t *testing.T) {
	c, _ := newTestClient(t)
	var got domain.OrderbookData
	c.OnOrderbook(func(b domain.OrderbookData) { got = b })

	c.HandleOrderbookSnapshot("BTC/USD",
		[]domain.OrderbookLevel{{Price: decimal.NewFromInt(100), Quantity: decimal.NewFromInt(1)}},
		[]domain.OrderbookLevel{{Price: decimal.NewFromInt(101), Quantity: decimal.NewFromInt(1)}}, 1000)
	if len(got.Bids) != 1 || len(got.Asks) != 1 {
		t.Fatalf("expected snapshot to populate both sides, got %+v", got)
	}

	c.HandleOrderbookDelta("BTC/USD",
		[]domain.OrderbookLevel{{Price: decimal.NewFromInt(100), Quantity: decimal.Zero}}, nil, 1001)
	if len(got.Bids) != 0 {
		t.Fatalf("expected delta to remove the bid level, got %+v", got.Bids)
	}

	// Both calls must operate on the one book tracked for this symbol.
	if c.bookFor("BTC/USD") != c.bookFor("BTC/USD") {
		t.Fatal("bookFor must return the same *OrderbookData for a repeated symbol")
	}
}

func TestHandleSignedAmountRow(t *testing.T) {
	c, _ := newTestClient(t)
	var got domain.OrderbookData
	c.OnOrderbook(func(b domain.OrderbookData) { got = b })

	c.HandleSignedAmountRow("BTC/USD", decimal.NewFromInt(100), decimal.NewFromFloat(1.5), 1, 1000)
	if len(got.Bids) != 1 {
		t.Fatalf("expected signed amount row to insert a bid, got %+v", got)
	}
}

func TestHandleTradeStampsVenue(t *testing.T) {
	c, _ := newTestClient(t)
	var got domain.Trade
	c.OnTrade(func(tr domain.Trade) { got = tr })

	c.HandleTrade(domain.Trade{Symbol: "BTC/USD"})
	if got.Venue != "stub" {
		t.Fatalf("trade venue = %q, want stub", got.Venue)
	}
}

func TestHandleInfoInvokesCallbackWithVenue(t *testing.T) {
	c, _ := newTestClient(t)
	var venue, msg string
	c.OnInfo(func(v, m string) { venue, msg = v, m })

	c.HandleInfo("heartbeat")
	if venue != "stub" || msg != "heartbeat" {
		t.Fatalf("got venue=%q msg=%q", venue, msg)
	}
}

func TestHandleProtocolErrorNonFatalNotifiesObserverAndCallback(t *testing.T) {
	c, obs := newTestClient(t)
	var gotErr error
	c.OnError(func(venue string, err error) { gotErr = err })

	c.HandleProtocolError("bad frame", false)

	if len(obs.errors) != 1 || obs.errors[0] != "bad frame" {
		t.Fatalf("observer errors = %+v", obs.errors)
	}
	if gotErr == nil {
		t.Fatal("expected onError callback to fire")
	}
}

func TestHandleRawMessageRecordsPerChannelMetrics(t *testing.T) {
	obs := &stubObserver{}
	adapter := &stubAdapter{
		name: "stub",
		processMessage: func(sink MessageSink, raw []byte, isPrivate bool) error {
			sink.HandleTicker(domain.Ticker{Symbol: "BTC/USD"})
			return nil
		},
	}
	c, err := NewClient(ClientConfig{Adapter: adapter, Observer: obs})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}

	c.handleRawMessage([]byte(`{"irrelevant":true}`), false)

	if len(obs.messages) != 1 {
		t.Fatalf("expected exactly 1 recorded message, got %d: %+v", len(obs.messages), obs.messages)
	}
	got := obs.messages[0]
	if got.channel != domain.ChannelTicker || got.symbol != "BTC/USD" {
		t.Fatalf("expected ticker/BTC-USD dimensions, got %+v", got)
	}
	if got.sizeBytes != len(`{"irrelevant":true}`) {
		t.Fatalf("sizeBytes = %d, want raw frame length", got.sizeBytes)
	}
}

func TestSetStateNotifiesOnlyOnChange(t *testing.T) {
	c, _ := newTestClient(t)
	var transitions []State
	c.OnStateChange(func(_ string, s State) { transitions = append(transitions, s) })

	c.setState(StateConnecting)
	c.setState(StateConnecting) // no-op, same state
	c.setState(StateConnected)

	if len(transitions) != 2 {
		t.Fatalf("expected 2 transitions (duplicate suppressed), got %+v", transitions)
	}
}
