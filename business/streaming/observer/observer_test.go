package observer

import (
	"testing"

	"github.com/fd1az/streamfeed/business/streaming/domain"
)

func newTestObserver(t *testing.T) *Observer {
	t.Helper()
	o, err := New()
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return o
}

func TestOnMessageReceivedAccumulates(t *testing.T) {
	o := newTestObserver(t)
	o.OnMessageReceived("kraken", domain.ChannelTicker, "BTC/USD", 100, 10)
	o.OnMessageReceived("kraken", domain.ChannelTicker, "BTC/USD", 50, 20)

	stats := o.GetStatistics("kraken", domain.ChannelTicker, "BTC/USD")
	if stats.MessageCount != 2 {
		t.Fatalf("MessageCount = %d, want 2", stats.MessageCount)
	}
	if stats.BytesReceived != 150 {
		t.Fatalf("BytesReceived = %d, want 150", stats.BytesReceived)
	}
	if stats.AverageLatencyMs != 15 {
		t.Fatalf("AverageLatencyMs = %v, want 15", stats.AverageLatencyMs)
	}
}

func TestGetStatisticsAggregatesAcrossSymbolsWhenSymbolEmpty(t *testing.T) {
	o := newTestObserver(t)
	o.OnMessageReceived("kraken", domain.ChannelTicker, "BTC/USD", 100, 10)
	o.OnMessageReceived("kraken", domain.ChannelTicker, "ETH/USD", 100, 10)

	agg := o.GetStatistics("kraken", domain.ChannelTicker, "")
	if agg.MessageCount != 2 {
		t.Fatalf("aggregate MessageCount = %d, want 2", agg.MessageCount)
	}
}

func TestOnConnectionStateChangedTracksReconnects(t *testing.T) {
	o := newTestObserver(t)

	o.OnConnectionStateChanged("kraken", true) // initial connect, not a reconnect
	o.OnConnectionStateChanged("kraken", false)
	o.OnConnectionStateChanged("kraken", true) // this one is a completed reconnect

	health := o.GetHealth("kraken")
	if health.TotalReconnects != 1 {
		t.Fatalf("TotalReconnects = %d, want 1", health.TotalReconnects)
	}
	if !health.IsConnected {
		t.Fatal("expected connected health snapshot")
	}
}

func TestGetHealthUnknownVenueIsUnhealthy(t *testing.T) {
	o := newTestObserver(t)
	health := o.GetHealth("ghost")
	if health.Status != domain.HealthUnhealthy {
		t.Fatalf("status = %s, want unhealthy for an unknown venue", health.Status)
	}
}

func TestDeriveHealthDegradesOnFailures(t *testing.T) {
	o := newTestObserver(t)
	o.OnConnectionStateChanged("bitfinex", true)
	for i := 0; i < 11; i++ {
		o.OnError("bitfinex", "parse error")
	}

	health := o.GetHealth("bitfinex")
	if health.Status != domain.HealthDegraded {
		t.Fatalf("status = %s, want degraded after >10 failures", health.Status)
	}
}

func TestOnSubscriptionChangedTracksActiveFlag(t *testing.T) {
	o := newTestObserver(t)
	o.OnSubscriptionChanged("kraken", domain.ChannelOrderbook, "BTC/USD", true)

	stats := o.GetStatistics("kraken", domain.ChannelOrderbook, "BTC/USD")
	if !stats.Active {
		t.Fatal("expected channel to be marked active")
	}

	o.OnSubscriptionChanged("kraken", domain.ChannelOrderbook, "BTC/USD", false)
	stats = o.GetStatistics("kraken", domain.ChannelOrderbook, "BTC/USD")
	if stats.Active {
		t.Fatal("expected channel to be marked inactive")
	}
}

func TestOnErrorIncrementsActiveChannelErrorCounts(t *testing.T) {
	o := newTestObserver(t)
	o.OnSubscriptionChanged("kraken", domain.ChannelTicker, "BTC/USD", true)
	o.OnSubscriptionChanged("kraken", domain.ChannelTrades, "ETH/USD", true)
	o.OnSubscriptionChanged("kraken", domain.ChannelOrderbook, "LTC/USD", false) // inactive, must not be touched

	o.OnError("kraken", "boom")

	if s := o.GetStatistics("kraken", domain.ChannelTicker, "BTC/USD"); s.ErrorCount != 1 {
		t.Fatalf("ticker ErrorCount = %d, want 1", s.ErrorCount)
	}
	if s := o.GetStatistics("kraken", domain.ChannelTrades, "ETH/USD"); s.ErrorCount != 1 {
		t.Fatalf("trades ErrorCount = %d, want 1", s.ErrorCount)
	}
	if s := o.GetStatistics("kraken", domain.ChannelOrderbook, "LTC/USD"); s.ErrorCount != 0 {
		t.Fatalf("inactive channel ErrorCount = %d, want 0", s.ErrorCount)
	}
}

func TestOnMessageReceivedEmitsMetricsUpdated(t *testing.T) {
	o := newTestObserver(t)
	var got domain.StatisticsSnapshot
	var gotVenue string
	o.OnMetricsUpdated(func(venue string, s domain.StatisticsSnapshot) { gotVenue, got = venue, s })

	o.OnMessageReceived("kraken", domain.ChannelTicker, "BTC/USD", 100, 5)

	if gotVenue != "kraken" {
		t.Fatalf("OnMetricsUpdated venue = %q, want kraken", gotVenue)
	}
	if got.MessageCount != 1 {
		t.Fatalf("emitted snapshot MessageCount = %d, want 1", got.MessageCount)
	}
}

func TestOnConnectionStateChangedAlwaysEmitsHealthChanged(t *testing.T) {
	o := newTestObserver(t)
	var calls int
	var last domain.HealthSnapshot
	o.OnHealthChanged(func(_ string, h domain.HealthSnapshot) { calls++; last = h })

	o.OnConnectionStateChanged("kraken", true)
	o.OnConnectionStateChanged("kraken", false)

	if calls != 2 {
		t.Fatalf("OnHealthChanged fired %d times, want 2 (every call, not just completed reconnects)", calls)
	}
	if last.IsConnected {
		t.Fatal("last emitted health should reflect the disconnected state")
	}
}

func TestResetStatisticsClearsChannelsButKeepsConnectionState(t *testing.T) {
	o := newTestObserver(t)
	o.OnConnectionStateChanged("kraken", true)
	o.OnMessageReceived("kraken", domain.ChannelTicker, "BTC/USD", 10, 1)
	o.OnError("kraken", "boom")

	o.ResetStatistics("kraken")

	stats := o.GetStatistics("kraken", domain.ChannelTicker, "BTC/USD")
	if stats.MessageCount != 0 {
		t.Fatalf("expected channel metrics cleared, got MessageCount=%d", stats.MessageCount)
	}
	health := o.GetHealth("kraken")
	if !health.IsConnected {
		t.Fatal("ResetStatistics must not disturb live connection state")
	}
	if health.TotalFailures != 0 {
		t.Fatalf("expected TotalFailures cleared, got %d", health.TotalFailures)
	}
}
