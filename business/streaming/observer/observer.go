// Package observer implements the streaming core's observability source of
// truth: a concurrent per-(venue, channel, symbol) metrics table plus
// per-venue connection/health bookkeeping. OTEL is wired in as a mirror —
// message, error, connection-state and reconnect updates are also recorded
// as OTEL instruments (subscription changes and resets are not) — but
// GetStatistics/GetHealth are answered from this table, not from the OTEL
// SDK, so they work identically whether or not telemetry export is
// enabled.
package observer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fd1az/streamfeed/business/streaming/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/fd1az/streamfeed/business/streaming/observer"

type channelKey struct {
	venue   string
	channel domain.Channel
	symbol  string
}

// Observer implements business/streaming/app.Observer.
type Observer struct {
	mu       sync.RWMutex
	channels map[channelKey]*domain.ChannelMetrics
	venues   map[string]*domain.VenueMetrics

	cbMu      sync.RWMutex
	onMetrics func(venue string, snapshot domain.StatisticsSnapshot)
	onHealth  func(venue string, health domain.HealthSnapshot)

	instruments
}

type instruments struct {
	messagesTotal   metric.Int64Counter
	bytesTotal      metric.Int64Counter
	latencyHist     metric.Float64Histogram
	errorsTotal     metric.Int64Counter
	reconnectsTotal metric.Int64Counter
	connectionState metric.Int64Gauge
}

// New builds an Observer and registers its OTEL instruments against the
// global meter provider.
func New() (*Observer, error) {
	o := &Observer{
		channels: make(map[channelKey]*domain.ChannelMetrics),
		venues:   make(map[string]*domain.VenueMetrics),
	}

	meter := otel.Meter(meterName)
	var err error

	o.messagesTotal, err = meter.Int64Counter("streamfeed_messages_received_total",
		metric.WithDescription("Total inbound messages per venue/channel/symbol"),
		metric.WithUnit("{message}"))
	if err != nil {
		return nil, fmt.Errorf("init messages counter: %w", err)
	}

	o.bytesTotal, err = meter.Int64Counter("streamfeed_bytes_received_total",
		metric.WithDescription("Total inbound bytes per venue/channel/symbol"),
		metric.WithUnit("By"))
	if err != nil {
		return nil, fmt.Errorf("init bytes counter: %w", err)
	}

	o.latencyHist, err = meter.Float64Histogram("streamfeed_message_latency_ms",
		metric.WithDescription("Message processing latency"),
		metric.WithUnit("ms"))
	if err != nil {
		return nil, fmt.Errorf("init latency histogram: %w", err)
	}

	o.errorsTotal, err = meter.Int64Counter("streamfeed_errors_total",
		metric.WithDescription("Total errors per venue"),
		metric.WithUnit("{error}"))
	if err != nil {
		return nil, fmt.Errorf("init errors counter: %w", err)
	}

	o.reconnectsTotal, err = meter.Int64Counter("streamfeed_reconnects_total",
		metric.WithDescription("Total completed reconnects per venue"),
		metric.WithUnit("{reconnect}"))
	if err != nil {
		return nil, fmt.Errorf("init reconnects counter: %w", err)
	}

	o.connectionState, err = meter.Int64Gauge("streamfeed_connection_state",
		metric.WithDescription("1 if the venue is currently connected, else 0"),
		metric.WithUnit("{state}"))
	if err != nil {
		return nil, fmt.Errorf("init connection state gauge: %w", err)
	}

	return o, nil
}

func (o *Observer) OnMessageReceived(venue string, channel domain.Channel, symbol string, sizeBytes int, latencyMs float64) {
	k := channelKey{venue, channel, symbol}

	o.mu.Lock()
	cm, ok := o.channels[k]
	if !ok {
		cm = &domain.ChannelMetrics{Channel: channel, Symbol: symbol, Active: true}
		o.channels[k] = cm
	}
	cm.MessageCount++
	cm.BytesReceived += uint64(sizeBytes)
	cm.TotalLatencyMs += latencyMs
	cm.LastMessageTime = time.Now()
	o.mu.Unlock()

	attrs := metric.WithAttributes(
		attribute.String("venue", venue),
		attribute.String("channel", string(channel)),
		attribute.String("symbol", symbol))
	ctx := context.Background()
	o.messagesTotal.Add(ctx, 1, attrs)
	o.bytesTotal.Add(ctx, int64(sizeBytes), attrs)
	o.latencyHist.Record(ctx, latencyMs, attrs)

	o.cbMu.RLock()
	h := o.onMetrics
	o.cbMu.RUnlock()
	if h != nil {
		h(venue, o.GetStatistics(venue, "", ""))
	}
}

func (o *Observer) OnConnectionStateChanged(venue string, connected bool) {
	o.mu.Lock()
	vm := o.venueForLocked(venue)
	wasConnected := vm.IsConnected
	vm.IsConnected = connected

	var completedReconnect bool
	if connected {
		if vm.ReconnectAttempts > 0 {
			vm.TotalReconnects++
			completedReconnect = true
		}
		vm.ReconnectAttempts = 0
		if vm.ConnectedSince.IsZero() {
			vm.ConnectedSince = time.Now()
		}
	} else if wasConnected || vm.ReconnectAttempts == 0 {
		vm.ReconnectAttempts++
	}
	o.mu.Unlock()

	ctx := context.Background()
	attrs := metric.WithAttributes(attribute.String("venue", venue))
	state := int64(0)
	if connected {
		state = 1
	}
	o.connectionState.Record(ctx, state, attrs)
	if completedReconnect {
		o.reconnectsTotal.Add(ctx, 1, attrs)
	}

	o.cbMu.RLock()
	h := o.onHealth
	o.cbMu.RUnlock()
	if h != nil {
		h(venue, o.GetHealth(venue))
	}
}

func (o *Observer) OnError(venue string, message string) {
	o.mu.Lock()
	vm := o.venueForLocked(venue)
	vm.LastError = message
	vm.LastErrorTime = time.Now()
	vm.TotalMessageFailures++
	for k, cm := range o.channels {
		if k.venue == venue && cm.Active {
			cm.ErrorCount++
		}
	}
	o.mu.Unlock()

	o.errorsTotal.Add(context.Background(), 1, metric.WithAttributes(attribute.String("venue", venue)))
}

func (o *Observer) OnSubscriptionChanged(venue string, channel domain.Channel, symbol string, active bool) {
	k := channelKey{venue, channel, symbol}

	o.mu.Lock()
	defer o.mu.Unlock()
	cm, ok := o.channels[k]
	if !ok {
		cm = &domain.ChannelMetrics{Channel: channel, Symbol: symbol}
		o.channels[k] = cm
	}
	cm.Active = active
}

// GetStatistics returns the statistics for one (channel, symbol), or an
// aggregate across every matching entry when channel and/or symbol are
// empty.
func (o *Observer) GetStatistics(venue string, channel domain.Channel, symbol string) domain.StatisticsSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	vm := o.venues[venue]
	connectedSince := time.Time{}
	if vm != nil {
		connectedSince = vm.ConnectedSince
	}

	agg := domain.StatisticsSnapshot{Venue: venue, Channel: channel, Symbol: symbol}
	var matched int

	for k, cm := range o.channels {
		if k.venue != venue {
			continue
		}
		if channel != "" && k.channel != channel {
			continue
		}
		if symbol != "" && k.symbol != symbol {
			continue
		}
		matched++
		agg.MessageCount += cm.MessageCount
		agg.BytesReceived += cm.BytesReceived
		agg.ErrorCount += cm.ErrorCount
		if cm.LastMessageTime.After(agg.LastMessageTime) {
			agg.LastMessageTime = cm.LastMessageTime
		}
		agg.AverageLatencyMs += cm.TotalLatencyMs
		agg.Active = agg.Active || cm.Active
	}

	if agg.MessageCount > 0 {
		agg.AverageLatencyMs /= float64(agg.MessageCount)
	} else {
		agg.AverageLatencyMs = 0
	}

	if !connectedSince.IsZero() {
		uptime := time.Since(connectedSince).Seconds()
		agg.UptimeSeconds = uptime
		if uptime > 0 {
			agg.MessagesPerSecond = float64(agg.MessageCount) / uptime
		}
	}

	return agg
}

// GetHealth returns the derived health classification for one venue.
func (o *Observer) GetHealth(venue string) domain.HealthSnapshot {
	o.mu.RLock()
	defer o.mu.RUnlock()

	vm := o.venues[venue]
	if vm == nil {
		return domain.HealthSnapshot{Venue: venue, Status: domain.HealthUnhealthy}
	}

	status := domain.DeriveHealth(vm.IsConnected, vm.TotalMessageFailures, vm.ReconnectAttempts)
	return domain.HealthSnapshot{
		Venue:             venue,
		Status:            status,
		IsConnected:       vm.IsConnected,
		ReconnectAttempts: vm.ReconnectAttempts,
		TotalReconnects:   vm.TotalReconnects,
		TotalFailures:     vm.TotalMessageFailures,
		LastError:         vm.LastError,
		LastErrorTime:     vm.LastErrorTime,
	}
}

// ResetStatistics zeroes the counters for a venue without disturbing its
// live connection state.
func (o *Observer) ResetStatistics(venue string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	for k, cm := range o.channels {
		if k.venue == venue {
			cm.MessageCount = 0
			cm.BytesReceived = 0
			cm.TotalLatencyMs = 0
			cm.ErrorCount = 0
			cm.LastMessageTime = time.Time{}
		}
	}
	if vm, ok := o.venues[venue]; ok {
		vm.TotalMessageFailures = 0
		vm.TotalReconnects = 0
		vm.ReconnectAttempts = 0
		vm.LastError = ""
		vm.LastErrorTime = time.Time{}
	}
}

// OnMetricsUpdated registers the handler fired from OnMessageReceived
// with the venue's current aggregate statistics. Registering a new
// handler replaces any previous one.
func (o *Observer) OnMetricsUpdated(h func(venue string, snapshot domain.StatisticsSnapshot)) {
	o.cbMu.Lock()
	o.onMetrics = h
	o.cbMu.Unlock()
}

// OnHealthChanged registers the handler fired from OnConnectionStateChanged
// with the venue's current derived health. Registering a new handler
// replaces any previous one.
func (o *Observer) OnHealthChanged(h func(venue string, health domain.HealthSnapshot)) {
	o.cbMu.Lock()
	o.onHealth = h
	o.cbMu.Unlock()
}

func (o *Observer) venueForLocked(venue string) *domain.VenueMetrics {
	vm, ok := o.venues[venue]
	if !ok {
		vm = &domain.VenueMetrics{Venue: venue}
		o.venues[venue] = vm
	}
	return vm
}
