package domain

import "time"

// ChannelMetrics tracks a single (channel, symbol) pair within a venue.
type ChannelMetrics struct {
	Channel           Channel
	Symbol            string
	MessageCount      uint64
	BytesReceived     uint64
	LastMessageTime   time.Time
	TotalLatencyMs    float64 // sum, so AverageLatencyMs = TotalLatencyMs / MessageCount
	ErrorCount        uint64
	Active            bool
}

// AverageLatencyMs returns the mean processing latency, or 0 with no
// messages recorded yet.
func (c *ChannelMetrics) AverageLatencyMs() float64 {
	if c.MessageCount == 0 {
		return 0
	}
	return c.TotalLatencyMs / float64(c.MessageCount)
}

// HealthStatus is the derived health classification for a venue.
type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

// VenueMetrics aggregates connection state and per-channel metrics for one
// venue.
type VenueMetrics struct {
	Venue              string
	ConnectedSince     time.Time
	IsConnected        bool
	IsAuthenticated    bool
	ReconnectAttempts  int
	TotalReconnects    uint64
	TotalMessageFailures uint64
	LastError          string
	LastErrorTime       time.Time
}

// StatisticsSnapshot is the value returned by GetStatistics: either a
// single channel entry, or an aggregate across every (channel, symbol)
// matched by the query.
type StatisticsSnapshot struct {
	Venue             string
	Channel           Channel
	Symbol            string
	MessageCount      uint64
	BytesReceived     uint64
	AverageLatencyMs  float64
	ErrorCount        uint64
	LastMessageTime   time.Time
	UptimeSeconds     float64
	MessagesPerSecond float64
	Active            bool
}

// HealthSnapshot is the value returned by GetHealth.
type HealthSnapshot struct {
	Venue             string
	Status            HealthStatus
	IsConnected       bool
	ReconnectAttempts int
	TotalReconnects   uint64
	TotalFailures     uint64
	LastError         string
	LastErrorTime     time.Time
}

// DeriveHealth implements the spec's health-classification rule:
// Unhealthy if not connected; else Degraded if failures > 10 or
// reconnect attempts > 3; else Healthy.
func DeriveHealth(connected bool, totalFailures uint64, reconnectAttempts int) HealthStatus {
	if !connected {
		return HealthUnhealthy
	}
	if totalFailures > 10 || reconnectAttempts > 3 {
		return HealthDegraded
	}
	return HealthHealthy
}
