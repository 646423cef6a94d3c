// Package ui provides the Bubble Tea TUI for the market-data streaming
// dashboard.
package ui

import (
	"time"

	"github.com/fd1az/streamfeed/business/streaming/domain"
)

// Message types for TUI updates

// TickerMsg is sent when a venue publishes a ticker update.
type TickerMsg struct {
	Ticker domain.Ticker
}

// OrderbookMsg is sent when a venue's order book changes.
type OrderbookMsg struct {
	Book domain.OrderbookData
	Venue string
}

// TradeMsg is sent when a venue publishes a trade batch.
type TradeMsg struct {
	Trade domain.Trade
}

// ConnectionStatusMsg is sent when a venue's connection status changes.
type ConnectionStatusMsg struct {
	Name      string
	Connected bool
	Latency   time.Duration
}

// HealthMsg carries a venue's derived health snapshot.
type HealthMsg struct {
	Health domain.HealthSnapshot
}

// StatsMsg carries a venue's aggregated statistics snapshot.
type StatsMsg struct {
	Stats domain.StatisticsSnapshot
}

// ErrorMsg is sent when an error occurs.
type ErrorMsg struct {
	Error error
}

// TickMsg is sent periodically for UI updates.
type TickMsg struct{}

// WelcomeCompleteMsg signals the welcome screen is done (timeout or keypress).
type WelcomeCompleteMsg struct{}

// StartModulesMsg signals that modules should start loading.
type StartModulesMsg struct{}

// LogMsg is sent to display a log message in the UI.
type LogMsg struct {
	Level   string // "info", "warn", "error"
	Message string
}

// StartupMsg is sent during application startup to show progress.
type StartupMsg struct {
	Step    string // Current step name (a venue name)
	Status  string // "connecting", "connected", "failed"
	Message string // Optional message
}
