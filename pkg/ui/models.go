// Package ui provides the Bubble Tea TUI for the market-data streaming
// dashboard.
package ui

// VenuesModel is a placeholder for the per-venue status sub-model.
type VenuesModel struct{}

// NewVenuesModel creates a new venues model.
func NewVenuesModel() VenuesModel {
	return VenuesModel{}
}

// ChannelsModel is a placeholder for the per-channel metrics sub-model.
type ChannelsModel struct{}

// NewChannelsModel creates a new channels model.
func NewChannelsModel() ChannelsModel {
	return ChannelsModel{}
}

// StatsModel is a placeholder for the stats sub-model.
type StatsModel struct{}

// NewStatsModel creates a new stats model.
func NewStatsModel() StatsModel {
	return StatsModel{}
}
