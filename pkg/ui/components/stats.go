// Package components provides reusable TUI components.
package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds aggregate streaming statistics for display.
type Stats struct {
	MessagesTotal   uint64
	BytesTotal      uint64
	AvgLatencyMs    float64
	ReconnectsTotal uint64
	Errors          uint64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Messages: %s  │  Bytes: %s  │  Reconnects: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.MessagesTotal)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.BytesTotal)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.ReconnectsTotal)),
		) +
		fmt.Sprintf("Avg latency: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%.0fms", s.stats.AvgLatencyMs)),
			errorsDisplay,
		)
}
