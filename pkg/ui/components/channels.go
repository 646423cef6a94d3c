// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// ChannelRow is one (venue, channel, symbol) line in the channel table.
type ChannelRow struct {
	Venue        string
	Channel      string
	Symbol       string
	MessageCount uint64
	AvgLatencyMs float64
	Active       bool
}

// ChannelsComponent renders the per-(venue,channel,symbol) metrics table.
type ChannelsComponent struct {
	rows    map[string]ChannelRow
	maxRows int
}

// NewChannelsComponent creates a new channels component holding up to
// maxRows distinct entries.
func NewChannelsComponent(maxRows int) *ChannelsComponent {
	return &ChannelsComponent{rows: make(map[string]ChannelRow), maxRows: maxRows}
}

// Update upserts one row keyed by (venue, channel, symbol).
func (c *ChannelsComponent) Update(row ChannelRow) {
	key := row.Venue + "/" + row.Channel + "/" + row.Symbol
	c.rows[key] = row
}

// View renders the channel table sorted by venue then channel then
// symbol, for a stable display order across redraws.
func (c *ChannelsComponent) View() string {
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	mutedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	activeStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var sb strings.Builder
	sb.WriteString(headerStyle.Render("CHANNELS"))
	sb.WriteString("\n\n")

	if len(c.rows) == 0 {
		sb.WriteString(mutedStyle.Render("  No channel activity yet"))
		return sb.String()
	}

	keys := make([]string, 0, len(c.rows))
	for k := range c.rows {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > c.maxRows {
		keys = keys[:c.maxRows]
	}

	for _, k := range keys {
		row := c.rows[k]
		marker := mutedStyle.Render("○")
		if row.Active {
			marker = activeStyle.Render("●")
		}
		sb.WriteString(fmt.Sprintf("  %s %-10s %-10s %-10s msgs=%-8d avg=%.1fms\n",
			marker, row.Venue, row.Channel, row.Symbol, row.MessageCount, row.AvgLatencyMs))
	}

	return sb.String()
}
