// Package styles maps signed numbers to terminal display styles.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	gain = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	loss = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	flat = lipgloss.NewStyle()

	// Warn highlights advisory lines such as unused yield opportunities.
	Warn = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
)

// BySign returns the display style for a signed value: green above zero,
// red below zero, unstyled at zero.
func BySign(v float64) lipgloss.Style {
	switch {
	case v > 0:
		return gain
	case v < 0:
		return loss
	default:
		return flat
	}
}
