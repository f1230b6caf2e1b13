package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Style definitions.
var (
	// TitleStyle for headers.
	TitleStyle = lipgloss.NewStyle().Bold(true)

	// HelpStyle for help text.
	HelpStyle = lipgloss.NewStyle().Faint(true)

	// ErrorStyle for error messages.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))

	upStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	downStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

// FormatPriceWithColor formats a price with an indicator based on comparison with the previous price.
func FormatPriceWithColor(current, previous float64) string {
	priceStr := fmt.Sprintf("%.4f", current)

	if previous == 0 {
		return priceStr
	}

	if current > previous {
		return upStyle.Render(priceStr + " ▲")
	} else if current < previous {
		return downStyle.Render(priceStr + " ▼")
	}

	return priceStr
}

// FormatSigned renders a signed amount in green or red.
func FormatSigned(value float64, suffix string) string {
	text := fmt.Sprintf("%+.2f%s", value, suffix)

	switch {
	case value > 0:
		return upStyle.Render(text)
	case value < 0:
		return downStyle.Render(text)
	default:
		return text
	}
}
