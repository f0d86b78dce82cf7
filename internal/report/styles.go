package report

import (
	"github.com/charmbracelet/lipgloss"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers.
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// SeverityHigh, SeverityLow, and SeverityNormal color-code
	// deviation severities.
	SeverityHigh   lipgloss.Style
	SeverityLow    lipgloss.Style
	SeverityNormal lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// SummaryLabel styles observation labels.
	SummaryLabel lipgloss.Style

	// SummaryValue styles observation values.
	SummaryValue lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		SeverityHigh:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		SeverityLow:    lipgloss.NewStyle().Foreground(lipgloss.Color("220")),
		SeverityNormal: lipgloss.NewStyle().Foreground(lipgloss.Color("40")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(44),
		SummaryValue: lipgloss.NewStyle(),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// SeverityStyle returns the appropriate style for a severity string.
func (s Styles) SeverityStyle(severity string) lipgloss.Style {
	switch severity {
	case "high":
		return s.SeverityHigh
	case "low":
		return s.SeverityLow
	case "normal":
		return s.SeverityNormal
	default:
		return s.Muted
	}
}
