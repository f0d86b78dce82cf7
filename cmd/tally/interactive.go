package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/tally/internal/deviation"
	"github.com/unbound-force/tally/internal/engine"
	"github.com/unbound-force/tally/internal/report"
)

// keyMap defines keybindings for the interactive TUI.
type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Quit     key.Binding
	Help     key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Quit, k.Help}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Quit, k.Help},
	}
}

var defaultKeyMap = keyMap{
	Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("^/k", "up")),
	Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("v/j", "down")),
	PageUp:   key.NewBinding(key.WithKeys("pgup", "ctrl+u"), key.WithHelp("pgup", "page up")),
	PageDown: key.NewBinding(key.WithKeys("pgdown", "ctrl+d"), key.WithHelp("pgdn", "page down")),
	Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c", "esc"), key.WithHelp("q", "quit")),
	Help:     key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

// Styles for the TUI.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63")).
			MarginBottom(1)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	tuiHeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("63"))

	tuiBorderStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("63"))

	severityHighStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	severityLowStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	severityNormalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("40"))
)

// summaryModel is the Bubble Tea model for browsing a summary run.
type summaryModel struct {
	result   *engine.Result
	viewport viewport.Model
	help     help.Model
	keys     keyMap
	ready    bool
	content  string
}

func newSummaryModel(res *engine.Result) summaryModel {
	h := help.New()
	content := renderSummaryContent(res)
	return summaryModel{
		result:  res,
		help:    h,
		keys:    defaultKeyMap,
		content: content,
	}
}

func renderSummaryContent(res *engine.Result) string {
	var sb strings.Builder

	sb.WriteString(titleStyle.Render(
		fmt.Sprintf("Tally Summary: %d record(s), %d dropped, pass rate %s",
			res.ValidRecords, len(res.Dropped),
			report.FormatPercent(res.PassRatePercent))))
	sb.WriteString("\n\n")

	if res.Passed != nil {
		renderSection(&sb, "Summary for Passed Tests", res.Passed)
	}
	if res.Failed != nil {
		renderSection(&sb, "Summary for Failed Tests", res.Failed)
	}
	if res.Passed == nil && res.Failed == nil {
		sb.WriteString(statusStyle.Render("No sections to report."))
		sb.WriteString("\n")
	}

	if len(res.Dropped) > 0 {
		sb.WriteString(tuiHeaderStyle.Render("=== Dropped Records ==="))
		sb.WriteString("\n")
		for _, d := range res.Dropped {
			sb.WriteString(statusStyle.Render(
				fmt.Sprintf("    #%d %s: %s", d.Index, d.Country, d.Reason)))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func renderSection(sb *strings.Builder, title string, data *report.SectionData) {
	sb.WriteString(tuiHeaderStyle.Render(fmt.Sprintf("=== %s ===", title)))
	sb.WriteString("\n")
	sb.WriteString(statusStyle.Render(fmt.Sprintf(
		"    %d record(s) over %d countries, mean sample ratio %s",
		data.Aggregate.RecordCount,
		len(data.Aggregate.Countries),
		report.FormatPercent(data.Aggregate.AvgSampleRatio*100))))
	sb.WriteString("\n")

	if len(data.Deviation.Countries) == 0 {
		sb.WriteString(statusStyle.Render("    No countries observed."))
		sb.WriteString("\n\n")
		return
	}

	// Build the per-country deviation table.
	rows := make([][]string, 0, len(data.Deviation.Countries))
	for _, c := range data.Deviation.Countries {
		flag := ""
		if c.Anomaly {
			flag = "anomaly"
		}
		rows = append(rows, []string{
			string(c.Severity),
			c.Country,
			report.FormatPercent(c.RatioPercent),
			report.FormatPercent(c.DeviationPercent),
			flag,
		})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(tuiBorderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tuiHeaderStyle
			}
			if col == 0 && row >= 0 && row < len(rows) {
				switch deviation.Severity(rows[row][0]) {
				case deviation.SeverityHigh:
					return severityHighStyle
				case deviation.SeverityLow:
					return severityLowStyle
				case deviation.SeverityNormal:
					return severityNormalStyle
				}
			}
			return lipgloss.NewStyle()
		}).
		Headers("SEVERITY", "COUNTRY", "RATIO", "DEVIATION", "FLAG").
		Rows(rows...)

	sb.WriteString(t.String())
	sb.WriteString("\n\n")
}

func (m summaryModel) Init() tea.Cmd {
	return nil
}

func (m summaryModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		headerHeight := 0
		footerHeight := 2
		verticalMargin := headerHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		}
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m summaryModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	footer := statusStyle.Render(
		fmt.Sprintf(" %3.f%% ", m.viewport.ScrollPercent()*100)) +
		" " + m.help.View(m.keys)

	return m.viewport.View() + "\n" + footer
}

// runInteractiveSummary launches the Bubble Tea TUI for browsing a
// summary run.
func runInteractiveSummary(res *engine.Result) error {
	model := newSummaryModel(res)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := p.Run()
	return err
}
