package report

import (
	"fmt"
	"io"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/unbound-force/tally/internal/deviation"
)

// TextOptions controls optional detail in text output.
type TextOptions struct {
	// PassedFlags and FailedFlags add a FLAG column to the country
	// tables and an anomaly list per section.
	PassedFlags []deviation.AnomalyFlag
	FailedFlags []deviation.AnomalyFlag
}

// WriteText writes the summary report as human-readable styled text.
// Output uses lipgloss for color and formatting when the output is a
// TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, rpt *SummaryReport) error {
	return WriteTextOptions(w, rpt, TextOptions{})
}

// WriteTextOptions is WriteText with explicit options.
func WriteTextOptions(w io.Writer, rpt *SummaryReport, opts TextOptions) error {
	s := DefaultStyles()
	wroteSection := false

	if rpt.Passed != nil {
		writeSectionHeader(w, s, "Summary for Passed Tests")
		obs := rpt.Passed.KeyObservations
		writeObservation(w, s, "Total Tests", fmt.Sprintf("%d", obs.TotalTests))
		writeObservation(w, s, "Overall Population Average", obs.OverallPopulationAverage)
		writeObservation(w, s, "Sample Size Average", obs.SampleSizeAverage)
		writeObservation(w, s, "Sample Ratio Average", obs.SampleRatioAverage)
		writeObservation(w, s, "Sample Ratio Standard Deviation", obs.SampleRatioStdDev)
		writePatterns(w, s, rpt.Passed.Patterns, opts.PassedFlags)
		writeRecommendations(w, s, rpt.Passed.Recommendations)
		wroteSection = true
	}

	if rpt.Failed != nil {
		if wroteSection {
			fmt.Fprintln(w)
		}
		writeSectionHeader(w, s, "Summary for Failed Tests")
		obs := rpt.Failed.KeyObservations
		writeObservation(w, s, "Total Tests Conducted", fmt.Sprintf("%d", obs.TotalTestsConducted))
		writeObservation(w, s, "Countries Impacted", joinCountries(obs.CountriesImpacted))
		writeObservation(w, s, "Overall Population Average", obs.OverallPopulationAverage)
		writeObservation(w, s, "Defect Average Percentage", obs.DefectAveragePercentage)
		writeObservation(w, s, "Sample Average Percentage", obs.SampleAveragePercentage)
		writeObservation(w, s, "Sample to Population Average Percentage", obs.SampleToPopulationAverage)
		writeObservation(w, s, "Sample to Population Std Deviation", obs.SampleToPopulationStdDev)
		writePatterns(w, s, rpt.Failed.Patterns, opts.FailedFlags)
		writeRecommendations(w, s, rpt.Failed.Recommendations)
		wroteSection = true
	}

	if !wroteSection {
		fmt.Fprintln(w, s.Muted.Render("No sections to report."))
	}
	return nil
}

func writeSectionHeader(w io.Writer, s Styles, title string) {
	fmt.Fprintln(w, s.Header.Render(fmt.Sprintf("=== %s ===", title)))
}

func writeObservation(w io.Writer, s Styles, label, value string) {
	fmt.Fprintf(w, "%s %s\n",
		s.SummaryLabel.Render("    "+label+":"),
		s.SummaryValue.Render(value))
}

func writePatterns(w io.Writer, s Styles, p Patterns, flags []deviation.AnomalyFlag) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, s.SubHeader.Render("    Potential Patterns or Anomalies"))
	writeObservation(w, s, "Min Deviation", p.MinDeviation)
	writeObservation(w, s, "Max Deviation", p.MaxDeviation)

	if len(p.ByCountry) == 0 {
		return
	}

	severityByCountry := make(map[string]string, len(flags))
	for _, f := range flags {
		severityByCountry[f.Country] = string(f.Severity)
	}

	countries := make([]string, 0, len(p.ByCountry))
	for name := range p.ByCountry {
		countries = append(countries, name)
	}
	sort.Strings(countries)

	headers := []string{"COUNTRY", "SAMPLE RATIO"}
	withFlags := len(flags) > 0
	if withFlags {
		headers = append(headers, "FLAG")
	}

	rows := make([][]string, 0, len(countries))
	for _, name := range countries {
		row := []string{name, p.ByCountry[name]}
		if withFlags {
			row = append(row, severityByCountry[name])
		}
		rows = append(rows, row)
	}

	t := table.New().
		Width(76). // Leave 4 chars for left indent.
		Border(lipgloss.NormalBorder()).
		BorderStyle(s.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return s.TableHeader
			}
			// Color the flag column by severity.
			if withFlags && col == 2 && row >= 0 && row < len(rows) {
				return s.SeverityStyle(rows[row][2])
			}
			return s.TableCell
		}).
		Headers(headers...).
		Rows(rows...)

	fmt.Fprintln(w, t)
}

func writeRecommendations(w io.Writer, s Styles, recs []string) {
	if len(recs) == 0 {
		return
	}
	fmt.Fprintln(w, s.SubHeader.Render("    Recommendations for Further Analysis"))
	for _, r := range recs {
		fmt.Fprintf(w, "      - %s\n", r)
	}
}

// joinCountries renders the impacted-country list on one line.
func joinCountries(names []string) string {
	if len(names) == 0 {
		return "none"
	}
	out := names[0]
	for _, n := range names[1:] {
		out += ", " + n
	}
	return out
}
