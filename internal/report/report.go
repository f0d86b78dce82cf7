// Package report assembles aggregation and deviation results into
// the two-section summary report and renders it as JSON or styled
// text. The JSON shape matches the downstream reviewers' expected
// artifact: two top-level sections keyed "Summary for Passed Tests"
// and "Summary for Failed Tests".
package report

import (
	"github.com/unbound-force/tally/internal/aggregate"
	"github.com/unbound-force/tally/internal/deviation"
)

// SectionData pairs one outcome group's aggregate with its
// deviation analysis. The engine produces one per non-empty group.
type SectionData struct {
	Aggregate aggregate.OutcomeAggregate
	Deviation deviation.Analysis
}

// PassedObservations are the key observations of the passed-tests
// section. All averages are two-decimal percent strings.
type PassedObservations struct {
	TotalTests               int    `json:"Total Tests"`
	OverallPopulationAverage string `json:"Overall Population Average"`
	SampleSizeAverage        string `json:"Sample Size Average"`
	SampleRatioAverage       string `json:"Sample Ratio Average"`
	SampleRatioStdDev        string `json:"Sample Ratio Standard Deviation"`
}

// FailedObservations are the key observations of the failed-tests
// section.
type FailedObservations struct {
	TotalTestsConducted       int      `json:"Total Tests Conducted"`
	CountriesImpacted         []string `json:"Countries Impacted"`
	OverallPopulationAverage  string   `json:"Overall Population Average"`
	DefectAveragePercentage   string   `json:"Defect Average Percentage"`
	SampleAveragePercentage   string   `json:"Sample Average Percentage"`
	SampleToPopulationAverage string   `json:"Sample to Population Average Percentage"`
	SampleToPopulationStdDev  string   `json:"Sample to Population Standard Deviation Percentage"`
}

// Patterns holds the deviation observations of a section. ByCountry
// maps every observed country to its mean sample ratio percent;
// encoding/json marshals map keys sorted, which gives the required
// alphabetical order.
type Patterns struct {
	MinDeviation string            `json:"Min Deviation"`
	MaxDeviation string            `json:"Max Deviation"`
	ByCountry    map[string]string `json:"By Country"`
}

// PassedSection is the passed-tests half of the report.
type PassedSection struct {
	KeyObservations PassedObservations `json:"Key Observations"`
	Patterns        Patterns           `json:"Potential Patterns or Anomalies"`
	Recommendations []string           `json:"Recommendations for Further Analysis,omitempty"`
}

// FailedSection is the failed-tests half of the report.
type FailedSection struct {
	KeyObservations FailedObservations `json:"Key Observations"`
	Patterns        Patterns           `json:"Potential Patterns or Anomalies"`
	Recommendations []string           `json:"Recommendations for Further Analysis,omitempty"`
}

// SummaryReport is the complete two-section report. A section is nil
// when its outcome group had no valid records.
type SummaryReport struct {
	Passed *PassedSection `json:"Summary for Passed Tests,omitempty"`
	Failed *FailedSection `json:"Summary for Failed Tests,omitempty"`
}

// Assemble merges the per-group statistics and deviation analyses
// into the report structure. Recommendation strings are attached
// unchanged; the assembler never generates text. Nil section data
// yields a nil section.
func Assemble(passed, failed *SectionData, passedRecs, failedRecs []string) *SummaryReport {
	rpt := &SummaryReport{}

	if passed != nil {
		agg := passed.Aggregate
		rpt.Passed = &PassedSection{
			KeyObservations: PassedObservations{
				TotalTests:               agg.RecordCount,
				OverallPopulationAverage: FormatPercent(agg.AvgPopulation),
				SampleSizeAverage:        FormatPercent(agg.AvgSampleSize),
				SampleRatioAverage:       FormatPercent(agg.AvgSampleRatio * 100),
				SampleRatioStdDev:        FormatPercent(agg.StdDevSampleRatio * 100),
			},
			Patterns:        patterns(passed.Deviation),
			Recommendations: passedRecs,
		}
	}

	if failed != nil {
		agg := failed.Aggregate
		rpt.Failed = &FailedSection{
			KeyObservations: FailedObservations{
				TotalTestsConducted:       agg.RecordCount,
				CountriesImpacted:         impacted(agg),
				OverallPopulationAverage:  FormatPercent(agg.AvgPopulation),
				DefectAveragePercentage:   FormatPercent(agg.AvgDefectRatio * 100),
				SampleAveragePercentage:   FormatPercent(agg.AvgSampleRatio * 100),
				SampleToPopulationAverage: FormatPercent(agg.AvgSampleToPopulation * 100),
				SampleToPopulationStdDev:  FormatPercent(agg.StdDevSampleToPopulation * 100),
			},
			Patterns:        patterns(failed.Deviation),
			Recommendations: failedRecs,
		}
	}

	return rpt
}

func patterns(a deviation.Analysis) Patterns {
	byCountry := make(map[string]string, len(a.Countries))
	for _, c := range a.Countries {
		byCountry[c.Country] = FormatPercent(c.RatioPercent)
	}
	return Patterns{
		MinDeviation: FormatPercent(a.MinDeviationPercent),
		MaxDeviation: FormatPercent(a.MaxDeviationPercent),
		ByCountry:    byCountry,
	}
}

// impacted lists the countries contributing to a group, in the
// aggregator's alphabetical order.
func impacted(agg aggregate.OutcomeAggregate) []string {
	names := make([]string, 0, len(agg.Countries))
	for _, c := range agg.Countries {
		names = append(names, c.Country)
	}
	return names
}
