// Package deviation compares each country's sample ratio against
// the cross-country mean and flags outliers. The cut points are
// deliberately configuration, not constants: the bands used by audit
// reviewers are ad-hoc policy, so callers supply them (usually from
// the YAML config) and only fall back to the defaults below.
package deviation

import (
	"errors"
	"math"
	"sort"

	"github.com/unbound-force/tally/internal/aggregate"
)

// ErrEmptyGroup is returned when analysis is requested for a group
// that has no country aggregates.
var ErrEmptyGroup = errors.New("empty group")

// Severity bands a country's value relative to the configured cut
// points.
type Severity string

// Severity constants.
const (
	SeverityLow    Severity = "low"
	SeverityNormal Severity = "normal"
	SeverityHigh   Severity = "high"
)

// Thresholds holds the tunable anomaly cut points.
type Thresholds struct {
	// HighCutPercent flags a country as high when its mean sample
	// ratio percent exceeds this value.
	HighCutPercent float64 `yaml:"high_cut_percent"`

	// LowCutPercent flags a country as low when its mean sample
	// ratio percent falls below this value.
	LowCutPercent float64 `yaml:"low_cut_percent"`

	// SigmaMultiple marks a country as an anomaly when its ratio
	// diverges from the cross-country mean by more than this many
	// population standard deviations.
	SigmaMultiple float64 `yaml:"sigma_multiple"`
}

// DefaultThresholds returns the reviewer bands observed in historic
// reports: above 50% high, below 10% low, 2-sigma anomaly rule.
func DefaultThresholds() Thresholds {
	return Thresholds{
		HighCutPercent: 50,
		LowCutPercent:  10,
		SigmaMultiple:  2,
	}
}

// CountryDeviation is one country's entry in the analysis. Every
// observed country gets an entry, flagged or not.
type CountryDeviation struct {
	// Country is the canonical country name.
	Country string `json:"country"`

	// RatioPercent is the country's mean sample ratio as a percent.
	RatioPercent float64 `json:"ratio_percent"`

	// DeviationPercent is the normalized distance from the
	// cross-country mean: |ratio - mean| / mean * 100.
	DeviationPercent float64 `json:"deviation_percent"`

	// Severity is the configured band the ratio falls into.
	Severity Severity `json:"severity"`

	// Anomaly is true when the ratio fails the sigma rule.
	Anomaly bool `json:"anomaly"`
}

// AnomalyFlag references a flagged country. It points back at the
// country's aggregate by name; it does not own it.
type AnomalyFlag struct {
	Country          string   `json:"country"`
	DeviationPercent float64  `json:"deviation_percent"`
	Severity         Severity `json:"severity"`
}

// Analysis is the deviation report for one outcome group.
type Analysis struct {
	// CrossCountryMeanPercent is the unweighted mean of the
	// per-country mean ratios, as a percent.
	CrossCountryMeanPercent float64 `json:"cross_country_mean_percent"`

	// MinDeviationPercent and MaxDeviationPercent bound the
	// normalized deviations observed across countries.
	MinDeviationPercent float64 `json:"min_deviation_percent"`
	MaxDeviationPercent float64 `json:"max_deviation_percent"`

	// Countries lists every observed country, sorted by name.
	Countries []CountryDeviation `json:"countries"`

	// Flags lists only the countries whose deviation tripped a band
	// or the sigma rule, sorted by deviation descending.
	Flags []AnomalyFlag `json:"flags,omitempty"`
}

// Analyze computes per-country deviations for one outcome group.
// groupStdDev is the group's population standard deviation of sample
// ratios (a fraction, as emitted by the aggregator).
func Analyze(countries []aggregate.CountryAggregate, groupStdDev float64, t Thresholds) (Analysis, error) {
	if len(countries) == 0 {
		return Analysis{}, ErrEmptyGroup
	}
	if t == (Thresholds{}) {
		t = DefaultThresholds()
	}

	// Cross-country mean: unweighted over country means, so a
	// country sampled often does not drown out the rest.
	var mean float64
	for _, c := range countries {
		mean += c.AvgSampleRatio
	}
	mean /= float64(len(countries))

	a := Analysis{
		CrossCountryMeanPercent: mean * 100,
		MinDeviationPercent:     math.Inf(1),
		MaxDeviationPercent:     math.Inf(-1),
		Countries:               make([]CountryDeviation, 0, len(countries)),
	}

	for _, c := range countries {
		dev := 0.0
		if mean != 0 {
			dev = math.Abs(c.AvgSampleRatio-mean) / mean * 100
		}
		a.MinDeviationPercent = math.Min(a.MinDeviationPercent, dev)
		a.MaxDeviationPercent = math.Max(a.MaxDeviationPercent, dev)

		cd := CountryDeviation{
			Country:          c.Country,
			RatioPercent:     c.AvgSampleRatio * 100,
			DeviationPercent: dev,
			Severity:         severity(c.AvgSampleRatio*100, t),
			Anomaly:          isAnomaly(c.AvgSampleRatio, mean, groupStdDev, t),
		}
		a.Countries = append(a.Countries, cd)

		if cd.Severity != SeverityNormal || cd.Anomaly {
			sev := cd.Severity
			if sev == SeverityNormal {
				sev = SeverityHigh
			}
			a.Flags = append(a.Flags, AnomalyFlag{
				Country:          cd.Country,
				DeviationPercent: cd.DeviationPercent,
				Severity:         sev,
			})
		}
	}

	sort.Slice(a.Countries, func(i, j int) bool {
		return a.Countries[i].Country < a.Countries[j].Country
	})
	sort.Slice(a.Flags, func(i, j int) bool {
		if a.Flags[i].DeviationPercent != a.Flags[j].DeviationPercent {
			return a.Flags[i].DeviationPercent > a.Flags[j].DeviationPercent
		}
		return a.Flags[i].Country < a.Flags[j].Country
	})

	return a, nil
}

func severity(ratioPercent float64, t Thresholds) Severity {
	switch {
	case ratioPercent > t.HighCutPercent:
		return SeverityHigh
	case ratioPercent < t.LowCutPercent:
		return SeverityLow
	default:
		return SeverityNormal
	}
}

// isAnomaly applies the sigma rule: the country ratio is anomalous
// when it sits more than SigmaMultiple group standard deviations
// from the cross-country mean. With fewer than two records the group
// std dev is zero and the rule never fires.
func isAnomaly(countryRatio, mean, groupStdDev float64, t Thresholds) bool {
	if groupStdDev == 0 || t.SigmaMultiple <= 0 {
		return false
	}
	return math.Abs(countryRatio-mean) > t.SigmaMultiple*groupStdDev
}
