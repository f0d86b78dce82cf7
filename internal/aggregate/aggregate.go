// Package aggregate groups ratio-augmented records by outcome and
// country and computes the descriptive statistics behind the summary
// report. Accumulation is streaming (see internal/stats) and
// builders merge, so partitions of a batch can be aggregated
// concurrently and combined.
package aggregate

import (
	"math"
	"sort"

	"github.com/unbound-force/tally/internal/ratio"
	"github.com/unbound-force/tally/internal/record"
	"github.com/unbound-force/tally/internal/stats"
)

// CountryAggregate holds the per-country statistics within one
// outcome group. Emitted values are snapshots: recomputing the
// aggregation does not mutate previously returned aggregates.
type CountryAggregate struct {
	// Country is the canonical country name.
	Country string `json:"country"`

	// RecordCount is the number of valid records contributing.
	RecordCount int `json:"record_count"`

	// AvgSampleRatio is the mean sample ratio as a fraction in [0,1].
	AvgSampleRatio float64 `json:"avg_sample_ratio"`

	// StdDevSampleRatio is the population standard deviation of the
	// country's sample ratios.
	StdDevSampleRatio float64 `json:"std_dev_sample_ratio"`

	// MinSampleRatio and MaxSampleRatio bound the ratios observed
	// for the country.
	MinSampleRatio float64 `json:"min_sample_ratio"`
	MaxSampleRatio float64 `json:"max_sample_ratio"`

	// AvgDefectRatio is the mean defect ratio. Failed groups only.
	AvgDefectRatio float64 `json:"avg_defect_ratio,omitempty"`
}

// OutcomeAggregate holds the statistics for one outcome group
// (Passed or Failed) across all countries.
type OutcomeAggregate struct {
	Outcome record.Outcome `json:"outcome"`

	// RecordCount is the number of valid records in the group.
	RecordCount int `json:"record_count"`

	// Countries lists per-country aggregates, sorted by name so
	// report output is deterministic. Countries with identical
	// ratios stay as separate entries.
	Countries []CountryAggregate `json:"countries"`

	// AvgPopulation and AvgSampleSize are the mean raw batch and
	// sample sizes ("Overall Population Average" / "Sample Size
	// Average" in the report).
	AvgPopulation float64 `json:"avg_population"`
	AvgSampleSize float64 `json:"avg_sample_size"`

	// AvgSampleRatio and StdDevSampleRatio describe the group's
	// sample ratios as fractions.
	AvgSampleRatio    float64 `json:"avg_sample_ratio"`
	StdDevSampleRatio float64 `json:"std_dev_sample_ratio"`

	// Failed-group observations. Zero for passed groups.
	AvgDefectRatio           float64 `json:"avg_defect_ratio,omitempty"`
	AvgSampleToPopulation    float64 `json:"avg_sample_to_population,omitempty"`
	StdDevSampleToPopulation float64 `json:"std_dev_sample_to_population,omitempty"`
}

type countryAcc struct {
	sampleRatio stats.Accumulator
	defectRatio stats.Accumulator
	minRatio    float64
	maxRatio    float64
}

func newCountryAcc() *countryAcc {
	return &countryAcc{minRatio: math.Inf(1), maxRatio: math.Inf(-1)}
}

func (c *countryAcc) add(aug ratio.Augmented) {
	c.sampleRatio.Add(aug.SampleRatio)
	c.minRatio = math.Min(c.minRatio, aug.SampleRatio)
	c.maxRatio = math.Max(c.maxRatio, aug.SampleRatio)
	if aug.Outcome == record.OutcomeFailed {
		c.defectRatio.Add(aug.DefectRatio)
	}
}

func (c *countryAcc) merge(other *countryAcc) {
	c.sampleRatio.Merge(other.sampleRatio)
	c.defectRatio.Merge(other.defectRatio)
	c.minRatio = math.Min(c.minRatio, other.minRatio)
	c.maxRatio = math.Max(c.maxRatio, other.maxRatio)
}

type outcomeAcc struct {
	population  stats.Accumulator
	sampleSize  stats.Accumulator
	sampleRatio stats.Accumulator
	defectRatio stats.Accumulator
	s2p         stats.Accumulator
	countries   map[string]*countryAcc
}

func newOutcomeAcc() *outcomeAcc {
	return &outcomeAcc{countries: make(map[string]*countryAcc)}
}

// Builder accumulates records into per-outcome, per-country groups.
// Not safe for concurrent use; run one Builder per partition and
// Merge.
type Builder struct {
	outcomes map[record.Outcome]*outcomeAcc
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{outcomes: make(map[record.Outcome]*outcomeAcc)}
}

// Add folds one augmented record into the aggregation.
func (b *Builder) Add(aug ratio.Augmented) {
	acc, ok := b.outcomes[aug.Outcome]
	if !ok {
		acc = newOutcomeAcc()
		b.outcomes[aug.Outcome] = acc
	}

	acc.population.Add(float64(aug.Population))
	acc.sampleSize.Add(float64(aug.SampleSize))
	acc.sampleRatio.Add(aug.SampleRatio)
	if aug.Outcome == record.OutcomeFailed {
		acc.defectRatio.Add(aug.DefectRatio)
		acc.s2p.Add(aug.SampleToPopulation)
	}

	cacc, ok := acc.countries[aug.Country]
	if !ok {
		cacc = newCountryAcc()
		acc.countries[aug.Country] = cacc
	}
	cacc.add(aug)
}

// Merge combines another builder's accumulation into this one.
func (b *Builder) Merge(other *Builder) {
	for outcome, oacc := range other.outcomes {
		acc, ok := b.outcomes[outcome]
		if !ok {
			b.outcomes[outcome] = oacc
			continue
		}
		acc.population.Merge(oacc.population)
		acc.sampleSize.Merge(oacc.sampleSize)
		acc.sampleRatio.Merge(oacc.sampleRatio)
		acc.defectRatio.Merge(oacc.defectRatio)
		acc.s2p.Merge(oacc.s2p)
		for name, cacc := range oacc.countries {
			existing, ok := acc.countries[name]
			if !ok {
				acc.countries[name] = cacc
				continue
			}
			existing.merge(cacc)
		}
	}
}

// Outcome emits the aggregate for one outcome group. The second
// return is false when the group has no valid records; such groups
// are omitted from the report rather than emitting NaN statistics.
func (b *Builder) Outcome(o record.Outcome) (OutcomeAggregate, bool) {
	acc, ok := b.outcomes[o]
	if !ok || acc.sampleRatio.Count() == 0 {
		return OutcomeAggregate{}, false
	}

	agg := OutcomeAggregate{
		Outcome:           o,
		RecordCount:       acc.sampleRatio.Count(),
		AvgPopulation:     acc.population.Mean(),
		AvgSampleSize:     acc.sampleSize.Mean(),
		AvgSampleRatio:    acc.sampleRatio.Mean(),
		StdDevSampleRatio: acc.sampleRatio.StdDev(),
	}
	if o == record.OutcomeFailed {
		agg.AvgDefectRatio = acc.defectRatio.Mean()
		agg.AvgSampleToPopulation = acc.s2p.Mean()
		agg.StdDevSampleToPopulation = acc.s2p.StdDev()
	}

	agg.Countries = make([]CountryAggregate, 0, len(acc.countries))
	for name, cacc := range acc.countries {
		ca := CountryAggregate{
			Country:           name,
			RecordCount:       cacc.sampleRatio.Count(),
			AvgSampleRatio:    cacc.sampleRatio.Mean(),
			StdDevSampleRatio: cacc.sampleRatio.StdDev(),
			MinSampleRatio:    cacc.minRatio,
			MaxSampleRatio:    cacc.maxRatio,
		}
		if o == record.OutcomeFailed {
			ca.AvgDefectRatio = cacc.defectRatio.Mean()
		}
		agg.Countries = append(agg.Countries, ca)
	}
	sort.Slice(agg.Countries, func(i, j int) bool {
		return agg.Countries[i].Country < agg.Countries[j].Country
	})

	return agg, true
}
