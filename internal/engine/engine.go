// Package engine runs the full reporting pipeline: normalize,
// compute ratios, aggregate, analyze deviations, assemble. A run is
// a pure function of its input batch; nothing persists between runs.
package engine

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/unbound-force/tally/internal/aggregate"
	"github.com/unbound-force/tally/internal/config"
	"github.com/unbound-force/tally/internal/deviation"
	"github.com/unbound-force/tally/internal/ratio"
	"github.com/unbound-force/tally/internal/record"
	"github.com/unbound-force/tally/internal/report"
)

// ErrInsufficientData fails a run that has no valid records at all.
// Individual bad records are dropped and reported as diagnostics;
// only total absence of usable input is fatal.
var ErrInsufficientData = errors.New("no valid input records")

// Options configures a reporting run.
type Options struct {
	// Thresholds are the deviation analyzer cut points. Zero value
	// means defaults.
	Thresholds deviation.Thresholds

	// Recommendations is attached to the report unchanged.
	Recommendations config.Recommendations

	// Workers > 1 partitions the batch by country and aggregates
	// concurrently. Countries are independent, so the merged result
	// matches the sequential one.
	Workers int
}

// Drop records why one input record was excluded from the run.
type Drop struct {
	// Index is the record's position in the input batch.
	Index int `json:"index"`

	// Country is the canonical country name when known, or the raw
	// value for records that failed before canonicalization.
	Country string `json:"country,omitempty"`

	// Reason is the validation or data-quality failure.
	Reason string `json:"reason"`
}

// Result is the output of one reporting run.
type Result struct {
	// Report is the assembled two-section summary.
	Report *report.SummaryReport

	// Passed and Failed hold the underlying section data for
	// renderers that need severities; nil for empty groups.
	Passed *report.SectionData
	Failed *report.SectionData

	// Dropped lists excluded records for audit traceability.
	Dropped []Drop

	// ValidRecords is the number of records that survived
	// normalization and ratio computation.
	ValidRecords int

	// PassRatePercent is passed records over valid records, as a
	// percent.
	PassRatePercent float64
}

// Run executes the pipeline over one input batch.
func Run(raws []record.Raw, opts Options) (*Result, error) {
	augs, dropped := prepare(raws)
	if len(augs) == 0 {
		return nil, fmt.Errorf("%w (%d dropped)", ErrInsufficientData, len(dropped))
	}

	var builder *aggregate.Builder
	var err error
	if opts.Workers > 1 {
		builder, err = aggregateParallel(augs, opts.Workers)
		if err != nil {
			return nil, err
		}
	} else {
		builder = aggregate.NewBuilder()
		for _, aug := range augs {
			builder.Add(aug)
		}
	}

	res := &Result{
		Dropped:      dropped,
		ValidRecords: len(augs),
	}

	passedCount := 0
	for _, aug := range augs {
		if aug.Outcome == record.OutcomePassed {
			passedCount++
		}
	}
	res.PassRatePercent = float64(passedCount) / float64(len(augs)) * 100

	for _, outcome := range []record.Outcome{record.OutcomePassed, record.OutcomeFailed} {
		agg, ok := builder.Outcome(outcome)
		if !ok {
			continue
		}
		analysis, err := deviation.Analyze(agg.Countries, agg.StdDevSampleRatio, opts.Thresholds)
		if err != nil {
			return nil, fmt.Errorf("analyzing %s group: %w", outcome, err)
		}
		data := &report.SectionData{Aggregate: agg, Deviation: analysis}
		if outcome == record.OutcomePassed {
			res.Passed = data
		} else {
			res.Failed = data
		}
	}

	res.Report = report.Assemble(res.Passed, res.Failed,
		opts.Recommendations.Passed, opts.Recommendations.Failed)
	return res, nil
}

// prepare normalizes the batch and computes ratios, collecting a
// diagnostic per dropped record.
func prepare(raws []record.Raw) ([]ratio.Augmented, []Drop) {
	augs := make([]ratio.Augmented, 0, len(raws))
	var dropped []Drop

	for i, raw := range raws {
		rec, err := record.Normalize(raw)
		if err != nil {
			dropped = append(dropped, Drop{
				Index:   i,
				Country: record.CanonicalCountry(raw.Country),
				Reason:  err.Error(),
			})
			continue
		}
		aug, err := ratio.Compute(rec)
		if err != nil {
			dropped = append(dropped, Drop{
				Index:   i,
				Country: rec.Country,
				Reason:  err.Error(),
			})
			continue
		}
		augs = append(augs, aug)
	}
	return augs, dropped
}

// aggregateParallel shards the batch by country so each worker owns
// a disjoint set of countries, then merges the per-worker builders.
// No shared mutable state crosses shard boundaries.
func aggregateParallel(augs []ratio.Augmented, workers int) (*aggregate.Builder, error) {
	shards := make([][]ratio.Augmented, workers)
	for _, aug := range augs {
		n := shardFor(aug.Country, workers)
		shards[n] = append(shards[n], aug)
	}

	builders := make([]*aggregate.Builder, workers)
	var g errgroup.Group
	for n := 0; n < workers; n++ {
		n := n
		g.Go(func() error {
			b := aggregate.NewBuilder()
			for _, aug := range shards[n] {
				b.Add(aug)
			}
			builders[n] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("parallel aggregation: %w", err)
	}

	merged := aggregate.NewBuilder()
	for _, b := range builders {
		merged.Merge(b)
	}
	return merged, nil
}

// shardFor assigns a country to a worker (FNV-1a).
func shardFor(country string, workers int) int {
	const (
		offset = 2166136261
		prime  = 16777619
	)
	h := uint32(offset)
	for i := 0; i < len(country); i++ {
		h ^= uint32(country[i])
		h *= prime
	}
	return int(h % uint32(workers))
}
