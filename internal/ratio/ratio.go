// Package ratio computes per-record sampling ratios. Zero
// denominators are data-quality errors: the record is dropped with a
// warning rather than failing the run.
package ratio

import (
	"errors"
	"fmt"

	"github.com/unbound-force/tally/internal/record"
)

// ErrDivisionByZero marks a record whose ratio denominator is zero.
var ErrDivisionByZero = errors.New("division by zero")

// Augmented is a validated record with its derived ratios. All
// ratios are fractions in [0, 1]; renderers multiply by 100.
type Augmented struct {
	record.TestRecord

	// SampleRatio is SampleSize / Population.
	SampleRatio float64

	// DefectRatio is DefectCount / SampleSize. Failed records only.
	DefectRatio float64

	// SampleToPopulation equals SampleRatio but is tracked under its
	// own name: the failed-tests summary reports it as a distinct
	// observation ("Sample to Population Average Percentage").
	SampleToPopulation float64
}

// Compute derives the ratios for a normalized record.
func Compute(rec record.TestRecord) (Augmented, error) {
	if rec.Population == 0 {
		return Augmented{}, fmt.Errorf("population is zero for %s: %w", rec.Country, ErrDivisionByZero)
	}

	aug := Augmented{
		TestRecord:  rec,
		SampleRatio: float64(rec.SampleSize) / float64(rec.Population),
	}

	if rec.Outcome == record.OutcomeFailed {
		if rec.SampleSize == 0 {
			return Augmented{}, fmt.Errorf("sample size is zero for failed record %s: %w", rec.Country, ErrDivisionByZero)
		}
		aug.DefectRatio = float64(rec.DefectCount) / float64(rec.SampleSize)
		aug.SampleToPopulation = aug.SampleRatio
	}

	return aug, nil
}
