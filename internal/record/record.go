// Package record defines the canonical test record model and the
// normalizer that turns loosely typed raw audit records into
// validated records suitable for aggregation.
package record

// Outcome is the result of a single sampling test.
type Outcome string

// Outcome constants.
const (
	OutcomePassed Outcome = "Passed"
	OutcomeFailed Outcome = "Failed"
)

// Raw is a test record as supplied by the external audit feed.
// All fields are strings because the feed arrives as CSV cells or
// loosely typed JSON; the normalizer owns all parsing.
type Raw struct {
	// Country is the country name as supplied (any casing, any
	// surrounding whitespace).
	Country string `json:"country"`

	// Population is the total number of eligible items in the
	// country's audit batch.
	Population string `json:"population"`

	// SampleSize is the number of items actually tested.
	SampleSize string `json:"sample_size"`

	// Outcome is "Passed" or "Failed" (case-insensitive).
	Outcome string `json:"outcome"`

	// DefectCount is the number of failed items within the sample.
	// Meaningful only for failed tests; empty otherwise.
	DefectCount string `json:"defect_count,omitempty"`
}

// TestRecord is a validated, canonicalized test record.
type TestRecord struct {
	// Country is the canonical country name (trimmed, upper-cased,
	// inner whitespace collapsed).
	Country string `json:"country"`

	// Population is the audit batch size. Non-negative.
	Population int `json:"population"`

	// SampleSize is the tested subset size. 0 <= SampleSize <= Population.
	SampleSize int `json:"sample_size"`

	// Outcome is the test result.
	Outcome Outcome `json:"outcome"`

	// DefectCount is the failed-item count for failed tests.
	// 0 <= DefectCount <= SampleSize. Always 0 for passed tests.
	DefectCount int `json:"defect_count"`
}
