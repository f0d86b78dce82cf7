package record

import (
	"fmt"
	"strconv"
	"strings"
)

// ValidationError reports why a raw record was rejected. Rejected
// records are dropped from aggregation; the error is collected as a
// run diagnostic, never treated as fatal.
type ValidationError struct {
	// Field is the offending raw field name.
	Field string

	// Reason is a human-readable explanation.
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid record: %s: %s", e.Field, e.Reason)
}

// CanonicalCountry trims the name, collapses inner whitespace runs,
// and upper-cases the result so that "Hong Kong" and " HONG  KONG "
// group together.
func CanonicalCountry(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}

// Normalize validates and canonicalizes a raw record. It is a pure
// transform: it returns either a valid TestRecord or a
// *ValidationError, never both.
func Normalize(raw Raw) (TestRecord, error) {
	country := CanonicalCountry(raw.Country)
	if country == "" {
		return TestRecord{}, &ValidationError{Field: "country", Reason: "empty"}
	}

	outcome, err := parseOutcome(raw.Outcome)
	if err != nil {
		return TestRecord{}, err
	}

	population, err := parseCount("population", raw.Population)
	if err != nil {
		return TestRecord{}, err
	}
	sampleSize, err := parseCount("sample_size", raw.SampleSize)
	if err != nil {
		return TestRecord{}, err
	}
	if sampleSize > population {
		return TestRecord{}, &ValidationError{
			Field:  "sample_size",
			Reason: fmt.Sprintf("sample size %d exceeds population %d", sampleSize, population),
		}
	}

	rec := TestRecord{
		Country:    country,
		Population: population,
		SampleSize: sampleSize,
		Outcome:    outcome,
	}

	// Defect counts only make sense for failed tests. A defect count
	// on a passed record is ignored rather than rejected: the feed
	// routinely carries "0" there.
	if outcome == OutcomeFailed {
		defects := 0
		if strings.TrimSpace(raw.DefectCount) != "" {
			defects, err = parseCount("defect_count", raw.DefectCount)
			if err != nil {
				return TestRecord{}, err
			}
		}
		if defects > sampleSize {
			return TestRecord{}, &ValidationError{
				Field:  "defect_count",
				Reason: fmt.Sprintf("defect count %d exceeds sample size %d", defects, sampleSize),
			}
		}
		rec.DefectCount = defects
	}

	return rec, nil
}

// parseOutcome accepts "Passed"/"Failed" in any casing, plus the
// "pass"/"fail" shorthand some feeds use.
func parseOutcome(s string) (Outcome, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "passed", "pass":
		return OutcomePassed, nil
	case "failed", "fail":
		return OutcomeFailed, nil
	default:
		return "", &ValidationError{
			Field:  "outcome",
			Reason: fmt.Sprintf("unknown outcome %q", s),
		}
	}
}

// parseCount parses a non-negative integer field. Numeric strings
// with surrounding whitespace are accepted; anything else is a
// validation error.
func parseCount(field, s string) (int, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, &ValidationError{Field: field, Reason: "missing"}
	}
	n, err := strconv.Atoi(trimmed)
	if err != nil {
		return 0, &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("not a number: %q", s),
		}
	}
	if n < 0 {
		return 0, &ValidationError{
			Field:  field,
			Reason: fmt.Sprintf("negative value %d", n),
		}
	}
	return n, nil
}
