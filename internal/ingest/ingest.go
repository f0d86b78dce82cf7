// Package ingest reads raw audit records from the external feed
// boundary. CSV and JSON are supported; both produce the loosely
// typed record.Raw sequence that the normalizer owns parsing of.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/unbound-force/tally/internal/record"
)

// ReadFile reads raw records from a file, dispatching on the
// extension (.json or .csv).
func ReadFile(path string) ([]record.Raw, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ReadJSON(f)
	case ".csv":
		return ReadCSV(f)
	default:
		return nil, fmt.Errorf("unsupported input format %q: want .json or .csv", filepath.Ext(path))
	}
}

// IsJSON reports whether the path looks like a JSON input file.
func IsJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// ReadJSON decodes a JSON array of raw records. Numeric fields may
// arrive as JSON numbers or strings; both are preserved as strings
// for the normalizer.
func ReadJSON(r io.Reader) ([]record.Raw, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	var items []map[string]any
	if err := dec.Decode(&items); err != nil {
		return nil, fmt.Errorf("decoding JSON records: %w", err)
	}

	raws := make([]record.Raw, 0, len(items))
	for _, item := range items {
		raws = append(raws, record.Raw{
			Country:     fieldString(item, "country"),
			Population:  fieldString(item, "population"),
			SampleSize:  fieldString(item, "sample_size"),
			Outcome:     fieldString(item, "outcome"),
			DefectCount: fieldString(item, "defect_count"),
		})
	}
	return raws, nil
}

// fieldString renders a decoded JSON value as the string the
// normalizer expects. Missing keys and nulls become "".
func fieldString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return fmt.Sprintf("%t", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}
