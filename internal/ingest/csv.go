package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/unbound-force/tally/internal/record"
)

// csvColumns maps header names to Raw fields. Headers are matched
// case-insensitively after trimming.
var csvColumns = map[string]func(*record.Raw, string){
	"country":      func(r *record.Raw, v string) { r.Country = v },
	"population":   func(r *record.Raw, v string) { r.Population = v },
	"sample_size":  func(r *record.Raw, v string) { r.SampleSize = v },
	"outcome":      func(r *record.Raw, v string) { r.Outcome = v },
	"defect_count": func(r *record.Raw, v string) { r.DefectCount = v },
}

// ReadCSV decodes raw records from CSV. The first row must be a
// header naming the columns; column order is free and unknown
// columns are ignored.
func ReadCSV(r io.Reader) ([]record.Raw, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("empty CSV input")
	}
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}

	setters := make([]func(*record.Raw, string), len(header))
	known := 0
	for i, name := range header {
		if set, ok := csvColumns[strings.ToLower(strings.TrimSpace(name))]; ok {
			setters[i] = set
			known++
		}
	}
	if known == 0 {
		return nil, fmt.Errorf("CSV header has no recognized columns: %v", header)
	}

	var raws []record.Raw
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		var raw record.Raw
		for i, cell := range row {
			if i < len(setters) && setters[i] != nil {
				setters[i](&raw, cell)
			}
		}
		raws = append(raws, raw)
	}
	return raws, nil
}
