package report

import (
	"encoding/json"
	"io"
)

// WriteJSON writes the summary report as formatted JSON. Output for
// the same report value is byte-for-byte identical across runs:
// struct fields marshal in declaration order and map keys marshal
// sorted.
func WriteJSON(w io.Writer, rpt *SummaryReport) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rpt)
}
