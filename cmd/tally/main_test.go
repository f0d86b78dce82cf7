package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// writeInput drops a sample input file into a temp dir and returns
// its path.
func writeInput(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing temp input: %v", err)
	}
	return path
}

const sampleJSON = `[
  {"country": "China", "population": 10, "sample_size": 10, "outcome": "Passed"},
  {"country": "Hong Kong", "population": 200, "sample_size": 10, "outcome": "Passed"},
  {"country": "Vietnam", "population": 500, "sample_size": 30, "outcome": "Passed"},
  {"country": "Singapore", "population": 1000, "sample_size": 315, "outcome": "Failed", "defect_count": 19},
  {"country": "Malaysia", "population": 800, "sample_size": 120, "outcome": "Failed", "defect_count": 6}
]`

const sampleCSV = `country,population,sample_size,outcome,defect_count
China,10,10,Passed,
Singapore,1000,315,Failed,19
`

// ---------------------------------------------------------------------------
// runSummarize tests
// ---------------------------------------------------------------------------

func TestRunSummarize_InvalidFormat(t *testing.T) {
	err := runSummarize(summarizeParams{
		inputPath: "records.json",
		format:    "yaml",
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `invalid format "yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunSummarize_TextFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath: writeInput(t, "records.json", sampleJSON),
		format:    "text",
		stdout:    &stdout,
		stderr:    &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "Summary for Passed Tests") {
		t.Errorf("expected passed section header, got:\n%s", out)
	}
	if !strings.Contains(out, "Summary for Failed Tests") {
		t.Errorf("expected failed section header, got:\n%s", out)
	}
	if !strings.Contains(out, "CHINA") {
		t.Errorf("expected canonical country name CHINA, got:\n%s", out)
	}
}

func TestRunSummarize_JSONFormat(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath: writeInput(t, "records.json", sampleJSON),
		format:    "json",
		stdout:    &stdout,
		stderr:    &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Verify output is valid JSON with both section keys.
	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v\noutput:\n%s", err, stdout.String())
	}
	if _, ok := parsed["Summary for Passed Tests"]; !ok {
		t.Error("JSON output missing 'Summary for Passed Tests' key")
	}
	if _, ok := parsed["Summary for Failed Tests"]; !ok {
		t.Error("JSON output missing 'Summary for Failed Tests' key")
	}
}

func TestRunSummarize_CSVInput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath: writeInput(t, "records.csv", sampleCSV),
		format:    "json",
		stdout:    &stdout,
		stderr:    &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "SINGAPORE") {
		t.Errorf("expected SINGAPORE in output, got:\n%s", stdout.String())
	}
}

func TestRunSummarize_ShowDropped(t *testing.T) {
	input := `[
  {"country": "China", "population": 10, "sample_size": 10, "outcome": "Passed"},
  {"country": "", "population": 10, "sample_size": 5, "outcome": "Passed"}
]`
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath:   writeInput(t, "records.json", input),
		format:      "json",
		showDropped: true,
		stdout:      &stdout,
		stderr:      &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(stdout.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if _, ok := parsed["report"]; !ok {
		t.Error("diagnostics output missing 'report' key")
	}
	dropped, ok := parsed["dropped"].([]interface{})
	if !ok || len(dropped) != 1 {
		t.Errorf("expected 1 dropped diagnostic, got %v", parsed["dropped"])
	}
}

func TestRunSummarize_AllInvalid(t *testing.T) {
	input := `[{"country": "", "population": 10, "sample_size": 5, "outcome": "Passed"}]`
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath: writeInput(t, "records.json", input),
		format:    "text",
		stdout:    &stdout,
		stderr:    &stderr,
	})
	if err == nil {
		t.Fatal("expected error when no record survives")
	}
}

func TestRunSummarize_MissingFile(t *testing.T) {
	err := runSummarize(summarizeParams{
		inputPath: filepath.Join(t.TempDir(), "absent.json"),
		format:    "text",
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for missing input file")
	}
}

func TestRunSummarize_ParallelMatchesSequential(t *testing.T) {
	input := writeInput(t, "records.json", sampleJSON)

	var seq, par bytes.Buffer
	if err := runSummarize(summarizeParams{
		inputPath: input, format: "json", stdout: &seq, stderr: &bytes.Buffer{},
	}); err != nil {
		t.Fatalf("sequential run: %v", err)
	}
	if err := runSummarize(summarizeParams{
		inputPath: input, format: "json", workers: 4, stdout: &par, stderr: &bytes.Buffer{},
	}); err != nil {
		t.Fatalf("parallel run: %v", err)
	}
	if seq.String() != par.String() {
		t.Errorf("parallel output differs from sequential\nseq:\n%s\npar:\n%s",
			seq.String(), par.String())
	}
}

func TestRunSummarize_ConfigThresholds(t *testing.T) {
	cfgPath := writeInput(t, "tally.yaml", `thresholds:
  high_cut_percent: 99
  low_cut_percent: 1
  sigma_multiple: 0
`)
	var stdout, stderr bytes.Buffer
	err := runSummarize(summarizeParams{
		inputPath:  writeInput(t, "records.json", sampleJSON),
		format:     "text",
		configPath: cfgPath,
		stdout:     &stdout,
		stderr:     &stderr,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRunSummarize_BadConfig(t *testing.T) {
	cfgPath := writeInput(t, "tally.yaml", `thresholds:
  high_cut_percent: 10
  low_cut_percent: 50
`)
	err := runSummarize(summarizeParams{
		inputPath:  writeInput(t, "records.json", sampleJSON),
		format:     "text",
		configPath: cfgPath,
		stdout:     &bytes.Buffer{},
		stderr:     &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for inverted cut points")
	}
}

// ---------------------------------------------------------------------------
// runValidate tests
// ---------------------------------------------------------------------------

func TestRunValidate_ValidJSON(t *testing.T) {
	var stdout bytes.Buffer
	err := runValidate(validateParams{
		inputPath: writeInput(t, "records.json", sampleJSON),
		stdout:    &stdout,
		stderr:    &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(stdout.String(), "5 records valid") {
		t.Errorf("expected valid count, got: %q", stdout.String())
	}
}

func TestRunValidate_SchemaViolation(t *testing.T) {
	// Unknown property violates the record schema.
	input := `[{"country": "China", "population": 10, "sample_size": 10, "outcome": "Passed", "extra": 1}]`
	err := runValidate(validateParams{
		inputPath: writeInput(t, "records.json", input),
		stdout:    &bytes.Buffer{},
		stderr:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected schema validation error")
	}
	if !strings.Contains(err.Error(), "schema validation") {
		t.Errorf("unexpected error: %s", err)
	}
}

func TestRunValidate_BadCSVRecords(t *testing.T) {
	input := `country,population,sample_size,outcome
China,10,20,Passed
`
	var stdout bytes.Buffer
	err := runValidate(validateParams{
		inputPath: writeInput(t, "records.csv", input),
		stdout:    &stdout,
		stderr:    &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for sample size exceeding population")
	}
	if !strings.Contains(err.Error(), "1 of 1 records invalid") {
		t.Errorf("unexpected error: %s", err)
	}
	if !strings.Contains(stdout.String(), "record 0") {
		t.Errorf("expected per-record diagnostic, got: %q", stdout.String())
	}
}

// ---------------------------------------------------------------------------
// loadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfig_DefaultsWithoutPath(t *testing.T) {
	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if cfg.Thresholds.HighCutPercent != 50 {
		t.Errorf("high cut = %v, want 50 (default)", cfg.Thresholds.HighCutPercent)
	}
	if cfg.Thresholds.LowCutPercent != 10 {
		t.Errorf("low cut = %v, want 10 (default)", cfg.Thresholds.LowCutPercent)
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := loadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// ---------------------------------------------------------------------------
// schema command tests
// ---------------------------------------------------------------------------

func TestSchemaCmd_OutputsValidJSON(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("schema command failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Errorf("schema output is not valid JSON: %v", err)
	}
}

func TestSchemaCmd_ContainsReportFields(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, field := range []string{
		`"$schema"`, `"title"`, `"Summary for Passed Tests"`,
		`"Summary for Failed Tests"`, `"Percent"`, `"Patterns"`,
	} {
		if !strings.Contains(output, field) {
			t.Errorf("schema output missing %s", field)
		}
	}
}

func TestSchemaCmd_RecordsFlag(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"--records"})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Errorf("record schema output is not valid JSON: %v", err)
	}
	for _, field := range []string{`"country"`, `"sample_size"`, `"outcome"`} {
		if !strings.Contains(output, field) {
			t.Errorf("record schema output missing %s", field)
		}
	}
}
