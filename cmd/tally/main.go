package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"github.com/unbound-force/tally/internal/config"
	"github.com/unbound-force/tally/internal/engine"
	"github.com/unbound-force/tally/internal/ingest"
	"github.com/unbound-force/tally/internal/record"
	"github.com/unbound-force/tally/internal/report"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "tally",
		Short: "Tally — compliance sampling aggregation and deviation reports",
		Long: `Tally ingests per-country compliance sampling records, computes
sampling and defect ratios, aggregates them by outcome and country,
and reports cross-country deviations in a two-section summary.`,
		Version: version,
	}

	root.AddCommand(newSummarizeCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newSchemaCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// summarizeParams holds the parsed flags for the summarize command.
type summarizeParams struct {
	inputPath   string
	format      string
	configPath  string
	workers     int
	interactive bool
	showDropped bool
	stdout      io.Writer
	stderr      io.Writer
}

// runSummarize is the extracted, testable body of the summarize command.
func runSummarize(p summarizeParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}

	cfg, err := loadConfig(p.configPath)
	if err != nil {
		return err
	}

	logger.Info("reading records", "file", p.inputPath)
	raws, err := ingest.ReadFile(p.inputPath)
	if err != nil {
		return err
	}

	res, err := engine.Run(raws, engine.Options{
		Thresholds:      cfg.Thresholds,
		Recommendations: cfg.Recommendations,
		Workers:         p.workers,
	})
	if err != nil {
		return err
	}

	logger.Info("run complete",
		"valid", res.ValidRecords,
		"dropped", len(res.Dropped),
		"pass_rate", fmt.Sprintf("%.2f%%", res.PassRatePercent))
	for _, d := range res.Dropped {
		logger.Warn("record dropped", "index", d.Index, "country", d.Country, "reason", d.Reason)
	}

	if p.interactive {
		return runInteractiveSummary(res)
	}

	switch p.format {
	case "json":
		if p.showDropped {
			return writeJSONWithDiagnostics(p.stdout, res)
		}
		return report.WriteJSON(p.stdout, res.Report)
	default:
		return report.WriteTextOptions(p.stdout, res.Report, textOptions(res))
	}
}

// writeJSONWithDiagnostics wraps the report with the dropped-record
// list for audit consumers that want both in one document.
func writeJSONWithDiagnostics(w io.Writer, res *engine.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Report  *report.SummaryReport `json:"report"`
		Dropped []engine.Drop         `json:"dropped,omitempty"`
	}{res.Report, res.Dropped})
}

// textOptions carries the anomaly flags into the text renderer so the
// country tables get a severity column.
func textOptions(res *engine.Result) report.TextOptions {
	var opts report.TextOptions
	if res.Passed != nil {
		opts.PassedFlags = res.Passed.Deviation.Flags
	}
	if res.Failed != nil {
		opts.FailedFlags = res.Failed.Deviation.Flags
	}
	return opts
}

// loadConfig returns defaults when no path is given.
func loadConfig(path string) (config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.Load(path)
}

func newSummarizeCmd() *cobra.Command {
	var (
		format      string
		configPath  string
		workers     int
		interactive bool
		showDropped bool
	)

	cmd := &cobra.Command{
		Use:   "summarize [input-file]",
		Short: "Summarize a batch of sampling records",
		Long: `Read sampling records from a JSON or CSV file, aggregate them by
outcome and country, and write the two-section summary report.
Invalid records are dropped with a warning; the run fails only
when no record survives.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummarize(summarizeParams{
				inputPath:   args[0],
				format:      format,
				configPath:  configPath,
				workers:     workers,
				interactive: interactive,
				showDropped: showDropped,
				stdout:      os.Stdout,
				stderr:      os.Stderr,
			})
		},
	}

	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().StringVar(&configPath, "config", "",
		"path to YAML config for thresholds and recommendations")
	cmd.Flags().IntVar(&workers, "parallel", 0,
		"aggregate with this many workers (0 or 1 = sequential)")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing the summary")
	cmd.Flags().BoolVar(&showDropped, "show-dropped", false,
		"include dropped-record diagnostics in JSON output")

	return cmd
}

// validateParams holds the parsed flags for the validate command.
type validateParams struct {
	inputPath string
	stdout    io.Writer
	stderr    io.Writer
}

// runValidate is the extracted, testable body of the validate command.
// JSON input is checked against the record schema; CSV input is run
// through normalization. Either way every bad record is reported and
// a single error summarizes the count.
func runValidate(p validateParams) error {
	raws, err := ingest.ReadFile(p.inputPath)
	if err != nil {
		return err
	}

	if ingest.IsJSON(p.inputPath) {
		f, err := os.Open(p.inputPath)
		if err != nil {
			return fmt.Errorf("opening %s: %w", p.inputPath, err)
		}
		defer f.Close()
		if err := ingest.ValidateJSON(f); err != nil {
			return fmt.Errorf("schema validation: %w", err)
		}
	}

	bad := 0
	for i, raw := range raws {
		if _, err := record.Normalize(raw); err != nil {
			bad++
			fmt.Fprintf(p.stdout, "record %d (%s): %v\n", i, raw.Country, err)
		}
	}
	if bad > 0 {
		return fmt.Errorf("%d of %d records invalid", bad, len(raws))
	}

	fmt.Fprintf(p.stdout, "%d records valid\n", len(raws))
	return nil
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate [input-file]",
		Short: "Validate sampling records without producing a report",
		Long: `Check an input file against the record schema (JSON) or
normalization rules (CSV) and list every invalid record.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(validateParams{
				inputPath: args[0],
				stdout:    cmd.OutOrStdout(),
				stderr:    cmd.ErrOrStderr(),
			})
		},
	}
}

func newSchemaCmd() *cobra.Command {
	var records bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for Tally output or input",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of tally summarize --format=json output. With --records,
print the input record schema instead. Useful for validating
output or generating client types.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			schema := report.Schema
			if records {
				schema = ingest.RecordSchema
			}
			_, err := fmt.Fprintln(cmd.OutOrStdout(), schema)
			return err
		},
	}

	cmd.Flags().BoolVar(&records, "records", false,
		"print the input record schema instead of the report schema")

	return cmd
}
