package ingest

import (
	"fmt"
	"io"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// RecordSchema is the JSON Schema (Draft 2020-12) for the JSON
// record feed accepted by ReadJSON. `tally validate` checks feeds
// against it before a run.
const RecordSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tally/record-feed.schema.json",
  "title": "Tally Record Feed",
  "description": "Input schema for tally summarize JSON feeds",
  "type": "array",
  "items": { "$ref": "#/$defs/RawRecord" },
  "$defs": {
    "RawRecord": {
      "type": "object",
      "required": ["country", "population", "sample_size", "outcome"],
      "properties": {
        "country": {
          "type": "string",
          "minLength": 1,
          "description": "Country name; canonicalized by the normalizer"
        },
        "population": {
          "$ref": "#/$defs/Count",
          "description": "Total eligible items in the audit batch"
        },
        "sample_size": {
          "$ref": "#/$defs/Count",
          "description": "Items actually tested"
        },
        "outcome": {
          "type": "string",
          "description": "Test result",
          "enum": ["Passed", "Failed", "passed", "failed", "pass", "fail"]
        },
        "defect_count": {
          "$ref": "#/$defs/Count",
          "description": "Failed items within the sample (failed tests only)"
        }
      },
      "additionalProperties": false
    },
    "Count": {
      "oneOf": [
        { "type": "integer", "minimum": 0 },
        { "type": "string", "pattern": "^\\s*[0-9]+\\s*$" }
      ]
    }
  }
}`

// ValidateJSON checks a JSON feed against RecordSchema. It reports
// the first schema violation; a nil error means the feed is
// well-formed (individual records may still be rejected by the
// normalizer for cross-field violations like sample > population).
func ValidateJSON(r io.Reader) error {
	sch, err := jsonschema.UnmarshalJSON(strings.NewReader(RecordSchema))
	if err != nil {
		return fmt.Errorf("parsing record schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record-feed.schema.json", sch); err != nil {
		return fmt.Errorf("adding record schema: %w", err)
	}
	compiled, err := compiler.Compile("record-feed.schema.json")
	if err != nil {
		return fmt.Errorf("compiling record schema: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(r)
	if err != nil {
		return fmt.Errorf("parsing feed: %w", err)
	}
	if err := compiled.Validate(inst); err != nil {
		return fmt.Errorf("feed does not conform to record schema: %w", err)
	}
	return nil
}
