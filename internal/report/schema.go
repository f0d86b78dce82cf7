package report

// Schema is the JSON Schema (Draft 2020-12) for the summary report
// JSON output. It documents the structure returned by WriteJSON.
const Schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://github.com/unbound-force/tally/summary-report.schema.json",
  "title": "Tally Summary Report",
  "description": "Output schema for tally summarize --format=json",
  "type": "object",
  "properties": {
    "Summary for Passed Tests": { "$ref": "#/$defs/PassedSection" },
    "Summary for Failed Tests": { "$ref": "#/$defs/FailedSection" }
  },
  "additionalProperties": false,
  "$defs": {
    "Percent": {
      "type": "string",
      "pattern": "^[0-9]+\\.[0-9]{2}%$",
      "description": "Two-decimal percentage string, e.g. \"34.75%\""
    },
    "PassedSection": {
      "type": "object",
      "required": ["Key Observations", "Potential Patterns or Anomalies"],
      "properties": {
        "Key Observations": { "$ref": "#/$defs/PassedObservations" },
        "Potential Patterns or Anomalies": { "$ref": "#/$defs/Patterns" },
        "Recommendations for Further Analysis": {
          "type": "array",
          "items": { "type": "string" },
          "description": "Externally supplied text, passed through unchanged"
        }
      }
    },
    "FailedSection": {
      "type": "object",
      "required": ["Key Observations", "Potential Patterns or Anomalies"],
      "properties": {
        "Key Observations": { "$ref": "#/$defs/FailedObservations" },
        "Potential Patterns or Anomalies": { "$ref": "#/$defs/Patterns" },
        "Recommendations for Further Analysis": {
          "type": "array",
          "items": { "type": "string" }
        }
      }
    },
    "PassedObservations": {
      "type": "object",
      "required": [
        "Total Tests", "Overall Population Average", "Sample Size Average",
        "Sample Ratio Average", "Sample Ratio Standard Deviation"
      ],
      "properties": {
        "Total Tests": { "type": "integer", "minimum": 1 },
        "Overall Population Average": { "$ref": "#/$defs/Percent" },
        "Sample Size Average": { "$ref": "#/$defs/Percent" },
        "Sample Ratio Average": { "$ref": "#/$defs/Percent" },
        "Sample Ratio Standard Deviation": { "$ref": "#/$defs/Percent" }
      }
    },
    "FailedObservations": {
      "type": "object",
      "required": [
        "Total Tests Conducted", "Countries Impacted",
        "Overall Population Average", "Defect Average Percentage",
        "Sample Average Percentage",
        "Sample to Population Average Percentage",
        "Sample to Population Standard Deviation Percentage"
      ],
      "properties": {
        "Total Tests Conducted": { "type": "integer", "minimum": 1 },
        "Countries Impacted": {
          "type": "array",
          "items": { "type": "string" }
        },
        "Overall Population Average": { "$ref": "#/$defs/Percent" },
        "Defect Average Percentage": { "$ref": "#/$defs/Percent" },
        "Sample Average Percentage": { "$ref": "#/$defs/Percent" },
        "Sample to Population Average Percentage": { "$ref": "#/$defs/Percent" },
        "Sample to Population Standard Deviation Percentage": { "$ref": "#/$defs/Percent" }
      }
    },
    "Patterns": {
      "type": "object",
      "required": ["Min Deviation", "Max Deviation", "By Country"],
      "properties": {
        "Min Deviation": { "$ref": "#/$defs/Percent" },
        "Max Deviation": { "$ref": "#/$defs/Percent" },
        "By Country": {
          "type": "object",
          "additionalProperties": { "$ref": "#/$defs/Percent" },
          "description": "Country name to mean sample ratio percent, alphabetical"
        }
      }
    }
  }
}`
