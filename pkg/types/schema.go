package types

// ValidationResult contains the result of validating a single value.
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors,omitempty"`
}

// RecordFailure lists the validation errors of one input line.
type RecordFailure struct {
	Line   int      `json:"line"`
	Errors []string `json:"errors"`
}

// ValidationReport aggregates validation over a line-delimited JSON stream.
type ValidationReport struct {
	Records   int             `json:"records"`
	Valid     int             `json:"valid"`
	Invalid   int             `json:"invalid"`
	Malformed int             `json:"malformed"`
	Failures  []RecordFailure `json:"failures,omitzero"`
	Truncated bool            `json:"truncated,omitempty"`
}
