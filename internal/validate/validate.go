// Package validate checks records against a JSON Schema.
package validate

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	gojson "github.com/goccy/go-json"
	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/usestring/schemainfer/pkg/ndjson"
	"github.com/usestring/schemainfer/pkg/types"
)

// DefaultMaxFailures bounds the failures listed in a report.
const DefaultMaxFailures = 20

// Validator validates JSON data against a compiled schema.
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator compiles a JSON Schema document.
func NewValidator(schemaJSON []byte) (*Validator, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parsing JSON Schema: %w", err)
	}
	return compileSchema(doc)
}

// NewValidatorFromSchema compiles a schema produced by the exporter.
func NewValidatorFromSchema(schema *invopop.Schema) (*Validator, error) {
	data, err := gojson.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema: %w", err)
	}
	return NewValidator(data)
}

func compileSchema(doc any) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	if err := compiler.AddResource("schema.json", doc); err != nil {
		return nil, fmt.Errorf("adding schema resource: %w", err)
	}

	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("compiling schema: %w", err)
	}

	return &Validator{schema: compiled}, nil
}

// Validate validates a raw JSON document.
func (v *Validator) Validate(data []byte) *types.ValidationResult {
	value, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return &types.ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())},
		}
	}
	return v.validate(value)
}

// ValidateValue validates a decoded value, including ordered objects from
// jsonvalue.Decode. The value is re-encoded so numbers keep full precision.
func (v *Validator) ValidateValue(value any) *types.ValidationResult {
	data, err := gojson.Marshal(value)
	if err != nil {
		return &types.ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("encoding value: %s", err.Error())},
		}
	}
	return v.Validate(data)
}

func (v *Validator) validate(value any) *types.ValidationResult {
	err := v.schema.Validate(value)
	if err == nil {
		return &types.ValidationResult{Valid: true}
	}
	return &types.ValidationResult{
		Valid:  false,
		Errors: extractValidationErrors(err),
	}
}

// ValidateStream validates every record of a line-delimited JSON stream.
// At most maxFailures failing records are listed; the counts cover the
// whole stream.
func (v *Validator) ValidateStream(ctx context.Context, r io.Reader, maxFailures int) (*types.ValidationReport, error) {
	if maxFailures <= 0 {
		maxFailures = DefaultMaxFailures
	}

	report := &types.ValidationReport{}
	dec := ndjson.NewDecoder(r)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var lineErr *ndjson.LineError
			if errors.As(err, &lineErr) {
				report.Malformed++
				slog.Debug("skipping malformed line",
					slog.Int("line", lineErr.Line),
					slog.String("error", lineErr.Err.Error()),
				)
				continue
			}
			return nil, err
		}

		report.Records++
		result := v.ValidateValue(rec.Value)
		if result.Valid {
			report.Valid++
			continue
		}

		report.Invalid++
		if len(report.Failures) < maxFailures {
			report.Failures = append(report.Failures, types.RecordFailure{
				Line:   rec.Line,
				Errors: result.Errors,
			})
		} else {
			report.Truncated = true
		}
	}

	return report, nil
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	if err == nil {
		return nil
	}

	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return extractDetailedErrors(validationErr)
	}

	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens a ValidationError into deduplicated
// "path: message" strings ordered by instance path.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	paths := make([]string, 0, len(errorsByPath))
	for path := range errorsByPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var result []string
	for _, path := range paths {
		seen := make(map[string]bool)
		for _, msg := range errorsByPath[path] {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}

	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		// $ref and anyOf wrappers carry no detail of their own
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
