package tools

import (
	"context"
	"errors"
	"io/fs"
	"os"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/validate"
	"github.com/usestring/schemainfer/pkg/jsonschema"
	"github.com/usestring/schemainfer/pkg/types"
)

// ValidateInput is the input for schemainfer_validate.
type ValidateInput struct {
	Path          string `json:"path" jsonschema:"Line-delimited JSON file to validate"`
	SchemaPath    string `json:"schema_path,omitempty" jsonschema:"JSON Schema file. Either schema_path or reference_path is required."`
	ReferencePath string `json:"reference_path,omitempty" jsonschema:"Line-delimited JSON file whose inferred schema is used instead of schema_path"`
	MaxErrors     int    `json:"max_errors,omitempty" jsonschema:"Max failing records to list (default: MAX_VALIDATION_ERRORS)"`
}

// ToolValidate validates every record of a file against a JSON Schema.
func ToolValidate(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateInput) (*sdkmcp.CallToolResult, types.ValidationReport, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input ValidateInput) (*sdkmcp.CallToolResult, types.ValidationReport, error) {
		if input.Path == "" {
			return nil, types.ValidationReport{}, ErrInvalidInput("path is required")
		}
		if (input.SchemaPath == "") == (input.ReferencePath == "") {
			return nil, types.ValidationReport{}, ErrInvalidInput("exactly one of schema_path or reference_path is required")
		}

		validator, err := d.validator(ctx, input)
		if err != nil {
			return nil, types.ValidationReport{}, err
		}

		f, err := os.Open(input.Path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, types.ValidationReport{}, ErrNotFound("file", input.Path)
			}
			return nil, types.ValidationReport{}, WrapInferenceError(err)
		}
		defer f.Close()

		maxErrors := input.MaxErrors
		if maxErrors <= 0 {
			maxErrors = d.Config.MaxValidationErrors
		}

		report, err := validator.ValidateStream(ctx, f, maxErrors)
		if err != nil {
			return nil, types.ValidationReport{}, WrapInferenceError(err)
		}
		return nil, *report, nil
	}
}

func (d *Deps) validator(ctx context.Context, input ValidateInput) (*validate.Validator, error) {
	if input.SchemaPath != "" {
		data, err := os.ReadFile(input.SchemaPath)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, ErrNotFound("schema", input.SchemaPath)
			}
			return nil, WrapInferenceError(err)
		}
		v, err := validate.NewValidator(data)
		if err != nil {
			return nil, ErrInvalidInput(err.Error())
		}
		return v, nil
	}

	res, _, err := d.Ingest(ctx, IngestRequest{Path: input.ReferencePath})
	if err != nil {
		return nil, err
	}
	opts := jsonschema.DefaultExportOptions()
	opts.Identifier = res.Presence.Identifier
	v, err := validate.NewValidatorFromSchema(jsonschema.FromSummary(res.Summary(), opts))
	if err != nil {
		return nil, WrapInferenceError(err)
	}
	return v, nil
}
