package tools

import (
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/pkg/jsonschema"
	"github.com/usestring/schemainfer/pkg/types"
)

// JSONSchemaInput is the input for schemainfer_json_schema.
type JSONSchemaInput struct {
	Path                 string `json:"path" jsonschema:"Path to a line-delimited JSON file"`
	Filter               string `json:"filter,omitempty" jsonschema:"Optional jq expression applied to each record before inference"`
	Identifier           string `json:"identifier,omitempty" jsonschema:"Field whose frequency counts the root records (default: IDENTIFIER_FIELD)"`
	AdditionalProperties *bool  `json:"additional_properties,omitempty" jsonschema:"Set additionalProperties on every object schema"`
	NullableRequired     bool   `json:"nullable_required,omitempty" jsonschema:"Keep fields that were seen as null in required"`
}

// JSONSchemaOutput is the output for schemainfer_json_schema.
type JSONSchemaOutput struct {
	Schema any    `json:"schema"`
	Hint   string `json:"hint,omitempty"`
}

// ToolJSONSchema exports the inferred summary as a JSON Schema document.
func ToolJSONSchema(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input JSONSchemaInput) (*sdkmcp.CallToolResult, JSONSchemaOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input JSONSchemaInput) (*sdkmcp.CallToolResult, JSONSchemaOutput, error) {
		res, _, err := d.Ingest(ctx, IngestRequest{
			Path:       input.Path,
			Filter:     input.Filter,
			Identifier: input.Identifier,
		})
		if err != nil {
			return nil, JSONSchemaOutput{}, err
		}

		opts := jsonschema.DefaultExportOptions()
		opts.Identifier = res.Presence.Identifier
		opts.AdditionalProperties = input.AdditionalProperties
		opts.MarkNullableAsOptional = !input.NullableRequired

		schemaAny, err := types.ToAny(jsonschema.FromSummary(res.Summary(), opts))
		if err != nil {
			return nil, JSONSchemaOutput{}, fmt.Errorf("converting schema: %w", err)
		}

		return nil, JSONSchemaOutput{
			Schema: schemaAny,
			Hint:   "Save the schema and pass it as schema_path to schemainfer_validate to check other files.",
		}, nil
	}
}
