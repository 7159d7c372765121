package tools

import (
	"bytes"
	"context"
	"fmt"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/ingest"
	"github.com/usestring/schemainfer/internal/presence"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/types"
)

// InferInput is the input for schemainfer_infer.
type InferInput struct {
	Path       string `json:"path" jsonschema:"Path to a line-delimited JSON file, one record per line"`
	Filter     string `json:"filter,omitempty" jsonschema:"Optional jq expression applied to each record before inference, e.g. select(.kind == \"user\") or .payload"`
	Identifier string `json:"identifier,omitempty" jsonschema:"Field expected in every record; its coverage is reported (default: IDENTIFIER_FIELD)"`
	Workers    int    `json:"workers,omitempty" jsonschema:"Parallel ingestion workers (default: INGEST_WORKERS)"`
	Format     string `json:"format,omitempty" jsonschema:"Set to yaml to also return the summary rendered as YAML text"`
}

// InferOutput is the output for schemainfer_infer.
type InferOutput struct {
	// Summary maps field name to {types, frequency, nested}.
	Summary  any             `json:"summary"`
	Rendered string          `json:"rendered,omitempty"`
	Stats    ingest.Stats    `json:"stats"`
	Presence presence.Report `json:"presence"`
	Cached   bool            `json:"cached"`
	Hint     string          `json:"hint,omitempty"`
}

// ToolInfer summarizes field names, observed types and frequencies of a
// line-delimited JSON file.
func ToolInfer(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferInput) (*sdkmcp.CallToolResult, InferOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input InferInput) (*sdkmcp.CallToolResult, InferOutput, error) {
		format, err := summaryio.ParseFormat(input.Format)
		if err != nil {
			return nil, InferOutput{}, ErrInvalidInput(err.Error())
		}

		res, cached, err := d.Ingest(ctx, IngestRequest{
			Path:       input.Path,
			Filter:     input.Filter,
			Identifier: input.Identifier,
			Workers:    input.Workers,
		})
		if err != nil {
			return nil, InferOutput{}, err
		}

		summary := res.Summary()
		summaryAny, err := types.ToAny(summary)
		if err != nil {
			return nil, InferOutput{}, fmt.Errorf("converting summary: %w", err)
		}

		output := InferOutput{
			Summary:  summaryAny,
			Stats:    res.Stats,
			Presence: res.Presence,
			Cached:   cached,
			Hint:     inferHint(input.Path, res),
		}

		if format == summaryio.FormatYAML {
			var buf bytes.Buffer
			if err := summaryio.Write(&buf, summary, format); err != nil {
				return nil, InferOutput{}, WrapInferenceError(err)
			}
			output.Rendered = buf.String()
		}

		return nil, output, nil
	}
}

func inferHint(path string, res *ingest.Result) string {
	switch {
	case res.Stats.Records == 0:
		return "No records were accepted. Check stats.malformed and stats.rejected, or loosen the filter."
	case !res.Presence.Complete:
		return fmt.Sprintf("Field %q is missing from some records (see presence.missing_sample). NOT NULL columns from schemainfer_ddl will be unreliable; pass a different primary_key.", res.Presence.Identifier)
	default:
		return fmt.Sprintf("Use schemainfer_ddl(path=%q) to draft a table, or schemainfer_json_schema(path=%q) for a JSON Schema.", path, path)
	}
}
