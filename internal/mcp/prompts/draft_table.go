package prompts

import (
	"context"
	"fmt"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// HandleDraftTableSchema implements the table drafting workflow.
func HandleDraftTableSchema(cfg *Config) func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
	return func(ctx context.Context, req *sdkmcp.GetPromptRequest) (*sdkmcp.GetPromptResult, error) {
		args := req.Params.Arguments

		path := args["path"]
		if path == "" {
			return nil, fmt.Errorf("path argument is required")
		}
		pk := args["primary_key"]
		if pk == "" {
			pk = cfg.IdentifierField
		}

		var sb strings.Builder

		sb.WriteString("# Draft a Table Schema from JSON Records\n\n")
		sb.WriteString("You are a data engineer turning a semi-structured export into a relational table. ")
		sb.WriteString("The tools describe what was observed, not what is allowed; every decision below needs your judgement.\n\n")

		sb.WriteString("## Reading a Summary\n\n")
		sb.WriteString("- `types` lists every kind of value seen: null, boolean, integer, number, string, object, array, unknown\n")
		sb.WriteString("- `frequency` counts records where the key was present, explicit null included\n")
		sb.WriteString("- `nested` describes objects and arrays whose first element was an object; arrays of scalars have none\n")
		sb.WriteString("- Integers are whole values within int64 range, so 1.0 counts as integer\n\n")

		sb.WriteString("## Workflow Steps\n\n")
		fmt.Fprintf(&sb, "1. **Infer** - `schemainfer_infer(path=%q, identifier=%q)`\n", path, pk)
		sb.WriteString("   - Check `stats.malformed` and `stats.rejected`; a high count means the export is not clean\n")
		fmt.Fprintf(&sb, "   - If `presence.complete` is false, %s is not a usable primary key; look for another field with the top frequency\n\n", pk)
		sb.WriteString("2. **Narrow** - Mixed record kinds produce a union of fields\n")
		sb.WriteString("   - Re-run with `filter`, e.g. `select(.type == \"order\")`, once per kind\n\n")
		fmt.Fprintf(&sb, "3. **Draft DDL** - `schemainfer_ddl(path=%q, primary_key=%q)`\n", path, pk)
		sb.WriteString("   - Columns with several types fall back to TEXT; decide whether to split or cast them\n")
		sb.WriteString("   - Array columns are flattened from the first object shape only; consider a child table instead\n\n")
		sb.WriteString("4. **Validate** - Export the schema with `schemainfer_json_schema` and check newer exports with `schemainfer_validate(reference_path=...)`\n\n")

		sb.WriteString("## Output\n\n")
		sb.WriteString("Return the final CREATE TABLE statement, followed by a short list of the columns you changed from the draft and why.\n")

		return &sdkmcp.GetPromptResult{
			Description: "Draft a table schema for " + path,
			Messages: []*sdkmcp.PromptMessage{
				{
					Role:    "user",
					Content: &sdkmcp.TextContent{Text: sb.String()},
				},
			},
		}, nil
	}
}
