package tools

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Tool names.
const (
	ToolNameInfer      = "schemainfer_infer"
	ToolNameDDL        = "schemainfer_ddl"
	ToolNameJSONSchema = "schemainfer_json_schema"
	ToolNameValidate   = "schemainfer_validate"
)

// Register registers all tools with the MCP server.
func Register(srv *sdkmcp.Server, d *Deps) {
	AddTool(srv, &sdkmcp.Tool{
		Name:        ToolNameInfer,
		Description: "Infer the schema of a line-delimited JSON file. Returns summary {field: {types, frequency, nested}} where types are drawn from null, boolean, integer, number, string, object, array, unknown and frequency counts records containing the field (null included). Nested objects and arrays of objects get a nested summary. Also returns ingestion stats and whether the identifier field is present in every record. Results are cached until the file changes.",
	}, ToolInfer(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        ToolNameDDL,
		Description: "Draft a CREATE TABLE statement from a data file or a saved summary. Nested fields are flattened into parent_child columns; a column is NOT NULL when it appears as often as the primary key. The draft needs manual review.",
	}, ToolDDL(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        ToolNameJSONSchema,
		Description: "Export the inferred schema of a data file as a JSON Schema (draft 2020-12). Fields with several observed types become anyOf; fields present in every record are required.",
	}, ToolJSONSchema(d))

	AddTool(srv, &sdkmcp.Tool{
		Name:        ToolNameValidate,
		Description: "Validate every record of a line-delimited JSON file against a JSON Schema file, or against the schema inferred from a reference file. Returns counts and the first failing records with their errors.",
	}, ToolValidate(d))
}
