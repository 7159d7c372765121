package prompts

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Register registers all prompts with the MCP server.
func Register(srv *sdkmcp.Server, cfg *Config) {
	srv.AddPrompt(&sdkmcp.Prompt{
		Name:        "draft_table_schema",
		Description: "RECOMMENDED: Turn a line-delimited JSON export into a reviewed CREATE TABLE statement. Walks through inference, identifier checks, DDL drafting and validation of other exports.",
		Arguments: []*sdkmcp.PromptArgument{
			{
				Name:        "path",
				Description: "Line-delimited JSON file to analyze",
				Required:    true,
			},
			{
				Name:        "primary_key",
				Description: "Field expected in every record",
				Required:    false,
			},
		},
	}, HandleDraftTableSchema(cfg))
}
