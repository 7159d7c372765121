package mcpsrv

import (
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/mcp/tools"
)

// AddTool registers a tool with the server after checking that its output
// type will pass the SDK's inferred JSON schema. It panics with a message
// naming the offending field, e.g. a nil slice without omitzero or a
// *inferrer.Summary that should have been converted with types.ToAny.
//
// Use this instead of [sdkmcp.AddTool] to get the additional check.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	tools.AddTool(srv, t, h)
}
