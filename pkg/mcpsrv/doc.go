// Package mcpsrv provides an extensible MCP server for schema inference.
//
// The server exposes tools that infer the schema of line-delimited JSON
// files, draft CREATE TABLE statements, export JSON Schema and validate
// records. Users can add their own tools on top of the same cached
// ingestion.
//
// # Basic Usage
//
//	server, err := mcpsrv.NewServer()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer server.Close()
//	server.Run(ctx)
//
// # Extension
//
// Tools that need inference results receive Deps:
//
//	type CountInput struct {
//	    Path string `json:"path"`
//	}
//
//	type CountOutput struct {
//	    Fields int `json:"fields"`
//	}
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithDepsTool(
//	        &mcp.Tool{Name: "count_fields", Description: "Count root fields"},
//	        func(d *mcpsrv.Deps) func(context.Context, *mcp.CallToolRequest, CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	            return func(ctx context.Context, req *mcp.CallToolRequest, in CountInput) (*mcp.CallToolResult, CountOutput, error) {
//	                res, _, err := d.Ingest(ctx, mcpsrv.IngestRequest{Path: in.Path})
//	                if err != nil {
//	                    return nil, CountOutput{}, err
//	                }
//	                return nil, CountOutput{Fields: res.Inferrer.Len()}, nil
//	            }
//	        },
//	    ),
//	)
//
// # Configuration
//
// Settings are read from the environment (see internal/config) and can be
// overridden with options:
//
//	server, err := mcpsrv.NewServer(
//	    mcpsrv.WithLogLevel("debug"),
//	    mcpsrv.WithLogFile("/var/log/schemainfer.log"),
//	)
package mcpsrv
