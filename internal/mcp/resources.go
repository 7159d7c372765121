package mcp

import (
	"bytes"
	"context"
	"net/url"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/mcp/tools"
	"github.com/usestring/schemainfer/internal/summaryio"
)

// Resource URI scheme: schemainfer://
// Supported URIs:
//   schemainfer://summary/{path}   summary of a data file, path URL-escaped
//   schemainfer://yaml/{path}      the same summary rendered as YAML

const (
	uriScheme = "schemainfer://"
	mimeJSON  = "application/json"
	mimeYAML  = "application/yaml"
)

// registerResources registers resource templates and handlers.
func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "summary/{+path}",
		Name:        "Schema Summary",
		Description: "Inferred schema summary of a line-delimited JSON file, formatted as indented JSON. The schemainfer_infer tool returns the same data with stats.",
		MIMEType:    mimeJSON,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant"},
			Priority: 0.5,
		},
	}, s.handleResourceSummary(summaryio.FormatJSON, mimeJSON))

	s.mcpServer.AddResourceTemplate(&sdkmcp.ResourceTemplate{
		URITemplate: uriScheme + "yaml/{+path}",
		Name:        "Schema Summary (YAML)",
		Description: "Inferred schema summary of a line-delimited JSON file, formatted as YAML.",
		MIMEType:    mimeYAML,
		Annotations: &sdkmcp.Annotations{
			Audience: []sdkmcp.Role{"assistant", "user"},
			Priority: 0.3,
		},
	}, s.handleResourceSummary(summaryio.FormatYAML, mimeYAML))
}

func (s *Server) handleResourceSummary(format summaryio.Format, mime string) sdkmcp.ResourceHandler {
	return func(ctx context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		path, err := parseResourceURI(req.Params.URI)
		if err != nil {
			return nil, err
		}

		res, _, err := s.deps.Ingest(ctx, tools.IngestRequest{Path: path})
		if err != nil {
			return nil, err
		}

		var buf bytes.Buffer
		if err := summaryio.Write(&buf, res.Summary(), format); err != nil {
			return nil, tools.WrapInferenceError(err)
		}

		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{
				{
					URI:      req.Params.URI,
					MIMEType: mime,
					Text:     buf.String(),
				},
			},
		}, nil
	}
}

// parseResourceURI extracts the file path from a schemainfer:// URI.
func parseResourceURI(uri string) (string, error) {
	if !strings.HasPrefix(uri, uriScheme) {
		return "", tools.ErrInvalidInput("invalid URI scheme: expected " + uriScheme)
	}

	rest := strings.TrimPrefix(uri, uriScheme)
	kind, escaped, ok := strings.Cut(rest, "/")
	if !ok || escaped == "" {
		return "", tools.ErrInvalidInput("resource URI requires a file path")
	}
	if kind != "summary" && kind != "yaml" {
		return "", tools.ErrInvalidInput("unknown resource type: " + kind)
	}

	path, err := url.PathUnescape(escaped)
	if err != nil {
		return "", tools.ErrInvalidInput("invalid path escape: " + err.Error())
	}
	return path, nil
}
