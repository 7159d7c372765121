package mcpsrv

import "github.com/usestring/schemainfer/internal/mcp/tools"

// Deps gives custom tools the configuration, summary cache and cached
// ingestion used by the builtin tools.
type Deps = tools.Deps

// IngestRequest is the argument of Deps.Ingest.
type IngestRequest = tools.IngestRequest
