package mcpsrv

import (
	"context"
	"fmt"
	"log/slog"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/cache"
	"github.com/usestring/schemainfer/internal/config"
	"github.com/usestring/schemainfer/internal/logging"
	"github.com/usestring/schemainfer/internal/mcp"
	"github.com/usestring/schemainfer/internal/mcp/tools"
)

// Server is the schemainfer MCP server.
// It wraps the internal implementation and provides extension points.
type Server struct {
	internal   *mcp.Server
	deps       *Deps
	logCleanup func() error
}

// NewServer creates a new MCP server with the builtin tools.
func NewServer(opts ...Option) (*Server, error) {
	cfg := &serverConfig{
		config: config.Load(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	logCfg := logging.FromAppConfig(cfg.config)
	if cfg.logLevel != "" {
		logCfg.Level = cfg.logLevel
	}
	if cfg.logFile != "" {
		logCfg.FilePath = cfg.logFile
	}
	logCleanup, err := logging.Setup(logCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to setup logging: %w", err)
	}

	summaryCache, err := cache.NewSummaryCache(cfg.config.SummaryCacheMaxItems)
	if err != nil {
		logCleanup()
		return nil, fmt.Errorf("failed to create summary cache: %w", err)
	}

	deps := &tools.Deps{
		Config: cfg.config,
		Cache:  summaryCache,
	}

	var internalOpts []mcp.ServerOption
	if !cfg.disableBuiltinTools {
		internalOpts = append(internalOpts, mcp.WithBuiltinTools())
	}
	if !cfg.disableBuiltinPrompts {
		internalOpts = append(internalOpts, mcp.WithBuiltinPrompts())
	}
	for _, fn := range cfg.toolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(fn))
	}
	for _, fn := range cfg.deferredToolRegistrations {
		internalOpts = append(internalOpts, mcp.WithCustomRegistration(func(srv *sdkmcp.Server) {
			fn(srv, deps)
		}))
	}

	internal, err := mcp.NewServer(deps, internalOpts...)
	if err != nil {
		logCleanup()
		return nil, fmt.Errorf("failed to create server: %w", err)
	}

	slog.Debug("mcp server configured",
		slog.String("identifier", cfg.config.IdentifierField),
		slog.Int("workers", cfg.config.IngestWorkers),
		slog.Int("cache_items", cfg.config.SummaryCacheMaxItems),
	)

	return &Server{
		internal:   internal,
		deps:       deps,
		logCleanup: logCleanup,
	}, nil
}

// Run starts the MCP server with stdio transport and blocks until the
// context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.internal.Run(ctx)
}

// Close cleans up server resources.
func (s *Server) Close() error {
	if s.logCleanup != nil {
		return s.logCleanup()
	}
	return nil
}

// Deps returns the dependencies for building custom tools.
func (s *Server) Deps() *Deps {
	return s.deps
}

// MCPServer returns the underlying MCP server for testing.
func (s *Server) MCPServer() *sdkmcp.Server {
	return s.internal.MCPServer()
}
