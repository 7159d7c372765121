package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/internal/config"
	"github.com/usestring/schemainfer/internal/logging"
)

// cli carries state shared by all subcommands.
type cli struct {
	cfg        *config.Config
	logLevel   string
	logCleanup func() error
}

func (c *cli) setupLogging() error {
	logCfg := logging.FromAppConfig(c.cfg)
	if c.logLevel != "" {
		logCfg.Level = c.logLevel
	}
	cleanup, err := logging.Setup(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	c.logCleanup = cleanup
	return nil
}

func (c *cli) close() {
	if c.logCleanup != nil {
		c.logCleanup()
	}
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "schemainfer",
		Short: "Infer field schemas from line-delimited JSON",
		Long: `Infer the schema of line-delimited JSON files.

Every field is summarized with the set of JSON types seen for it, the number
of records it appeared in and, for objects and arrays of objects, a nested
summary. Summaries can be turned into CREATE TABLE statements or JSON Schema
documents, and records can be validated against a schema.

Defaults are read from the environment: IDENTIFIER_FIELD, INGEST_WORKERS,
MAX_LINE_BYTES, OUTPUT_FORMAT, OUTPUT_DIR, LOG_LEVEL, LOG_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setupLogging()
		},
	}

	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: debug, info, warn, error (default: LOG_LEVEL)")

	root.AddCommand(
		newInferCmd(c),
		newDDLCmd(c),
		newJSONSchemaCmd(c),
		newValidateCmd(c),
		newServeCmd(c),
	)
	return root
}

// writeOutput writes data to path, or to stdout when path is empty.
func writeOutput(stdout io.Writer, path string, data []byte) error {
	if path == "" {
		_, err := stdout.Write(data)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
