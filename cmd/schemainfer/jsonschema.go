package main

import (
	"context"
	"fmt"
	"io"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/internal/filter"
	"github.com/usestring/schemainfer/internal/ingest"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/inferrer"
	"github.com/usestring/schemainfer/pkg/jsonschema"
)

type jsonSchemaFlags struct {
	output           string
	filter           string
	identifier       string
	fromSummary      bool
	strict           bool
	closed           bool
	nullableRequired bool
	maxLineBytes     int
}

func newJSONSchemaCmd(c *cli) *cobra.Command {
	var f jsonSchemaFlags

	cmd := &cobra.Command{
		Use:   "jsonschema <file>",
		Short: "Export the inferred schema as JSON Schema (draft 2020-12)",
		Long: `Infer the schema of a line-delimited JSON file and print it as a JSON
Schema document. With --from-summary the argument is a summary file written
by "schemainfer infer".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJSONSchema(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "file to write the schema to (default: stdout)")
	flags.StringVar(&f.filter, "filter", "", "jq expression applied to each record before inference")
	flags.StringVar(&f.identifier, "id", c.cfg.IdentifierField, "field whose frequency counts the root records")
	flags.BoolVar(&f.fromSummary, "from-summary", false, "read a summary file instead of records")
	flags.BoolVar(&f.strict, "strict", true, "mark fields present in every record as required")
	flags.BoolVar(&f.closed, "closed", false, "set additionalProperties to false")
	flags.BoolVar(&f.nullableRequired, "nullable-required", false, "keep fields seen as null in required")
	flags.IntVar(&f.maxLineBytes, "max-line-bytes", c.cfg.MaxLineBytes, "longest accepted input line")

	return cmd
}

func runJSONSchema(ctx context.Context, stdout io.Writer, path string, f jsonSchemaFlags) error {
	summary, err := loadSummary(ctx, path, f)
	if err != nil {
		return err
	}

	opts := jsonschema.DefaultExportOptions()
	opts.Identifier = f.identifier
	opts.StrictRequired = f.strict
	opts.MarkNullableAsOptional = !f.nullableRequired
	if f.closed {
		closed := false
		opts.AdditionalProperties = &closed
	}

	data, err := gojson.MarshalIndent(jsonschema.FromSummary(summary, opts), "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema: %w", err)
	}
	return writeOutput(stdout, f.output, append(data, '\n'))
}

func loadSummary(ctx context.Context, path string, f jsonSchemaFlags) (*inferrer.Summary, error) {
	if f.fromSummary {
		return summaryio.ReadFile(path)
	}

	opts := ingest.Options{
		Identifier:   f.identifier,
		MaxLineBytes: f.maxLineBytes,
	}
	if f.filter != "" {
		flt, err := filter.Compile(f.filter)
		if err != nil {
			return nil, err
		}
		opts.Filter = flt
	}

	res, err := ingest.RunFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	return res.Summary(), nil
}
