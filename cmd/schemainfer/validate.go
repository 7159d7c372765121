package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/internal/ingest"
	"github.com/usestring/schemainfer/internal/validate"
	"github.com/usestring/schemainfer/pkg/jsonschema"
)

// errInvalidRecords is returned after the report is printed so the exit
// status reflects failed records.
var errInvalidRecords = errors.New("records failed validation")

type validateFlags struct {
	schema     string
	reference  string
	identifier string
	maxErrors  int
}

func newValidateCmd(c *cli) *cobra.Command {
	var f validateFlags

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: "Validate line-delimited JSON records against a JSON Schema",
		Long: `Validate every record of a file against a JSON Schema document given with
--schema, or against the schema inferred from a reference file given with
--reference. A JSON report is printed and the command fails when any record
is invalid.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(cmd.Context(), cmd.OutOrStdout(), args[0], f)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&f.schema, "schema", "", "JSON Schema file")
	flags.StringVar(&f.reference, "reference", "", "line-delimited JSON file whose inferred schema is used")
	flags.StringVar(&f.identifier, "id", c.cfg.IdentifierField, "identifier field of the reference file")
	flags.IntVar(&f.maxErrors, "max-errors", c.cfg.MaxValidationErrors, "failing records to list")
	cmd.MarkFlagsMutuallyExclusive("schema", "reference")
	cmd.MarkFlagsOneRequired("schema", "reference")

	return cmd
}

func runValidate(ctx context.Context, stdout io.Writer, path string, f validateFlags) error {
	validator, err := loadValidator(ctx, f)
	if err != nil {
		return err
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening input: %w", err)
	}
	defer file.Close()

	report, err := validator.ValidateStream(ctx, file, f.maxErrors)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	data, err := gojson.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}
	if _, err := stdout.Write(append(data, '\n')); err != nil {
		return err
	}

	if report.Invalid > 0 {
		return fmt.Errorf("%d of %d: %w", report.Invalid, report.Records, errInvalidRecords)
	}
	return nil
}

func loadValidator(ctx context.Context, f validateFlags) (*validate.Validator, error) {
	if f.schema != "" {
		data, err := os.ReadFile(f.schema)
		if err != nil {
			return nil, fmt.Errorf("reading schema: %w", err)
		}
		return validate.NewValidator(data)
	}

	res, err := ingest.RunFile(ctx, f.reference, ingest.Options{Identifier: f.identifier})
	if err != nil {
		return nil, err
	}
	opts := jsonschema.DefaultExportOptions()
	opts.Identifier = f.identifier
	return validate.NewValidatorFromSchema(jsonschema.FromSummary(res.Summary(), opts))
}
