package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/internal/filter"
	"github.com/usestring/schemainfer/internal/ingest"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/inferrer"
)

type inferFlags struct {
	output       string
	format       string
	filter       string
	identifier   string
	combined     string
	workers      int
	batch        bool
	maxLineBytes int
}

func newInferCmd(c *cli) *cobra.Command {
	var f inferFlags

	cmd := &cobra.Command{
		Use:   "infer <file>...",
		Short: "Infer the schema of line-delimited JSON files",
		Long: `Infer the schema of each input file and write it as <name>_schema.json
(or .yaml) into the output directory. Without --output a single summary is
written to stdout.

With --combined NAME all inputs are merged into one summary named
NAME_schema.json.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInfer(cmd.Context(), cmd.OutOrStdout(), args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", c.cfg.OutputDir, "directory for summary files (default: stdout)")
	flags.StringVar(&f.format, "format", c.cfg.OutputFormat, "summary format: json or yaml")
	flags.StringVar(&f.filter, "filter", "", "jq expression applied to each record before inference")
	flags.StringVar(&f.identifier, "id", c.cfg.IdentifierField, "field expected in every record")
	flags.StringVar(&f.combined, "combined", "", "merge all inputs into one summary with this name")
	flags.IntVar(&f.workers, "workers", c.cfg.IngestWorkers, "parallel inference workers")
	flags.BoolVar(&f.batch, "batch", false, "collect all records and infer them in one call")
	flags.IntVar(&f.maxLineBytes, "max-line-bytes", c.cfg.MaxLineBytes, "longest accepted input line")

	return cmd
}

func runInfer(ctx context.Context, stdout io.Writer, paths []string, f inferFlags) error {
	format, err := summaryio.ParseFormat(f.format)
	if err != nil {
		return err
	}
	if f.output == "" && f.combined == "" && len(paths) > 1 {
		return errors.New("several inputs need --output or --combined")
	}

	opts := ingest.Options{
		Workers:      f.workers,
		Batch:        f.batch,
		Identifier:   f.identifier,
		MaxLineBytes: f.maxLineBytes,
	}
	if f.filter != "" {
		if opts.Filter, err = filter.Compile(f.filter); err != nil {
			return err
		}
	}

	var combined *inferrer.Inferrer
	if f.combined != "" {
		combined = inferrer.New()
	}

	for _, path := range paths {
		res, err := ingest.RunFile(ctx, path, opts)
		if err != nil {
			return err
		}
		if combined != nil {
			combined.Merge(res.Inferrer)
			continue
		}
		if err := emitSummary(stdout, f.output, summaryio.SchemaFileName(path, format), res.Summary(), format); err != nil {
			return err
		}
	}

	if combined != nil {
		return emitSummary(stdout, f.output, summaryio.SchemaFileName(f.combined, format), combined.Summarize(), format)
	}
	return nil
}

func emitSummary(stdout io.Writer, dir, name string, s *inferrer.Summary, format summaryio.Format) error {
	if dir == "" {
		return summaryio.Write(stdout, s, format)
	}
	path := filepath.Join(dir, name)
	if err := summaryio.WriteFile(path, s, format); err != nil {
		return err
	}
	slog.Info("summary written",
		slog.String("path", path),
		slog.Int("fields", s.Len()),
	)
	return nil
}
