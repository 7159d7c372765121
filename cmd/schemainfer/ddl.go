package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/usestring/schemainfer/internal/ddl"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/inferrer"
)

type ddlFlags struct {
	output     string
	primaryKey string
}

func newDDLCmd(c *cli) *cobra.Command {
	var f ddlFlags

	cmd := &cobra.Command{
		Use:   "ddl <summary>...",
		Short: "Generate CREATE TABLE statements from summary files",
		Long: `Generate one CREATE TABLE statement per summary file. The table name is
the file name without its _schema suffix, so users_schema.json becomes
table users. Nested objects are flattened into parent_child columns.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDDL(cmd.OutOrStdout(), args, f)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&f.output, "output", "o", "", "file to write the statements to (default: stdout)")
	flags.StringVar(&f.primaryKey, "pk", c.cfg.IdentifierField, "primary key field")

	return cmd
}

func runDDL(stdout io.Writer, paths []string, f ddlFlags) error {
	summaries := make(map[string]*inferrer.Summary, len(paths))
	for _, path := range paths {
		table := summaryio.TableName(path)
		if _, dup := summaries[table]; dup {
			return fmt.Errorf("%s: table %q is defined twice", path, table)
		}
		s, err := summaryio.ReadFile(path)
		if err != nil {
			return err
		}
		summaries[table] = s
	}

	out, err := ddl.GenerateAll(summaries, ddl.Options{PrimaryKey: f.primaryKey})
	if err != nil {
		return err
	}
	return writeOutput(stdout, f.output, []byte(out))
}
