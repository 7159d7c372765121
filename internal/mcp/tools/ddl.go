package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/usestring/schemainfer/internal/ddl"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/inferrer"
)

// DDLInput is the input for schemainfer_ddl.
type DDLInput struct {
	Path        string `json:"path,omitempty" jsonschema:"Line-delimited JSON file to infer from. Either path or summary_path is required."`
	SummaryPath string `json:"summary_path,omitempty" jsonschema:"Previously written summary file (*_schema.json or *_schema.yaml)"`
	Table       string `json:"table,omitempty" jsonschema:"Table name (default: derived from the file name)"`
	PrimaryKey  string `json:"primary_key,omitempty" jsonschema:"Primary key field; NOT NULL is decided against its frequency (default: IDENTIFIER_FIELD)"`
	Filter      string `json:"filter,omitempty" jsonschema:"Optional jq expression applied to each record when inferring from path"`
}

// ColumnInfo describes one generated column.
type ColumnInfo struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	NotNull    bool   `json:"not_null"`
	PrimaryKey bool   `json:"primary_key"`
}

// DDLOutput is the output for schemainfer_ddl.
type DDLOutput struct {
	Table   string       `json:"table"`
	DDL     string       `json:"ddl"`
	Columns []ColumnInfo `json:"columns,omitzero"`
	Warning string       `json:"warning,omitempty"`
}

// ToolDDL drafts a CREATE TABLE statement.
func ToolDDL(d *Deps) func(ctx context.Context, req *sdkmcp.CallToolRequest, input DDLInput) (*sdkmcp.CallToolResult, DDLOutput, error) {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest, input DDLInput) (*sdkmcp.CallToolResult, DDLOutput, error) {
		if (input.Path == "") == (input.SummaryPath == "") {
			return nil, DDLOutput{}, ErrInvalidInput("exactly one of path or summary_path is required")
		}

		pk := input.PrimaryKey
		if pk == "" {
			pk = d.Config.IdentifierField
		}

		var (
			summary *inferrer.Summary
			table   = input.Table
			warning string
		)

		if input.SummaryPath != "" {
			s, err := summaryio.ReadFile(input.SummaryPath)
			if err != nil {
				if errors.Is(err, fs.ErrNotExist) {
					return nil, DDLOutput{}, ErrNotFound("summary", input.SummaryPath)
				}
				return nil, DDLOutput{}, ErrInvalidInput(err.Error())
			}
			summary = s
			if table == "" {
				table = summaryio.TableName(input.SummaryPath)
			}
		} else {
			res, _, err := d.Ingest(ctx, IngestRequest{
				Path:       input.Path,
				Filter:     input.Filter,
				Identifier: pk,
			})
			if err != nil {
				return nil, DDLOutput{}, err
			}
			summary = res.Summary()
			if table == "" {
				base := filepath.Base(input.Path)
				table = strings.TrimSuffix(base, filepath.Ext(base))
			}
			if !res.Presence.Complete {
				warning = fmt.Sprintf("%s is missing from %d of %d objects; NOT NULL constraints are unreliable",
					pk, res.Presence.Objects-res.Presence.IdentifierCount, res.Presence.Objects)
			}
		}

		opts := ddl.Options{PrimaryKey: pk}
		cols, err := ddl.Columns(summary, opts)
		if err != nil {
			return nil, DDLOutput{}, WrapInferenceError(err)
		}
		stmt, err := ddl.Generate(summary, table, opts)
		if err != nil {
			return nil, DDLOutput{}, WrapInferenceError(err)
		}

		output := DDLOutput{
			Table:   table,
			DDL:     stmt,
			Warning: warning,
		}
		for _, c := range cols {
			output.Columns = append(output.Columns, ColumnInfo{
				Name:       c.Name,
				Type:       c.Type,
				NotNull:    c.NotNull,
				PrimaryKey: c.PrimaryKey,
			})
		}

		return nil, output, nil
	}
}
