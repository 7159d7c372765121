// Package ddl drafts CREATE TABLE statements from schema summaries.
//
// The output is a starting point for a hand-written schema, not a migration.
// Nested objects are flattened into parent_child columns and every column is
// typed from the tags observed for it.
//
// Nullability is decided by frequency: a column is NOT NULL when it was seen
// exactly as often as the primary key field. That only holds if the primary
// key appears in every record, which the ingest presence report checks.
package ddl

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/usestring/schemainfer/pkg/inferrer"
)

// DefaultPrimaryKey is the identifier field used when none is configured.
const DefaultPrimaryKey = "_id"

// ErrMissingIdentifier is returned when the summary has no primary key field.
var ErrMissingIdentifier = errors.New("primary key field not found in summary")

// Options configures statement generation.
type Options struct {
	PrimaryKey string
}

func (o Options) primaryKey() string {
	if o.PrimaryKey == "" {
		return DefaultPrimaryKey
	}
	return o.PrimaryKey
}

// Column is one flattened leaf field.
type Column struct {
	Name       string
	Type       string
	NotNull    bool
	PrimaryKey bool
}

func (c Column) String() string {
	def := quoteIdent(c.Name) + " " + c.Type
	switch {
	case c.PrimaryKey:
		def += " PRIMARY KEY"
	case c.NotNull:
		def += " NOT NULL"
	}
	return def
}

// Columns flattens s into columns. Only the first column whose name starts
// with the primary key is marked PRIMARY KEY.
func Columns(s *inferrer.Summary, opts Options) ([]Column, error) {
	pk := opts.primaryKey()
	pkField, ok := s.Get(pk)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMissingIdentifier, pk)
	}

	var cols []Column
	var flatten func(s *inferrer.Summary, prefix string)
	flatten = func(s *inferrer.Summary, prefix string) {
		s.Each(func(name string, field *inferrer.FieldSummary) {
			if field.Nested.Len() > 0 {
				flatten(field.Nested, prefix+name+"_")
				return
			}
			cols = append(cols, Column{
				Name:    prefix + name,
				Type:    SQLType(field.Types),
				NotNull: field.Frequency == pkField.Frequency,
			})
		})
	}
	flatten(s, "")

	for i := range cols {
		if strings.HasPrefix(cols[i].Name, pk) {
			cols[i].PrimaryKey = true
			break
		}
	}
	return cols, nil
}

// SQLType maps observed tags to a column type. Any string wins, then
// boolean. Integers alone become BIGINT, mixed numbers NUMERIC, and anything
// else TEXT. Null never affects the type.
func SQLType(tags []inferrer.TypeTag) string {
	has := func(t inferrer.TypeTag) bool { return slices.Contains(tags, t) }

	switch {
	case has(inferrer.TagString):
		return "TEXT"
	case has(inferrer.TagBoolean):
		return "BOOLEAN"
	}

	var integer, number, other bool
	for _, t := range tags {
		switch t {
		case inferrer.TagNull:
		case inferrer.TagInteger:
			integer = true
		case inferrer.TagNumber:
			number = true
		default:
			other = true
		}
	}
	switch {
	case other:
		return "TEXT"
	case number:
		return "NUMERIC"
	case integer:
		return "BIGINT"
	default:
		return "TEXT"
	}
}

// Generate returns a CREATE TABLE statement for s.
func Generate(s *inferrer.Summary, table string, opts Options) (string, error) {
	cols, err := Columns(s, opts)
	if err != nil {
		return "", fmt.Errorf("table %s: %w", table, err)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s (\n", quoteIdent(table))
	for i, col := range cols {
		b.WriteString("    ")
		b.WriteString(col.String())
		if i < len(cols)-1 {
			b.WriteByte(',')
		}
		b.WriteByte('\n')
	}
	b.WriteString(");\n")
	return b.String(), nil
}

// GenerateAll returns the statements for every table, ordered by table name.
func GenerateAll(summaries map[string]*inferrer.Summary, opts Options) (string, error) {
	tables := make([]string, 0, len(summaries))
	for table := range summaries {
		tables = append(tables, table)
	}
	slices.Sort(tables)

	var b strings.Builder
	for i, table := range tables {
		stmt, err := Generate(summaries[table], table, opts)
		if err != nil {
			return "", err
		}
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(stmt)
	}
	return b.String(), nil
}

// quoteIdent double-quotes names that are not plain SQL identifiers.
func quoteIdent(name string) string {
	if isPlainIdent(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func isPlainIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return false
		}
	}
	return true
}
