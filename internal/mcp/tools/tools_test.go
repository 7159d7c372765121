package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/internal/cache"
	"github.com/usestring/schemainfer/internal/config"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/ndjson"
)

const usersData = `{"_id": 1, "name": "Alice", "address": {"city": "NYC"}}
{"_id": 2, "name": null, "age": 30}
`

func newTestDeps(t *testing.T) *Deps {
	t.Helper()
	c, err := cache.NewSummaryCache(8)
	require.NoError(t, err)
	return &Deps{
		Config: &config.Config{
			IdentifierField:     "_id",
			IngestWorkers:       1,
			MaxLineBytes:        ndjson.DefaultMaxLineBytes,
			MaxValidationErrors: 5,
		},
		Cache: c,
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func requireCode(t *testing.T, err error, code string) {
	t.Helper()
	var coded *CodedError
	require.True(t, errors.As(err, &coded), "expected CodedError, got %v", err)
	assert.Equal(t, code, coded.Code)
}

func TestToolInfer(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)
	handler := ToolInfer(d)

	_, out, err := handler(context.Background(), nil, InferInput{Path: path})
	require.NoError(t, err)

	summary, ok := out.Summary.(map[string]any)
	require.True(t, ok)
	name := summary["name"].(map[string]any)
	assert.Equal(t, []any{"null", "string"}, name["types"])
	assert.Equal(t, float64(2), name["frequency"])
	assert.Equal(t, 2, out.Stats.Records)
	assert.True(t, out.Presence.Complete)
	assert.False(t, out.Cached)
	assert.Empty(t, out.Rendered)

	_, out, err = handler(context.Background(), nil, InferInput{Path: path, Format: "yaml"})
	require.NoError(t, err)
	assert.True(t, out.Cached)
	assert.Contains(t, out.Rendered, "frequency: 2")
}

func TestToolInfer_Errors(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)
	handler := ToolInfer(d)

	_, _, err := handler(context.Background(), nil, InferInput{})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, InferInput{Path: filepath.Join(t.TempDir(), "missing.json")})
	requireCode(t, err, ErrCodeNotFound)

	_, _, err = handler(context.Background(), nil, InferInput{Path: path, Filter: ".["})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, InferInput{Path: path, Format: "xml"})
	requireCode(t, err, ErrCodeInvalidInput)
}

func TestToolInfer_MissingIdentifierHint(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "events.json", "{\"_id\": 1}\n{\"kind\": \"x\"}\n")

	_, out, err := ToolInfer(d)(context.Background(), nil, InferInput{Path: path})
	require.NoError(t, err)
	assert.False(t, out.Presence.Complete)
	assert.Contains(t, out.Hint, "missing")
}

func TestToolDDL_FromData(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)

	_, out, err := ToolDDL(d)(context.Background(), nil, DDLInput{Path: path})
	require.NoError(t, err)

	assert.Equal(t, "users", out.Table)
	assert.Contains(t, out.DDL, "CREATE TABLE users (")
	assert.Contains(t, out.DDL, "_id BIGINT PRIMARY KEY")
	assert.Contains(t, out.DDL, "address_city TEXT,")
	assert.Empty(t, out.Warning)
	require.Len(t, out.Columns, 4)
	assert.Equal(t, ColumnInfo{Name: "name", Type: "TEXT", NotNull: true}, out.Columns[1])
}

func TestToolDDL_ArrayLineMissingIdentifier(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", "[{\"_id\": 1, \"a\": 1}, {\"a\": 2}]\n")

	_, out, err := ToolDDL(d)(context.Background(), nil, DDLInput{Path: path})
	require.NoError(t, err)
	assert.Equal(t, "_id is missing from 1 of 2 objects; NOT NULL constraints are unreliable", out.Warning)
}

func TestDepsIngest_ReturnsPrivateCopy(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)

	first, cached, err := d.Ingest(context.Background(), IngestRequest{Path: path})
	require.NoError(t, err)
	assert.False(t, cached)
	fields := first.Inferrer.Len()

	require.NoError(t, first.Inferrer.Infer(map[string]any{"injected": true}))
	first.Presence.Records = 99

	second, cached, err := d.Ingest(context.Background(), IngestRequest{Path: path})
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, fields, second.Inferrer.Len())
	_, ok := second.Summary().Get("injected")
	assert.False(t, ok)
	assert.Equal(t, uint64(2), second.Presence.Records)
}

func TestToolDDL_FromSummary(t *testing.T) {
	d := newTestDeps(t)
	dataPath := writeFile(t, "orders.json", "{\"_id\": 1, \"total\": 2.5}\n")

	res, _, err := d.Ingest(context.Background(), IngestRequest{Path: dataPath})
	require.NoError(t, err)

	summaryPath := filepath.Join(t.TempDir(), summaryio.SchemaFileName(dataPath, summaryio.FormatYAML))
	require.NoError(t, summaryio.WriteFile(summaryPath, res.Summary(), summaryio.FormatYAML))

	_, out, err := ToolDDL(d)(context.Background(), nil, DDLInput{SummaryPath: summaryPath})
	require.NoError(t, err)
	assert.Equal(t, "orders", out.Table)
	assert.Contains(t, out.DDL, "total NUMERIC NOT NULL")
}

func TestToolDDL_Errors(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)
	handler := ToolDDL(d)

	_, _, err := handler(context.Background(), nil, DDLInput{})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, DDLInput{Path: path, SummaryPath: path})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, DDLInput{Path: path, PrimaryKey: "uuid"})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, DDLInput{SummaryPath: filepath.Join(t.TempDir(), "x_schema.json")})
	requireCode(t, err, ErrCodeNotFound)
}

func TestToolJSONSchema(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)

	_, out, err := ToolJSONSchema(d)(context.Background(), nil, JSONSchemaInput{Path: path})
	require.NoError(t, err)

	schema := out.Schema.(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"_id"}, schema["required"])
	props := schema["properties"].(map[string]any)
	assert.Contains(t, props, "address")

	_, out, err = ToolJSONSchema(d)(context.Background(), nil, JSONSchemaInput{Path: path, NullableRequired: true})
	require.NoError(t, err)
	assert.Equal(t, []any{"_id", "name"}, out.Schema.(map[string]any)["required"])
}

func TestToolValidate(t *testing.T) {
	d := newTestDeps(t)
	reference := writeFile(t, "users.json", usersData)
	candidate := writeFile(t, "candidate.json", "{\"_id\": 3, \"name\": \"Bob\"}\n{\"name\": \"Eve\"}\n{\"_id\": \"x\"}\n")
	handler := ToolValidate(d)

	_, report, err := handler(context.Background(), nil, ValidateInput{Path: candidate, ReferencePath: reference})
	require.NoError(t, err)
	assert.Equal(t, 3, report.Records)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 2, report.Invalid)
	require.Len(t, report.Failures, 2)
	assert.Equal(t, 2, report.Failures[0].Line)

	schemaPath := writeFile(t, "schema.json", `{"type": "object", "required": ["name"]}`)
	_, report, err = handler(context.Background(), nil, ValidateInput{Path: candidate, SchemaPath: schemaPath, MaxErrors: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, report.Valid)
	assert.Equal(t, 1, report.Invalid)
}

func TestToolValidate_Errors(t *testing.T) {
	d := newTestDeps(t)
	path := writeFile(t, "users.json", usersData)
	handler := ToolValidate(d)

	_, _, err := handler(context.Background(), nil, ValidateInput{Path: path})
	requireCode(t, err, ErrCodeInvalidInput)

	_, _, err = handler(context.Background(), nil, ValidateInput{Path: path, SchemaPath: filepath.Join(t.TempDir(), "nope.json")})
	requireCode(t, err, ErrCodeNotFound)

	badSchema := writeFile(t, "bad.json", `{"type": 12}`)
	_, _, err = handler(context.Background(), nil, ValidateInput{Path: path, SchemaPath: badSchema})
	requireCode(t, err, ErrCodeInvalidInput)
}
