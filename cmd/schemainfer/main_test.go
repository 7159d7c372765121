package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	gojson "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/internal/config"
	"github.com/usestring/schemainfer/internal/summaryio"
	"github.com/usestring/schemainfer/pkg/inferrer"
	"github.com/usestring/schemainfer/pkg/ndjson"
)

const usersData = `{"_id": 1, "name": "Alice", "address": {"city": "NYC"}}
{"_id": 2, "name": null, "age": 30}
`

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	c := &cli{cfg: &config.Config{
		IdentifierField:     "_id",
		IngestWorkers:       1,
		MaxLineBytes:        ndjson.DefaultMaxLineBytes,
		OutputFormat:        "json",
		MaxValidationErrors: 5,
		LogLevel:            "error",
	}}
	t.Cleanup(c.close)

	var out bytes.Buffer
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(io.Discard)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestInfer_Stdout(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.json", usersData)

	out, err := execute(t, "infer", path)
	require.NoError(t, err)

	s, err := summaryio.Read(strings.NewReader(out), summaryio.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "name", "address", "age"}, s.Keys())

	name, ok := s.Get("name")
	require.True(t, ok)
	assert.Equal(t, []inferrer.TypeTag{inferrer.TagNull, inferrer.TagString}, name.Types)
	assert.Equal(t, 2, name.Frequency)
}

func TestInfer_OutputDir(t *testing.T) {
	in := t.TempDir()
	users := writeFile(t, in, "users.json", usersData)
	orders := writeFile(t, in, "orders.json", "{\"_id\": 1, \"total\": 2.5}\n")
	outDir := filepath.Join(t.TempDir(), "schemas")

	out, err := execute(t, "infer", "-o", outDir, "--format", "yaml", users, orders)
	require.NoError(t, err)
	assert.Empty(t, out)

	s, err := summaryio.ReadFile(filepath.Join(outDir, "orders_schema.yaml"))
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "total"}, s.Keys())
	assert.FileExists(t, filepath.Join(outDir, "users_schema.yaml"))
}

func TestInfer_Combined(t *testing.T) {
	in := t.TempDir()
	users := writeFile(t, in, "users.json", usersData)
	more := writeFile(t, in, "more.json", "{\"_id\": 3, \"email\": \"c@x\"}\n")

	out, err := execute(t, "infer", "--combined", "everyone", users, more)
	require.NoError(t, err)

	s, err := summaryio.Read(strings.NewReader(out), summaryio.FormatJSON)
	require.NoError(t, err)
	id, ok := s.Get("_id")
	require.True(t, ok)
	assert.Equal(t, 3, id.Frequency)
	assert.Contains(t, s.Keys(), "email")
}

func TestInfer_Errors(t *testing.T) {
	in := t.TempDir()
	users := writeFile(t, in, "users.json", usersData)

	_, err := execute(t, "infer", users, users)
	assert.ErrorContains(t, err, "--output")

	_, err = execute(t, "infer", "--format", "toml", users)
	assert.ErrorIs(t, err, summaryio.ErrUnknownFormat)

	_, err = execute(t, "infer", "--filter", ".[", users)
	assert.Error(t, err)

	_, err = execute(t, "infer", filepath.Join(in, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	_, err = execute(t, "infer")
	assert.Error(t, err)
}

func TestDDL(t *testing.T) {
	in := t.TempDir()
	users := writeFile(t, in, "users.json", usersData)
	outDir := t.TempDir()

	_, err := execute(t, "infer", "-o", outDir, users)
	require.NoError(t, err)

	out, err := execute(t, "ddl", filepath.Join(outDir, "users_schema.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "CREATE TABLE users (")
	assert.Contains(t, out, "_id BIGINT PRIMARY KEY")
	assert.Contains(t, out, "address_city TEXT")

	sqlPath := filepath.Join(t.TempDir(), "schema.sql")
	_, err = execute(t, "ddl", "-o", sqlPath, filepath.Join(outDir, "users_schema.json"))
	require.NoError(t, err)
	data, err := os.ReadFile(sqlPath)
	require.NoError(t, err)
	assert.Equal(t, out, string(data))

	_, err = execute(t, "ddl", "--pk", "uuid", filepath.Join(outDir, "users_schema.json"))
	assert.Error(t, err)
}

func TestJSONSchema(t *testing.T) {
	path := writeFile(t, t.TempDir(), "users.json", usersData)

	out, err := execute(t, "jsonschema", "--closed", path)
	require.NoError(t, err)

	var schema map[string]any
	require.NoError(t, gojson.Unmarshal([]byte(out), &schema))
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"_id"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	out, err = execute(t, "jsonschema", "--nullable-required", path)
	require.NoError(t, err)
	require.NoError(t, gojson.Unmarshal([]byte(out), &schema))
	assert.Equal(t, []any{"_id", "name"}, schema["required"])
}

func TestValidate(t *testing.T) {
	in := t.TempDir()
	reference := writeFile(t, in, "users.json", usersData)
	good := writeFile(t, in, "good.json", "{\"_id\": 3, \"name\": \"Bob\"}\n")
	bad := writeFile(t, in, "bad.json", "{\"_id\": 3}\n{\"name\": \"Eve\"}\n")

	out, err := execute(t, "validate", "--reference", reference, good)
	require.NoError(t, err)
	assert.Contains(t, out, `"valid": 1`)

	out, err = execute(t, "validate", "--reference", reference, bad)
	assert.ErrorIs(t, err, errInvalidRecords)
	assert.Contains(t, out, `"invalid": 1`)

	schemaPath := writeFile(t, in, "schema.json", `{"type": "object", "required": ["name"]}`)
	_, err = execute(t, "validate", "--schema", schemaPath, good)
	require.NoError(t, err)

	_, err = execute(t, "validate", good)
	assert.Error(t, err)

	_, err = execute(t, "validate", "--schema", schemaPath, "--reference", reference, good)
	assert.Error(t, err)
}
