package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/pkg/inferrer"
	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

func summarize(t *testing.T, records ...string) *inferrer.Summary {
	t.Helper()
	inf := inferrer.New()
	for _, rec := range records {
		v, err := jsonvalue.Decode([]byte(rec))
		require.NoError(t, err)
		require.NoError(t, inf.Infer(v))
	}
	return inf.Summarize()
}

func TestSQLType(t *testing.T) {
	tests := []struct {
		name string
		tags []inferrer.TypeTag
		want string
	}{
		{"string wins", []inferrer.TypeTag{inferrer.TagInteger, inferrer.TagString}, "TEXT"},
		{"boolean", []inferrer.TypeTag{inferrer.TagNull, inferrer.TagBoolean}, "BOOLEAN"},
		{"boolean over numbers", []inferrer.TypeTag{inferrer.TagBoolean, inferrer.TagInteger}, "BOOLEAN"},
		{"integer", []inferrer.TypeTag{inferrer.TagInteger}, "BIGINT"},
		{"nullable integer", []inferrer.TypeTag{inferrer.TagNull, inferrer.TagInteger}, "BIGINT"},
		{"mixed numbers", []inferrer.TypeTag{inferrer.TagInteger, inferrer.TagNumber}, "NUMERIC"},
		{"number", []inferrer.TypeTag{inferrer.TagNumber}, "NUMERIC"},
		{"array", []inferrer.TypeTag{inferrer.TagArray}, "TEXT"},
		{"integer and object", []inferrer.TypeTag{inferrer.TagInteger, inferrer.TagObject}, "TEXT"},
		{"only null", []inferrer.TypeTag{inferrer.TagNull}, "TEXT"},
		{"none", nil, "TEXT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SQLType(tt.tags))
		})
	}
}

func TestGenerate(t *testing.T) {
	s := summarize(t,
		`{"_id": 1, "name": "Alice", "active": true, "address": {"city": "NYC", "zip": 10001}}`,
		`{"_id": 2, "name": "Bob", "score": 1.5, "address": {"city": "LA"}}`,
	)

	got, err := Generate(s, "users", Options{})
	require.NoError(t, err)

	want := "CREATE TABLE users (\n" +
		"    _id BIGINT PRIMARY KEY,\n" +
		"    name TEXT NOT NULL,\n" +
		"    active BOOLEAN,\n" +
		"    address_city TEXT NOT NULL,\n" +
		"    address_zip BIGINT,\n" +
		"    score NUMERIC\n" +
		");\n"
	assert.Equal(t, want, got)
}

func TestGenerate_OnlyFirstPrimaryKey(t *testing.T) {
	s := summarize(t, `{"id": 1, "id_legacy": "x", "child": {"id": 2}}`)

	cols, err := Columns(s, Options{PrimaryKey: "id"})
	require.NoError(t, err)
	require.Len(t, cols, 3)

	assert.True(t, cols[0].PrimaryKey)
	assert.False(t, cols[1].PrimaryKey)
	assert.True(t, cols[1].NotNull)
	assert.Equal(t, "child_id", cols[2].Name)
	assert.False(t, cols[2].PrimaryKey)
}

func TestGenerate_EmptyNestedIsLeaf(t *testing.T) {
	s := summarize(t, `{"_id": 1, "meta": {}}`)

	cols, err := Columns(s, Options{})
	require.NoError(t, err)
	require.Len(t, cols, 2)
	assert.Equal(t, "meta", cols[1].Name)
	assert.Equal(t, "TEXT", cols[1].Type)
}

func TestGenerate_QuotesIdentifiers(t *testing.T) {
	s := summarize(t, `{"_id": 1, "first name": "a", "2fa": true, "say \"hi\"": "x"}`)

	got, err := Generate(s, "user-events", Options{})
	require.NoError(t, err)
	assert.Contains(t, got, `CREATE TABLE "user-events" (`)
	assert.Contains(t, got, `"first name" TEXT NOT NULL`)
	assert.Contains(t, got, `"2fa" BOOLEAN NOT NULL`)
	assert.Contains(t, got, `"say ""hi""" TEXT NOT NULL`)
}

func TestGenerate_MissingIdentifier(t *testing.T) {
	s := summarize(t, `{"name": "x"}`)

	_, err := Generate(s, "users", Options{})
	assert.ErrorIs(t, err, ErrMissingIdentifier)
}

func TestGenerateAll_SortedByTable(t *testing.T) {
	out, err := GenerateAll(map[string]*inferrer.Summary{
		"users":  summarize(t, `{"_id": 1}`),
		"orders": summarize(t, `{"_id": 1}`),
	}, Options{})
	require.NoError(t, err)

	want := "CREATE TABLE orders (\n    _id BIGINT PRIMARY KEY\n);\n" +
		"\n" +
		"CREATE TABLE users (\n    _id BIGINT PRIMARY KEY\n);\n"
	assert.Equal(t, want, out)
}
