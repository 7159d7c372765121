package jsonschema

import (
	"encoding/json"
	"testing"

	"github.com/invopop/jsonschema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/pkg/inferrer"
	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

func summarize(t *testing.T, records ...string) *inferrer.Summary {
	t.Helper()
	inf := inferrer.New()
	for _, r := range records {
		v, err := jsonvalue.Decode([]byte(r))
		require.NoError(t, err)
		require.NoError(t, inf.Infer(v))
	}
	return inf.Summarize()
}

func property(t *testing.T, s *jsonschema.Schema, name string) *jsonschema.Schema {
	t.Helper()
	require.NotNil(t, s.Properties)
	p, ok := s.Properties.Get(name)
	require.True(t, ok, "missing property %q", name)
	return p
}

func TestFromSummary_PrimitiveTypes(t *testing.T) {
	s := summarize(t, `{"name": "Alice", "age": 30, "score": 1.5, "active": true}`)

	schema := FromSummary(s, nil)

	assert.Equal(t, "object", schema.Type)
	assert.Equal(t, jsonschema.Version, schema.Version)
	assert.Equal(t, "string", property(t, schema, "name").Type)
	assert.Equal(t, "integer", property(t, schema, "age").Type)
	assert.Equal(t, "number", property(t, schema, "score").Type)
	assert.Equal(t, "boolean", property(t, schema, "active").Type)
	assert.Equal(t, []string{"active", "age", "name", "score"}, schema.Required)
}

func TestFromSummary_PropertyOrderFollowsSummary(t *testing.T) {
	s := summarize(t, `{"zeta": 1, "alpha": 2}`)

	schema := FromSummary(s, nil)

	var keys []string
	for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	assert.Equal(t, []string{"zeta", "alpha"}, keys)
}

func TestFromSummary_RequiredUsesIdentifier(t *testing.T) {
	s := summarize(t,
		`{"_id": 1, "name": "a", "extra": 1}`,
		`{"_id": 2, "name": "b"}`,
		`{"_id": 3, "name": "c"}`,
	)

	schema := FromSummary(s, &ExportOptions{Identifier: "_id", StrictRequired: true, MarkNullableAsOptional: true})
	assert.Equal(t, []string{"_id", "name"}, schema.Required)
}

func TestFromSummary_NullableOptional(t *testing.T) {
	s := summarize(t,
		`{"id": 1, "email": "a@example.com"}`,
		`{"id": 2, "email": null}`,
	)

	schema := FromSummary(s, nil)
	assert.Equal(t, []string{"id"}, schema.Required)

	email := property(t, schema, "email")
	require.Len(t, email.AnyOf, 2)
	assert.Equal(t, "null", email.AnyOf[0].Type)
	assert.Equal(t, "string", email.AnyOf[1].Type)

	opts := DefaultExportOptions()
	opts.MarkNullableAsOptional = false
	schema = FromSummary(s, opts)
	assert.Equal(t, []string{"email", "id"}, schema.Required)
}

func TestFromSummary_NotStrict(t *testing.T) {
	s := summarize(t, `{"id": 1}`)
	opts := DefaultExportOptions()
	opts.StrictRequired = false

	schema := FromSummary(s, opts)
	assert.Empty(t, schema.Required)
}

func TestFromSummary_NestedObjectsAndArrays(t *testing.T) {
	s := summarize(t,
		`{"user": {"id": 1, "nick": "x"}, "items": [{"sku": "a", "qty": 1}, {"sku": "b"}]}`,
		`{"user": {"id": 2}, "items": [{"sku": "c", "qty": 2}]}`,
	)

	schema := FromSummary(s, nil)

	user := property(t, schema, "user")
	assert.Equal(t, "object", user.Type)
	assert.Equal(t, "integer", property(t, user, "id").Type)
	assert.Equal(t, []string{"id"}, user.Required)

	items := property(t, schema, "items")
	assert.Equal(t, "array", items.Type)
	require.NotNil(t, items.Items)
	assert.Equal(t, "object", items.Items.Type)
	assert.Equal(t, []string{"sku"}, items.Items.Required)
}

func TestFromSummary_ScalarArrayHasNoItems(t *testing.T) {
	s := summarize(t, `{"tags": ["a", "b"]}`)

	tags := property(t, FromSummary(s, nil), "tags")
	assert.Equal(t, "array", tags.Type)
	assert.Nil(t, tags.Items)
}

func TestFromSummary_UnknownTagMatchesAnything(t *testing.T) {
	s := inferrer.NewSummary()
	s.Set("blob", &inferrer.FieldSummary{Types: []inferrer.TypeTag{inferrer.TagUnknown}, Frequency: 1})

	blob := property(t, FromSummary(s, nil), "blob")
	assert.Empty(t, blob.Type)
	assert.Empty(t, blob.AnyOf)
}

func TestFromSummary_AdditionalProperties(t *testing.T) {
	s := summarize(t, `{"a": {"b": 1}, "list": [{"c": 1}], "u": 1}`, `{"u": {"d": 1}}`)

	allowed := false
	opts := DefaultExportOptions()
	opts.AdditionalProperties = &allowed

	schema := FromSummary(s, opts)
	assert.Equal(t, jsonschema.FalseSchema, schema.AdditionalProperties)
	assert.Equal(t, jsonschema.FalseSchema, property(t, schema, "a").AdditionalProperties)
	assert.Equal(t, jsonschema.FalseSchema, property(t, schema, "list").Items.AdditionalProperties)

	u := property(t, schema, "u")
	require.Len(t, u.AnyOf, 2)
	assert.Equal(t, jsonschema.FalseSchema, u.AnyOf[1].AdditionalProperties)
}

func TestFromSummary_EmptySummary(t *testing.T) {
	schema := FromSummary(inferrer.NewSummary(), nil)

	data, err := json.Marshal(schema)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"object"`)
	assert.Empty(t, schema.Required)
}
