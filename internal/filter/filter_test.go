package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

func record(t *testing.T, s string) any {
	t.Helper()
	v, err := jsonvalue.Decode([]byte(s))
	require.NoError(t, err)
	return v
}

func TestCompile_Invalid(t *testing.T) {
	_, err := Compile(".[")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid jq expression")
}

func TestApply_Select(t *testing.T) {
	f, err := Compile(`select(.kind == "receipt")`)
	require.NoError(t, err)
	assert.Equal(t, `select(.kind == "receipt")`, f.String())

	out, err := f.Apply(record(t, `{"kind": "receipt", "total": 3}`))
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, map[string]any{"kind": "receipt", "total": 3}, out[0])

	out, err = f.Apply(record(t, `{"kind": "user"}`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestApply_ProjectsSubDocument(t *testing.T) {
	f, err := Compile(`.payload`)
	require.NoError(t, err)

	out, err := f.Apply(record(t, `{"payload": {"a": 1.5}}`))
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": 1.5}}, out)

	// Missing keys yield null, which is dropped.
	out, err = f.Apply(record(t, `{"other": 1}`))
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestApply_MultipleOutputs(t *testing.T) {
	f, err := Compile(`.items[]`)
	require.NoError(t, err)

	out, err := f.Apply(record(t, `{"items": [{"x": 1}, {"x": 2}]}`))
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestApply_RuntimeError(t *testing.T) {
	f, err := Compile(`.items[]`)
	require.NoError(t, err)

	_, err = f.Apply(record(t, `{"items": 5}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jq:")
}
