package presence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

func observe(t *testing.T, tr *Tracker, ordinal uint32, s string) {
	t.Helper()
	v, err := jsonvalue.Decode([]byte(s))
	require.NoError(t, err)
	tr.Observe(ordinal, v)
}

func TestTracker_CountsAndMissing(t *testing.T) {
	tr := NewTracker("_id")
	observe(t, tr, 0, `{"_id": 1, "a": 1}`)
	observe(t, tr, 1, `{"a": 2}`)
	observe(t, tr, 2, `{"_id": 3}`)
	observe(t, tr, 3, `{"b": 1}`)

	assert.Equal(t, uint64(4), tr.Records())
	assert.Equal(t, uint64(2), tr.Count("_id"))
	assert.Equal(t, uint64(2), tr.Count("a"))
	assert.Equal(t, uint64(0), tr.Count("zzz"))
	assert.Equal(t, []uint32{1, 3}, tr.Missing("_id").ToArray())
	assert.Equal(t, []uint32{0, 1, 2, 3}, tr.Missing("zzz").ToArray())
	assert.Equal(t, []string{"_id", "a", "b"}, tr.Fields())
}

func TestTracker_IgnoresScalars(t *testing.T) {
	tr := NewTracker("")
	observe(t, tr, 0, `42`)
	observe(t, tr, 1, `[{"a": 1}, 3, {"b": 1}]`)

	assert.Equal(t, uint64(1), tr.Records())
	assert.Equal(t, uint64(2), tr.Objects())
	assert.Equal(t, uint64(1), tr.Count("a"))
	assert.Equal(t, uint64(1), tr.Count("b"))
}

func TestTracker_Report(t *testing.T) {
	tr := NewTracker("_id")
	for i := uint32(0); i < 10; i++ {
		if i%3 == 0 {
			observe(t, tr, i, `{"x": 1}`)
			continue
		}
		observe(t, tr, i, `{"_id": "a"}`)
	}

	r := tr.Report(2)
	assert.Equal(t, uint64(10), r.Records)
	assert.Equal(t, uint64(6), r.IdentifierCount)
	assert.False(t, r.Complete)
	assert.Equal(t, []uint32{0, 3}, r.MissingSample)

	complete := NewTracker("")
	observe(t, complete, 0, `{"x": 1}`)
	assert.True(t, complete.Report(5).Complete)
}

func TestTracker_Merge(t *testing.T) {
	a := NewTracker("_id")
	observe(t, a, 0, `{"_id": 1}`)
	observe(t, a, 2, `{"x": 1}`)

	b := NewTracker("_id")
	observe(t, b, 1, `{"_id": 2, "x": 1}`)

	a.Merge(b)

	assert.Equal(t, uint64(3), a.Records())
	assert.Equal(t, uint64(2), a.Count("_id"))
	assert.Equal(t, uint64(2), a.Count("x"))
	assert.Equal(t, []uint32{2}, a.Missing("_id").ToArray())

	// b is unchanged
	assert.Equal(t, uint64(1), b.Records())
}

func TestTracker_ArrayElementMissingIdentifier(t *testing.T) {
	tr := NewTracker("_id")
	observe(t, tr, 0, `[{"_id": 1, "a": 1}, {"a": 2}]`)
	observe(t, tr, 1, `{"_id": 2}`)

	assert.Equal(t, uint64(2), tr.Records())
	assert.Equal(t, uint64(3), tr.Objects())
	assert.Equal(t, uint64(2), tr.Count("_id"))
	assert.Equal(t, uint64(2), tr.Count("a"))
	assert.Equal(t, []uint32{0}, tr.Missing("_id").ToArray())

	r := tr.Report(5)
	assert.False(t, r.Complete)
	assert.Equal(t, uint64(3), r.Objects)
	assert.Equal(t, []uint32{0}, r.MissingSample)
}

func TestTracker_ObserveSeveralValues(t *testing.T) {
	first, err := jsonvalue.Decode([]byte(`{"_id": 1}`))
	require.NoError(t, err)
	second, err := jsonvalue.Decode([]byte(`[{"_id": 2}, {"x": 1}]`))
	require.NoError(t, err)

	tr := NewTracker("_id")
	tr.Observe(7, first, second, map[string]any{"_id": 3}, "scalar")

	assert.Equal(t, uint64(1), tr.Records())
	assert.Equal(t, uint64(4), tr.Objects())
	assert.Equal(t, uint64(3), tr.Count("_id"))
	assert.Equal(t, []uint32{7}, tr.Missing("_id").ToArray())

	tr.Observe(8)
	tr.Observe(9, 42)
	assert.Equal(t, uint64(1), tr.Records())
	assert.Equal(t, uint64(4), tr.Objects())
}
