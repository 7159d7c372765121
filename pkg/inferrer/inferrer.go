// Package inferrer infers a structural schema from heterogeneous JSON records.
//
// An Inferrer accumulates, for every field it sees, the set of type tags
// observed, how many times the field was present, and (for fields that hold
// objects or arrays of objects) a nested Inferrer describing those objects.
// Records are fed one at a time or as a batch with Infer; Summarize returns
// an immutable snapshot at any point.
//
// An Inferrer is not safe for concurrent use. To ingest in parallel, give
// each worker its own Inferrer and combine them with Merge.
package inferrer

import (
	"errors"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

// ErrInvalidInputKind is returned by Infer when the root value is neither an
// object nor an array.
var ErrInvalidInputKind = errors.New("input data must be a JSON object or array")

// FieldStat holds what has been observed for one field at one nesting level.
type FieldStat struct {
	types     tagSet
	frequency int
	nested    *Inferrer
}

// Types returns the observed tags in canonical order.
func (f *FieldStat) Types() []TypeTag { return f.types.list() }

// Has reports whether tag t has been observed for the field.
func (f *FieldStat) Has(t TypeTag) bool { return f.types.has(t) }

// Frequency returns the number of times the field was present.
func (f *FieldStat) Frequency() int { return f.frequency }

// Nested returns the nested inferrer, or nil if the field never held an
// object or an array starting with an object.
func (f *FieldStat) Nested() *Inferrer { return f.nested }

// Inferrer accumulates field statistics for one nesting level.
type Inferrer struct {
	fields *orderedmap.OrderedMap[string, *FieldStat]
}

// New returns an empty Inferrer.
func New() *Inferrer {
	return &Inferrer{fields: orderedmap.New[string, *FieldStat]()}
}

// Infer feeds a record (an object) or a batch of records (an array) into the
// inferrer. Any other root value fails with ErrInvalidInputKind and leaves the
// inferrer untouched. Non-object elements of a batch are skipped.
func (inf *Inferrer) Infer(data any) error {
	if arr, ok := jsonvalue.Array(data); ok {
		for _, item := range arr {
			inf.inferObject(item)
		}
		return nil
	}
	if jsonvalue.IsObject(data) {
		inf.inferObject(data)
		return nil
	}
	return fmt.Errorf("%w: got %s", ErrInvalidInputKind, Classify(data))
}

func (inf *Inferrer) inferObject(obj any) {
	entries, ok := jsonvalue.Entries(obj)
	if !ok {
		return
	}

	for key, value := range entries {
		stat := inf.stat(key)
		stat.types = stat.types.with(Classify(value))
		stat.frequency++

		if jsonvalue.IsObject(value) {
			stat.nestedInferrer().inferObject(value)
			continue
		}

		// Only arrays whose first element is an object are descended.
		if arr, ok := jsonvalue.Array(value); ok && len(arr) > 0 && jsonvalue.IsObject(arr[0]) {
			nested := stat.nestedInferrer()
			for _, item := range arr {
				nested.inferObject(item)
			}
		}
	}
}

func (inf *Inferrer) stat(key string) *FieldStat {
	if inf.fields == nil {
		inf.fields = orderedmap.New[string, *FieldStat]()
	}
	stat, ok := inf.fields.Get(key)
	if !ok {
		stat = &FieldStat{}
		inf.fields.Set(key, stat)
	}
	return stat
}

func (f *FieldStat) nestedInferrer() *Inferrer {
	if f.nested == nil {
		f.nested = New()
	}
	return f.nested
}

// Len returns the number of distinct fields seen at this level.
func (inf *Inferrer) Len() int {
	if inf.fields == nil {
		return 0
	}
	return inf.fields.Len()
}

// Field returns the stats for a field at this level.
func (inf *Inferrer) Field(name string) (*FieldStat, bool) {
	if inf.fields == nil {
		return nil, false
	}
	return inf.fields.Get(name)
}

// Keys returns field names in first-seen order.
func (inf *Inferrer) Keys() []string {
	keys := make([]string, 0, inf.Len())
	if inf.fields == nil {
		return keys
	}
	for pair := inf.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}
