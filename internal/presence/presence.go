// Package presence records which records carry which root fields.
//
// Downstream DDL generation decides nullability by comparing each field's
// frequency with the frequency of an identifier field, which silently assumes
// the identifier appears in every record. The tracker keeps a bitmap of
// objects per root field so that assumption can be checked and the offending
// records reported.
//
// A record is one decoded line. It holds one object, or several when the
// line is an array or a filter emits more than one output. Every object gets
// its own id, (ordinal << 32) | index within the record, so counts match the
// root frequencies of the inferrer.
package presence

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/RoaringBitmap/roaring/v2/roaring64"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

// Tracker maps root field names to the set of objects containing them.
type Tracker struct {
	identifier string
	records    *roaring.Bitmap
	objects    *roaring64.Bitmap
	fields     map[string]*roaring64.Bitmap
}

// NewTracker creates a tracker. identifier may be empty.
func NewTracker(identifier string) *Tracker {
	return &Tracker{
		identifier: identifier,
		records:    roaring.New(),
		objects:    roaring64.New(),
		fields:     make(map[string]*roaring64.Bitmap),
	}
}

// Observe records the root fields of every object in values, all belonging
// to the record with the given ordinal. Arrays contribute each object
// element. Scalars are ignored.
func (t *Tracker) Observe(ordinal uint32, values ...any) {
	var index uint32
	observed := false
	visit := func(obj any) {
		entries, ok := jsonvalue.Entries(obj)
		if !ok {
			return
		}
		id := objectID(ordinal, index)
		index++
		observed = true
		t.objects.Add(id)
		for key := range entries {
			bm, exists := t.fields[key]
			if !exists {
				bm = roaring64.New()
				t.fields[key] = bm
			}
			bm.Add(id)
		}
	}

	for _, v := range values {
		if arr, ok := jsonvalue.Array(v); ok {
			for _, item := range arr {
				visit(item)
			}
			continue
		}
		visit(v)
	}

	if observed {
		t.records.Add(ordinal)
	}
}

func objectID(ordinal, index uint32) uint64 {
	return uint64(ordinal)<<32 | uint64(index)
}

// Records returns the number of records holding at least one object.
func (t *Tracker) Records() uint64 {
	return t.records.GetCardinality()
}

// Objects returns the number of observed objects.
func (t *Tracker) Objects() uint64 {
	return t.objects.GetCardinality()
}

// Count returns how many objects contain field. It equals the field's root
// frequency.
func (t *Tracker) Count(field string) uint64 {
	bm, ok := t.fields[field]
	if !ok {
		return 0
	}
	return bm.GetCardinality()
}

// Missing returns the ordinals of records with at least one object lacking
// field.
func (t *Tracker) Missing(field string) *roaring.Bitmap {
	lacking := t.objects
	if bm, ok := t.fields[field]; ok {
		lacking = roaring64.AndNot(t.objects, bm)
	}

	out := roaring.New()
	it := lacking.Iterator()
	for it.HasNext() {
		out.Add(uint32(it.Next() >> 32))
	}
	return out
}

// Fields returns the tracked field names, sorted.
func (t *Tracker) Fields() []string {
	names := make([]string, 0, len(t.fields))
	for name := range t.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Merge folds other into t. Ordinals are global, so workers must not reuse
// each other's ordinals.
func (t *Tracker) Merge(other *Tracker) {
	if other == nil {
		return
	}
	t.records.Or(other.records)
	t.objects.Or(other.objects)
	for name, bm := range other.fields {
		existing, ok := t.fields[name]
		if !ok {
			t.fields[name] = bm.Clone()
			continue
		}
		existing.Or(bm)
	}
}

// Report summarizes identifier coverage.
type Report struct {
	Records         uint64   `json:"records"`
	Objects         uint64   `json:"objects"`
	Identifier      string   `json:"identifier,omitempty"`
	IdentifierCount uint64   `json:"identifier_count"`
	Complete        bool     `json:"complete"`
	MissingSample   []uint32 `json:"missing_sample,omitempty"`
}

// Report checks that the identifier is present in every object. At most
// limit ordinals of records with an object lacking it are listed.
func (t *Tracker) Report(limit int) Report {
	r := Report{
		Records:    t.Records(),
		Objects:    t.Objects(),
		Identifier: t.identifier,
	}
	if t.identifier == "" {
		r.Complete = true
		return r
	}

	r.IdentifierCount = t.Count(t.identifier)
	missing := t.Missing(t.identifier)
	r.Complete = missing.IsEmpty()

	it := missing.Iterator()
	for it.HasNext() && len(r.MissingSample) < limit {
		r.MissingSample = append(r.MissingSample, it.Next())
	}
	return r
}
