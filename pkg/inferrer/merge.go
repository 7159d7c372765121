package inferrer

// Merge folds everything other has observed into inf: tag sets are unioned,
// frequencies summed and nested inferrers merged field by field. Fields new
// to inf are appended in other's order. other is left unchanged and shares no
// state with inf afterwards.
func (inf *Inferrer) Merge(other *Inferrer) {
	if other == nil || other.fields == nil {
		return
	}
	for pair := other.fields.Oldest(); pair != nil; pair = pair.Next() {
		src := pair.Value
		dst := inf.stat(pair.Key)
		dst.types |= src.types
		dst.frequency += src.frequency
		if src.nested != nil {
			dst.nestedInferrer().Merge(src.nested)
		}
	}
}

// Clone returns a deep copy of inf.
func (inf *Inferrer) Clone() *Inferrer {
	out := New()
	out.Merge(inf)
	return out
}
