// Package jsonschema converts inferred summaries into JSON Schema documents.
// It generates schemas following JSON Schema Draft 2020-12.
package jsonschema

import (
	"sort"

	"github.com/invopop/jsonschema"

	"github.com/usestring/schemainfer/pkg/inferrer"
)

// ExportOptions controls schema export behavior.
type ExportOptions struct {
	// Identifier names the root field assumed present in every record. Its
	// frequency is taken as the root record count. When empty or absent from
	// the summary, the highest root frequency is used instead.
	Identifier string
	// StrictRequired marks properties as required when their frequency equals
	// the record count of their level.
	// Default: true
	StrictRequired bool
	// AdditionalProperties sets additionalProperties in object schemas.
	// Default: nil (not set)
	AdditionalProperties *bool
	// MarkNullableAsOptional treats fields that were seen as null as optional.
	// Default: true
	MarkNullableAsOptional bool
}

// DefaultExportOptions returns the default export options.
func DefaultExportOptions() *ExportOptions {
	return &ExportOptions{
		Identifier:             "",
		StrictRequired:         true,
		AdditionalProperties:   nil,
		MarkNullableAsOptional: true,
	}
}

// FromSummary builds a JSON Schema describing the records a summary was
// inferred from.
func FromSummary(s *inferrer.Summary, opts *ExportOptions) *jsonschema.Schema {
	if opts == nil {
		opts = DefaultExportOptions()
	}

	basis := maxFrequency(s)
	if opts.Identifier != "" {
		if id, ok := s.Get(opts.Identifier); ok {
			basis = id.Frequency
		}
	}

	schema := objectSchema(s, basis, opts)
	schema.Version = jsonschema.Version

	if opts.AdditionalProperties != nil {
		applyAdditionalProperties(schema, *opts.AdditionalProperties)
	}
	return schema
}

// objectSchema describes one nesting level. basis is the number of objects
// observed at that level.
func objectSchema(s *inferrer.Summary, basis int, opts *ExportOptions) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	var required []string
	s.Each(func(name string, field *inferrer.FieldSummary) {
		schema.Properties.Set(name, fieldSchema(field, opts))

		if !opts.StrictRequired || field.Frequency != basis {
			return
		}
		if opts.MarkNullableAsOptional && field.Has(inferrer.TagNull) {
			return
		}
		required = append(required, name)
	})
	sort.Strings(required)

	if len(required) > 0 {
		schema.Required = required
	}
	return schema
}

func fieldSchema(field *inferrer.FieldSummary, opts *ExportOptions) *jsonschema.Schema {
	tags := canonicalTags(field.Types)

	variants := make([]*jsonschema.Schema, 0, len(tags))
	for _, tag := range tags {
		variants = append(variants, tagSchema(tag, field.Nested, opts))
	}

	switch len(variants) {
	case 0:
		return &jsonschema.Schema{}
	case 1:
		return variants[0]
	default:
		return &jsonschema.Schema{AnyOf: variants}
	}
}

func tagSchema(tag inferrer.TypeTag, nested *inferrer.Summary, opts *ExportOptions) *jsonschema.Schema {
	switch tag {
	case inferrer.TagObject:
		if nested == nil {
			return &jsonschema.Schema{Type: "object"}
		}
		return objectSchema(nested, maxFrequency(nested), opts)

	case inferrer.TagArray:
		schema := &jsonschema.Schema{Type: "array"}
		if nested != nil {
			schema.Items = objectSchema(nested, maxFrequency(nested), opts)
		}
		return schema

	case inferrer.TagUnknown:
		// Unknown type, return empty schema (matches anything)
		return &jsonschema.Schema{}

	default:
		return &jsonschema.Schema{Type: string(tag)}
	}
}

// canonicalTags orders tags the way the inferrer lists them, dropping
// duplicates.
func canonicalTags(tags []inferrer.TypeTag) []inferrer.TypeTag {
	out := make([]inferrer.TypeTag, 0, len(tags))
	for _, known := range inferrer.AllTags() {
		for _, t := range tags {
			if t == known {
				out = append(out, known)
				break
			}
		}
	}
	return out
}

// maxFrequency is the record count estimate for a level without an
// identifier: a field present in every object has the highest frequency.
func maxFrequency(s *inferrer.Summary) int {
	highest := 0
	s.Each(func(_ string, field *inferrer.FieldSummary) {
		if field.Frequency > highest {
			highest = field.Frequency
		}
	})
	return highest
}

// applyAdditionalProperties recursively sets additionalProperties on all object schemas.
func applyAdditionalProperties(schema *jsonschema.Schema, allowed bool) {
	if schema == nil {
		return
	}

	if schema.Type == "object" {
		if allowed {
			schema.AdditionalProperties = jsonschema.TrueSchema
		} else {
			schema.AdditionalProperties = jsonschema.FalseSchema
		}

		if schema.Properties != nil {
			for pair := schema.Properties.Oldest(); pair != nil; pair = pair.Next() {
				applyAdditionalProperties(pair.Value, allowed)
			}
		}
	}

	if schema.Type == "array" && schema.Items != nil {
		applyAdditionalProperties(schema.Items, allowed)
	}

	for _, s := range schema.AnyOf {
		applyAdditionalProperties(s, allowed)
	}
}
