package inferrer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	orderedmap "github.com/wk8/go-ordered-map/v2"
	"gopkg.in/yaml.v3"
)

// FieldSummary is the serializable snapshot of one FieldStat.
type FieldSummary struct {
	Types     []TypeTag `json:"types" yaml:"types"`
	Frequency int       `json:"frequency" yaml:"frequency"`
	Nested    *Summary  `json:"nested" yaml:"nested"`
}

// Summary is an immutable, insertion-ordered mapping from field name to
// FieldSummary. It serializes as
//
//	{"field": {"types": [...], "frequency": n, "nested": {...} | null}}
type Summary struct {
	fields *orderedmap.OrderedMap[string, *FieldSummary]
}

// NewSummary returns an empty summary.
func NewSummary() *Summary {
	return &Summary{fields: orderedmap.New[string, *FieldSummary]()}
}

// Summarize returns a deep snapshot of everything observed so far. The
// snapshot shares no state with the inferrer.
func (inf *Inferrer) Summarize() *Summary {
	s := NewSummary()
	if inf == nil || inf.fields == nil {
		return s
	}
	for pair := inf.fields.Oldest(); pair != nil; pair = pair.Next() {
		stat := pair.Value
		fs := &FieldSummary{
			Types:     stat.Types(),
			Frequency: stat.frequency,
		}
		if stat.nested != nil {
			fs.Nested = stat.nested.Summarize()
		}
		s.fields.Set(pair.Key, fs)
	}
	return s
}

// Len returns the number of fields.
func (s *Summary) Len() int {
	if s == nil || s.fields == nil {
		return 0
	}
	return s.fields.Len()
}

// Get returns the summary of a field.
func (s *Summary) Get(name string) (*FieldSummary, bool) {
	if s == nil || s.fields == nil {
		return nil, false
	}
	return s.fields.Get(name)
}

// Keys returns field names in order.
func (s *Summary) Keys() []string {
	keys := make([]string, 0, s.Len())
	s.Each(func(name string, _ *FieldSummary) {
		keys = append(keys, name)
	})
	return keys
}

// Each calls fn for every field in order.
func (s *Summary) Each(fn func(name string, field *FieldSummary)) {
	if s == nil || s.fields == nil {
		return
	}
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		fn(pair.Key, pair.Value)
	}
}

// Set adds or replaces a field. It is intended for building summaries by
// hand, e.g. in tests or when reading them back from disk.
func (s *Summary) Set(name string, field *FieldSummary) {
	if s.fields == nil {
		s.fields = orderedmap.New[string, *FieldSummary]()
	}
	s.fields.Set(name, field)
}

// Has reports whether tag t was observed for the field.
func (f *FieldSummary) Has(t TypeTag) bool {
	return slices.Contains(f.Types, t)
}

// Equal reports whether two summaries hold the same fields, tags, frequencies
// and nested summaries. Field order and tag order are ignored.
func (s *Summary) Equal(other *Summary) bool {
	if s.Len() != other.Len() {
		return false
	}
	if s.Len() == 0 {
		return true
	}
	for pair := s.fields.Oldest(); pair != nil; pair = pair.Next() {
		field := pair.Value
		o, ok := other.Get(pair.Key)
		if !ok || field.Frequency != o.Frequency || !sameTags(field.Types, o.Types) {
			return false
		}
		if (field.Nested == nil) != (o.Nested == nil) {
			return false
		}
		if field.Nested != nil && !field.Nested.Equal(o.Nested) {
			return false
		}
	}
	return true
}

func sameTags(a, b []TypeTag) bool {
	var sa, sb tagSet
	for _, t := range a {
		sa = sa.with(t)
	}
	for _, t := range b {
		sb = sb.with(t)
	}
	return sa == sb
}

// MarshalJSON encodes the summary as a JSON object in field order.
func (s *Summary) MarshalJSON() ([]byte, error) {
	if s == nil || s.fields == nil {
		return []byte("{}"), nil
	}
	return s.fields.MarshalJSON()
}

// UnmarshalJSON decodes a summary previously produced by MarshalJSON.
func (s *Summary) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	fields := orderedmap.New[string, *FieldSummary]()
	if err := fields.UnmarshalJSON(data); err != nil {
		return err
	}
	for pair := fields.Oldest(); pair != nil; pair = pair.Next() {
		if err := checkField(pair.Key, pair.Value); err != nil {
			return err
		}
	}
	s.fields = fields
	return nil
}

func checkField(name string, field *FieldSummary) error {
	if field == nil {
		return fmt.Errorf("field %q: summary entry is null", name)
	}
	for _, t := range field.Types {
		if !t.Valid() {
			return fmt.Errorf("field %q: unknown type tag %q", name, t)
		}
	}
	return nil
}

// MarshalYAML encodes the summary as a YAML mapping in field order.
func (s *Summary) MarshalYAML() (any, error) {
	return s.yamlNode(), nil
}

// UnmarshalYAML decodes a summary previously produced by MarshalYAML.
func (s *Summary) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: summary must be a mapping", node.Line)
	}

	fields := orderedmap.New[string, *FieldSummary]()
	for i := 0; i+1 < len(node.Content); i += 2 {
		name := node.Content[i].Value
		value := node.Content[i+1]

		var field *FieldSummary
		if !(value.Kind == yaml.ScalarNode && value.Tag == "!!null") {
			field = &FieldSummary{}
			if err := value.Decode(field); err != nil {
				return fmt.Errorf("field %q: %w", name, err)
			}
		}
		if err := checkField(name, field); err != nil {
			return err
		}
		fields.Set(name, field)
	}
	s.fields = fields
	return nil
}

func (s *Summary) yamlNode() *yaml.Node {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	s.Each(func(name string, field *FieldSummary) {
		types := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, t := range field.Types {
			types.Content = append(types.Content, scalar("!!str", string(t)))
		}

		nested := scalar("!!null", "null")
		if field.Nested != nil {
			nested = field.Nested.yamlNode()
		}

		value := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		value.Content = append(value.Content,
			scalar("!!str", "types"), types,
			scalar("!!str", "frequency"), scalar("!!int", fmt.Sprint(field.Frequency)),
			scalar("!!str", "nested"), nested,
		)
		node.Content = append(node.Content, scalar("!!str", name), value)
	})
	return node
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

var _ json.Marshaler = (*Summary)(nil)
