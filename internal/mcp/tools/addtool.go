package tools

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// AddTool registers a tool after checking its output type with
// CheckOutputSchema.
//
// Panics if the output type would fail the SDK's schema validation.
func AddTool[In, Out any](srv *sdkmcp.Server, t *sdkmcp.Tool, h sdkmcp.ToolHandlerFor[In, Out]) {
	CheckOutputSchema[Out](t.Name)
	sdkmcp.AddTool(srv, t, h)
}

// CheckOutputSchema verifies at registration time that tool output of type T
// will pass the schema the SDK infers from T. Two mistakes are caught:
//
//   - nil slices without omitzero, which marshal as null against an inferred
//     "type": "array";
//   - fields whose type marshals itself (json.RawMessage, *inferrer.Summary,
//     *jsonschema.Schema), whose inferred schema describes the Go struct and
//     not the JSON it produces.
//
// Panics on either. The untyped "any" output is always accepted.
func CheckOutputSchema[T any](toolName string) {
	if err := outputSchemaError(reflect.TypeFor[T]()); err != nil {
		panic(fmt.Sprintf("AddTool %q: %v", toolName, err))
	}
}

func outputSchemaError(rt reflect.Type) error {
	if rt == reflect.TypeFor[any]() {
		return nil
	}
	for rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if paths := selfMarshalingFields(rt, nil, make(map[reflect.Type]bool)); len(paths) > 0 {
		return fmt.Errorf("output type %s has self-marshaling fields at %s\n"+
			"  the inferred schema describes the Go type, not its JSON\n"+
			"  Fix: declare the field as any and fill it with types.ToAny(value)",
			rt, strings.Join(paths, ", "))
	}

	schema, err := jsonschema.ForType(rt, &jsonschema.ForOptions{})
	if err != nil {
		return nil // reported by sdkmcp.AddTool
	}
	resolved, err := schema.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return nil // reported by sdkmcp.AddTool
	}

	data, err := json.Marshal(reflect.Zero(rt).Interface())
	if err != nil {
		return nil
	}
	var v map[string]any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil
	}

	if err := resolved.Validate(&v); err != nil {
		return fmt.Errorf("zero value of output type %s fails schema validation: %v\n"+
			"  JSON: %s\n"+
			"  Fix: add `omitzero` to nil-defaulting slice fields, or initialize them to empty slices",
			rt, err, data)
	}
	return nil
}

var marshalerType = reflect.TypeFor[json.Marshaler]()

// marshalsItself reports whether t (or *t) implements json.Marshaler.
func marshalsItself(t reflect.Type) bool {
	return t.Implements(marshalerType) || reflect.PointerTo(t).Implements(marshalerType)
}

// selfMarshalingFields walks t and returns the paths of nested types that
// implement json.Marshaler.
func selfMarshalingFields(t reflect.Type, path []string, visited map[reflect.Type]bool) []string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if len(path) > 0 && marshalsItself(t) {
		return []string{strings.Join(path, ".")}
	}
	if visited[t] {
		return nil
	}
	visited[t] = true
	defer delete(visited, t)

	var found []string
	switch t.Kind() {
	case reflect.Struct:
		for i := range t.NumField() {
			f := t.Field(i)
			if !f.IsExported() {
				continue
			}
			found = append(found, selfMarshalingFields(f.Type, append(path, f.Name), visited)...)
		}
	case reflect.Slice, reflect.Array:
		found = append(found, selfMarshalingFields(t.Elem(), append(path, "[]"), visited)...)
	case reflect.Map:
		found = append(found, selfMarshalingFields(t.Elem(), append(path, "[value]"), visited)...)
	}
	return found
}
