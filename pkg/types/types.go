// Package types provides shared types for schemainfer.
// These types are used across multiple packages and are designed for external consumption.
package types

import gojson "github.com/goccy/go-json"

// ToAny round-trips a typed value through JSON to produce an untyped any.
// Use this when a tool output field must be any (instead of json.RawMessage)
// to satisfy the MCP SDK's schema validation.
func ToAny(v any) (any, error) {
	b, err := gojson.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := gojson.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
