// Package jsonvalue provides an order-preserving in-memory model for decoded
// JSON values.
//
// Objects decode to *Object, an insertion-ordered map, so consumers can walk
// keys in the order they appeared in the source document. Arrays decode to
// []any and numbers to json.Number, which keeps integer precision intact.
package jsonvalue

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"math/big"
	"sort"
	"strconv"

	gojson "github.com/goccy/go-json"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Object is an insertion-ordered JSON object.
type Object = orderedmap.OrderedMap[string, any]

// NewObject returns an empty ordered object.
func NewObject() *Object {
	return orderedmap.New[string, any]()
}

// ErrTrailingData is returned by Decode when bytes remain after the first value.
var ErrTrailingData = errors.New("unexpected data after JSON value")

// ErrSyntax is returned by Decode when data is not valid JSON.
var ErrSyntax = errors.New("invalid JSON")

// Decode parses exactly one JSON value from data. Input that is not valid
// JSON (a missing colon, a stray comma, a leading zero) fails with ErrSyntax.
func Decode(data []byte) (any, error) {
	// The token stream below does not check separators, so syntax is
	// validated up front.
	if err := checkSyntax(data); err != nil {
		return nil, err
	}

	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	v, err := readValue(dec, tok)
	if err != nil {
		return nil, err
	}

	if _, err := dec.Token(); err != io.EOF {
		if err != nil {
			return nil, err
		}
		return nil, ErrTrailingData
	}
	return v, nil
}

func checkSyntax(data []byte) error {
	if json.Valid(data) {
		return nil
	}
	var raw json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrSyntax, err)
	}
	return ErrSyntax
}

func readValue(dec *gojson.Decoder, tok any) (any, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return readObject(dec)
		case '[':
			return readArray(dec)
		default:
			return nil, fmt.Errorf("unexpected delimiter %q", rune(t))
		}
	case gojson.Number:
		return json.Number(string(t)), nil
	case float64:
		return json.Number(strconv.FormatFloat(t, 'f', -1, 64)), nil
	case string, bool, nil:
		return t, nil
	default:
		return nil, fmt.Errorf("unexpected token %T", tok)
	}
}

func readObject(dec *gojson.Decoder) (*Object, error) {
	obj := NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %T", tok)
		}

		tok, err = dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		v, err := readValue(dec, tok)
		if err != nil {
			return nil, err
		}
		// Duplicate keys keep their first position and the last value.
		obj.Set(key, v)
	}
}

func readArray(dec *gojson.Decoder) ([]any, error) {
	arr := make([]any, 0)
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, unexpectedEOF(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == ']' {
			return arr, nil
		}
		v, err := readValue(dec, tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, v)
	}
}

func unexpectedEOF(err error) error {
	if err == io.EOF {
		return io.ErrUnexpectedEOF
	}
	return err
}

// Entries returns an iterator over the key/value pairs of v when v is an
// object. Ordered objects yield keys in insertion order; plain maps yield
// keys in sorted order so iteration is deterministic.
func Entries(v any) (iter.Seq2[string, any], bool) {
	switch obj := v.(type) {
	case *Object:
		if obj == nil {
			return nil, false
		}
		return func(yield func(string, any) bool) {
			for pair := obj.Oldest(); pair != nil; pair = pair.Next() {
				if !yield(pair.Key, pair.Value) {
					return
				}
			}
		}, true
	case map[string]any:
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		return func(yield func(string, any) bool) {
			for _, k := range keys {
				if !yield(k, obj[k]) {
					return
				}
			}
		}, true
	default:
		return nil, false
	}
}

// IsObject reports whether v is an object in either representation.
func IsObject(v any) bool {
	switch obj := v.(type) {
	case *Object:
		return obj != nil
	case map[string]any:
		return true
	default:
		return false
	}
}

// Array returns v as a slice when v is a JSON array.
func Array(v any) ([]any, bool) {
	arr, ok := v.([]any)
	return arr, ok
}

// ToPlain converts v into the representation used by encoding/json's default
// decoding and by gojq: map[string]any objects and int, float64 or *big.Int
// numbers. Key order is lost.
func ToPlain(v any) any {
	switch val := v.(type) {
	case *Object:
		if val == nil {
			return nil
		}
		out := make(map[string]any, val.Len())
		for pair := val.Oldest(); pair != nil; pair = pair.Next() {
			out[pair.Key] = ToPlain(pair.Value)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = ToPlain(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = ToPlain(item)
		}
		return out
	case json.Number:
		return plainNumber(val)
	default:
		return v
	}
}

func plainNumber(n json.Number) any {
	if i, err := n.Int64(); err == nil {
		return int(i)
	}
	if bi, ok := new(big.Int).SetString(n.String(), 10); ok {
		return bi
	}
	if f, err := n.Float64(); err == nil {
		return f
	}
	return n.String()
}
