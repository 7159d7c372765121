package inferrer

import (
	"encoding/json"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

// TypeTag is the coarse classification assigned to an observed value.
type TypeTag string

// The closed set of type tags.
const (
	TagNull    TypeTag = "null"
	TagBoolean TypeTag = "boolean"
	TagInteger TypeTag = "integer"
	TagNumber  TypeTag = "number"
	TagString  TypeTag = "string"
	TagObject  TypeTag = "object"
	TagArray   TypeTag = "array"
	TagUnknown TypeTag = "unknown"
)

// tagOrder is the canonical ordering used when tags are listed.
var tagOrder = [...]TypeTag{
	TagNull,
	TagBoolean,
	TagInteger,
	TagNumber,
	TagString,
	TagObject,
	TagArray,
	TagUnknown,
}

// AllTags returns every tag in canonical order.
func AllTags() []TypeTag {
	out := make([]TypeTag, len(tagOrder))
	copy(out, tagOrder[:])
	return out
}

// Valid reports whether t is one of the eight known tags.
func (t TypeTag) Valid() bool {
	_, ok := tagIndex(t)
	return ok
}

func (t TypeTag) String() string { return string(t) }

func tagIndex(t TypeTag) (int, bool) {
	for i, known := range tagOrder {
		if known == t {
			return i, true
		}
	}
	return 0, false
}

// Classify returns the type tag for a decoded JSON value. Booleans are
// checked before numbers. A json.Number is an integer when it is written
// without fraction or exponent and fits in an int64; Go floats are integers
// when whole and within int64 range.
func Classify(v any) TypeTag {
	if v == nil {
		return TagNull
	}

	switch val := v.(type) {
	case bool:
		return TagBoolean

	case json.Number:
		return classifyNumber(val)

	case float64:
		return classifyFloat(val)

	case float32:
		return classifyFloat(float64(val))

	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return TagInteger

	case uint:
		if uint64(val) > math.MaxInt64 {
			return TagNumber
		}
		return TagInteger

	case uint64:
		if val > math.MaxInt64 {
			return TagNumber
		}
		return TagInteger

	case *big.Int:
		if val.IsInt64() {
			return TagInteger
		}
		return TagNumber

	case string:
		return TagString

	case *jsonvalue.Object:
		if val == nil {
			return TagNull
		}
		return TagObject

	case map[string]any:
		return TagObject

	case []any:
		return TagArray

	default:
		return TagUnknown
	}
}

// classifyNumber follows the literal: a fraction or exponent makes a number
// even when its value is whole, so 1.0 and 1e3 are numbers.
func classifyNumber(n json.Number) TypeTag {
	s := n.String()
	if strings.ContainsAny(s, ".eE") {
		return TagNumber
	}
	if _, err := strconv.ParseInt(s, 10, 64); err == nil {
		return TagInteger
	}
	return TagNumber
}

// classifyFloat treats whole values within [-2^63, 2^63) as integers.
func classifyFloat(f float64) TypeTag {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return TagNumber
	}
	if math.Trunc(f) != f {
		return TagNumber
	}
	if f < -(1<<63) || f >= 1<<63 {
		return TagNumber
	}
	return TagInteger
}

// tagSet is a small bitset over the closed tag union.
type tagSet uint8

func (s tagSet) with(t TypeTag) tagSet {
	i, ok := tagIndex(t)
	if !ok {
		i, _ = tagIndex(TagUnknown)
	}
	return s | 1<<i
}

func (s tagSet) has(t TypeTag) bool {
	i, ok := tagIndex(t)
	return ok && s&(1<<i) != 0
}

func (s tagSet) list() []TypeTag {
	out := make([]TypeTag, 0, 2)
	for i, t := range tagOrder {
		if s&(1<<i) != 0 {
			out = append(out, t)
		}
	}
	return out
}
