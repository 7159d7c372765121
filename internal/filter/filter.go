// Package filter selects or reshapes records with jq expressions before they
// reach the inferrer.
package filter

import (
	"errors"
	"fmt"
	"strings"

	"github.com/itchyny/gojq"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

// Filter is a compiled jq expression.
type Filter struct {
	expression string
	code       *gojq.Code
}

// Compile parses and compiles a jq expression.
func Compile(expression string) (*Filter, error) {
	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}

	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	return &Filter{expression: expression, code: code}, nil
}

// String returns the source expression.
func (f *Filter) String() string { return f.expression }

// Apply runs the expression against one record and returns every non-null
// output. Outputs use plain map[string]any objects, so their keys are visited
// in sorted order by the inferrer. Runtime errors are collected and returned
// together with any outputs produced before them.
func (f *Filter) Apply(record any) ([]any, error) {
	input := jsonvalue.ToPlain(record)

	var outputs []any
	var errs []error

	iter := f.code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}

		if err, isErr := v.(error); isErr {
			var haltErr *gojq.HaltError
			if errors.As(err, &haltErr) && haltErr.Value() == nil {
				break
			}
			errs = append(errs, errors.New(formatJQError(err)))
			continue
		}

		// Skip nil values
		if v == nil {
			continue
		}
		outputs = append(outputs, v)
	}

	return outputs, errors.Join(errs...)
}

// formatJQError trims gojq's verbose value dumps from error messages.
func formatJQError(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": {"); i > 0 && len(msg) > 200 {
		msg = msg[:i] + ": {...}"
	}
	return "jq: " + msg
}
