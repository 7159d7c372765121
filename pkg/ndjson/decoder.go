// Package ndjson decodes line-delimited JSON.
//
// Each non-blank line holds one JSON value. A line that fails to parse is
// reported as a *LineError and decoding continues with the next line, so
// callers can log and skip bad records. Errors from the underlying reader are
// fatal.
package ndjson

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"iter"

	"github.com/usestring/schemainfer/pkg/jsonvalue"
)

// DefaultMaxLineBytes is the longest line accepted unless overridden.
const DefaultMaxLineBytes = 16 << 20

// Record is one decoded line.
type Record struct {
	Line  int // 1-based line number in the source
	Value any // decoded value, objects as *jsonvalue.Object
}

// LineError describes a line that is not valid JSON.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// Decoder reads records from a line-delimited JSON stream.
type Decoder struct {
	scanner *bufio.Scanner
	line    int
	err     error
}

// Option configures a Decoder.
type Option func(*decoderConfig)

type decoderConfig struct {
	maxLineBytes int
}

// WithMaxLineBytes sets the longest accepted line. Longer lines stop decoding
// with bufio.ErrTooLong.
func WithMaxLineBytes(n int) Option {
	return func(c *decoderConfig) {
		if n > 0 {
			c.maxLineBytes = n
		}
	}
}

// NewDecoder returns a decoder reading from r.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	cfg := decoderConfig{maxLineBytes: DefaultMaxLineBytes}
	for _, opt := range opts {
		opt(&cfg)
	}

	scanner := bufio.NewScanner(r)
	initial := 64 * 1024
	if initial > cfg.maxLineBytes {
		initial = cfg.maxLineBytes
	}
	scanner.Buffer(make([]byte, 0, initial), cfg.maxLineBytes)

	return &Decoder{scanner: scanner}
}

// Next returns the next record. It returns io.EOF when the stream is
// exhausted and a *LineError for a malformed line; after a *LineError the
// next call continues with the following line. Any other error is fatal and
// returned on every later call.
func (d *Decoder) Next() (Record, error) {
	if d.err != nil {
		return Record{}, d.err
	}

	for d.scanner.Scan() {
		d.line++
		line := bytes.TrimSpace(d.scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		v, err := jsonvalue.Decode(line)
		if err != nil {
			return Record{}, &LineError{Line: d.line, Err: err}
		}
		return Record{Line: d.line, Value: v}, nil
	}

	if err := d.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			d.err = fmt.Errorf("line %d: %w", d.line+1, err)
		} else {
			d.err = fmt.Errorf("reading input: %w", err)
		}
		return Record{}, d.err
	}
	d.err = io.EOF
	return Record{}, io.EOF
}

// Line returns the number of the last line read.
func (d *Decoder) Line() int { return d.line }

// All iterates over the remaining records. Malformed lines are yielded as
// *LineError values and iteration continues; iteration ends at EOF or after
// the first fatal error.
func (d *Decoder) All() iter.Seq2[Record, error] {
	return func(yield func(Record, error) bool) {
		for {
			rec, err := d.Next()
			if err == io.EOF {
				return
			}
			if !yield(rec, err) {
				return
			}
			if err != nil && !IsLineError(err) {
				return
			}
		}
	}
}

// IsLineError reports whether err is a recoverable per-line decoding error.
func IsLineError(err error) bool {
	var lineErr *LineError
	return errors.As(err, &lineErr)
}
