// Package ingest feeds line-delimited JSON into a schema inferrer.
//
// Records flow decoder -> optional jq filter -> inferrer. Malformed lines and
// records whose root is neither an object nor an array are logged and
// skipped. With more than one worker, records are dealt round-robin to
// independent inferrers which are merged once the input is exhausted.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/usestring/schemainfer/internal/filter"
	"github.com/usestring/schemainfer/internal/presence"
	"github.com/usestring/schemainfer/pkg/inferrer"
	"github.com/usestring/schemainfer/pkg/jsonvalue"
	"github.com/usestring/schemainfer/pkg/ndjson"
)

// DefaultMissingSample is how many record ordinals lacking the identifier
// are reported.
const DefaultMissingSample = 10

const queueDepth = 256

// Options controls a single ingestion run.
type Options struct {
	Filter        *filter.Filter // optional jq filter applied to every record
	Workers       int            // <= 1 means sequential
	Batch         bool           // collect all records and infer them in one call
	Identifier    string         // field expected in every record, may be empty
	MaxLineBytes  int            // 0 uses ndjson.DefaultMaxLineBytes
	MissingSample int            // 0 uses DefaultMissingSample
}

// Stats counts what happened to the input.
type Stats struct {
	Lines       int `json:"lines"`
	Records     int `json:"records"`
	Malformed   int `json:"malformed"`
	Rejected    int `json:"rejected"`
	FilteredOut int `json:"filtered_out"`
}

func (s *Stats) add(o Stats) {
	s.Records += o.Records
	s.Malformed += o.Malformed
	s.Rejected += o.Rejected
	s.FilteredOut += o.FilteredOut
}

// Result is the outcome of an ingestion run.
type Result struct {
	Inferrer *inferrer.Inferrer
	Stats    Stats
	Presence presence.Report
	Duration time.Duration
}

// Summary snapshots the accumulated schema.
func (r *Result) Summary() *inferrer.Summary {
	return r.Inferrer.Summarize()
}

// RunFile ingests the file at path.
func RunFile(ctx context.Context, path string, opts Options) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	defer f.Close()

	res, err := Run(ctx, f, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return res, nil
}

// Run ingests every record in r. It returns ctx.Err() when the context is
// cancelled and the decoder's error when the stream cannot be read.
func Run(ctx context.Context, r io.Reader, opts Options) (*Result, error) {
	start := time.Now()
	dec := ndjson.NewDecoder(r, ndjson.WithMaxLineBytes(opts.MaxLineBytes))

	var (
		workers []*worker
		stats   Stats
		err     error
	)
	if opts.Workers > 1 && !opts.Batch {
		workers, stats, err = runParallel(ctx, dec, opts)
	} else {
		workers, stats, err = runSequential(ctx, dec, opts)
	}
	if err != nil {
		slog.Warn("ingestion stopped",
			slog.Int("lines", stats.Lines),
			slog.Int("malformed", stats.Malformed),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("ingestion stopped after %d lines: %w", stats.Lines, err)
	}

	inf := workers[0].inf
	tracker := workers[0].tracker
	for i, w := range workers {
		if i > 0 {
			inf.Merge(w.inf)
			tracker.Merge(w.tracker)
		}
		stats.add(w.stats)
	}

	limit := opts.MissingSample
	if limit <= 0 {
		limit = DefaultMissingSample
	}
	report := tracker.Report(limit)
	if !report.Complete {
		slog.Warn("identifier field missing from some objects",
			slog.String("identifier", report.Identifier),
			slog.Uint64("records", report.Records),
			slog.Uint64("objects", report.Objects),
			slog.Uint64("with_identifier", report.IdentifierCount),
			slog.Any("sample_ordinals", report.MissingSample),
		)
	}

	res := &Result{
		Inferrer: inf,
		Stats:    stats,
		Presence: report,
		Duration: time.Since(start),
	}

	slog.Info("ingestion completed",
		slog.Int("lines", stats.Lines),
		slog.Int("records", stats.Records),
		slog.Int("malformed", stats.Malformed),
		slog.Int("rejected", stats.Rejected),
		slog.Int("filtered_out", stats.FilteredOut),
		slog.Int("fields", inf.Len()),
		slog.Int64("duration_ms", res.Duration.Milliseconds()),
	)

	return res, nil
}

func runSequential(ctx context.Context, dec *ndjson.Decoder, opts Options) ([]*worker, Stats, error) {
	w := newWorker(opts)
	var stats Stats

	err := feed(ctx, dec, &stats, func(it item) error {
		w.process(it)
		return nil
	})
	if err != nil {
		return nil, stats, err
	}

	w.flush()
	return []*worker{w}, stats, nil
}

func runParallel(ctx context.Context, dec *ndjson.Decoder, opts Options) ([]*worker, Stats, error) {
	workers := make([]*worker, opts.Workers)
	queues := make([]chan item, opts.Workers)
	for i := range workers {
		workers[i] = newWorker(opts)
		queues[i] = make(chan item, queueDepth)
	}

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	for i, w := range workers {
		queue := queues[i]
		g.Go(func() error {
			for it := range queue {
				w.process(it)
			}
			return nil
		})
	}

	g.Go(func() error {
		defer func() {
			for _, q := range queues {
				close(q)
			}
		}()

		next := 0
		return feed(gctx, dec, &stats, func(it item) error {
			select {
			case queues[next] <- it:
			case <-gctx.Done():
				return gctx.Err()
			}
			next = (next + 1) % len(queues)
			return nil
		})
	})

	if err := g.Wait(); err != nil {
		return nil, stats, err
	}
	return workers, stats, nil
}

// item is one decoded record. The ordinal counts decoded records from zero
// and is shared by every filter output of that record.
type item struct {
	ordinal uint32
	line    int
	value   any
}

// feed decodes records and hands them to emit, skipping malformed lines.
func feed(ctx context.Context, dec *ndjson.Decoder, stats *Stats, emit func(item) error) error {
	defer func() { stats.Lines = dec.Line() }()

	var ordinal uint32
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := dec.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			var lineErr *ndjson.LineError
			if errors.As(err, &lineErr) {
				stats.Malformed++
				slog.Warn("skipping malformed line",
					slog.Int("line", lineErr.Line),
					slog.String("error", lineErr.Err.Error()),
				)
				continue
			}
			return err
		}

		if err := emit(item{ordinal: ordinal, line: rec.Line, value: rec.Value}); err != nil {
			return err
		}
		ordinal++
	}
	return nil
}

// worker owns one inferrer and presence tracker. It is not safe for
// concurrent use.
type worker struct {
	inf      *inferrer.Inferrer
	tracker  *presence.Tracker
	filter   *filter.Filter
	batching bool
	batch    []any
	stats    Stats
}

func newWorker(opts Options) *worker {
	return &worker{
		inf:      inferrer.New(),
		tracker:  presence.NewTracker(opts.Identifier),
		filter:   opts.Filter,
		batching: opts.Batch,
	}
}

func (w *worker) process(it item) {
	values := []any{it.value}
	if w.filter != nil {
		out, err := w.filter.Apply(it.value)
		if err != nil {
			w.stats.Rejected++
			slog.Warn("filter failed, skipping record",
				slog.Int("line", it.line),
				slog.String("filter", w.filter.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		if len(out) == 0 {
			w.stats.FilteredOut++
			return
		}
		values = out
	}

	accepted := values[:0]
	for _, v := range values {
		if w.accept(it, v) {
			accepted = append(accepted, v)
		}
	}
	// All outputs of a record share its ordinal and are numbered together.
	w.tracker.Observe(it.ordinal, accepted...)
}

func (w *worker) accept(it item, v any) bool {
	if w.batching {
		switch {
		case jsonvalue.IsObject(v):
			w.batch = append(w.batch, v)
		default:
			arr, ok := jsonvalue.Array(v)
			if !ok {
				w.reject(it, fmt.Errorf("%w: got %s", inferrer.ErrInvalidInputKind, inferrer.Classify(v)))
				return false
			}
			w.batch = append(w.batch, arr...)
		}
	} else if err := w.inf.Infer(v); err != nil {
		w.reject(it, err)
		return false
	}

	w.stats.Records++
	return true
}

func (w *worker) reject(it item, err error) {
	w.stats.Rejected++
	slog.Warn("skipping record",
		slog.Int("line", it.line),
		slog.String("error", err.Error()),
	)
}

// flush infers the collected batch in a single call.
func (w *worker) flush() {
	if !w.batching || len(w.batch) == 0 {
		return
	}
	// A []any root is always accepted.
	_ = w.inf.Infer(w.batch)
	w.batch = nil
}
