package tools

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"slices"

	"golang.org/x/sync/singleflight"

	"github.com/usestring/schemainfer/internal/cache"
	"github.com/usestring/schemainfer/internal/config"
	"github.com/usestring/schemainfer/internal/filter"
	"github.com/usestring/schemainfer/internal/ingest"
)

// Deps contains all dependencies needed by tool handlers.
type Deps struct {
	Config *config.Config
	Cache  *cache.SummaryCache

	// flights deduplicates concurrent ingestion of the same file version.
	flights singleflight.Group
}

// IngestRequest names a file and how to ingest it. Zero values fall back to
// the server configuration.
type IngestRequest struct {
	Path       string
	Filter     string
	Identifier string
	Workers    int
}

// Ingest infers the schema of a line-delimited JSON file. Results are cached
// by file version and options; cached reports whether the cache answered.
// The returned result is a private copy.
func (d *Deps) Ingest(ctx context.Context, req IngestRequest) (res *ingest.Result, cached bool, err error) {
	if req.Path == "" {
		return nil, false, ErrInvalidInput("path is required")
	}
	path, err := filepath.Abs(req.Path)
	if err != nil {
		return nil, false, ErrInvalidInput(err.Error())
	}

	identifier := req.Identifier
	if identifier == "" {
		identifier = d.Config.IdentifierField
	}
	workers := req.Workers
	if workers <= 0 {
		workers = d.Config.IngestWorkers
	}

	key, err := cache.KeyFor(path, req.Filter, identifier, workers)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, ErrNotFound("file", req.Path)
		}
		return nil, false, ErrInvalidInput(err.Error())
	}

	if d.Cache != nil {
		if res, ok := d.Cache.Get(key); ok {
			return detach(res), true, nil
		}
	}

	var f *filter.Filter
	if req.Filter != "" {
		f, err = filter.Compile(req.Filter)
		if err != nil {
			return nil, false, ErrInvalidInput(err.Error())
		}
	}

	v, err, _ := d.flights.Do(key.String(), func() (any, error) {
		res, err := ingest.RunFile(ctx, path, ingest.Options{
			Filter:       f,
			Workers:      workers,
			Identifier:   identifier,
			MaxLineBytes: d.Config.MaxLineBytes,
		})
		if err != nil {
			return nil, err
		}
		if d.Cache != nil {
			d.Cache.Put(key, res)
		}
		return res, nil
	})
	if err != nil {
		return nil, false, WrapInferenceError(err)
	}
	return detach(v.(*ingest.Result)), false, nil
}

// detach copies the mutable parts of a cached or shared result so callers
// cannot change what later callers see.
func detach(res *ingest.Result) *ingest.Result {
	out := *res
	out.Inferrer = res.Inferrer.Clone()
	out.Presence.MissingSample = slices.Clone(res.Presence.MissingSample)
	return &out
}
