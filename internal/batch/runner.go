// Package batch fans a directory of scanned drawings out across a worker
// pool. Each file runs the full normalization pipeline against a single
// catalog snapshot taken at the start of the batch, then goes to the
// vision extractor and the persistence collaborator.
package batch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/mechscan/drawnorm/internal/catalog"
	"github.com/mechscan/drawnorm/internal/match"
	"github.com/mechscan/drawnorm/internal/pipeline"
	"github.com/mechscan/drawnorm/internal/store"
	"github.com/mechscan/drawnorm/internal/vision"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
}

// Runner processes directories of drawings.
type Runner struct {
	pipe      *pipeline.Pipeline
	catalog   catalog.Catalog
	extractor vision.Extractor
	store     store.Store
	workers   int
	retries   int
	log       *log.Logger
}

// New creates a runner. extractor and st may be nil, in which case the
// corresponding step is skipped (normalize-only runs).
func New(pipe *pipeline.Pipeline, cat catalog.Catalog, extractor vision.Extractor, st store.Store, workers, retries int, logger *log.Logger) *Runner {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = log.New(os.Stderr)
	}
	return &Runner{
		pipe:      pipe,
		catalog:   cat,
		extractor: extractor,
		store:     st,
		workers:   workers,
		retries:   retries,
		log:       logger,
	}
}

// FileResult is the per-file outcome.
type FileResult struct {
	Path   string
	Bundle *pipeline.Bundle
	Fields []vision.FieldValue
	Err    error
}

// Summary aggregates a batch run.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Results   []FileResult
}

// ProcessDirectory runs every supported image file in dir. Individual
// file failures are recorded in the summary and do not stop the batch;
// only catalog errors and caller cancellation abort it.
func (r *Runner) ProcessDirectory(ctx context.Context, dir string) (*Summary, error) {
	files, err := listImages(dir)
	if err != nil {
		return nil, err
	}

	summary := &Summary{Total: len(files)}
	if len(files) == 0 {
		return summary, nil
	}

	// One catalog snapshot for the whole batch. Every invocation sees the
	// same immutable candidate list; catalog refreshes happen between
	// batches, never concurrently with in-flight matches.
	snapshot, err := r.catalog.List(ctx, catalog.Filter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load template catalog: %w", err)
	}
	r.log.Info("starting batch", "files", len(files), "templates", len(snapshot), "workers", r.workers)

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for _, path := range files {
		g.Go(func() error {
			res := r.processFile(gctx, path, snapshot)

			mu.Lock()
			summary.Results = append(summary.Results, res)
			if res.Err != nil {
				summary.Failed++
			} else {
				summary.Succeeded++
			}
			mu.Unlock()

			if res.Err != nil {
				r.log.Error("file failed", "path", path, "err", res.Err)
			} else {
				r.log.Info("file done", "path", path,
					"valid", res.Bundle.Geometry.IsValid,
					"matched", res.Bundle.Match.Matched)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return summary, err
	}
	// Workers record per-file errors instead of returning them, so a
	// caller cancellation has to be surfaced here.
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	sort.Slice(summary.Results, func(i, j int) bool {
		return summary.Results[i].Path < summary.Results[j].Path
	})
	return summary, nil
}

// processFile runs one drawing end to end and persists the outcome.
// Failures are persisted too, with Error set, so the batch output
// accounts for every input file.
func (r *Runner) processFile(ctx context.Context, path string, snapshot []match.Template) FileResult {
	res := FileResult{Path: path}
	res.Bundle, res.Fields, res.Err = r.runFile(ctx, path, snapshot)

	if r.store != nil {
		rec := &store.Record{
			SourcePath: path,
			Fields:     res.Fields,
			CreatedAt:  time.Now().UTC(),
		}
		if res.Bundle != nil {
			rec.BundleID = res.Bundle.ID
			rec.Geometry = res.Bundle.Geometry
			rec.Match = res.Bundle.Match
		} else {
			// No bundle exists for files that failed before the pipeline
			// produced one; they still need a stable record key.
			rec.BundleID = uuid.NewString()
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
		}
		if err := r.store.Save(ctx, rec); err != nil && res.Err == nil {
			res.Err = err
		}
	}

	return res
}

func (r *Runner) runFile(ctx context.Context, path string, snapshot []match.Template) (*pipeline.Bundle, []vision.FieldValue, error) {
	img, err := pipeline.DecodeFile(path)
	if err != nil {
		return nil, nil, err
	}

	bundle, err := r.pipe.Run(ctx, img, 0, snapshot)
	if err != nil {
		return nil, nil, err
	}

	if r.extractor == nil {
		return bundle, nil, nil
	}
	fields, err := r.extract(ctx, bundle)
	if err != nil {
		return bundle, nil, err
	}
	return bundle, fields, nil
}

// extract calls the vision collaborator. The template-versus-generic
// routing is a single explicit decision on the match outcome, not a
// fallback on failure: a matched template supplies its schema, anything
// else gets the generic one. Transient failures are retried up to the
// configured attempt count; permanent ones are abandoned immediately.
func (r *Runner) extract(ctx context.Context, bundle *pipeline.Bundle) ([]vision.FieldValue, error) {
	png, err := bundle.EncodePNG()
	if err != nil {
		return nil, err
	}

	schema := vision.GenericSchema()
	if bundle.Match.Matched {
		schema = bundle.Match.Template.Schema
	}

	req := &vision.Request{ImagePNG: png, Schema: schema}

	var lastErr error
	for attempt := 0; attempt <= r.retries; attempt++ {
		result, err := r.extractor.Extract(ctx, req)
		if err == nil {
			return result.Fields, nil
		}
		lastErr = err
		if !vision.IsTransient(err) {
			break
		}
		r.log.Warn("retrying extraction", "bundle", bundle.ID, "attempt", attempt+1, "err", err)
	}
	return nil, lastErr
}

func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			files = append(files, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}
