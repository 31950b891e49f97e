package batch

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/mechscan/drawnorm/internal/catalog"
	"github.com/mechscan/drawnorm/internal/config"
	"github.com/mechscan/drawnorm/internal/pipeline"
	"github.com/mechscan/drawnorm/internal/store"
	"github.com/mechscan/drawnorm/internal/vision"
)

// extractorFunc adapts a function to the vision.Extractor interface.
type extractorFunc func(ctx context.Context, req *vision.Request) (*vision.Result, error)

func (f extractorFunc) Extract(ctx context.Context, req *vision.Request) (*vision.Result, error) {
	return f(ctx, req)
}

// memStore records saved records in memory.
type memStore struct {
	mu      sync.Mutex
	records []*store.Record
}

func (m *memStore) Save(ctx context.Context, rec *store.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
	return nil
}

func writeTestPNG(t *testing.T, path string) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 60, 84))
	for y := 0; y < 84; y++ {
		for x := 0; x < 60; x++ {
			img.Set(x, y, color.White)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("creating %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encoding %s: %v", path, err)
	}
}

func newTestPipeline(t *testing.T) *pipeline.Pipeline {
	t.Helper()
	pipe, err := pipeline.New(config.Default())
	if err != nil {
		t.Fatalf("pipeline.New failed: %v", err)
	}
	return pipe
}

func TestProcessDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "b.png"))
	writeTestPNG(t, filepath.Join(dir, "a.png"))
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("skip me"), 0o644); err != nil {
		t.Fatalf("writing decoy: %v", err)
	}

	st := &memStore{}
	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, st, 2, 0, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}

	if summary.Total != 2 || summary.Succeeded != 2 || summary.Failed != 0 {
		t.Errorf("summary: got %d/%d/%d, want 2/2/0", summary.Total, summary.Succeeded, summary.Failed)
	}
	if len(summary.Results) != 2 {
		t.Fatalf("got %d results, want 2", len(summary.Results))
	}
	if filepath.Base(summary.Results[0].Path) != "a.png" {
		t.Errorf("results not sorted by path: first is %s", summary.Results[0].Path)
	}
	if len(st.records) != 2 {
		t.Errorf("store received %d records, want 2", len(st.records))
	}
	for _, rec := range st.records {
		if rec.BundleID == "" || rec.Geometry == nil || rec.Match == nil {
			t.Errorf("incomplete record: %+v", rec)
		}
	}
}

func TestProcessDirectoryEmpty(t *testing.T) {
	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, nil, 1, 0, nil)

	summary, err := runner.ProcessDirectory(context.Background(), t.TempDir())
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Total != 0 || len(summary.Results) != 0 {
		t.Errorf("summary: got %+v, want empty", summary)
	}
}

func TestProcessDirectoryMissing(t *testing.T) {
	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, nil, 1, 0, nil)

	if _, err := runner.ProcessDirectory(context.Background(), filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Errorf("expected an error for a missing directory")
	}
}

func TestProcessDirectoryBadFileDoesNotAbort(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "good.png"))
	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, nil, 1, 0, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Errorf("summary: got %d/%d, want 1 succeeded and 1 failed", summary.Succeeded, summary.Failed)
	}
	for _, res := range summary.Results {
		if filepath.Base(res.Path) == "corrupt.png" && res.Err == nil {
			t.Errorf("corrupt file reported no error")
		}
	}
}

func TestProcessDirectoryCancelled(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"))

	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, nil, 1, 0, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := runner.ProcessDirectory(ctx, dir); !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestFailedFilePersistsRecord(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "good.png"))
	if err := os.WriteFile(filepath.Join(dir, "corrupt.png"), []byte("not a png"), 0o644); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	st := &memStore{}
	runner := New(newTestPipeline(t), catalog.NewMemory(), nil, st, 1, 0, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("summary: got %d/%d, want 1 succeeded and 1 failed", summary.Succeeded, summary.Failed)
	}

	// Every input file leaves a record, failures included.
	if len(st.records) != 2 {
		t.Fatalf("store received %d records, want 2", len(st.records))
	}
	var failed, succeeded *store.Record
	for _, rec := range st.records {
		if filepath.Base(rec.SourcePath) == "corrupt.png" {
			failed = rec
		} else {
			succeeded = rec
		}
	}
	if failed == nil || failed.Error == "" {
		t.Errorf("failure record: got %+v, want Error set", failed)
	}
	if failed != nil && failed.BundleID == "" {
		t.Errorf("failure record has no key")
	}
	if succeeded == nil || succeeded.Error != "" || succeeded.Geometry == nil {
		t.Errorf("success record: got %+v, want no Error and a geometry report", succeeded)
	}
}

func TestExtractRetriesTransient(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"))

	var mu sync.Mutex
	calls := 0
	var seenSchema vision.ExtractionSchema
	extractor := extractorFunc(func(ctx context.Context, req *vision.Request) (*vision.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		seenSchema = req.Schema
		if calls == 1 {
			return nil, &vision.TransientError{Err: errors.New("connection reset")}
		}
		return &vision.Result{Fields: []vision.FieldValue{
			{Name: "part_number", Value: "A-1", Confidence: 0.9, Provenance: "vision"},
		}}, nil
	})

	runner := New(newTestPipeline(t), catalog.NewMemory(), extractor, nil, 1, 2, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Succeeded != 1 {
		t.Fatalf("summary: got %+v, want one success", summary)
	}
	if calls != 2 {
		t.Errorf("extractor called %d times, want 2", calls)
	}
	if len(summary.Results[0].Fields) != 1 || summary.Results[0].Fields[0].Value != "A-1" {
		t.Errorf("fields: got %+v", summary.Results[0].Fields)
	}
	// No template matched, so the generic schema goes out.
	if len(seenSchema) != len(vision.GenericSchema()) {
		t.Errorf("schema: got %d fields, want the generic set", len(seenSchema))
	}
}

func TestExtractPermanentNotRetried(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"))

	var mu sync.Mutex
	calls := 0
	extractor := extractorFunc(func(ctx context.Context, req *vision.Request) (*vision.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil, errors.New("schema rejected")
	})

	runner := New(newTestPipeline(t), catalog.NewMemory(), extractor, nil, 1, 3, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary: got %+v, want one failure", summary)
	}
	if calls != 1 {
		t.Errorf("extractor called %d times, want 1", calls)
	}
}

func TestExtractTransientExhausted(t *testing.T) {
	dir := t.TempDir()
	writeTestPNG(t, filepath.Join(dir, "a.png"))

	var mu sync.Mutex
	calls := 0
	extractor := extractorFunc(func(ctx context.Context, req *vision.Request) (*vision.Result, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return nil, &vision.TransientError{Err: errors.New("timeout")}
	})

	runner := New(newTestPipeline(t), catalog.NewMemory(), extractor, nil, 1, 2, nil)

	summary, err := runner.ProcessDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("ProcessDirectory failed: %v", err)
	}
	if summary.Failed != 1 {
		t.Errorf("summary: got %+v, want one failure", summary)
	}
	// Initial attempt plus two retries.
	if calls != 3 {
		t.Errorf("extractor called %d times, want 3", calls)
	}
	if res := summary.Results[0]; !vision.IsTransient(res.Err) {
		t.Errorf("final error should keep the transient classification, got %v", res.Err)
	}
}
