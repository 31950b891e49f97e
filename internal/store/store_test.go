package store

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mechscan/drawnorm/internal/geometry"
	"github.com/mechscan/drawnorm/internal/vision"
)

func TestJSONDirSave(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "records")

	s, err := NewJSONDir(dir)
	if err != nil {
		t.Fatalf("NewJSONDir failed: %v", err)
	}

	rec := &Record{
		BundleID:   "b-123",
		SourcePath: "/scans/a.png",
		Geometry: &geometry.Report{
			IsValid:     true,
			Orientation: geometry.Portrait,
			InferredDPI: 300,
			ScaleFactor: 1.0,
		},
		Fields: []vision.FieldValue{
			{Name: "part_number", Value: "A-1042", Confidence: 0.9, Provenance: "vision"},
		},
		CreatedAt: time.Now(),
	}
	if err := s.Save(context.Background(), rec); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "b-123.json"))
	if err != nil {
		t.Fatalf("reading record: %v", err)
	}

	var loaded Record
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("record is not valid JSON: %v", err)
	}
	if loaded.BundleID != "b-123" || loaded.SourcePath != "/scans/a.png" {
		t.Errorf("identity fields: got %+v", loaded)
	}
	if loaded.Geometry == nil || !loaded.Geometry.IsValid {
		t.Errorf("geometry: got %+v", loaded.Geometry)
	}
	if len(loaded.Fields) != 1 || loaded.Fields[0].Value != "A-1042" {
		t.Errorf("fields: got %+v", loaded.Fields)
	}
}

func TestJSONDirSaveCancelled(t *testing.T) {
	s, err := NewJSONDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewJSONDir failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := s.Save(ctx, &Record{BundleID: "never"}); err == nil {
		t.Errorf("expected cancellation error")
	}
}
