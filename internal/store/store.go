// Package store defines the persistence collaborator consumed by the
// batch runner. The normalization core never persists anything itself;
// it hands the final bundle to an implementation of Store.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mechscan/drawnorm/internal/geometry"
	"github.com/mechscan/drawnorm/internal/match"
	"github.com/mechscan/drawnorm/internal/vision"
)

// Record is the final, storable outcome of processing one drawing.
type Record struct {
	BundleID   string              `json:"bundle_id"`
	SourcePath string              `json:"source_path"`
	Geometry   *geometry.Report    `json:"geometry"`
	Match      *match.Result       `json:"match"`
	Fields     []vision.FieldValue `json:"fields,omitempty"`
	Error      string              `json:"error,omitempty"`
	CreatedAt  time.Time           `json:"created_at"`
}

// Store persists processing records.
type Store interface {
	Save(ctx context.Context, rec *Record) error
}

// JSONDir writes one JSON file per record into a directory.
type JSONDir struct {
	dir string
}

// NewJSONDir creates the directory if needed and returns a store over it.
func NewJSONDir(dir string) (*JSONDir, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &JSONDir{dir: dir}, nil
}

// Save implements Store. Records are keyed by bundle ID.
func (s *JSONDir) Save(ctx context.Context, rec *Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	path := filepath.Join(s.dir, rec.BundleID+".json")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return nil
}
