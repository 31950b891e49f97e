package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mechscan/drawnorm/internal/fingerprint"
	"github.com/mechscan/drawnorm/internal/match"
)

// Directory reads templates from a directory of JSON files, one template
// per file. Catalog order is the lexical order of file names, which gives
// the matcher's first-maximal tie-break a stable meaning.
type Directory struct {
	dir string
}

// NewDirectory creates a catalog over the given directory.
func NewDirectory(dir string) *Directory {
	return &Directory{dir: dir}
}

// List implements Catalog. Files without a .json extension are ignored.
func (d *Directory) List(ctx context.Context, f Filter) ([]match.Template, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read template directory: %w", err)
	}

	templates := make([]match.Template, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(d.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", entry.Name(), err)
		}

		var t match.Template
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", entry.Name(), err)
		}
		if len(t.Fingerprint) != fingerprint.Length {
			return nil, fmt.Errorf("template %s: fingerprint length %d, want %d",
				entry.Name(), len(t.Fingerprint), fingerprint.Length)
		}

		if f.accepts(&t) {
			templates = append(templates, t)
		}
	}

	return templates, nil
}
