// Package catalog exposes the read-only template catalog collaborator.
//
// Catalog order matters: the matcher's tie-break selects the first maximal
// candidate, so implementations must return templates in a stable order.
// Catalogs are never written through this package; template creation and
// learning happen elsewhere.
package catalog

import (
	"context"

	"github.com/mechscan/drawnorm/internal/geometry"
	"github.com/mechscan/drawnorm/internal/match"
)

// Filter narrows a listing. Zero-value fields are ignored.
type Filter struct {
	Orientation geometry.Orientation
	Category    string
}

func (f Filter) accepts(t *match.Template) bool {
	if f.Orientation != "" && t.Orientation != f.Orientation {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	return true
}

// Catalog lists stored layout templates in a stable order.
type Catalog interface {
	List(ctx context.Context, f Filter) ([]match.Template, error)
}

// Memory is an in-memory catalog preserving insertion order. It is the
// snapshot type handed to a batch of pipeline invocations: build it once
// per batch and treat it as read-only while invocations are in flight.
type Memory struct {
	templates []match.Template
}

// NewMemory creates a catalog holding the given templates in order.
func NewMemory(templates ...match.Template) *Memory {
	return &Memory{templates: templates}
}

// List implements Catalog. The returned slice is a copy; mutating it does
// not affect the catalog.
func (m *Memory) List(ctx context.Context, f Filter) ([]match.Template, error) {
	out := make([]match.Template, 0, len(m.templates))
	for i := range m.templates {
		if f.accepts(&m.templates[i]) {
			out = append(out, m.templates[i])
		}
	}
	return out, nil
}
