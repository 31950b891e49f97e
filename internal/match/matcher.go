// Package match selects the stored layout template most similar to a
// page fingerprint, or declares that nothing matched.
package match

import (
	"math"

	"github.com/mechscan/drawnorm/internal/fingerprint"
	"github.com/mechscan/drawnorm/internal/geometry"
	"github.com/mechscan/drawnorm/internal/vision"
)

// Template is a previously seen drawing layout: a reference fingerprint
// plus the extraction schema to use when a page matches it.
//
// Templates are created and owned by the catalog collaborator. This
// package only reads them and never mutates or persists one.
type Template struct {
	ID          string                  `json:"template_id"`
	DisplayName string                  `json:"display_name"`
	Category    string                  `json:"category,omitempty"`
	Orientation geometry.Orientation    `json:"orientation"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Schema      vision.ExtractionSchema `json:"extraction_schema"`
}

// Result is the outcome of template selection.
//
// Matched is true only when the best candidate's similarity strictly
// exceeded the threshold. When Matched is false, Template is nil but
// Similarity still carries the best score observed so callers can log
// near-misses.
type Result struct {
	Template   *Template `json:"template,omitempty"`
	Similarity float64   `json:"similarity"`
	Matched    bool      `json:"matched"`
}

// Options narrows the candidate set.
type Options struct {
	// Orientation, when non-empty, restricts candidates to templates of
	// the same orientation.
	Orientation geometry.Orientation

	// Category, when non-empty, restricts candidates to templates of the
	// same category.
	Category string
}

// Similarity returns a bounded [0,1] score between two fingerprints:
// 1 minus the per-component RMS distance. Every fingerprint component
// lies in [0,1], so the distance is bounded too; bit-identical vectors
// score exactly 1.0. Vectors of different lengths score 0.
func Similarity(a, b fingerprint.Fingerprint) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var sumSq float64
	for i := range a {
		d := a[i] - b[i]
		sumSq += d * d
	}
	dist := math.Sqrt(sumSq / float64(len(a)))

	sim := 1 - dist
	if sim < 0 {
		return 0
	}
	if sim > 1 {
		return 1
	}
	return sim
}

// Match compares a fingerprint against candidates in catalog order and
// selects the best one above the threshold.
//
// The selected candidate is updated only on strictly exceeding the
// current best score, so among equal maxima the first one in catalog
// order wins. This tie-break is deliberate: it makes selection
// deterministic and stable under catalog reordering of later entries.
//
// Matched requires best score > threshold (strict). A best score exactly
// equal to the threshold does not match.
func Match(fp fingerprint.Fingerprint, candidates []Template, threshold float64, opts Options) *Result {
	var best *Template
	bestScore := -1.0

	for i := range candidates {
		c := &candidates[i]
		if opts.Orientation != "" && c.Orientation != opts.Orientation {
			continue
		}
		if opts.Category != "" && c.Category != opts.Category {
			continue
		}

		// Strict improvement only: a later candidate with an equal score
		// never displaces the current best.
		if score := Similarity(fp, c.Fingerprint); score > bestScore {
			best = c
			bestScore = score
		}
	}

	if bestScore < 0 {
		bestScore = 0
	}
	if best == nil || bestScore <= threshold {
		return &Result{Similarity: bestScore, Matched: false}
	}

	return &Result{Template: best, Similarity: bestScore, Matched: true}
}
