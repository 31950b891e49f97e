// Package pipeline orchestrates drawing normalization in a fixed order:
// validate geometry, rescale if needed, enhance, extract layout features,
// match against the template catalog.
//
// A pipeline invocation is a pure computation: given the same image and
// the same catalog snapshot it produces the same bundle, performs no I/O,
// and shares no mutable state. Invocations may run fully in parallel as
// long as each one sees an immutable view of the catalog; refresh the
// catalog between batches, not concurrently with in-flight runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/google/uuid"

	"github.com/mechscan/drawnorm/internal/config"
	"github.com/mechscan/drawnorm/internal/enhance"
	"github.com/mechscan/drawnorm/internal/fingerprint"
	"github.com/mechscan/drawnorm/internal/geometry"
	"github.com/mechscan/drawnorm/internal/match"
)

// ErrEmptyImage reports an image with zero or negative extent. Together
// with decode failures it is the only fatal input condition; wrong size
// and no-match outcomes are reported in the bundle instead.
var ErrEmptyImage = errors.New("image has zero or negative extent")

// State identifies a pipeline stage. States advance strictly in order;
// Rescaled is a pass-through when no correction is needed, never skipped.
type State int

const (
	StateReceived State = iota
	StateValidated
	StateRescaled
	StateEnhanced
	StateFeatureExtracted
	StateMatched
	StateDone
)

var stateNames = [...]string{
	"received",
	"validated",
	"rescaled",
	"enhanced",
	"feature_extracted",
	"matched",
	"done",
}

func (s State) String() string {
	if s < StateReceived || s > StateDone {
		return fmt.Sprintf("state(%d)", int(s))
	}
	return stateNames[s]
}

// Bundle is the pipeline output. It is always produced on a successful
// run, even when the geometry is invalid or nothing matched; downstream
// callers decide what to do with those classifications.
type Bundle struct {
	// ID identifies this invocation.
	ID string `json:"id"`

	// Image is the normalized (rescaled and enhanced) page.
	Image image.Image `json:"-"`

	Geometry    *geometry.Report        `json:"geometry"`
	Fingerprint fingerprint.Fingerprint `json:"fingerprint"`
	Match       *match.Result           `json:"match"`

	// State is StateDone on every bundle the pipeline returns.
	State State `json:"-"`
}

// Pipeline runs the fixed normalization sequence.
type Pipeline struct {
	paper     geometry.PaperFormat
	validator *geometry.Validator
	enhancer  *enhance.Enhancer
	threshold float64
}

// New builds a pipeline from the configuration. Out-of-range
// configuration is rejected here, never discovered mid-run.
func New(cfg *config.Config) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	paper := geometry.PaperFormat{
		WidthMM:     cfg.Paper.WidthMM,
		HeightMM:    cfg.Paper.HeightMM,
		ToleranceMM: cfg.Paper.ToleranceMM,
	}
	dpi := geometry.DPIBand{
		Min:      cfg.DPI.Min,
		Max:      cfg.DPI.Max,
		Standard: cfg.DPI.Standard,
	}

	return &Pipeline{
		paper:     paper,
		validator: geometry.NewValidator(paper, dpi),
		enhancer:  enhance.New(cfg.Enhance),
		threshold: cfg.Match.Threshold,
	}, nil
}

// Run processes one decoded image against a catalog snapshot.
//
// dpiHint is the scan resolution if known, 0 otherwise. templates is the
// ordered candidate list; the caller owns it and must not mutate it while
// Run executes. The only error conditions are a nil or zero-extent image
// and caller-driven cancellation; every other outcome is data on the
// bundle.
func (p *Pipeline) Run(ctx context.Context, img image.Image, dpiHint int, templates []match.Template) (*Bundle, error) {
	if img == nil {
		return nil, ErrEmptyImage
	}
	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrEmptyImage, bounds.Dx(), bounds.Dy())
	}

	bundle := &Bundle{
		ID:    uuid.NewString(),
		State: StateReceived,
	}

	bundle.Geometry = p.validator.Validate(img, dpiHint)
	bundle.State = StateValidated

	normalized := geometry.Rescale(img, bundle.Geometry, p.paper)
	bundle.State = StateRescaled

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle.Image = p.enhancer.Enhance(normalized)
	bundle.State = StateEnhanced

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bundle.Fingerprint = fingerprint.Extract(bundle.Image)
	bundle.State = StateFeatureExtracted

	opts := match.Options{}
	if bundle.Geometry.Orientation != geometry.Unknown {
		opts.Orientation = bundle.Geometry.Orientation
	}
	bundle.Match = match.Match(bundle.Fingerprint, templates, p.threshold, opts)
	bundle.State = StateMatched

	bundle.State = StateDone
	return bundle, nil
}
