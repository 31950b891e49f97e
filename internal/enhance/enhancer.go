// Package enhance improves the legibility of scanned drawings without
// altering their geometry.
//
// The stage order is fixed: adaptive local contrast on the luminance
// channel, edge-preserving smoothing, unsharp-mask sharpening, then a
// global gamma pass. Smoothing runs before sharpening so the sharpen step
// does not amplify scan noise. Stages can be skipped individually but the
// order is an invariant of the pipeline.
package enhance

import (
	"image"

	"github.com/anthonynsimon/bild/adjust"
	"github.com/anthonynsimon/bild/effect"

	"github.com/mechscan/drawnorm/internal/config"
)

// Enhancer applies the deterministic enhancement sequence.
type Enhancer struct {
	cfg config.EnhanceConfig
}

// New creates an enhancer with the given stage configuration.
func New(cfg config.EnhanceConfig) *Enhancer {
	return &Enhancer{cfg: cfg}
}

// Enhance runs the enabled stages in fixed order and returns the result.
// Pixel dimensions are always preserved. With every stage disabled the
// input is returned unchanged.
func (e *Enhancer) Enhance(img image.Image) image.Image {
	out := img

	if e.cfg.Contrast.Enabled {
		out = claheLuminance(out, e.cfg.Contrast.ClipLimit, e.cfg.Contrast.GridSize)
	}
	if e.cfg.Smooth.Enabled && e.cfg.Smooth.Radius > 0 {
		out = effect.Median(out, float64(e.cfg.Smooth.Radius))
	}
	if e.cfg.Sharpen.Enabled && e.cfg.Sharpen.Amount > 0 {
		out = effect.UnsharpMask(out, e.cfg.Sharpen.Radius, e.cfg.Sharpen.Amount)
	}
	if e.cfg.Gamma.Enabled && e.cfg.Gamma.Value != 1.0 {
		out = adjust.Gamma(out, e.cfg.Gamma.Value)
	}

	return out
}
