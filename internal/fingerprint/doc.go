// Package fingerprint derives a compact numeric summary of a page's
// structural layout, used for similarity comparison against stored
// layout templates.
//
// A fingerprint is an ordered, fixed-length vector combining three groups
// of statistics computed on a downscaled working copy of the page:
//
//   - per-cell edge density on a coarse spatial grid
//   - an orientation histogram of detected straight line segments
//   - per-cell coverage of dense small-glyph regions (a text-block proxy)
//
// Every component is bounded to [0,1]. Extraction is fully deterministic:
// the same input image always yields a bit-identical vector. Fingerprints
// must be computed on the enhanced, geometry-normalized image so they are
// comparable across drawings regardless of source scan quality.
package fingerprint
