package fingerprint

import (
	"image"

	"github.com/disintegration/imaging"
)

// Vector layout constants. The fingerprint is the concatenation of the
// three groups in this order; changing any of them invalidates every
// stored template fingerprint.
const (
	// EdgeGridSize is the side of the coarse grid for edge density.
	EdgeGridSize = 4

	// OrientationBins is the number of line-orientation histogram bins
	// covering [0, 180) degrees.
	OrientationBins = 8

	// TextGridSize is the side of the coarse grid for text coverage.
	TextGridSize = 3

	// Length is the total fingerprint vector length.
	Length = EdgeGridSize*EdgeGridSize + OrientationBins + TextGridSize*TextGridSize
)

// workingWidth is the fixed width every page is downscaled to before
// analysis. Working at one size makes fingerprints comparable across scan
// resolutions and normalizes the layout statistics by aspect.
const workingWidth = 480

// minSegmentLength is the minimum traced segment length, in working-image
// pixels, for a line to enter the orientation histogram.
const minSegmentLength = 40

// Fingerprint is an ordered, fixed-length numeric vector summarizing a
// page's structural layout. All components lie in [0,1]. A fingerprint is
// immutable once computed; callers needing a private copy should Clone it.
type Fingerprint []float64

// Clone returns an independent copy of the vector.
func (f Fingerprint) Clone() Fingerprint {
	out := make(Fingerprint, len(f))
	copy(out, f)
	return out
}

// Equal reports whether two fingerprints are bit-identical.
func (f Fingerprint) Equal(other Fingerprint) bool {
	if len(f) != len(other) {
		return false
	}
	for i := range f {
		if f[i] != other[i] {
			return false
		}
	}
	return true
}

// Extract computes the layout fingerprint of a page image.
//
// The input must be the enhanced, geometry-normalized image produced by
// the pipeline; fingerprints of raw scans are not comparable. Extraction
// is deterministic: identical input yields a bit-identical vector.
func Extract(img image.Image) Fingerprint {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return make(Fingerprint, Length)
	}

	working := img
	if bounds.Dx() != workingWidth {
		working = imaging.Resize(img, workingWidth, 0, imaging.Lanczos)
	}
	wb := working.Bounds()
	width := wb.Dx()
	height := wb.Dy()
	if height == 0 {
		return make(Fingerprint, Length)
	}

	edges := edgeMap(working)

	fp := make(Fingerprint, 0, Length)
	fp = append(fp, edgeDensityGrid(edges, width, height)...)
	fp = append(fp, orientationHistogram(edges, width, height)...)
	fp = append(fp, textCoverageGrid(edges, width, height)...)
	return fp
}

// edgeDensityGrid returns the fraction of edge pixels per cell of an
// EdgeGridSize x EdgeGridSize grid, row-major.
func edgeDensityGrid(edges [][]bool, width, height int) []float64 {
	out := make([]float64, 0, EdgeGridSize*EdgeGridSize)

	for gy := 0; gy < EdgeGridSize; gy++ {
		for gx := 0; gx < EdgeGridSize; gx++ {
			x0 := gx * width / EdgeGridSize
			x1 := (gx + 1) * width / EdgeGridSize
			y0 := gy * height / EdgeGridSize
			y1 := (gy + 1) * height / EdgeGridSize

			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					if edges[y][x] {
						count++
					}
				}
			}

			area := (x1 - x0) * (y1 - y0)
			if area == 0 {
				out = append(out, 0)
				continue
			}
			out = append(out, float64(count)/float64(area))
		}
	}

	return out
}

// orientationHistogram returns the length-weighted distribution of
// detected line segments over OrientationBins bins covering [0, 180).
// The histogram sums to 1 when any segment was found, 0 otherwise.
func orientationHistogram(edges [][]bool, width, height int) []float64 {
	out := make([]float64, OrientationBins)

	segments := detectSegments(edges, width, height, minSegmentLength)
	if len(segments) == 0 {
		return out
	}

	// Bins are centered on 0, 180/OrientationBins, ... degrees and wrap,
	// so 0 and 180 are the same orientation: a traced horizontal whose
	// endpoints jitter a pixel across the axis stays in bin 0 instead of
	// splitting between the first and last bins.
	binWidth := 180.0 / float64(OrientationBins)
	var total float64
	for _, s := range segments {
		bin := int((s.angleDegrees+binWidth/2)/binWidth) % OrientationBins
		out[bin] += s.length
		total += s.length
	}

	for i := range out {
		out[i] /= total
	}
	return out
}

// textCoverageGrid returns the fraction of each TextGridSize x
// TextGridSize cell covered by likely text blocks, row-major.
func textCoverageGrid(edges [][]bool, width, height int) []float64 {
	mask := textMask(edges, width, height)
	out := make([]float64, 0, TextGridSize*TextGridSize)

	for gy := 0; gy < TextGridSize; gy++ {
		for gx := 0; gx < TextGridSize; gx++ {
			x0 := gx * width / TextGridSize
			x1 := (gx + 1) * width / TextGridSize
			y0 := gy * height / TextGridSize
			y1 := (gy + 1) * height / TextGridSize

			count := 0
			for y := y0; y < y1; y++ {
				for x := x0; x < x1; x++ {
					if mask[y][x] {
						count++
					}
				}
			}

			area := (x1 - x0) * (y1 - y0)
			if area == 0 {
				out = append(out, 0)
				continue
			}
			out = append(out, float64(count)/float64(area))
		}
	}

	return out
}
