package geometry

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// Rescale resizes the image according to the report's corrective scale
// factor. When the report marks the page valid, it targets the exact pixel
// dimensions of the paper format at the inferred resolution; otherwise both
// axes are scaled uniformly (best effort).
//
// A scale factor of exactly 1.0, or one whose rounded pixel dimensions
// equal the current ones, returns the input unchanged.
func Rescale(img image.Image, report *Report, paper PaperFormat) image.Image {
	bounds := img.Bounds()
	curW, curH := bounds.Dx(), bounds.Dy()

	var newW, newH int
	if report.IsValid {
		newW, newH = paper.PixelSize(report.InferredDPI, report.Orientation)
	} else {
		newW = int(math.Round(float64(curW) * report.ScaleFactor))
		newH = int(math.Round(float64(curH) * report.ScaleFactor))
	}

	if report.ScaleFactor == 1.0 || (newW == curW && newH == curH) {
		return img
	}
	if newW < 1 || newH < 1 {
		return img
	}

	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}
