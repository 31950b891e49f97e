package geometry

import (
	"image"
	"math"

	"github.com/disintegration/imaging"
)

// qualityWorkingWidth bounds the sample size for the quality score so the
// cost stays flat regardless of scan resolution.
const qualityWorkingWidth = 512

// qualityScore estimates scan legibility in [0,1] from three grayscale
// statistics: contrast (intensity spread), sharpness (Laplacian response),
// and a noise penalty. The score is informational metadata on the report.
func qualityScore(img image.Image) float64 {
	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return 0
	}

	sample := img
	if bounds.Dx() > qualityWorkingWidth {
		sample = imaging.Resize(img, qualityWorkingWidth, 0, imaging.Lanczos)
	}
	gray := imaging.Grayscale(sample)

	b := gray.Bounds()
	w, h := b.Dx(), b.Dy()
	total := float64(w * h)

	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := float64(gray.NRGBAAt(x, y).R)
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / total
	stdDev := math.Sqrt(math.Max(0, sumSq/total-mean*mean))

	contrast := stdDev / 128

	// Sharpness: standard deviation of the 4-neighbor Laplacian.
	var lapSum, lapSumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := float64(gray.NRGBAAt(x, y).R)
			lap := float64(gray.NRGBAAt(x-1, y).R) +
				float64(gray.NRGBAAt(x+1, y).R) +
				float64(gray.NRGBAAt(x, y-1).R) +
				float64(gray.NRGBAAt(x, y+1).R) - 4*c
			lapSum += lap
			lapSumSq += lap * lap
		}
	}
	inner := float64((w - 2) * (h - 2))
	sharpness := 0.0
	if inner > 0 {
		lapMean := lapSum / inner
		sharpness = math.Sqrt(math.Max(0, lapSumSq/inner-lapMean*lapMean)) / 128
	}

	noise := 1.0 - stdDev/128

	score := (contrast + sharpness + noise) / 3
	return math.Min(math.Max(score, 0), 1)
}
