package enhance

import (
	"image"
	"image/color"
	"math"
)

// claheLuminance performs clip-limited adaptive histogram equalization on
// the luminance channel only, leaving chroma untouched so no color noise
// is introduced on color scans.
//
// The image is divided into a gridSize x gridSize tile grid. Each tile gets
// its own equalization mapping built from a histogram clipped at
// clipLimit times the uniform bin height, with the clipped excess
// redistributed evenly. Per-pixel values are bilinearly interpolated
// between the four surrounding tile mappings to avoid visible tile seams.
func claheLuminance(img image.Image, clipLimit float64, gridSize int) *image.RGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width == 0 || height == 0 {
		return image.NewRGBA(bounds)
	}
	if gridSize < 1 {
		gridSize = 1
	}
	if gridSize > width {
		gridSize = width
	}
	if gridSize > height {
		gridSize = height
	}

	// Luminance plane, ITU-R BT.601 weights.
	lum := make([]uint8, width*height)
	src := image.NewRGBA(bounds)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			r, g, b, a := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			r8 := uint8(r >> 8)
			g8 := uint8(g >> 8)
			b8 := uint8(b >> 8)
			src.SetRGBA(x+bounds.Min.X, y+bounds.Min.Y, color.RGBA{r8, g8, b8, uint8(a >> 8)})
			lum[y*width+x] = uint8(math.Round(0.299*float64(r8) + 0.587*float64(g8) + 0.114*float64(b8)))
		}
	}

	tileW := (width + gridSize - 1) / gridSize
	tileH := (height + gridSize - 1) / gridSize

	// One 256-entry mapping per tile.
	mappings := make([][256]uint8, gridSize*gridSize)
	for ty := 0; ty < gridSize; ty++ {
		for tx := 0; tx < gridSize; tx++ {
			x0 := tx * tileW
			y0 := ty * tileH
			x1 := minInt(x0+tileW, width)
			y1 := minInt(y0+tileH, height)
			mappings[ty*gridSize+tx] = tileMapping(lum, width, x0, y0, x1, y1, clipLimit)
		}
	}

	out := image.NewRGBA(bounds)
	for y := 0; y < height; y++ {
		// Position in tile-center space; clamp to the outer tile centers.
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty0 = clampInt(ty0, 0, gridSize-1)
		ty1 := clampInt(ty0+1, 0, gridSize-1)
		if fy < 0 {
			wy = 0
		}

		for x := 0; x < width; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx0 = clampInt(tx0, 0, gridSize-1)
			tx1 := clampInt(tx0+1, 0, gridSize-1)
			if fx < 0 {
				wx = 0
			}

			v := lum[y*width+x]
			m00 := float64(mappings[ty0*gridSize+tx0][v])
			m10 := float64(mappings[ty0*gridSize+tx1][v])
			m01 := float64(mappings[ty1*gridSize+tx0][v])
			m11 := float64(mappings[ty1*gridSize+tx1][v])

			top := m00*(1-wx) + m10*wx
			bot := m01*(1-wx) + m11*wx
			newY := top*(1-wy) + bot*wy

			px := src.RGBAAt(x+bounds.Min.X, y+bounds.Min.Y)
			if v == 0 {
				g := uint8(clampInt(int(math.Round(newY)), 0, 255))
				out.SetRGBA(x+bounds.Min.X, y+bounds.Min.Y, color.RGBA{g, g, g, px.A})
				continue
			}

			// Scale RGB by the luminance ratio to preserve hue.
			ratio := newY / float64(v)
			out.SetRGBA(x+bounds.Min.X, y+bounds.Min.Y, color.RGBA{
				R: scaleChannel(px.R, ratio),
				G: scaleChannel(px.G, ratio),
				B: scaleChannel(px.B, ratio),
				A: px.A,
			})
		}
	}

	return out
}

// tileMapping builds the clipped equalization lookup table for one tile.
func tileMapping(lum []uint8, stride, x0, y0, x1, y1 int, clipLimit float64) [256]uint8 {
	var hist [256]int
	pixels := 0
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[lum[y*stride+x]]++
			pixels++
		}
	}

	var mapping [256]uint8
	if pixels == 0 {
		for i := range mapping {
			mapping[i] = uint8(i)
		}
		return mapping
	}

	// Clip the histogram and spread the excess uniformly.
	limit := int(clipLimit * float64(pixels) / 256)
	if limit < 1 {
		limit = 1
	}
	excess := 0
	for i := range hist {
		if hist[i] > limit {
			excess += hist[i] - limit
			hist[i] = limit
		}
	}
	share := excess / 256
	remainder := excess % 256
	for i := range hist {
		hist[i] += share
		if i < remainder {
			hist[i]++
		}
	}

	cdf := 0
	for i := range hist {
		cdf += hist[i]
		mapping[i] = uint8(clampInt(int(math.Round(float64(cdf)*255/float64(pixels))), 0, 255))
	}
	return mapping
}

func scaleChannel(v uint8, ratio float64) uint8 {
	return uint8(clampInt(int(math.Round(float64(v)*ratio)), 0, 255))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
