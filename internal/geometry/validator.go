// Package geometry measures the physical size of scanned pages and
// classifies them against a target paper format.
//
// All physical dimensions are expressed in millimeters. Pixel dimensions
// are converted using the scan resolution in dots per inch; a resolution
// hint outside the configured band is replaced with the standard reference
// value rather than rejected, so a report is always produced.
//
// A page that does not match the target format is a normal, reported
// outcome (IsValid=false), never an error.
package geometry

import (
	"image"
	"math"
)

const mmPerInch = 25.4

// Orientation classifies how a page maps onto the target paper format.
type Orientation string

const (
	Portrait  Orientation = "portrait"
	Landscape Orientation = "landscape"
	// Unknown is reported only when the measured page is square, leaving
	// no aspect preference between the two orientations.
	Unknown Orientation = "unknown"
)

// PaperFormat is a target paper size with an absolute match tolerance.
// Width and Height describe the portrait orientation.
type PaperFormat struct {
	WidthMM     float64 `json:"width_mm"`
	HeightMM    float64 `json:"height_mm"`
	ToleranceMM float64 `json:"tolerance_mm"`
}

// AspectRatio returns the portrait width/height ratio.
func (f PaperFormat) AspectRatio() float64 {
	return f.WidthMM / f.HeightMM
}

// PixelSize returns the exact pixel dimensions of the format at the given
// resolution and orientation.
func (f PaperFormat) PixelSize(dpi int, o Orientation) (width, height int) {
	w := int(math.Round(f.WidthMM * float64(dpi) / mmPerInch))
	h := int(math.Round(f.HeightMM * float64(dpi) / mmPerInch))
	if o == Landscape {
		return h, w
	}
	return w, h
}

// DPIBand is the acceptable resolution range. Hints outside [Min, Max]
// are clamped to Standard before measurement.
type DPIBand struct {
	Min      int `json:"min"`
	Max      int `json:"max"`
	Standard int `json:"standard"`
}

// Report is the outcome of comparing a page's measured physical
// dimensions against the target paper format.
type Report struct {
	MeasuredWidthMM  float64     `json:"measured_width_mm"`
	MeasuredHeightMM float64     `json:"measured_height_mm"`
	InferredDPI      int         `json:"inferred_dpi"`
	Orientation      Orientation `json:"orientation"`
	IsValid          bool        `json:"is_valid"`

	// ScaleFactor brings the page to the exact target dimensions when
	// IsValid, or toward the closest orientation otherwise (best effort).
	// Always > 0.
	ScaleFactor float64 `json:"scale_factor"`

	// QualityScore is a [0,1] contrast/sharpness estimate of the scan.
	// Informational only; it never affects validity.
	QualityScore float64 `json:"quality_score"`
}

// Validator measures images against a fixed paper format.
type Validator struct {
	paper PaperFormat
	dpi   DPIBand
}

// NewValidator creates a validator for the given format and DPI band.
// Range checking of the inputs happens at pipeline construction.
func NewValidator(paper PaperFormat, dpi DPIBand) *Validator {
	return &Validator{paper: paper, dpi: dpi}
}

// Validate measures the image under the given resolution hint and
// classifies it against the target format.
//
// A dpiHint of 0 means "not reported". Hints outside the configured band
// are replaced with the standard reference resolution; the report's
// InferredDPI is the resolution actually used.
func (v *Validator) Validate(img image.Image, dpiHint int) *Report {
	bounds := img.Bounds()
	widthPx := float64(bounds.Dx())
	heightPx := float64(bounds.Dy())

	dpi := dpiHint
	if dpi < v.dpi.Min || dpi > v.dpi.Max {
		dpi = v.dpi.Standard
	}

	widthMM := widthPx * mmPerInch / float64(dpi)
	heightMM := heightPx * mmPerInch / float64(dpi)

	report := &Report{
		MeasuredWidthMM:  widthMM,
		MeasuredHeightMM: heightMM,
		InferredDPI:      dpi,
		QualityScore:     qualityScore(img),
	}

	tol := v.paper.ToleranceMM

	// Both dimensions must be within tolerance simultaneously for an
	// orientation to count as valid.
	portraitOK := math.Abs(widthMM-v.paper.WidthMM) <= tol &&
		math.Abs(heightMM-v.paper.HeightMM) <= tol
	landscapeOK := math.Abs(widthMM-v.paper.HeightMM) <= tol &&
		math.Abs(heightMM-v.paper.WidthMM) <= tol

	switch {
	case portraitOK:
		report.IsValid = true
		report.Orientation = Portrait
		report.ScaleFactor = v.paper.WidthMM / widthMM
	case landscapeOK:
		report.IsValid = true
		report.Orientation = Landscape
		report.ScaleFactor = v.paper.WidthMM / heightMM
	default:
		report.IsValid = false
		report.Orientation, report.ScaleFactor = v.bestEffort(widthMM, heightMM)
	}

	return report
}

// bestEffort picks the orientation whose aspect ratio is numerically
// closer to the target's and computes a corrective scale on the axis with
// the larger mismatch, so callers can still attempt normalization.
func (v *Validator) bestEffort(widthMM, heightMM float64) (Orientation, float64) {
	target := v.paper.AspectRatio()
	portraitDiff := math.Abs(widthMM/heightMM - target)
	landscapeDiff := math.Abs(heightMM/widthMM - target)

	if portraitDiff == landscapeDiff {
		// Square page: no orientation preference. Scale off the width.
		return Unknown, v.paper.WidthMM / widthMM
	}

	if portraitDiff < landscapeDiff {
		if math.Abs(widthMM-v.paper.WidthMM) >= math.Abs(heightMM-v.paper.HeightMM) {
			return Portrait, v.paper.WidthMM / widthMM
		}
		return Portrait, v.paper.HeightMM / heightMM
	}

	if math.Abs(widthMM-v.paper.HeightMM) >= math.Abs(heightMM-v.paper.WidthMM) {
		return Landscape, v.paper.HeightMM / widthMM
	}
	return Landscape, v.paper.WidthMM / heightMM
}
