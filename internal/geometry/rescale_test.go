package geometry

import (
	"image/color"
	"testing"
)

func TestRescaleValidToExactTarget(t *testing.T) {
	// ~211.7 x 299.6mm at 300 DPI: inside tolerance but not the exact
	// A4 pixel size.
	img := createTestImage(2500, 3538, color.White)
	v := newA4Validator()
	paper := PaperFormat{WidthMM: 210, HeightMM: 297, ToleranceMM: 5}

	report := v.Validate(img, 300)
	if !report.IsValid {
		t.Fatalf("expected valid geometry, got %+v", report)
	}

	out := Rescale(img, report, paper)
	b := out.Bounds()
	if b.Dx() != 2480 || b.Dy() != 3508 {
		t.Errorf("rescaled size: got %dx%d, want 2480x3508", b.Dx(), b.Dy())
	}
}

func TestRescaleUnityIsPassThrough(t *testing.T) {
	img := createTestImage(100, 140, color.White)
	paper := PaperFormat{WidthMM: 210, HeightMM: 297, ToleranceMM: 5}
	report := &Report{IsValid: false, ScaleFactor: 1.0, Orientation: Portrait}

	out := Rescale(img, report, paper)
	if out != img {
		t.Errorf("expected the input image back for scale factor 1.0")
	}
}

func TestRescaleBestEffort(t *testing.T) {
	img := createTestImage(1000, 1400, color.White)
	paper := PaperFormat{WidthMM: 210, HeightMM: 297, ToleranceMM: 5}
	report := &Report{IsValid: false, ScaleFactor: 2.0, Orientation: Portrait}

	out := Rescale(img, report, paper)
	b := out.Bounds()
	if b.Dx() != 2000 || b.Dy() != 2800 {
		t.Errorf("rescaled size: got %dx%d, want 2000x2800", b.Dx(), b.Dy())
	}
}
