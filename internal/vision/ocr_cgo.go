//go:build cgo

package vision

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"
)

// OCRExtractor is a local fallback extractor backed by Tesseract. It does
// not understand drawing semantics; it returns the raw recognized text as
// a single field so downstream consumers can still index unmatched
// drawings when the remote vision service is unreachable.
type OCRExtractor struct {
	language string
}

// NewOCRExtractor creates the fallback extractor for the given Tesseract
// language code (e.g. "eng").
func NewOCRExtractor(language string) *OCRExtractor {
	return &OCRExtractor{language: language}
}

// Available reports whether local OCR is usable in this build.
func (e *OCRExtractor) Available() bool { return true }

// Extract implements Extractor. OCR failures are permanent: retrying the
// same image locally cannot produce a different outcome.
func (e *OCRExtractor) Extract(ctx context.Context, req *Request) (*Result, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return nil, fmt.Errorf("failed to set OCR language: %w", err)
	}
	if err := client.SetImageFromBytes(req.ImagePNG); err != nil {
		return nil, fmt.Errorf("failed to set OCR image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return nil, fmt.Errorf("OCR failed: %w", err)
	}

	return &Result{
		Fields: []FieldValue{{
			Name:       "raw_text",
			Value:      strings.TrimSpace(text),
			Confidence: 0,
			Provenance: "ocr",
		}},
	}, nil
}
