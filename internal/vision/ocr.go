//go:build !cgo

package vision

import (
	"context"
	"errors"
)

// OCRExtractor is a local fallback extractor backed by Tesseract. This
// build was compiled without cgo, so it always reports a permanent error.
type OCRExtractor struct {
	language string
}

// NewOCRExtractor creates the fallback extractor for the given Tesseract
// language code (e.g. "eng").
func NewOCRExtractor(language string) *OCRExtractor {
	return &OCRExtractor{language: language}
}

// Available reports whether local OCR is usable in this build.
func (e *OCRExtractor) Available() bool { return false }

// Extract implements Extractor.
func (e *OCRExtractor) Extract(ctx context.Context, req *Request) (*Result, error) {
	return nil, errors.New("local OCR not available: built without cgo")
}
