// Package vision defines the contract with the external
// document-understanding service that turns a normalized drawing into
// field/value pairs. The service itself is a black box; this package owns
// the request/response types, the typed extraction records, and the
// transient-versus-permanent error distinction callers use to decide
// between retrying and abandoning.
package vision

import (
	"context"
	"errors"
	"fmt"
)

// FieldDescriptor names a field a template or caller expects the service
// to extract.
type FieldDescriptor struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name,omitempty"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ExtractionSchema is the ordered list of expected field descriptors.
type ExtractionSchema []FieldDescriptor

// GenericSchema is the schema used when no layout template matched the
// drawing. The field set mirrors the title-block entries found on most
// mechanical part drawings.
func GenericSchema() ExtractionSchema {
	return ExtractionSchema{
		{Name: "part_number", DisplayName: "Part number", Required: true},
		{Name: "product_name", DisplayName: "Product name"},
		{Name: "material", DisplayName: "Material"},
		{Name: "dimensions", DisplayName: "Dimensions"},
		{Name: "weight", DisplayName: "Weight"},
		{Name: "surface_finish", DisplayName: "Surface finish"},
		{Name: "tolerance_grade", DisplayName: "Tolerance grade"},
		{Name: "drawing_number", DisplayName: "Drawing number", Required: true},
	}
}

// FieldValue is one extracted field. It is a fixed, explicitly typed
// record rather than an open-ended mapping so downstream consumers get
// compile-time guarantees about its shape.
type FieldValue struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"` // [0,1]
	Provenance string  `json:"provenance"` // extractor that produced the value
}

// Request carries a normalized page to the service.
type Request struct {
	// ImagePNG is the PNG-encoded normalized image.
	ImagePNG []byte `json:"image_png"`

	// Schema lists the expected fields. Empty means the service decides.
	Schema ExtractionSchema `json:"schema,omitempty"`
}

// Result is the service's answer.
type Result struct {
	Fields []FieldValue `json:"fields"`
}

// Extractor is the vision-understanding collaborator. Implementations
// must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, req *Request) (*Result, error)
}

// TransientError wraps failures worth retrying: timeouts, connection
// resets, service overload. Anything else is permanent.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("transient extraction failure: %v", e.Err)
}

func (e *TransientError) Unwrap() error { return e.Err }

// IsTransient reports whether the error chain contains a TransientError.
func IsTransient(err error) bool {
	var te *TransientError
	return errors.As(err, &te)
}
