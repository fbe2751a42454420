// Package ocr declares the OCR collaborator contract. OCR is external
// to this system (spec §1 Non-goals): this package only specifies the
// interface the /ocr_upload handler depends on, letting any concrete
// engine be wired in without the handler knowing which one.
package ocr

import "context"

// Result is the text an OCR engine recovered from an image.
type Result struct {
	Text       string
	Confidence float64
}

// Engine extracts text from image bytes.
type Engine interface {
	Extract(ctx context.Context, image []byte, contentType string) (Result, error)
}
