// Package ocr turns scanned images and digital PDFs into raw text.
package ocr

import "context"

// Result is the text of one image and the engine's mean word confidence
// between 0 and 100.
type Result struct {
	Text       string
	Confidence float64
}

// Recognizer reads the text of one image.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (Result, error)
}
