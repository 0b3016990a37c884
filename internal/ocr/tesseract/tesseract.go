// Package tesseract implements ocr.Recognizer on top of a local Tesseract
// installation. It needs cgo and the tesseract headers, so it is kept apart
// from the engine independent ocr package.
package tesseract

import (
	"context"
	"fmt"
	"strings"

	"github.com/otiai10/gosseract/v2"

	"github.com/MrJamesThe3rd/stockscan/internal/ocr"
)

// Engine recognizes text with a local Tesseract installation.
type Engine struct {
	languages      []string
	tessdataPrefix string
}

// New creates a recognizer. languages is a "+" separated list
// such as "eng+sqi".
func New(languages, tessdataPrefix string) *Engine {
	var langs []string

	for _, l := range strings.Split(languages, "+") {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}

	if len(langs) == 0 {
		langs = []string{"eng"}
	}

	return &Engine{languages: langs, tessdataPrefix: tessdataPrefix}
}

func (t *Engine) Recognize(ctx context.Context, image []byte) (ocr.Result, error) {
	if err := ctx.Err(); err != nil {
		return ocr.Result{}, err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if t.tessdataPrefix != "" {
		if err := client.SetTessdataPrefix(t.tessdataPrefix); err != nil {
			return ocr.Result{}, fmt.Errorf("setting tessdata prefix: %w: %v", ocr.ErrEngineUnavailable, err)
		}
	}

	if err := client.SetLanguage(t.languages...); err != nil {
		return ocr.Result{}, fmt.Errorf("setting language: %w: %v", ocr.ErrEngineUnavailable, err)
	}

	if err := client.SetImageFromBytes(image); err != nil {
		return ocr.Result{}, fmt.Errorf("setting image: %w: %v", ocr.ErrNoText, err)
	}

	text, err := client.Text()
	if err != nil {
		return ocr.Result{}, fmt.Errorf("extracting text: %w: %v", ocr.ErrEngineUnavailable, err)
	}

	if strings.TrimSpace(text) == "" {
		return ocr.Result{}, ocr.ErrNoText
	}

	return ocr.Result{Text: text, Confidence: meanConfidence(client)}, nil
}

func meanConfidence(client *gosseract.Client) float64 {
	boxes, err := client.GetBoundingBoxes(gosseract.RIL_WORD)
	if err != nil || len(boxes) == 0 {
		return 0
	}

	var total float64
	for _, box := range boxes {
		total += box.Confidence
	}

	return total / float64(len(boxes))
}
