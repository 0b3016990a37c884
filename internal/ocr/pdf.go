package ocr

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PageTexter extracts the embedded text of a digital PDF, one string per page.
type PageTexter interface {
	Pages(ctx context.Context, data []byte) ([]string, error)
}

// PDFText reads embedded PDF text. Scanned PDFs without a text layer yield
// ErrNoText.
type PDFText struct{}

func (PDFText) Pages(ctx context.Context, data []byte) (pages []string, err error) {
	// the reader panics on some malformed content streams
	defer func() {
		if r := recover(); r != nil {
			pages, err = nil, fmt.Errorf("%w: %v", ErrInvalidPDF, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPDF, err)
	}

	var found bool

	for i := 1; i <= r.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		rows, err := p.GetTextByRow()
		if err != nil {
			return nil, fmt.Errorf("reading page %d: %w", i, err)
		}

		text := pageText(rows)
		if strings.TrimSpace(text) != "" {
			found = true
		}

		pages = append(pages, text)
	}

	if !found {
		return nil, ErrNoText
	}

	return pages, nil
}

// pageText lays out rows, turning wide horizontal gaps into column gaps so
// the line-item parser sees the same shape as in OCR output.
func pageText(rows pdf.Rows) string {
	var b strings.Builder

	for _, row := range rows {
		var prev *pdf.Text

		for i := range row.Content {
			w := &row.Content[i]

			if prev != nil {
				gap := w.X - (prev.X + prev.W)

				switch {
				case gap > prev.FontSize*1.5:
					b.WriteString("  ")
				case gap > prev.FontSize*0.2:
					b.WriteByte(' ')
				}
			}

			b.WriteString(w.S)
			prev = w
		}

		b.WriteByte('\n')
	}

	return b.String()
}
