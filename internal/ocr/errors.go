package ocr

import (
	"fmt"

	"github.com/MrJamesThe3rd/stockscan/internal/invoice"
)

var (
	// ErrNoText is returned when the engine ran but found nothing readable.
	ErrNoText = fmt.Errorf("no text found: %w", invoice.ErrUnreadable)

	// ErrEngineUnavailable is returned when the OCR engine cannot be used at all.
	ErrEngineUnavailable = fmt.Errorf("ocr engine unavailable: %w", invoice.ErrCollaborator)

	// ErrInvalidPDF is returned when a PDF cannot be opened.
	ErrInvalidPDF = fmt.Errorf("invalid or corrupted pdf: %w", invoice.ErrUnreadable)
)
