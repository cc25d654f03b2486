// Package extract turns a memo PDF's bytes into plain text. Digital PDFs
// are read directly; scanned ones are rasterized and run through Tesseract.
package extract

import (
	"context"
	"fmt"
	"log"
	"strings"
)

// TextExtractor is the boundary the upload flow depends on. Implementations
// must clean up any transient artifacts they create on every exit path.
type TextExtractor interface {
	ExtractText(ctx context.Context, pdfBytes []byte, filename string) (string, error)
}

// OCRFailure wraps any extraction provider error. The detail is surfaced to
// the operator verbatim and never retried.
type OCRFailure struct {
	Filename string
	Err      error
}

func (e *OCRFailure) Error() string {
	return fmt.Sprintf("OCR failed for %s: %v", e.Filename, e.Err)
}

func (e *OCRFailure) Unwrap() error { return e.Err }

// PDFTextExtractor extracts embedded text when the PDF has a text layer and
// falls back to Tesseract OCR for scanned documents.
type PDFTextExtractor struct {
	// Language is the Tesseract language code. Empty means "eng".
	Language string
}

func (x *PDFTextExtractor) ExtractText(ctx context.Context, pdfBytes []byte, filename string) (string, error) {
	if len(pdfBytes) == 0 {
		return "", &OCRFailure{Filename: filename, Err: fmt.Errorf("empty file")}
	}

	text, err := embeddedText(pdfBytes)
	if err != nil {
		log.Printf("WARN: embedded text extraction failed for %s, falling back to OCR: %v", filename, err)
	} else if strings.TrimSpace(text) != "" {
		return text, nil
	}

	recognized, err := ocrText(ctx, pdfBytes, filename, x.Language)
	if err != nil {
		return "", &OCRFailure{Filename: filename, Err: err}
	}
	return recognized, nil
}
