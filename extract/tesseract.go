package extract

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/otiai10/gosseract/v2"
)

// ocrText rasterizes each page with pdftoppm and recognizes the page images
// with a single gosseract client. Every artifact lives inside one temp
// directory that is removed on all exit paths; cleanup errors are logged
// and never mask the extraction result.
func ocrText(ctx context.Context, pdfBytes []byte, filename, language string) (string, error) {
	tmpDir, err := os.MkdirTemp("", "jinv-ocr-"+uuid.NewString()[:8])
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			log.Printf("WARN: failed to remove OCR temp dir %s: %v", tmpDir, err)
		}
	}()

	pdfPath := filepath.Join(tmpDir, "memo.pdf")
	if err := os.WriteFile(pdfPath, pdfBytes, 0644); err != nil {
		return "", fmt.Errorf("write temp pdf: %w", err)
	}

	pagePrefix := filepath.Join(tmpDir, "page")
	cmd := exec.CommandContext(ctx, "pdftoppm", "-r", "300", "-png", pdfPath, pagePrefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("rasterize %s: %v (%s)", filename, err, strings.TrimSpace(string(out)))
	}

	pages, err := filepath.Glob(pagePrefix + "*.png")
	if err != nil {
		return "", fmt.Errorf("glob page images: %w", err)
	}
	if len(pages) == 0 {
		return "", fmt.Errorf("no pages rendered from %s", filename)
	}
	sort.Strings(pages)

	if language == "" {
		language = "eng"
	}

	client := gosseract.NewClient()
	defer client.Close()
	if err := client.SetLanguage(language); err != nil {
		return "", fmt.Errorf("set OCR language %q: %w", language, err)
	}

	var sb strings.Builder
	for _, page := range pages {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}
		if err := client.SetImage(page); err != nil {
			return "", fmt.Errorf("set page image %s: %w", filepath.Base(page), err)
		}
		text, err := client.Text()
		if err != nil {
			return "", fmt.Errorf("recognize %s: %w", filepath.Base(page), err)
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	return sb.String(), nil
}
