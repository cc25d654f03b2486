package parsers

import (
	"strings"

	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// NormalizeOCRText folds full-width characters to their ASCII forms and
// normalizes line endings. OCR of scanned memos regularly yields full-width
// digits ("３") which would otherwise defeat the quantity regex.
func NormalizeOCRText(s string) string {
	folded, _, err := transform.String(width.Fold, s)
	if err != nil {
		folded = s
	}
	return strings.ReplaceAll(folded, "\r\n", "\n")
}
