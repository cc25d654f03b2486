package parsers

import (
	"regexp"
	"strconv"
	"strings"

	"jinv/model"
)

// Catalog grammar for item codes: two-letter shape prefix, size digit 2-8,
// metal color Y/W, 14K marker, optional numbered finish suffix. Matches are
// normalized to uppercase. Exported so the grammar can be tested on its own.
var ItemCodeRE = regexp.MustCompile(`(?i)\b(?:BR|BS|GB)[2-8][YW]-14K(?:-(?:1|2|3|4))?\b`)

// MemoNoRE captures the printed memo number: "Memo", optional "#", optional
// ":" or "-" separator, then a run of letters/digits/hyphens.
var MemoNoRE = regexp.MustCompile(`(?i)\bMemo\s*#?\s*[:\-]?\s*([A-Z0-9\-]+)\b`)

var digitRunRE = regexp.MustCompile(`\b(\d+)\b`)

// MaxQuantity bounds a single line's quantity; larger values are treated as
// OCR noise and the line is skipped.
const MaxQuantity = 999

// ParseMemoText turns raw OCR text into a memo number (empty when not
// detected) and a mapping of item code to summed quantity. The per-line
// extraction is a greedy single-pass heuristic, not a column-aware table
// parser: after the item code is excised from the line, the first remaining
// standalone digit run is taken as the quantity.
func ParseMemoText(text string) model.ParsedMemo {
	text = NormalizeOCRText(text)

	parsed := model.ParsedMemo{Items: make(map[string]int)}

	if m := MemoNoRE.FindStringSubmatch(text); m != nil {
		parsed.MemoNo = strings.ToUpper(strings.TrimSpace(m[1]))
	}

	for _, ln := range strings.Split(text, "\n") {
		ln = strings.TrimSpace(ln)
		if ln == "" {
			continue
		}

		upper := strings.ToUpper(ln)
		if strings.Contains(upper, "SHIPPING") || strings.Contains(upper, "INSURANCE") {
			continue
		}

		loc := ItemCodeRE.FindStringIndex(ln)
		if loc == nil {
			continue
		}
		code := strings.ToUpper(ln[loc[0]:loc[1]])

		// Quantity search runs on the line minus the code itself, so the
		// size digit or finish suffix is never read as the quantity.
		rest := ln[:loc[0]] + " " + ln[loc[1]:]
		qm := digitRunRE.FindString(rest)
		if qm == "" {
			continue
		}

		qty, err := strconv.Atoi(qm)
		if err != nil || qty <= 0 || qty > MaxQuantity {
			continue
		}

		parsed.Items[code] += qty
	}

	return parsed
}
