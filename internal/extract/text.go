package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// invalidRuneRatio is the fraction of replacement runes above which a
// decode is treated as the wrong charset.
const invalidRuneRatio = 0.10

// decodeText interprets raw bytes as UTF-8, retrying as Windows-1252 when
// the result looks garbled. Legacy exports from desktop tools are the
// usual source of non-UTF-8 uploads.
func decodeText(data []byte) (string, error) {
	if len(data) == 0 {
		return "", nil
	}

	text := string(data)
	if looksValid(text) {
		return text, nil
	}

	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode text: %w", err)
	}
	return string(decoded), nil
}

// looksValid reports whether the decoded string is plausibly correct:
// non-blank and mostly free of invalid UTF-8 sequences.
func looksValid(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	var total, invalid int
	for _, r := range text {
		total++
		if r == utf8.RuneError {
			invalid++
		}
	}
	if total == 0 {
		return false
	}
	return float64(invalid)/float64(total) <= invalidRuneRatio
}
