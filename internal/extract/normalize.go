package extract

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText canonicalizes text for content comparison: Unicode NFKC
// normalization, lowercasing, punctuation stripped, and whitespace
// collapsed to single spaces. Two renderings of the same words produce
// the same normalized form.
func NormalizeText(text string) string {
	text = norm.NFKC.String(text)
	text = strings.ToLower(text)

	var b strings.Builder
	b.Grow(len(text))
	lastSpace := true
	for _, r := range text {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			b.WriteRune(r)
			lastSpace = false
		case unicode.IsSpace(r) || unicode.IsPunct(r) || unicode.IsSymbol(r):
			if !lastSpace {
				b.WriteRune(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// ContentFingerprint returns the hex SHA-256 of the normalized text.
// The duplicate-content guard compares fingerprints, so cosmetic
// differences between pages do not mask real duplication.
func ContentFingerprint(text string) string {
	sum := sha256.Sum256([]byte(NormalizeText(text)))
	return hex.EncodeToString(sum[:])
}
