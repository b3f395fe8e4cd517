// Package normalize implements the text-boundary conversion between raw
// corpus/input lines and the code-point sequences the core model operates
// on. Unicode-correct casefolding and NFC composition are delegated to golang.org/x/text rather than hand-rolled (spec.md's
// Non-goals exclude building a correct normalizer, not using a library
// one); this package only owns the ldig-specific sentinel substitutions.
package normalize

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// LineFeedSentinel marks text boundaries; reserved, permitted only at the
// endpoints of a feature (spec.md §4.1, GLOSSARY).
const LineFeedSentinel rune = 0x0001

var caseFolder = cases.Fold()

// Text performs the NFC + casefold boundary normalization on a raw line and
// wraps it with the line-feed sentinel, mirroring ldig.cpp's
//
//	normalize(text, line); text = "\x01" + text + "\x01";
func Text(raw string) []rune {
	folded := caseFolder.String(norm.NFC.String(raw))
	folded = strings.ReplaceAll(folded, "\n", string(LineFeedSentinel))
	folded = strings.ReplaceAll(folded, "\t", " ")

	runes := make([]rune, 0, len(folded)+2)
	runes = append(runes, LineFeedSentinel)
	runes = append(runes, []rune(folded)...)
	runes = append(runes, LineFeedSentinel)
	return runes
}
