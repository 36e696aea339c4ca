package tts

import (
	"fmt"
	"regexp"
	"strings"
)

// DefaultAbbreviations is the built-in list of abbreviations masked
// before sentence splitting so their trailing period isn't mistaken for
// a sentence boundary, alongside digit.digit decimals. Callers that want
// a different list (wired through GatewayConfig's AbbreviationList)
// should use SplitSentencesWith instead of SplitSentences.
var DefaultAbbreviations = []string{
	"Mr.", "Mrs.", "Dr.", "Ms.", "Prof.", "Sr.", "Jr.", "St.",
	"vs.", "etc.", "e.g.", "i.e.", "Inc.", "Ltd.", "Co.", "Gov.",
	"Capt.", "Gen.", "Col.", "Lt.", "Sgt.", "No.", "Fig.", "U.S.", "U.K.",
}

var decimalPattern = regexp.MustCompile(`\d\.\d`)

// sentenceBoundary matches `[.!?]` followed by whitespace; the character
// after the whitespace is not examined.
var sentenceBoundary = regexp.MustCompile(`([.!?])(\s+)`)

const maskToken = "\x00MASK%d\x00"

// PreprocessText strips non-printable control characters (keeping \n,
// \r, \t), normalizes CRLF to LF, expands the "(e.g., " typo to
// "(e.g. ", collapses runs of whitespace within each line to a single
// space while keeping line breaks, and trims the result.
func PreprocessText(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\r' || r == '\t' || r >= 0x20 {
			b.WriteRune(r)
		}
	}
	text = b.String()

	text = strings.ReplaceAll(text, "(e.g., ", "(e.g. ")
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	text = strings.Join(lines, "\n")
	return strings.TrimSpace(text)
}

// SplitSentences masks the built-in abbreviation list and decimals,
// splits on sentence boundaries, restores the masked text, and drops
// any empty sentences.
func SplitSentences(text string) []string {
	return SplitSentencesWith(text, DefaultAbbreviations)
}

// SplitSentencesWith is SplitSentences parameterized on the
// abbreviation list, so a deployment can extend or replace the default
// set via GatewayConfig.AbbreviationList without touching code.
func SplitSentencesWith(text string, abbreviations []string) []string {
	masked, unmask := maskBoundaries(text, abbreviations)

	parts := sentenceBoundary.Split(masked, -1)
	seps := sentenceBoundary.FindAllStringSubmatch(masked, -1)

	var sentences []string
	for i, part := range parts {
		s := part
		if i < len(seps) {
			s += seps[i][1]
		}
		s = unmask(s)
		s = strings.TrimSpace(s)
		if s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

// maskBoundaries replaces every abbreviation and decimal occurrence
// with a placeholder token that contains no '.', '!' or '?', returning
// a function that restores the originals in a split fragment.
func maskBoundaries(text string, abbreviations []string) (string, func(string) string) {
	var originals []string

	mask := func(s string) string {
		idx := len(originals)
		originals = append(originals, s)
		return fmt.Sprintf(maskToken, idx)
	}

	masked := decimalPattern.ReplaceAllStringFunc(text, mask)
	for _, abbr := range abbreviations {
		masked = strings.ReplaceAll(masked, abbr, mask(abbr))
	}

	unmask := func(fragment string) string {
		for i, orig := range originals {
			fragment = strings.ReplaceAll(fragment, fmt.Sprintf(maskToken, i), orig)
		}
		return fragment
	}
	return masked, unmask
}
