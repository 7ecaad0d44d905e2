package text

import (
	"regexp"
	"strings"
	"unicode"
)

// NormalizeForSpeech removes markup that a synthesizer would read aloud and
// collapses the result onto a single line.
func NormalizeForSpeech(text string) string {
	text = headingMarkerRegex.ReplaceAllString(text, "")
	text = horizontalRuleRegex.ReplaceAllString(text, " ")
	text = boldRunRegex.ReplaceAllString(text, "")
	// a bare "..." would otherwise suppress the sentence boundary
	text = ellipsisRegex.ReplaceAllString(text, ".")
	text = htmlAnyTagRegex.ReplaceAllString(text, "")
	text = emphasisPunctRegex.ReplaceAllString(text, "")
	text = emojiRegex.ReplaceAllString(text, "")
	text = multipleSpacesRegex.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// SplitSentences splits text after runs of '.', '!' or '?' that are followed
// by whitespace or the end of the text. Punctuation stays with the sentence
// it ends. Text without a boundary is returned as a single chunk.
func SplitSentences(text string) []string {
	runes := []rune(text)
	var (
		chunks []string
		start  int
	)

	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}
		end := i + 1
		for end < len(runes) && isTerminal(runes[end]) {
			end++
		}
		i = end - 1
		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}
		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		start = end
	}

	if tail := strings.TrimSpace(string(runes[start:])); tail != "" {
		chunks = append(chunks, tail)
	}
	return chunks
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

var (
	headingMarkerRegex  = regexp.MustCompile(`(?m)^[ \t]*#{1,6}[ \t]*`)
	horizontalRuleRegex = regexp.MustCompile(`(?m)^[ \t]*(?:[-*_][ \t]*){3,}$`)
	boldRunRegex        = regexp.MustCompile(`\*{2,}|_{2,}`)
	ellipsisRegex       = regexp.MustCompile(`\.{2,}|…`)
	emphasisPunctRegex  = regexp.MustCompile("[*`~\"“”„«»]")
	emojiRegex          = regexp.MustCompile(`[\x{1F000}-\x{1FAFF}\x{2600}-\x{27BF}\x{FE0F}\x{200D}]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)
