package text

import (
	"regexp"
	"strings"
)

// EmptyResponseMessage is returned for blank webhook replies.
const EmptyResponseMessage = "I received an empty response. Please try again."

// IFormatter turns a raw reply body into display/speech-ready text.
type IFormatter interface {
	Format(raw string) string
}

// ResponseFormatter is the default IFormatter.
type ResponseFormatter struct{}

func (ResponseFormatter) Format(raw string) string {
	return FormatResponse(raw)
}

// FormatResponse extracts the reply message from raw and cleans it. It never
// fails: unknown shapes and malformed JSON degrade to best-effort text.
func FormatResponse(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return EmptyResponseMessage
	}

	text := raw
	if looksLikeJSON(trimmed) {
		if shape, err := decodeResponse(trimmed); err == nil {
			text = shape.message()
		}
	}

	return CleanHTMLAndFormatText(text)
}

func looksLikeJSON(s string) bool {
	switch s[0] {
	case '{', '[':
		return true
	}
	return false
}

var (
	responseLabelRegex = regexp.MustCompile(`^\s*Response:\s*`)
	// closing quote is optional so truncated payloads still yield the value
	outputFieldRegex = regexp.MustCompile(`"output"\s*:\s*"((?:[^"\\]|\\.)*)"?`)

	htmlBreakRegex       = regexp.MustCompile(`(?i)<br\s*/?>`)
	htmlParagraphRegex   = regexp.MustCompile(`(?i)</?p(?:\s[^>]*)?>`)
	htmlHeadingOpenRegex = regexp.MustCompile(`(?i)<h[1-6](?:\s[^>]*)?>`)
	htmlHeadingEndRegex  = regexp.MustCompile(`(?i)</h[1-6]>`)
	htmlListItemRegex    = regexp.MustCompile(`(?i)<li(?:\s[^>]*)?>`)
	htmlListEndRegex     = regexp.MustCompile(`(?i)</li>`)
	htmlEmphasisRegex    = regexp.MustCompile(`(?i)</?(?:b|strong|i|em)(?:\s[^>]*)?>`)
	htmlAnyTagRegex      = regexp.MustCompile(`<[^>]+>`)

	mdBoldStarRegex       = regexp.MustCompile(`\*\*(.+?)\*\*`)
	mdBoldUnderscoreRegex = regexp.MustCompile(`__(.+?)__`)
	mdItalicStarRegex     = regexp.MustCompile(`\*([^*\n]+)\*`)
	mdItalicUnderRegex    = regexp.MustCompile(`\b_([^_\n]+)_\b`)
	mdLinkRegex           = regexp.MustCompile(`\[([^\]]+)\]\([^)]*\)`)

	horizontalSpaceRegex = regexp.MustCompile(`[ \t\f\v]+`)
	spaceAroundLineRegex = regexp.MustCompile(` ?\n ?`)
	blankLinesRegex      = regexp.MustCompile(`\n{3,}`)
)

// CleanHTMLAndFormatText strips markup from a reply and normalizes its
// whitespace. The result has at most one consecutive blank line.
func CleanHTMLAndFormatText(text string) string {
	text = responseLabelRegex.ReplaceAllString(text, "")

	if strings.Contains(text, `"output"`) {
		if m := outputFieldRegex.FindStringSubmatch(text); m != nil {
			text = m[1]
		}
	}

	text = unescapeJSONFragments(text)
	text = strings.ReplaceAll(text, "\r\n", "\n")

	text = htmlBreakRegex.ReplaceAllString(text, "\n")
	text = htmlParagraphRegex.ReplaceAllString(text, "\n")
	text = htmlHeadingOpenRegex.ReplaceAllString(text, "\n\n")
	text = htmlHeadingEndRegex.ReplaceAllString(text, "\n")
	text = htmlListItemRegex.ReplaceAllString(text, "\n• ")
	text = htmlListEndRegex.ReplaceAllString(text, "")
	text = htmlEmphasisRegex.ReplaceAllString(text, "")
	text = htmlAnyTagRegex.ReplaceAllString(text, "")

	text = mdBoldStarRegex.ReplaceAllString(text, "$1")
	text = mdBoldUnderscoreRegex.ReplaceAllString(text, "$1")
	text = mdItalicStarRegex.ReplaceAllString(text, "$1")
	text = mdItalicUnderRegex.ReplaceAllString(text, "$1")
	text = mdLinkRegex.ReplaceAllString(text, "$1")

	text = horizontalSpaceRegex.ReplaceAllString(text, " ")
	text = spaceAroundLineRegex.ReplaceAllString(text, "\n")
	text = blankLinesRegex.ReplaceAllString(text, "\n\n")

	return strings.TrimSpace(text)
}

var jsonEscapeReplacer = strings.NewReplacer(`\n`, "\n", `\"`, `"`)

func unescapeJSONFragments(text string) string {
	return jsonEscapeReplacer.Replace(text)
}
