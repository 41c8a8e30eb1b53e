package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
)

var (
	styleBlockRe = regexp.MustCompile(`(?is)<style\b[^>]*>.*?</style\s*>`)
	spaceRe      = regexp.MustCompile(`\s+`)
)

// StripHTML drops style and script blocks and all tags, turns &nbsp; into a
// space and collapses whitespace.
func StripHTML(html string) string {
	s := styleBlockRe.ReplaceAllString(html, " ")
	s = scriptBlockRe.ReplaceAllString(s, " ")
	s = anyTagRe.ReplaceAllString(s, " ")
	s = nbspRe.ReplaceAllString(s, " ")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Truncate keeps the first limit runes of s and appends "..." when it cut.
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// ToMarkdown converts an HTML fragment to Markdown, keeping headings, lists and
// link text while dropping markup noise.
func ToMarkdown(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", nil
	}
	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", fmt.Errorf("convert to markdown: %w", err)
	}
	return strings.TrimSpace(md), nil
}
