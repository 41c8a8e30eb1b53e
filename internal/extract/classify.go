package extract

import (
	"regexp"
	"strings"
)

var (
	noscriptJSRe = regexp.MustCompile(`(?is)<noscript[^>]*>.*?javascript.*?</noscript>`)

	jsHintRes = []*regexp.Regexp{
		regexp.MustCompile(`needs\s+javascript`),
		regexp.MustCompile(`requires\s+javascript`),
		regexp.MustCompile(`enable\s+javascript`),
		regexp.MustCompile(`please\s+turn\s+on\s+javascript`),
	}

	anyTagRe = regexp.MustCompile(`<[^>]+>`)
	nbspRe   = regexp.MustCompile(`(?i)&nbsp;`)
)

// NeedsRender reports whether the page must be rendered in a browser before
// its content is usable: it is empty, asks for JavaScript in a <noscript>
// block or in its text, or has a body without visible text.
func NeedsRender(html string) bool {
	if strings.TrimSpace(html) == "" {
		return true
	}
	if noscriptJSRe.MatchString(html) {
		return true
	}
	lowered := strings.ToLower(html)
	for _, re := range jsHintRes {
		if re.MatchString(lowered) {
			return true
		}
	}
	return BodyLooksEmpty(html)
}

// BodyLooksEmpty reports whether the first <body> section is missing or has
// no text left once tags and &nbsp; are removed.
func BodyLooksEmpty(html string) bool {
	body := ExtractSection(html, "body")
	if body == "" {
		return true
	}
	text := anyTagRe.ReplaceAllString(body, "")
	text = nbspRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text) == ""
}
