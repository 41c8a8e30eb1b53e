// Package extract holds the regex and DOM helpers that turn raw page HTML into
// the fragments and text handed to the language model.
package extract

import (
	"regexp"
	"strings"
)

var (
	scriptBlockRe = regexp.MustCompile(`(?is)<script\b[^>]*>.*?</script\s*>`)
	scriptTagRe   = regexp.MustCompile(`(?i)</?script\b[^>]*>`)

	eventHandlerQuotedRe   = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*("[^"]*"|'[^']*')`)
	eventHandlerUnquotedRe = regexp.MustCompile(`(?i)\son[a-z]+\s*=\s*[^\s"'>]+`)

	jsURLQuotedRe   = regexp.MustCompile(`(?i)\b(href|src)\s*=\s*("\s*javascript:[^"]*"|'\s*javascript:[^']*')`)
	jsURLUnquotedRe = regexp.MustCompile(`(?i)\b(href|src)\s*=\s*javascript:[^\s>]*`)
)

// Sanitize removes script blocks, inline event handler attributes and
// javascript: URLs (replaced by "#"), then trims. It repeats until the output
// is stable, so Sanitize(Sanitize(x)) == Sanitize(x). Every pass that changes
// the input makes it shorter, so the loop terminates.
func Sanitize(html string) string {
	out := strings.TrimSpace(html)
	for {
		next := sanitizeOnce(out)
		if next == out {
			return out
		}
		out = next
	}
}

func sanitizeOnce(html string) string {
	html = scriptBlockRe.ReplaceAllString(html, "")
	html = scriptTagRe.ReplaceAllString(html, "")
	html = eventHandlerQuotedRe.ReplaceAllString(html, "")
	html = eventHandlerUnquotedRe.ReplaceAllString(html, "")
	html = jsURLQuotedRe.ReplaceAllString(html, `$1="#"`)
	html = jsURLUnquotedRe.ReplaceAllString(html, `$1="#"`)
	return strings.TrimSpace(html)
}

var sectionRes = map[string]*regexp.Regexp{
	"head": regexp.MustCompile(`(?is)<head\b[^>]*>(.*?)</head\s*>`),
	"body": regexp.MustCompile(`(?is)<body\b[^>]*>(.*?)</body\s*>`),
}

// ExtractSection returns the inner HTML of the first <tag>…</tag> pair, or ""
// when there is none. Matching is case-insensitive and non-greedy.
func ExtractSection(html, tag string) string {
	if html == "" || tag == "" {
		return ""
	}
	tag = strings.ToLower(tag)
	re, ok := sectionRes[tag]
	if !ok {
		re = regexp.MustCompile(`(?is)<` + regexp.QuoteMeta(tag) + `\b[^>]*>(.*?)</` + regexp.QuoteMeta(tag) + `\s*>`)
	}
	m := re.FindStringSubmatch(html)
	if m == nil {
		return ""
	}
	return m[1]
}
