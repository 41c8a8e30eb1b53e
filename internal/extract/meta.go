package extract

import (
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ExistingMeta collects tags already present in a page head: the title, every
// <meta name|property> with content, and the canonical link. Keys are
// lower-cased; the first occurrence wins.
func ExistingMeta(head string) map[string]string {
	out := map[string]string{}
	if strings.TrimSpace(head) == "" {
		return out
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<html><head>" + head + "</head><body></body></html>"))
	if err != nil {
		return out
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		out["title"] = title
	}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		key, ok := s.Attr("property")
		if !ok || key == "" {
			key, ok = s.Attr("name")
		}
		if !ok || key == "" {
			return
		}
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		key = strings.ToLower(strings.TrimSpace(key))
		if _, seen := out[key]; !seen {
			out[key] = strings.TrimSpace(content)
		}
	})

	doc.Find("link[rel]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		rel, _ := s.Attr("rel")
		if strings.EqualFold(strings.TrimSpace(rel), "canonical") {
			if href, ok := s.Attr("href"); ok {
				out["canonical"] = strings.TrimSpace(href)
				return false
			}
		}
		return true
	})

	return out
}

// FormatMeta renders tags as sorted "key: value" lines.
func FormatMeta(tags map[string]string) string {
	keys := make([]string, 0, len(tags))
	for k := range tags {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteString(": ")
		b.WriteString(tags[k])
		b.WriteByte('\n')
	}
	return strings.TrimRight(b.String(), "\n")
}
