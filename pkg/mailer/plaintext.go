package mailer

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	stripPolicy = bluemonday.StrictPolicy()
	blockTags   = regexp.MustCompile(`(?i)<\s*(br|/p|/div|/h[1-6]|/li|/tr|/table|hr)[^>]*>`)
	dropBlocks  = regexp.MustCompile(`(?is)<(style|script|head)[^>]*>.*?</(style|script|head)\s*>`)
)

// PlainText converts an HTML body into a readable plain text alternative.
func PlainText(body string) string {
	body = dropBlocks.ReplaceAllString(body, "")
	body = blockTags.ReplaceAllString(body, "\n")
	text := html.UnescapeString(stripPolicy.Sanitize(body))

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	blank := false
	for _, line := range lines {
		line = strings.Join(strings.Fields(line), " ")
		if line == "" {
			if !blank && len(out) > 0 {
				out = append(out, "")
			}
			blank = true
			continue
		}
		blank = false
		out = append(out, line)
	}
	return strings.TrimSpace(strings.Join(out, "\n"))
}
