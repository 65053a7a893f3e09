// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package publish

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

// The platform accepts a restricted HTML subset, so conversion is
// line-oriented rather than a full Markdown renderer.

var (
	linkPattern   = regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`)
	strongPattern = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// MarkdownToHTML converts an article body to the HTML the platform accepts:
// headings, horizontal rules, bullet lists, links, and bold text. Unknown
// constructs pass through as escaped paragraphs.
func MarkdownToHTML(md string) string {
	var b strings.Builder
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == "":
			continue
		case trimmed == "---":
			b.WriteString("<hr>\n")
		case strings.HasPrefix(trimmed, "### "):
			fmt.Fprintf(&b, "<h3>%s</h3>\n", inline(strings.TrimPrefix(trimmed, "### ")))
		case strings.HasPrefix(trimmed, "## "):
			fmt.Fprintf(&b, "<h2>%s</h2>\n", inline(strings.TrimPrefix(trimmed, "## ")))
		case strings.HasPrefix(trimmed, "# "):
			fmt.Fprintf(&b, "<h1>%s</h1>\n", inline(strings.TrimPrefix(trimmed, "# ")))
		case strings.HasPrefix(trimmed, "- "):
			fmt.Fprintf(&b, "<p>• %s</p>\n", inline(strings.TrimPrefix(trimmed, "- ")))
		default:
			fmt.Fprintf(&b, "<p>%s</p>\n", inline(trimmed))
		}
	}
	return b.String()
}

// inline escapes a line and renders links and bold spans.
func inline(s string) string {
	s = html.EscapeString(s)
	s = linkPattern.ReplaceAllString(s, `<a href="$2">$1</a>`)
	s = strongPattern.ReplaceAllString(s, "<strong>$1</strong>")
	return s
}

// plainDigest extracts the first non-heading, non-rule text line of a body
// for use as the draft digest.
func plainDigest(md string) string {
	for _, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || trimmed == "---" || strings.HasPrefix(trimmed, "#") {
			continue
		}
		return trimmed
	}
	return ""
}
