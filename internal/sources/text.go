package sources

import (
	"html"
	"regexp"
	"strings"
)

var (
	spoilerPattern    = regexp.MustCompile(`(?s)~!.*?!~`)
	breakPattern      = regexp.MustCompile(`(?i)<br\s*/?>`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	emphasisPattern   = regexp.MustCompile(`__([^_]+)__`)
	whitespacePattern = regexp.MustCompile(`[ \t]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
)

// StripMarkup removes the HTML and markdown fragments AniList and Jikan embed
// in descriptions, drops spoiler blocks and normalises whitespace.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	s = spoilerPattern.ReplaceAllString(s, "")
	s = breakPattern.ReplaceAllString(s, "\n")
	s = tagPattern.ReplaceAllString(s, "")
	s = emphasisPattern.ReplaceAllString(s, "$1")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// firstParagraphs returns leading paragraphs of s up to roughly limit bytes,
// cutting at a paragraph or sentence boundary where possible.
func firstParagraphs(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}

	var b strings.Builder
	for _, para := range strings.Split(s, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if b.Len() > 0 && b.Len()+len(para)+2 > limit {
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(para)
	}
	out := b.String()
	if len(out) <= limit {
		return out
	}

	cut := out[:limit]
	if idx := strings.LastIndex(cut, ". "); idx > limit/2 {
		return cut[:idx+1]
	}
	return strings.TrimSpace(cut) + "..."
}

func splitList(s string) []string {
	s = breakPattern.ReplaceAllString(s, ";")
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ',' || r == '\n'
	})
	out := make([]string, 0, len(fields))
	seen := make(map[string]bool, len(fields))
	for _, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" || seen[strings.ToLower(field)] {
			continue
		}
		seen[strings.ToLower(field)] = true
		out = append(out, field)
	}
	return out
}
