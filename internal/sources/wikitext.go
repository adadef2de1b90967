package sources

import (
	"html"
	"regexp"
	"strings"
)

var (
	refPattern        = regexp.MustCompile(`(?is)<ref[^>]*/>|<ref[^>]*>.*?</ref>`)
	commentPattern    = regexp.MustCompile(`(?s)<!--.*?-->`)
	templatePattern   = regexp.MustCompile(`\{\{[^{}]*\}\}`)
	tablePattern      = regexp.MustCompile(`(?s)\{\|.*?\|\}`)
	filePattern       = regexp.MustCompile(`(?i)\[\[(?:file|image|category):[^\[\]]*(?:\[\[[^\]]*\]\][^\[\]]*)*\]\]`)
	pipedLinkPattern  = regexp.MustCompile(`\[\[[^\]|]*\|([^\]]*)\]\]`)
	linkPattern       = regexp.MustCompile(`\[\[([^\]]*)\]\]`)
	externalPattern   = regexp.MustCompile(`\[https?://[^\s\]]+\s*([^\]]*)\]`)
	quotePattern      = regexp.MustCompile(`'{2,}`)
	headingPattern    = regexp.MustCompile(`^(={2,6})\s*(.*?)\s*={2,6}\s*$`)
	infoboxKeyPattern = regexp.MustCompile(`^\|\s*([A-Za-z0-9 _]+?)\s*=\s*(.*)$`)
)

// section is one heading of a wikitext page with its raw body.
type section struct {
	level int
	title string
	body  string
}

type wikiDocument struct {
	lead     string
	infobox  map[string]string
	sections []section
}

// parseWikitext splits a page into the lead, the first infobox's key/value
// pairs and its headed sections.
func parseWikitext(text string) wikiDocument {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = commentPattern.ReplaceAllString(text, "")
	doc := wikiDocument{infobox: extractInfobox(text)}

	var lead strings.Builder
	current := -1
	for _, line := range strings.Split(text, "\n") {
		if m := headingPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
			doc.sections = append(doc.sections, section{level: len(m[1]), title: cleanWikitext(m[2])})
			current = len(doc.sections) - 1
			continue
		}
		if current < 0 {
			lead.WriteString(line)
			lead.WriteByte('\n')
			continue
		}
		doc.sections[current].body += line + "\n"
	}
	doc.lead = cleanWikitext(lead.String())
	return doc
}

// extractInfobox reads the `| key = value` lines of the first template named
// like an infobox, falling back to the first multi-line template.
func extractInfobox(text string) map[string]string {
	out := make(map[string]string)
	body := firstTemplate(text)
	if body == "" {
		return out
	}
	for _, line := range strings.Split(body, "\n") {
		m := infoboxKeyPattern.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(m[1]))
		value := cleanWikitext(m[2])
		if key == "" || value == "" {
			continue
		}
		if _, exists := out[key]; !exists {
			out[key] = value
		}
	}
	return out
}

func firstTemplate(text string) string {
	var fallback string
	for start := strings.Index(text, "{{"); start >= 0; {
		end := matchingBraces(text, start)
		if end < 0 {
			break
		}
		body := text[start+2 : end]
		name := strings.ToLower(strings.TrimSpace(strings.SplitN(body, "|", 2)[0]))
		if strings.Contains(name, "infobox") || strings.Contains(name, "char box") || strings.Contains(name, "character") || strings.Contains(name, "location") {
			return body
		}
		if fallback == "" && strings.Contains(body, "\n|") {
			fallback = body
		}
		next := strings.Index(text[end:], "{{")
		if next < 0 {
			break
		}
		start = end + next
	}
	return fallback
}

func matchingBraces(text string, start int) int {
	depth := 0
	for i := start; i < len(text)-1; i++ {
		switch {
		case text[i] == '{' && text[i+1] == '{':
			depth++
			i++
		case text[i] == '}' && text[i+1] == '}':
			depth--
			if depth == 0 {
				return i
			}
			i++
		}
	}
	return -1
}

// cleanWikitext reduces wiki markup to plain text.
func cleanWikitext(s string) string {
	s = commentPattern.ReplaceAllString(s, "")
	s = refPattern.ReplaceAllString(s, "")
	for {
		next := templatePattern.ReplaceAllString(s, "")
		if next == s {
			break
		}
		s = next
	}
	s = tablePattern.ReplaceAllString(s, "")
	s = filePattern.ReplaceAllString(s, "")
	s = pipedLinkPattern.ReplaceAllString(s, "$1")
	s = linkPattern.ReplaceAllString(s, "$1")
	s = externalPattern.ReplaceAllString(s, "$1")
	s = quotePattern.ReplaceAllString(s, "")
	s = breakPattern.ReplaceAllString(s, "; ")
	s = tagPattern.ReplaceAllString(s, "")
	s = html.UnescapeString(s)
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = blankLinesPattern.ReplaceAllString(s, "\n\n")

	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "|") || strings.HasPrefix(line, "}}") {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Trim(strings.Join(kept, "\n"), "\n ;")
}

// find returns the first level-2 section whose title matches one of names,
// case-insensitively, together with its nested subsections.
func (d wikiDocument) find(names ...string) (section, []section, bool) {
	for i, sec := range d.sections {
		if sec.level != 2 || !titleMatches(sec.title, names) {
			continue
		}
		var children []section
		for _, child := range d.sections[i+1:] {
			if child.level <= sec.level {
				break
			}
			children = append(children, child)
		}
		return sec, children, true
	}
	return section{}, nil, false
}

// text returns the cleaned body of the named section including its
// subsections, trimmed to limit bytes.
func (d wikiDocument) text(limit int, names ...string) string {
	sec, children, ok := d.find(names...)
	if !ok {
		return ""
	}
	raw := sec.body
	for _, child := range children {
		raw += child.body
	}
	return firstParagraphs(cleanWikitext(raw), limit)
}

// items collects subsection titles and bullet entries from the named section.
func (d wikiDocument) items(names ...string) []string {
	sec, children, ok := d.find(names...)
	if !ok {
		return nil
	}
	var out []string
	for _, child := range children {
		if child.title != "" {
			out = appendIfMissing(out, child.title)
		}
	}
	bodies := []string{sec.body}
	for _, child := range children {
		bodies = append(bodies, child.body)
	}
	for _, body := range bodies {
		for _, item := range bullets(body) {
			out = appendIfMissing(out, item)
		}
	}
	return out
}

func (d wikiDocument) field(keys ...string) string {
	for _, key := range keys {
		if v := d.infobox[key]; v != "" {
			return v
		}
	}
	return ""
}

func bullets(body string) []string {
	var out []string
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "#") {
			continue
		}
		item := cleanWikitext(strings.TrimLeft(line, "*# "))
		if idx := strings.Index(item, ":"); idx > 0 && idx < 60 {
			item = strings.TrimSpace(item[:idx])
		}
		if item != "" && len(item) <= 120 {
			out = append(out, item)
		}
	}
	return out
}

func titleMatches(title string, names []string) bool {
	for _, name := range names {
		if strings.EqualFold(title, name) {
			return true
		}
	}
	return false
}
