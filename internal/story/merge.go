package story

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// fill sets *dst to the first non-blank value, unless it already holds one.
// Every merge step goes through fill so a later source never overwrites a
// field an earlier source populated.
func fill(dst *string, values ...string) {
	if strings.TrimSpace(*dst) != "" {
		return
	}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
			return
		}
	}
}

func fillInt(dst *int, values ...int) {
	if *dst != 0 {
		return
	}
	for _, v := range values {
		if v != 0 {
			*dst = v
			return
		}
	}
}

func fillFloat(dst *float64, values ...float64) {
	if *dst != 0 {
		return
	}
	for _, v := range values {
		if v != 0 {
			*dst = v
			return
		}
	}
}

// concat appends the non-blank values without de-duplication.
func concat(dst []string, values ...string) []string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			dst = append(dst, v)
		}
	}
	return dst
}

// addNames appends names not already present, compared case-insensitively.
func addNames(dst []string, names ...string) []string {
	seen := make(map[string]bool, len(dst))
	for _, n := range dst {
		seen[strings.ToLower(n)] = true
	}
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[strings.ToLower(n)] {
			continue
		}
		seen[strings.ToLower(n)] = true
		dst = append(dst, n)
	}
	return dst
}

func without(names []string, drop string) []string {
	out := names[:0]
	for _, n := range names {
		if !strings.EqualFold(n, drop) {
			out = append(out, n)
		}
	}
	return out
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

var sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]*`)

// mentions returns the sentences of text that mention name.
func mentions(text, name string) []string {
	needle := strings.ToLower(strings.TrimSpace(name))
	if needle == "" {
		return nil
	}
	var out []string
	for _, sentence := range sentencePattern.FindAllString(text, -1) {
		sentence = strings.TrimSpace(sentence)
		if strings.Contains(strings.ToLower(sentence), needle) {
			out = append(out, sentence)
		}
	}
	return out
}

// excerpt shortens s to at most limit runes, cutting at a word boundary.
func excerpt(s string, limit int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndexByte(cut, ' '); i > limit/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,;:") + "..."
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), sub)
}
