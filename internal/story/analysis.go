package story

import (
	"context"
	"fmt"
	"regexp"
	"strings"
)

var (
	darkKeywords  = []string{"war", "revenge", "death", "tragedy", "betrayal", "dark", "demon", "survival", "murder", "despair"}
	lightKeywords = []string{"friendship", "comedy", "romance", "dream", "adventure", "school", "family", "hope", "treasure", "journey"}
	wordPattern   = regexp.MustCompile(`[a-z]+`)
)

// AnalyzeStoryElements derives a narrative profile from the merged story
// record: genre and theme mix, cast size, tone keywords found in the
// synopsis and coarse complexity and scale buckets.
func (s *Service) AnalyzeStoryElements(ctx context.Context, source string) (*Analysis, error) {
	info, err := s.GetStoryInfo(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("analyzing %s: %w", source, err)
	}
	return analyze(source, info), nil
}

func analyze(source string, info *StoryInfo) *Analysis {
	a := &Analysis{
		Source:       source,
		Title:        info.Title,
		Genres:       orEmpty(info.Genres),
		Themes:       orEmpty(info.Themes),
		CastSize:     len(info.MainCharacters),
		ToneKeywords: []string{},
	}

	words := make(map[string]bool)
	for _, w := range wordPattern.FindAllString(strings.ToLower(info.Synopsis), -1) {
		words[w] = true
	}
	dark, light := 0, 0
	for _, k := range darkKeywords {
		if words[k] {
			a.ToneKeywords = append(a.ToneKeywords, k)
			dark++
		}
	}
	for _, k := range lightKeywords {
		if words[k] {
			a.ToneKeywords = append(a.ToneKeywords, k)
			light++
		}
	}
	switch {
	case dark > light:
		a.Tone = "dark"
	case light > dark:
		a.Tone = "light"
	default:
		a.Tone = "balanced"
	}

	score := len(info.Genres) + len(info.Themes) + len(info.Tags)/3 + a.CastSize/5 + info.Episodes/100 + info.Chapters/200
	switch {
	case score < 5:
		a.Complexity = "simple"
	case score < 10:
		a.Complexity = "moderate"
	default:
		a.Complexity = "complex"
	}

	switch length := max(info.Episodes, info.Chapters); {
	case length == 0:
		a.Scale = "unknown"
	case length <= 26:
		a.Scale = "short"
	case length <= 100:
		a.Scale = "medium"
	default:
		a.Scale = "long"
	}

	a.Summary = fmt.Sprintf("%s is a %s story of %s scale with %s tone and %d main characters.",
		a.Title, a.Complexity, a.Scale, a.Tone, a.CastSize)
	return a
}
