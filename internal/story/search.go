package story

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"loreweave/internal/sources"
)

const (
	defaultSearchLimit = 10
	maxSearchLimit     = 50
	descriptionLength  = 280
	suggestionCount    = 3
)

// SearchStoryContent ranks characters, series and wiki pages matching query
// by relevance. contentType, when set, keeps only results of that type and
// skips sources that cannot produce it.
func (s *Service) SearchStoryContent(ctx context.Context, source, query, contentType string, limit int) ([]SearchResult, error) {
	limit = clamp(limit, defaultSearchLimit, maxSearchLimit)
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	key := Key("search", source, query, contentType+"|"+strconv.Itoa(limit))
	return cached(ctx, s, key, func(ctx context.Context) ([]SearchResult, bool, error) {
		wants := func(kind string) bool { return contentType == "" || contentType == kind }
		var animeChars, animeSeries, mediaChars, wikiPages []SearchResult

		f := s.fanout("search")
		if s.anime != nil && wants("character") {
			f.run("jikan", func() error {
				chars, err := s.anime.SearchCharacters(ctx, query, limit)
				for _, c := range chars {
					animeChars = append(animeChars, SearchResult{
						Name:        c.Name,
						Type:        "character",
						Description: excerpt(c.About, descriptionLength),
						Source:      "jikan",
						Score:       sources.Score(query, c.Name),
					})
				}
				return err
			})
		}
		if s.anime != nil && wants("story") {
			f.run("jikan", func() error {
				series, err := s.anime.SearchAnime(ctx, query, limit)
				for _, a := range series {
					animeSeries = append(animeSeries, SearchResult{
						Name:        a.Title,
						Type:        "story",
						Description: excerpt(a.Synopsis, descriptionLength),
						Source:      "jikan",
						Score:       max(sources.Score(query, a.Title), sources.Score(query, a.TitleEnglish)),
						URL:         a.URL,
					})
				}
				return err
			})
		}
		if s.media != nil && wants("character") {
			f.run("anilist", func() error {
				chars, err := s.media.SearchCharacters(ctx, query, limit)
				for _, c := range chars {
					mediaChars = append(mediaChars, SearchResult{
						Name:        c.Name,
						Type:        "character",
						Description: excerpt(c.Description, descriptionLength),
						Source:      "anilist",
						Score:       sources.Score(query, c.Name),
					})
				}
				return err
			})
		}
		if s.wiki != nil {
			f.run("wiki", func() error {
				hits, err := s.wiki.Search(ctx, source, query, limit)
				for _, h := range hits {
					if !wants(h.Type) {
						continue
					}
					wikiPages = append(wikiPages, SearchResult{
						Name:        h.Title,
						Type:        h.Type,
						Description: excerpt(h.Snippet, descriptionLength),
						Source:      "wiki",
						Score:       sources.Score(query, h.Title),
						URL:         h.URL,
					})
				}
				return err
			})
		}
		allFailed := f.wait()

		results, err := guardMerge("search results", func() []SearchResult {
			return rank(limit, animeChars, animeSeries, mediaChars, wikiPages)
		})
		if err != nil {
			return nil, false, err
		}
		return results, !allFailed, nil
	})
}

// rank concatenates the per-source results, orders them by score descending
// keeping source order on ties, and truncates to limit.
func rank(limit int, groups ...[]SearchResult) []SearchResult {
	results := []SearchResult{}
	for _, g := range groups {
		results = append(results, g...)
	}
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// ValidateStoryElement checks whether elementName names a known element of
// elementType in source. Without an exact match it suggests the closest
// names of the same type.
func (s *Service) ValidateStoryElement(ctx context.Context, source, elementType, elementName string) (*Validation, error) {
	elementType = strings.ToLower(strings.TrimSpace(elementType))
	results, err := s.SearchStoryContent(ctx, source, elementName, elementType, defaultSearchLimit)
	if err != nil {
		return nil, err
	}

	v := &Validation{
		ElementType:            elementType,
		ElementName:            elementName,
		AlternativeSuggestions: []string{},
	}
	want := strings.TrimSpace(elementName)
	for i := range results {
		if strings.EqualFold(strings.TrimSpace(results[i].Name), want) {
			match := results[i]
			v.IsValid = true
			v.Match = &match
			v.Message = fmt.Sprintf("%s %q exists in %s", elementType, match.Name, source)
			return v, nil
		}
	}

	for _, r := range results {
		if len(v.AlternativeSuggestions) == suggestionCount {
			break
		}
		v.AlternativeSuggestions = addNames(v.AlternativeSuggestions, r.Name)
	}
	v.Message = fmt.Sprintf("no %s named %q found in %s", elementType, elementName, source)
	return v, nil
}
