package story

import (
	"context"
	"strconv"
	"strings"

	"loreweave/internal/sources"
)

const (
	defaultTimelineLimit = 20
	maxTimelineLimit     = 100
)

// GetTimelineEvents lists a series' episodes in airing order. A non-empty
// arc keeps only events whose title contains it.
func (s *Service) GetTimelineEvents(ctx context.Context, source, arc string, limit int) (*Timeline, error) {
	limit = clamp(limit, defaultTimelineLimit, maxTimelineLimit)
	key := Key("timeline", source, arc, strconv.Itoa(limit))
	return cached(ctx, s, key, func(ctx context.Context) (*Timeline, bool, error) {
		var (
			anime    *sources.AnimeInfo
			episodes []sources.Episode
			media    *sources.MediaInfo
		)
		f := s.fanout("timeline")
		if s.anime != nil {
			f.run("jikan", func() (err error) {
				anime, err = s.anime.GetAnimeInfo(ctx, source)
				if err != nil || anime == nil {
					return err
				}
				episodes, err = s.anime.GetEpisodes(ctx, anime.MalID)
				return err
			})
		}
		if s.media != nil {
			f.run("anilist", func() (err error) {
				media, err = s.media.GetMediaInfo(ctx, source, "ANIME")
				return err
			})
		}
		allFailed := f.wait()

		timeline, err := guardMerge("timeline", func() *Timeline {
			return mergeTimeline(source, arc, limit, anime, episodes, media)
		})
		if err != nil {
			return nil, false, err
		}
		return timeline, !allFailed, nil
	})
}

func mergeTimeline(source, arc string, limit int, anime *sources.AnimeInfo, episodes []sources.Episode, media *sources.MediaInfo) *Timeline {
	t := &Timeline{Source: source, Arc: arc, Events: []TimelineEvent{}}
	if anime != nil {
		t.Sources = append(t.Sources, "jikan")
		fill(&t.Title, anime.TitleEnglish, anime.Title)
		fillInt(&t.StartYear, anime.Year)
	}
	if media != nil {
		t.Sources = append(t.Sources, "anilist")
		fill(&t.Title, media.TitleEnglish, media.TitleRomaji)
		fillInt(&t.StartYear, media.StartYear)
	}
	fill(&t.Title, source)

	needle := strings.ToLower(strings.TrimSpace(arc))
	for _, ep := range episodes {
		if needle != "" && !containsFold(ep.Title, needle) {
			continue
		}
		t.Total++
		if len(t.Events) < limit {
			t.Events = append(t.Events, TimelineEvent{
				Number: ep.MalID,
				Title:  ep.Title,
				Aired:  ep.Aired,
				Kind:   episodeKind(ep),
				Score:  ep.Score,
			})
		}
	}
	t.Sources = orEmpty(t.Sources)
	return t
}

func episodeKind(ep sources.Episode) string {
	switch {
	case ep.Recap:
		return "recap"
	case ep.Filler:
		return "filler"
	default:
		return "episode"
	}
}

func clamp(limit, fallback, ceiling int) int {
	if limit <= 0 {
		return fallback
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
