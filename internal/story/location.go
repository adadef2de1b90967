package story

import (
	"context"

	"loreweave/internal/sources"
)

const defaultCondition = "unknown"

// GetLocationData merges the wiki page for a location with what the anime
// records of its series say about it. A timePeriod mentioning a war marks
// the location war-torn.
func (s *Service) GetLocationData(ctx context.Context, name, source, timePeriod string) (*LocationData, error) {
	key := Key("location", source, name, timePeriod)
	return cached(ctx, s, key, func(ctx context.Context) (*LocationData, bool, error) {
		var (
			wiki  *sources.WikiLocation
			anime *sources.AnimeInfo
			media *sources.MediaInfo
		)
		f := s.fanout("location")
		if s.wiki != nil {
			f.run("wiki", func() (err error) {
				wiki, err = s.wiki.GetLocationInfo(ctx, source, name)
				return err
			})
		}
		if s.anime != nil {
			f.run("jikan", func() (err error) {
				anime, err = s.anime.GetAnimeInfo(ctx, source)
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

		data, err := guardMerge("location", func() *LocationData {
			data := mergeLocation(name, source, wiki, anime, media)
			applyTimePeriod(data, timePeriod)
			return data
		})
		if err != nil {
			return nil, false, err
		}
		return data, !allFailed, nil
	})
}

func mergeLocation(name, source string, wiki *sources.WikiLocation, anime *sources.AnimeInfo, media *sources.MediaInfo) *LocationData {
	l := &LocationData{Source: source, Condition: defaultCondition}

	if wiki != nil {
		l.Sources = append(l.Sources, "wiki")
		fill(&l.Name, wiki.Name)
		fill(&l.Description, wiki.Description, wiki.Summary)
		fill(&l.Type, wiki.Type)
		fill(&l.Region, wiki.Region)
		fill(&l.History, wiki.History)
		fill(&l.FirstAppearance, wiki.FirstAppearance)
		fill(&l.WikiURL, wiki.URL)
		l.Inhabitants = concat(l.Inhabitants, wiki.Inhabitants...)
		l.Landmarks = concat(l.Landmarks, wiki.Landmarks...)
		l.Affiliations = concat(l.Affiliations, wiki.Affiliations...)
	}
	fill(&l.Name, name)

	if anime != nil {
		l.Sources = append(l.Sources, "jikan")
		fill(&l.StoryTitle, anime.TitleEnglish, anime.Title)
		l.Genres = concat(l.Genres, anime.Genres...)
		l.Mentions = concat(l.Mentions, mentions(anime.Synopsis, l.Name)...)
	}
	if media != nil {
		l.Sources = append(l.Sources, "anilist")
		fill(&l.StoryTitle, media.TitleEnglish, media.TitleRomaji)
		l.Genres = concat(l.Genres, media.Genres...)
		l.Mentions = concat(l.Mentions, mentions(media.Description, l.Name)...)
	}
	if len(l.Mentions) > 0 {
		fill(&l.Description, l.Mentions[0])
	}

	l.Inhabitants = orEmpty(l.Inhabitants)
	l.Landmarks = orEmpty(l.Landmarks)
	l.Affiliations = orEmpty(l.Affiliations)
	l.Genres = orEmpty(l.Genres)
	l.Mentions = orEmpty(l.Mentions)
	l.Sources = orEmpty(l.Sources)
	return l
}

func applyTimePeriod(l *LocationData, timePeriod string) {
	if timePeriod == "" {
		return
	}
	l.TimePeriod = timePeriod
	if containsFold(timePeriod, "war") {
		l.Condition = "war-torn"
	}
}
