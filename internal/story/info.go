package story

import (
	"context"
	"strconv"
	"strings"

	"github.com/michaelquigley/df/dl"

	"loreweave/internal/sources"
)

// GetStoryInfo merges the anime, AniList media, manga and wiki summary
// records for a series.
func (s *Service) GetStoryInfo(ctx context.Context, source string) (*StoryInfo, error) {
	key := Key("story", source, "", "")
	return cached(ctx, s, key, func(ctx context.Context) (*StoryInfo, bool, error) {
		var (
			anime *sources.AnimeInfo
			cast  []sources.AnimeCharacter
			media *sources.MediaInfo
			manga *sources.MangaInfo
			page  *sources.WikiPage
		)
		f := s.fanout("story")
		if s.anime != nil {
			f.run("jikan", func() (err error) {
				anime, err = s.anime.GetAnimeInfo(ctx, source)
				if err != nil || anime == nil {
					return err
				}
				chars, err := s.anime.GetAnimeCharacters(ctx, anime.MalID)
				if err != nil {
					dl.ChannelLog("story").With("source", "jikan").With("anime", anime.MalID).With("error", err).Warn("fetching anime characters")
					return nil
				}
				cast = chars
				return nil
			})
		}
		if s.media != nil {
			f.run("anilist", func() (err error) {
				media, err = s.media.GetMediaInfo(ctx, source, "ANIME")
				return err
			})
		}
		if s.manga != nil {
			f.run("mangadex", func() (err error) {
				manga, err = s.manga.GetMangaInfo(ctx, source)
				return err
			})
		}
		if s.wiki != nil {
			f.run("wiki", func() (err error) {
				page, err = s.wiki.GetPageSummary(ctx, source, source)
				return err
			})
		}
		allFailed := f.wait()

		info, err := guardMerge("story", func() *StoryInfo {
			return mergeStory(source, anime, cast, media, manga, page)
		})
		if err != nil {
			return nil, false, err
		}
		return info, !allFailed, nil
	})
}

func mergeStory(source string, anime *sources.AnimeInfo, cast []sources.AnimeCharacter, media *sources.MediaInfo, manga *sources.MangaInfo, wiki *sources.WikiPage) *StoryInfo {
	info := &StoryInfo{}

	if anime != nil {
		info.Sources = append(info.Sources, "jikan")
		fill(&info.Title, anime.TitleEnglish, anime.Title)
		fill(&info.Synopsis, anime.Synopsis)
		fill(&info.Status, anime.Status)
		fill(&info.ImageURL, anime.ImageURL)
		fillInt(&info.Year, anime.Year)
		fillInt(&info.Episodes, anime.Episodes)
		fillFloat(&info.Score, anime.Score)
		info.AlternativeTitles = concat(info.AlternativeTitles, anime.Title, anime.TitleJapanese)
		info.AlternativeTitles = concat(info.AlternativeTitles, anime.Synonyms...)
		info.Genres = concat(info.Genres, anime.Genres...)
		info.Themes = concat(info.Themes, anime.Themes...)
		info.Studios = concat(info.Studios, anime.Studios...)
		for _, c := range cast {
			if strings.EqualFold(c.Role, "main") {
				info.MainCharacters = addNames(info.MainCharacters, c.Name)
			}
		}
	}
	if media != nil {
		info.Sources = append(info.Sources, "anilist")
		fill(&info.Title, media.TitleEnglish, media.TitleRomaji)
		fill(&info.Synopsis, media.Description)
		fill(&info.Status, media.Status)
		fill(&info.ImageURL, media.CoverImage)
		fillInt(&info.Year, media.StartYear)
		fillInt(&info.Episodes, media.Episodes)
		fillInt(&info.Chapters, media.Chapters)
		fillFloat(&info.Score, float64(media.AverageScore)/10)
		info.AlternativeTitles = concat(info.AlternativeTitles, media.TitleRomaji, media.TitleNative)
		info.AlternativeTitles = concat(info.AlternativeTitles, media.Synonyms...)
		info.Genres = concat(info.Genres, media.Genres...)
		info.Tags = concat(info.Tags, media.Tags...)
		info.Studios = concat(info.Studios, media.Studios...)
		info.MainCharacters = addNames(info.MainCharacters, media.Characters...)
	}
	if manga != nil {
		info.Sources = append(info.Sources, "mangadex")
		fill(&info.Title, manga.Title)
		fill(&info.Synopsis, manga.Description)
		fill(&info.Status, manga.Status)
		fill(&info.ImageURL, manga.CoverURL)
		fillInt(&info.Year, manga.Year)
		if last, err := strconv.Atoi(manga.LastChapter); err == nil {
			fillInt(&info.Chapters, last)
		}
		info.AlternativeTitles = concat(info.AlternativeTitles, manga.AltTitles...)
		info.Tags = concat(info.Tags, manga.Tags...)
		info.Authors = concat(info.Authors, manga.Authors...)
	}
	if wiki != nil {
		info.Sources = append(info.Sources, "wiki")
		fill(&info.Title, wiki.Title)
		fill(&info.WikiSummary, wiki.Summary)
		fill(&info.WikiURL, wiki.URL)
		fill(&info.Synopsis, wiki.Summary)
	}
	fill(&info.Title, source)

	info.AlternativeTitles = orEmpty(info.AlternativeTitles)
	info.Genres = orEmpty(info.Genres)
	info.Themes = orEmpty(info.Themes)
	info.Tags = orEmpty(info.Tags)
	info.Studios = orEmpty(info.Studios)
	info.Authors = orEmpty(info.Authors)
	info.MainCharacters = orEmpty(info.MainCharacters)
	info.Sources = orEmpty(info.Sources)
	return info
}
