package story

import (
	"context"
	"fmt"
	"strconv"

	"github.com/michaelquigley/df/dl"

	"loreweave/internal/sources"
)

const (
	maxAuthorProfiles   = 3
	defaultMangaLimit   = 10
	maxMangaLimit       = 50
	defaultChapterLimit = 50
	maxChapterLimit     = 500
)

// GetMangaInfo merges the best MangaDex match for title, including its
// author profiles, with AniList's manga record.
func (s *Service) GetMangaInfo(ctx context.Context, title string) (*MangaDetails, error) {
	key := Key("manga", "", title, "")
	return cached(ctx, s, key, func(ctx context.Context) (*MangaDetails, bool, error) {
		var (
			manga    *sources.MangaInfo
			profiles []sources.Author
			media    *sources.MediaInfo
		)
		f := s.fanout("manga")
		if s.manga != nil {
			f.run("mangadex", func() (err error) {
				manga, err = s.manga.GetMangaInfo(ctx, title)
				if err != nil || manga == nil {
					return err
				}
				for i, id := range manga.AuthorIDs {
					if i == maxAuthorProfiles {
						break
					}
					author, err := s.manga.GetAuthor(ctx, id)
					if err != nil {
						dl.ChannelLog("story").With("source", "mangadex").With("author", id).With("error", err).Warn("fetching author")
						continue
					}
					if author != nil {
						profiles = append(profiles, *author)
					}
				}
				return nil
			})
		}
		if s.media != nil {
			f.run("anilist", func() (err error) {
				media, err = s.media.GetMediaInfo(ctx, title, "MANGA")
				return err
			})
		}
		allFailed := f.wait()

		details, err := guardMerge("manga", func() *MangaDetails {
			return mergeManga(title, manga, profiles, media)
		})
		if err != nil {
			return nil, false, err
		}
		return details, !allFailed, nil
	})
}

func mergeManga(title string, manga *sources.MangaInfo, profiles []sources.Author, media *sources.MediaInfo) *MangaDetails {
	d := &MangaDetails{}
	if manga != nil {
		d.Sources = append(d.Sources, "mangadex")
		d.ID = manga.ID
		fill(&d.Title, manga.Title)
		fill(&d.Description, manga.Description)
		fill(&d.Status, manga.Status)
		fill(&d.LastChapter, manga.LastChapter)
		fill(&d.CoverURL, manga.CoverURL)
		fillInt(&d.Year, manga.Year)
		if last, err := strconv.Atoi(manga.LastChapter); err == nil {
			fillInt(&d.Chapters, last)
		}
		d.AltTitles = concat(d.AltTitles, manga.AltTitles...)
		d.Tags = concat(d.Tags, manga.Tags...)
		d.Authors = concat(d.Authors, manga.Authors...)
		d.Artists = concat(d.Artists, manga.Artists...)
		d.AuthorProfiles = append(d.AuthorProfiles, profiles...)
	}
	if media != nil {
		d.Sources = append(d.Sources, "anilist")
		fill(&d.Title, media.TitleEnglish, media.TitleRomaji)
		fill(&d.Description, media.Description)
		fill(&d.Status, media.Status)
		fill(&d.CoverURL, media.CoverImage)
		fillInt(&d.Year, media.StartYear)
		fillInt(&d.Chapters, media.Chapters)
		fillInt(&d.AverageScore, media.AverageScore)
		d.AltTitles = concat(d.AltTitles, media.TitleNative)
		d.AltTitles = concat(d.AltTitles, media.Synonyms...)
		d.Genres = concat(d.Genres, media.Genres...)
		d.Tags = concat(d.Tags, media.Tags...)
	}
	fill(&d.Title, title)

	d.AltTitles = orEmpty(d.AltTitles)
	d.Genres = orEmpty(d.Genres)
	d.Tags = orEmpty(d.Tags)
	d.Authors = orEmpty(d.Authors)
	d.Artists = orEmpty(d.Artists)
	if d.AuthorProfiles == nil {
		d.AuthorProfiles = []sources.Author{}
	}
	d.Sources = orEmpty(d.Sources)
	return d
}

// SearchManga lists MangaDex titles matching query. Unlike the merged
// lookups it has a single source, so an upstream failure is returned.
func (s *Service) SearchManga(ctx context.Context, query string, limit int) ([]sources.MangaInfo, error) {
	if s.manga == nil {
		return nil, fmt.Errorf("%w manga search: no manga source configured", ErrFetchFailed)
	}
	limit = clamp(limit, defaultMangaLimit, maxMangaLimit)
	key := Key("manga_search", "", query, strconv.Itoa(limit))
	return cached(ctx, s, key, func(ctx context.Context) ([]sources.MangaInfo, bool, error) {
		results, err := s.manga.SearchManga(ctx, query, limit)
		if err != nil {
			return nil, false, fmt.Errorf("%w manga search: %w", ErrFetchFailed, err)
		}
		if results == nil {
			results = []sources.MangaInfo{}
		}
		return results, true, nil
	})
}

// GetMangaChapters lists chapters of a MangaDex manga in one language,
// English when lang is empty.
func (s *Service) GetMangaChapters(ctx context.Context, mangaID, lang string, limit int) ([]sources.Chapter, error) {
	if s.manga == nil {
		return nil, fmt.Errorf("%w manga chapters: no manga source configured", ErrFetchFailed)
	}
	if lang == "" {
		lang = "en"
	}
	limit = clamp(limit, defaultChapterLimit, maxChapterLimit)
	key := Key("chapters", "", mangaID, lang+"|"+strconv.Itoa(limit))
	return cached(ctx, s, key, func(ctx context.Context) ([]sources.Chapter, bool, error) {
		chapters, err := s.manga.GetChapters(ctx, mangaID, lang, limit)
		if err != nil {
			return nil, false, fmt.Errorf("%w manga chapters: %w", ErrFetchFailed, err)
		}
		if chapters == nil {
			chapters = []sources.Chapter{}
		}
		return chapters, true, nil
	})
}
