package story

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"loreweave/internal/sources"
)

func TestSearchStoryContentRanking(t *testing.T) {
	anime := &fakeAnime{
		characters: []sources.CharacterInfo{{Name: "Itachi Uchiha"}},
		series:     []sources.AnimeInfo{{Title: "Naruto"}},
	}
	media := &fakeMedia{characters: []sources.AniListCharacter{{Name: "Itachi"}}}
	wiki := &fakeWiki{hits: []sources.WikiSearchHit{
		{Title: "Itachi Uchiha", Type: "character"},
		{Title: "Uchiha Clan Downfall", Type: "event"},
	}}
	svc := New(Options{Anime: anime, Media: media, Wiki: wiki})

	t.Run("all types", func(t *testing.T) {
		results, err := svc.SearchStoryContent(context.Background(), "Naruto", "Itachi", "", 10)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		var got []string
		for _, r := range results {
			got = append(got, r.Source+":"+r.Name)
		}
		want := "anilist:Itachi,jikan:Itachi Uchiha,wiki:Itachi Uchiha,jikan:Naruto,wiki:Uchiha Clan Downfall"
		if strings.Join(got, ",") != want {
			t.Fatalf("unexpected order\ngot:  %s\nwant: %s", strings.Join(got, ","), want)
		}
		for i := 1; i < len(results); i++ {
			if results[i].Score > results[i-1].Score {
				t.Fatalf("results not sorted by score: %+v", results)
			}
		}
	})

	t.Run("type filter", func(t *testing.T) {
		before := anime.searchAnimes
		results, err := svc.SearchStoryContent(context.Background(), "Naruto", "Itachi", "Character", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != 2 {
			t.Fatalf("expected limit to apply, got %d", len(results))
		}
		for _, r := range results {
			if r.Type != "character" {
				t.Fatalf("unexpected type in %+v", r)
			}
		}
		if anime.searchAnimes != before {
			t.Fatalf("expected series search to be skipped for a character filter")
		}
	})
}

func TestValidateStoryElement(t *testing.T) {
	anime := &fakeAnime{characters: []sources.CharacterInfo{
		{Name: "Itachi Uchiha"},
		{Name: "Sasuke Uchiha"},
	}}
	wiki := &fakeWiki{hits: []sources.WikiSearchHit{
		{Title: "Itachi Uchiha", Type: "character"},
		{Title: "Konohagakure", Type: "location"},
	}}
	svc := New(Options{Anime: anime, Wiki: wiki})

	t.Run("partial name suggests alternatives", func(t *testing.T) {
		v, err := svc.ValidateStoryElement(context.Background(), "Naruto", "character", "Itachi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v.IsValid || v.Match != nil {
			t.Fatalf("expected no exact match, got %+v", v)
		}
		if strings.Join(v.AlternativeSuggestions, ",") != "Itachi Uchiha,Sasuke Uchiha" {
			t.Fatalf("unexpected suggestions %v", v.AlternativeSuggestions)
		}
	})

	t.Run("exact name is valid", func(t *testing.T) {
		v, err := svc.ValidateStoryElement(context.Background(), "Naruto", "Character", "itachi uchiha")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !v.IsValid || v.Match == nil || v.Match.Name != "Itachi Uchiha" {
			t.Fatalf("expected case-insensitive exact match, got %+v", v)
		}
		if len(v.AlternativeSuggestions) != 0 {
			t.Fatalf("expected no suggestions, got %v", v.AlternativeSuggestions)
		}
	})

	t.Run("at most three suggestions", func(t *testing.T) {
		anime := &fakeAnime{characters: []sources.CharacterInfo{
			{Name: "Kakashi Hatake"}, {Name: "Kakashi Anbu"}, {Name: "Kakashi Young"}, {Name: "Kakashi Hokage"},
		}}
		svc := New(Options{Anime: anime})
		v, err := svc.ValidateStoryElement(context.Background(), "Naruto", "character", "Kakashi")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(v.AlternativeSuggestions) != 3 {
			t.Fatalf("expected 3 suggestions, got %v", v.AlternativeSuggestions)
		}
	})
}

func TestMangaLookups(t *testing.T) {
	ctx := context.Background()

	t.Run("info merges authors and anilist", func(t *testing.T) {
		manga := &fakeManga{
			manga: &sources.MangaInfo{
				ID:        "a1b2",
				Title:     "One Piece",
				Authors:   []string{"Oda Eiichiro"},
				AuthorIDs: []string{"author-1", "author-2"},
				Tags:      []string{"Pirates"},
			},
			authors: map[string]*sources.Author{"author-1": {ID: "author-1", Name: "Oda Eiichiro"}},
		}
		media := &fakeMedia{media: &sources.MediaInfo{
			TitleEnglish: "One Piece",
			Description:  "Gol D. Roger was known as the Pirate King.",
			Chapters:     1120,
			Genres:       []string{"Adventure"},
		}}
		svc := New(Options{Manga: manga, Media: media})

		details, err := svc.GetMangaInfo(ctx, "One Piece")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if details.ID != "a1b2" || details.Chapters != 1120 || details.Description == "" {
			t.Fatalf("unexpected details %+v", details)
		}
		if len(details.AuthorProfiles) != 1 || details.AuthorProfiles[0].Name != "Oda Eiichiro" {
			t.Fatalf("unexpected author profiles %+v", details.AuthorProfiles)
		}
		if media.lastType != "MANGA" {
			t.Fatalf("expected manga media lookup, got %q", media.lastType)
		}
	})

	t.Run("search failure is returned and not cached", func(t *testing.T) {
		boom := errors.New("status 503")
		manga := &fakeManga{err: boom}
		svc := New(Options{Manga: manga})

		for i := 0; i < 2; i++ {
			_, err := svc.SearchManga(ctx, "berserk", 5)
			if !errors.Is(err, ErrFetchFailed) || !errors.Is(err, boom) {
				t.Fatalf("expected wrapped fetch failure, got %v", err)
			}
		}
		if manga.count() != 2 {
			t.Fatalf("expected every call to reach upstream, got %d", manga.count())
		}
	})

	t.Run("chapters default to english", func(t *testing.T) {
		manga := &fakeManga{chapters: []sources.Chapter{{ID: "c1", Chapter: "1"}}}
		svc := New(Options{Manga: manga})

		chapters, err := svc.GetMangaChapters(ctx, "a1b2", "", 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(chapters) != 1 || manga.lastLang != "en" {
			t.Fatalf("unexpected chapters %+v lang %q", chapters, manga.lastLang)
		}
	})

	t.Run("no manga source", func(t *testing.T) {
		svc := New(Options{})
		if _, err := svc.SearchManga(ctx, "berserk", 5); !errors.Is(err, ErrFetchFailed) {
			t.Fatalf("expected ErrFetchFailed, got %v", err)
		}
	})
}

func TestAnalyze(t *testing.T) {
	info := &StoryInfo{
		Title:          "One Piece",
		Synopsis:       "A boy's journey for treasure and friendship amid war.",
		Genres:         []string{"Action", "Adventure"},
		Themes:         []string{"Pirates"},
		MainCharacters: []string{"Luffy", "Zoro"},
		Episodes:       1100,
	}
	a := analyze("One Piece", info)
	if strings.Join(a.ToneKeywords, ",") != "war,friendship,treasure,journey" {
		t.Fatalf("unexpected keywords %v", a.ToneKeywords)
	}
	if a.Tone != "light" || a.Complexity != "complex" || a.Scale != "long" || a.CastSize != 2 {
		t.Fatalf("unexpected analysis %+v", a)
	}

	empty := analyze("Unknown", &StoryInfo{Title: "Unknown"})
	if empty.Tone != "balanced" || empty.Complexity != "simple" || empty.Scale != "unknown" {
		t.Fatalf("unexpected analysis of an empty record %+v", empty)
	}
}

func TestAnalyzeStoryElementsUsesStoryInfo(t *testing.T) {
	anime := &fakeAnime{anime: &sources.AnimeInfo{Title: "Naruto", Episodes: 220, Synopsis: "A ninja seeks revenge."}}
	svc := New(Options{Anime: anime})

	a, err := svc.AnalyzeStoryElements(context.Background(), "Naruto")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.Title != "Naruto" || a.Tone != "dark" || a.Scale != "long" {
		t.Fatalf("unexpected analysis %+v", a)
	}
}

// jikanServer serves /anime searches, answering 429 for the first
// throttled requests.
func jikanServer(t *testing.T, throttled int) (*httptest.Server, func() int) {
	t.Helper()
	var mu sync.Mutex
	requests := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/anime/21/characters" {
			w.Write([]byte(`{"data": [{"character": {"mal_id": 40, "name": "Monkey D. Luffy"}, "role": "Main"}]}`))
			return
		}
		mu.Lock()
		requests++
		n := requests
		mu.Unlock()
		if n <= throttled {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"data": [{"mal_id": 21, "title": "One Piece", "episodes": 1100}]}`))
	}))
	t.Cleanup(server.Close)
	return server, func() int {
		mu.Lock()
		defer mu.Unlock()
		return requests
	}
}

func TestRateLimitRetryInsideCachedLookup(t *testing.T) {
	opts := func(base string) sources.Options {
		return sources.Options{
			BaseURL:    base,
			Delay:      time.Nanosecond,
			Retries:    1,
			RetryDelay: time.Millisecond,
			UserAgent:  "loreweave-test",
		}
	}
	ctx := context.Background()

	t.Run("retry succeeds and the result is cached", func(t *testing.T) {
		server, requests := jikanServer(t, 1)
		svc := New(Options{Anime: sources.NewJikan(opts(server.URL))})

		info, err := svc.GetStoryInfo(ctx, "One Piece")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if info.Episodes != 1100 || strings.Join(info.MainCharacters, ",") != "Monkey D. Luffy" {
			t.Fatalf("expected the retried response, got %+v", info)
		}
		if requests() != 2 {
			t.Fatalf("expected one retry, got %d requests", requests())
		}
		if _, err := svc.GetStoryInfo(ctx, "One Piece"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if requests() != 2 {
			t.Fatalf("expected the second lookup to be served from cache, got %d requests", requests())
		}
	})

	t.Run("exhausted retries are not cached", func(t *testing.T) {
		server, requests := jikanServer(t, 100)
		svc := New(Options{Anime: sources.NewJikan(opts(server.URL))})

		info, err := svc.GetStoryInfo(ctx, "One Piece")
		if err != nil {
			t.Fatalf("expected defaults, got %v", err)
		}
		if info.Title != "One Piece" || len(info.Sources) != 0 {
			t.Fatalf("expected default record, got %+v", info)
		}
		if requests() != 2 {
			t.Fatalf("expected bounded retries, got %d requests", requests())
		}
		if _, err := svc.GetStoryInfo(ctx, "One Piece"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if requests() != 4 {
			t.Fatalf("expected a fresh attempt after a failure, got %d requests", requests())
		}
	})
}
