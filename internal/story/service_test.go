package story

import (
	"context"
	"errors"
	"io"
	"os"
	"reflect"
	"strings"
	"testing"

	"github.com/michaelquigley/df/dl"

	"loreweave/internal/sources"
)

func TestMain(m *testing.M) {
	dl.Init(dl.DefaultOptions().SetOutput(io.Discard))
	os.Exit(m.Run())
}

func luffySources() (*fakeWiki, *fakeMedia, *fakeAnime) {
	wiki := &fakeWiki{character: &sources.WikiCharacter{
		Name:      "Monkey D. Luffy",
		Abilities: []string{"Gomu Gomu no Mi", "Haki"},
		Status:    "Alive",
	}}
	media := &fakeMedia{character: &sources.AniListCharacter{
		Name:       "Monkey D. Luffy",
		NativeName: "モンキー・D・ルフィ",
	}}
	anime := &fakeAnime{character: &sources.CharacterInfo{
		Name:  "Luffy Monkey D.",
		About: "Captain of the Straw Hat Pirates.",
	}}
	return wiki, media, anime
}

func TestGetCharacterDataMergesSources(t *testing.T) {
	wiki, media, anime := luffySources()
	svc := New(Options{Wiki: wiki, Media: media, Anime: anime})

	data, err := svc.GetCharacterData(context.Background(), "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Join(data.Abilities, "|") != "Gomu Gomu no Mi|Haki" {
		t.Fatalf("expected wiki abilities, got %v", data.Abilities)
	}
	if !containsName(data.Aliases, "モンキー・D・ルフィ") {
		t.Fatalf("expected native name alias, got %v", data.Aliases)
	}
	if data.Appearance.Description != "Captain of the Straw Hat Pirates." {
		t.Fatalf("expected appearance from anime source, got %q", data.Appearance.Description)
	}
	if data.Name != "Monkey D. Luffy" || !data.Alive {
		t.Fatalf("unexpected identity %+v", data)
	}
	if strings.Join(data.Sources, ",") != "wiki,anilist,jikan" {
		t.Fatalf("unexpected sources %v", data.Sources)
	}
	if wiki.last != "One Piece/Luffy" {
		t.Fatalf("expected wiki lookup scoped to the source, got %q", wiki.last)
	}
}

func TestGetCharacterDataToleratesFailingBranch(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeWiki, *fakeMedia, *fakeAnime)
	}{
		{name: "anilist errors", setup: func(_ *fakeWiki, m *fakeMedia, _ *fakeAnime) { m.err = errors.New("timeout") }},
		{name: "jikan panics", setup: func(_ *fakeWiki, _ *fakeMedia, a *fakeAnime) { a.panicWith = "nil map" }},
		{name: "wiki panics", setup: func(w *fakeWiki, _ *fakeMedia, _ *fakeAnime) { w.panicWith = "index out of range" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wiki, media, anime := luffySources()
			tt.setup(wiki, media, anime)
			svc := New(Options{Wiki: wiki, Media: media, Anime: anime})

			data, err := svc.GetCharacterData(context.Background(), "Luffy", "One Piece", "")
			if err != nil {
				t.Fatalf("expected a record, got error %v", err)
			}
			if data.Name == "" || len(data.Sources) != 2 {
				t.Fatalf("expected the two healthy sources merged, got %+v", data)
			}
		})
	}
}

func TestCharacterArcContext(t *testing.T) {
	tests := []struct {
		arc  string
		want string
	}{
		{arc: "Post-Timeskip", want: "Haki (Enhanced during Post-Timeskip)"},
		{arc: "Marineford War", want: "Haki (Enhanced during Marineford War)"},
		{arc: "Dressrosa", want: "Haki"},
		{arc: "", want: "Haki"},
	}
	for _, tt := range tests {
		t.Run(tt.arc, func(t *testing.T) {
			wiki, media, anime := luffySources()
			svc := New(Options{Wiki: wiki, Media: media, Anime: anime})

			data, err := svc.GetCharacterData(context.Background(), "Luffy", "One Piece", tt.arc)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if data.Abilities[1] != tt.want {
				t.Fatalf("got %q, want %q", data.Abilities[1], tt.want)
			}
			if wiki.character.Abilities[1] != "Haki" {
				t.Fatalf("expected upstream record to stay untouched")
			}
		})
	}
}

func TestDeceasedCharacter(t *testing.T) {
	wiki := &fakeWiki{character: &sources.WikiCharacter{Name: "Portgas D. Ace", Status: "Deceased"}}
	svc := New(Options{Wiki: wiki})

	data, err := svc.GetCharacterData(context.Background(), "Ace", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if data.Alive {
		t.Fatalf("expected deceased status to clear alive")
	}
}

func TestAllSourcesFailReturnsDefaults(t *testing.T) {
	boom := errors.New("upstream down")
	wiki := &fakeWiki{err: boom}
	media := &fakeMedia{err: boom}
	anime := &fakeAnime{err: boom}
	svc := New(Options{Wiki: wiki, Media: media, Anime: anime})
	ctx := context.Background()

	character, err := svc.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if !character.Alive || character.Name != "Luffy" || character.Abilities == nil || len(character.Abilities) != 0 {
		t.Fatalf("unexpected character defaults %+v", character)
	}

	location, err := svc.GetLocationData(ctx, "Wano", "One Piece", "")
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if location.Condition != "unknown" || len(location.Inhabitants) != 0 || location.Inhabitants == nil {
		t.Fatalf("unexpected location defaults %+v", location)
	}

	story, err := svc.GetStoryInfo(ctx, "One Piece")
	if err != nil {
		t.Fatalf("expected defaults, got error %v", err)
	}
	if story.Title != "One Piece" || len(story.Genres) != 0 {
		t.Fatalf("unexpected story defaults %+v", story)
	}

	before := wiki.count()
	if _, err := svc.GetCharacterData(ctx, "Luffy", "One Piece", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wiki.count() != before+1 {
		t.Fatalf("expected a total failure not to be cached")
	}
}

func TestRepeatedCallsHitCache(t *testing.T) {
	wiki, media, anime := luffySources()
	svc := New(Options{Wiki: wiki, Media: media, Anime: anime})
	ctx := context.Background()

	first, err := svc.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	calls := wiki.count() + media.count() + anime.count()

	second, err := svc.GetCharacterData(ctx, "  luffy ", "ONE  PIECE", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := wiki.count() + media.count() + anime.count(); got != calls {
		t.Fatalf("expected no upstream calls on a cache hit, got %d more", got-calls)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical records\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestPersistentTier(t *testing.T) {
	blobs := &memoryBlobs{}
	wiki, media, anime := luffySources()
	ctx := context.Background()

	warm := New(Options{Wiki: wiki, Media: media, Anime: anime, Persist: blobs})
	want, err := warm.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if blobs.sets != 1 {
		t.Fatalf("expected one persisted entry, got %d", blobs.sets)
	}

	coldWiki, coldMedia, coldAnime := luffySources()
	cold := New(Options{Wiki: coldWiki, Media: coldMedia, Anime: coldAnime, Persist: blobs})
	got, err := cold.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if coldWiki.count()+coldMedia.count()+coldAnime.count() != 0 {
		t.Fatalf("expected the persisted entry to satisfy the lookup")
	}
	if !reflect.DeepEqual(want, got) {
		t.Fatalf("persisted record differs\nwant: %+v\ngot:  %+v", want, got)
	}
	if !cold.Cache().Has(Key("character", "One Piece", "Luffy", "")) {
		t.Fatalf("expected the persisted entry to be promoted to memory")
	}
}

func TestGuardMergeSurfacesFetchFailed(t *testing.T) {
	_, err := guardMerge("character", func() *CharacterData {
		var abilities []string
		_ = abilities[3]
		return nil
	})
	if !errors.Is(err, ErrFetchFailed) {
		t.Fatalf("expected ErrFetchFailed, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "failed to fetch character") {
		t.Fatalf("unexpected message %q", err.Error())
	}
}

func TestKey(t *testing.T) {
	t.Run("normalized", func(t *testing.T) {
		got := Key("Character", "One   Piece", " Monkey D. LUFFY ", "Post-Timeskip")
		if got != "character:one+piece:monkey+d.+luffy:post-timeskip" {
			t.Fatalf("unexpected key %q", got)
		}
	})

	t.Run("colon inside a part", func(t *testing.T) {
		a := Key("character", "x:a", "b", "")
		b := Key("character", "x", "a:b", "")
		if a == b {
			t.Fatalf("expected distinct keys, both were %q", a)
		}
		if strings.Count(a, ":") != 3 || strings.Count(b, ":") != 3 {
			t.Fatalf("expected exactly three separators in %q and %q", a, b)
		}
	})
}

func TestColonNamesDoNotShareCacheEntries(t *testing.T) {
	wiki, media, anime := luffySources()
	svc := New(Options{Wiki: wiki, Media: media, Anime: anime})
	ctx := context.Background()

	if _, err := svc.GetCharacterData(ctx, "b", "x:a", ""); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.GetCharacterData(ctx, "a:b", "x", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if wiki.count() != 2 {
		t.Fatalf("expected two wiki lookups, got %d", wiki.count())
	}
	if second.Source != "x" {
		t.Fatalf("expected the second record for source x, got %q", second.Source)
	}
}

func TestCachedRecordsAreCopies(t *testing.T) {
	wiki, media, anime := luffySources()
	svc := New(Options{Wiki: wiki, Media: media, Anime: anime})
	ctx := context.Background()

	first, err := svc.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	first.Name = "Buggy"
	first.Abilities[0] = "Bara Bara no Mi"

	second, err := svc.GetCharacterData(ctx, "Luffy", "One Piece", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.Name != "Monkey D. Luffy" || second.Abilities[0] != "Gomu Gomu no Mi" {
		t.Fatalf("caller mutation leaked into the cache: %+v", second)
	}
	if wiki.count() != 1 {
		t.Fatalf("expected the second lookup to be a cache hit, got %d wiki calls", wiki.count())
	}
}

func TestGetLocationData(t *testing.T) {
	wiki := &fakeWiki{location: &sources.WikiLocation{
		Name:        "Wano Country",
		Type:        "Country",
		Inhabitants: []string{"Kozuki Oden"},
	}}
	anime := &fakeAnime{anime: &sources.AnimeInfo{
		Title:    "One Piece",
		Genres:   []string{"Action", "Adventure"},
		Synopsis: "Luffy sails on. The crew reaches Wano Country at last. Then more happens.",
	}}
	media := &fakeMedia{media: &sources.MediaInfo{TitleEnglish: "One Piece", Genres: []string{"Action"}}}
	svc := New(Options{Wiki: wiki, Anime: anime, Media: media})

	t.Run("merge", func(t *testing.T) {
		loc, err := svc.GetLocationData(context.Background(), "Wano Country", "One Piece", "")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loc.Condition != "unknown" || loc.Type != "Country" || loc.StoryTitle != "One Piece" {
			t.Fatalf("unexpected location %+v", loc)
		}
		if strings.Join(loc.Genres, ",") != "Action,Adventure,Action" {
			t.Fatalf("expected genres concatenated, got %v", loc.Genres)
		}
		if len(loc.Mentions) != 1 || loc.Mentions[0] != "The crew reaches Wano Country at last." {
			t.Fatalf("unexpected mentions %v", loc.Mentions)
		}
		if loc.Description != loc.Mentions[0] {
			t.Fatalf("expected description to fall back to a mention, got %q", loc.Description)
		}
		if media.lastType != "ANIME" {
			t.Fatalf("expected anime media lookup, got %q", media.lastType)
		}
	})

	t.Run("war time period", func(t *testing.T) {
		loc, err := svc.GetLocationData(context.Background(), "Wano Country", "One Piece", "Raid War")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if loc.Condition != "war-torn" || loc.TimePeriod != "Raid War" {
			t.Fatalf("expected war-torn condition, got %+v", loc)
		}
	})
}

func TestGetStoryInfo(t *testing.T) {
	anime := &fakeAnime{
		anime: &sources.AnimeInfo{
			MalID:        21,
			Title:        "One Piece",
			TitleEnglish: "One Piece",
			Genres:       []string{"Action", "Adventure"},
			Episodes:     1100,
			Score:        8.7,
		},
		cast: []sources.AnimeCharacter{
			{Name: "Monkey D. Luffy", Role: "Main"},
			{Name: "Roronoa Zoro", Role: "Main"},
			{Name: "Buggy", Role: "Supporting"},
		},
	}
	media := &fakeMedia{media: &sources.MediaInfo{
		TitleRomaji:  "ONE PIECE",
		Description:  "AniList synopsis.",
		Genres:       []string{"Action"},
		Tags:         []string{"Pirates"},
		Characters:   []string{"monkey d. luffy", "Nami"},
		StartYear:    1999,
		AverageScore: 88,
	}}
	manga := &fakeManga{manga: &sources.MangaInfo{
		Title:       "One Piece",
		Authors:     []string{"Oda Eiichiro"},
		Tags:        []string{"Action"},
		LastChapter: "1120",
	}}
	wiki := &fakeWiki{page: &sources.WikiPage{Title: "One Piece", Summary: "A pirate story.", URL: "https://onepiece.fandom.com/wiki/One_Piece"}}
	svc := New(Options{Anime: anime, Media: media, Manga: manga, Wiki: wiki})

	info, err := svc.GetStoryInfo(context.Background(), "One Piece")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.Synopsis != "AniList synopsis." || info.Year != 1999 || info.Score != 8.7 {
		t.Fatalf("unexpected fill-if-empty result %+v", info)
	}
	if strings.Join(info.Genres, ",") != "Action,Adventure,Action" {
		t.Fatalf("expected genres concatenated, got %v", info.Genres)
	}
	if strings.Join(info.MainCharacters, ",") != "Monkey D. Luffy,Roronoa Zoro,Nami" {
		t.Fatalf("expected de-duplicated main cast, got %v", info.MainCharacters)
	}
	if info.Chapters != 1120 || strings.Join(info.Authors, ",") != "Oda Eiichiro" {
		t.Fatalf("expected manga fields, got %+v", info)
	}
	if info.WikiSummary != "A pirate story." || len(info.Sources) != 4 {
		t.Fatalf("expected wiki summary and all sources, got %+v", info)
	}
}

func TestGetTimelineEvents(t *testing.T) {
	anime := &fakeAnime{
		anime: &sources.AnimeInfo{MalID: 21, Title: "One Piece", Year: 1999},
		episodes: []sources.Episode{
			{MalID: 1, Title: "I'm Luffy!"},
			{MalID: 2, Title: "Enter Wano", Filler: true},
			{MalID: 3, Title: "Wano Recap", Recap: true},
			{MalID: 4, Title: "Wano Finale"},
		},
	}
	svc := New(Options{Anime: anime})

	timeline, err := svc.GetTimelineEvents(context.Background(), "One Piece", "wano", 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timeline.Total != 3 || len(timeline.Events) != 2 {
		t.Fatalf("expected 3 matches truncated to 2, got %+v", timeline)
	}
	if timeline.Events[0].Kind != "filler" || timeline.Events[1].Kind != "recap" {
		t.Fatalf("unexpected kinds %+v", timeline.Events)
	}
	if timeline.StartYear != 1999 {
		t.Fatalf("unexpected start year %d", timeline.StartYear)
	}

	all, err := svc.GetTimelineEvents(context.Background(), "One Piece", "", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(all.Events) != 4 || all.Events[0].Kind != "episode" {
		t.Fatalf("expected every episode, got %+v", all.Events)
	}
}

func containsName(items []string, want string) bool {
	for _, item := range items {
		if item == want {
			return true
		}
	}
	return false
}
