package story

import (
	"context"
	"sync"
	"time"

	"loreweave/internal/sources"
)

// counter is embedded by the fakes; fan-out branches call them concurrently.
type counter struct {
	mu    sync.Mutex
	calls int
	last  string
}

func (c *counter) record(arg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	c.last = arg
}

func (c *counter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type fakeAnime struct {
	counter
	anime        *sources.AnimeInfo
	cast         []sources.AnimeCharacter
	episodes     []sources.Episode
	series       []sources.AnimeInfo
	character    *sources.CharacterInfo
	characters   []sources.CharacterInfo
	err          error
	panicWith    any
	searchAnimes int
}

func (f *fakeAnime) fail() error {
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	return f.err
}

func (f *fakeAnime) SearchAnime(ctx context.Context, query string, limit int) ([]sources.AnimeInfo, error) {
	f.record(query)
	f.mu.Lock()
	f.searchAnimes++
	f.mu.Unlock()
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.series, nil
}

func (f *fakeAnime) GetAnimeInfo(ctx context.Context, name string) (*sources.AnimeInfo, error) {
	f.record(name)
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.anime, nil
}

func (f *fakeAnime) GetAnimeCharacters(ctx context.Context, animeID int) ([]sources.AnimeCharacter, error) {
	f.record("")
	if f.err != nil {
		return nil, f.err
	}
	return f.cast, nil
}

func (f *fakeAnime) GetEpisodes(ctx context.Context, animeID int) ([]sources.Episode, error) {
	f.record("")
	if f.err != nil {
		return nil, f.err
	}
	return f.episodes, nil
}

func (f *fakeAnime) SearchCharacters(ctx context.Context, query string, limit int) ([]sources.CharacterInfo, error) {
	f.record(query)
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.characters, nil
}

func (f *fakeAnime) GetCharacterInfo(ctx context.Context, name string) (*sources.CharacterInfo, error) {
	f.record(name)
	if err := f.fail(); err != nil {
		return nil, err
	}
	return f.character, nil
}

type fakeMedia struct {
	counter
	media      *sources.MediaInfo
	character  *sources.AniListCharacter
	characters []sources.AniListCharacter
	err        error
	lastType   string
}

func (f *fakeMedia) GetMediaInfo(ctx context.Context, name, mediaType string) (*sources.MediaInfo, error) {
	f.record(name)
	f.mu.Lock()
	f.lastType = mediaType
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.media, nil
}

func (f *fakeMedia) GetCharacterInfo(ctx context.Context, name string) (*sources.AniListCharacter, error) {
	f.record(name)
	if f.err != nil {
		return nil, f.err
	}
	return f.character, nil
}

func (f *fakeMedia) SearchCharacters(ctx context.Context, query string, limit int) ([]sources.AniListCharacter, error) {
	f.record(query)
	if f.err != nil {
		return nil, f.err
	}
	return f.characters, nil
}

type fakeManga struct {
	counter
	manga    *sources.MangaInfo
	results  []sources.MangaInfo
	chapters []sources.Chapter
	authors  map[string]*sources.Author
	err      error
	lastLang string
}

func (f *fakeManga) SearchManga(ctx context.Context, title string, limit int) ([]sources.MangaInfo, error) {
	f.record(title)
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

func (f *fakeManga) GetMangaInfo(ctx context.Context, title string) (*sources.MangaInfo, error) {
	f.record(title)
	if f.err != nil {
		return nil, f.err
	}
	return f.manga, nil
}

func (f *fakeManga) GetManga(ctx context.Context, id string) (*sources.MangaInfo, error) {
	f.record(id)
	if f.err != nil {
		return nil, f.err
	}
	return f.manga, nil
}

func (f *fakeManga) GetChapters(ctx context.Context, mangaID, lang string, limit int) ([]sources.Chapter, error) {
	f.record(mangaID)
	f.mu.Lock()
	f.lastLang = lang
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.chapters, nil
}

func (f *fakeManga) GetAuthor(ctx context.Context, id string) (*sources.Author, error) {
	f.record(id)
	return f.authors[id], nil
}

type fakeWiki struct {
	counter
	character *sources.WikiCharacter
	location  *sources.WikiLocation
	page      *sources.WikiPage
	hits      []sources.WikiSearchHit
	err       error
	panicWith any
}

func (f *fakeWiki) GetCharacterInfo(ctx context.Context, source, name string) (*sources.WikiCharacter, error) {
	f.record(source + "/" + name)
	if f.panicWith != nil {
		panic(f.panicWith)
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.character, nil
}

func (f *fakeWiki) GetLocationInfo(ctx context.Context, source, name string) (*sources.WikiLocation, error) {
	f.record(source + "/" + name)
	if f.err != nil {
		return nil, f.err
	}
	return f.location, nil
}

func (f *fakeWiki) GetPageSummary(ctx context.Context, source, title string) (*sources.WikiPage, error) {
	f.record(source + "/" + title)
	if f.err != nil {
		return nil, f.err
	}
	return f.page, nil
}

func (f *fakeWiki) Search(ctx context.Context, source, query string, limit int) ([]sources.WikiSearchHit, error) {
	f.record(source + "/" + query)
	if f.err != nil {
		return nil, f.err
	}
	return f.hits, nil
}

// memoryBlobs is an in-memory store.CacheStore.
type memoryBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
	sets  int
}

func (m *memoryBlobs) GetCachedBlob(ctx context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blobs[key]
	return b, ok, nil
}

func (m *memoryBlobs) SetCachedBlob(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.blobs == nil {
		m.blobs = make(map[string][]byte)
	}
	m.blobs[key] = payload
	m.sets++
	return nil
}

func (m *memoryBlobs) PruneCache(ctx context.Context) (int64, error) {
	return 0, nil
}

func (m *memoryBlobs) ClearCache(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := int64(len(m.blobs))
	m.blobs = nil
	return n, nil
}
