// Package story aggregates the upstream sources into unified story,
// character and location records. Every lookup fans out to the configured
// sources concurrently, waits for all of them to settle, merges whatever
// succeeded and caches the result in memory and, when configured, in the
// persistent story_cache table.
package story

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/michaelquigley/df/dl"
	"golang.org/x/sync/errgroup"

	"loreweave/internal/cache"
	"loreweave/internal/sources"
	"loreweave/internal/store"
)

// ErrFetchFailed marks an aggregation that could not produce a record at all.
var ErrFetchFailed = errors.New("failed to fetch")

// errNotCacheable lets a compute function hand back a value that must not be
// stored, such as the defaults returned when every source errored.
var errNotCacheable = errors.New("result not cacheable")

type AnimeSource interface {
	SearchAnime(ctx context.Context, query string, limit int) ([]sources.AnimeInfo, error)
	GetAnimeInfo(ctx context.Context, name string) (*sources.AnimeInfo, error)
	GetAnimeCharacters(ctx context.Context, animeID int) ([]sources.AnimeCharacter, error)
	GetEpisodes(ctx context.Context, animeID int) ([]sources.Episode, error)
	SearchCharacters(ctx context.Context, query string, limit int) ([]sources.CharacterInfo, error)
	GetCharacterInfo(ctx context.Context, name string) (*sources.CharacterInfo, error)
}

type MediaSource interface {
	GetMediaInfo(ctx context.Context, name, mediaType string) (*sources.MediaInfo, error)
	GetCharacterInfo(ctx context.Context, name string) (*sources.AniListCharacter, error)
	SearchCharacters(ctx context.Context, query string, limit int) ([]sources.AniListCharacter, error)
}

type MangaSource interface {
	SearchManga(ctx context.Context, title string, limit int) ([]sources.MangaInfo, error)
	GetMangaInfo(ctx context.Context, title string) (*sources.MangaInfo, error)
	GetManga(ctx context.Context, id string) (*sources.MangaInfo, error)
	GetChapters(ctx context.Context, mangaID, lang string, limit int) ([]sources.Chapter, error)
	GetAuthor(ctx context.Context, id string) (*sources.Author, error)
}

type WikiSource interface {
	GetCharacterInfo(ctx context.Context, source, name string) (*sources.WikiCharacter, error)
	GetLocationInfo(ctx context.Context, source, name string) (*sources.WikiLocation, error)
	GetPageSummary(ctx context.Context, source, title string) (*sources.WikiPage, error)
	Search(ctx context.Context, source, query string, limit int) ([]sources.WikiSearchHit, error)
}

// Options wires a Service. Any source may be nil, in which case it is
// skipped. A nil Cache gets a default in-memory cache.
type Options struct {
	Anime   AnimeSource
	Media   MediaSource
	Manga   MangaSource
	Wiki    WikiSource
	Cache   *cache.Cache
	Persist store.CacheStore
	TTL     time.Duration
}

type Service struct {
	anime   AnimeSource
	media   MediaSource
	manga   MangaSource
	wiki    WikiSource
	cache   *cache.Cache
	persist store.CacheStore
	ttl     time.Duration
	now     func() time.Time
}

func New(opts Options) *Service {
	c := opts.Cache
	if c == nil {
		c = cache.New(cache.Options{TTL: opts.TTL})
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cache.DefaultTTL
	}
	return &Service{
		anime:   opts.Anime,
		media:   opts.Media,
		manga:   opts.Manga,
		wiki:    opts.Wiki,
		cache:   c,
		persist: opts.Persist,
		ttl:     ttl,
		now:     time.Now,
	}
}

// Cache exposes the in-memory tier for maintenance commands.
func (s *Service) Cache() *cache.Cache {
	return s.cache
}

// Key builds the deterministic cache key entity:source:name:context with
// every part lower-cased, whitespace-collapsed and query-escaped so a colon
// inside a part cannot shift the separators.
func Key(entity, source, name, context string) string {
	parts := []string{entity, source, name, context}
	for i, p := range parts {
		parts[i] = url.QueryEscape(strings.Join(strings.Fields(strings.ToLower(p)), " "))
	}
	return strings.Join(parts, ":")
}

// cached resolves key through the memory tier, then the persistent tier,
// then compute. compute reports whether its value may be stored. Callers
// always get their own copy; the cached entry is never handed out.
func cached[T any](ctx context.Context, s *Service, key string, compute func(ctx context.Context) (T, bool, error)) (T, error) {
	var uncached T
	v, err := s.cache.GetOrSet(key, func() (any, error) {
		if value, ok := s.loadPersisted(ctx, key, new(T)); ok {
			return *value.(*T), nil
		}
		value, cacheable, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		if !cacheable {
			uncached = value
			return nil, errNotCacheable
		}
		s.storePersisted(ctx, key, value)
		return value, nil
	}, s.ttl)
	if errors.Is(err, errNotCacheable) {
		return uncached, nil
	}
	if err != nil {
		var zero T
		return zero, err
	}
	dl.ChannelLog("story").With("key", key).Debug("story cache resolved")
	return detach(v.(T)), nil
}

// detach deep-copies a cached record through its JSON form, the same form
// the persistent tier stores.
func detach[T any](v T) T {
	payload, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out T
	if err := json.Unmarshal(payload, &out); err != nil {
		return v
	}
	return out
}

func (s *Service) loadPersisted(ctx context.Context, key string, dst any) (any, bool) {
	if s.persist == nil {
		return nil, false
	}
	payload, ok, err := s.persist.GetCachedBlob(ctx, key)
	if err != nil {
		dl.ChannelLog("story").With("key", key).With("error", err).Warn("reading persistent cache")
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		dl.ChannelLog("story").With("key", key).With("error", err).Warn("decoding persistent cache entry")
		return nil, false
	}
	return dst, true
}

func (s *Service) storePersisted(ctx context.Context, key string, value any) {
	if s.persist == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		dl.ChannelLog("story").With("key", key).With("error", err).Warn("encoding persistent cache entry")
		return
	}
	if err := s.persist.SetCachedBlob(ctx, key, payload, s.now().Add(s.ttl)); err != nil {
		dl.ChannelLog("story").With("key", key).With("error", err).Warn("writing persistent cache")
	}
}

// fanout runs one branch per source and waits for all of them. Branch
// errors and panics are logged and counted, never propagated.
type fanout struct {
	entity string
	g      errgroup.Group

	mu       sync.Mutex
	launched int
	failed   int
}

func (s *Service) fanout(entity string) *fanout {
	return &fanout{entity: entity}
}

func (f *fanout) run(source string, fn func() error) {
	f.mu.Lock()
	f.launched++
	f.mu.Unlock()

	f.g.Go(func() error {
		defer func() {
			if r := recover(); r != nil {
				f.fail(source, fmt.Errorf("panic: %v", r))
			}
		}()
		if err := fn(); err != nil {
			f.fail(source, err)
		}
		return nil
	})
}

func (f *fanout) fail(source string, err error) {
	f.mu.Lock()
	f.failed++
	f.mu.Unlock()
	dl.ChannelLog("story").
		With("source", source).
		With("entity", f.entity).
		With("error", err).
		Warn("source failed")
}

// wait blocks until every branch settled and reports whether every branch
// failed. A fanout with no branches has not failed.
func (f *fanout) wait() bool {
	f.g.Wait()
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.launched > 0 && f.failed == f.launched
}

// guardMerge turns a panic in merge logic into ErrFetchFailed.
func guardMerge[T any](entity string, merge func() T) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w %s: %v", ErrFetchFailed, entity, r)
		}
	}()
	return merge(), nil
}
