package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	jikanBase         = "https://api.jikan.moe/v4"
	jikanDefaultDelay = time.Second
)

// Jikan fetches anime metadata from the unofficial MyAnimeList REST API.
type Jikan struct {
	base string
	req  *requester
}

func NewJikan(opts Options) *Jikan {
	base := opts.BaseURL
	if base == "" {
		base = jikanBase
	}
	return &Jikan{
		base: strings.TrimRight(base, "/"),
		req:  newRequester("jikan", opts, jikanDefaultDelay),
	}
}

type jikanNamed struct {
	Name string `json:"name"`
}

type jikanImages struct {
	JPG struct {
		ImageURL      string `json:"image_url"`
		LargeImageURL string `json:"large_image_url"`
	} `json:"jpg"`
}

func (i jikanImages) best() string {
	if i.JPG.LargeImageURL != "" {
		return i.JPG.LargeImageURL
	}
	return i.JPG.ImageURL
}

type jikanAnime struct {
	MalID         int          `json:"mal_id"`
	URL           string       `json:"url"`
	Images        jikanImages  `json:"images"`
	Title         string       `json:"title"`
	TitleEnglish  string       `json:"title_english"`
	TitleJapanese string       `json:"title_japanese"`
	TitleSynonyms []string     `json:"title_synonyms"`
	Episodes      int          `json:"episodes"`
	Status        string       `json:"status"`
	Score         float64      `json:"score"`
	Synopsis      string       `json:"synopsis"`
	Year          int          `json:"year"`
	Genres        []jikanNamed `json:"genres"`
	Themes        []jikanNamed `json:"themes"`
	Studios       []jikanNamed `json:"studios"`
	Aired         struct {
		From string `json:"from"`
	} `json:"aired"`
}

type jikanCharacter struct {
	MalID     int         `json:"mal_id"`
	Name      string      `json:"name"`
	NameKanji string      `json:"name_kanji"`
	Nicknames []string    `json:"nicknames"`
	About     string      `json:"about"`
	Favorites int         `json:"favorites"`
	Images    jikanImages `json:"images"`
}

type jikanEpisode struct {
	MalID         int     `json:"mal_id"`
	Title         string  `json:"title"`
	TitleJapanese string  `json:"title_japanese"`
	Aired         string  `json:"aired"`
	Score         float64 `json:"score"`
	Filler        bool    `json:"filler"`
	Recap         bool    `json:"recap"`
}

// SearchAnime returns up to limit anime matching query in upstream order.
func (j *Jikan) SearchAnime(ctx context.Context, query string, limit int) ([]AnimeInfo, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(clampLimit(limit, 25)))
	q.Set("sfw", "true")

	var resp struct {
		Data []jikanAnime `json:"data"`
	}
	found, err := j.req.getJSON(ctx, j.base+"/anime?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching anime %q: %w", query, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]AnimeInfo, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, item.normalize())
	}
	return out, nil
}

// GetAnimeInfo returns the search hit whose titles best match name, or nil.
func (j *Jikan) GetAnimeInfo(ctx context.Context, name string) (*AnimeInfo, error) {
	hits, err := j.SearchAnime(ctx, name, 5)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	best := 0
	bestScore := -1.0
	for i, hit := range hits {
		score := Score(name, hit.Title)
		if s := Score(name, hit.TitleEnglish); s > score {
			score = s
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return &hits[best], nil
}

func (j *Jikan) GetAnimeCharacters(ctx context.Context, animeID int) ([]AnimeCharacter, error) {
	var resp struct {
		Data []struct {
			Character struct {
				MalID  int         `json:"mal_id"`
				Name   string      `json:"name"`
				Images jikanImages `json:"images"`
			} `json:"character"`
			Role string `json:"role"`
		} `json:"data"`
	}
	found, err := j.req.getJSON(ctx, fmt.Sprintf("%s/anime/%d/characters", j.base, animeID), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching characters for anime %d: %w", animeID, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]AnimeCharacter, 0, len(resp.Data))
	for _, item := range resp.Data {
		if strings.TrimSpace(item.Character.Name) == "" {
			continue
		}
		out = append(out, AnimeCharacter{
			MalID:    item.Character.MalID,
			Name:     item.Character.Name,
			Role:     item.Role,
			ImageURL: item.Character.Images.best(),
		})
	}
	return out, nil
}

func (j *Jikan) GetEpisodes(ctx context.Context, animeID int) ([]Episode, error) {
	var resp struct {
		Data []jikanEpisode `json:"data"`
	}
	found, err := j.req.getJSON(ctx, fmt.Sprintf("%s/anime/%d/episodes", j.base, animeID), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching episodes for anime %d: %w", animeID, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]Episode, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, Episode{
			MalID:         item.MalID,
			Title:         item.Title,
			TitleJapanese: item.TitleJapanese,
			Aired:         item.Aired,
			Score:         item.Score,
			Filler:        item.Filler,
			Recap:         item.Recap,
		})
	}
	return out, nil
}

func (j *Jikan) SearchCharacters(ctx context.Context, query string, limit int) ([]CharacterInfo, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(clampLimit(limit, 25)))
	q.Set("order_by", "favorites")
	q.Set("sort", "desc")

	var resp struct {
		Data []jikanCharacter `json:"data"`
	}
	found, err := j.req.getJSON(ctx, j.base+"/characters?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching characters %q: %w", query, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]CharacterInfo, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, CharacterInfo{
			MalID:     item.MalID,
			Name:      item.Name,
			NameKanji: item.NameKanji,
			Nicknames: nonEmpty(item.Nicknames),
			About:     strings.TrimSpace(item.About),
			ImageURL:  item.Images.best(),
			Favorites: item.Favorites,
		})
	}
	return out, nil
}

// GetCharacterInfo returns the best-matching character for name, or nil.
func (j *Jikan) GetCharacterInfo(ctx context.Context, name string) (*CharacterInfo, error) {
	hits, err := j.SearchCharacters(ctx, name, 5)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	best := 0
	bestScore := -1.0
	for i, hit := range hits {
		if score := Score(name, hit.Name); score > bestScore {
			best, bestScore = i, score
		}
	}
	return &hits[best], nil
}

func (a jikanAnime) normalize() AnimeInfo {
	year := a.Year
	if year == 0 && len(a.Aired.From) >= 4 {
		year, _ = strconv.Atoi(a.Aired.From[:4])
	}
	return AnimeInfo{
		MalID:         a.MalID,
		Title:         a.Title,
		TitleEnglish:  a.TitleEnglish,
		TitleJapanese: a.TitleJapanese,
		Synonyms:      nonEmpty(a.TitleSynonyms),
		Synopsis:      strings.TrimSpace(a.Synopsis),
		Genres:        names(a.Genres),
		Themes:        names(a.Themes),
		Studios:       names(a.Studios),
		Status:        a.Status,
		Episodes:      a.Episodes,
		Year:          year,
		Score:         a.Score,
		ImageURL:      a.Images.best(),
		URL:           a.URL,
	}
}

func names(items []jikanNamed) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if name := strings.TrimSpace(item.Name); name != "" {
			out = append(out, name)
		}
	}
	return out
}

func nonEmpty(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func clampLimit(limit, ceiling int) int {
	if limit <= 0 {
		return 10
	}
	if limit > ceiling {
		return ceiling
	}
	return limit
}
