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
	mangadexBase         = "https://api.mangadex.org"
	mangadexUploads      = "https://uploads.mangadex.org"
	mangadexDefaultDelay = 200 * time.Millisecond
)

// MangaDex fetches manga, chapter and author records from the MangaDex API.
type MangaDex struct {
	base string
	req  *requester
}

func NewMangaDex(opts Options) *MangaDex {
	base := opts.BaseURL
	if base == "" {
		base = mangadexBase
	}
	return &MangaDex{
		base: strings.TrimRight(base, "/"),
		req:  newRequester("mangadex", opts, mangadexDefaultDelay),
	}
}

type mdManga struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Attributes struct {
		Title         map[string]string   `json:"title"`
		AltTitles     []map[string]string `json:"altTitles"`
		Description   map[string]string   `json:"description"`
		Status        string              `json:"status"`
		Year          int                 `json:"year"`
		ContentRating string              `json:"contentRating"`
		LastChapter   string              `json:"lastChapter"`
		Tags          []struct {
			Attributes struct {
				Name map[string]string `json:"name"`
			} `json:"attributes"`
		} `json:"tags"`
	} `json:"attributes"`
	Relationships []struct {
		ID         string `json:"id"`
		Type       string `json:"type"`
		Attributes struct {
			Name     string `json:"name"`
			FileName string `json:"fileName"`
		} `json:"attributes"`
	} `json:"relationships"`
}

type mdChapter struct {
	ID         string `json:"id"`
	Attributes struct {
		Volume             string `json:"volume"`
		Chapter            string `json:"chapter"`
		Title              string `json:"title"`
		TranslatedLanguage string `json:"translatedLanguage"`
		Pages              int    `json:"pages"`
		PublishAt          string `json:"publishAt"`
	} `json:"attributes"`
}

func (m *MangaDex) SearchManga(ctx context.Context, title string, limit int) ([]MangaInfo, error) {
	q := url.Values{}
	q.Set("title", title)
	q.Set("limit", strconv.Itoa(clampLimit(limit, 100)))
	q.Add("contentRating[]", "safe")
	q.Add("contentRating[]", "suggestive")
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")
	q.Add("includes[]", "cover_art")
	q.Set("order[relevance]", "desc")

	var resp struct {
		Result string    `json:"result"`
		Data   []mdManga `json:"data"`
	}
	found, err := m.req.getJSON(ctx, m.base+"/manga?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching manga %q: %w", title, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]MangaInfo, 0, len(resp.Data))
	for _, item := range resp.Data {
		if info, ok := item.normalize(); ok {
			out = append(out, info)
		}
	}
	return out, nil
}

// GetMangaInfo returns the search hit whose titles best match title, or nil.
func (m *MangaDex) GetMangaInfo(ctx context.Context, title string) (*MangaInfo, error) {
	hits, err := m.SearchManga(ctx, title, 5)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return nil, nil
	}

	best := 0
	bestScore := -1.0
	for i, hit := range hits {
		score := Score(title, hit.Title)
		for _, alt := range hit.AltTitles {
			if s := Score(title, alt); s > score {
				score = s
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	return &hits[best], nil
}

func (m *MangaDex) GetManga(ctx context.Context, id string) (*MangaInfo, error) {
	q := url.Values{}
	q.Add("includes[]", "author")
	q.Add("includes[]", "artist")
	q.Add("includes[]", "cover_art")

	var resp struct {
		Result string  `json:"result"`
		Data   mdManga `json:"data"`
	}
	found, err := m.req.getJSON(ctx, m.base+"/manga/"+url.PathEscape(id)+"?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching manga %s: %w", id, err)
	}
	if !found {
		return nil, nil
	}
	info, ok := resp.Data.normalize()
	if !ok {
		return nil, nil
	}
	return &info, nil
}

// GetChapters lists chapters of a manga in ascending chapter order. An empty
// lang defaults to English.
func (m *MangaDex) GetChapters(ctx context.Context, mangaID, lang string, limit int) ([]Chapter, error) {
	if lang == "" {
		lang = "en"
	}
	q := url.Values{}
	q.Add("translatedLanguage[]", lang)
	q.Set("order[chapter]", "asc")
	q.Set("limit", strconv.Itoa(clampLimit(limit, 500)))

	var resp struct {
		Data []mdChapter `json:"data"`
	}
	found, err := m.req.getJSON(ctx, m.base+"/manga/"+url.PathEscape(mangaID)+"/feed?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching chapters for manga %s: %w", mangaID, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]Chapter, 0, len(resp.Data))
	for _, item := range resp.Data {
		out = append(out, Chapter{
			ID:        item.ID,
			Volume:    item.Attributes.Volume,
			Chapter:   item.Attributes.Chapter,
			Title:     item.Attributes.Title,
			Language:  item.Attributes.TranslatedLanguage,
			Pages:     item.Attributes.Pages,
			PublishAt: item.Attributes.PublishAt,
		})
	}
	return out, nil
}

func (m *MangaDex) GetAuthor(ctx context.Context, id string) (*Author, error) {
	var resp struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				Name      string            `json:"name"`
				Biography map[string]string `json:"biography"`
			} `json:"attributes"`
		} `json:"data"`
	}
	found, err := m.req.getJSON(ctx, m.base+"/author/"+url.PathEscape(id), &resp)
	if err != nil {
		return nil, fmt.Errorf("fetching author %s: %w", id, err)
	}
	if !found || resp.Data.ID == "" {
		return nil, nil
	}
	return &Author{
		ID:        resp.Data.ID,
		Name:      resp.Data.Attributes.Name,
		Biography: StripMarkup(pickLang(resp.Data.Attributes.Biography, "en")),
	}, nil
}

func (item mdManga) normalize() (MangaInfo, bool) {
	if item.ID == "" {
		return MangaInfo{}, false
	}
	title := pickLang(item.Attributes.Title, "en")
	if title == "" {
		title = anyLang(item.Attributes.Title)
	}
	if title == "" {
		return MangaInfo{}, false
	}

	info := MangaInfo{
		ID:            item.ID,
		Title:         title,
		Description:   StripMarkup(pickLang(item.Attributes.Description, "en")),
		Status:        normalizeStatus(item.Attributes.Status),
		Year:          item.Attributes.Year,
		ContentRating: item.Attributes.ContentRating,
		LastChapter:   item.Attributes.LastChapter,
	}

	for _, alt := range item.Attributes.AltTitles {
		at := pickLang(alt, "en")
		if at == "" {
			at = anyLang(alt)
		}
		if at != "" && at != title {
			info.AltTitles = appendIfMissing(info.AltTitles, at)
		}
	}
	for _, tag := range item.Attributes.Tags {
		if name := pickLang(tag.Attributes.Name, "en"); name != "" {
			info.Tags = append(info.Tags, name)
		}
	}

	coverFile := ""
	for _, rel := range item.Relationships {
		switch rel.Type {
		case "author":
			info.AuthorIDs = appendIfMissing(info.AuthorIDs, rel.ID)
			if rel.Attributes.Name != "" {
				info.Authors = appendIfMissing(info.Authors, rel.Attributes.Name)
			}
		case "artist":
			if rel.Attributes.Name != "" {
				info.Artists = appendIfMissing(info.Artists, rel.Attributes.Name)
			}
		case "cover_art":
			if coverFile == "" {
				coverFile = rel.Attributes.FileName
			}
		}
	}
	if coverFile != "" {
		info.CoverURL = fmt.Sprintf("%s/covers/%s/%s", mangadexUploads, item.ID, coverFile)
	}
	return info, true
}

func pickLang(m map[string]string, lang string) string {
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[lang])
}

// anyLang picks a deterministic fallback: Japanese romanisation first, then
// the lexically smallest language code.
func anyLang(m map[string]string) string {
	if v := pickLang(m, "ja-ro"); v != "" {
		return v
	}
	best := ""
	for lang, v := range m {
		if strings.TrimSpace(v) == "" {
			continue
		}
		if best == "" || lang < best {
			best = lang
		}
	}
	if best == "" {
		return ""
	}
	return strings.TrimSpace(m[best])
}

func normalizeStatus(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "cancelled", "canceled":
		return "cancelled"
	default:
		return strings.ToLower(strings.TrimSpace(s))
	}
}

func appendIfMissing(items []string, item string) []string {
	for _, existing := range items {
		if strings.EqualFold(existing, item) {
			return items
		}
	}
	return append(items, item)
}
