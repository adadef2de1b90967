package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode"
)

const (
	wikiBase         = "https://%s.fandom.com"
	wikiDefaultDelay = 500 * time.Millisecond
	sectionLimit     = 1200
)

var (
	locationKeywords = []string{"island", "village", "city", "kingdom", "town", "country", "sea", "forest", "mountain", "castle"}
	eventKeywords    = []string{"war", "battle", "arc", "incident", "saga", "invasion", "massacre"}
)

// Wiki reads character and location pages from a MediaWiki installation,
// one wiki per story. The base URL is a format string receiving the wiki slug.
type Wiki struct {
	base string
	req  *requester
}

func NewWiki(opts Options) *Wiki {
	base := opts.BaseURL
	if base == "" {
		base = wikiBase
	}
	return &Wiki{
		base: strings.TrimRight(base, "/"),
		req:  newRequester("wiki", opts, wikiDefaultDelay),
	}
}

// Slug derives the wiki subdomain from a story name: "One Piece" becomes
// "onepiece".
func Slug(source string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(source) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func (w *Wiki) site(source string) string {
	return fmt.Sprintf(w.base, Slug(source))
}

func (w *Wiki) pageURL(source, title string) string {
	return w.site(source) + "/wiki/" + url.PathEscape(strings.ReplaceAll(title, " ", "_"))
}

type parseResponse struct {
	Parse struct {
		Title    string `json:"title"`
		PageID   int    `json:"pageid"`
		Wikitext string `json:"wikitext"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// fetchPage returns the parsed page or found == false when the wiki has no
// such page.
func (w *Wiki) fetchPage(ctx context.Context, source, title string) (string, wikiDocument, bool, error) {
	q := url.Values{}
	q.Set("action", "parse")
	q.Set("page", title)
	q.Set("prop", "wikitext")
	q.Set("redirects", "1")
	q.Set("format", "json")
	q.Set("formatversion", "2")

	var resp parseResponse
	found, err := w.req.getJSON(ctx, w.site(source)+"/api.php?"+q.Encode(), &resp)
	if err != nil {
		return "", wikiDocument{}, false, err
	}
	if !found {
		return "", wikiDocument{}, false, nil
	}
	if resp.Error != nil {
		switch resp.Error.Code {
		case "missingtitle", "invalidtitle", "nosuchpageid":
			return "", wikiDocument{}, false, nil
		}
		return "", wikiDocument{}, false, fmt.Errorf("wiki: %s: %s", resp.Error.Code, resp.Error.Info)
	}
	pageTitle := resp.Parse.Title
	if pageTitle == "" {
		pageTitle = title
	}
	return pageTitle, parseWikitext(resp.Parse.Wikitext), true, nil
}

func (w *Wiki) GetCharacterInfo(ctx context.Context, source, name string) (*WikiCharacter, error) {
	title, doc, found, err := w.fetchPage(ctx, source, name)
	if err != nil {
		return nil, fmt.Errorf("fetching wiki character %q: %w", name, err)
	}
	if !found {
		return nil, nil
	}

	info := &WikiCharacter{
		Name:            firstNonEmpty(doc.field("ename", "name", "title"), title),
		Summary:         firstParagraphs(doc.lead, sectionLimit),
		Appearance:      doc.text(sectionLimit, "Appearance"),
		Personality:     doc.text(sectionLimit, "Personality"),
		History:         doc.text(sectionLimit, "History", "Background"),
		Abilities:       doc.items("Abilities and Powers", "Powers and Abilities", "Abilities", "Powers"),
		Relationships:   doc.items("Relationships"),
		Affiliations:    splitList(doc.field("affiliation", "affiliations")),
		Aliases:         splitList(doc.field("epithet", "alias", "aliases", "nickname")),
		Status:          doc.field("status"),
		Age:             doc.field("age"),
		Height:          doc.field("height"),
		Occupation:      doc.field("occupation", "occupations"),
		Residence:       doc.field("residence"),
		FirstAppearance: doc.field("first", "debut", "first appearance"),
		URL:             w.pageURL(source, title),
	}
	return info, nil
}

func (w *Wiki) GetLocationInfo(ctx context.Context, source, name string) (*WikiLocation, error) {
	title, doc, found, err := w.fetchPage(ctx, source, name)
	if err != nil {
		return nil, fmt.Errorf("fetching wiki location %q: %w", name, err)
	}
	if !found {
		return nil, nil
	}

	info := &WikiLocation{
		Name:            firstNonEmpty(doc.field("ename", "name", "title"), title),
		Summary:         firstParagraphs(doc.lead, sectionLimit),
		Description:     doc.text(sectionLimit, "Geography", "Layout", "Description", "Overview"),
		Type:            doc.field("type"),
		Region:          doc.field("region", "location", "sea"),
		History:         doc.text(sectionLimit, "History"),
		Inhabitants:     doc.items("Inhabitants", "Residents", "Population"),
		Landmarks:       doc.items("Locations", "Landmarks", "Notable Locations", "Places"),
		Affiliations:    splitList(doc.field("affiliation", "affiliations")),
		FirstAppearance: doc.field("first", "debut", "first appearance"),
		URL:             w.pageURL(source, title),
	}
	if len(info.Inhabitants) == 0 {
		info.Inhabitants = splitList(doc.field("inhabitants", "residents"))
	}
	return info, nil
}

func (w *Wiki) GetPageSummary(ctx context.Context, source, title string) (*WikiPage, error) {
	pageTitle, doc, found, err := w.fetchPage(ctx, source, title)
	if err != nil {
		return nil, fmt.Errorf("fetching wiki page %q: %w", title, err)
	}
	if !found {
		return nil, nil
	}
	return &WikiPage{
		Title:   pageTitle,
		Summary: firstParagraphs(doc.lead, sectionLimit),
		URL:     w.pageURL(source, pageTitle),
	}, nil
}

// Search runs a full-text search on the story's wiki and classifies every
// hit as a character, location or event by title keywords.
func (w *Wiki) Search(ctx context.Context, source, query string, limit int) ([]WikiSearchHit, error) {
	q := url.Values{}
	q.Set("action", "query")
	q.Set("list", "search")
	q.Set("srsearch", query)
	q.Set("srlimit", strconv.Itoa(clampLimit(limit, 50)))
	q.Set("format", "json")
	q.Set("formatversion", "2")

	var resp struct {
		Query struct {
			Search []struct {
				PageID  int    `json:"pageid"`
				Title   string `json:"title"`
				Snippet string `json:"snippet"`
			} `json:"search"`
		} `json:"query"`
	}
	found, err := w.req.getJSON(ctx, w.site(source)+"/api.php?"+q.Encode(), &resp)
	if err != nil {
		return nil, fmt.Errorf("searching wiki for %q: %w", query, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]WikiSearchHit, 0, len(resp.Query.Search))
	for _, item := range resp.Query.Search {
		if item.Title == "" {
			continue
		}
		out = append(out, WikiSearchHit{
			PageID:  item.PageID,
			Title:   item.Title,
			Snippet: StripMarkup(item.Snippet),
			Type:    Classify(item.Title),
			URL:     w.pageURL(source, item.Title),
		})
	}
	return out, nil
}

// Classify guesses the content type of a wiki page from its title.
func Classify(title string) string {
	lower := strings.ToLower(title)
	for _, word := range strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		for _, kw := range locationKeywords {
			if word == kw {
				return "location"
			}
		}
		for _, kw := range eventKeywords {
			if word == kw {
				return "event"
			}
		}
	}
	return "character"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
