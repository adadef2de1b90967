package sources

import (
	"context"
	"fmt"
	"strings"
	"time"
)

const (
	anilistBase         = "https://graphql.anilist.co"
	anilistDefaultDelay = time.Second
)

const mediaQuery = `query ($search: String, $type: MediaType) {
  Media(search: $search, type: $type) {
    id
    title { romaji english native }
    synonyms
    description(asHtml: false)
    genres
    tags { name rank }
    status
    episodes
    chapters
    averageScore
    startDate { year }
    coverImage { large }
    studios(isMain: true) { nodes { name } }
    characters(sort: ROLE, perPage: 25) { nodes { name { full native } } }
  }
}`

const characterQuery = `query ($search: String) {
  Character(search: $search) {
    id
    name { full native alternative }
    description(asHtml: false)
    gender
    age
    image { large }
    media(perPage: 5) { nodes { title { romaji english } } }
  }
}`

const characterSearchQuery = `query ($search: String, $perPage: Int) {
  Page(perPage: $perPage) {
    characters(search: $search) {
      id
      name { full native alternative }
      description(asHtml: false)
      image { large }
    }
  }
}`

// AniList queries the AniList GraphQL endpoint.
type AniList struct {
	endpoint string
	req      *requester
}

func NewAniList(opts Options) *AniList {
	endpoint := opts.BaseURL
	if endpoint == "" {
		endpoint = anilistBase
	}
	return &AniList{
		endpoint: endpoint,
		req:      newRequester("anilist", opts, anilistDefaultDelay),
	}
}

type graphqlRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables"`
}

type graphqlError struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

type anilistTitle struct {
	Romaji  string `json:"romaji"`
	English string `json:"english"`
	Native  string `json:"native"`
}

type anilistName struct {
	Full        string   `json:"full"`
	Native      string   `json:"native"`
	Alternative []string `json:"alternative"`
}

type anilistMedia struct {
	ID          int          `json:"id"`
	Title       anilistTitle `json:"title"`
	Synonyms    []string     `json:"synonyms"`
	Description string       `json:"description"`
	Genres      []string     `json:"genres"`
	Tags        []struct {
		Name string `json:"name"`
		Rank int    `json:"rank"`
	} `json:"tags"`
	Status       string `json:"status"`
	Episodes     int    `json:"episodes"`
	Chapters     int    `json:"chapters"`
	AverageScore int    `json:"averageScore"`
	StartDate    struct {
		Year int `json:"year"`
	} `json:"startDate"`
	CoverImage struct {
		Large string `json:"large"`
	} `json:"coverImage"`
	Studios struct {
		Nodes []struct {
			Name string `json:"name"`
		} `json:"nodes"`
	} `json:"studios"`
	Characters struct {
		Nodes []struct {
			Name anilistName `json:"name"`
		} `json:"nodes"`
	} `json:"characters"`
}

type anilistCharacter struct {
	ID          int         `json:"id"`
	Name        anilistName `json:"name"`
	Description string      `json:"description"`
	Gender      string      `json:"gender"`
	Age         string      `json:"age"`
	Image       struct {
		Large string `json:"large"`
	} `json:"image"`
	Media struct {
		Nodes []struct {
			Title anilistTitle `json:"title"`
		} `json:"nodes"`
	} `json:"media"`
}

// GetMediaInfo looks up a single media entry; mediaType is ANIME or MANGA
// (empty means ANIME).
func (a *AniList) GetMediaInfo(ctx context.Context, name, mediaType string) (*MediaInfo, error) {
	if mediaType == "" {
		mediaType = "ANIME"
	}
	var resp struct {
		Data struct {
			Media *anilistMedia `json:"Media"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	vars := map[string]any{"search": name, "type": strings.ToUpper(mediaType)}
	found, err := a.query(ctx, mediaQuery, vars, &resp, &resp.Errors)
	if err != nil {
		return nil, fmt.Errorf("fetching media %q: %w", name, err)
	}
	if !found || resp.Data.Media == nil {
		return nil, nil
	}

	m := resp.Data.Media
	info := &MediaInfo{
		ID:           m.ID,
		TitleRomaji:  m.Title.Romaji,
		TitleEnglish: m.Title.English,
		TitleNative:  m.Title.Native,
		Synonyms:     nonEmpty(m.Synonyms),
		Description:  StripMarkup(m.Description),
		Genres:       nonEmpty(m.Genres),
		Status:       m.Status,
		Episodes:     m.Episodes,
		Chapters:     m.Chapters,
		StartYear:    m.StartDate.Year,
		AverageScore: m.AverageScore,
		CoverImage:   m.CoverImage.Large,
	}
	for _, tag := range m.Tags {
		if tag.Name != "" {
			info.Tags = append(info.Tags, tag.Name)
		}
	}
	for _, studio := range m.Studios.Nodes {
		if studio.Name != "" {
			info.Studios = append(info.Studios, studio.Name)
		}
	}
	for _, node := range m.Characters.Nodes {
		if node.Name.Full != "" {
			info.Characters = append(info.Characters, node.Name.Full)
		}
	}
	return info, nil
}

func (a *AniList) GetCharacterInfo(ctx context.Context, name string) (*AniListCharacter, error) {
	var resp struct {
		Data struct {
			Character *anilistCharacter `json:"Character"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	found, err := a.query(ctx, characterQuery, map[string]any{"search": name}, &resp, &resp.Errors)
	if err != nil {
		return nil, fmt.Errorf("fetching character %q: %w", name, err)
	}
	if !found || resp.Data.Character == nil {
		return nil, nil
	}
	c := resp.Data.Character.normalize()
	return &c, nil
}

func (a *AniList) SearchCharacters(ctx context.Context, query string, limit int) ([]AniListCharacter, error) {
	var resp struct {
		Data struct {
			Page struct {
				Characters []anilistCharacter `json:"characters"`
			} `json:"Page"`
		} `json:"data"`
		Errors []graphqlError `json:"errors"`
	}
	vars := map[string]any{"search": query, "perPage": clampLimit(limit, 50)}
	found, err := a.query(ctx, characterSearchQuery, vars, &resp, &resp.Errors)
	if err != nil {
		return nil, fmt.Errorf("searching characters %q: %w", query, err)
	}
	if !found {
		return nil, nil
	}

	out := make([]AniListCharacter, 0, len(resp.Data.Page.Characters))
	for _, item := range resp.Data.Page.Characters {
		out = append(out, item.normalize())
	}
	return out, nil
}

// query posts a GraphQL document. GraphQL errors carrying status 404 are
// reported as not found; any other GraphQL error fails the call.
func (a *AniList) query(ctx context.Context, doc string, vars map[string]any, out any, errs *[]graphqlError) (bool, error) {
	found, err := a.req.postJSON(ctx, a.endpoint, graphqlRequest{Query: doc, Variables: vars}, out)
	if err != nil || !found {
		return found, err
	}
	for _, gqlErr := range *errs {
		if gqlErr.Status == 404 {
			return false, nil
		}
	}
	if len(*errs) > 0 {
		first := (*errs)[0]
		return false, fmt.Errorf("anilist: graphql error: %s (status %d)", first.Message, first.Status)
	}
	return true, nil
}

func (c anilistCharacter) normalize() AniListCharacter {
	out := AniListCharacter{
		ID:          c.ID,
		Name:        c.Name.Full,
		NativeName:  c.Name.Native,
		Alternative: nonEmpty(c.Name.Alternative),
		Description: StripMarkup(c.Description),
		Gender:      c.Gender,
		Age:         c.Age,
		ImageURL:    c.Image.Large,
	}
	for _, node := range c.Media.Nodes {
		title := node.Title.English
		if title == "" {
			title = node.Title.Romaji
		}
		if title != "" {
			out.Media = append(out.Media, title)
		}
	}
	return out
}
