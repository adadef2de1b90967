package story

import "loreweave/internal/sources"

// StoryInfo is the unified view of one series across every source.
type StoryInfo struct {
	Title             string   `json:"title"`
	AlternativeTitles []string `json:"alternative_titles"`
	Synopsis          string   `json:"synopsis"`
	Genres            []string `json:"genres"`
	Themes            []string `json:"themes"`
	Tags              []string `json:"tags"`
	Studios           []string `json:"studios"`
	Authors           []string `json:"authors"`
	Status            string   `json:"status"`
	Year              int      `json:"year"`
	Episodes          int      `json:"episodes"`
	Chapters          int      `json:"chapters"`
	Score             float64  `json:"score"`
	MainCharacters    []string `json:"main_characters"`
	WikiSummary       string   `json:"wiki_summary"`
	ImageURL          string   `json:"image_url"`
	WikiURL           string   `json:"wiki_url"`
	Sources           []string `json:"sources"`
}

type Appearance struct {
	Description string `json:"description"`
	Height      string `json:"height"`
	ImageURL    string `json:"image_url"`
}

type CharacterData struct {
	Name            string     `json:"name"`
	Source          string     `json:"source"`
	Aliases         []string   `json:"aliases"`
	Description     string     `json:"description"`
	Appearance      Appearance `json:"appearance"`
	Personality     string     `json:"personality"`
	Background      string     `json:"background"`
	Abilities       []string   `json:"abilities"`
	Relationships   []string   `json:"relationships"`
	Affiliations    []string   `json:"affiliations"`
	Occupation      string     `json:"occupation"`
	Residence       string     `json:"residence"`
	Age             string     `json:"age"`
	Gender          string     `json:"gender"`
	Status          string     `json:"status"`
	Alive           bool       `json:"alive"`
	FirstAppearance string     `json:"first_appearance"`
	Media           []string   `json:"media"`
	ArcContext      string     `json:"arc_context,omitempty"`
	WikiURL         string     `json:"wiki_url"`
	Sources         []string   `json:"sources"`
}

type LocationData struct {
	Name            string   `json:"name"`
	Source          string   `json:"source"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Region          string   `json:"region"`
	History         string   `json:"history"`
	Inhabitants     []string `json:"inhabitants"`
	Landmarks       []string `json:"landmarks"`
	Affiliations    []string `json:"affiliations"`
	Condition       string   `json:"condition"`
	FirstAppearance string   `json:"first_appearance"`
	StoryTitle      string   `json:"story_title"`
	Genres          []string `json:"genres"`
	Mentions        []string `json:"mentions"`
	TimePeriod      string   `json:"time_period,omitempty"`
	WikiURL         string   `json:"wiki_url"`
	Sources         []string `json:"sources"`
}

type TimelineEvent struct {
	Number int     `json:"number"`
	Title  string  `json:"title"`
	Aired  string  `json:"aired"`
	Kind   string  `json:"kind"`
	Score  float64 `json:"score"`
}

type Timeline struct {
	Source    string          `json:"source"`
	Title     string          `json:"title"`
	Arc       string          `json:"arc,omitempty"`
	StartYear int             `json:"start_year"`
	Total     int             `json:"total"`
	Events    []TimelineEvent `json:"events"`
	Sources   []string        `json:"sources"`
}

type SearchResult struct {
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Description string  `json:"description"`
	Source      string  `json:"source"`
	Score       float64 `json:"score"`
	URL         string  `json:"url,omitempty"`
}

type Validation struct {
	ElementType            string        `json:"element_type"`
	ElementName            string        `json:"element_name"`
	IsValid                bool          `json:"is_valid"`
	Match                  *SearchResult `json:"match,omitempty"`
	AlternativeSuggestions []string      `json:"alternative_suggestions"`
	Message                string        `json:"message"`
}

// MangaDetails merges MangaDex (authoritative for ids, authors and tags)
// with AniList's manga record.
type MangaDetails struct {
	ID             string           `json:"id"`
	Title          string           `json:"title"`
	AltTitles      []string         `json:"alt_titles"`
	Description    string           `json:"description"`
	Status         string           `json:"status"`
	Year           int              `json:"year"`
	Chapters       int              `json:"chapters"`
	LastChapter    string           `json:"last_chapter"`
	Genres         []string         `json:"genres"`
	Tags           []string         `json:"tags"`
	Authors        []string         `json:"authors"`
	Artists        []string         `json:"artists"`
	AuthorProfiles []sources.Author `json:"author_profiles"`
	AverageScore   int              `json:"average_score"`
	CoverURL       string           `json:"cover_url"`
	Sources        []string         `json:"sources"`
}

type Analysis struct {
	Source       string   `json:"source"`
	Title        string   `json:"title"`
	Genres       []string `json:"genres"`
	Themes       []string `json:"themes"`
	CastSize     int      `json:"cast_size"`
	ToneKeywords []string `json:"tone_keywords"`
	Tone         string   `json:"tone"`
	Complexity   string   `json:"complexity"`
	Scale        string   `json:"scale"`
	Summary      string   `json:"summary"`
}
