package sources

// AnimeInfo is the normalised Jikan anime record.
type AnimeInfo struct {
	MalID         int      `json:"mal_id"`
	Title         string   `json:"title"`
	TitleEnglish  string   `json:"title_english"`
	TitleJapanese string   `json:"title_japanese"`
	Synonyms      []string `json:"synonyms"`
	Synopsis      string   `json:"synopsis"`
	Genres        []string `json:"genres"`
	Themes        []string `json:"themes"`
	Studios       []string `json:"studios"`
	Status        string   `json:"status"`
	Episodes      int      `json:"episodes"`
	Year          int      `json:"year"`
	Score         float64  `json:"score"`
	ImageURL      string   `json:"image_url"`
	URL           string   `json:"url"`
}

type AnimeCharacter struct {
	MalID    int    `json:"mal_id"`
	Name     string `json:"name"`
	Role     string `json:"role"`
	ImageURL string `json:"image_url"`
}

type Episode struct {
	MalID         int     `json:"mal_id"`
	Title         string  `json:"title"`
	TitleJapanese string  `json:"title_japanese"`
	Aired         string  `json:"aired"`
	Score         float64 `json:"score"`
	Filler        bool    `json:"filler"`
	Recap         bool    `json:"recap"`
}

// CharacterInfo is the normalised Jikan character record.
type CharacterInfo struct {
	MalID     int      `json:"mal_id"`
	Name      string   `json:"name"`
	NameKanji string   `json:"name_kanji"`
	Nicknames []string `json:"nicknames"`
	About     string   `json:"about"`
	ImageURL  string   `json:"image_url"`
	Favorites int      `json:"favorites"`
}

// MediaInfo is the normalised AniList media record.
type MediaInfo struct {
	ID           int      `json:"id"`
	TitleRomaji  string   `json:"title_romaji"`
	TitleEnglish string   `json:"title_english"`
	TitleNative  string   `json:"title_native"`
	Synonyms     []string `json:"synonyms"`
	Description  string   `json:"description"`
	Genres       []string `json:"genres"`
	Tags         []string `json:"tags"`
	Studios      []string `json:"studios"`
	Characters   []string `json:"characters"`
	Status       string   `json:"status"`
	Episodes     int      `json:"episodes"`
	Chapters     int      `json:"chapters"`
	StartYear    int      `json:"start_year"`
	AverageScore int      `json:"average_score"`
	CoverImage   string   `json:"cover_image"`
}

// AniListCharacter is the normalised AniList character record.
type AniListCharacter struct {
	ID          int      `json:"id"`
	Name        string   `json:"name"`
	NativeName  string   `json:"native_name"`
	Alternative []string `json:"alternative"`
	Description string   `json:"description"`
	Gender      string   `json:"gender"`
	Age         string   `json:"age"`
	ImageURL    string   `json:"image_url"`
	Media       []string `json:"media"`
}

// MangaInfo is the normalised MangaDex manga record.
type MangaInfo struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	AltTitles     []string `json:"alt_titles"`
	Description   string   `json:"description"`
	Status        string   `json:"status"`
	Year          int      `json:"year"`
	ContentRating string   `json:"content_rating"`
	Tags          []string `json:"tags"`
	Authors       []string `json:"authors"`
	Artists       []string `json:"artists"`
	AuthorIDs     []string `json:"author_ids"`
	LastChapter   string   `json:"last_chapter"`
	CoverURL      string   `json:"cover_url"`
}

type Chapter struct {
	ID        string `json:"id"`
	Volume    string `json:"volume"`
	Chapter   string `json:"chapter"`
	Title     string `json:"title"`
	Language  string `json:"language"`
	Pages     int    `json:"pages"`
	PublishAt string `json:"publish_at"`
}

type Author struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Biography string `json:"biography"`
}

// WikiCharacter holds the fields extracted from a character wiki page.
type WikiCharacter struct {
	Name            string   `json:"name"`
	Summary         string   `json:"summary"`
	Appearance      string   `json:"appearance"`
	Personality     string   `json:"personality"`
	History         string   `json:"history"`
	Abilities       []string `json:"abilities"`
	Relationships   []string `json:"relationships"`
	Affiliations    []string `json:"affiliations"`
	Aliases         []string `json:"aliases"`
	Status          string   `json:"status"`
	Age             string   `json:"age"`
	Height          string   `json:"height"`
	Occupation      string   `json:"occupation"`
	Residence       string   `json:"residence"`
	FirstAppearance string   `json:"first_appearance"`
	URL             string   `json:"url"`
}

// WikiLocation holds the fields extracted from a location wiki page.
type WikiLocation struct {
	Name            string   `json:"name"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Region          string   `json:"region"`
	History         string   `json:"history"`
	Inhabitants     []string `json:"inhabitants"`
	Landmarks       []string `json:"landmarks"`
	Affiliations    []string `json:"affiliations"`
	FirstAppearance string   `json:"first_appearance"`
	URL             string   `json:"url"`
}

type WikiPage struct {
	Title   string `json:"title"`
	Summary string `json:"summary"`
	URL     string `json:"url"`
}

type WikiSearchHit struct {
	PageID  int    `json:"page_id"`
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	Type    string `json:"type"`
	URL     string `json:"url"`
}
