package tools

// Kind is the JSON type of a tool argument.
type Kind string

const (
	KindString     Kind = "string"
	KindInteger    Kind = "integer"
	KindStringList Kind = "array"
	KindObject     Kind = "object"
)

type Arg struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Tool describes one entry of the catalog.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Args        []Arg  `json:"arguments"`
}

// Required lists the names of the required arguments in declaration order.
func (t Tool) Required() []string {
	var names []string
	for _, a := range t.Args {
		if a.Required {
			names = append(names, a.Name)
		}
	}
	return names
}

func required(name string, kind Kind, description string) Arg {
	return Arg{Name: name, Kind: kind, Description: description, Required: true}
}

func optional(name string, kind Kind, description string) Arg {
	return Arg{Name: name, Kind: kind, Description: description}
}

var catalog = []Tool{
	{
		Name:        "get_story_info",
		Description: "Get merged information about an anime or manga series",
		Args: []Arg{
			required("source_name", KindString, "series title, e.g. One Piece"),
		},
	},
	{
		Name:        "get_character_data",
		Description: "Get a character's merged profile, abilities and relationships",
		Args: []Arg{
			required("character_name", KindString, "character name"),
			required("source_name", KindString, "series the character belongs to"),
			optional("arc_context", KindString, "story arc the character is seen in"),
		},
	},
	{
		Name:        "get_location_data",
		Description: "Get details about a location in a series",
		Args: []Arg{
			required("location_name", KindString, "location name"),
			required("source_name", KindString, "series the location belongs to"),
			optional("time_period", KindString, "time period the location is seen in"),
		},
	},
	{
		Name:        "get_timeline_events",
		Description: "List a series' episodes in order, optionally filtered by arc",
		Args: []Arg{
			required("source_name", KindString, "series title"),
			optional("arc_name", KindString, "keep only events whose title contains this"),
			optional("limit", KindInteger, "maximum number of events"),
		},
	},
	{
		Name:        "set_adventure_context",
		Description: "Create or replace the context of a roleplay adventure",
		Args: []Arg{
			required("adventure_id", KindString, "adventure identifier"),
			required("source_name", KindString, "series the adventure is set in"),
			optional("current_arc", KindString, "current story arc"),
			optional("active_characters", KindStringList, "characters taking part"),
			optional("story_state", KindObject, "free-form story state"),
		},
	},
	{
		Name:        "get_adventure_state",
		Description: "Get an adventure's context and its most recent events",
		Args: []Arg{
			required("adventure_id", KindString, "adventure identifier"),
			optional("event_limit", KindInteger, "maximum number of events"),
		},
	},
	{
		Name:        "add_adventure_event",
		Description: "Record an event in an adventure's history",
		Args: []Arg{
			required("adventure_id", KindString, "adventure identifier"),
			required("event_type", KindString, "event type, e.g. battle"),
			required("description", KindString, "what happened"),
			optional("metadata", KindObject, "free-form event details"),
		},
	},
	{
		Name:        "search_story_content",
		Description: "Search characters, series and wiki pages ranked by relevance",
		Args: []Arg{
			required("source_name", KindString, "series to search in"),
			required("query", KindString, "search terms"),
			optional("content_type", KindString, "character, location, event or story"),
			optional("limit", KindInteger, "maximum number of results"),
		},
	},
	{
		Name:        "validate_story_element",
		Description: "Check that a character, location or event exists in a series",
		Args: []Arg{
			required("source_name", KindString, "series title"),
			required("element_type", KindString, "character, location, event or story"),
			required("element_name", KindString, "name to validate"),
		},
	},
	{
		Name:        "get_manga_info",
		Description: "Get merged manga details including authors",
		Args: []Arg{
			required("manga_title", KindString, "manga title"),
		},
	},
	{
		Name:        "search_manga",
		Description: "Search manga titles",
		Args: []Arg{
			required("query", KindString, "search terms"),
			optional("limit", KindInteger, "maximum number of results"),
		},
	},
	{
		Name:        "get_manga_chapters",
		Description: "List the chapters of a manga",
		Args: []Arg{
			required("manga_id", KindString, "MangaDex manga id"),
			optional("language", KindString, "translation language, default en"),
			optional("limit", KindInteger, "maximum number of chapters"),
		},
	},
	{
		Name:        "analyze_story_elements",
		Description: "Derive genre, tone and complexity profile of a series",
		Args: []Arg{
			required("source_name", KindString, "series title"),
		},
	},
}
