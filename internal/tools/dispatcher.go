// Package tools is the transport-independent tool dispatch layer. The MCP
// server and the REST API both route calls through Dispatcher.Call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/michaelquigley/df/dl"

	"loreweave/internal/sources"
	"loreweave/internal/store"
	"loreweave/internal/story"
)

const defaultEventLimit = 20

// StoryService is the subset of story.Service the tools call.
type StoryService interface {
	GetStoryInfo(ctx context.Context, source string) (*story.StoryInfo, error)
	GetCharacterData(ctx context.Context, name, source, arcContext string) (*story.CharacterData, error)
	GetLocationData(ctx context.Context, name, source, timePeriod string) (*story.LocationData, error)
	GetTimelineEvents(ctx context.Context, source, arc string, limit int) (*story.Timeline, error)
	SearchStoryContent(ctx context.Context, source, query, contentType string, limit int) ([]story.SearchResult, error)
	ValidateStoryElement(ctx context.Context, source, elementType, elementName string) (*story.Validation, error)
	GetMangaInfo(ctx context.Context, title string) (*story.MangaDetails, error)
	SearchManga(ctx context.Context, query string, limit int) ([]sources.MangaInfo, error)
	GetMangaChapters(ctx context.Context, mangaID, lang string, limit int) ([]sources.Chapter, error)
	AnalyzeStoryElements(ctx context.Context, source string) (*story.Analysis, error)
}

type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the success payload of a call: one text item holding the JSON
// encoded value.
type Result struct {
	Content []Content `json:"content"`
}

type handler func(ctx context.Context, args Args) (any, error)

type Dispatcher struct {
	story      StoryService
	adventures store.AdventureStore
	handlers   map[string]handler
	tools      map[string]Tool
}

// New builds a dispatcher. adventures may be nil, in which case the
// adventure tools fail with an internal error.
func New(svc StoryService, adventures store.AdventureStore) *Dispatcher {
	d := &Dispatcher{
		story:      svc,
		adventures: adventures,
		tools:      make(map[string]Tool, len(catalog)),
	}
	d.handlers = map[string]handler{
		"get_story_info":         d.getStoryInfo,
		"get_character_data":     d.getCharacterData,
		"get_location_data":      d.getLocationData,
		"get_timeline_events":    d.getTimelineEvents,
		"set_adventure_context":  d.setAdventureContext,
		"get_adventure_state":    d.getAdventureState,
		"add_adventure_event":    d.addAdventureEvent,
		"search_story_content":   d.searchStoryContent,
		"validate_story_element": d.validateStoryElement,
		"get_manga_info":         d.getMangaInfo,
		"search_manga":           d.searchManga,
		"get_manga_chapters":     d.getMangaChapters,
		"analyze_story_elements": d.analyzeStoryElements,
	}
	for _, t := range catalog {
		d.tools[t.Name] = t
	}
	return d
}

// Catalog returns the tools in their declaration order.
func (d *Dispatcher) Catalog() []Tool {
	out := make([]Tool, len(catalog))
	copy(out, catalog)
	return out
}

// Call validates args against the named tool and runs it. Failures are
// always returned as *Error.
func (d *Dispatcher) Call(ctx context.Context, name string, args map[string]any) (*Result, error) {
	tool, ok := d.tools[name]
	if !ok {
		return nil, methodNotFound(name)
	}
	a := Args(args)
	for _, arg := range tool.Args {
		if arg.Required && !a.present(arg.Name) {
			return nil, invalidParams(name, "missing required argument: %s", arg.Name)
		}
		if err := a.check(arg); err != nil {
			return nil, invalidParams(name, "%v", err)
		}
	}

	start := time.Now()
	value, err := d.handlers[name](ctx, a)
	if err != nil {
		var toolErr *Error
		if errors.As(err, &toolErr) {
			return nil, toolErr
		}
		dl.ChannelLog("tools").With("tool", name).With("error", err).Warn("tool call failed")
		return nil, internal(name, err)
	}

	text, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return nil, internal(name, fmt.Errorf("encoding result: %w", err))
	}
	dl.ChannelLog("tools").With("tool", name).With("duration", time.Since(start)).Debug("tool call")
	return &Result{Content: []Content{{Type: "text", Text: string(text)}}}, nil
}

func (d *Dispatcher) getStoryInfo(ctx context.Context, a Args) (any, error) {
	return d.story.GetStoryInfo(ctx, a.str("source_name"))
}

func (d *Dispatcher) getCharacterData(ctx context.Context, a Args) (any, error) {
	return d.story.GetCharacterData(ctx, a.str("character_name"), a.str("source_name"), a.str("arc_context"))
}

func (d *Dispatcher) getLocationData(ctx context.Context, a Args) (any, error) {
	return d.story.GetLocationData(ctx, a.str("location_name"), a.str("source_name"), a.str("time_period"))
}

func (d *Dispatcher) getTimelineEvents(ctx context.Context, a Args) (any, error) {
	return d.story.GetTimelineEvents(ctx, a.str("source_name"), a.str("arc_name"), a.integer("limit"))
}

func (d *Dispatcher) searchStoryContent(ctx context.Context, a Args) (any, error) {
	results, err := d.story.SearchStoryContent(ctx, a.str("source_name"), a.str("query"), a.str("content_type"), a.integer("limit"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"query": a.str("query"), "results": results, "total": len(results)}, nil
}

func (d *Dispatcher) validateStoryElement(ctx context.Context, a Args) (any, error) {
	return d.story.ValidateStoryElement(ctx, a.str("source_name"), a.str("element_type"), a.str("element_name"))
}

func (d *Dispatcher) getMangaInfo(ctx context.Context, a Args) (any, error) {
	return d.story.GetMangaInfo(ctx, a.str("manga_title"))
}

func (d *Dispatcher) searchManga(ctx context.Context, a Args) (any, error) {
	results, err := d.story.SearchManga(ctx, a.str("query"), a.integer("limit"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"query": a.str("query"), "results": results, "total": len(results)}, nil
}

func (d *Dispatcher) getMangaChapters(ctx context.Context, a Args) (any, error) {
	chapters, err := d.story.GetMangaChapters(ctx, a.str("manga_id"), a.str("language"), a.integer("limit"))
	if err != nil {
		return nil, err
	}
	return map[string]any{"manga_id": a.str("manga_id"), "chapters": chapters, "total": len(chapters)}, nil
}

func (d *Dispatcher) analyzeStoryElements(ctx context.Context, a Args) (any, error) {
	return d.story.AnalyzeStoryElements(ctx, a.str("source_name"))
}
