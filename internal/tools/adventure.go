package tools

import (
	"context"
	"errors"
	"fmt"

	"loreweave/internal/store"
)

var errNoStore = errors.New("adventure storage is not configured")

type AdventureState struct {
	Context *store.AdventureContext `json:"context"`
	Events  []store.AdventureEvent  `json:"events"`
}

type ContextUpdate struct {
	Context *store.AdventureContext `json:"context"`
	EventID string                  `json:"event_id"`
}

func (d *Dispatcher) setAdventureContext(ctx context.Context, a Args) (any, error) {
	if d.adventures == nil {
		return nil, errNoStore
	}
	saved, err := d.adventures.SaveAdventureContext(ctx, store.AdventureContext{
		AdventureID:      a.str("adventure_id"),
		SourceName:       a.str("source_name"),
		CurrentArc:       a.str("current_arc"),
		ActiveCharacters: a.list("active_characters"),
		StoryState:       a.object("story_state"),
	})
	if err != nil {
		return nil, fmt.Errorf("saving adventure context: %w", err)
	}

	event, err := d.adventures.AppendAdventureEvent(ctx, store.AdventureEvent{
		AdventureID: saved.AdventureID,
		EventType:   "context_updated",
		Description: fmt.Sprintf("Adventure context set for %s", saved.SourceName),
		Metadata: map[string]any{
			"source_name":       saved.SourceName,
			"current_arc":       saved.CurrentArc,
			"active_characters": saved.ActiveCharacters,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("recording context update: %w", err)
	}
	return ContextUpdate{Context: saved, EventID: event.ID}, nil
}

func (d *Dispatcher) getAdventureState(ctx context.Context, a Args) (any, error) {
	if d.adventures == nil {
		return nil, errNoStore
	}
	id := a.str("adventure_id")
	adventure, err := d.adventures.GetAdventureContext(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading adventure context: %w", err)
	}
	if adventure == nil {
		return nil, invalidParams("get_adventure_state", "adventure not found: %s", id)
	}

	limit := a.integer("event_limit")
	if limit <= 0 {
		limit = defaultEventLimit
	}
	events, err := d.adventures.ListAdventureEvents(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("listing adventure events: %w", err)
	}
	if events == nil {
		events = []store.AdventureEvent{}
	}
	return AdventureState{Context: adventure, Events: events}, nil
}

func (d *Dispatcher) addAdventureEvent(ctx context.Context, a Args) (any, error) {
	if d.adventures == nil {
		return nil, errNoStore
	}
	event, err := d.adventures.AppendAdventureEvent(ctx, store.AdventureEvent{
		AdventureID: a.str("adventure_id"),
		EventType:   a.str("event_type"),
		Description: a.str("description"),
		Metadata:    a.object("metadata"),
	})
	if errors.Is(err, store.ErrAdventureNotFound) {
		return nil, invalidParams("add_adventure_event", "adventure not found: %s", a.str("adventure_id"))
	}
	if err != nil {
		return nil, fmt.Errorf("appending adventure event: %w", err)
	}
	return event, nil
}
