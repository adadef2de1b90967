package store

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type AdventureContext struct {
	AdventureID      string         `json:"adventure_id"`
	SourceName       string         `json:"source_name"`
	CurrentArc       string         `json:"current_arc,omitempty"`
	ActiveCharacters []string       `json:"active_characters"`
	StoryState       map[string]any `json:"story_state"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

type AdventureEvent struct {
	ID          string         `json:"id"`
	AdventureID string         `json:"adventure_id"`
	EventType   string         `json:"event_type"`
	Description string         `json:"description"`
	Metadata    map[string]any `json:"metadata"`
	Timestamp   time.Time      `json:"timestamp"`
}

// Normalize fills the defaults every backend stores: non-nil collections and
// an updated_at of now.
func (c *AdventureContext) Normalize(now time.Time) {
	c.AdventureID = strings.TrimSpace(c.AdventureID)
	if c.ActiveCharacters == nil {
		c.ActiveCharacters = []string{}
	}
	if c.StoryState == nil {
		c.StoryState = map[string]any{}
	}
	c.UpdatedAt = now.UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = c.UpdatedAt
	}
}

// Normalize assigns a random ID and the current time when they are unset.
func (e *AdventureEvent) Normalize(now time.Time) {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now.UTC()
	}
	if e.Metadata == nil {
		e.Metadata = map[string]any{}
	}
}
