package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"loreweave/internal/store"
)

func (c *Client) SaveAdventureContext(ctx context.Context, ac store.AdventureContext) (*store.AdventureContext, error) {
	ac.Normalize(c.now())
	if ac.AdventureID == "" {
		return nil, fmt.Errorf("saving adventure context: adventure id is required")
	}

	stateJSON, err := json.Marshal(ac.StoryState)
	if err != nil {
		return nil, fmt.Errorf("marshaling story state: %w", err)
	}

	query := `
INSERT INTO adventure_contexts (adventure_id, source_name, current_arc, active_characters, story_state, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (adventure_id) DO UPDATE SET
    source_name = EXCLUDED.source_name,
    current_arc = EXCLUDED.current_arc,
    active_characters = EXCLUDED.active_characters,
    story_state = EXCLUDED.story_state,
    updated_at = EXCLUDED.updated_at
RETURNING created_at, updated_at
`

	err = c.pool.QueryRow(ctx, query,
		ac.AdventureID,
		ac.SourceName,
		ac.CurrentArc,
		ac.ActiveCharacters,
		stateJSON,
		ac.CreatedAt,
		ac.UpdatedAt,
	).Scan(&ac.CreatedAt, &ac.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting adventure context: %w", err)
	}
	ac.CreatedAt = ac.CreatedAt.UTC()
	ac.UpdatedAt = ac.UpdatedAt.UTC()
	return &ac, nil
}

func (c *Client) GetAdventureContext(ctx context.Context, adventureID string) (*store.AdventureContext, error) {
	query := `
SELECT adventure_id, source_name, current_arc, active_characters, story_state, created_at, updated_at
FROM adventure_contexts
WHERE adventure_id = $1
`

	var ac store.AdventureContext
	var stateBytes []byte
	err := c.pool.QueryRow(ctx, query, adventureID).Scan(
		&ac.AdventureID,
		&ac.SourceName,
		&ac.CurrentArc,
		&ac.ActiveCharacters,
		&stateBytes,
		&ac.CreatedAt,
		&ac.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting adventure context: %w", err)
	}

	if err := json.Unmarshal(stateBytes, &ac.StoryState); err != nil {
		return nil, fmt.Errorf("unmarshaling story state: %w", err)
	}
	if ac.ActiveCharacters == nil {
		ac.ActiveCharacters = []string{}
	}
	ac.CreatedAt = ac.CreatedAt.UTC()
	ac.UpdatedAt = ac.UpdatedAt.UTC()
	return &ac, nil
}

func (c *Client) AppendAdventureEvent(ctx context.Context, e store.AdventureEvent) (*store.AdventureEvent, error) {
	e.Normalize(c.now())

	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling event metadata: %w", err)
	}

	query := `
INSERT INTO adventure_events (event_id, adventure_id, event_type, description, metadata, occurred_at)
SELECT $1::uuid, adventure_id, $3::text, $4::text, $5::jsonb, $6::timestamptz
FROM adventure_contexts
WHERE adventure_id = $2
`

	tag, err := c.pool.Exec(ctx, query, e.ID, e.AdventureID, e.EventType, e.Description, metadataJSON, e.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("inserting adventure event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, fmt.Errorf("appending event to %q: %w", e.AdventureID, store.ErrAdventureNotFound)
	}
	return &e, nil
}

func (c *Client) ListAdventureEvents(ctx context.Context, adventureID string, limit int) ([]store.AdventureEvent, error) {
	var lim *int
	if limit > 0 {
		lim = &limit
	}

	query := `
SELECT event_id::text, adventure_id, event_type, description, metadata, occurred_at
FROM (
    SELECT seq, event_id, adventure_id, event_type, description, metadata, occurred_at
    FROM adventure_events
    WHERE adventure_id = $1
    ORDER BY occurred_at DESC, seq DESC
    LIMIT $2
) recent
ORDER BY occurred_at ASC, seq ASC
`

	rows, err := c.pool.Query(ctx, query, adventureID, lim)
	if err != nil {
		return nil, fmt.Errorf("listing adventure events: %w", err)
	}
	defer rows.Close()

	events := make([]store.AdventureEvent, 0)
	for rows.Next() {
		var e store.AdventureEvent
		var metadataBytes []byte
		if err := rows.Scan(&e.ID, &e.AdventureID, &e.EventType, &e.Description, &metadataBytes, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scanning adventure event: %w", err)
		}
		if err := json.Unmarshal(metadataBytes, &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling event metadata: %w", err)
		}
		e.Timestamp = e.Timestamp.UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating adventure events: %w", err)
	}
	return events, nil
}
