package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"loreweave/internal/store"
)

func (c *Client) SaveAdventureContext(ctx context.Context, ac store.AdventureContext) (*store.AdventureContext, error) {
	ac.Normalize(c.now())
	if ac.AdventureID == "" {
		return nil, fmt.Errorf("saving adventure context: adventure id is required")
	}

	charactersJSON, err := json.Marshal(ac.ActiveCharacters)
	if err != nil {
		return nil, fmt.Errorf("marshaling active characters: %w", err)
	}
	stateJSON, err := json.Marshal(ac.StoryState)
	if err != nil {
		return nil, fmt.Errorf("marshaling story state: %w", err)
	}

	query := `
	INSERT INTO adventure_contexts (adventure_id, source_name, current_arc, active_characters, story_state, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (adventure_id) DO UPDATE SET
		source_name = excluded.source_name,
		current_arc = excluded.current_arc,
		active_characters = excluded.active_characters,
		story_state = excluded.story_state,
		updated_at = excluded.updated_at
	RETURNING created_at, updated_at
	`

	var createdAt, updatedAt int64
	err = c.db.QueryRowContext(ctx, query,
		ac.AdventureID,
		ac.SourceName,
		ac.CurrentArc,
		string(charactersJSON),
		string(stateJSON),
		toMillis(ac.CreatedAt),
		toMillis(ac.UpdatedAt),
	).Scan(&createdAt, &updatedAt)
	if err != nil {
		return nil, fmt.Errorf("upserting adventure context: %w", err)
	}

	ac.CreatedAt = fromMillis(createdAt)
	ac.UpdatedAt = fromMillis(updatedAt)
	return &ac, nil
}

func (c *Client) GetAdventureContext(ctx context.Context, adventureID string) (*store.AdventureContext, error) {
	query := `
	SELECT adventure_id, source_name, current_arc, active_characters, story_state, created_at, updated_at
	FROM adventure_contexts
	WHERE adventure_id = ?
	`

	var ac store.AdventureContext
	var charactersJSON, stateJSON string
	var createdAt, updatedAt int64
	err := c.db.QueryRowContext(ctx, query, adventureID).Scan(
		&ac.AdventureID,
		&ac.SourceName,
		&ac.CurrentArc,
		&charactersJSON,
		&stateJSON,
		&createdAt,
		&updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting adventure context: %w", err)
	}

	if err := json.Unmarshal([]byte(charactersJSON), &ac.ActiveCharacters); err != nil {
		return nil, fmt.Errorf("unmarshaling active characters: %w", err)
	}
	if err := json.Unmarshal([]byte(stateJSON), &ac.StoryState); err != nil {
		return nil, fmt.Errorf("unmarshaling story state: %w", err)
	}
	ac.CreatedAt = fromMillis(createdAt)
	ac.UpdatedAt = fromMillis(updatedAt)
	return &ac, nil
}

func (c *Client) AppendAdventureEvent(ctx context.Context, e store.AdventureEvent) (*store.AdventureEvent, error) {
	e.Normalize(c.now())

	metadataJSON, err := json.Marshal(e.Metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling event metadata: %w", err)
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM adventure_contexts WHERE adventure_id = ?`, e.AdventureID).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("appending event to %q: %w", e.AdventureID, store.ErrAdventureNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("checking adventure: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO adventure_events (event_id, adventure_id, event_type, description, metadata, occurred_at)
	VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.AdventureID, e.EventType, e.Description, string(metadataJSON), toMillis(e.Timestamp))
	if err != nil {
		return nil, fmt.Errorf("inserting adventure event: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing event: %w", err)
	}
	e.Timestamp = fromMillis(toMillis(e.Timestamp))
	return &e, nil
}

func (c *Client) ListAdventureEvents(ctx context.Context, adventureID string, limit int) ([]store.AdventureEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	query := `
	SELECT event_id, adventure_id, event_type, description, metadata, occurred_at
	FROM (
		SELECT seq, event_id, adventure_id, event_type, description, metadata, occurred_at
		FROM adventure_events
		WHERE adventure_id = ?
		ORDER BY occurred_at DESC, seq DESC
		LIMIT ?
	)
	ORDER BY occurred_at ASC, seq ASC
	`

	rows, err := c.db.QueryContext(ctx, query, adventureID, limit)
	if err != nil {
		return nil, fmt.Errorf("listing adventure events: %w", err)
	}
	defer rows.Close()

	events := make([]store.AdventureEvent, 0)
	for rows.Next() {
		var e store.AdventureEvent
		var metadataJSON string
		var occurredAt int64
		if err := rows.Scan(&e.ID, &e.AdventureID, &e.EventType, &e.Description, &metadataJSON, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning adventure event: %w", err)
		}
		if err := json.Unmarshal([]byte(metadataJSON), &e.Metadata); err != nil {
			return nil, fmt.Errorf("unmarshaling event metadata: %w", err)
		}
		e.Timestamp = fromMillis(occurredAt)
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating adventure events: %w", err)
	}
	return events, nil
}
