package postgres

import (
	"context"
	"fmt"
)

// The script runs as one implicit transaction and every statement is
// IF NOT EXISTS, so it is safe to apply on each start.
const ddl = `
CREATE TABLE IF NOT EXISTS adventure_contexts (
    adventure_id      TEXT PRIMARY KEY,
    source_name       TEXT NOT NULL,
    current_arc       TEXT NOT NULL DEFAULT '',
    active_characters TEXT[] NOT NULL DEFAULT '{}',
    story_state       JSONB NOT NULL DEFAULT '{}',
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS adventure_events (
    seq          BIGINT GENERATED ALWAYS AS IDENTITY PRIMARY KEY,
    event_id     UUID NOT NULL UNIQUE,
    adventure_id TEXT NOT NULL REFERENCES adventure_contexts(adventure_id) ON DELETE CASCADE,
    event_type   TEXT NOT NULL,
    description  TEXT NOT NULL DEFAULT '',
    metadata     JSONB NOT NULL DEFAULT '{}',
    occurred_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS story_cache (
    cache_key  TEXT PRIMARY KEY,
    payload    JSONB NOT NULL,
    expires_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adventure_events_adventure ON adventure_events (adventure_id, occurred_at, seq);
CREATE INDEX IF NOT EXISTS idx_story_cache_expires ON story_cache (expires_at);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
