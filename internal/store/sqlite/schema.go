package sqlite

import (
	"context"
	"fmt"
	"strings"
)

const ddl = `
CREATE TABLE IF NOT EXISTS adventure_contexts (
	adventure_id      TEXT PRIMARY KEY,
	source_name       TEXT NOT NULL,
	current_arc       TEXT NOT NULL DEFAULT '',
	active_characters TEXT NOT NULL DEFAULT '[]',
	story_state       TEXT NOT NULL DEFAULT '{}',
	created_at        INTEGER NOT NULL,
	updated_at        INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS adventure_events (
	seq          INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id     TEXT NOT NULL UNIQUE,
	adventure_id TEXT NOT NULL REFERENCES adventure_contexts(adventure_id) ON DELETE CASCADE,
	event_type   TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	metadata     TEXT NOT NULL DEFAULT '{}',
	occurred_at  INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS story_cache (
	cache_key  TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	expires_at INTEGER NOT NULL
);

-- lookups by adventure in timestamp order
CREATE INDEX IF NOT EXISTS idx_adventure_events_adventure ON adventure_events (adventure_id, occurred_at, seq);
CREATE INDEX IF NOT EXISTS idx_story_cache_expires ON story_cache (expires_at);
`

func (c *Client) EnsureSchema(ctx context.Context) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range splitStatements(ddl) {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing schema transaction: %w", err)
	}
	return nil
}

// splitStatements breaks a DDL script on trailing semicolons, dropping
// comment lines.
func splitStatements(script string) []string {
	var statements []string
	var current strings.Builder

	for _, line := range strings.Split(script, "\n") {
		stripped := strings.TrimSpace(line)
		if strings.HasPrefix(stripped, "--") {
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")

		if strings.HasSuffix(stripped, ";") {
			statements = append(statements, current.String())
			current.Reset()
		}
	}

	if strings.TrimSpace(current.String()) != "" {
		statements = append(statements, current.String())
	}
	return statements
}
