package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

func (c *Client) GetCachedBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT payload FROM story_cache WHERE cache_key = ? AND expires_at > ?`,
		key, toMillis(c.now()),
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("getting cached blob: %w", err)
	}
	return payload, true, nil
}

func (c *Client) SetCachedBlob(ctx context.Context, key string, payload []byte, expiresAt time.Time) error {
	query := `
	INSERT INTO story_cache (cache_key, payload, expires_at)
	VALUES (?, ?, ?)
	ON CONFLICT (cache_key) DO UPDATE SET
		payload = excluded.payload,
		expires_at = excluded.expires_at
	`
	if _, err := c.db.ExecContext(ctx, query, key, payload, toMillis(expiresAt)); err != nil {
		return fmt.Errorf("setting cached blob: %w", err)
	}
	return nil
}

func (c *Client) PruneCache(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM story_cache WHERE expires_at <= ?`, toMillis(c.now()))
	if err != nil {
		return 0, fmt.Errorf("pruning story cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned rows: %w", err)
	}
	return n, nil
}

func (c *Client) ClearCache(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx, `DELETE FROM story_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing story cache: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting cleared rows: %w", err)
	}
	return n, nil
}
