package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

func (c *Client) GetCachedBlob(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	err := c.pool.QueryRow(ctx,
		`SELECT payload FROM story_cache WHERE cache_key = $1 AND expires_at > now()`,
		key,
	).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
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
VALUES ($1, $2, $3)
ON CONFLICT (cache_key) DO UPDATE SET
    payload = EXCLUDED.payload,
    expires_at = EXCLUDED.expires_at
`
	if _, err := c.pool.Exec(ctx, query, key, payload, expiresAt); err != nil {
		return fmt.Errorf("setting cached blob: %w", err)
	}
	return nil
}

func (c *Client) PruneCache(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM story_cache WHERE expires_at <= now()`)
	if err != nil {
		return 0, fmt.Errorf("pruning story cache: %w", err)
	}
	return tag.RowsAffected(), nil
}

func (c *Client) ClearCache(ctx context.Context) (int64, error) {
	tag, err := c.pool.Exec(ctx, `DELETE FROM story_cache`)
	if err != nil {
		return 0, fmt.Errorf("clearing story cache: %w", err)
	}
	return tag.RowsAffected(), nil
}
