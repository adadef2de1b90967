//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"loreweave/internal/store"
)

func newIntegrationClient(t *testing.T) *Client {
	t.Helper()
	dsn := os.Getenv("LOREWEAVE_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("LOREWEAVE_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()
	client, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("connecting: %v", err)
	}
	t.Cleanup(func() { client.Close(ctx) })
	if err := client.EnsureSchema(ctx); err != nil {
		t.Fatalf("ensuring schema: %v", err)
	}
	return client
}

func TestAdventureRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newIntegrationClient(t)
	id := "it-" + uuid.NewString()

	if _, err := client.AppendAdventureEvent(ctx, store.AdventureEvent{AdventureID: id, EventType: "battle"}); !errors.Is(err, store.ErrAdventureNotFound) {
		t.Fatalf("expected ErrAdventureNotFound, got %v", err)
	}

	first, err := client.SaveAdventureContext(ctx, store.AdventureContext{
		AdventureID:      id,
		SourceName:       "One Piece",
		ActiveCharacters: []string{"Luffy"},
		StoryState:       map[string]any{"mode": "sailing"},
	})
	if err != nil {
		t.Fatalf("saving: %v", err)
	}
	second, err := client.SaveAdventureContext(ctx, store.AdventureContext{
		AdventureID: id,
		SourceName:  "One Piece",
		StoryState:  map[string]any{"mode": "fighting"},
	})
	if err != nil {
		t.Fatalf("updating: %v", err)
	}
	if !second.CreatedAt.Equal(first.CreatedAt) {
		t.Fatalf("expected created_at preserved")
	}

	got, err := client.GetAdventureContext(ctx, id)
	if err != nil || got.StoryState["mode"] != "fighting" {
		t.Fatalf("unexpected context %+v %v", got, err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	for i, kind := range []string{"arrival", "battle", "departure"} {
		if _, err := client.AppendAdventureEvent(ctx, store.AdventureEvent{
			AdventureID: id,
			EventType:   kind,
			Timestamp:   base.Add(time.Duration(i) * time.Second),
		}); err != nil {
			t.Fatalf("appending: %v", err)
		}
	}
	events, err := client.ListAdventureEvents(ctx, id, 2)
	if err != nil {
		t.Fatalf("listing: %v", err)
	}
	if len(events) != 2 || events[0].EventType != "battle" || events[1].EventType != "departure" {
		t.Fatalf("unexpected events %+v", events)
	}
}

func TestStoryCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	client := newIntegrationClient(t)
	key := "it:" + uuid.NewString()

	if err := client.SetCachedBlob(ctx, key, []byte(`{"title": "Naruto"}`), time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("setting: %v", err)
	}
	payload, ok, err := client.GetCachedBlob(ctx, key)
	if err != nil || !ok || len(payload) == 0 {
		t.Fatalf("unexpected blob %q %v %v", payload, ok, err)
	}

	if err := client.SetCachedBlob(ctx, key, []byte(`{}`), time.Now().Add(-time.Minute)); err != nil {
		t.Fatalf("expiring: %v", err)
	}
	if _, ok, _ := client.GetCachedBlob(ctx, key); ok {
		t.Fatalf("expected expired blob to be ignored")
	}
	if _, err := client.PruneCache(ctx); err != nil {
		t.Fatalf("pruning: %v", err)
	}
}
