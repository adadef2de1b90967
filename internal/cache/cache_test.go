package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func newTestCache(opts Options) (*Cache, *fakeClock) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(opts)
	c.now = clock.Now
	return c, clock
}

func TestGetSetExpiry(t *testing.T) {
	c, clock := newTestCache(Options{})

	if !c.Set("story:one piece", "value", 10*time.Second) {
		t.Fatalf("expected set to succeed")
	}
	clock.Advance(9 * time.Second)
	got, ok := c.Get("story:one piece")
	if !ok || got != "value" {
		t.Fatalf("expected value within ttl, got %v %v", got, ok)
	}

	clock.Advance(time.Second)
	if _, ok := c.Get("story:one piece"); ok {
		t.Fatalf("expected entry to expire at ttl")
	}
	if c.Len() != 0 {
		t.Fatalf("expected expired entry to be removed, len=%d", c.Len())
	}
}

func TestDefaultTTL(t *testing.T) {
	c, clock := newTestCache(Options{TTL: time.Minute})
	c.Set("k", 1, 0)

	clock.Advance(59 * time.Second)
	if !c.Has("k") {
		t.Fatalf("expected key before default ttl")
	}
	clock.Advance(time.Second)
	if c.Has("k") {
		t.Fatalf("expected key to expire after default ttl")
	}
}

func TestEvictsOldestInserted(t *testing.T) {
	c, _ := newTestCache(Options{MaxEntries: 3})
	c.Set("a", 1, 0)
	c.Set("b", 2, 0)
	c.Set("c", 3, 0)

	// re-setting a moves it to the back of the eviction order
	c.Set("a", 10, 0)
	c.Set("d", 4, 0)

	if c.Has("b") {
		t.Fatalf("expected b to be evicted")
	}
	for _, key := range []string{"a", "c", "d"} {
		if !c.Has(key) {
			t.Fatalf("expected %s to remain", key)
		}
	}
	if got, _ := c.Get("a"); got != 10 {
		t.Fatalf("expected updated value, got %v", got)
	}
	if c.Stats().Evictions != 1 {
		t.Fatalf("expected one eviction, got %+v", c.Stats())
	}
}

func TestDeletePattern(t *testing.T) {
	c, _ := newTestCache(Options{})
	c.Set("character:one piece:luffy:", 1, 0)
	c.Set("character:one piece:zoro:", 2, 0)
	c.Set("location:one piece:wano:", 3, 0)

	if n := c.DeletePattern("character:one piece:*"); n != 2 {
		t.Fatalf("expected 2 removals, got %d", n)
	}
	if !c.Has("location:one piece:wano:") {
		t.Fatalf("expected location to remain")
	}
	if n := c.DeletePattern("[unterminated"); n != 0 {
		t.Fatalf("expected malformed pattern to remove nothing, got %d", n)
	}
	if !c.Delete("location:one piece:wano:") || c.Delete("location:one piece:wano:") {
		t.Fatalf("expected delete to report presence")
	}
}

func TestGetOrSet(t *testing.T) {
	t.Run("computes once then hits", func(t *testing.T) {
		c, _ := newTestCache(Options{})
		calls := 0
		compute := func() (any, error) {
			calls++
			return "fresh", nil
		}
		for i := 0; i < 3; i++ {
			v, err := c.GetOrSet("k", compute, 0)
			if err != nil || v != "fresh" {
				t.Fatalf("unexpected result %v %v", v, err)
			}
		}
		if calls != 1 {
			t.Fatalf("expected one compute, got %d", calls)
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		c, _ := newTestCache(Options{})
		boom := errors.New("boom")
		if _, err := c.GetOrSet("k", func() (any, error) { return nil, boom }, 0); !errors.Is(err, boom) {
			t.Fatalf("expected compute error, got %v", err)
		}
		if c.Has("k") {
			t.Fatalf("expected failed compute to leave no entry")
		}
		v, err := c.GetOrSet("k", func() (any, error) { return 42, nil }, 0)
		if err != nil || v != 42 {
			t.Fatalf("expected retry to compute, got %v %v", v, err)
		}
	})

	t.Run("concurrent misses both compute", func(t *testing.T) {
		c, _ := newTestCache(Options{})
		var mu sync.Mutex
		calls := 0
		release := make(chan struct{})
		started := make(chan struct{}, 2)

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				c.GetOrSet("k", func() (any, error) {
					mu.Lock()
					calls++
					mu.Unlock()
					started <- struct{}{}
					<-release
					return n, nil
				}, 0)
			}(i)
		}
		<-started
		<-started
		close(release)
		wg.Wait()

		if calls != 2 {
			t.Fatalf("expected both misses to compute, got %d", calls)
		}
		if !c.Has("k") {
			t.Fatalf("expected a value to be stored")
		}
	})
}

func TestPruneAndStats(t *testing.T) {
	c, clock := newTestCache(Options{})
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("short:%d", i), i, time.Second)
	}
	c.Set("long", "x", time.Hour)

	clock.Advance(2 * time.Second)
	if n := c.Prune(); n != 5 {
		t.Fatalf("expected 5 pruned, got %d", n)
	}
	c.Get("long")
	c.Get("missing")

	stats := c.Stats()
	if stats.Entries != 1 || stats.Hits != 1 || stats.Misses != 1 || stats.Expired != 5 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	c.Clear()
	if c.Len() != 0 {
		t.Fatalf("expected empty cache after clear")
	}
}

func TestJanitorRemovesExpired(t *testing.T) {
	c := New(Options{SweepInterval: 5 * time.Millisecond})
	defer c.Close()
	c.Set("k", 1, time.Millisecond)

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if c.Len() == 0 {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("expected janitor to remove expired entry")
}

func TestCloseIsIdempotent(t *testing.T) {
	c := New(Options{SweepInterval: time.Millisecond})
	c.Close()
	c.Close()
	c.Set("k", 1, 0)
	if !c.Has("k") {
		t.Fatalf("expected cache to stay usable after close")
	}
}
