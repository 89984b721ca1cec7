package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func countingFetch(n *atomic.Int64, val string) FetchFunc {
	return func(context.Context) (json.RawMessage, error) {
		n.Add(1)
		return json.RawMessage(val), nil
	}
}

func TestCache_GetOrFetch(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64

	v, hit, err := c.GetOrFetch(ctx, "a", time.Minute, countingFetch(&n, `{"x":1}`))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if hit {
		t.Fatal("expected miss on empty cache")
	}
	if string(v) != `{"x":1}` {
		t.Fatalf("value = %s; want {\"x\":1}", v)
	}

	v, hit, err = c.GetOrFetch(ctx, "a", time.Minute, countingFetch(&n, `{"x":2}`))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if !hit {
		t.Fatal("expected hit within TTL")
	}
	if string(v) != `{"x":1}` {
		t.Fatalf("value = %s; want cached {\"x\":1}", v)
	}
	if n.Load() != 1 {
		t.Fatalf("fetch count = %d; want 1", n.Load())
	}
}

func TestCache_TTLExpiry(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64

	if _, _, err := c.GetOrFetch(ctx, "a", 10*time.Millisecond, countingFetch(&n, `1`)); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}

	time.Sleep(15 * time.Millisecond)

	_, hit, err := c.GetOrFetch(ctx, "a", 10*time.Millisecond, countingFetch(&n, `2`))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if hit {
		t.Fatal("expected miss after TTL expiry")
	}
	if n.Load() != 2 {
		t.Fatalf("fetch count = %d; want 2 (exactly one refetch)", n.Load())
	}
}

func TestCache_FetchErrorNotCached(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64
	failing := func(context.Context) (json.RawMessage, error) {
		n.Add(1)
		return nil, errors.New("upstream down")
	}

	if _, _, err := c.GetOrFetch(ctx, "a", time.Minute, failing); err == nil {
		t.Fatal("expected fetch error to propagate")
	}
	if _, _, err := c.GetOrFetch(ctx, "a", time.Minute, failing); err == nil {
		t.Fatal("expected second fetch error to propagate")
	}
	if n.Load() != 2 {
		t.Fatalf("fetch count = %d; want 2 (failures must not be cached)", n.Load())
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d; want 0", c.Len())
	}
}

func TestCache_Flush(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64

	if _, _, err := c.GetOrFetch(ctx, "a", time.Hour, countingFetch(&n, `1`)); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if _, _, err := c.GetOrFetch(ctx, "b", time.Hour, countingFetch(&n, `2`)); err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if c.Len() != 2 {
		t.Fatalf("Len = %d; want 2", c.Len())
	}

	c.Flush()

	if c.Len() != 0 {
		t.Fatalf("Len after flush = %d; want 0", c.Len())
	}
	if got := c.Keys(); len(got) != 0 {
		t.Fatalf("Keys after flush = %v; want empty", got)
	}

	// Any read after a flush refetches, TTL state notwithstanding.
	_, hit, err := c.GetOrFetch(ctx, "a", time.Hour, countingFetch(&n, `3`))
	if err != nil {
		t.Fatalf("GetOrFetch: %v", err)
	}
	if hit {
		t.Fatal("expected miss after flush")
	}
	if n.Load() != 3 {
		t.Fatalf("fetch count = %d; want 3", n.Load())
	}
}

func TestCache_Keys(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64

	if got := c.Keys(); got == nil || len(got) != 0 {
		t.Fatalf("Keys on empty cache = %v; want empty non-nil slice", got)
	}

	for _, key := range []string{"bootstrap", "live_27"} {
		if _, _, err := c.GetOrFetch(ctx, key, time.Hour, countingFetch(&n, `{}`)); err != nil {
			t.Fatalf("GetOrFetch(%s): %v", key, err)
		}
	}

	keys := c.Keys()
	if len(keys) != 2 {
		t.Fatalf("Keys = %v; want 2 entries", keys)
	}
	seen := map[string]bool{}
	for _, k := range keys {
		seen[k] = true
	}
	if !seen["bootstrap"] || !seen["live_27"] {
		t.Fatalf("Keys = %v; want bootstrap and live_27", keys)
	}
}

func TestCache_Stats(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64

	c.GetOrFetch(ctx, "a", time.Hour, countingFetch(&n, `1`)) // miss
	c.GetOrFetch(ctx, "a", time.Hour, countingFetch(&n, `1`)) // hit
	c.GetOrFetch(ctx, "a", time.Hour, countingFetch(&n, `1`)) // hit

	s := c.Stats()
	if s.Hits != 2 {
		t.Fatalf("Hits = %d; want 2", s.Hits)
	}
	if s.Misses != 1 {
		t.Fatalf("Misses = %d; want 1", s.Misses)
	}
	if s.Entries != 1 {
		t.Fatalf("Entries = %d; want 1", s.Entries)
	}
	if want := 2.0 / 3.0; s.HitRate < want-0.001 || s.HitRate > want+0.001 {
		t.Fatalf("HitRate = %f; want ~%f", s.HitRate, want)
	}
}

func TestCache_SingleflightConcurrentMisses(t *testing.T) {
	c := New()
	ctx := context.Background()
	var n atomic.Int64
	slow := func(context.Context) (json.RawMessage, error) {
		n.Add(1)
		time.Sleep(50 * time.Millisecond)
		return json.RawMessage(`{"slow":true}`), nil
	}

	const workers = 10
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, _, err := c.GetOrFetch(ctx, "a", time.Minute, slow)
			if err != nil {
				t.Errorf("GetOrFetch: %v", err)
				return
			}
			if string(v) != `{"slow":true}` {
				t.Errorf("value = %s", v)
			}
		}()
	}
	wg.Wait()

	if n.Load() != 1 {
		t.Fatalf("fetch count = %d; want 1 (singleflight)", n.Load())
	}
}
