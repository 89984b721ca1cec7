package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/fplstack/fplproxy/internal/cache"
	"github.com/fplstack/fplproxy/internal/config"
	"github.com/fplstack/fplproxy/internal/upstream"
)

// proxyHandler serves the six data routes. Each one validates its path
// parameters, derives a cache key and upstream path, and delegates to the
// cache-wrapped fetch.
type proxyHandler struct {
	cache   *cache.Cache
	fetcher upstream.Fetcher
	ttls    config.TTLs
}

func (h *proxyHandler) bootstrap(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "bootstrap", "/bootstrap-static/", h.ttls.Bootstrap)
}

func (h *proxyHandler) fixtures(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, "fixtures", "/fixtures/", h.ttls.Fixtures)
}

func (h *proxyHandler) player(w http.ResponseWriter, r *http.Request) {
	id, err := pathIntInRange(r, "id", 1, 1000)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := fmt.Sprintf("player_%d", id)
	path := fmt.Sprintf("/element-summary/%d/", id)
	h.serve(w, r, key, path, h.ttls.Player)
}

func (h *proxyHandler) live(w http.ResponseWriter, r *http.Request) {
	gw, err := pathIntInRange(r, "gw", 1, 38)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := fmt.Sprintf("live_%d", gw)
	path := fmt.Sprintf("/event/%d/live/", gw)
	h.serve(w, r, key, path, h.ttls.Live)
}

func (h *proxyHandler) entry(w http.ResponseWriter, r *http.Request) {
	id, err := pathPositiveInt(r, "id")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	gw, err := pathIntInRange(r, "gw", 1, 38)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	key := fmt.Sprintf("entry_%d_%d", id, gw)
	path := fmt.Sprintf("/entry/%d/event/%d/picks/", id, gw)
	h.serve(w, r, key, path, h.ttls.Entry)
}

// serve answers a validated data route from the cache, fetching on a miss.
func (h *proxyHandler) serve(w http.ResponseWriter, r *http.Request, key, path string, ttl time.Duration) {
	// A client disconnect must not abort a fetch that concurrent
	// requests for the same key may be waiting on.
	ctx := context.WithoutCancel(r.Context())

	data, hit, err := h.cache.GetOrFetch(ctx, key, ttl, func(ctx context.Context) (json.RawMessage, error) {
		return h.fetcher.Fetch(ctx, path)
	})
	if err != nil {
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	if hit {
		w.Header().Set("X-Cache", "HIT")
	} else {
		w.Header().Set("X-Cache", "MISS")
	}
	writeData(w, data)
}

// pathIntInRange parses the named path parameter as an integer in [lo, hi].
func pathIntInRange(r *http.Request, name string, lo, hi int) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%s must be between %d and %d, got %d", name, lo, hi, n)
	}
	return n, nil
}

// pathPositiveInt parses the named path parameter as a positive integer.
// Entry IDs have no documented upper bound, so only positivity is checked.
func pathPositiveInt(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer, got %q", name, raw)
	}
	if n < 1 {
		return 0, fmt.Errorf("%s must be a positive integer, got %d", name, n)
	}
	return n, nil
}
