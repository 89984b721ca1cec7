package api

import (
	"net/http"
	"time"

	"github.com/fplstack/fplproxy/internal/cache"
	"github.com/fplstack/fplproxy/internal/config"
	"github.com/fplstack/fplproxy/internal/upstream"
)

// RouterDeps holds the dependencies needed by the HTTP router.
type RouterDeps struct {
	Cache   *cache.Cache
	Fetcher upstream.Fetcher
	TTLs    config.TTLs
}

// NewRouter creates an http.Handler with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	mux := http.NewServeMux()

	hh := &healthHandler{cache: deps.Cache, start: time.Now()}
	mux.HandleFunc("GET /health", hh.get)

	ph := &proxyHandler{cache: deps.Cache, fetcher: deps.Fetcher, ttls: deps.TTLs}
	mux.HandleFunc("GET /api/bootstrap", ph.bootstrap)
	mux.HandleFunc("GET /api/fixtures", ph.fixtures)
	mux.HandleFunc("GET /api/player/{id}", ph.player)
	mux.HandleFunc("GET /api/live/{gw}", ph.live)
	mux.HandleFunc("GET /api/entry/{id}/gw/{gw}", ph.entry)

	ch := &cacheHandler{cache: deps.Cache}
	mux.HandleFunc("GET /api/cache/stats", ch.stats)
	mux.HandleFunc("POST /api/cache/flush", ch.flush)

	// Apply middleware chain: CORS -> RequestID -> Logging -> mux
	var handler http.Handler = mux
	handler = loggingMiddleware(handler)
	handler = requestIDMiddleware(handler)
	handler = corsMiddleware(handler)

	return handler
}
