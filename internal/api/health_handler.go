package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/fplstack/fplproxy/internal/cache"
)

type healthHandler struct {
	cache *cache.Cache
	start time.Time
}

type healthResponse struct {
	Status    string `json:"status"`
	Uptime    string `json:"uptime"`
	CacheKeys int    `json:"cache_keys"`
	Timestamp string `json:"timestamp"`
}

// get reports liveness. It never touches the upstream or triggers a fetch.
func (h *healthHandler) get(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Uptime:    fmt.Sprintf("%ds", int(time.Since(h.start).Seconds())),
		CacheKeys: h.cache.Len(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
