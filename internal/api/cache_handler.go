package api

import (
	"net/http"

	"github.com/fplstack/fplproxy/internal/cache"
)

type cacheHandler struct {
	cache *cache.Cache
}

type cacheStatsResponse struct {
	OK    bool        `json:"ok"`
	Keys  []string    `json:"keys"`
	Stats cache.Stats `json:"stats"`
}

func (h *cacheHandler) stats(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, cacheStatsResponse{
		OK:    true,
		Keys:  h.cache.Keys(),
		Stats: h.cache.Stats(),
	})
}

type flushResponse struct {
	OK      bool   `json:"ok"`
	Message string `json:"message"`
}

func (h *cacheHandler) flush(w http.ResponseWriter, _ *http.Request) {
	h.cache.Flush()
	writeJSON(w, http.StatusOK, flushResponse{OK: true, Message: "Cache flushed"})
}
