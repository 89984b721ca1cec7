package cache

// Stats holds cache performance counters.
type Stats struct {
	Hits       uint64  `json:"hits"`
	Misses     uint64  `json:"misses"`
	Insertions uint64  `json:"insertions"`
	Evictions  uint64  `json:"evictions"`
	Entries    int     `json:"entries"`
	HitRate    float64 `json:"hit_rate"`
}
