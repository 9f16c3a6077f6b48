package domain

// HealthStatus is returned by GET /healthz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name      string `json:"name"`
	Status    string `json:"status"`
	LatencyMs int64  `json:"latencyMs"`
}

// OpsSnapshot is returned by GET /v1/admin/metrics.
type OpsSnapshot struct {
	ProfileSaves   map[string]int64 `json:"profileSaves"`
	AutosaveWrites map[string]int64 `json:"autosaveWrites"`
	LeadsCaptured  map[string]int64 `json:"leadsCaptured"`
	PageCacheHits  int64            `json:"pageCacheHits"`
	PageCacheMiss  int64            `json:"pageCacheMisses"`
	CacheHitRate   float64          `json:"cacheHitRate"`
}
