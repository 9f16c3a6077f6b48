package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Outcome labels shared by the save and autosave counters.
const (
	OutcomeSuccess = "success"
	OutcomePartial = "partial"
	OutcomeFailed  = "failed"
)

// Metrics holds all Prometheus metrics for the API.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration *prometheus.HistogramVec
	externalErrors  *prometheus.CounterVec
	cacheHits       *prometheus.CounterVec
	cacheMisses     *prometheus.CounterVec
	profileSaves    *prometheus.CounterVec
	autosaveWrites  *prometheus.CounterVec
	leadsCaptured   *prometheus.CounterVec
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "linkbio_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route", "status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_external_errors_total",
				Help: "Total errors from external services.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_cache_hits_total",
				Help: "Total cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_cache_misses_total",
				Help: "Total cache misses.",
			},
			[]string{"cache"},
		),
		profileSaves: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_profile_saves_total",
				Help: "Profile saves by outcome.",
			},
			[]string{"outcome"},
		),
		autosaveWrites: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_autosave_writes_total",
				Help: "Showcase settings autosave writes by outcome.",
			},
			[]string{"outcome"},
		),
		leadsCaptured: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "linkbio_leads_captured_total",
				Help: "Leads and NPS answers captured by public forms.",
			},
			[]string{"kind"},
		),
	}
}

// HTTPMiddleware records request durations labelled by chi route pattern.
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		m.requestDuration.
			WithLabelValues(r.Method, route, strconv.Itoa(ww.Status())).
			Observe(time.Since(start).Seconds())
	})
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// IncrProfileSave counts a profile save by outcome.
func (m *Metrics) IncrProfileSave(outcome string) {
	m.profileSaves.WithLabelValues(outcome).Inc()
}

// IncrAutosaveWrite counts an autosave write by outcome.
func (m *Metrics) IncrAutosaveWrite(outcome string) {
	m.autosaveWrites.WithLabelValues(outcome).Inc()
}

// IncrLeadCaptured counts a captured lead or NPS answer.
func (m *Metrics) IncrLeadCaptured(kind string) {
	m.leadsCaptured.WithLabelValues(kind).Inc()
}

// Snapshot returns the operational counters shown in the admin console.
func (m *Metrics) Snapshot() *domain.OpsSnapshot {
	hits := getCounterValue(m.cacheHits, "page")
	misses := getCounterValue(m.cacheMisses, "page")

	rate := float64(0)
	if hits+misses > 0 {
		rate = hits / (hits + misses)
	}

	outcomes := []string{OutcomeSuccess, OutcomePartial, OutcomeFailed}
	return &domain.OpsSnapshot{
		ProfileSaves:   counterMap(m.profileSaves, outcomes...),
		AutosaveWrites: counterMap(m.autosaveWrites, OutcomeSuccess, OutcomeFailed),
		LeadsCaptured:  counterMap(m.leadsCaptured, domain.LeadKindLead, domain.LeadKindNPS),
		PageCacheHits:  int64(hits),
		PageCacheMiss:  int64(misses),
		CacheHitRate:   rate,
	}
}

func counterMap(cv *prometheus.CounterVec, labels ...string) map[string]int64 {
	out := make(map[string]int64, len(labels))
	for _, l := range labels {
		out[l] = int64(getCounterValue(cv, l))
	}
	return out
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
