package observability_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func TestMetrics_Snapshot(t *testing.T) {
	m := observability.NewMetrics()

	m.IncrProfileSave(observability.OutcomeSuccess)
	m.IncrProfileSave(observability.OutcomeSuccess)
	m.IncrProfileSave(observability.OutcomePartial)
	m.IncrAutosaveWrite(observability.OutcomeFailed)
	m.IncrLeadCaptured("nps")
	m.IncrCacheHit("page")
	m.IncrCacheHit("page")
	m.IncrCacheHit("page")
	m.IncrCacheMiss("page")

	s := m.Snapshot()
	if s.ProfileSaves["success"] != 2 || s.ProfileSaves["partial"] != 1 || s.ProfileSaves["failed"] != 0 {
		t.Errorf("unexpected saves: %+v", s.ProfileSaves)
	}
	if s.AutosaveWrites["failed"] != 1 {
		t.Errorf("unexpected autosave writes: %+v", s.AutosaveWrites)
	}
	if s.LeadsCaptured["nps"] != 1 || s.LeadsCaptured["lead"] != 0 {
		t.Errorf("unexpected leads: %+v", s.LeadsCaptured)
	}
	if s.CacheHitRate != 0.75 {
		t.Errorf("expected hit rate 0.75, got %f", s.CacheHitRate)
	}
}

func TestMetrics_HTTPMiddlewareUsesRoutePattern(t *testing.T) {
	m := observability.NewMetrics()

	r := chi.NewRouter()
	r.Use(m.HTTPMiddleware)
	r.Get("/u/{slug}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/u/loja", nil))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := rec.Body.String()
	if !strings.Contains(body, `route="/u/{slug}"`) {
		t.Errorf("expected route pattern label, got:\n%s", body)
	}
	if strings.Contains(body, `route="/u/loja"`) {
		t.Error("raw path must not be used as a label")
	}
}
