package handler

import (
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/infra/observability"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("handler")

// Services groups the use cases exposed over HTTP. A nil Auth disables
// every authenticated route.
type Services struct {
	Auth      *service.AuthService
	Clients   *service.ClientService
	Profiles  *service.ProfileService
	Drafts    *service.DraftService
	Showcase  *service.ShowcaseService
	Leads     *service.LeadService
	Analytics *service.AnalyticsService
	Media     *service.MediaService
	QR        *service.QRService
	Public    *service.PublicService
	Health    *service.HealthService
}

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(svc Services, metrics *observability.Metrics, corsOrigins []string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(metrics.HTTPMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(svc.Health))
	r.Get("/readyz", readyzHandler(svc.Health))
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- Public pages ---
	if svc.Public != nil {
		r.Get("/u/{slug}", publicPageHandler(svc.Public, pageProfile, logger))
		r.Get("/u/{slug}/vitrine", publicPageHandler(svc.Public, pageShowcase, logger))
	}

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. Catálogos estáticos
		// =============================================
		r.Get("/plans", plansHandler())
		r.Get("/templates", templatesHandler())
		r.Get("/links/resolve", resolveLinkHandler())

		// =============================================
		// 2. Páginas públicas e formulários
		// =============================================
		r.Route("/public", func(r chi.Router) {
			if svc.Profiles != nil {
				r.Get("/community", communityHandler(svc.Profiles, logger))
			}
			if svc.Public != nil {
				r.Get("/profiles/{slug}", publicPageHandler(svc.Public, pageProfileJSON, logger))
				r.Get("/profiles/{slug}/vitrine", publicPageHandler(svc.Public, pageShowcaseJSON, logger))
			}
			if svc.Analytics != nil {
				r.Post("/profiles/{slug}/events", trackEventHandler(svc.Analytics, logger))
			}
			if svc.Leads != nil {
				r.Post("/profiles/{slug}/leads", captureLeadHandler(svc.Leads, logger))
				r.Post("/profiles/{slug}/nps", captureNPSHandler(svc.Leads, logger))
			}
		})

		if svc.Auth == nil {
			r.HandleFunc("/auth/*", unavailableHandler)
			return
		}

		// =============================================
		// 3. Autenticação
		// =============================================
		r.Post("/auth/signup", authSignupHandler(svc.Auth, logger))
		r.Post("/auth/login", authLoginHandler(svc.Auth, logger))
		r.Post("/auth/refresh", authRefreshHandler(svc.Auth, logger))

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware(svc.Auth, logger))

			r.Post("/auth/logout", authLogoutHandler(svc.Auth, logger))
			r.Get("/me", accountHandler(svc.Clients, logger))

			// =============================================
			// 4. Perfis e editor
			// =============================================
			r.Get("/profiles", listProfilesHandler(svc.Profiles, logger))
			r.Post("/profiles", createProfileHandler(svc.Profiles, logger))
			r.Route("/profiles/{profileId}", func(r chi.Router) {
				r.Delete("/", deleteProfileHandler(svc.Profiles, logger))

				r.Get("/draft", getDraftHandler(svc.Drafts, logger))
				r.Post("/draft", applyDraftHandler(svc.Drafts, logger))
				r.Delete("/draft", discardDraftHandler(svc.Drafts, logger))
				r.Post("/save", saveDraftHandler(svc.Drafts, logger))
				r.Post("/style/copy", copyStyleHandler(svc.Drafts, logger))
				r.Post("/style/paste", pasteStyleHandler(svc.Drafts, logger))

				r.Post("/media", uploadMediaHandler(svc.Media, logger))
				r.Get("/qr", qrHandler(svc.QR, logger))
				r.Get("/analytics", analyticsReportHandler(svc.Analytics, logger))

				// =============================================
				// 5. Vitrine
				// =============================================
				r.Route("/showcase", func(r chi.Router) {
					r.Get("/", getShowcaseHandler(svc.Showcase, logger))
					r.Get("/settings", getShowcaseSettingsHandler(svc.Showcase, logger))
					r.Patch("/settings", updateShowcaseSettingsHandler(svc.Showcase, logger))
					r.Post("/header-buttons/{buttonId}", toggleHeaderButtonHandler(svc.Showcase, logger))

					r.Post("/items", addItemHandler(svc.Showcase, logger))
					r.Put("/items/order", reorderItemsHandler(svc.Showcase, logger))
					r.Delete("/items/{itemId}", deleteItemHandler(svc.Showcase, logger))

					r.Get("/editing", editingItemHandler(svc.Showcase, logger))
					r.Post("/editing", openItemHandler(svc.Showcase, logger))
					r.Put("/editing", editItemHandler(svc.Showcase, logger))
					r.Post("/editing/save", saveItemHandler(svc.Showcase, logger))
					r.Delete("/editing", closeItemHandler(svc.Showcase, logger))
				})
			})

			// =============================================
			// 6. Leads & NPS
			// =============================================
			r.Get("/leads", listLeadsHandler(svc.Leads, logger))
			r.Get("/leads/export.csv", exportLeadsHandler(svc.Leads, logger))
			r.Patch("/leads/{leadId}/status", updateLeadStatusHandler(svc.Leads, logger))

			// =============================================
			// 7. Administração
			// =============================================
			r.Route("/admin", func(r chi.Router) {
				r.Use(RequireAdmin(logger))
				r.Get("/clients", directoryHandler(svc.Clients, logger))
				r.Get("/clients/{clientId}", getClientHandler(svc.Clients, logger))
				r.Patch("/clients/{clientId}", updateClientHandler(svc.Clients, logger))
				r.Post("/clients/{clientId}/bonus", grantBonusHandler(svc.Clients, logger))
				r.Delete("/clients/{clientId}", deleteClientHandler(svc.Clients, logger))
				r.Get("/metrics", opsMetricsHandler(metrics))
			})
		})
	})

	return r
}

// ============================================================
// Operational handlers
// ============================================================

func healthzHandler(health *service.HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
			return
		}
		status := health.Check(r.Context())
		code := http.StatusOK
		if status.Status == "unhealthy" {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, status)
	}
}

func readyzHandler(health *service.HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil && !health.Ready(r.Context()) {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func unavailableHandler(w http.ResponseWriter, _ *http.Request) {
	writeError(w, http.StatusServiceUnavailable, "authentication is not configured")
}

func opsMetricsHandler(metrics *observability.Metrics) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, metrics.Snapshot())
	}
}
