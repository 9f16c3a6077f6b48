package handler

import (
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/infra/cache"
	"github.com/boddenberg/linkbio-api-go/internal/links"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/render"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// 2. Páginas públicas
// ============================================================

type pageKind struct {
	variant     string
	contentType string
	span        string
}

var (
	pageProfile      = pageKind{cache.VariantHTML, "text/html; charset=utf-8", "GET /u/{slug}"}
	pageShowcase     = pageKind{cache.VariantShowcaseHTML, "text/html; charset=utf-8", "GET /u/{slug}/vitrine"}
	pageProfileJSON  = pageKind{cache.VariantJSON, "application/json", "GET /v1/public/profiles/{slug}"}
	pageShowcaseJSON = pageKind{cache.VariantShowcaseJSON, "application/json", "GET /v1/public/profiles/{slug}/vitrine"}
)

func publicPageHandler(publicSvc *service.PublicService, kind pageKind, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), kind.span)
		defer span.End()

		slug := chi.URLParam(r, "slug")
		span.SetAttributes(attribute.String("profile.slug", slug))

		body, err := publicSvc.Page(ctx, slug, kind.variant)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", kind.contentType)
		w.Header().Set("Cache-Control", "public, max-age=60")
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func communityHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/public/community")
		defer span.End()

		q := r.URL.Query()
		listings, err := profileSvc.Community(ctx, q.Get("segment"), q.Get("city"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": listings, "total": len(listings)})
	}
}

func captureLeadHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/public/profiles/{slug}/leads")
		defer span.End()

		var req domain.LeadCaptureRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		lead, err := leadSvc.Capture(ctx, chi.URLParam(r, "slug"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

func captureNPSHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/public/profiles/{slug}/nps")
		defer span.End()

		var req domain.NPSCaptureRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		lead, err := leadSvc.CaptureNPS(ctx, chi.URLParam(r, "slug"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, lead)
	}
}

// ============================================================
// 1. Catálogos estáticos
// ============================================================

func plansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, plans.All())
	}
}

func templatesHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, render.Templates())
	}
}

type resolvedLink struct {
	links.Meta
	URL string `json:"url"`
}

// resolveLinkHandler detects the button type of a raw value (unless given)
// and returns its metadata with the formatted URL.
func resolveLinkHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		value := r.URL.Query().Get("value")
		if value == "" {
			writeError(w, http.StatusBadRequest, "value is required")
			return
		}

		t := domain.ButtonType(r.URL.Query().Get("type"))
		if t == "" {
			t = links.DetectLinkType(value)
		}
		t = links.Normalize(t)

		writeJSON(w, http.StatusOK, resolvedLink{Meta: links.MetaFor(t), URL: links.FormatLink(t, value)})
	}
}
