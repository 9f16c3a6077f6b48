package handler

import (
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// Analytics
// ============================================================

func trackEventHandler(analyticsSvc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/public/profiles/{slug}/events")
		defer span.End()

		var req domain.TrackEventRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		if err := analyticsSvc.Track(ctx, chi.URLParam(r, "slug"), &req); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func analyticsReportHandler(analyticsSvc *service.AnalyticsService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/analytics")
		defer span.End()

		report, err := analyticsSvc.Report(ctx, principal(r), chi.URLParam(r, "profileId"), queryInt(r, "days", 0))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, report)
	}
}
