package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// 6. Leads & NPS
// ============================================================

func listLeadsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads")
		defer span.End()

		q := r.URL.Query()
		list, err := leadSvc.List(ctx, principal(r), q.Get("profileId"), q.Get("kind"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

// exportLeadsHandler renders the CSV into memory first so a failure can
// still answer with a JSON error.
func exportLeadsHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/leads/export.csv")
		defer span.End()

		var buf bytes.Buffer
		if err := leadSvc.ExportCSV(ctx, principal(r), r.URL.Query().Get("profileId"), &buf); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		filename := fmt.Sprintf("leads-%s.csv", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.WriteHeader(http.StatusOK)
		w.Write(buf.Bytes())
	}
}

func updateLeadStatusHandler(leadSvc *service.LeadService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/leads/{leadId}/status")
		defer span.End()

		var req domain.LeadStatusRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		lead, err := leadSvc.UpdateStatus(ctx, principal(r), chi.URLParam(r, "leadId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, lead)
	}
}
