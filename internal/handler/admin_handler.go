package handler

import (
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/plans"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// 7. Administração
// ============================================================

// parseDirectoryQuery reads search, plan, status, sort, order, page and
// page_size from the query string.
func parseDirectoryQuery(r *http.Request) domain.DirectoryQuery {
	q := r.URL.Query()
	dq := domain.DirectoryQuery{
		Search:   q.Get("search"),
		Status:   q.Get("status"),
		SortBy:   q.Get("sort"),
		Desc:     q.Get("order") == "desc",
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "page_size", 0),
	}
	if p := domain.PlanType(q.Get("plan")); plans.IsValid(p) {
		dq.Plan = p
	}
	if dq.Page < 1 {
		dq.Page = 1
	}
	return dq
}

func directoryHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients")
		defer span.End()

		resp, err := clientSvc.Directory(ctx, parseDirectoryQuery(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func getClientHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/admin/clients/{clientId}")
		defer span.End()

		detail, err := clientSvc.Get(ctx, chi.URLParam(r, "clientId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, detail)
	}
}

func updateClientHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/admin/clients/{clientId}")
		defer span.End()

		var upd domain.ClientUpdate
		if !decodeJSON(w, r, &upd) {
			return
		}

		client, err := clientSvc.Update(ctx, chi.URLParam(r, "clientId"), &upd)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func grantBonusHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/admin/clients/{clientId}/bonus")
		defer span.End()

		var req domain.BonusGrantRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		client, err := clientSvc.GrantBonus(ctx, chi.URLParam(r, "clientId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, client)
	}
}

func deleteClientHandler(clientSvc *service.ClientService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/admin/clients/{clientId}")
		defer span.End()

		if err := clientSvc.Delete(ctx, chi.URLParam(r, "clientId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
