package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/boddenberg/linkbio-api-go/internal/domain"

	"go.uber.org/zap"
)

// ============================================================
// Shared helper functions
// ============================================================

const maxJSONBody = 1 << 20

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Feature string `json:"feature,omitempty"`
	Limit   *int   `json:"limit,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON reads a bounded JSON body into v. On failure it writes 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var (
		notFound        *domain.ErrNotFound
		circuitOpen     *domain.ErrCircuitOpen
		external        *domain.ErrExternalService
		validation      *domain.ErrValidation
		limitExceeded   *domain.ErrLimitExceeded
		featureLocked   *domain.ErrFeatureLocked
		forbidden       *domain.ErrForbidden
		unauthorized    *domain.ErrUnauthorized
		conflict        *domain.ErrConflict
		unsaved         *domain.ErrUnsavedChanges
		partial         *domain.ErrPartialSave
		logoUnavailable *domain.ErrLogoUnavailable
		tooLarge        *http.MaxBytesError
	)

	switch {
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.As(err, &limitExceeded):
		logger.Warn("limit exceeded", zap.String("error", err.Error()))
		limit := limitExceeded.Limit
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "limit_exceeded", Limit: &limit})
	case errors.As(err, &featureLocked):
		logger.Debug("feature locked", zap.String("feature", featureLocked.Feature), zap.String("plan", string(featureLocked.Plan)))
		writeJSON(w, http.StatusForbidden, errorResponse{Error: err.Error(), Code: "feature_locked", Feature: featureLocked.Feature})
	case errors.As(err, &forbidden):
		logger.Warn("forbidden access", zap.String("error", err.Error()))
		writeError(w, http.StatusForbidden, err.Error())
	case errors.As(err, &unauthorized):
		logger.Warn("unauthorized", zap.String("error", err.Error()))
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.As(err, &unsaved):
		logger.Debug("unsaved changes", zap.String("item_id", unsaved.ItemID))
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Code: "unsaved_changes"})
	case errors.As(err, &conflict):
		logger.Debug("conflict", zap.String("error", err.Error()))
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &partial):
		logger.Warn("partial save", zap.String("error", err.Error()))
		writeJSON(w, http.StatusMultiStatus, errorResponse{Error: err.Error(), Code: "partial_save"})
	case errors.As(err, &logoUnavailable):
		logger.Warn("qr logo unavailable", zap.Error(err))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Code: "logo_unavailable"})
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		writeError(w, http.StatusBadGateway, "upstream service error")
	default:
		logger.Error("unhandled error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
