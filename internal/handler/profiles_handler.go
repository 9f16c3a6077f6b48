package handler

import (
	"io"
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/editor"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

const maxUploadSize = 10 << 20

// ============================================================
// 4. Perfis
// ============================================================

func listProfilesHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles")
		defer span.End()

		profiles, err := profileSvc.List(ctx, principal(r))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": profiles, "total": len(profiles)})
	}
}

func createProfileHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles")
		defer span.End()

		var req domain.CreateProfileRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		prof, err := profileSvc.Create(ctx, principal(r), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, prof)
	}
}

func deleteProfileHandler(profileSvc *service.ProfileService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/profiles/{profileId}")
		defer span.End()

		if err := profileSvc.Delete(ctx, principal(r), chi.URLParam(r, "profileId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Editor (draft → save)
// ============================================================

func getDraftHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/draft")
		defer span.End()

		v, err := draftSvc.Get(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// applyDraftHandler accepts one {"kind": ..., "payload": ...} update.
func applyDraftHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/draft")
		defer span.End()

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxJSONBody))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		u, err := editor.DecodeUpdate(body)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		span.SetAttributes(attribute.String("editor.update", string(u.Kind())))

		v, err := draftSvc.Apply(ctx, principal(r), chi.URLParam(r, "profileId"), u)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func discardDraftHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/profiles/{profileId}/draft")
		defer span.End()

		if err := draftSvc.Discard(ctx, principal(r), chi.URLParam(r, "profileId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// saveDraftHandler answers 207 with the committed/failed breakdown when only
// part of the aggregate was stored.
func saveDraftHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/save")
		defer span.End()

		res, err := draftSvc.Save(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			if res != nil {
				logger.Warn("profile saved partially",
					zap.String("profile_id", chi.URLParam(r, "profileId")),
					zap.Error(err),
				)
				writeJSON(w, http.StatusMultiStatus, res)
				return
			}
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

func copyStyleHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/style/copy")
		defer span.End()

		snap, err := draftSvc.CopyStyle(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, snap)
	}
}

func pasteStyleHandler(draftSvc *service.DraftService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/style/paste")
		defer span.End()

		v, err := draftSvc.PasteStyle(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// ============================================================
// Media & QR code
// ============================================================

func uploadMediaHandler(mediaSvc *service.MediaService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/media")
		defer span.End()

		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file is required")
			return
		}
		defer file.Close()

		kind := r.URL.Query().Get("kind")
		if kind == "" {
			kind = r.FormValue("kind")
		}

		res, err := mediaSvc.Upload(ctx, principal(r), chi.URLParam(r, "profileId"), kind, file)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, res)
	}
}

func qrHandler(qrSvc *service.QRService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/qr")
		defer span.End()

		png, err := qrSvc.Generate(ctx, principal(r), chi.URLParam(r, "profileId"), service.QRRequest{
			Size:     queryInt(r, "size", 0),
			WithLogo: queryBool(r, "logo"),
			Showcase: r.URL.Query().Get("target") == "vitrine",
		})
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.WriteHeader(http.StatusOK)
		w.Write(png)
	}
}
