package handler

import (
	"net/http"

	"github.com/boddenberg/linkbio-api-go/internal/domain"
	"github.com/boddenberg/linkbio-api-go/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ============================================================
// 5. Vitrine
// ============================================================

func getShowcaseHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/showcase")
		defer span.End()

		v, err := showcaseSvc.Ensure(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func getShowcaseSettingsHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/showcase/settings")
		defer span.End()

		v, err := showcaseSvc.Settings(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// updateShowcaseSettingsHandler answers 202: the change is applied in memory
// and written by the autosaver after the debounce delay.
func updateShowcaseSettingsHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PATCH /v1/profiles/{profileId}/showcase/settings")
		defer span.End()

		var patch domain.ShowcaseSettingsPatch
		if !decodeJSON(w, r, &patch) {
			return
		}

		v, err := showcaseSvc.UpdateSettings(ctx, principal(r), chi.URLParam(r, "profileId"), &patch)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, v)
	}
}

func toggleHeaderButtonHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/showcase/header-buttons/{buttonId}")
		defer span.End()

		v, err := showcaseSvc.ToggleHeaderButton(ctx, principal(r), chi.URLParam(r, "profileId"), chi.URLParam(r, "buttonId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusAccepted, v)
	}
}

func addItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/showcase/items")
		defer span.End()

		var item domain.ShowcaseItem
		if !decodeJSON(w, r, &item) {
			return
		}

		created, err := showcaseSvc.AddItem(ctx, principal(r), chi.URLParam(r, "profileId"), &item)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

type reorderRequest struct {
	ItemIDs []string `json:"itemIds"`
}

func reorderItemsHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profiles/{profileId}/showcase/items/order")
		defer span.End()

		var req reorderRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		items, err := showcaseSvc.ReorderItems(ctx, principal(r), chi.URLParam(r, "profileId"), req.ItemIDs)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, items)
	}
}

func deleteItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/profiles/{profileId}/showcase/items/{itemId}")
		defer span.End()

		if err := showcaseSvc.DeleteItem(ctx, principal(r), chi.URLParam(r, "profileId"), chi.URLParam(r, "itemId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ============================================================
// Item edit session
// ============================================================

func editingItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/profiles/{profileId}/showcase/editing")
		defer span.End()

		v, err := showcaseSvc.EditingItem(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

// openItemHandler switches the edited item. Switching away from unsaved
// changes answers 409 unless the body confirms the discard.
func openItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/showcase/editing")
		defer span.End()

		var req domain.OpenItemRequest
		if !decodeJSON(w, r, &req) {
			return
		}

		v, err := showcaseSvc.OpenItem(ctx, principal(r), chi.URLParam(r, "profileId"), &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func editItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "PUT /v1/profiles/{profileId}/showcase/editing")
		defer span.End()

		var item domain.ShowcaseItem
		if !decodeJSON(w, r, &item) {
			return
		}

		v, err := showcaseSvc.EditItem(ctx, principal(r), chi.URLParam(r, "profileId"), &item)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func saveItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/profiles/{profileId}/showcase/editing/save")
		defer span.End()

		item, err := showcaseSvc.SaveItem(ctx, principal(r), chi.URLParam(r, "profileId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func closeItemHandler(showcaseSvc *service.ShowcaseService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "DELETE /v1/profiles/{profileId}/showcase/editing")
		defer span.End()

		if err := showcaseSvc.CloseItem(ctx, principal(r), chi.URLParam(r, "profileId"), queryBool(r, "discard")); err != nil {
			handleServiceError(w, err, logger)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
