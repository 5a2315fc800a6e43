package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// Installation handles administrative installation endpoints.
type Installation struct {
	svc *core.InstallationService
}

func NewInstallation(svc *core.InstallationService) *Installation {
	return &Installation{svc: svc}
}

// ListByKey lists installations for an API key, newest first.
func (h *Installation) ListByKey(w http.ResponseWriter, r *http.Request) {
	keyID, err := request.RequireID(chi.URLParam(r, "keyID"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	pg := request.ParsePagination(r)

	items, hasMore, err := h.svc.ListByKey(r.Context(), keyID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(items) > 0 {
		nextCursor = items[len(items)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, items, nextCursor, hasMore)
}

func (h *Installation) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	inst, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, inst)
}

// Deactivate releases an installation slot.
func (h *Installation) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Deactivate(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
