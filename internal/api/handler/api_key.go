package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// APIKey handles API key management endpoints.
type APIKey struct {
	svc *core.APIKeyService
}

func NewAPIKey(svc *core.APIKeyService) *APIKey {
	return &APIKey{svc: svc}
}

// Create issues a new API key for a client.
func (h *APIKey) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.Create(r.Context(), req.ClientID, req.MaxInstallations, req.ExpiresAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, key)
}

func (h *APIKey) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)
	clientID := r.URL.Query().Get("client_id")

	keys, hasMore, err := h.svc.List(r.Context(), clientID, pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(keys) > 0 {
		nextCursor = keys[len(keys)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, keys, nextCursor, hasMore)
}

func (h *APIKey) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, key)
}

func (h *APIKey) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateAPIKey
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	key, err := h.svc.Update(r.Context(), id, req.MaxInstallations, req.IsActive, req.ExpiresAt)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, key)
}

func (h *APIKey) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
