package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// Client handles client management endpoints.
type Client struct {
	svc *core.ClientService
}

func NewClient(svc *core.ClientService) *Client {
	return &Client{svc: svc}
}

func (h *Client) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateClient
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.Create(r.Context(), req.Name, req.Email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, client)
}

func (h *Client) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	clients, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(clients) > 0 {
		nextCursor = clients[len(clients)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, clients, nextCursor, hasMore)
}

func (h *Client) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, client)
}

func (h *Client) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateClient
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	client, err := h.svc.Update(r.Context(), id, req.Name, req.Email, req.IsActive)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, client)
}

func (h *Client) Delete(w http.ResponseWriter, r *http.Request) {
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
