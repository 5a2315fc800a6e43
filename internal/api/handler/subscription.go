package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
	"github.com/ABCMilioli/api-control/internal/model"
)

const (
	defaultMaxRetries = 3
	defaultTimeoutMs  = 30000
)

// Subscription handles webhook subscription management endpoints.
type Subscription struct {
	svc *core.SubscriptionService
}

func NewSubscription(svc *core.SubscriptionService) *Subscription {
	return &Subscription{svc: svc}
}

func validateEventNames(events []string) error {
	for _, e := range events {
		if !slices.Contains(model.EventNames, e) {
			return fmt.Errorf("unknown event name %q", e)
		}
	}
	return nil
}

func (h *Subscription) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEventNames(req.Events); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub := &model.WebhookSubscription{
		URL:        req.URL,
		Secret:     req.Secret,
		Events:     req.Events,
		IsActive:   true,
		MaxRetries: defaultMaxRetries,
		TimeoutMs:  defaultTimeoutMs,
	}
	if req.IsActive != nil {
		sub.IsActive = *req.IsActive
	}
	if req.MaxRetries != nil {
		sub.MaxRetries = *req.MaxRetries
	}
	if req.TimeoutMs != nil {
		sub.TimeoutMs = *req.TimeoutMs
	}

	created, err := h.svc.Create(r.Context(), sub)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusCreated, created)
}

func (h *Subscription) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	subs, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	var nextCursor string
	if hasMore && len(subs) > 0 {
		nextCursor = subs[len(subs)-1].ID
	}
	response.WritePaginated(w, http.StatusOK, subs, nextCursor, hasMore)
}

func (h *Subscription) Get(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.GetByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sub)
}

func (h *Subscription) Update(w http.ResponseWriter, r *http.Request) {
	id, err := request.RequireID(chi.URLParam(r, "id"))
	if err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req request.UpdateSubscription
	if err := request.Decode(r, &req); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validateEventNames(req.Events); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error())
		return
	}

	sub, err := h.svc.Update(r.Context(), &model.WebhookSubscription{
		ID:         id,
		URL:        req.URL,
		Secret:     req.Secret,
		Events:     req.Events,
		IsActive:   req.IsActive,
		MaxRetries: req.MaxRetries,
		TimeoutMs:  req.TimeoutMs,
	})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, sub)
}

func (h *Subscription) Delete(w http.ResponseWriter, r *http.Request) {
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
