package handler

import (
	"net/http"

	"github.com/ABCMilioli/api-control/internal/api/request"
	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// Notification handles the administrative notification feed.
type Notification struct {
	svc *core.NotificationService
}

func NewNotification(svc *core.NotificationService) *Notification {
	return &Notification{svc: svc}
}

func (h *Notification) List(w http.ResponseWriter, r *http.Request) {
	pg := request.ParsePagination(r)

	items, hasMore, err := h.svc.List(r.Context(), pg.Limit, pg.Cursor)
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
