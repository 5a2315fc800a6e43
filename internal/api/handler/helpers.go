package handler

import (
	"errors"
	"net/http"

	"github.com/ABCMilioli/api-control/internal/api/response"
	"github.com/ABCMilioli/api-control/internal/core"
)

// writeServiceError maps core errors to HTTP status codes.
func writeServiceError(w http.ResponseWriter, err error) {
	if errors.Is(err, core.ErrNotFound) {
		response.WriteError(w, http.StatusNotFound, "not found")
		return
	}
	response.WriteError(w, http.StatusInternalServerError, err.Error())
}
