package response

import "net/http"

// Admission endpoint error codes.
const (
	CodeKeyInactive   = "API_KEY_INACTIVE"
	CodeKeyExpired    = "API_KEY_EXPIRED"
	CodeInternalError = "INTERNAL_ERROR"
)

// ValidationData is the payload of a successful admission response.
type ValidationData struct {
	ClientName             string  `json:"clientName"`
	InstallationID         string  `json:"installationId"`
	ReplacedInstallationID *string `json:"replacedInstallationId"`
}

type validationSuccess struct {
	Success bool           `json:"success"`
	Valid   bool           `json:"valid"`
	Data    ValidationData `json:"data"`
}

type validationError struct {
	Success     bool   `json:"success"`
	Error       string `json:"error"`
	Description string `json:"description"`
	Code        int    `json:"code"`
}

// WriteValidationSuccess writes the 200 admission response.
func WriteValidationSuccess(w http.ResponseWriter, data ValidationData) {
	WriteJSON(w, http.StatusOK, validationSuccess{Success: true, Valid: true, Data: data})
}

// WriteValidationError writes a rejection or failure in the admission wire
// format.
func WriteValidationError(w http.ResponseWriter, status int, code, description string) {
	WriteJSON(w, status, validationError{Error: code, Description: description, Code: status})
}
