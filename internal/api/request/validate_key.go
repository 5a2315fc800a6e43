package request

// ValidateKey holds the admission request body. IPAddress is optional; the
// handler falls back to the transport-level peer address.
type ValidateKey struct {
	APIKey    string `json:"apiKey" validate:"required,min=1"`
	IPAddress string `json:"ipAddress" validate:"omitempty"`
	UserAgent string `json:"userAgent" validate:"omitempty"`
}
