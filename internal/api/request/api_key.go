package request

import "time"

// CreateAPIKey holds the request body for issuing an API key.
type CreateAPIKey struct {
	ClientID         string     `json:"client_id" validate:"required"`
	MaxInstallations int        `json:"max_installations" validate:"required,min=1"`
	ExpiresAt        *time.Time `json:"expires_at"`
}

// UpdateAPIKey holds the request body for updating an API key.
type UpdateAPIKey struct {
	MaxInstallations int        `json:"max_installations" validate:"required,min=1"`
	IsActive         bool       `json:"is_active"`
	ExpiresAt        *time.Time `json:"expires_at"`
}
