package model

import "time"

// SentinelKeyID anchors installation records for requests that presented an
// unknown or inactive key. The row is seeded by migration and is never active.
const SentinelKeyID = "00000000-0000-0000-0000-000000000000"

// APIKey represents an issued API key and its installation capacity.
type APIKey struct {
	ID                   string     `json:"id"`
	ClientID             string     `json:"client_id"`
	Key                  string     `json:"key"`
	MaxInstallations     int        `json:"max_installations"`
	CurrentInstallations int        `json:"current_installations"`
	IsActive             bool       `json:"is_active"`
	ExpiresAt            *time.Time `json:"expires_at,omitempty"`
	LastUsed             *time.Time `json:"last_used,omitempty"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// Expired reports whether the key has an expiry in the past relative to now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && k.ExpiresAt.Before(now)
}
