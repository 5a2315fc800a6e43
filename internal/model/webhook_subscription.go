package model

import (
	"slices"
	"time"
)

// WebhookSubscription is an administrator-configured endpoint that receives
// event notifications. Secret, when set, enables HMAC signing of payloads.
type WebhookSubscription struct {
	ID         string    `json:"id"`
	URL        string    `json:"url"`
	Secret     string    `json:"-"`
	Events     []string  `json:"events"`
	IsActive   bool      `json:"is_active"`
	MaxRetries int       `json:"max_retries"`
	TimeoutMs  int       `json:"timeout_ms"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Timeout returns the per-attempt delivery timeout.
func (s *WebhookSubscription) Timeout() time.Duration {
	return time.Duration(s.TimeoutMs) * time.Millisecond
}

// Matches reports whether the subscription's event filter contains name.
func (s *WebhookSubscription) Matches(name string) bool {
	return slices.Contains(s.Events, name)
}
