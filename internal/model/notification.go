package model

import "time"

// Notification is a best-effort in-app notice for administrators. Writes are
// fire-and-forget; a failed insert is logged and discarded.
type Notification struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	APIKeyID  *string   `json:"api_key_id,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
