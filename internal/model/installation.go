package model

import "time"

// Installation is one admission attempt against an API key. Successful
// attempts occupy a slot while Active is true; the record itself is immutable
// except for the Active flag, which is cleared on eviction or deactivation.
type Installation struct {
	ID            string    `json:"id"`
	APIKeyID      string    `json:"api_key_id"`
	RemoteAddress string    `json:"remote_address"`
	UserAgent     string    `json:"user_agent,omitempty"`
	Location      string    `json:"location,omitempty"`
	Active        bool      `json:"active"`
	Success       bool      `json:"success"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// AdmissionResult is the outcome of a successful Validate call.
type AdmissionResult struct {
	InstallationID string
	// ReplacedInstallationID is set when the admission evicted the oldest
	// active installation to stay within capacity.
	ReplacedInstallationID *string
	ClientName             string
	ActiveCount            int
	MaxInstallations       int
}
