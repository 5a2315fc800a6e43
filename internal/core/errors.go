package core

import "errors"

var (
	// ErrKeyInactive is returned when the presented key is unknown or
	// administratively deactivated.
	ErrKeyInactive = errors.New("api key inactive or unknown")
	// ErrKeyExpired is returned when the presented key exists but its expiry
	// is in the past.
	ErrKeyExpired = errors.New("api key expired")
	// ErrNotFound is returned by lookups that matched no row.
	ErrNotFound = errors.New("not found")
)
