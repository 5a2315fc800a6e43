package model

import "time"

// Event names emitted by the core services.
const (
	EventClientCreated            = "client.created"
	EventClientUpdated            = "client.updated"
	EventClientDeleted            = "client.deleted"
	EventKeyCreated               = "key.created"
	EventKeyUpdated               = "key.updated"
	EventKeyDeleted               = "key.deleted"
	EventKeyExpired               = "key.expired"
	EventInstallationSuccess      = "installation.success"
	EventInstallationFailed       = "installation.failed"
	EventInstallationLimitReached = "installation.limit_reached"
	EventInstallationDeactivated  = "installation.deactivated"
)

// EventNames lists every event a webhook subscription may filter on.
var EventNames = []string{
	EventClientCreated,
	EventClientUpdated,
	EventClientDeleted,
	EventKeyCreated,
	EventKeyUpdated,
	EventKeyDeleted,
	EventKeyExpired,
	EventInstallationSuccess,
	EventInstallationFailed,
	EventInstallationLimitReached,
	EventInstallationDeactivated,
}

// Event is a domain event handed to the webhook dispatcher. Payload must be
// JSON-marshalable; it is serialized once per delivery envelope.
type Event struct {
	Name       string
	OccurredAt time.Time
	Payload    any
}
