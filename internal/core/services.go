package core

import "github.com/rs/zerolog"

type Services struct {
	Admission    *AdmissionService
	Client       *ClientService
	APIKey       *APIKeyService
	Installation *InstallationService
	Subscription *SubscriptionService
	Notification *NotificationService
}

func NewServices(db DB, events EventSink, logger zerolog.Logger) *Services {
	notifications := NewNotificationService(db)
	return &Services{
		Admission:    NewAdmissionService(db, events, notifications, logger),
		Client:       NewClientService(db, events),
		APIKey:       NewAPIKeyService(db, events),
		Installation: NewInstallationService(db, events),
		Subscription: NewSubscriptionService(db),
		Notification: notifications,
	}
}
