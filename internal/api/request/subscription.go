package request

// CreateSubscription holds the request body for creating a webhook
// subscription. Defaults mirror the table defaults.
type CreateSubscription struct {
	URL        string   `json:"url" validate:"required,url"`
	Secret     string   `json:"secret"`
	Events     []string `json:"events" validate:"required,min=1,dive,required"`
	IsActive   *bool    `json:"is_active"`
	MaxRetries *int     `json:"max_retries" validate:"omitempty,min=0,max=10"`
	TimeoutMs  *int     `json:"timeout_ms" validate:"omitempty,min=100,max=120000"`
}

// UpdateSubscription holds the request body for updating a webhook
// subscription.
type UpdateSubscription struct {
	URL        string   `json:"url" validate:"required,url"`
	Secret     string   `json:"secret"`
	Events     []string `json:"events" validate:"required,min=1,dive,required"`
	IsActive   bool     `json:"is_active"`
	MaxRetries int      `json:"max_retries" validate:"min=0,max=10"`
	TimeoutMs  int      `json:"timeout_ms" validate:"min=100,max=120000"`
}
