package request

// CreateClient holds the request body for creating a client.
type CreateClient struct {
	Name  string `json:"name" validate:"required,min=1,max=255"`
	Email string `json:"email" validate:"omitempty,email"`
}

// UpdateClient holds the request body for updating a client.
type UpdateClient struct {
	Name     string `json:"name" validate:"required,min=1,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	IsActive bool   `json:"is_active"`
}
