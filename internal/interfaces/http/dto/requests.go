package dto

// RegisterRequest is the body for POST /auth/register
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required,min=1,max=255"`
	Password string `json:"password" binding:"required,min=8,max=128"`
}

// LoginRequest is the body for POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest is the body for POST /auth/refresh
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// CreateSectionRequest is the body for POST /sections
type CreateSectionRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=1024"`
	DeltaValue  int    `json:"deltaValue" binding:"omitempty,min=1"`
}

// UpdateSectionRequest is the body for PATCH /sections/:id. Omitted fields
// are left unchanged.
type UpdateSectionRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description" binding:"omitempty,max=1024"`
	DeltaValue  *int    `json:"deltaValue" binding:"omitempty,min=1"`
}

// CreateItemRequest is the body for POST /sections/:id/items
type CreateItemRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=1024"`
	MaxQuantity int    `json:"maxQuantity" binding:"required,min=1"`
}

// UpdateCountRequest is the body for PATCH .../items/:itemId. The count is a
// pointer so zero is distinguishable from an omitted field.
type UpdateCountRequest struct {
	Count *int `json:"count" binding:"required"`
}

// UpdateMaxQuantityRequest is the body for PATCH .../items/:itemId/max
type UpdateMaxQuantityRequest struct {
	MaxQuantity *int `json:"maxQuantity" binding:"required"`
}

// UpdateRemarkRequest is the body for PATCH /logs/:logId
type UpdateRemarkRequest struct {
	Remarks string `json:"remarks" binding:"max=1024"`
}
