package dto

import "github.com/google/uuid"

type CreateTenantRequest struct {
	Name   string     `json:"name"`
	Email  *string    `json:"email,omitempty"`
	UnitID *uuid.UUID `json:"unit_id,omitempty"`
}

type TenantResponse struct {
	ID     uuid.UUID  `json:"id"`
	Name   string     `json:"name"`
	Email  *string    `json:"email,omitempty"`
	UnitID *uuid.UUID `json:"unit_id,omitempty"`
}
