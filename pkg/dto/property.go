package dto

import (
	"github.com/google/uuid"
)

type CreatePropertyRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type UpdatePropertyRequest struct {
	Name    string  `json:"name"`
	Address *string `json:"address,omitempty"`
}

type PropertyResponse struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Address *string   `json:"address,omitempty"`
}

// PropertyAccessResponse is one row of the accessible-properties listing,
// with the caller's role and capability flags.
type PropertyAccessResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Address              *string   `json:"address,omitempty"`
	Role                 string    `json:"role"`
	CanManageUsers       bool      `json:"can_manage_users"`
	CanEditProperty      bool      `json:"can_edit_property"`
	CanManageTenants     bool      `json:"can_manage_tenants"`
	CanManageMaintenance bool      `json:"can_manage_maintenance"`
}
