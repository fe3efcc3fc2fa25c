package models

import (
	"time"

	"github.com/google/uuid"
)

type Property struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Address   *string    `json:"address,omitempty"`
	// LandlordID is the deprecated single-owner reference. Read-only after
	// creation; the grant table is authoritative when the two disagree.
	LandlordID *uuid.UUID `json:"landlord_id,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// PropertyAccess is one row of a user's accessible-property listing, with
// the convenience capability flags precomputed from the role matrix.
type PropertyAccess struct {
	Property             Property `json:"property"`
	Role                 Role     `json:"role"`
	CanManageUsers       bool     `json:"can_manage_users"`
	CanEditProperty      bool     `json:"can_edit_property"`
	CanManageTenants     bool     `json:"can_manage_tenants"`
	CanManageMaintenance bool     `json:"can_manage_maintenance"`
}

type Unit struct {
	ID         uuid.UUID `json:"id"`
	PropertyID uuid.UUID `json:"property_id"`
	Label      string    `json:"label"`
	Bedrooms   int       `json:"bedrooms"`
	RentCents  int64     `json:"rent_cents"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type Tenant struct {
	ID         uuid.UUID  `json:"id"`
	PropertyID uuid.UUID  `json:"property_id"`
	UnitID     *uuid.UUID `json:"unit_id,omitempty"`
	Name       string     `json:"name"`
	Email      *string    `json:"email,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}
