package models

import (
	"time"

	"github.com/google/uuid"
)

type GrantStatus string

const (
	GrantStatusPending  GrantStatus = "pending"
	GrantStatusActive   GrantStatus = "active"
	GrantStatusInactive GrantStatus = "inactive"
	GrantStatusRevoked  GrantStatus = "revoked"
)

// Grant is one user's standing relationship to one property. At most one row
// exists per (property, user) pair; writes go through GrantService.Upsert.
type Grant struct {
	ID          uuid.UUID           `json:"id"`
	PropertyID  uuid.UUID           `json:"property_id"`
	UserID      uuid.UUID           `json:"user_id"`
	Role        Role                `json:"role"`
	Status      GrantStatus         `json:"status"`
	Permissions map[Permission]bool `json:"permissions"`
	InvitedBy   *uuid.UUID          `json:"invited_by,omitempty"`
	InvitedAt   time.Time           `json:"invited_at"`
	AcceptedAt  *time.Time          `json:"accepted_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	User        *User               `json:"user,omitempty"`
}

// Permits answers permission checks for this grant: the role matrix, widened
// by any per-grant override set to true. Overrides can never narrow the
// matrix baseline.
func (g *Grant) Permits(permission Permission) bool {
	if g.Status != GrantStatusActive {
		return false
	}
	return PermitsWithOverrides(g.Role, g.Permissions, permission)
}
