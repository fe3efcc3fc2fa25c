package models

import (
	"time"

	"github.com/google/uuid"
)

type InvitationStatus string

const (
	// InvitationStatusActive means accepted; mirrors the grant status naming.
	InvitationStatusPending  InvitationStatus = "pending"
	InvitationStatusActive   InvitationStatus = "active"
	InvitationStatusInactive InvitationStatus = "inactive"
	InvitationStatusRevoked  InvitationStatus = "revoked"
)

// Invitation is a single-use, time-bounded offer to join a property. The
// token is the acceptance credential; the invitee may not have an account
// yet, so the offer is addressed to an email rather than a user id.
type Invitation struct {
	ID          uuid.UUID           `json:"id"`
	PropertyID  uuid.UUID           `json:"property_id"`
	Email       string              `json:"email"`
	Role        Role                `json:"role"`
	Permissions map[Permission]bool `json:"permissions"`
	Token       string              `json:"token,omitempty"`
	Status      InvitationStatus    `json:"status"`
	InvitedBy   uuid.UUID           `json:"invited_by"`
	ExpiresAt   time.Time           `json:"expires_at"`
	AcceptedBy  *uuid.UUID          `json:"accepted_by,omitempty"`
	AcceptedAt  *time.Time          `json:"accepted_at,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
