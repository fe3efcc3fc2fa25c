package dto

import (
	"time"

	"github.com/google/uuid"
)

type CreateInviteRequest struct {
	Email string `json:"email"`
	Role  string `json:"role"`
}

type InviteResponse struct {
	ID        uuid.UUID `json:"id"`
	Property  uuid.UUID `json:"property_id"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"expires_at"`
	// Token is only present in the response to the issuing call; listings
	// omit it so the credential is never re-exposed.
	Token string `json:"token,omitempty"`
}

type AcceptInviteResponse struct {
	PropertyID uuid.UUID `json:"property_id"`
	Role       string    `json:"role"`
	Status     string    `json:"status"`
}
