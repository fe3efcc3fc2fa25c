package models

import (
	"time"

	"github.com/google/uuid"
)

// User rows are synced from the external identity provider; this service
// never creates credentials, it only needs ids and the email→id mapping for
// invitation acceptance.
type User struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
