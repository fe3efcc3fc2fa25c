package dto

import "github.com/google/uuid"

type CreateUnitRequest struct {
	Label     string `json:"label"`
	Bedrooms  int    `json:"bedrooms"`
	RentCents int64  `json:"rent_cents"`
}

type UnitResponse struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Bedrooms  int       `json:"bedrooms"`
	RentCents int64     `json:"rent_cents"`
}
