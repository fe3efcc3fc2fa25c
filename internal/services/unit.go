package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
)

var ErrUnitNotFound = errors.New("unit not found")

type UnitService struct {
	db *database.DB
}

func NewUnitService(db *database.DB) *UnitService {
	return &UnitService{db: db}
}

func (s *UnitService) Create(ctx context.Context, propertyID uuid.UUID, label string, bedrooms int, rentCents int64) (*models.Unit, error) {
	var unit models.Unit
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO units (property_id, label, bedrooms, rent_cents)
		VALUES ($1, $2, $3, $4)
		RETURNING id, property_id, label, bedrooms, rent_cents, created_at, updated_at
	`, propertyID, label, bedrooms, rentCents).Scan(
		&unit.ID, &unit.PropertyID, &unit.Label, &unit.Bedrooms, &unit.RentCents,
		&unit.CreatedAt, &unit.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &unit, nil
}

func (s *UnitService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Unit, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, property_id, label, bedrooms, rent_cents, created_at, updated_at
		FROM units WHERE property_id = $1
		ORDER BY label
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var units []models.Unit
	for rows.Next() {
		var unit models.Unit
		if err := rows.Scan(
			&unit.ID, &unit.PropertyID, &unit.Label, &unit.Bedrooms, &unit.RentCents,
			&unit.CreatedAt, &unit.UpdatedAt,
		); err != nil {
			return nil, err
		}
		units = append(units, unit)
	}
	return units, rows.Err()
}

// Delete is scoped by property id so a unit can only be removed through its
// own property's (already authorized) route.
func (s *UnitService) Delete(ctx context.Context, propertyID, unitID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM units WHERE id = $1 AND property_id = $2
	`, unitID, propertyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrUnitNotFound
	}
	return nil
}
