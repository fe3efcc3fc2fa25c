package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
)

var ErrTenantNotFound = errors.New("tenant not found")

type TenantService struct {
	db *database.DB
}

func NewTenantService(db *database.DB) *TenantService {
	return &TenantService{db: db}
}

func (s *TenantService) Create(ctx context.Context, propertyID uuid.UUID, unitID *uuid.UUID, name string, email *string) (*models.Tenant, error) {
	var tenant models.Tenant
	err := s.db.Pool.QueryRow(ctx, `
		INSERT INTO tenants (property_id, unit_id, name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, property_id, unit_id, name, email, created_at, updated_at
	`, propertyID, unitID, name, email).Scan(
		&tenant.ID, &tenant.PropertyID, &tenant.UnitID, &tenant.Name, &tenant.Email,
		&tenant.CreatedAt, &tenant.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &tenant, nil
}

func (s *TenantService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Tenant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT id, property_id, unit_id, name, email, created_at, updated_at
		FROM tenants WHERE property_id = $1
		ORDER BY name
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenants []models.Tenant
	for rows.Next() {
		var tenant models.Tenant
		if err := rows.Scan(
			&tenant.ID, &tenant.PropertyID, &tenant.UnitID, &tenant.Name, &tenant.Email,
			&tenant.CreatedAt, &tenant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		tenants = append(tenants, tenant)
	}
	return tenants, rows.Err()
}

func (s *TenantService) Delete(ctx context.Context, propertyID, tenantID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `
		DELETE FROM tenants WHERE id = $1 AND property_id = $2
	`, tenantID, propertyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrTenantNotFound
	}
	return nil
}
