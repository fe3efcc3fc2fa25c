package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rcastell/propguard/internal/authcache"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
)

type PropertyService struct {
	db    *database.DB
	cache *authcache.Cache
}

func NewPropertyService(db *database.DB, cache *authcache.Cache) *PropertyService {
	return &PropertyService{db: db, cache: cache}
}

// Create inserts the property and the creator's owner grant in one
// transaction, so a property is never observable without a reachable owner.
// The legacy landlord column is written exactly once, here.
func (s *PropertyService) Create(ctx context.Context, name string, address *string, ownerID uuid.UUID) (*models.Property, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var property models.Property
	err = tx.QueryRow(ctx, `
		INSERT INTO properties (name, address, landlord_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, landlord_id, created_at, updated_at
	`, name, address, ownerID).Scan(
		&property.ID, &property.Name, &property.Address, &property.LandlordID,
		&property.CreatedAt, &property.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create property: %w", err)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO property_grants (property_id, user_id, role, status, accepted_at)
		VALUES ($1, $2, 'owner', 'active', NOW())
	`, property.ID, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to add owner grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &property, nil
}

func (s *PropertyService) GetByID(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	var property models.Property
	err := s.db.Pool.QueryRow(ctx, `
		SELECT id, name, address, landlord_id, created_at, updated_at
		FROM properties WHERE id = $1
	`, propertyID).Scan(
		&property.ID, &property.Name, &property.Address, &property.LandlordID,
		&property.CreatedAt, &property.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Update never touches landlord_id.
func (s *PropertyService) Update(ctx context.Context, propertyID uuid.UUID, name string, address *string) (*models.Property, error) {
	var property models.Property
	err := s.db.Pool.QueryRow(ctx, `
		UPDATE properties SET name = $1, address = $2, updated_at = NOW()
		WHERE id = $3
		RETURNING id, name, address, landlord_id, created_at, updated_at
	`, name, address, propertyID).Scan(
		&property.ID, &property.Name, &property.Address, &property.LandlordID,
		&property.CreatedAt, &property.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrPropertyNotFound
	}
	if err != nil {
		return nil, err
	}
	return &property, nil
}

// Delete cascades to grants and invitations; the cached decisions of every
// member go with them.
func (s *PropertyService) Delete(ctx context.Context, propertyID uuid.UUID) error {
	result, err := s.db.Pool.Exec(ctx, `DELETE FROM properties WHERE id = $1`, propertyID)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrPropertyNotFound
	}

	s.cache.InvalidateProperty(propertyID)
	return nil
}
