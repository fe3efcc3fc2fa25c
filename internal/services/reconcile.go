package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rcastell/propguard/internal/database"
)

var ErrPropertyNotFound = errors.New("property not found")

// ReconcilerService derives a missing active owner grant from the legacy
// properties.landlord_id column. It only ever writes the grant table; the
// legacy column stays untouched, and when the two disagree the grant table
// wins. Idempotent: a property that already has an active owner grant is
// left alone.
type ReconcilerService struct {
	db *database.DB
}

func NewReconcilerService(db *database.DB) *ReconcilerService {
	return &ReconcilerService{db: db}
}

func (s *ReconcilerService) Reconcile(ctx context.Context, propertyID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var landlordID *uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT landlord_id FROM properties WHERE id = $1
	`, propertyID).Scan(&landlordID)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrPropertyNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load property: %w", err)
	}
	if landlordID == nil {
		return tx.Commit(ctx)
	}

	var hasOwner bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM property_grants
			WHERE property_id = $1 AND role = 'owner' AND status = 'active'
		)
	`, propertyID).Scan(&hasOwner)
	if err != nil {
		return fmt.Errorf("failed to check owner grant: %w", err)
	}
	if hasOwner {
		return tx.Commit(ctx)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO property_grants (property_id, user_id, role, status, accepted_at)
		VALUES ($1, $2, 'owner', 'active', NOW())
		ON CONFLICT (property_id, user_id) DO UPDATE SET
			role = 'owner',
			status = 'active',
			updated_at = NOW()
	`, propertyID, *landlordID)
	if err != nil {
		return fmt.Errorf("failed to derive owner grant: %w", err)
	}

	return tx.Commit(ctx)
}

// ReconcileAll repairs every property whose legacy landlord has no active
// owner grant. Returns how many properties were reconciled.
func (s *ReconcilerService) ReconcileAll(ctx context.Context) (int, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id FROM properties p
		WHERE p.landlord_id IS NOT NULL
		AND NOT EXISTS (
			SELECT 1 FROM property_grants g
			WHERE g.property_id = p.id AND g.role = 'owner' AND g.status = 'active'
		)
	`)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for i, id := range ids {
		if err := s.Reconcile(ctx, id); err != nil {
			return i, fmt.Errorf("failed to reconcile property %s: %w", id, err)
		}
	}
	return len(ids), nil
}
