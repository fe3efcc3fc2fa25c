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

var (
	ErrGrantNotFound = errors.New("grant not found")
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid grant status")
	// ErrLastOwner guards the invariant that every property keeps at least
	// one active owner grant. Demoting or deactivating the last owner fails.
	ErrLastOwner = errors.New("property must keep at least one active owner grant")
)

const grantColumns = `id, property_id, user_id, role, status, permissions, invited_by, invited_at, accepted_at, created_at, updated_at`

type GrantService struct {
	db    *database.DB
	cache *authcache.Cache
}

func NewGrantService(db *database.DB, cache *authcache.Cache) *GrantService {
	return &GrantService{db: db, cache: cache}
}

// Upsert creates or overwrites the single grant for (propertyID, userID).
// The unique pair constraint makes this race-safe: concurrent calls for the
// same pair serialize on the row, and the pair can never duplicate.
func (s *GrantService) Upsert(ctx context.Context, propertyID, userID uuid.UUID, role models.Role, status models.GrantStatus, invitedBy *uuid.UUID) (*models.Grant, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}
	switch status {
	case models.GrantStatusPending, models.GrantStatusActive, models.GrantStatusInactive, models.GrantStatusRevoked:
	default:
		return nil, ErrInvalidStatus
	}

	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if role != models.RoleOwner || status != models.GrantStatusActive {
		if err := ensureNotLastOwner(ctx, tx, propertyID, userID); err != nil {
			return nil, err
		}
	}

	var grant models.Grant
	err = tx.QueryRow(ctx, `
		INSERT INTO property_grants (property_id, user_id, role, status, invited_by, accepted_at)
		VALUES ($1, $2, $3, $4, $5, CASE WHEN $4 = 'active' THEN NOW() END)
		ON CONFLICT (property_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			status = EXCLUDED.status,
			accepted_at = COALESCE(property_grants.accepted_at, EXCLUDED.accepted_at),
			updated_at = NOW()
		RETURNING `+grantColumns+`
	`, propertyID, userID, role, status, invitedBy).Scan(
		&grant.ID, &grant.PropertyID, &grant.UserID, &grant.Role, &grant.Status,
		&grant.Permissions, &grant.InvitedBy, &grant.InvitedAt, &grant.AcceptedAt,
		&grant.CreatedAt, &grant.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert grant: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Invalidate(userID, propertyID)
	return &grant, nil
}

func (s *GrantService) Get(ctx context.Context, propertyID, userID uuid.UUID) (*models.Grant, error) {
	var grant models.Grant
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+grantColumns+`
		FROM property_grants
		WHERE property_id = $1 AND user_id = $2
	`, propertyID, userID).Scan(
		&grant.ID, &grant.PropertyID, &grant.UserID, &grant.Role, &grant.Status,
		&grant.Permissions, &grant.InvitedBy, &grant.InvitedAt, &grant.AcceptedAt,
		&grant.CreatedAt, &grant.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrGrantNotFound
	}
	if err != nil {
		return nil, err
	}
	return &grant, nil
}

// ListForUser returns the user's active grants only.
func (s *GrantService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Grant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+grantColumns+`
		FROM property_grants
		WHERE user_id = $1 AND status = 'active'
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanGrants(rows)
}

// ListForProperty returns every grant on the property, with the user row
// attached for display.
func (s *GrantService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Grant, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT g.id, g.property_id, g.user_id, g.role, g.status, g.permissions,
		       g.invited_by, g.invited_at, g.accepted_at, g.created_at, g.updated_at,
		       u.id, u.email, u.name, u.created_at, u.updated_at
		FROM property_grants g
		JOIN users u ON g.user_id = u.id
		WHERE g.property_id = $1
		ORDER BY g.created_at
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var grants []models.Grant
	for rows.Next() {
		var grant models.Grant
		var user models.User
		if err := rows.Scan(
			&grant.ID, &grant.PropertyID, &grant.UserID, &grant.Role, &grant.Status,
			&grant.Permissions, &grant.InvitedBy, &grant.InvitedAt, &grant.AcceptedAt,
			&grant.CreatedAt, &grant.UpdatedAt,
			&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
		); err != nil {
			return nil, err
		}
		grant.User = &user
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}

// Deactivate sets the grant inactive. The last-owner invariant applies the
// same as on Upsert.
func (s *GrantService) Deactivate(ctx context.Context, propertyID, userID uuid.UUID) error {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := ensureNotLastOwner(ctx, tx, propertyID, userID); err != nil {
		return err
	}

	result, err := tx.Exec(ctx, `
		UPDATE property_grants SET status = 'inactive', updated_at = NOW()
		WHERE property_id = $1 AND user_id = $2
	`, propertyID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate grant: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrGrantNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.cache.Invalidate(userID, propertyID)
	return nil
}

// ensureNotLastOwner fails with ErrLastOwner when (propertyID, userID) holds
// the property's only active owner grant. Runs inside the caller's
// transaction so the check and the write are atomic.
func ensureNotLastOwner(ctx context.Context, tx pgx.Tx, propertyID, userID uuid.UUID) error {
	var isActiveOwner bool
	err := tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM property_grants
			WHERE property_id = $1 AND user_id = $2 AND role = 'owner' AND status = 'active'
		)
	`, propertyID, userID).Scan(&isActiveOwner)
	if err != nil {
		return fmt.Errorf("failed to check owner grant: %w", err)
	}
	if !isActiveOwner {
		return nil
	}

	var otherOwners int
	err = tx.QueryRow(ctx, `
		SELECT COUNT(*) FROM property_grants
		WHERE property_id = $1 AND user_id <> $2 AND role = 'owner' AND status = 'active'
	`, propertyID, userID).Scan(&otherOwners)
	if err != nil {
		return fmt.Errorf("failed to count owner grants: %w", err)
	}
	if otherOwners == 0 {
		return ErrLastOwner
	}
	return nil
}

func scanGrants(rows pgx.Rows) ([]models.Grant, error) {
	var grants []models.Grant
	for rows.Next() {
		var grant models.Grant
		if err := rows.Scan(
			&grant.ID, &grant.PropertyID, &grant.UserID, &grant.Role, &grant.Status,
			&grant.Permissions, &grant.InvitedBy, &grant.InvitedAt, &grant.AcceptedAt,
			&grant.CreatedAt, &grant.UpdatedAt,
		); err != nil {
			return nil, err
		}
		grants = append(grants, grant)
	}
	return grants, rows.Err()
}
