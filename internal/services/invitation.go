package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rcastell/propguard/internal/authcache"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
)

var (
	ErrInviteNotFound    = errors.New("invitation not found")
	ErrInviteExpired     = errors.New("invitation has expired")
	ErrInviteResolved    = errors.New("invitation already resolved")
	ErrInvalidTransition = errors.New("invalid invitation state transition")
	ErrForbidden         = errors.New("caller lacks the required permission")
)

const inviteTokenLen = 32

const invitationColumns = `id, property_id, email, role, permissions, token, status, invited_by, expires_at, accepted_by, accepted_at, created_at, updated_at`

// permissionChecker is the slice of the authorization engine the workflow
// needs for its own write guards.
type permissionChecker interface {
	HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error)
}

type InvitationService struct {
	db        *database.DB
	authz     permissionChecker
	cache     *authcache.Cache
	inviteTTL time.Duration
}

func NewInvitationService(db *database.DB, authz permissionChecker, cache *authcache.Cache, inviteTTL time.Duration) *InvitationService {
	if inviteTTL <= 0 {
		inviteTTL = 168 * time.Hour
	}
	return &InvitationService{db: db, authz: authz, cache: cache, inviteTTL: inviteTTL}
}

// Issue opens a pending invitation for email to join the property with the
// given role. The invitee does not need an account yet. The returned
// invitation carries the plain token; it is the caller's job to deliver it.
func (s *InvitationService) Issue(ctx context.Context, propertyID uuid.UUID, email string, role models.Role, invitedBy uuid.UUID) (*models.Invitation, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	allowed, err := s.authz.HasPermission(ctx, invitedBy, propertyID, models.PermManageUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to check inviter permission: %w", err)
	}
	if !allowed {
		return nil, ErrForbidden
	}

	token, err := newInviteToken()
	if err != nil {
		return nil, err
	}
	expiresAt := time.Now().Add(s.inviteTTL)

	var invite models.Invitation
	err = s.db.Pool.QueryRow(ctx, `
		INSERT INTO property_invitations (property_id, email, role, token, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, 'pending', $5, $6)
		RETURNING `+invitationColumns+`
	`, propertyID, email, role, token, invitedBy, expiresAt).Scan(
		&invite.ID, &invite.PropertyID, &invite.Email, &invite.Role, &invite.Permissions,
		&invite.Token, &invite.Status, &invite.InvitedBy, &invite.ExpiresAt,
		&invite.AcceptedBy, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}
	return &invite, nil
}

// Accept resolves the invitation addressed by token for userID. The claim
// and the resulting grant land in one transaction: the conditional
// pending→active update can only succeed for one concurrent caller, and a
// grant is never created without its invitation being marked (or the other
// way round).
func (s *InvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Grant, error) {
	tx, err := s.db.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var invite models.Invitation
	err = tx.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM property_invitations WHERE token = $1
	`, token).Scan(
		&invite.ID, &invite.PropertyID, &invite.Email, &invite.Role, &invite.Permissions,
		&invite.Token, &invite.Status, &invite.InvitedBy, &invite.ExpiresAt,
		&invite.AcceptedBy, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load invitation: %w", err)
	}

	if invite.Status == models.InvitationStatusPending && invite.Expired(time.Now()) {
		// Self-healing: overdue invitations are marked inactive the moment
		// they are observed. A later attempt sees AlreadyResolved.
		_, err = tx.Exec(ctx, `
			UPDATE property_invitations SET status = 'inactive', updated_at = NOW()
			WHERE id = $1 AND status = 'pending'
		`, invite.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to expire invitation: %w", err)
		}
		if err := tx.Commit(ctx); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return nil, ErrInviteExpired
	}

	if invite.Status != models.InvitationStatusPending {
		return nil, ErrInviteResolved
	}

	// Single atomic claim: only one concurrent Accept can move the row out
	// of pending.
	result, err := tx.Exec(ctx, `
		UPDATE property_invitations
		SET status = 'active', accepted_by = $2, accepted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, invite.ID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to claim invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return nil, ErrInviteResolved
	}

	var grant models.Grant
	err = tx.QueryRow(ctx, `
		INSERT INTO property_grants (property_id, user_id, role, status, permissions, invited_by, accepted_at)
		VALUES ($1, $2, $3, 'active', $4, $5, NOW())
		ON CONFLICT (property_id, user_id) DO UPDATE SET
			role = EXCLUDED.role,
			status = 'active',
			permissions = EXCLUDED.permissions,
			accepted_at = COALESCE(property_grants.accepted_at, EXCLUDED.accepted_at),
			updated_at = NOW()
		RETURNING `+grantColumns+`
	`, invite.PropertyID, userID, invite.Role, invite.Permissions, invite.InvitedBy).Scan(
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

	s.cache.Invalidate(userID, invite.PropertyID)
	return &grant, nil
}

// Revoke cancels a still-pending invitation. Only pending invitations can be
// revoked; an already resolved one fails with ErrInvalidTransition.
func (s *InvitationService) Revoke(ctx context.Context, invitationID, revokedBy uuid.UUID) error {
	var propertyID uuid.UUID
	var status models.InvitationStatus
	err := s.db.Pool.QueryRow(ctx, `
		SELECT property_id, status FROM property_invitations WHERE id = $1
	`, invitationID).Scan(&propertyID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrInviteNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load invitation: %w", err)
	}

	allowed, err := s.authz.HasPermission(ctx, revokedBy, propertyID, models.PermManageUsers)
	if err != nil {
		return fmt.Errorf("failed to check revoker permission: %w", err)
	}
	if !allowed {
		return ErrForbidden
	}

	result, err := s.db.Pool.Exec(ctx, `
		UPDATE property_invitations SET status = 'revoked', updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`, invitationID)
	if err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func (s *InvitationService) GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	var invite models.Invitation
	err := s.db.Pool.QueryRow(ctx, `
		SELECT `+invitationColumns+`
		FROM property_invitations WHERE id = $1
	`, invitationID).Scan(
		&invite.ID, &invite.PropertyID, &invite.Email, &invite.Role, &invite.Permissions,
		&invite.Token, &invite.Status, &invite.InvitedBy, &invite.ExpiresAt,
		&invite.AcceptedBy, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrInviteNotFound
	}
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

func (s *InvitationService) ListPending(ctx context.Context, propertyID uuid.UUID) ([]models.Invitation, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+invitationColumns+`
		FROM property_invitations
		WHERE property_id = $1 AND status = 'pending'
		ORDER BY created_at DESC
	`, propertyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.Invitation
	for rows.Next() {
		var invite models.Invitation
		if err := rows.Scan(
			&invite.ID, &invite.PropertyID, &invite.Email, &invite.Role, &invite.Permissions,
			&invite.Token, &invite.Status, &invite.InvitedBy, &invite.ExpiresAt,
			&invite.AcceptedBy, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt,
		); err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

// SweepExpired marks overdue pending invitations inactive. Purely advisory
// housekeeping; Accept performs the same check lazily, so correctness never
// depends on the sweep running.
func (s *InvitationService) SweepExpired(ctx context.Context) (int64, error) {
	result, err := s.db.Pool.Exec(ctx, `
		UPDATE property_invitations SET status = 'inactive', updated_at = NOW()
		WHERE status = 'pending' AND expires_at < NOW()
	`)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

func newInviteToken() (string, error) {
	buf := make([]byte, inviteTokenLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate invitation token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
