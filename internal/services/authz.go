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
	"github.com/rs/zerolog"
)

// reconciler is the lazy-repair hook the engine fires on a grant miss.
type reconciler interface {
	Reconcile(ctx context.Context, propertyID uuid.UUID) error
}

// AuthzService answers access questions from the grant table. It reads
// property_grants and properties.landlord_id directly on the pool — the
// privileged path. Deciding access must never route back through the
// enforcement boundary, or the check would recurse into itself; any new
// gated resource that the engine needs to read has to come in through this
// service, not through a handler or middleware.
type AuthzService struct {
	db         *database.DB
	cache      *authcache.Cache
	reconciler reconciler
	logger     zerolog.Logger
}

func NewAuthzService(db *database.DB, cache *authcache.Cache, rec reconciler, logger zerolog.Logger) *AuthzService {
	return &AuthzService{db: db, cache: cache, reconciler: rec, logger: logger}
}

// HasAccess reports whether an active grant exists for the pair. The legacy
// landlord column is consulted as a fallback of last resort, both on a
// confirmed miss and when the grant table itself is unreachable.
func (s *AuthzService) HasAccess(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	d, err := s.lookup(ctx, userID, propertyID)
	if err != nil {
		return false, err
	}
	return d.Found, nil
}

// RoleOf returns the user's role on the property and whether any active
// grant (or legacy ownership) was found.
func (s *AuthzService) RoleOf(ctx context.Context, userID, propertyID uuid.UUID) (models.Role, bool, error) {
	d, err := s.lookup(ctx, userID, propertyID)
	if err != nil {
		return "", false, err
	}
	return d.Role, d.Found, nil
}

// HasPermission is false without an active grant; otherwise the role matrix
// decides, widened by per-grant overrides set to true.
func (s *AuthzService) HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error) {
	d, err := s.lookup(ctx, userID, propertyID)
	if err != nil {
		return false, err
	}
	if !d.Found {
		return false, nil
	}
	return models.PermitsWithOverrides(d.Role, d.Permissions, permission), nil
}

// AccessibleProperties lists one row per active grant of the user, ordered
// by property name then id, with the capability flags precomputed.
func (s *AuthzService) AccessibleProperties(ctx context.Context, userID uuid.UUID) ([]models.PropertyAccess, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT p.id, p.name, p.address, p.landlord_id, p.created_at, p.updated_at, g.role
		FROM properties p
		JOIN property_grants g ON p.id = g.property_id
		WHERE g.user_id = $1 AND g.status = 'active'
		ORDER BY p.name ASC, p.id ASC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var access []models.PropertyAccess
	for rows.Next() {
		var p models.Property
		var role models.Role
		if err := rows.Scan(&p.ID, &p.Name, &p.Address, &p.LandlordID, &p.CreatedAt, &p.UpdatedAt, &role); err != nil {
			return nil, err
		}
		access = append(access, models.PropertyAccess{
			Property:             p,
			Role:                 role,
			CanManageUsers:       models.Permits(role, models.PermManageUsers),
			CanEditProperty:      models.Permits(role, models.PermEditProperty),
			CanManageTenants:     models.Permits(role, models.PermManageTenants),
			CanManageMaintenance: models.Permits(role, models.PermManageMaintenance),
		})
	}
	return access, rows.Err()
}

func (s *AuthzService) lookup(ctx context.Context, userID, propertyID uuid.UUID) (authcache.Decision, error) {
	if d, ok := s.cache.Get(userID, propertyID); ok {
		return d, nil
	}

	d, err := s.queryGrant(ctx, userID, propertyID)
	if err != nil {
		// Transient grant-store failure. The legacy landlord column is the
		// permanent fallback for the one case that must not lock out: the
		// original owner of the property.
		if legacy, lerr := s.isLegacyOwner(ctx, userID, propertyID); lerr == nil && legacy {
			s.logger.Warn().
				Str("user_id", userID.String()).
				Str("property_id", propertyID.String()).
				Err(err).
				Msg("grant lookup failed, granted via legacy landlord fallback")
			return authcache.Decision{Found: true, Role: models.RoleOwner}, nil
		}
		return authcache.Decision{}, err
	}

	if !d.Found {
		// First miss: the grant may simply never have been derived from the
		// legacy column. Reconcile once and retry.
		if s.reconciler != nil {
			if rerr := s.reconciler.Reconcile(ctx, propertyID); rerr == nil {
				if retried, qerr := s.queryGrant(ctx, userID, propertyID); qerr == nil {
					d = retried
				}
			}
		}
	}

	if !d.Found {
		if legacy, lerr := s.isLegacyOwner(ctx, userID, propertyID); lerr == nil && legacy {
			d = authcache.Decision{Found: true, Role: models.RoleOwner}
		}
	}

	s.cache.Set(userID, propertyID, d)
	return d, nil
}

func (s *AuthzService) queryGrant(ctx context.Context, userID, propertyID uuid.UUID) (authcache.Decision, error) {
	var role models.Role
	var permissions map[models.Permission]bool
	err := s.db.Pool.QueryRow(ctx, `
		SELECT role, permissions FROM property_grants
		WHERE property_id = $1 AND user_id = $2 AND status = 'active'
	`, propertyID, userID).Scan(&role, &permissions)
	if errors.Is(err, pgx.ErrNoRows) {
		return authcache.Decision{Found: false}, nil
	}
	if err != nil {
		return authcache.Decision{}, fmt.Errorf("failed to query grant: %w", err)
	}
	return authcache.Decision{Found: true, Role: role, Permissions: permissions}, nil
}

func (s *AuthzService) isLegacyOwner(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	var landlordID *uuid.UUID
	err := s.db.Pool.QueryRow(ctx, `
		SELECT landlord_id FROM properties WHERE id = $1
	`, propertyID).Scan(&landlordID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return landlordID != nil && *landlordID == userID, nil
}
