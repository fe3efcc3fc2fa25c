package middleware

import (
	"context"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rs/zerolog"
)

const PropertyIDKey = "property_id"

// AccessChecker is the read-only slice of the authorization engine the
// boundary consults. The engine's own grant reads run directly on the pool
// and never pass back through this middleware; keeping the two paths
// separate is what makes the check non-recursive.
type AccessChecker interface {
	HasAccess(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error)
}

// RequireAccess gates a property-scoped route on any active grant. The
// parsed property id is stored on the context for the handler.
func RequireAccess(authz AccessChecker, logger zerolog.Logger) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		propertyID, err := uuid.Parse(c.Param("propertyId"))
		if err != nil {
			c.BadRequest("invalid property id")
			return
		}

		ok, err := authz.HasAccess(context.Background(), userID, propertyID)
		if err != nil {
			c.InternalServerError("authorization check failed")
			return
		}
		if !ok {
			auditDenied(logger, userID, propertyID, models.PermViewProperty)
			c.Forbidden("no access to this property")
			return
		}

		c.Set(PropertyIDKey, propertyID)
		c.Next()
	}
}

// RequirePermission gates a route on a specific permission.
func RequirePermission(authz AccessChecker, logger zerolog.Logger, permission models.Permission) drift.HandlerFunc {
	return func(c *drift.Context) {
		userID := GetUserID(c)
		if userID == uuid.Nil {
			c.Unauthorized("not authenticated")
			return
		}

		propertyID, err := uuid.Parse(c.Param("propertyId"))
		if err != nil {
			c.BadRequest("invalid property id")
			return
		}

		ok, err := authz.HasPermission(context.Background(), userID, propertyID, permission)
		if err != nil {
			c.InternalServerError("authorization check failed")
			return
		}
		if !ok {
			auditDenied(logger, userID, propertyID, permission)
			c.Forbidden("missing permission: " + string(permission))
			return
		}

		c.Set(PropertyIDKey, propertyID)
		c.Next()
	}
}

func GetPropertyID(c *drift.Context) uuid.UUID {
	if id, ok := c.Get(PropertyIDKey); ok {
		if pid, ok := id.(uuid.UUID); ok {
			return pid
		}
	}
	return uuid.Nil
}

// Denied access is an auditable outcome, not a data miss.
func auditDenied(logger zerolog.Logger, userID, propertyID uuid.UUID, permission models.Permission) {
	logger.Warn().
		Str("user_id", userID.String()).
		Str("property_id", propertyID.String()).
		Str("permission", string(permission)).
		Msg("access denied")
}
