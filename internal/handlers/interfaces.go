package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/models"
)

// AuthzServiceInterface defines the methods used by handlers from AuthzService
type AuthzServiceInterface interface {
	HasAccess(ctx context.Context, userID, propertyID uuid.UUID) (bool, error)
	RoleOf(ctx context.Context, userID, propertyID uuid.UUID) (models.Role, bool, error)
	HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error)
	AccessibleProperties(ctx context.Context, userID uuid.UUID) ([]models.PropertyAccess, error)
}

// GrantServiceInterface defines the methods used by handlers from GrantService
type GrantServiceInterface interface {
	Upsert(ctx context.Context, propertyID, userID uuid.UUID, role models.Role, status models.GrantStatus, invitedBy *uuid.UUID) (*models.Grant, error)
	Get(ctx context.Context, propertyID, userID uuid.UUID) (*models.Grant, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Grant, error)
	ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Grant, error)
	Deactivate(ctx context.Context, propertyID, userID uuid.UUID) error
}

// InvitationServiceInterface defines the methods used by handlers from InvitationService
type InvitationServiceInterface interface {
	Issue(ctx context.Context, propertyID uuid.UUID, email string, role models.Role, invitedBy uuid.UUID) (*models.Invitation, error)
	Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Grant, error)
	Revoke(ctx context.Context, invitationID, revokedBy uuid.UUID) error
	GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error)
	ListPending(ctx context.Context, propertyID uuid.UUID) ([]models.Invitation, error)
}

// PropertyServiceInterface defines the methods used by handlers from PropertyService
type PropertyServiceInterface interface {
	Create(ctx context.Context, name string, address *string, ownerID uuid.UUID) (*models.Property, error)
	GetByID(ctx context.Context, propertyID uuid.UUID) (*models.Property, error)
	Update(ctx context.Context, propertyID uuid.UUID, name string, address *string) (*models.Property, error)
	Delete(ctx context.Context, propertyID uuid.UUID) error
}

// UserServiceInterface defines the methods used by handlers from UserService
type UserServiceInterface interface {
	FindOrCreate(ctx context.Context, id uuid.UUID, email string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UnitServiceInterface defines the methods used by handlers from UnitService
type UnitServiceInterface interface {
	Create(ctx context.Context, propertyID uuid.UUID, label string, bedrooms int, rentCents int64) (*models.Unit, error)
	ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Unit, error)
	Delete(ctx context.Context, propertyID, unitID uuid.UUID) error
}

// TenantServiceInterface defines the methods used by handlers from TenantService
type TenantServiceInterface interface {
	Create(ctx context.Context, propertyID uuid.UUID, unitID *uuid.UUID, name string, email *string) (*models.Tenant, error)
	ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Tenant, error)
	Delete(ctx context.Context, propertyID, tenantID uuid.UUID) error
}

// EmailSender delivers the invitation link; invoked by the invite handler,
// never by the workflow itself.
type EmailSender interface {
	SendPropertyInvite(to, propertyName, inviterName, inviteURL string, expiresAt time.Time) error
}
