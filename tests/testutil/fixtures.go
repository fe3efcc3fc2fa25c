package testutil

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
)

// Fixtures provides factory methods for creating test data
type Fixtures struct {
	db      *database.DB
	counter int
}

// NewFixtures creates a new fixtures factory
func NewFixtures(db *database.DB) *Fixtures {
	return &Fixtures{db: db}
}

// CreateUser creates a test user with default values
func (f *Fixtures) CreateUser(t *testing.T, opts ...UserOption) *models.User {
	t.Helper()
	f.counter++

	user := &models.User{
		Email: fmt.Sprintf("user%d@example.com", f.counter),
		Name:  fmt.Sprintf("Test User %d", f.counter),
	}

	for _, opt := range opts {
		opt(user)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO users (email, name)
		VALUES ($1, $2)
		RETURNING id, email, name, created_at, updated_at
	`, user.Email, user.Name).Scan(
		&user.ID, &user.Email, &user.Name, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user
}

// UserOption configures a test user
type UserOption func(*models.User)

// WithEmail sets the user's email
func WithEmail(email string) UserOption {
	return func(u *models.User) {
		u.Email = email
	}
}

// WithName sets the user's name
func WithName(name string) UserOption {
	return func(u *models.User) {
		u.Name = name
	}
}

type propertyConfig struct {
	property   *models.Property
	legacyOnly bool
}

// CreateProperty creates a test property owned by the given user. By default
// the owner also gets an active owner grant, matching what the service layer
// writes on create.
func (f *Fixtures) CreateProperty(t *testing.T, owner *models.User, opts ...PropertyOption) *models.Property {
	t.Helper()
	f.counter++

	cfg := &propertyConfig{
		property: &models.Property{
			Name:       fmt.Sprintf("Test Property %d", f.counter),
			LandlordID: &owner.ID,
		},
	}

	for _, opt := range opts {
		opt(cfg)
	}

	property := cfg.property
	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO properties (name, address, landlord_id)
		VALUES ($1, $2, $3)
		RETURNING id, name, address, landlord_id, created_at, updated_at
	`, property.Name, property.Address, property.LandlordID).Scan(
		&property.ID, &property.Name, &property.Address, &property.LandlordID,
		&property.CreatedAt, &property.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create property: %v", err)
	}

	if !cfg.legacyOnly {
		f.CreateGrant(t, property, owner, models.RoleOwner, models.GrantStatusActive)
	}

	return property
}

// PropertyOption configures a test property
type PropertyOption func(*propertyConfig)

// WithPropertyName sets the property's name
func WithPropertyName(name string) PropertyOption {
	return func(c *propertyConfig) {
		c.property.Name = name
	}
}

// WithAddress sets the property's address
func WithAddress(address string) PropertyOption {
	return func(c *propertyConfig) {
		c.property.Address = &address
	}
}

// LegacyOnly leaves the property with only the landlord column set and no
// grant row, the shape pre-migration data has.
func LegacyOnly() PropertyOption {
	return func(c *propertyConfig) {
		c.legacyOnly = true
	}
}

// CreateGrant inserts a grant row directly
func (f *Fixtures) CreateGrant(t *testing.T, property *models.Property, user *models.User, role models.Role, status models.GrantStatus) *models.Grant {
	t.Helper()
	ctx := context.Background()

	grant := &models.Grant{}
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO property_grants (property_id, user_id, role, status, accepted_at)
		VALUES ($1, $2, $3, $4, CASE WHEN $4 = 'active' THEN NOW() END)
		ON CONFLICT (property_id, user_id) DO UPDATE SET role = EXCLUDED.role, status = EXCLUDED.status
		RETURNING id, property_id, user_id, role, status, permissions, invited_by, invited_at, accepted_at, created_at, updated_at
	`, property.ID, user.ID, role, status).Scan(
		&grant.ID, &grant.PropertyID, &grant.UserID, &grant.Role, &grant.Status,
		&grant.Permissions, &grant.InvitedBy, &grant.InvitedAt, &grant.AcceptedAt,
		&grant.CreatedAt, &grant.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create grant: %v", err)
	}

	return grant
}

// CreateInvitation inserts a pending invitation and returns it with the token
func (f *Fixtures) CreateInvitation(t *testing.T, property *models.Property, email string, role models.Role, invitedBy *models.User, opts ...InvitationOption) *models.Invitation {
	t.Helper()

	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}

	invite := &models.Invitation{
		Email:     email,
		Role:      role,
		Token:     hex.EncodeToString(buf),
		Status:    models.InvitationStatusPending,
		ExpiresAt: time.Now().Add(168 * time.Hour),
	}

	for _, opt := range opts {
		opt(invite)
	}

	ctx := context.Background()
	err := f.db.Pool.QueryRow(ctx, `
		INSERT INTO property_invitations (property_id, email, role, token, status, invited_by, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, property_id, email, role, permissions, token, status, invited_by, expires_at, accepted_by, accepted_at, created_at, updated_at
	`, property.ID, invite.Email, invite.Role, invite.Token, invite.Status, invitedBy.ID, invite.ExpiresAt).Scan(
		&invite.ID, &invite.PropertyID, &invite.Email, &invite.Role, &invite.Permissions,
		&invite.Token, &invite.Status, &invite.InvitedBy, &invite.ExpiresAt,
		&invite.AcceptedBy, &invite.AcceptedAt, &invite.CreatedAt, &invite.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("failed to create invitation: %v", err)
	}

	return invite
}

// InvitationOption configures a test invitation
type InvitationOption func(*models.Invitation)

// ExpiresAt sets the invitation deadline
func ExpiresAt(at time.Time) InvitationOption {
	return func(i *models.Invitation) {
		i.ExpiresAt = at
	}
}
