package testutil

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rcastell/propguard/internal/models"
	"github.com/stretchr/testify/mock"
)

// MockAuthzService mocks the AuthzService
type MockAuthzService struct {
	mock.Mock
}

func (m *MockAuthzService) HasAccess(ctx context.Context, userID, propertyID uuid.UUID) (bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthzService) RoleOf(ctx context.Context, userID, propertyID uuid.UUID) (models.Role, bool, error) {
	args := m.Called(ctx, userID, propertyID)
	return args.Get(0).(models.Role), args.Bool(1), args.Error(2)
}

func (m *MockAuthzService) HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error) {
	args := m.Called(ctx, userID, propertyID, permission)
	return args.Bool(0), args.Error(1)
}

func (m *MockAuthzService) AccessibleProperties(ctx context.Context, userID uuid.UUID) ([]models.PropertyAccess, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PropertyAccess), args.Error(1)
}

// MockGrantService mocks the GrantService
type MockGrantService struct {
	mock.Mock
}

func (m *MockGrantService) Upsert(ctx context.Context, propertyID, userID uuid.UUID, role models.Role, status models.GrantStatus, invitedBy *uuid.UUID) (*models.Grant, error) {
	args := m.Called(ctx, propertyID, userID, role, status, invitedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grant), args.Error(1)
}

func (m *MockGrantService) Get(ctx context.Context, propertyID, userID uuid.UUID) (*models.Grant, error) {
	args := m.Called(ctx, propertyID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grant), args.Error(1)
}

func (m *MockGrantService) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Grant, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Grant), args.Error(1)
}

func (m *MockGrantService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Grant, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Grant), args.Error(1)
}

func (m *MockGrantService) Deactivate(ctx context.Context, propertyID, userID uuid.UUID) error {
	args := m.Called(ctx, propertyID, userID)
	return args.Error(0)
}

// MockInvitationService mocks the InvitationService
type MockInvitationService struct {
	mock.Mock
}

func (m *MockInvitationService) Issue(ctx context.Context, propertyID uuid.UUID, email string, role models.Role, invitedBy uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, propertyID, email, role, invitedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) Accept(ctx context.Context, token string, userID uuid.UUID) (*models.Grant, error) {
	args := m.Called(ctx, token, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Grant), args.Error(1)
}

func (m *MockInvitationService) Revoke(ctx context.Context, invitationID, revokedBy uuid.UUID) error {
	args := m.Called(ctx, invitationID, revokedBy)
	return args.Error(0)
}

func (m *MockInvitationService) GetByID(ctx context.Context, invitationID uuid.UUID) (*models.Invitation, error) {
	args := m.Called(ctx, invitationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Invitation), args.Error(1)
}

func (m *MockInvitationService) ListPending(ctx context.Context, propertyID uuid.UUID) ([]models.Invitation, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Invitation), args.Error(1)
}

// MockPropertyService mocks the PropertyService
type MockPropertyService struct {
	mock.Mock
}

func (m *MockPropertyService) Create(ctx context.Context, name string, address *string, ownerID uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, name, address, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) GetByID(ctx context.Context, propertyID uuid.UUID) (*models.Property, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Update(ctx context.Context, propertyID uuid.UUID, name string, address *string) (*models.Property, error) {
	args := m.Called(ctx, propertyID, name, address)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Property), args.Error(1)
}

func (m *MockPropertyService) Delete(ctx context.Context, propertyID uuid.UUID) error {
	args := m.Called(ctx, propertyID)
	return args.Error(0)
}

// MockUserService mocks the UserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) FindOrCreate(ctx context.Context, id uuid.UUID, email string) (*models.User, error) {
	args := m.Called(ctx, id, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockEmailService mocks the EmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendPropertyInvite(to, propertyName, inviterName, inviteURL string, expiresAt time.Time) error {
	args := m.Called(to, propertyName, inviterName, inviteURL, expiresAt)
	return args.Error(0)
}

// MockUnitService mocks the UnitService
type MockUnitService struct {
	mock.Mock
}

func (m *MockUnitService) Create(ctx context.Context, propertyID uuid.UUID, label string, bedrooms int, rentCents int64) (*models.Unit, error) {
	args := m.Called(ctx, propertyID, label, bedrooms, rentCents)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Unit), args.Error(1)
}

func (m *MockUnitService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Unit, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Unit), args.Error(1)
}

func (m *MockUnitService) Delete(ctx context.Context, propertyID, unitID uuid.UUID) error {
	args := m.Called(ctx, propertyID, unitID)
	return args.Error(0)
}

// MockTenantService mocks the TenantService
type MockTenantService struct {
	mock.Mock
}

func (m *MockTenantService) Create(ctx context.Context, propertyID uuid.UUID, unitID *uuid.UUID, name string, email *string) (*models.Tenant, error) {
	args := m.Called(ctx, propertyID, unitID, name, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Tenant), args.Error(1)
}

func (m *MockTenantService) ListForProperty(ctx context.Context, propertyID uuid.UUID) ([]models.Tenant, error) {
	args := m.Called(ctx, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Tenant), args.Error(1)
}

func (m *MockTenantService) Delete(ctx context.Context, propertyID, tenantID uuid.UUID) error {
	args := m.Called(ctx, propertyID, tenantID)
	return args.Error(0)
}
