package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rcastell/propguard/internal/authcache"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReconciler struct {
	calls int
	err   error
}

func (f *fakeReconciler) Reconcile(ctx context.Context, propertyID uuid.UUID) error {
	f.calls++
	return f.err
}

func setupAuthzService(t *testing.T) (*AuthzService, pgxmock.PgxPoolIface, *fakeReconciler) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	rec := &fakeReconciler{}
	svc := NewAuthzService(db, authcache.New(16, time.Minute), rec, zerolog.Nop())
	return svc, mock, rec
}

func grantDecisionRow(role models.Role, perms map[models.Permission]bool) *pgxmock.Rows {
	return pgxmock.NewRows([]string{"role", "permissions"}).AddRow(role, perms)
}

func TestAuthzService_HasAccess(t *testing.T) {
	svc, mock, rec := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnRows(grantDecisionRow(models.RoleViewer, map[models.Permission]bool{}))

	ok, err := svc.HasAccess(context.Background(), userID, propertyID)

	require.NoError(t, err)
	assert.True(t, ok)
	assert.Zero(t, rec.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_HasAccess_CachesDecision(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	// Single query expectation; the second check must come out of the cache.
	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnRows(grantDecisionRow(models.RoleOwner, map[models.Permission]bool{}))

	ok, err := svc.HasAccess(context.Background(), userID, propertyID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = svc.HasAccess(context.Background(), userID, propertyID)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_HasPermission_Matrix(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnRows(grantDecisionRow(models.RolePropertyManager, map[models.Permission]bool{}))

	canEdit, err := svc.HasPermission(context.Background(), userID, propertyID, models.PermEditProperty)
	require.NoError(t, err)
	assert.True(t, canEdit)

	// Cached decision, same matrix, different permission.
	canManageUsers, err := svc.HasPermission(context.Background(), userID, propertyID, models.PermManageUsers)
	require.NoError(t, err)
	assert.False(t, canManageUsers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_HasPermission_OverrideWidens(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnRows(grantDecisionRow(models.RoleViewer, map[models.Permission]bool{
			models.PermManageMaintenance: true,
			models.PermViewProperty:      false,
		}))

	canFix, err := svc.HasPermission(context.Background(), userID, propertyID, models.PermManageMaintenance)
	require.NoError(t, err)
	assert.True(t, canFix, "true override widens beyond the role matrix")

	// A false override cannot revoke what the matrix already gives.
	canView, err := svc.HasPermission(context.Background(), userID, propertyID, models.PermViewProperty)
	require.NoError(t, err)
	assert.True(t, canView)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_MissTriggersReconcileAndRetry(t *testing.T) {
	svc, mock, rec := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(pgx.ErrNoRows)
	// After the lazy repair the derived owner grant is visible.
	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnRows(grantDecisionRow(models.RoleOwner, map[models.Permission]bool{}))

	role, found, err := svc.RoleOf(context.Background(), userID, propertyID)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.RoleOwner, role)
	assert.Equal(t, 1, rec.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_MissFallsBackToLegacyLandlord(t *testing.T) {
	svc, mock, rec := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT landlord_id FROM properties`).
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"landlord_id"}).AddRow(&userID))

	role, found, err := svc.RoleOf(context.Background(), userID, propertyID)

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, models.RoleOwner, role)
	assert.Equal(t, 1, rec.calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_ConfirmedMiss(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()
	otherLandlord := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`SELECT landlord_id FROM properties`).
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"landlord_id"}).AddRow(&otherLandlord))

	ok, err := svc.HasAccess(context.Background(), userID, propertyID)

	require.NoError(t, err)
	assert.False(t, ok)

	// The confirmed miss is cached; no further queries for the repeat check.
	ok, err = svc.HasAccess(context.Background(), userID, propertyID)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_StoreFailureLegacyFallback(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectQuery(`SELECT landlord_id FROM properties`).
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"landlord_id"}).AddRow(&userID))

	ok, err := svc.HasAccess(context.Background(), userID, propertyID)

	require.NoError(t, err)
	assert.True(t, ok, "legacy landlord keeps access when the grant store is down")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_StoreFailureNonOwner(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	propertyID := uuid.New()
	otherLandlord := uuid.New()

	mock.ExpectQuery(`SELECT role, permissions FROM property_grants`).
		WithArgs(propertyID, userID).
		WillReturnError(errors.New("connection refused"))
	mock.ExpectQuery(`SELECT landlord_id FROM properties`).
		WithArgs(propertyID).
		WillReturnRows(pgxmock.NewRows([]string{"landlord_id"}).AddRow(&otherLandlord))

	_, err := svc.HasAccess(context.Background(), userID, propertyID)

	assert.Error(t, err, "non-owners fail closed on store errors")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthzService_AccessibleProperties(t *testing.T) {
	svc, mock, _ := setupAuthzService(t)
	userID := uuid.New()
	now := time.Now()
	addr := "12 Main St"

	rows := pgxmock.NewRows([]string{"id", "name", "address", "landlord_id", "created_at", "updated_at", "role"}).
		AddRow(uuid.New(), "Alder House", &addr, &userID, now, now, models.RoleOwner).
		AddRow(uuid.New(), "Birch Court", (*string)(nil), (*uuid.UUID)(nil), now, now, models.RoleViewer)

	mock.ExpectQuery(`SELECT .+ FROM properties p JOIN property_grants g`).
		WithArgs(userID).
		WillReturnRows(rows)

	access, err := svc.AccessibleProperties(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, access, 2)
	assert.True(t, access[0].CanManageUsers)
	assert.True(t, access[0].CanEditProperty)
	assert.False(t, access[1].CanManageUsers)
	assert.False(t, access[1].CanEditProperty)
	assert.NoError(t, mock.ExpectationsWereMet())
}
