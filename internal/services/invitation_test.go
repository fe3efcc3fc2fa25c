package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/rcastell/propguard/internal/authcache"
	"github.com/rcastell/propguard/internal/database"
	"github.com/rcastell/propguard/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var inviteCols = []string{"id", "property_id", "email", "role", "permissions", "token", "status", "invited_by", "expires_at", "accepted_by", "accepted_at", "created_at", "updated_at"}

type fakePermissionChecker struct {
	allowed bool
	err     error
}

func (f *fakePermissionChecker) HasPermission(ctx context.Context, userID, propertyID uuid.UUID, permission models.Permission) (bool, error) {
	return f.allowed, f.err
}

func setupInvitationService(t *testing.T, allowed bool) (*InvitationService, pgxmock.PgxPoolIface, *authcache.Cache) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	db := &database.DB{Pool: mock}
	cache := authcache.New(16, time.Minute)
	svc := NewInvitationService(db, &fakePermissionChecker{allowed: allowed}, cache, 168*time.Hour)
	return svc, mock, cache
}

func pendingInviteRow(inviteID, propertyID, invitedBy uuid.UUID, token string, expiresAt time.Time) *pgxmock.Rows {
	now := time.Now()
	return pgxmock.NewRows(inviteCols).
		AddRow(inviteID, propertyID, "invitee@example.com", models.RoleLeasingAgent,
			map[models.Permission]bool{}, token, models.InvitationStatusPending,
			invitedBy, expiresAt, (*uuid.UUID)(nil), (*time.Time)(nil), now, now)
}

func TestInvitationService_Issue(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	propertyID := uuid.New()
	invitedBy := uuid.New()
	expiresAt := time.Now().Add(168 * time.Hour)

	mock.ExpectQuery(`INSERT INTO property_invitations`).
		WithArgs(propertyID, "invitee@example.com", models.RoleLeasingAgent, pgxmock.AnyArg(), invitedBy, pgxmock.AnyArg()).
		WillReturnRows(pendingInviteRow(uuid.New(), propertyID, invitedBy, "sometoken", expiresAt))

	invite, err := svc.Issue(context.Background(), propertyID, "invitee@example.com", models.RoleLeasingAgent, invitedBy)

	require.NoError(t, err)
	assert.Equal(t, models.InvitationStatusPending, invite.Status)
	assert.NotEmpty(t, invite.Token)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Issue_Forbidden(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, false)

	_, err := svc.Issue(context.Background(), uuid.New(), "invitee@example.com", models.RoleViewer, uuid.New())

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Issue_InvalidRole(t *testing.T) {
	svc, _, _ := setupInvitationService(t, true)

	_, err := svc.Issue(context.Background(), uuid.New(), "invitee@example.com", "superuser", uuid.New())

	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestInvitationService_Accept(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	inviteID := uuid.New()
	propertyID := uuid.New()
	invitedBy := uuid.New()
	userID := uuid.New()
	token := "sometoken"
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM property_invitations WHERE token`).
		WithArgs(token).
		WillReturnRows(pendingInviteRow(inviteID, propertyID, invitedBy, token, now.Add(time.Hour)))
	mock.ExpectExec(`UPDATE property_invitations`).
		WithArgs(inviteID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	grantRows := pgxmock.NewRows(grantCols).
		AddRow(uuid.New(), propertyID, userID, models.RoleLeasingAgent, models.GrantStatusActive,
			map[models.Permission]bool{}, &invitedBy, now, &now, now, now)
	mock.ExpectQuery(`INSERT INTO property_grants`).
		WithArgs(propertyID, userID, models.RoleLeasingAgent, map[models.Permission]bool{}, invitedBy).
		WillReturnRows(grantRows)
	mock.ExpectCommit()

	grant, err := svc.Accept(context.Background(), token, userID)

	require.NoError(t, err)
	assert.Equal(t, propertyID, grant.PropertyID)
	assert.Equal(t, models.GrantStatusActive, grant.Status)
	assert.Equal(t, models.RoleLeasingAgent, grant.Role)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Accept_NotFound(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM property_invitations WHERE token`).
		WithArgs("missing").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), "missing", uuid.New())

	assert.ErrorIs(t, err, ErrInviteNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Accept_Expired(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	inviteID := uuid.New()
	token := "overdue"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM property_invitations WHERE token`).
		WithArgs(token).
		WillReturnRows(pendingInviteRow(inviteID, uuid.New(), uuid.New(), token, time.Now().Add(-time.Hour)))
	// The overdue row is retired in place before the caller is told.
	mock.ExpectExec(`UPDATE property_invitations SET status = 'inactive'`).
		WithArgs(inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	_, err := svc.Accept(context.Background(), token, uuid.New())

	assert.ErrorIs(t, err, ErrInviteExpired)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Accept_AlreadyResolved(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	token := "used"
	now := time.Now()
	acceptedBy := uuid.New()

	rows := pgxmock.NewRows(inviteCols).
		AddRow(uuid.New(), uuid.New(), "invitee@example.com", models.RoleViewer,
			map[models.Permission]bool{}, token, models.InvitationStatusActive,
			uuid.New(), now.Add(time.Hour), &acceptedBy, &now, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM property_invitations WHERE token`).
		WithArgs(token).
		WillReturnRows(rows)
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), token, uuid.New())

	assert.ErrorIs(t, err, ErrInviteResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Accept_LosesClaimRace(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	inviteID := uuid.New()
	userID := uuid.New()
	token := "contested"

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT .+ FROM property_invitations WHERE token`).
		WithArgs(token).
		WillReturnRows(pendingInviteRow(inviteID, uuid.New(), uuid.New(), token, time.Now().Add(time.Hour)))
	// Another accept moved the row out of pending between our read and write.
	mock.ExpectExec(`UPDATE property_invitations`).
		WithArgs(inviteID, userID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))
	mock.ExpectRollback()

	_, err := svc.Accept(context.Background(), token, userID)

	assert.ErrorIs(t, err, ErrInviteResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Revoke(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	inviteID := uuid.New()
	propertyID := uuid.New()

	mock.ExpectQuery(`SELECT property_id, status FROM property_invitations`).
		WithArgs(inviteID).
		WillReturnRows(pgxmock.NewRows([]string{"property_id", "status"}).AddRow(propertyID, models.InvitationStatusPending))
	mock.ExpectExec(`UPDATE property_invitations SET status = 'revoked'`).
		WithArgs(inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := svc.Revoke(context.Background(), inviteID, uuid.New())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Revoke_Forbidden(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, false)
	inviteID := uuid.New()

	mock.ExpectQuery(`SELECT property_id, status FROM property_invitations`).
		WithArgs(inviteID).
		WillReturnRows(pgxmock.NewRows([]string{"property_id", "status"}).AddRow(uuid.New(), models.InvitationStatusPending))

	err := svc.Revoke(context.Background(), inviteID, uuid.New())

	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_Revoke_NotPending(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)
	inviteID := uuid.New()

	mock.ExpectQuery(`SELECT property_id, status FROM property_invitations`).
		WithArgs(inviteID).
		WillReturnRows(pgxmock.NewRows([]string{"property_id", "status"}).AddRow(uuid.New(), models.InvitationStatusActive))
	mock.ExpectExec(`UPDATE property_invitations SET status = 'revoked'`).
		WithArgs(inviteID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := svc.Revoke(context.Background(), inviteID, uuid.New())

	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInvitationService_SweepExpired(t *testing.T) {
	svc, mock, _ := setupInvitationService(t, true)

	mock.ExpectExec(`UPDATE property_invitations SET status = 'inactive'`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	n, err := svc.SweepExpired(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewInviteToken_Unique(t *testing.T) {
	a, err := newInviteToken()
	require.NoError(t, err)
	b, err := newInviteToken()
	require.NoError(t, err)

	assert.Len(t, a, inviteTokenLen*2)
	assert.NotEqual(t, a, b)
}
