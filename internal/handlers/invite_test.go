package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	driftmw "github.com/m1z23r/drift/pkg/middleware"
	"github.com/rcastell/propguard/internal/middleware"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rcastell/propguard/internal/services"
	"github.com/rcastell/propguard/pkg/dto"
	"github.com/rcastell/propguard/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func setupInviteTest(t *testing.T) (*testutil.MockInvitationService, *testutil.MockPropertyService, *testutil.MockUserService, *testutil.MockEmailService, *InviteHandler) {
	t.Helper()
	mockInvites := new(testutil.MockInvitationService)
	mockProperties := new(testutil.MockPropertyService)
	mockUsers := new(testutil.MockUserService)
	mockEmail := new(testutil.MockEmailService)
	handler := NewInviteHandler(mockInvites, mockProperties, mockUsers, mockEmail, "http://localhost:8080")
	return mockInvites, mockProperties, mockUsers, mockEmail, handler
}

func withIdentity(userID, propertyID uuid.UUID) drift.HandlerFunc {
	return func(c *drift.Context) {
		c.Set(middleware.UserIDKey, userID)
		if propertyID != uuid.Nil {
			c.Set(middleware.PropertyIDKey, propertyID)
		}
		c.Next()
	}
}

func TestInviteHandler_Issue_Success(t *testing.T) {
	mockInvites, mockProperties, mockUsers, mockEmail, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()

	invite := &models.Invitation{
		ID:         uuid.New(),
		PropertyID: propertyID,
		Email:      "invitee@example.com",
		Role:       models.RoleLeasingAgent,
		Token:      "tok123",
		Status:     models.InvitationStatusPending,
		InvitedBy:  userID,
		ExpiresAt:  time.Now().Add(168 * time.Hour),
	}

	mockInvites.On("Issue", mock.Anything, propertyID, "invitee@example.com", models.RoleLeasingAgent, userID).Return(invite, nil)
	mockProperties.On("GetByID", mock.Anything, propertyID).Return(&models.Property{ID: propertyID, Name: "Alder House"}, nil)
	mockUsers.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Olive Owner"}, nil)
	mockEmail.On("SendPropertyInvite", "invitee@example.com", "Alder House", "Olive Owner", mock.Anything, mock.Anything).Return(nil)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(withIdentity(userID, propertyID))
	app.Post("/properties/:propertyId/invites", handler.Issue)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/properties/"+propertyID.String()+"/invites",
		dto.CreateInviteRequest{Email: "invitee@example.com", Role: "leasing_agent"}, nil)

	testutil.AssertStatus(t, rec, http.StatusCreated)

	var resp dto.InviteResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, "tok123", resp.Token, "the issuing call returns the token")
	assert.Equal(t, "pending", resp.Status)

	mockInvites.AssertExpectations(t)
	mockEmail.AssertExpectations(t)
}

func TestInviteHandler_Issue_EmailFailureIsNotFatal(t *testing.T) {
	mockInvites, mockProperties, mockUsers, mockEmail, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()

	invite := &models.Invitation{
		ID:         uuid.New(),
		PropertyID: propertyID,
		Email:      "invitee@example.com",
		Role:       models.RoleViewer,
		Token:      "tok456",
		Status:     models.InvitationStatusPending,
		InvitedBy:  userID,
		ExpiresAt:  time.Now().Add(time.Hour),
	}

	mockInvites.On("Issue", mock.Anything, propertyID, "invitee@example.com", models.RoleViewer, userID).Return(invite, nil)
	mockProperties.On("GetByID", mock.Anything, propertyID).Return(&models.Property{ID: propertyID, Name: "Alder House"}, nil)
	mockUsers.On("GetByID", mock.Anything, userID).Return(&models.User{ID: userID, Name: "Olive Owner"}, nil)
	mockEmail.On("SendPropertyInvite", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(assert.AnError)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(withIdentity(userID, propertyID))
	app.Post("/properties/:propertyId/invites", handler.Issue)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/properties/"+propertyID.String()+"/invites",
		dto.CreateInviteRequest{Email: "invitee@example.com", Role: "viewer"}, nil)

	testutil.AssertStatus(t, rec, http.StatusCreated)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Issue_InvalidRole(t *testing.T) {
	_, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(withIdentity(userID, propertyID))
	app.Post("/properties/:propertyId/invites", handler.Issue)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/properties/"+propertyID.String()+"/invites",
		dto.CreateInviteRequest{Email: "invitee@example.com", Role: "superuser"}, nil)

	testutil.AssertStatus(t, rec, http.StatusBadRequest)
	assert.Contains(t, rec.Body.String(), "invalid role")
}

func TestInviteHandler_Issue_Forbidden(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()

	mockInvites.On("Issue", mock.Anything, propertyID, "invitee@example.com", models.RoleViewer, userID).
		Return(nil, services.ErrForbidden)

	app := drift.New()
	app.Use(driftmw.BodyParser())
	app.Use(withIdentity(userID, propertyID))
	app.Post("/properties/:propertyId/invites", handler.Issue)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/properties/"+propertyID.String()+"/invites",
		dto.CreateInviteRequest{Email: "invitee@example.com", Role: "viewer"}, nil)

	testutil.AssertStatus(t, rec, http.StatusForbidden)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_List_OmitsTokens(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	propertyID := uuid.New()
	invites := []models.Invitation{
		{
			ID:         uuid.New(),
			PropertyID: propertyID,
			Email:      "a@example.com",
			Role:       models.RoleViewer,
			Token:      "secret-token",
			Status:     models.InvitationStatusPending,
			ExpiresAt:  time.Now().Add(time.Hour),
		},
	}

	mockInvites.On("ListPending", mock.Anything, propertyID).Return(invites, nil)

	app := drift.New()
	app.Use(withIdentity(uuid.New(), propertyID))
	app.Get("/properties/:propertyId/invites", handler.List)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.GET("/properties/"+propertyID.String()+"/invites", nil)

	testutil.AssertStatus(t, rec, http.StatusOK)
	assert.NotContains(t, rec.Body.String(), "secret-token")
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Accept_Success(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()

	grant := &models.Grant{
		ID:         uuid.New(),
		PropertyID: propertyID,
		UserID:     userID,
		Role:       models.RoleLeasingAgent,
		Status:     models.GrantStatusActive,
	}

	mockInvites.On("Accept", mock.Anything, "tok123", userID).Return(grant, nil)

	app := drift.New()
	app.Use(withIdentity(userID, uuid.Nil))
	app.Post("/invites/:token/accept", handler.Accept)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/invites/tok123/accept", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusOK)

	var resp dto.AcceptInviteResponse
	testutil.ParseJSON(t, rec, &resp)
	assert.Equal(t, propertyID, resp.PropertyID)
	assert.Equal(t, "leasing_agent", resp.Role)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Accept_Expired(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	mockInvites.On("Accept", mock.Anything, "overdue", userID).Return(nil, services.ErrInviteExpired)

	app := drift.New()
	app.Use(withIdentity(userID, uuid.Nil))
	app.Post("/invites/:token/accept", handler.Accept)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/invites/overdue/accept", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusGone)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Accept_AlreadyResolved(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	mockInvites.On("Accept", mock.Anything, "used", userID).Return(nil, services.ErrInviteResolved)

	app := drift.New()
	app.Use(withIdentity(userID, uuid.Nil))
	app.Post("/invites/:token/accept", handler.Accept)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/invites/used/accept", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusConflict)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Accept_NotFound(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	mockInvites.On("Accept", mock.Anything, "missing", userID).Return(nil, services.ErrInviteNotFound)

	app := drift.New()
	app.Use(withIdentity(userID, uuid.Nil))
	app.Post("/invites/:token/accept", handler.Accept)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.POST("/invites/missing/accept", nil, nil)

	testutil.AssertStatus(t, rec, http.StatusNotFound)
	mockInvites.AssertExpectations(t)
}

func TestInviteHandler_Revoke_Conflict(t *testing.T) {
	mockInvites, _, _, _, handler := setupInviteTest(t)

	userID := uuid.New()
	propertyID := uuid.New()
	inviteID := uuid.New()

	mockInvites.On("Revoke", mock.Anything, inviteID, userID).Return(services.ErrInvalidTransition)

	app := drift.New()
	app.Use(withIdentity(userID, propertyID))
	app.Delete("/properties/:propertyId/invites/:inviteId", handler.Revoke)

	client := testutil.NewHTTPTestClient(t, app)
	rec := client.DELETE("/properties/"+propertyID.String()+"/invites/"+inviteID.String(), nil)

	testutil.AssertStatus(t, rec, http.StatusConflict)
	mockInvites.AssertExpectations(t)
}
