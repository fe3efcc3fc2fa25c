package handlers

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rcastell/propguard/internal/middleware"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rcastell/propguard/internal/services"
	"github.com/rcastell/propguard/pkg/dto"
)

type InviteHandler struct {
	invitationService InvitationServiceInterface
	propertyService   PropertyServiceInterface
	userService       UserServiceInterface
	emailService      EmailSender
	baseURL           string
}

func NewInviteHandler(invitationService InvitationServiceInterface, propertyService PropertyServiceInterface, userService UserServiceInterface, emailService EmailSender, baseURL string) *InviteHandler {
	return &InviteHandler{
		invitationService: invitationService,
		propertyService:   propertyService,
		userService:       userService,
		emailService:      emailService,
		baseURL:           baseURL,
	}
}

// Issue opens an invitation and mails the token link. Delivery failure does
// not fail the request; the token is returned to the caller either way.
func (h *InviteHandler) Issue(c *drift.Context) {
	userID := middleware.GetUserID(c)
	propertyID := middleware.GetPropertyID(c)

	var req dto.CreateInviteRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Email == "" {
		c.BadRequest("email is required")
		return
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		c.BadRequest("invalid role")
		return
	}

	ctx := context.Background()

	invite, err := h.invitationService.Issue(ctx, propertyID, req.Email, role, userID)
	if err != nil {
		if errors.Is(err, services.ErrForbidden) {
			c.Forbidden("cannot invite members to this property")
			return
		}
		c.InternalServerError("failed to create invitation")
		return
	}

	h.sendInviteEmail(ctx, invite, userID)

	_ = c.JSON(201, dto.InviteResponse{
		ID:        invite.ID,
		Property:  invite.PropertyID,
		Email:     invite.Email,
		Role:      string(invite.Role),
		Status:    string(invite.Status),
		ExpiresAt: invite.ExpiresAt,
		Token:     invite.Token,
	})
}

func (h *InviteHandler) List(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	invites, err := h.invitationService.ListPending(context.Background(), propertyID)
	if err != nil {
		c.InternalServerError("failed to list invitations")
		return
	}

	response := make([]dto.InviteResponse, len(invites))
	for i, invite := range invites {
		response[i] = dto.InviteResponse{
			ID:        invite.ID,
			Property:  invite.PropertyID,
			Email:     invite.Email,
			Role:      string(invite.Role),
			Status:    string(invite.Status),
			ExpiresAt: invite.ExpiresAt,
		}
	}

	_ = c.JSON(200, response)
}

func (h *InviteHandler) Revoke(c *drift.Context) {
	userID := middleware.GetUserID(c)

	inviteID, err := uuid.Parse(c.Param("inviteId"))
	if err != nil {
		c.BadRequest("invalid invitation id")
		return
	}

	if err := h.invitationService.Revoke(context.Background(), inviteID, userID); err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invitation not found")
		case errors.Is(err, services.ErrForbidden):
			c.Forbidden("cannot revoke this invitation")
		case errors.Is(err, services.ErrInvalidTransition):
			_ = c.JSON(409, map[string]string{"error": "invitation is no longer pending"})
		default:
			c.InternalServerError("failed to revoke invitation")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "invitation revoked"})
}

// Accept claims the invitation addressed by the token for the authenticated
// user. The token is the credential; no prior grant is required.
func (h *InviteHandler) Accept(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	token := c.Param("token")
	if token == "" {
		c.BadRequest("missing invitation token")
		return
	}

	grant, err := h.invitationService.Accept(context.Background(), token, userID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInviteNotFound):
			c.NotFound("invitation not found")
		case errors.Is(err, services.ErrInviteExpired):
			_ = c.JSON(410, map[string]string{"error": "invitation has expired"})
		case errors.Is(err, services.ErrInviteResolved):
			_ = c.JSON(409, map[string]string{"error": "invitation already resolved"})
		default:
			c.InternalServerError("failed to accept invitation")
		}
		return
	}

	_ = c.JSON(200, dto.AcceptInviteResponse{
		PropertyID: grant.PropertyID,
		Role:       string(grant.Role),
		Status:     string(grant.Status),
	})
}

func (h *InviteHandler) sendInviteEmail(ctx context.Context, invite *models.Invitation, inviterID uuid.UUID) {
	propertyName := "a property"
	if property, err := h.propertyService.GetByID(ctx, invite.PropertyID); err == nil {
		propertyName = property.Name
	}

	inviterName := "Someone"
	if inviter, err := h.userService.GetByID(ctx, inviterID); err == nil {
		inviterName = inviter.Name
	}

	inviteURL := fmt.Sprintf("%s/api/v1/invites/%s/accept", h.baseURL, invite.Token)
	_ = h.emailService.SendPropertyInvite(invite.Email, propertyName, inviterName, inviteURL, invite.ExpiresAt)
}
