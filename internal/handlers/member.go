package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rcastell/propguard/internal/middleware"
	"github.com/rcastell/propguard/internal/models"
	"github.com/rcastell/propguard/internal/services"
	"github.com/rcastell/propguard/pkg/dto"
)

// MemberHandler manages the grants on a property. All routes sit behind the
// manage_users permission except the listing, which any member may read.
type MemberHandler struct {
	grantService GrantServiceInterface
	userService  UserServiceInterface
}

func NewMemberHandler(grantService GrantServiceInterface, userService UserServiceInterface) *MemberHandler {
	return &MemberHandler{grantService: grantService, userService: userService}
}

func (h *MemberHandler) List(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	grants, err := h.grantService.ListForProperty(context.Background(), propertyID)
	if err != nil {
		c.InternalServerError("failed to list members")
		return
	}

	response := make([]dto.MemberResponse, len(grants))
	for i, g := range grants {
		m := dto.MemberResponse{
			UserID:     g.UserID,
			Role:       string(g.Role),
			Status:     string(g.Status),
			InvitedBy:  g.InvitedBy,
			AcceptedAt: g.AcceptedAt,
		}
		if g.User != nil {
			m.Email = g.User.Email
			m.Name = g.User.Name
		}
		response[i] = m
	}

	_ = c.JSON(200, response)
}

// Upsert sets a member's role. The member is addressed by user id or, when
// the caller only knows the address, by account email. Demoting the last
// active owner is refused.
func (h *MemberHandler) Upsert(c *drift.Context) {
	userID := middleware.GetUserID(c)
	propertyID := middleware.GetPropertyID(c)

	var req dto.UpsertMemberRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}

	memberID := req.UserID
	if memberID == uuid.Nil {
		if req.Email == "" {
			c.BadRequest("user_id or email is required")
			return
		}
		member, err := h.userService.GetByEmail(context.Background(), req.Email)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				c.NotFound("no account with that email")
				return
			}
			c.InternalServerError("failed to resolve member")
			return
		}
		memberID = member.ID
	}

	role := models.Role(req.Role)
	if !role.Valid() {
		c.BadRequest("invalid role")
		return
	}

	grant, err := h.grantService.Upsert(context.Background(), propertyID, memberID, role, models.GrantStatusActive, &userID)
	if err != nil {
		if errors.Is(err, services.ErrLastOwner) {
			_ = c.JSON(409, map[string]string{"error": "property must keep at least one active owner"})
			return
		}
		c.InternalServerError("failed to update member")
		return
	}

	_ = c.JSON(200, dto.MemberResponse{
		UserID:     grant.UserID,
		Role:       string(grant.Role),
		Status:     string(grant.Status),
		InvitedBy:  grant.InvitedBy,
		AcceptedAt: grant.AcceptedAt,
	})
}

func (h *MemberHandler) Deactivate(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	memberID, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		c.BadRequest("invalid user id")
		return
	}

	if err := h.grantService.Deactivate(context.Background(), propertyID, memberID); err != nil {
		switch {
		case errors.Is(err, services.ErrLastOwner):
			_ = c.JSON(409, map[string]string{"error": "property must keep at least one active owner"})
		case errors.Is(err, services.ErrGrantNotFound):
			c.NotFound("member not found")
		default:
			c.InternalServerError("failed to remove member")
		}
		return
	}

	_ = c.JSON(200, map[string]string{"message": "member deactivated"})
}
