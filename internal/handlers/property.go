package handlers

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/rcastell/propguard/internal/middleware"
	"github.com/rcastell/propguard/internal/services"
	"github.com/rcastell/propguard/pkg/dto"
)

type PropertyHandler struct {
	propertyService PropertyServiceInterface
	authzService    AuthzServiceInterface
}

func NewPropertyHandler(propertyService PropertyServiceInterface, authzService AuthzServiceInterface) *PropertyHandler {
	return &PropertyHandler{
		propertyService: propertyService,
		authzService:    authzService,
	}
}

// List returns every property the caller holds an active grant on, with the
// capability flags for each.
func (h *PropertyHandler) List(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	access, err := h.authzService.AccessibleProperties(context.Background(), userID)
	if err != nil {
		c.InternalServerError("failed to list properties")
		return
	}

	response := make([]dto.PropertyAccessResponse, len(access))
	for i, a := range access {
		response[i] = dto.PropertyAccessResponse{
			ID:                   a.Property.ID,
			Name:                 a.Property.Name,
			Address:              a.Property.Address,
			Role:                 string(a.Role),
			CanManageUsers:       a.CanManageUsers,
			CanEditProperty:      a.CanEditProperty,
			CanManageTenants:     a.CanManageTenants,
			CanManageMaintenance: a.CanManageMaintenance,
		}
	}

	_ = c.JSON(200, response)
}

func (h *PropertyHandler) Create(c *drift.Context) {
	userID := middleware.GetUserID(c)
	if userID == uuid.Nil {
		c.Unauthorized("not authenticated")
		return
	}

	var req dto.CreatePropertyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	property, err := h.propertyService.Create(context.Background(), req.Name, req.Address, userID)
	if err != nil {
		c.InternalServerError("failed to create property")
		return
	}

	_ = c.JSON(201, dto.PropertyResponse{
		ID:      property.ID,
		Name:    property.Name,
		Address: property.Address,
	})
}

func (h *PropertyHandler) Get(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	property, err := h.propertyService.GetByID(context.Background(), propertyID)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			c.NotFound("property not found")
			return
		}
		c.InternalServerError("failed to get property")
		return
	}

	_ = c.JSON(200, dto.PropertyResponse{
		ID:      property.ID,
		Name:    property.Name,
		Address: property.Address,
	})
}

func (h *PropertyHandler) Update(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	var req dto.UpdatePropertyRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	property, err := h.propertyService.Update(context.Background(), propertyID, req.Name, req.Address)
	if err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			c.NotFound("property not found")
			return
		}
		c.InternalServerError("failed to update property")
		return
	}

	_ = c.JSON(200, dto.PropertyResponse{
		ID:      property.ID,
		Name:    property.Name,
		Address: property.Address,
	})
}

func (h *PropertyHandler) Delete(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	if err := h.propertyService.Delete(context.Background(), propertyID); err != nil {
		if errors.Is(err, services.ErrPropertyNotFound) {
			c.NotFound("property not found")
			return
		}
		c.InternalServerError("failed to delete property")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "property deleted"})
}
