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

type TenantHandler struct {
	tenantService TenantServiceInterface
}

func NewTenantHandler(tenantService TenantServiceInterface) *TenantHandler {
	return &TenantHandler{tenantService: tenantService}
}

func (h *TenantHandler) List(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	tenants, err := h.tenantService.ListForProperty(context.Background(), propertyID)
	if err != nil {
		c.InternalServerError("failed to list tenants")
		return
	}

	response := make([]dto.TenantResponse, len(tenants))
	for i, t := range tenants {
		response[i] = dto.TenantResponse{
			ID:     t.ID,
			Name:   t.Name,
			Email:  t.Email,
			UnitID: t.UnitID,
		}
	}

	_ = c.JSON(200, response)
}

func (h *TenantHandler) Create(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	var req dto.CreateTenantRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Name == "" {
		c.BadRequest("name is required")
		return
	}

	tenant, err := h.tenantService.Create(context.Background(), propertyID, req.UnitID, req.Name, req.Email)
	if err != nil {
		c.InternalServerError("failed to create tenant")
		return
	}

	_ = c.JSON(201, dto.TenantResponse{
		ID:     tenant.ID,
		Name:   tenant.Name,
		Email:  tenant.Email,
		UnitID: tenant.UnitID,
	})
}

func (h *TenantHandler) Delete(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	tenantID, err := uuid.Parse(c.Param("tenantId"))
	if err != nil {
		c.BadRequest("invalid tenant id")
		return
	}

	if err := h.tenantService.Delete(context.Background(), propertyID, tenantID); err != nil {
		if errors.Is(err, services.ErrTenantNotFound) {
			c.NotFound("tenant not found")
			return
		}
		c.InternalServerError("failed to delete tenant")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "tenant deleted"})
}
