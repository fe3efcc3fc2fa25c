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

type UnitHandler struct {
	unitService UnitServiceInterface
}

func NewUnitHandler(unitService UnitServiceInterface) *UnitHandler {
	return &UnitHandler{unitService: unitService}
}

func (h *UnitHandler) List(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	units, err := h.unitService.ListForProperty(context.Background(), propertyID)
	if err != nil {
		c.InternalServerError("failed to list units")
		return
	}

	response := make([]dto.UnitResponse, len(units))
	for i, u := range units {
		response[i] = dto.UnitResponse{
			ID:        u.ID,
			Label:     u.Label,
			Bedrooms:  u.Bedrooms,
			RentCents: u.RentCents,
		}
	}

	_ = c.JSON(200, response)
}

func (h *UnitHandler) Create(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	var req dto.CreateUnitRequest
	if err := c.BindJSON(&req); err != nil {
		c.BadRequest("invalid request body")
		return
	}
	if req.Label == "" {
		c.BadRequest("label is required")
		return
	}

	unit, err := h.unitService.Create(context.Background(), propertyID, req.Label, req.Bedrooms, req.RentCents)
	if err != nil {
		c.InternalServerError("failed to create unit")
		return
	}

	_ = c.JSON(201, dto.UnitResponse{
		ID:        unit.ID,
		Label:     unit.Label,
		Bedrooms:  unit.Bedrooms,
		RentCents: unit.RentCents,
	})
}

func (h *UnitHandler) Delete(c *drift.Context) {
	propertyID := middleware.GetPropertyID(c)

	unitID, err := uuid.Parse(c.Param("unitId"))
	if err != nil {
		c.BadRequest("invalid unit id")
		return
	}

	if err := h.unitService.Delete(context.Background(), propertyID, unitID); err != nil {
		if errors.Is(err, services.ErrUnitNotFound) {
			c.NotFound("unit not found")
			return
		}
		c.InternalServerError("failed to delete unit")
		return
	}

	_ = c.JSON(200, map[string]string{"message": "unit deleted"})
}
