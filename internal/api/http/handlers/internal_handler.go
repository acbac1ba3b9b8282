package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/service"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// InternalHandler exposes the secret-gated service-to-service surface used
// by the agent process.
type InternalHandler struct {
	internal *service.InternalService
}

// NewInternalHandler constructs handler.
func NewInternalHandler(internal *service.InternalService) *InternalHandler {
	return &InternalHandler{internal: internal}
}

// Health handles GET /internal/health.
func (h *InternalHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

// GetTicket handles GET /internal/tickets/:id.
func (h *InternalHandler) GetTicket(c *fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.internal.GetTicket(c.Context(), ticketID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}

// GetUserSummary handles GET /internal/users/:id/tickets/summary.
func (h *InternalHandler) GetUserSummary(c *fiber.Ctx) error {
	userID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	summary, err := h.internal.GetUserSummary(c.Context(), userID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": summary})
}

// ApplyAgentUpdate handles POST /internal/tickets/:id/agent-update.
func (h *InternalHandler) ApplyAgentUpdate(c *fiber.Ctx) error {
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.AgentUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	detail, err := h.internal.ApplyAgentUpdate(c.Context(), ticketID, service.AgentUpdateInput{
		Priority:     req.Priority,
		Category:     req.Category,
		AssignedUnit: req.AssignedUnit,
		Message:      req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(detail)})
}
