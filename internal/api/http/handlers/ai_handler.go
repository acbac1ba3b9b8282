package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-support/internal/ai"
	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/auth"
	"github.com/spec-kit/campus-support/internal/service"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// AIHandler exposes classification suggestions and ticket insights.
type AIHandler struct {
	classifier *ai.Classifier
	tickets    *service.TicketService
}

// NewAIHandler constructs handler.
func NewAIHandler(classifier *ai.Classifier, tickets *service.TicketService) *AIHandler {
	return &AIHandler{classifier: classifier, tickets: tickets}
}

// Suggest handles POST /ai/suggest. Open endpoint; the suggested priority
// is always the heuristic one.
func (h *AIHandler) Suggest(c *fiber.Ctx) error {
	var req dto.SuggestRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.Description) == "" {
		return apperrors.NewValidationError("description required", nil)
	}

	category, priority, usedAI := h.classifier.Suggest(c.Context(), req.Description)
	return c.JSON(dto.SuggestResponse{
		Category:          category,
		SuggestedPriority: priority,
		UsedAI:            usedAI,
	})
}

// Insights handles GET /tickets/:id/ai-insights. Visibility follows the
// same policy as reading the ticket.
func (h *AIHandler) Insights(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	ticketID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	detail, err := h.tickets.GetTicket(c.Context(), actor, ticketID)
	if err != nil {
		return err
	}

	insight := h.classifier.Insights(c.Context(), detail.Ticket.Description)
	return c.JSON(dto.InsightResponse{
		Summary:    insight.Summary,
		DraftReply: insight.DraftReply,
		UsedAI:     insight.UsedAI,
	})
}
