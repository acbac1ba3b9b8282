package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-support/internal/auth"
	"github.com/spec-kit/campus-support/internal/service"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// ReportsHandler exposes the weekly department report.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Weekly handles GET /departments/:id/report?week_start=YYYY-MM-DD.
func (h *ReportsHandler) Weekly(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	departmentID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}

	var weekStart *time.Time
	if raw := c.Query("week_start"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return apperrors.NewValidationError("week_start must be YYYY-MM-DD", nil)
		}
		weekStart = &parsed
	}

	report, err := h.reports.BuildReport(c.Context(), actor, departmentID, weekStart)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": report})
}
