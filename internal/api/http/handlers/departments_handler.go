package handlers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/auth"
	"github.com/spec-kit/campus-support/internal/policy"
	"github.com/spec-kit/campus-support/internal/repository"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// DepartmentsHandler exposes department listing and staff lookup.
type DepartmentsHandler struct {
	departments repository.DepartmentRepository
	users       repository.UserRepository
}

// NewDepartmentsHandler constructs handler.
func NewDepartmentsHandler(departments repository.DepartmentRepository, users repository.UserRepository) *DepartmentsHandler {
	return &DepartmentsHandler{departments: departments, users: users}
}

// List handles GET /departments. Open endpoint, name-ordered.
func (h *DepartmentsHandler) List(c *fiber.Ctx) error {
	departments, err := h.departments.List(c.Context())
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewDepartmentResponses(departments)})
}

// ListSupports handles GET /departments/:id/supports.
func (h *DepartmentsHandler) ListSupports(c *fiber.Ctx) error {
	actor, ok := auth.CurrentUser(c)
	if !ok {
		return apperrors.NewUnauthorized("user required")
	}
	departmentID, err := parseIDParam(c, "id")
	if err != nil {
		return err
	}
	if _, err := h.departments.GetByID(c.Context(), departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return apperrors.MapError(err)
	}
	if !policy.CanViewSupports(actor, departmentID) {
		return apperrors.NewForbidden("you cannot view this department's staff")
	}

	supports, err := h.users.ListSupportsByDepartment(c.Context(), departmentID)
	if err != nil {
		return apperrors.MapError(err)
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponses(supports)})
}

func parseIDParam(c *fiber.Ctx, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Params(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid id", map[string]any{"param": name})
	}
	return id, nil
}
