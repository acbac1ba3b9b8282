package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/service"
	"github.com/spec-kit/campus-support/pkg/ratelimit"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// AuthHandler exposes registration and token issuance.
type AuthHandler struct {
	auth         *service.AuthService
	loginLimiter ratelimit.Limiter
	loginLimit   int
}

// NewAuthHandler constructs handler. A nil limiter disables login rate
// limiting.
func NewAuthHandler(authService *service.AuthService, loginLimiter ratelimit.Limiter, loginLimit int) *AuthHandler {
	return &AuthHandler{auth: authService, loginLimiter: loginLimiter, loginLimit: loginLimit}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.auth.Register(c.Context(), service.RegisterInput{
		Email:        req.Email,
		FullName:     req.FullName,
		Password:     req.Password,
		Role:         req.Role,
		DepartmentID: req.DepartmentID,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Token handles POST /auth/token. The credentials arrive as form fields
// username and password.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	username := c.FormValue("username")
	password := c.FormValue("password")
	if username == "" || password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	if h.loginLimiter != nil {
		decision := h.loginLimiter.Allow("login:"+username, h.loginLimit)
		if !decision.Allowed {
			return apperrors.NewTooManyRequests("too many login attempts, try again later")
		}
	}

	token, expiresAt, err := h.auth.Login(c.Context(), username, password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresAt:   expiresAt,
	})
}
