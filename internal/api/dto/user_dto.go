package dto

import (
	"time"

	"github.com/spec-kit/campus-support/internal/domain"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Password     string      `json:"password"`
	Role         domain.Role `json:"role"`
	DepartmentID *int64      `json:"department_id"`
}

// TokenResponse carries the issued bearer token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// UserResponse is the public account view.
type UserResponse struct {
	ID           int64       `json:"id"`
	Email        string      `json:"email"`
	FullName     string      `json:"full_name"`
	Role         domain.Role `json:"role"`
	DepartmentID *int64      `json:"department_id"`
	IsActive     bool        `json:"is_active"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:           u.ID,
		Email:        u.Email,
		FullName:     u.FullName,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
		IsActive:     u.IsActive,
		CreatedAt:    u.CreatedAt,
	}
}

// NewUserResponses maps a user slice.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
