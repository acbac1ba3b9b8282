package dto

import (
	"time"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Title        string                `json:"title"`
	Description  string                `json:"description"`
	DepartmentID int64                 `json:"department_id"`
	Priority     domain.TicketPriority `json:"priority"`
	Category     *string               `json:"category"`
	AssignedUnit *string               `json:"assigned_unit"`
}

// UpdateTicketRequest is a partial edit; nil fields stay unchanged.
type UpdateTicketRequest struct {
	Title        *string                `json:"title"`
	Description  *string                `json:"description"`
	Priority     *domain.TicketPriority `json:"priority"`
	Category     *string                `json:"category"`
	AssignedUnit *string                `json:"assigned_unit"`
}

// AssignTicketRequest payload.
type AssignTicketRequest struct {
	AssignedToID int64 `json:"assigned_to_id"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status domain.TicketStatus `json:"status"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Content string `json:"content"`
}

// CommentResponse represents a thread entry.
type CommentResponse struct {
	ID          int64     `json:"id"`
	TicketID    int64     `json:"ticket_id"`
	AuthorID    int64     `json:"author_id"`
	AuthorEmail string    `json:"author_email"`
	Content     string    `json:"content"`
	CreatedAt   time.Time `json:"created_at"`
}

// NewCommentResponse maps a domain comment.
func NewCommentResponse(c *domain.Comment) CommentResponse {
	return CommentResponse{
		ID:          c.ID,
		TicketID:    c.TicketID,
		AuthorID:    c.AuthorID,
		AuthorEmail: c.AuthorEmail,
		Content:     c.Content,
		CreatedAt:   c.CreatedAt,
	}
}

// NewCommentResponses maps a comment slice.
func NewCommentResponses(comments []domain.Comment) []CommentResponse {
	out := make([]CommentResponse, 0, len(comments))
	for i := range comments {
		out = append(out, NewCommentResponse(&comments[i]))
	}
	return out
}

// TicketResponse provides full ticket info including lifecycle timestamps
// and the comment thread.
type TicketResponse struct {
	ID              int64                 `json:"id"`
	Title           string                `json:"title"`
	Description     string                `json:"description"`
	Category        *string               `json:"category"`
	AssignedUnit    *string               `json:"assigned_unit"`
	Priority        domain.TicketPriority `json:"priority"`
	Status          domain.TicketStatus   `json:"status"`
	DepartmentID    int64                 `json:"department_id"`
	DepartmentName  string                `json:"department_name,omitempty"`
	CreatedByID     int64                 `json:"created_by_id"`
	CreatorEmail    string                `json:"creator_email,omitempty"`
	AssignedToID    *int64                `json:"assigned_to_id"`
	AssigneeEmail   *string               `json:"assignee_email,omitempty"`
	CreatedAt       time.Time             `json:"created_at"`
	UpdatedAt       time.Time             `json:"updated_at"`
	FirstResponseAt *time.Time            `json:"first_response_at"`
	ResolvedAt      *time.Time            `json:"resolved_at"`
	ClosedAt        *time.Time            `json:"closed_at"`
	AssignedAt      *time.Time            `json:"assigned_at"`
	Comments        []CommentResponse     `json:"comments,omitempty"`
}

// NewTicketResponse maps a bare ticket without joins.
func NewTicketResponse(t *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:              t.ID,
		Title:           t.Title,
		Description:     t.Description,
		Category:        t.Category,
		AssignedUnit:    t.AssignedUnit,
		Priority:        t.Priority,
		Status:          t.Status,
		DepartmentID:    t.DepartmentID,
		CreatedByID:     t.CreatedByID,
		AssignedToID:    t.AssignedToID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
		FirstResponseAt: t.FirstResponseAt,
		ResolvedAt:      t.ResolvedAt,
		ClosedAt:        t.ClosedAt,
		AssignedAt:      t.AssignedAt,
	}
}

// NewTicketResponses maps a ticket slice.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewTicketDetailResponse maps a ticket joined with department, party
// emails and the comment thread.
func NewTicketDetailResponse(detail *service.TicketDetail) TicketResponse {
	resp := NewTicketResponse(detail.Ticket)
	if detail.Department != nil {
		resp.DepartmentName = detail.Department.Name
	}
	resp.CreatorEmail = detail.CreatorEmail
	resp.AssigneeEmail = detail.AssigneeEmail
	resp.Comments = NewCommentResponses(detail.Comments)
	return resp
}
