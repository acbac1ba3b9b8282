package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/events"
	"github.com/spec-kit/campus-support/internal/policy"
	"github.com/spec-kit/campus-support/internal/repository"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// TicketService coordinates the ticket lifecycle: creation, edits, status
// transitions, assignment, comments and deletion. Every operation loads the
// ticket first, so a missing ticket is NOT_FOUND before any policy check.
type TicketService struct {
	tickets     repository.TicketRepository
	comments    repository.CommentRepository
	departments repository.DepartmentRepository
	users       repository.UserRepository
	dispatcher  events.Dispatcher
	now         func() time.Time
}

// TicketDependencies bundles requirements for the ticket service.
type TicketDependencies struct {
	TicketRepo     repository.TicketRepository
	CommentRepo    repository.CommentRepository
	DepartmentRepo repository.DepartmentRepository
	UserRepo       repository.UserRepository
	Dispatcher     events.Dispatcher
	Now            func() time.Time
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:     deps.TicketRepo,
		comments:    deps.CommentRepo,
		departments: deps.DepartmentRepo,
		users:       deps.UserRepo,
		dispatcher:  deps.Dispatcher,
		now:         now,
	}
}

// TicketCreateInput describes ticket creation payload.
type TicketCreateInput struct {
	Title        string
	Description  string
	DepartmentID int64
	Priority     domain.TicketPriority
	Category     *string
	AssignedUnit *string
}

// TicketUpdateInput is the typed allow-list of non-status fields an edit
// may touch. Nil fields are left unchanged.
type TicketUpdateInput struct {
	Title        *string
	Description  *string
	Priority     *domain.TicketPriority
	Category     *string
	AssignedUnit *string
}

// Empty reports whether the update touches nothing.
func (in TicketUpdateInput) Empty() bool {
	return in.Title == nil && in.Description == nil && in.Priority == nil &&
		in.Category == nil && in.AssignedUnit == nil
}

// TicketListFilter describes listing parameters.
type TicketListFilter struct {
	DepartmentID    *int64
	Status          *domain.TicketStatus
	Priority        *domain.TicketPriority
	OrderByPriority bool
}

// TicketDetail is a ticket joined with its department, party emails and
// comment thread.
type TicketDetail struct {
	Ticket        *domain.Ticket
	Department    *domain.Department
	CreatorEmail  string
	AssigneeEmail *string
	Comments      []domain.Comment
}

// CreateTicket creates a ticket in status open.
func (s *TicketService) CreateTicket(ctx context.Context, actor *domain.User, input TicketCreateInput) (*TicketDetail, error) {
	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Description) == "" {
		return nil, apperrors.NewValidationError("title and description required", nil)
	}
	if _, err := s.departments.GetByID(ctx, input.DepartmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": input.DepartmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanCreateTicket(actor, input.DepartmentID) {
		return nil, apperrors.NewForbidden("you cannot create tickets for this department")
	}

	priority := input.Priority
	if priority == "" {
		priority = domain.TicketPriorityMedium
	}
	if !domain.ValidPriority(priority) {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": priority})
	}

	ticket := &domain.Ticket{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		Category:     input.Category,
		AssignedUnit: input.AssignedUnit,
		Priority:     priority,
		Status:       domain.TicketStatusOpen,
		DepartmentID: input.DepartmentID,
		CreatedByID:  actor.ID,
	}
	if err := s.tickets.Create(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketCreatedPayload{
			DepartmentID: ticket.DepartmentID,
			Priority:     ticket.Priority,
			Title:        ticket.Title,
		},
	})
	return s.detail(ctx, ticket)
}

// GetTicket fetches a ticket the actor may view.
func (s *TicketService) GetTicket(ctx context.Context, actor *domain.User, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}
	return s.detail(ctx, ticket)
}

// ListTickets lists tickets visible to the actor. Students see only their
// own; support and department staff are pinned to their department; the
// department filter applies for admins only.
func (s *TicketService) ListTickets(ctx context.Context, actor *domain.User, filter TicketListFilter) ([]TicketDetail, error) {
	repoFilter := repository.TicketFilter{
		Status:          filter.Status,
		Priority:        filter.Priority,
		OrderByPriority: filter.OrderByPriority,
	}
	switch actor.Role {
	case domain.RoleStudent:
		repoFilter.CreatedByID = &actor.ID
	case domain.RoleSupport, domain.RoleDepartment:
		repoFilter.DepartmentID = actor.DepartmentID
	case domain.RoleAdmin:
		repoFilter.DepartmentID = filter.DepartmentID
	}
	tickets, err := s.tickets.ListWithFilter(ctx, repoFilter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.details(ctx, tickets)
}

// ListMyTickets lists tickets created by the actor, newest first.
func (s *TicketService) ListMyTickets(ctx context.Context, actor *domain.User) ([]TicketDetail, error) {
	tickets, err := s.tickets.ListWithFilter(ctx, repository.TicketFilter{CreatedByID: &actor.ID})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.details(ctx, tickets)
}

// UpdateTicket applies a non-status edit. Closed tickets reject edits for
// every role, admins included.
func (s *TicketService) UpdateTicket(ctx context.Context, actor *domain.User, ticketID int64, input TicketUpdateInput) (*TicketDetail, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanEditTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot edit this ticket")
	}
	if ticket.IsClosed() {
		return nil, apperrors.NewInvalidState("closed tickets cannot be edited")
	}
	if input.Empty() {
		return s.detail(ctx, ticket)
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, apperrors.NewValidationError("title cannot be empty", nil)
		}
		ticket.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, apperrors.NewValidationError("description cannot be empty", nil)
		}
		ticket.Description = strings.TrimSpace(*input.Description)
	}
	if input.Priority != nil {
		if !domain.ValidPriority(*input.Priority) {
			return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": *input.Priority})
		}
		ticket.Priority = *input.Priority
	}
	if input.Category != nil {
		ticket.Category = input.Category
	}
	if input.AssignedUnit != nil {
		ticket.AssignedUnit = input.AssignedUnit
	}
	ticket.UpdatedAt = s.now()

	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	return s.detail(ctx, ticket)
}

// AssignTicket assigns the ticket to a support user in its department and
// stamps assigned_at.
func (s *TicketService) AssignTicket(ctx context.Context, actor *domain.User, ticketID, supportUserID int64) (*TicketDetail, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanAssign(actor, ticket) {
		return nil, apperrors.NewForbidden("only department managers and admins can assign tickets")
	}

	assignee, err := s.users.GetByID(ctx, supportUserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewInvalidAssignment("support user not found", map[string]any{"user_id": supportUserID})
		}
		return nil, apperrors.MapError(err)
	}
	if assignee.Role != domain.RoleSupport {
		return nil, apperrors.NewInvalidAssignment("support user not found", map[string]any{"user_id": supportUserID})
	}
	if !policy.EligibleAssignee(assignee, ticket) {
		return nil, apperrors.NewInvalidAssignment("support user is in a different department", map[string]any{"user_id": supportUserID})
	}

	ticket.AssignTo(assignee.ID, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketAssignedPayload{AssignedToID: assignee.ID},
	})
	return s.detail(ctx, ticket)
}

// UpdateStatus moves the ticket to the requested status and stamps the
// transition timestamps.
func (s *TicketService) UpdateStatus(ctx context.Context, actor *domain.User, ticketID int64, status domain.TicketStatus) (*TicketDetail, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !domain.ValidStatus(status) {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"status": status})
	}
	if !policy.CanChangeStatus(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot change this ticket's status")
	}

	oldStatus := ticket.Status
	ticket.ApplyStatus(status, s.now())
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: oldStatus,
			NewStatus: ticket.Status,
		},
	})
	return s.detail(ctx, ticket)
}

// DeleteTicket removes the ticket and, via cascade, its comments.
func (s *TicketService) DeleteTicket(ctx context.Context, actor *domain.User, ticketID int64) error {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return err
	}
	if !policy.CanDeleteTicket(actor, ticket) {
		return apperrors.NewForbidden("you cannot delete this ticket")
	}
	if err := s.tickets.Delete(ctx, ticket.ID); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// AddComment appends a comment. A support user's comment counts as the
// ticket's first response.
func (s *TicketService) AddComment(ctx context.Context, actor *domain.User, ticketID int64, content string) (*domain.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, apperrors.NewValidationError("content required", nil)
	}
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanComment(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot comment on this ticket")
	}

	now := s.now()
	ticket.UpdatedAt = now
	if actor.Role == domain.RoleSupport {
		ticket.TouchFirstResponse(now)
	}

	comment := &domain.Comment{
		TicketID:    ticket.ID,
		AuthorID:    actor.ID,
		AuthorEmail: actor.Email,
		Content:     content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.tickets.Update(ctx, ticket); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: ticket.ID,
		ActorID:  actor.ID,
		Payload:  events.TicketCommentAddedPayload{CommentID: comment.ID},
	})
	return comment, nil
}

// ListComments returns the ticket's comment thread in creation order.
func (s *TicketService) ListComments(ctx context.Context, actor *domain.User, ticketID int64) ([]domain.Comment, error) {
	ticket, err := s.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	if !policy.CanViewTicket(actor, ticket) {
		return nil, apperrors.NewForbidden("you cannot view this ticket")
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return comments, nil
}

func (s *TicketService) load(ctx context.Context, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticketID})
		}
		return nil, apperrors.MapError(err)
	}
	return ticket, nil
}

func (s *TicketService) detail(ctx context.Context, ticket *domain.Ticket) (*TicketDetail, error) {
	detail := &TicketDetail{Ticket: ticket}

	if dept, err := s.departments.GetByID(ctx, ticket.DepartmentID); err == nil {
		detail.Department = dept
	}
	if creator, err := s.users.GetByID(ctx, ticket.CreatedByID); err == nil {
		detail.CreatorEmail = creator.Email
	}
	if ticket.AssignedToID != nil {
		if assignee, err := s.users.GetByID(ctx, *ticket.AssignedToID); err == nil {
			email := assignee.Email
			detail.AssigneeEmail = &email
		}
	}
	comments, err := s.comments.ListByTicket(ctx, ticket.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	detail.Comments = comments
	return detail, nil
}

func (s *TicketService) details(ctx context.Context, tickets []domain.Ticket) ([]TicketDetail, error) {
	result := make([]TicketDetail, 0, len(tickets))
	for i := range tickets {
		detail, err := s.detail(ctx, &tickets[i])
		if err != nil {
			return nil, err
		}
		result = append(result, *detail)
	}
	return result, nil
}

func (s *TicketService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}
