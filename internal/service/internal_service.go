package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/events"
	"github.com/spec-kit/campus-support/internal/repository"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// InternalService backs the service-to-service surface used by the agent
// process. Callers are trusted (secret-gated); no per-user policy applies.
type InternalService struct {
	tickets    repository.TicketRepository
	comments   repository.CommentRepository
	users      repository.UserRepository
	ticketSvc  *TicketService
	dispatcher events.Dispatcher
	now        func() time.Time
}

// NewInternalService constructs the service.
func NewInternalService(ticketSvc *TicketService, tickets repository.TicketRepository, comments repository.CommentRepository, users repository.UserRepository, dispatcher events.Dispatcher) *InternalService {
	return &InternalService{
		tickets:    tickets,
		comments:   comments,
		users:      users,
		ticketSvc:  ticketSvc,
		dispatcher: dispatcher,
		now:        time.Now,
	}
}

// GetTicket returns full ticket detail without policy checks.
func (s *InternalService) GetTicket(ctx context.Context, ticketID int64) (*TicketDetail, error) {
	ticket, err := s.ticketSvc.load(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return s.ticketSvc.detail(ctx, ticket)
}

// UserSummary aggregates a creator's ticket history for the agent message.
type UserSummary struct {
	Total        int      `json:"total"`
	RecentIDs    []int64  `json:"recent_ids"`
	RecentTitles []string `json:"recent_titles"`
}

// GetUserSummary returns the creator's total ticket count plus the two most
// recent tickets.
func (s *InternalService) GetUserSummary(ctx context.Context, userID int64) (*UserSummary, error) {
	total, err := s.tickets.CountByCreator(ctx, userID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	recent, err := s.tickets.ListRecentByCreator(ctx, userID, 2)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	summary := &UserSummary{Total: total, RecentIDs: []int64{}, RecentTitles: []string{}}
	for _, t := range recent {
		summary.RecentIDs = append(summary.RecentIDs, t.ID)
		summary.RecentTitles = append(summary.RecentTitles, t.Title)
	}
	return summary, nil
}

// AgentUpdateInput is the partial triage update pushed back by the agent.
type AgentUpdateInput struct {
	Priority     *domain.TicketPriority
	Category     *string
	AssignedUnit *string
	Message      *string
}

// ApplyAgentUpdate applies the agent's classification results and, when a
// message is present, records it as a bot-user comment.
func (s *InternalService) ApplyAgentUpdate(ctx context.Context, ticketID int64, input AgentUpdateInput) (*TicketDetail, error) {
	ticket, err := s.ticketSvc.load(ctx, ticketID)
	if err != nil {
		return nil, err
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

	if input.Message != nil && *input.Message != "" {
		bot, err := s.users.GetByEmail(ctx, domain.BotEmail)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if bot != nil {
			comment := &domain.Comment{
				TicketID:    ticket.ID,
				AuthorID:    bot.ID,
				AuthorEmail: bot.Email,
				Content:     *input.Message,
			}
			if err := s.comments.Create(ctx, comment); err != nil {
				return nil, apperrors.MapError(err)
			}
		}
	}

	if s.dispatcher != nil {
		_ = s.dispatcher.Publish(ctx, events.Event{
			ID:        uuid.NewString(),
			Type:      events.EventTicketAgentUpdated,
			TicketID:  ticket.ID,
			Timestamp: s.now(),
			Payload: events.TicketAgentUpdatedPayload{
				Category:     ticket.Category,
				AssignedUnit: ticket.AssignedUnit,
			},
		})
	}
	return s.ticketSvc.detail(ctx, ticket)
}
