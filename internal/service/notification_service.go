package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/events"
	"github.com/spec-kit/campus-support/internal/repository"
)

const webhookTimeout = 8 * time.Second

// NotificationService pushes resolution notices to a configured webhook.
// Failures are logged and swallowed so ticket operations never block on
// notification delivery.
type NotificationService struct {
	tickets    repository.TicketRepository
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewNotificationService constructs the service. An empty webhookURL
// disables delivery.
func NewNotificationService(tickets repository.TicketRepository, webhookURL string, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		tickets:    tickets,
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: webhookTimeout},
		logger:     logger,
	}
}

// RegisterSubscribers wires the service into the dispatcher.
func (s *NotificationService) RegisterSubscribers(dispatcher events.Dispatcher) {
	dispatcher.Subscribe(events.EventTicketStatusChanged, s.handleStatusChanged)
}

type resolutionNotice struct {
	TicketID    int64  `json:"ticket_id"`
	Title       string `json:"title"`
	Status      string `json:"status"`
	Description string `json:"description"`
}

func (s *NotificationService) handleStatusChanged(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketStatusChangedPayload)
	if !ok || payload.NewStatus != domain.TicketStatusResolved {
		return nil
	}
	if s.webhookURL == "" {
		return nil
	}

	ticket, err := s.tickets.GetByID(ctx, event.TicketID)
	if err != nil {
		s.logger.Warn("notification: ticket lookup failed",
			zap.Int64("ticket_id", event.TicketID), zap.Error(err))
		return nil
	}

	notice := resolutionNotice{
		TicketID:    ticket.ID,
		Title:       ticket.Title,
		Status:      string(ticket.Status),
		Description: ticket.Description,
	}
	if err := s.deliver(ctx, notice); err != nil {
		s.logger.Warn("notification: webhook delivery failed",
			zap.Int64("ticket_id", ticket.ID), zap.Error(err))
	}
	return nil
}

func (s *NotificationService) deliver(ctx context.Context, notice resolutionNotice) error {
	body, err := json.Marshal(notice)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
