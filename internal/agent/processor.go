package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/ai"
	"github.com/spec-kit/campus-support/internal/api/dto"
	"github.com/spec-kit/campus-support/internal/domain"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// defaultSlot is offered when no calendar service is reachable.
const defaultSlot = "2025-01-10 10:00"

var appointmentKeywords = []string{"randevu", "danisman"}

// Processor runs the triage pipeline for one ticket: fetch, classify,
// pick an appointment slot when relevant, then push the update back.
type Processor struct {
	client       *Client
	classifier   *ai.Classifier
	calendarBase string
	http         *http.Client
	logger       *zap.Logger
}

// NewProcessor constructs the processor. An empty calendarBase keeps the
// static slot fallback.
func NewProcessor(client *Client, classifier *ai.Classifier, calendarBase string, logger *zap.Logger) *Processor {
	return &Processor{
		client:       client,
		classifier:   classifier,
		calendarBase: calendarBase,
		http:         &http.Client{Timeout: 5 * time.Second},
		logger:       logger,
	}
}

// Result is the outcome of one processing run.
type Result struct {
	TicketID     int64                 `json:"ticket_id"`
	Category     string                `json:"category"`
	AssignedUnit string                `json:"assigned_unit"`
	Priority     domain.TicketPriority `json:"priority"`
	UsedAI       bool                  `json:"used_ai"`
	Message      string                `json:"message"`
	Slot         string                `json:"slot,omitempty"`
}

// Process triages the given ticket. The ticket service being unreachable
// surfaces as an upstream error; a failed user summary lookup does not
// abort the run.
func (p *Processor) Process(ctx context.Context, ticketID int64) (*Result, error) {
	ticket, err := p.client.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewUpstreamUnavailable("ticket service unreachable", err)
	}

	var summary struct {
		Total int
	}
	if s, err := p.client.GetUserSummary(ctx, ticket.CreatedByID); err != nil {
		p.logger.Warn("user summary lookup failed",
			zap.Int64("ticket_id", ticketID), zap.Error(err))
	} else {
		summary.Total = s.Total
	}

	classification := p.classifier.Classify(ctx, ticket.Description)

	message := fmt.Sprintf("Talebiniz %s birimine yonlendirildi. SLA: 24 saat. Oncelik: %s.",
		classification.Unit, classification.Priority)

	slot := ""
	if needsAppointment(ticket.Description) {
		slot = p.advisorSlot(ctx)
		message += fmt.Sprintf(" Onerilen randevu: %s.", slot)
	}
	if summary.Total > 0 {
		message += fmt.Sprintf(" Daha once %d talebiniz var.", summary.Total)
	}

	update := dto.AgentUpdateRequest{
		Priority:     &classification.Priority,
		Category:     &classification.Category,
		AssignedUnit: &classification.Unit,
		Message:      &message,
	}
	if _, err := p.client.ApplyUpdate(ctx, ticketID, update); err != nil {
		return nil, apperrors.NewUpstreamUnavailable("ticket service rejected update", err)
	}

	return &Result{
		TicketID:     ticketID,
		Category:     classification.Category,
		AssignedUnit: classification.Unit,
		Priority:     classification.Priority,
		UsedAI:       classification.UsedAI,
		Message:      message,
		Slot:         slot,
	}, nil
}

func needsAppointment(description string) bool {
	lowered := strings.ToLower(description)
	for _, kw := range appointmentKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}

// advisorSlot asks the calendar service for the next advisor slot, falling
// back to the static one when unconfigured or unreachable.
func (p *Processor) advisorSlot(ctx context.Context) string {
	if p.calendarBase == "" {
		return defaultSlot
	}

	url := p.calendarBase + "/slots?service=advisor"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return defaultSlot
	}
	resp, err := p.http.Do(req)
	if err != nil {
		p.logger.Warn("calendar service unreachable", zap.Error(err))
		return defaultSlot
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return defaultSlot
	}

	var payload struct {
		Slot string `json:"slot"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil || payload.Slot == "" {
		return defaultSlot
	}
	return payload.Slot
}
