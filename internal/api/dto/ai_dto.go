package dto

import "github.com/spec-kit/campus-support/internal/domain"

// SuggestRequest payload for classification suggestions.
type SuggestRequest struct {
	Description string `json:"description"`
}

// SuggestResponse carries the suggested triage values.
type SuggestResponse struct {
	Category          string                `json:"category"`
	SuggestedPriority domain.TicketPriority `json:"suggested_priority"`
	UsedAI            bool                  `json:"used_ai"`
}

// InsightResponse carries the ticket insight payload.
type InsightResponse struct {
	Summary    string `json:"summary"`
	DraftReply string `json:"draft_reply"`
	UsedAI     bool   `json:"used_ai"`
}
