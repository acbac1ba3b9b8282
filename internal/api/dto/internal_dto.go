package dto

import "github.com/spec-kit/campus-support/internal/domain"

// AgentUpdateRequest is the triage update pushed by the agent process.
// All fields are optional.
type AgentUpdateRequest struct {
	Priority     *domain.TicketPriority `json:"priority"`
	Category     *string                `json:"category"`
	AssignedUnit *string                `json:"assigned_unit"`
	Message      *string                `json:"message"`
}
