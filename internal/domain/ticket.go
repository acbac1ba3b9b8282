package domain

import "time"

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen       TicketStatus = "open"
	TicketStatusInProgress TicketStatus = "in_progress"
	TicketStatusResolved   TicketStatus = "resolved"
	TicketStatusClosed     TicketStatus = "closed"
)

// ValidStatus reports whether s is a known status value. Any authorized
// actor may move a ticket directly to any of the four states; the machine
// is not strictly linear.
func ValidStatus(s TicketStatus) bool {
	switch s {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusResolved, TicketStatusClosed:
		return true
	}
	return false
}

// TicketPriority enumerates urgency.
type TicketPriority string

const (
	TicketPriorityLow    TicketPriority = "low"
	TicketPriorityMedium TicketPriority = "medium"
	TicketPriorityHigh   TicketPriority = "high"
)

// ValidPriority reports whether p is a known priority value.
func ValidPriority(p TicketPriority) bool {
	switch p {
	case TicketPriorityLow, TicketPriorityMedium, TicketPriorityHigh:
		return true
	}
	return false
}

// Ticket is the aggregate for reported issues.
type Ticket struct {
	ID           int64
	Title        string
	Description  string
	Category     *string
	AssignedUnit *string
	Priority     TicketPriority
	Status       TicketStatus
	DepartmentID int64
	CreatedByID  int64
	AssignedToID *int64
	CreatedAt    time.Time
	UpdatedAt    time.Time

	// Stamped by lifecycle transitions; once set they never revert to nil
	// (closed_at being the one field re-stamped on every close).
	FirstResponseAt *time.Time
	ResolvedAt      *time.Time
	ClosedAt        *time.Time
	AssignedAt      *time.Time
}

// ApplyStatus moves the ticket to the given status and stamps the
// transition timestamps:
//   - first entry into in_progress sets first_response_at;
//   - first entry into resolved or closed sets resolved_at;
//   - every entry into closed sets closed_at, overwriting prior values;
//   - updated_at is always refreshed.
func (t *Ticket) ApplyStatus(status TicketStatus, now time.Time) {
	t.Status = status
	t.UpdatedAt = now
	if status == TicketStatusInProgress && t.FirstResponseAt == nil {
		stamp := now
		t.FirstResponseAt = &stamp
	}
	if (status == TicketStatusResolved || status == TicketStatusClosed) && t.ResolvedAt == nil {
		stamp := now
		t.ResolvedAt = &stamp
	}
	if status == TicketStatusClosed {
		stamp := now
		t.ClosedAt = &stamp
	}
}

// AssignTo records the assignee and stamps assigned_at. Eligibility of the
// assignee (support role, same department) is enforced by the service.
func (t *Ticket) AssignTo(userID int64, now time.Time) {
	t.AssignedToID = &userID
	stamp := now
	t.AssignedAt = &stamp
	t.UpdatedAt = now
}

// TouchFirstResponse stamps first_response_at if not already set. A support
// comment counts as first response, independent of any status change.
func (t *Ticket) TouchFirstResponse(now time.Time) {
	if t.FirstResponseAt == nil {
		stamp := now
		t.FirstResponseAt = &stamp
	}
}

// IsClosed reports whether the ticket has status closed.
func (t *Ticket) IsClosed() bool {
	return t.Status == TicketStatusClosed
}
