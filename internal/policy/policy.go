// Package policy holds the pure authorization decision functions. Each
// function maps (actor role, actor department, resource ownership) to an
// allow/deny answer; callers translate denials into FORBIDDEN errors.
// Resource existence is always checked before any of these run, so a
// missing ticket surfaces as NOT_FOUND rather than a policy denial.
package policy

import "github.com/spec-kit/campus-support/internal/domain"

// CanCreateTicket decides ticket creation against a department. Support
// users never create tickets. Actors carrying a department are pinned to
// it; actors without one (students and admins registered without a
// department) may file anywhere.
func CanCreateTicket(actor *domain.User, departmentID int64) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupport:
		return false
	default:
		if actor.DepartmentID == nil {
			return true
		}
		return actor.InDepartment(departmentID)
	}
}

// CanViewTicket decides read access. The creator always sees their own
// ticket; support and department staff see their department's tickets;
// admins see everything.
func CanViewTicket(actor *domain.User, ticket *domain.Ticket) bool {
	if actor.Role == domain.RoleAdmin {
		return true
	}
	if ticket.CreatedByID == actor.ID {
		return true
	}
	if actor.Role == domain.RoleSupport || actor.Role == domain.RoleDepartment {
		return actor.InDepartment(ticket.DepartmentID)
	}
	return false
}

// CanEditTicket decides non-status field edits. Support users never edit;
// students edit their own tickets; department managers edit their
// department's; admins edit any. The closed-ticket guard is separate and
// status-based: it applies to every role, admins included.
func CanEditTicket(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupport:
		return false
	case domain.RoleStudent:
		return ticket.CreatedByID == actor.ID
	case domain.RoleDepartment:
		return actor.InDepartment(ticket.DepartmentID)
	}
	return false
}

// CanChangeStatus decides status transitions. Students never change
// status; support users only on tickets assigned to them; department
// managers within their department; admins anywhere.
func CanChangeStatus(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleSupport:
		return ticket.AssignedToID != nil && *ticket.AssignedToID == actor.ID
	case domain.RoleDepartment:
		return actor.InDepartment(ticket.DepartmentID)
	}
	return false
}

// CanAssign decides who may assign a ticket: department managers within
// their department, and admins.
func CanAssign(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDepartment:
		return actor.InDepartment(ticket.DepartmentID)
	}
	return false
}

// CanDeleteTicket decides deletion: admins anywhere, department managers
// within their department, students only their own still-open tickets.
func CanDeleteTicket(actor *domain.User, ticket *domain.Ticket) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDepartment:
		return actor.InDepartment(ticket.DepartmentID)
	case domain.RoleStudent:
		return ticket.CreatedByID == actor.ID && ticket.Status == domain.TicketStatusOpen
	}
	return false
}

// CanComment mirrors view access.
func CanComment(actor *domain.User, ticket *domain.Ticket) bool {
	return CanViewTicket(actor, ticket)
}

// CanViewSupports decides who may list a department's support staff:
// the department's own manager, or an admin.
func CanViewSupports(actor *domain.User, departmentID int64) bool {
	switch actor.Role {
	case domain.RoleAdmin:
		return true
	case domain.RoleDepartment:
		return actor.InDepartment(departmentID)
	}
	return false
}

// CanViewReport mirrors CanViewSupports.
func CanViewReport(actor *domain.User, departmentID int64) bool {
	return CanViewSupports(actor, departmentID)
}

// EligibleAssignee reports whether the candidate may be assigned the
// ticket: a support user in the ticket's department.
func EligibleAssignee(candidate *domain.User, ticket *domain.Ticket) bool {
	return candidate.Role == domain.RoleSupport && candidate.InDepartment(ticket.DepartmentID)
}
