package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/policy"
	"github.com/spec-kit/campus-support/internal/repository"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

// ReportService aggregates per-support response and resolution statistics
// over a week window. Pure reads, no side effects.
type ReportService struct {
	tickets     repository.TicketRepository
	users       repository.UserRepository
	departments repository.DepartmentRepository
	now         func() time.Time
}

// NewReportService constructs the service.
func NewReportService(tickets repository.TicketRepository, users repository.UserRepository, departments repository.DepartmentRepository, now func() time.Time) *ReportService {
	if now == nil {
		now = time.Now
	}
	return &ReportService{tickets: tickets, users: users, departments: departments, now: now}
}

// SupportReport carries one support user's weekly statistics. Averages and
// extremes are nil, not zero, when no ticket qualifies.
type SupportReport struct {
	SupportUserID           int64    `json:"support_user_id"`
	SupportEmail            string   `json:"support_email"`
	ClosedThisWeek          int      `json:"closed_this_week"`
	OpenAssigned            int      `json:"open_assigned"`
	AverageResponseMinutes  *float64 `json:"average_response_minutes"`
	FastestResolutionMinute *float64 `json:"fastest_resolution_minutes"`
	SlowestResolutionMinute *float64 `json:"slowest_resolution_minutes"`
}

// DepartmentReport is the weekly report for one department.
type DepartmentReport struct {
	DepartmentID int64           `json:"department_id"`
	WeekStart    string          `json:"week_start"`
	WeekEnd      string          `json:"week_end"`
	Supports     []SupportReport `json:"supports"`
}

// BuildReport computes the department's weekly report. weekStart defaults
// to seven days before now.
func (s *ReportService) BuildReport(ctx context.Context, actor *domain.User, departmentID int64, weekStart *time.Time) (*DepartmentReport, error) {
	if _, err := s.departments.GetByID(ctx, departmentID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("department", map[string]any{"department_id": departmentID})
		}
		return nil, apperrors.MapError(err)
	}
	if !policy.CanViewReport(actor, departmentID) {
		return nil, apperrors.NewForbidden("only department managers and admins can view reports")
	}

	start := truncateToDate(s.now().AddDate(0, 0, -7))
	if weekStart != nil {
		start = truncateToDate(*weekStart)
	}
	end := start.AddDate(0, 0, 7)

	supports, err := s.users.ListSupportsByDepartment(ctx, departmentID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	report := &DepartmentReport{
		DepartmentID: departmentID,
		WeekStart:    start.Format("2006-01-02"),
		WeekEnd:      end.Format("2006-01-02"),
		Supports:     []SupportReport{},
	}

	for _, support := range supports {
		tickets, err := s.tickets.ListByAssignee(ctx, support.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		report.Supports = append(report.Supports, buildSupportReport(support, tickets, start, end))
	}
	return report, nil
}

func buildSupportReport(support domain.User, tickets []domain.Ticket, weekStart, weekEnd time.Time) SupportReport {
	item := SupportReport{
		SupportUserID: support.ID,
		SupportEmail:  support.Email,
	}

	var responseTimes, resolutionTimes []float64
	for _, t := range tickets {
		if t.ResolvedAt != nil &&
			(t.Status == domain.TicketStatusResolved || t.Status == domain.TicketStatusClosed) {
			day := truncateToDate(*t.ResolvedAt)
			if !day.Before(weekStart) && day.Before(weekEnd) {
				item.ClosedThisWeek++
			}
		}
		if t.Status == domain.TicketStatusOpen || t.Status == domain.TicketStatusInProgress {
			item.OpenAssigned++
		}

		// Clock starts at assignment, or creation when the ticket was
		// worked without ever being assigned a timestamp.
		startPoint := t.CreatedAt
		if t.AssignedAt != nil {
			startPoint = *t.AssignedAt
		}
		if t.FirstResponseAt != nil {
			responseTimes = append(responseTimes, t.FirstResponseAt.Sub(startPoint).Minutes())
		}
		if t.ResolvedAt != nil {
			resolutionTimes = append(resolutionTimes, t.ResolvedAt.Sub(startPoint).Minutes())
		}
	}

	if len(responseTimes) > 0 {
		sum := 0.0
		for _, v := range responseTimes {
			sum += v
		}
		avg := sum / float64(len(responseTimes))
		item.AverageResponseMinutes = &avg
	}
	if len(resolutionTimes) > 0 {
		fastest, slowest := resolutionTimes[0], resolutionTimes[0]
		for _, v := range resolutionTimes[1:] {
			if v < fastest {
				fastest = v
			}
			if v > slowest {
				slowest = v
			}
		}
		item.FastestResolutionMinute = &fastest
		item.SlowestResolutionMinute = &slowest
	}
	return item
}

func truncateToDate(t time.Time) time.Time {
	year, month, day := t.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
