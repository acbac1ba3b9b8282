package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/service"
)

var _ = Describe("ReportService", func() {
	var (
		ticketRepo     *mockTicketRepo
		userRepo       *mockUserRepo
		departmentRepo *mockDepartmentRepo
		svc            *service.ReportService

		ctx   context.Context
		clock time.Time

		dept    *domain.Department
		mgr     *domain.User
		support *domain.User
	)

	weekStart := time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

	BeforeEach(func() {
		ticketRepo = newMockTicketRepo()
		userRepo = newMockUserRepo()
		departmentRepo = newMockDepartmentRepo()
		ctx = context.Background()
		clock = time.Date(2025, 1, 13, 9, 0, 0, 0, time.UTC)

		svc = service.NewReportService(ticketRepo, userRepo, departmentRepo, func() time.Time { return clock })

		dept = departmentRepo.add(&domain.Department{Name: "Bilgi Islem"})
		mgr = userRepo.add(&domain.User{Email: "manager@campus.edu", Role: domain.RoleDepartment, DepartmentID: &dept.ID, IsActive: true})
		support = userRepo.add(&domain.User{Email: "support@campus.edu", Role: domain.RoleSupport, DepartmentID: &dept.ID, IsActive: true})
	})

	addTicket := func(ticket domain.Ticket) {
		ticket.DepartmentID = dept.ID
		ticket.AssignedToID = &support.ID
		Expect(ticketRepo.Create(ctx, &ticket)).To(Succeed())
	}

	It("forbids non-managers", func() {
		student := userRepo.add(&domain.User{Email: "s@campus.edu", Role: domain.RoleStudent, IsActive: true})

		_, err := svc.BuildReport(ctx, student, dept.ID, nil)
		Expect(errCode(err)).To(Equal("FORBIDDEN"))
	})

	It("forbids managers of other departments", func() {
		other := departmentRepo.add(&domain.Department{Name: "Yapi Isleri"})
		otherMgr := userRepo.add(&domain.User{Email: "m2@campus.edu", Role: domain.RoleDepartment, DepartmentID: &other.ID, IsActive: true})

		_, err := svc.BuildReport(ctx, otherMgr, dept.ID, nil)
		Expect(errCode(err)).To(Equal("FORBIDDEN"))
	})

	It("reports a missing department as not found for admins", func() {
		admin := userRepo.add(&domain.User{Email: "a@campus.edu", Role: domain.RoleAdmin, IsActive: true})

		_, err := svc.BuildReport(ctx, admin, 999, nil)
		Expect(errCode(err)).To(Equal("NOT_FOUND"))
	})

	It("defaults the window to the last seven days", func() {
		report, err := svc.BuildReport(ctx, mgr, dept.ID, nil)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.WeekStart).To(Equal("2025-01-06"))
		Expect(report.WeekEnd).To(Equal("2025-01-13"))
	})

	It("returns nil averages and extremes for a support user with no qualifying tickets", func() {
		report, err := svc.BuildReport(ctx, mgr, dept.ID, &weekStart)
		Expect(err).ToNot(HaveOccurred())
		Expect(report.Supports).To(HaveLen(1))

		row := report.Supports[0]
		Expect(row.SupportUserID).To(Equal(support.ID))
		Expect(row.ClosedThisWeek).To(BeZero())
		Expect(row.OpenAssigned).To(BeZero())
		Expect(row.AverageResponseMinutes).To(BeNil())
		Expect(row.FastestResolutionMinute).To(BeNil())
		Expect(row.SlowestResolutionMinute).To(BeNil())
	})

	It("counts resolutions inside the window and open assignments", func() {
		inWindow := time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC)
		outsideWindow := time.Date(2024, 12, 20, 15, 0, 0, 0, time.UTC)

		addTicket(domain.Ticket{Status: domain.TicketStatusResolved, ResolvedAt: &inWindow, CreatedAt: inWindow.Add(-time.Hour)})
		addTicket(domain.Ticket{Status: domain.TicketStatusClosed, ResolvedAt: &outsideWindow, CreatedAt: outsideWindow.Add(-time.Hour)})
		addTicket(domain.Ticket{Status: domain.TicketStatusInProgress, CreatedAt: inWindow})
		addTicket(domain.Ticket{Status: domain.TicketStatusOpen, CreatedAt: inWindow})

		report, err := svc.BuildReport(ctx, mgr, dept.ID, &weekStart)
		Expect(err).ToNot(HaveOccurred())

		row := report.Supports[0]
		Expect(row.ClosedThisWeek).To(Equal(1))
		Expect(row.OpenAssigned).To(Equal(2))
	})

	It("measures response time from assignment when stamped, else from creation", func() {
		created := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
		assigned := created.Add(30 * time.Minute)
		firstResponse := assigned.Add(20 * time.Minute)

		addTicket(domain.Ticket{
			Status:          domain.TicketStatusInProgress,
			CreatedAt:       created,
			AssignedAt:      &assigned,
			FirstResponseAt: &firstResponse,
		})

		unassignedResponse := created.Add(60 * time.Minute)
		addTicket(domain.Ticket{
			Status:          domain.TicketStatusInProgress,
			CreatedAt:       created,
			FirstResponseAt: &unassignedResponse,
		})

		report, err := svc.BuildReport(ctx, mgr, dept.ID, &weekStart)
		Expect(err).ToNot(HaveOccurred())

		row := report.Supports[0]
		Expect(row.AverageResponseMinutes).ToNot(BeNil())
		Expect(*row.AverageResponseMinutes).To(BeNumerically("~", 40.0, 0.01))
	})

	It("tracks fastest and slowest resolution times", func() {
		created := time.Date(2025, 1, 7, 9, 0, 0, 0, time.UTC)
		fast := created.Add(60 * time.Minute)
		slow := created.Add(240 * time.Minute)

		addTicket(domain.Ticket{Status: domain.TicketStatusResolved, CreatedAt: created, ResolvedAt: &fast})
		addTicket(domain.Ticket{Status: domain.TicketStatusResolved, CreatedAt: created, ResolvedAt: &slow})

		report, err := svc.BuildReport(ctx, mgr, dept.ID, &weekStart)
		Expect(err).ToNot(HaveOccurred())

		row := report.Supports[0]
		Expect(*row.FastestResolutionMinute).To(BeNumerically("~", 60.0, 0.01))
		Expect(*row.SlowestResolutionMinute).To(BeNumerically("~", 240.0, 0.01))
	})
})
