package service_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/events"
	"github.com/spec-kit/campus-support/internal/service"
	apperrors "github.com/spec-kit/campus-support/pkg/util"
)

func ptr[T any](v T) *T { return &v }

func errCode(err error) string {
	return apperrors.ToDomainError(err).Code
}

var _ = Describe("TicketService", func() {
	var (
		ticketRepo     *mockTicketRepo
		commentRepo    *mockCommentRepo
		departmentRepo *mockDepartmentRepo
		userRepo       *mockUserRepo
		dispatcher     *mockDispatcher
		svc            *service.TicketService

		clock time.Time
		ctx   context.Context

		dept         *domain.Department
		otherDept    *domain.Department
		student      *domain.User
		supportA     *domain.User
		supportB     *domain.User
		deptMgr      *domain.User
		adminUser    *domain.User
		otherStudent *domain.User
	)

	BeforeEach(func() {
		ticketRepo = newMockTicketRepo()
		commentRepo = newMockCommentRepo()
		departmentRepo = newMockDepartmentRepo()
		userRepo = newMockUserRepo()
		dispatcher = &mockDispatcher{}
		clock = time.Date(2025, 1, 10, 10, 0, 0, 0, time.UTC)
		ctx = context.Background()

		svc = service.NewTicketService(service.TicketDependencies{
			TicketRepo:     ticketRepo,
			CommentRepo:    commentRepo,
			DepartmentRepo: departmentRepo,
			UserRepo:       userRepo,
			Dispatcher:     dispatcher,
			Now:            func() time.Time { return clock },
		})

		dept = departmentRepo.add(&domain.Department{Name: "Bilgi Islem"})
		otherDept = departmentRepo.add(&domain.Department{Name: "Yapi Isleri"})
		student = userRepo.add(&domain.User{Email: "student@campus.edu", Role: domain.RoleStudent, IsActive: true})
		otherStudent = userRepo.add(&domain.User{Email: "other@campus.edu", Role: domain.RoleStudent, IsActive: true})
		supportA = userRepo.add(&domain.User{Email: "support-a@campus.edu", Role: domain.RoleSupport, DepartmentID: &dept.ID, IsActive: true})
		supportB = userRepo.add(&domain.User{Email: "support-b@campus.edu", Role: domain.RoleSupport, DepartmentID: &otherDept.ID, IsActive: true})
		deptMgr = userRepo.add(&domain.User{Email: "manager@campus.edu", Role: domain.RoleDepartment, DepartmentID: &dept.ID, IsActive: true})
		adminUser = userRepo.add(&domain.User{Email: "admin@campus.edu", Role: domain.RoleAdmin, IsActive: true})
	})

	createTicket := func(actor *domain.User) *service.TicketDetail {
		detail, err := svc.CreateTicket(ctx, actor, service.TicketCreateInput{
			Title:        "Wifi kopuyor",
			Description:  "Kutuphanede wifi surekli kopuyor",
			DepartmentID: dept.ID,
		})
		Expect(err).ToNot(HaveOccurred())
		return detail
	}

	Describe("CreateTicket", func() {
		It("creates an open ticket with default medium priority", func() {
			detail := createTicket(student)

			Expect(detail.Ticket.Status).To(Equal(domain.TicketStatusOpen))
			Expect(detail.Ticket.Priority).To(Equal(domain.TicketPriorityMedium))
			Expect(detail.Ticket.CreatedByID).To(Equal(student.ID))
			Expect(detail.Department.Name).To(Equal("Bilgi Islem"))
			Expect(detail.CreatorEmail).To(Equal(student.Email))
		})

		It("publishes a ticket_created event", func() {
			detail := createTicket(student)

			created := dispatcher.byType(events.EventTicketCreated)
			Expect(created).To(HaveLen(1))
			Expect(created[0].TicketID).To(Equal(detail.Ticket.ID))
			Expect(created[0].ActorID).To(Equal(student.ID))
		})

		It("rejects an unknown department before any policy check", func() {
			_, err := svc.CreateTicket(ctx, supportA, service.TicketCreateInput{
				Title:        "x",
				Description:  "y",
				DepartmentID: 999,
			})
			Expect(err).To(HaveOccurred())
			Expect(errCode(err)).To(Equal("NOT_FOUND"))
		})

		It("forbids support users from creating tickets", func() {
			_, err := svc.CreateTicket(ctx, supportA, service.TicketCreateInput{
				Title:        "x",
				Description:  "y",
				DepartmentID: dept.ID,
			})
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("pins a department-bound student to their department", func() {
			bound := userRepo.add(&domain.User{Email: "bound@campus.edu", Role: domain.RoleStudent, DepartmentID: &dept.ID, IsActive: true})

			_, err := svc.CreateTicket(ctx, bound, service.TicketCreateInput{
				Title:        "x",
				Description:  "y",
				DepartmentID: otherDept.ID,
			})
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("rejects an unknown priority", func() {
			_, err := svc.CreateTicket(ctx, student, service.TicketCreateInput{
				Title:        "x",
				Description:  "y",
				DepartmentID: dept.ID,
				Priority:     domain.TicketPriority("critical"),
			})
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})
	})

	Describe("GetTicket", func() {
		It("reports a missing ticket as not found even for strangers", func() {
			_, err := svc.GetTicket(ctx, otherStudent, 12345)
			Expect(errCode(err)).To(Equal("NOT_FOUND"))
		})

		It("forbids a stranger from viewing an existing ticket", func() {
			detail := createTicket(student)

			_, err := svc.GetTicket(ctx, otherStudent, detail.Ticket.ID)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("allows department staff to view their department's tickets", func() {
			detail := createTicket(student)

			_, err := svc.GetTicket(ctx, supportA, detail.Ticket.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.GetTicket(ctx, supportB, detail.Ticket.ID)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})
	})

	Describe("UpdateTicket", func() {
		It("applies partial edits and stamps updated_at", func() {
			detail := createTicket(student)
			clock = clock.Add(time.Hour)

			updated, err := svc.UpdateTicket(ctx, student, detail.Ticket.ID, service.TicketUpdateInput{
				Title:    ptr("Wifi tamamen gitti"),
				Priority: ptr(domain.TicketPriorityHigh),
			})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Ticket.Title).To(Equal("Wifi tamamen gitti"))
			Expect(updated.Ticket.Priority).To(Equal(domain.TicketPriorityHigh))
			Expect(updated.Ticket.Description).To(Equal("Kutuphanede wifi surekli kopuyor"))
			Expect(updated.Ticket.UpdatedAt).To(Equal(clock))
		})

		It("treats an empty update as a no-op", func() {
			detail := createTicket(student)
			before := detail.Ticket.UpdatedAt
			clock = clock.Add(time.Hour)

			updated, err := svc.UpdateTicket(ctx, student, detail.Ticket.ID, service.TicketUpdateInput{})
			Expect(err).ToNot(HaveOccurred())
			Expect(updated.Ticket.UpdatedAt).To(Equal(before))
		})

		It("rejects edits on closed tickets for every role including admin", func() {
			detail := createTicket(student)
			_, err := svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusClosed)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.UpdateTicket(ctx, adminUser, detail.Ticket.ID, service.TicketUpdateInput{Title: ptr("late edit")})
			Expect(errCode(err)).To(Equal("INVALID_STATE"))
		})

		It("forbids support users from editing", func() {
			detail := createTicket(student)

			_, err := svc.UpdateTicket(ctx, supportA, detail.Ticket.ID, service.TicketUpdateInput{Title: ptr("nope")})
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})
	})

	Describe("AssignTicket", func() {
		It("assigns an eligible support user and stamps assigned_at", func() {
			detail := createTicket(student)
			clock = clock.Add(time.Hour)

			assigned, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, supportA.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(*assigned.Ticket.AssignedToID).To(Equal(supportA.ID))
			Expect(*assigned.Ticket.AssignedAt).To(Equal(clock))
			Expect(*assigned.AssigneeEmail).To(Equal(supportA.Email))

			Expect(dispatcher.byType(events.EventTicketAssigned)).To(HaveLen(1))
		})

		It("rejects a missing assignee as an invalid assignment", func() {
			detail := createTicket(student)

			_, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, 999)
			Expect(errCode(err)).To(Equal("INVALID_ASSIGNMENT"))
		})

		It("rejects a non-support assignee", func() {
			detail := createTicket(student)

			_, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, otherStudent.ID)
			Expect(errCode(err)).To(Equal("INVALID_ASSIGNMENT"))
		})

		It("rejects a support user from another department", func() {
			detail := createTicket(student)

			_, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, supportB.ID)
			Expect(errCode(err)).To(Equal("INVALID_ASSIGNMENT"))
			Expect(err.Error()).To(ContainSubstring("different department"))
		})

		It("forbids support users from assigning", func() {
			detail := createTicket(student)

			_, err := svc.AssignTicket(ctx, supportA, detail.Ticket.ID, supportA.ID)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})
	})

	Describe("UpdateStatus", func() {
		It("stamps first_response_at on the first in_progress transition only", func() {
			detail := createTicket(student)
			first := clock.Add(time.Hour)
			clock = first

			updated, err := svc.UpdateStatus(ctx, deptMgr, detail.Ticket.ID, domain.TicketStatusInProgress)
			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.Ticket.FirstResponseAt).To(Equal(first))

			clock = clock.Add(time.Hour)
			_, err = svc.UpdateStatus(ctx, deptMgr, detail.Ticket.ID, domain.TicketStatusOpen)
			Expect(err).ToNot(HaveOccurred())
			clock = clock.Add(time.Hour)
			updated, err = svc.UpdateStatus(ctx, deptMgr, detail.Ticket.ID, domain.TicketStatusInProgress)
			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.Ticket.FirstResponseAt).To(Equal(first))
		})

		It("re-stamps closed_at on every close but resolved_at only once", func() {
			detail := createTicket(student)
			firstClose := clock.Add(time.Hour)
			clock = firstClose

			updated, err := svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusClosed)
			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.Ticket.ResolvedAt).To(Equal(firstClose))
			Expect(*updated.Ticket.ClosedAt).To(Equal(firstClose))

			clock = clock.Add(time.Hour)
			_, err = svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusOpen)
			Expect(err).ToNot(HaveOccurred())

			secondClose := clock.Add(time.Hour)
			clock = secondClose
			updated, err = svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusClosed)
			Expect(err).ToNot(HaveOccurred())
			Expect(*updated.Ticket.ResolvedAt).To(Equal(firstClose))
			Expect(*updated.Ticket.ClosedAt).To(Equal(secondClose))
		})

		It("forbids a support user not assigned to the ticket", func() {
			detail := createTicket(student)

			_, err := svc.UpdateStatus(ctx, supportA, detail.Ticket.ID, domain.TicketStatusInProgress)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("allows the assigned support user", func() {
			detail := createTicket(student)
			_, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, supportA.ID)
			Expect(err).ToNot(HaveOccurred())

			_, err = svc.UpdateStatus(ctx, supportA, detail.Ticket.ID, domain.TicketStatusInProgress)
			Expect(err).ToNot(HaveOccurred())
		})

		It("forbids students from changing status", func() {
			detail := createTicket(student)

			_, err := svc.UpdateStatus(ctx, student, detail.Ticket.ID, domain.TicketStatusResolved)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("rejects an unknown status", func() {
			detail := createTicket(student)

			_, err := svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatus("archived"))
			Expect(errCode(err)).To(Equal("VALIDATION_FAILED"))
		})

		It("publishes the old and new status", func() {
			detail := createTicket(student)

			_, err := svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusResolved)
			Expect(err).ToNot(HaveOccurred())

			changed := dispatcher.byType(events.EventTicketStatusChanged)
			Expect(changed).To(HaveLen(1))
			payload := changed[0].Payload.(events.TicketStatusChangedPayload)
			Expect(payload.OldStatus).To(Equal(domain.TicketStatusOpen))
			Expect(payload.NewStatus).To(Equal(domain.TicketStatusResolved))
		})
	})

	Describe("AddComment", func() {
		It("stamps first_response_at when a support user comments", func() {
			detail := createTicket(student)
			_, err := svc.AssignTicket(ctx, deptMgr, detail.Ticket.ID, supportA.ID)
			Expect(err).ToNot(HaveOccurred())

			commentTime := clock.Add(time.Hour)
			clock = commentTime
			_, err = svc.AddComment(ctx, supportA, detail.Ticket.ID, "Sorununuzu inceliyoruz")
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := svc.GetTicket(ctx, supportA, detail.Ticket.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(*refreshed.Ticket.FirstResponseAt).To(Equal(commentTime))
		})

		It("does not stamp first response for student comments", func() {
			detail := createTicket(student)

			_, err := svc.AddComment(ctx, student, detail.Ticket.ID, "Hala kopuyor")
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := svc.GetTicket(ctx, student, detail.Ticket.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Ticket.FirstResponseAt).To(BeNil())
		})

		It("forbids strangers from commenting", func() {
			detail := createTicket(student)

			_, err := svc.AddComment(ctx, otherStudent, detail.Ticket.ID, "ben de")
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})

		It("keeps the thread in the ticket detail", func() {
			detail := createTicket(student)

			_, err := svc.AddComment(ctx, student, detail.Ticket.ID, "ilk mesaj")
			Expect(err).ToNot(HaveOccurred())
			_, err = svc.AddComment(ctx, deptMgr, detail.Ticket.ID, "ikinci mesaj")
			Expect(err).ToNot(HaveOccurred())

			refreshed, err := svc.GetTicket(ctx, student, detail.Ticket.ID)
			Expect(err).ToNot(HaveOccurred())
			Expect(refreshed.Comments).To(HaveLen(2))
			Expect(refreshed.Comments[0].Content).To(Equal("ilk mesaj"))
		})
	})

	Describe("DeleteTicket", func() {
		It("lets a student delete their own open ticket", func() {
			detail := createTicket(student)

			Expect(svc.DeleteTicket(ctx, student, detail.Ticket.ID)).To(Succeed())

			_, err := svc.GetTicket(ctx, student, detail.Ticket.ID)
			Expect(errCode(err)).To(Equal("NOT_FOUND"))
		})

		It("forbids a student from deleting a ticket no longer open", func() {
			detail := createTicket(student)
			_, err := svc.UpdateStatus(ctx, adminUser, detail.Ticket.ID, domain.TicketStatusInProgress)
			Expect(err).ToNot(HaveOccurred())

			err = svc.DeleteTicket(ctx, student, detail.Ticket.ID)
			Expect(errCode(err)).To(Equal("FORBIDDEN"))
		})
	})

	Describe("ListTickets", func() {
		It("scopes students to their own tickets", func() {
			createTicket(student)
			mine, err := svc.CreateTicket(ctx, otherStudent, service.TicketCreateInput{
				Title:        "Projeksiyon bozuk",
				Description:  "Derslikte projeksiyon calismiyor",
				DepartmentID: otherDept.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			listed, err := svc.ListTickets(ctx, otherStudent, service.TicketListFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].Ticket.ID).To(Equal(mine.Ticket.ID))
		})

		It("pins department staff to their department", func() {
			createTicket(student)
			_, err := svc.CreateTicket(ctx, otherStudent, service.TicketCreateInput{
				Title:        "Projeksiyon bozuk",
				Description:  "Derslikte projeksiyon calismiyor",
				DepartmentID: otherDept.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			listed, err := svc.ListTickets(ctx, deptMgr, service.TicketListFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(listed).To(HaveLen(1))
			Expect(listed[0].Ticket.DepartmentID).To(Equal(dept.ID))
		})

		It("lets admins filter by department", func() {
			createTicket(student)
			_, err := svc.CreateTicket(ctx, otherStudent, service.TicketCreateInput{
				Title:        "Projeksiyon bozuk",
				Description:  "Derslikte projeksiyon calismiyor",
				DepartmentID: otherDept.ID,
			})
			Expect(err).ToNot(HaveOccurred())

			all, err := svc.ListTickets(ctx, adminUser, service.TicketListFilter{})
			Expect(err).ToNot(HaveOccurred())
			Expect(all).To(HaveLen(2))

			scoped, err := svc.ListTickets(ctx, adminUser, service.TicketListFilter{DepartmentID: &otherDept.ID})
			Expect(err).ToNot(HaveOccurred())
			Expect(scoped).To(HaveLen(1))
		})
	})
})
