package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/spec-kit/campus-support/internal/domain"
	"github.com/spec-kit/campus-support/internal/events"
	"github.com/spec-kit/campus-support/internal/service"
)

var _ = Describe("NotificationService", func() {
	var (
		ticketRepo *mockTicketRepo
		dispatcher events.Dispatcher
		received   chan map[string]any
		server     *httptest.Server
		ticket     *domain.Ticket
		ctx        context.Context
	)

	BeforeEach(func() {
		ticketRepo = newMockTicketRepo()
		dispatcher = events.NewInMemoryDispatcher()
		received = make(chan map[string]any, 1)
		ctx = context.Background()

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var payload map[string]any
			Expect(json.NewDecoder(r.Body).Decode(&payload)).To(Succeed())
			received <- payload
			w.WriteHeader(http.StatusOK)
		}))
		DeferCleanup(server.Close)

		ticket = &domain.Ticket{
			Title:       "Wifi kopuyor",
			Description: "Kutuphanede wifi kopuyor",
			Status:      domain.TicketStatusResolved,
		}
		Expect(ticketRepo.Create(ctx, ticket)).To(Succeed())

		svc := service.NewNotificationService(ticketRepo, server.URL, zap.NewNop())
		svc.RegisterSubscribers(dispatcher)
	})

	statusEvent := func(newStatus domain.TicketStatus) events.Event {
		return events.Event{
			ID:        "evt-1",
			Type:      events.EventTicketStatusChanged,
			TicketID:  ticket.ID,
			Timestamp: time.Now(),
			Payload: events.TicketStatusChangedPayload{
				OldStatus: domain.TicketStatusInProgress,
				NewStatus: newStatus,
			},
		}
	}

	It("posts a notice when a ticket is resolved", func() {
		Expect(dispatcher.Publish(ctx, statusEvent(domain.TicketStatusResolved))).To(Succeed())

		var payload map[string]any
		Eventually(received).Should(Receive(&payload))
		Expect(payload["ticket_id"]).To(BeNumerically("==", ticket.ID))
		Expect(payload["title"]).To(Equal("Wifi kopuyor"))
		Expect(payload["status"]).To(Equal("resolved"))
	})

	It("ignores transitions to other statuses", func() {
		Expect(dispatcher.Publish(ctx, statusEvent(domain.TicketStatusClosed))).To(Succeed())
		Consistently(received, 100*time.Millisecond).ShouldNot(Receive())
	})

	It("swallows delivery failures", func() {
		svc := service.NewNotificationService(ticketRepo, "http://127.0.0.1:1", zap.NewNop())
		failing := events.NewInMemoryDispatcher()
		svc.RegisterSubscribers(failing)

		Expect(failing.Publish(ctx, statusEvent(domain.TicketStatusResolved))).To(Succeed())
	})

	It("does nothing when no webhook is configured", func() {
		svc := service.NewNotificationService(ticketRepo, "", zap.NewNop())
		quiet := events.NewInMemoryDispatcher()
		svc.RegisterSubscribers(quiet)

		Expect(quiet.Publish(ctx, statusEvent(domain.TicketStatusResolved))).To(Succeed())
		Consistently(received, 100*time.Millisecond).ShouldNot(Receive())
	})
})
