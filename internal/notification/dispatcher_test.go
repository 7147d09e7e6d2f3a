package notification_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/core/events"
	"github.com/frahmantamala/report-management/internal/department"
	"github.com/frahmantamala/report-management/internal/notification"
)

func TestNotification(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Notification Suite")
}

type mockNotificationRepository struct {
	mu            sync.Mutex
	notifications []*notification.Notification
	createError   error
	failuresLeft  int
	attempts      int
}

func (m *mockNotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts++
	if m.failuresLeft > 0 {
		m.failuresLeft--
		return errors.New("transient write failure")
	}
	if m.createError != nil {
		return m.createError
	}
	n.ID = int64(len(m.notifications) + 1)
	m.notifications = append(m.notifications, n)
	return nil
}

func (m *mockNotificationRepository) ListByUser(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) ([]*notification.Notification, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*notification.Notification
	for _, n := range m.notifications {
		if n.UserID != userID {
			continue
		}
		if unreadOnly && n.IsRead {
			continue
		}
		out = append(out, n)
	}
	return out, int64(len(out)), nil
}

func (m *mockNotificationRepository) CountUnread(ctx context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var count int64
	for _, n := range m.notifications {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			n.IsRead = true
			return nil
		}
	}
	return internal.ErrNotificationNotFound
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.UserID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (m *mockNotificationRepository) Delete(ctx context.Context, id, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifications {
		if n.ID == id && n.UserID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return internal.ErrNotificationNotFound
}

func (m *mockNotificationRepository) stored() []*notification.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*notification.Notification(nil), m.notifications...)
}

type mockDirectory struct {
	heads map[int64]*int64
}

func (m *mockDirectory) DepartmentOf(ctx context.Context, userID int64) (*department.Department, error) {
	return nil, internal.ErrDepartmentNotFound
}

func (m *mockDirectory) HeadOf(ctx context.Context, departmentID int64) (*int64, error) {
	head, ok := m.heads[departmentID]
	if !ok {
		return nil, internal.ErrDepartmentNotFound
	}
	return head, nil
}

func (m *mockDirectory) StaffOf(ctx context.Context, departmentID int64) ([]department.StaffMember, error) {
	return nil, nil
}

var _ = Describe("Dispatcher", func() {
	var (
		dispatcher *notification.Dispatcher
		repo       *mockNotificationRepository
		directory  *mockDirectory

		deptID = int64(1)
		headID = int64(20)
		week   = time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC)
	)

	BeforeEach(func() {
		repo = &mockNotificationRepository{}
		directory = &mockDirectory{heads: map[int64]*int64{deptID: &headID}}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		dispatcher = notification.NewDispatcher(repo, directory, logger)
	})

	Describe("fan-out rules", func() {
		It("should notify the department head on submission", func() {
			event := events.NewReportEvent(events.TypeReportSubmitted, 100, 10, &deptID, week, 10)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			stored := repo.stored()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].UserID).To(Equal(headID))
			Expect(stored[0].Type).To(Equal(notification.TypeReportSubmitted))
			Expect(stored[0].Message).To(ContainSubstring("2025-03-07"))
		})

		It("should notify the owner on approval", func() {
			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			stored := repo.stored()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].UserID).To(Equal(int64(10)))
			Expect(stored[0].Type).To(Equal(notification.TypeReportApproved))
		})

		It("should notify the owner on rejection", func() {
			event := events.NewReportEvent(events.TypeReportRejected, 100, 10, &deptID, week, 20)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			stored := repo.stored()
			Expect(stored).To(HaveLen(1))
			Expect(stored[0].Type).To(Equal(notification.TypeReportRejected))
		})

		It("should notify nobody when the report has no department", func() {
			event := events.NewReportEvent(events.TypeReportSubmitted, 100, 10, nil, week, 10)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.stored()).To(BeEmpty())
		})

		It("should notify nobody when the department has no head", func() {
			directory.heads[deptID] = nil
			event := events.NewReportEvent(events.TypeReportSubmitted, 100, 10, &deptID, week, 10)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.stored()).To(BeEmpty())
		})
	})

	Describe("retry behavior", func() {
		It("should retry transient failures and eventually store", func() {
			repo.failuresLeft = 2
			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)

			err := dispatcher.HandleEvent(context.Background(), event)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.stored()).To(HaveLen(1))
			Expect(repo.attempts).To(Equal(3))
		})

		It("should drop the notification after exhausting retries", func() {
			repo.createError = errors.New("database down")
			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)

			err := dispatcher.HandleEvent(context.Background(), event)

			// delivery is best-effort, the handler never fails the transition
			Expect(err).ToNot(HaveOccurred())
			Expect(repo.stored()).To(BeEmpty())
			Expect(repo.attempts).To(Equal(3))
		})
	})

	Describe("bus wiring", func() {
		It("should receive events published synchronously on the bus", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			bus := events.NewBus(logger)
			dispatcher.Register(bus)

			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)
			Expect(bus.PublishSync(context.Background(), event)).To(Succeed())

			Expect(repo.stored()).To(HaveLen(1))
		})

		It("should deliver even when the publishing request context is cancelled", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			bus := events.NewBus(logger)
			dispatcher.Register(bus)

			// an HTTP request context dies the moment the handler returns
			ctx, cancel := context.WithCancel(context.Background())
			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)
			bus.Publish(ctx, event)
			cancel()

			Eventually(repo.stored).Should(HaveLen(1))
			Expect(repo.stored()[0].UserID).To(Equal(int64(10)))
		})

		It("should keep retrying after the publishing request context is cancelled", func() {
			logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
			bus := events.NewBus(logger)
			dispatcher.Register(bus)
			repo.failuresLeft = 2

			ctx, cancel := context.WithCancel(context.Background())
			event := events.NewReportEvent(events.TypeReportApproved, 100, 10, &deptID, week, 20)
			bus.Publish(ctx, event)
			cancel()

			// retries span the backoff window, well past the request's death
			Eventually(repo.stored, "2s").Should(HaveLen(1))
		})
	})
})
