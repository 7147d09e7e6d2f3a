package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal/core/events"
	"github.com/frahmantamala/report-management/internal/department"
)

const (
	maxEnqueueAttempts = 3
	retryBackoffBase   = 200 * time.Millisecond
)

// Dispatcher derives notifications from committed lifecycle transitions.
// Delivery is best-effort and never affects the transition that triggered
// it: enqueue failures are retried a bounded number of times with backoff,
// then dropped with a warning.
type Dispatcher struct {
	repo      Repository
	directory department.Directory
	logger    *slog.Logger
}

func NewDispatcher(repo Repository, directory department.Directory, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		repo:      repo,
		directory: directory,
		logger:    logger,
	}
}

type Subscriber interface {
	Subscribe(eventType string, handler events.Handler)
}

// Register wires the dispatcher onto the event bus.
func (d *Dispatcher) Register(bus Subscriber) {
	bus.Subscribe(events.TypeReportSubmitted, d.HandleEvent)
	bus.Subscribe(events.TypeReportApproved, d.HandleEvent)
	bus.Subscribe(events.TypeReportRejected, d.HandleEvent)
}

func (d *Dispatcher) HandleEvent(ctx context.Context, event events.Event) error {
	rev, ok := event.(events.ReportEvent)
	if !ok {
		d.logger.Warn("dispatcher received unexpected event payload", "event_type", event.EventType())
		return nil
	}

	week := rev.WeekEnding.Format("2006-01-02")

	switch rev.Type {
	case events.TypeReportSubmitted:
		if rev.DepartmentID == nil {
			d.logger.Debug("submitted report has no department, nobody to notify", "report_id", rev.ReportID)
			return nil
		}
		headID, err := d.directory.HeadOf(ctx, *rev.DepartmentID)
		if err != nil {
			return fmt.Errorf("failed to resolve department head: %w", err)
		}
		if headID == nil {
			d.logger.Debug("department has no head, nobody to notify", "department_id", *rev.DepartmentID)
			return nil
		}
		d.enqueue(ctx, &Notification{
			UserID:  *headID,
			Type:    TypeReportSubmitted,
			Title:   "New report submitted",
			Message: fmt.Sprintf("A report for the week ending %s is awaiting review.", week),
		})

	case events.TypeReportApproved:
		d.enqueue(ctx, &Notification{
			UserID:  rev.StaffID,
			Type:    TypeReportApproved,
			Title:   "Report approved",
			Message: fmt.Sprintf("Your report for the week ending %s has been approved.", week),
		})

	case events.TypeReportRejected:
		d.enqueue(ctx, &Notification{
			UserID:  rev.StaffID,
			Type:    TypeReportRejected,
			Title:   "Report rejected",
			Message: fmt.Sprintf("Your report for the week ending %s has been rejected.", week),
		})
	}

	return nil
}

func (d *Dispatcher) enqueue(ctx context.Context, n *Notification) {
	n.CreatedAt = time.Now()

	var err error
	for attempt := 1; attempt <= maxEnqueueAttempts; attempt++ {
		if err = d.repo.Create(ctx, n); err == nil {
			return
		}
		if attempt < maxEnqueueAttempts {
			time.Sleep(retryBackoffBase * time.Duration(attempt))
		}
	}

	d.logger.Warn("dropping notification after retries",
		"recipient_id", n.UserID,
		"type", n.Type,
		"attempts", maxEnqueueAttempts,
		"error", err)
}
