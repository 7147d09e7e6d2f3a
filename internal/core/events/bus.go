package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Report lifecycle event types carried on the bus.
const (
	TypeReportSubmitted = "report.submitted"
	TypeReportApproved  = "report.approved"
	TypeReportRejected  = "report.rejected"
)

type Event interface {
	EventType() string
	EventID() string
	OccurredAt() time.Time
}

// ReportEvent describes a completed lifecycle transition. It carries only
// already-committed state: consumers never observe a transition that might
// still roll back.
type ReportEvent struct {
	ID           string    `json:"id"`
	Type         string    `json:"type"`
	Timestamp    time.Time `json:"timestamp"`
	ReportID     int64     `json:"report_id"`
	StaffID      int64     `json:"staff_id"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	WeekEnding   time.Time `json:"week_ending"`
	ActorID      int64     `json:"actor_id"`
}

func NewReportEvent(eventType string, reportID, staffID int64, departmentID *int64, weekEnding time.Time, actorID int64) ReportEvent {
	return ReportEvent{
		ID:           uuid.NewString(),
		Type:         eventType,
		Timestamp:    time.Now(),
		ReportID:     reportID,
		StaffID:      staffID,
		DepartmentID: departmentID,
		WeekEnding:   weekEnding,
		ActorID:      actorID,
	}
}

func (e ReportEvent) EventType() string     { return e.Type }
func (e ReportEvent) EventID() string       { return e.ID }
func (e ReportEvent) OccurredAt() time.Time { return e.Timestamp }

type Handler func(ctx context.Context, event Event) error

// Bus is a minimal in-process publish/subscribe fan-out. Asynchronous
// publishing is fire-and-forget: handler failures are logged, never
// propagated to the publisher.
type Bus struct {
	handlers map[string][]Handler
	logger   *slog.Logger
	mu       sync.RWMutex
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger,
	}
}

func (b *Bus) Subscribe(eventType string, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.handlers[eventType] = append(b.handlers[eventType], handler)
	b.logger.Info("event handler registered",
		"event_type", eventType,
		"total_handlers", len(b.handlers[eventType]))
}

func (b *Bus) Publish(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers for event type", "event_type", event.EventType())
		return
	}

	// Handlers outlive the publishing request: net/http cancels the request
	// context as soon as the handler returns, which would abort fan-out and
	// its retries mid-flight.
	ctx = context.WithoutCancel(ctx)

	for _, handler := range handlers {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error("event handler failed",
					"event_type", event.EventType(),
					"event_id", event.EventID(),
					"error", err)
			}
		}(handler)
	}
}

// PublishSync runs all handlers inline and fails on the first handler error.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.EventType()]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			return fmt.Errorf("handler failed for event %s: %w", event.EventType(), err)
		}
	}

	return nil
}
