package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
)

type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	List(ctx context.Context, filter ListFilter) ([]*Entry, int64, error)
}

type Service struct {
	repo    Repository
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo Repository, queryTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		timeout: queryTimeout,
		logger:  logger,
	}
}

// RecordAsync writes an entry outside any transaction. Reads are not
// safety-critical, so a failed write is logged locally and never surfaced.
func (s *Service) RecordAsync(ctx context.Context, action string, actorID int64, details string, metadata map[string]any) {
	entry := NewEntry(action, actorID, details, metadata)

	go func() {
		cctx, cancel := internal.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()

		if err := s.repo.Create(cctx, entry); err != nil {
			s.logger.Warn("audit write failed for read action",
				"action", action,
				"actor_id", actorID,
				"error", err)
		}
	}()
}

// List returns audit entries for the admin surface, newest first.
func (s *Service) List(ctx context.Context, actor *authz.Actor, filter ListFilter) ([]*Entry, int64, error) {
	if decision := authz.Authorize(*actor, authz.ActionAuditRead, authz.Resource{}); !decision.Allowed {
		return nil, 0, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.repo.List(cctx, filter)
}
