package notification

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal"
)

// Service exposes the recipient-scoped notification surface. Every operation
// is keyed by the requesting user, so nobody can read or mutate another
// user's notifications.
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

type Page struct {
	Notifications []*Notification `json:"notifications"`
	Total         int64           `json:"total"`
	UnreadCount   int64           `json:"unread_count"`
	Limit         int             `json:"limit"`
	Offset        int             `json:"offset"`
}

func (s *Service) List(ctx context.Context, userID int64, unreadOnly bool, limit, offset int) (*Page, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, total, err := s.repo.ListByUser(cctx, userID, unreadOnly, limit, offset)
	if err != nil {
		return nil, err
	}

	unread, err := s.repo.CountUnread(cctx, userID)
	if err != nil {
		return nil, err
	}

	return &Page{
		Notifications: items,
		Total:         total,
		UnreadCount:   unread,
		Limit:         limit,
		Offset:        offset,
	}, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.CountUnread(cctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, id, userID int64) error {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.MarkRead(cctx, id, userID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) error {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.MarkAllRead(cctx, userID)
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.Delete(cctx, id, userID)
}
