package settings

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/authz"
)

type Service struct {
	repo    Repository
	audit   audit.Recorder
	timeout time.Duration
	logger  *slog.Logger
}

func NewService(repo Repository, recorder audit.Recorder, queryTimeout time.Duration, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		audit:   recorder,
		timeout: queryTimeout,
		logger:  logger,
	}
}

// List returns every setting keyed by name.
func (s *Service) List(ctx context.Context, actor *authz.Actor) (map[string]*Setting, error) {
	if decision := authz.Authorize(*actor, authz.ActionSettingsRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	all, err := s.repo.List(cctx)
	if err != nil {
		return nil, err
	}

	out := make(map[string]*Setting, len(all))
	for _, setting := range all {
		out[setting.Key] = setting
	}
	return out, nil
}

// Update upserts the named keys. The audit entry carries which keys changed,
// never their values.
func (s *Service) Update(ctx context.Context, actor *authz.Actor, dto UpdateSettingsDTO) error {
	if decision := authz.Authorize(*actor, authz.ActionSettingsUpdate, authz.Resource{}); !decision.Allowed {
		return internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	keys := make([]string, 0, len(dto))
	for key := range dto {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	now := time.Now()
	actorID := actor.ID
	for _, key := range keys {
		value := dto[key]
		setting := &Setting{
			Key:         key,
			Value:       value.Value,
			Description: value.Description,
			UpdatedBy:   &actorID,
			UpdatedAt:   now,
		}
		if err := s.repo.Upsert(cctx, setting); err != nil {
			return err
		}
	}

	s.logger.Info("system settings updated", "actor_id", actor.ID, "keys", keys)
	s.audit.RecordAsync(ctx, audit.ActionSettingsUpdate, actor.ID, "system settings updated", map[string]any{
		"keys": keys,
	})

	return nil
}
