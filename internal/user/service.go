package user

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/authz"
)

// Repository defines the persistence surface for user administration.
// DeleteCascade removes the user and every dependent row in one transaction,
// in a fixed order: comments, notifications, audit entries, then the user.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id int64) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	Update(ctx context.Context, u *User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	HasDependentReports(ctx context.Context, id int64) (bool, error)
	DeleteCascade(ctx context.Context, id int64) error
	Stats(ctx context.Context) (*Stats, error)
}

type Service struct {
	repo       Repository
	audit      audit.Recorder
	bcryptCost int
	timeout    time.Duration
	logger     *slog.Logger
}

func NewService(repo Repository, recorder audit.Recorder, bcryptCost int, queryTimeout time.Duration, logger *slog.Logger) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		audit:      recorder,
		bcryptCost: bcryptCost,
		timeout:    queryTimeout,
		logger:     logger,
	}
}

func (s *Service) Create(ctx context.Context, actor *authz.Actor, dto CreateUserDTO) (*User, error) {
	if decision := authz.Authorize(*actor, authz.ActionUserCreate, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return nil, internal.NewInternalError("failed to hash password", err)
	}

	now := time.Now()
	u := &User{
		Name:         dto.Name,
		Username:     dto.Username,
		Email:        dto.Email,
		PasswordHash: string(hash),
		Role:         authz.Role(dto.Role),
		DepartmentID: dto.DepartmentID,
		Phone:        dto.Phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	if err := s.repo.Create(cctx, u); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", u.ID, "role", u.Role, "actor_id", actor.ID)
	s.audit.RecordAsync(ctx, audit.ActionUserCreate, actor.ID, "user created", map[string]any{
		"user_id":  u.ID,
		"username": u.Username,
		"role":     u.Role,
	})

	return u, nil
}

func (s *Service) Get(ctx context.Context, actor *authz.Actor, id int64) (*User, error) {
	if decision := authz.Authorize(*actor, authz.ActionUserRead, authz.Resource{OwnerID: id}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.GetByID(cctx, id)
}

func (s *Service) List(ctx context.Context, actor *authz.Actor, filter ListFilter) (*Page, error) {
	if decision := authz.Authorize(*actor, authz.ActionUserRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	users, total, err := s.repo.List(cctx, filter)
	if err != nil {
		return nil, err
	}
	return &Page{Users: users, Total: total, Limit: filter.Limit, Offset: filter.Offset}, nil
}

func (s *Service) Update(ctx context.Context, actor *authz.Actor, id int64, dto UpdateUserDTO) (*User, error) {
	if decision := authz.Authorize(*actor, authz.ActionUserUpdate, authz.Resource{OwnerID: id}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByID(cctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		u.Name = *dto.Name
	}
	if dto.Email != nil {
		u.Email = *dto.Email
	}
	if dto.Role != nil {
		u.Role = authz.Role(*dto.Role)
	}
	if dto.DepartmentID != nil {
		u.DepartmentID = dto.DepartmentID
	}
	if dto.Phone != nil {
		u.Phone = dto.Phone
	}
	if dto.IsActive != nil {
		u.IsActive = *dto.IsActive
	}
	u.UpdatedAt = time.Now()

	if err := s.repo.Update(cctx, u); err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, audit.ActionUserUpdate, actor.ID, "user updated", map[string]any{
		"user_id": u.ID,
	})

	return u, nil
}

func (s *Service) ResetPassword(ctx context.Context, actor *authz.Actor, id int64, dto ResetPasswordDTO) error {
	if decision := authz.Authorize(*actor, authz.ActionUserResetPassword, authz.Resource{OwnerID: id}); !decision.Allowed {
		return internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.GetByID(cctx, id); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.NewPassword), s.bcryptCost)
	if err != nil {
		return internal.NewInternalError("failed to hash password", err)
	}
	if err := s.repo.UpdatePassword(cctx, id, string(hash)); err != nil {
		return err
	}

	s.logger.Info("password reset", "user_id", id, "actor_id", actor.ID)
	s.audit.RecordAsync(ctx, audit.ActionUserPasswordReset, actor.ID, "password reset", map[string]any{
		"user_id": id,
	})

	return nil
}

// Delete removes a user with no reports left behind. A user who has ever
// submitted a report cannot be deleted; deactivate instead. Self-deletion is
// rejected regardless of role.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id int64) error {
	if decision := authz.Authorize(*actor, authz.ActionUserDelete, authz.Resource{OwnerID: id}); !decision.Allowed {
		return internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if actor.ID == id {
		return internal.NewConflictError("cannot delete your own account", internal.ErrCodeForbidden)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	u, err := s.repo.GetByID(cctx, id)
	if err != nil {
		return err
	}

	dependent, err := s.repo.HasDependentReports(cctx, id)
	if err != nil {
		return err
	}
	if dependent {
		return internal.ErrHasDependentReports
	}

	if err := s.repo.DeleteCascade(cctx, id); err != nil {
		return err
	}

	s.logger.Info("user deleted", "user_id", id, "username", u.Username, "actor_id", actor.ID)
	s.audit.RecordAsync(ctx, audit.ActionUserDelete, actor.ID, "user deleted", map[string]any{
		"user_id":  id,
		"username": u.Username,
	})

	return nil
}

// Overview returns the admin dashboard counters.
func (s *Service) Overview(ctx context.Context, actor *authz.Actor) (*Stats, error) {
	if decision := authz.Authorize(*actor, authz.ActionStatsRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.Stats(cctx)
}
