package department

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/authz"
)

// Repository defines the persistence surface for departments and the staff
// directory. Uniqueness of name and of head assignment are enforced here, at
// write time.
type Repository interface {
	Create(ctx context.Context, dept *Department) error
	GetByID(ctx context.Context, id int64) (*Department, error)
	List(ctx context.Context) ([]*Department, error)
	Update(ctx context.Context, dept *Department) error
	Delete(ctx context.Context, id int64) error
	InUse(ctx context.Context, departmentID int64) (bool, error)
	RoleOf(ctx context.Context, userID int64) (authz.Role, error)
	AssignStaff(ctx context.Context, departmentID int64, userIDs []int64) error
	UnassignStaff(ctx context.Context, departmentID, userID int64) error

	Directory
}

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

// Create adds a department. The head, when given, must hold the HOD role and
// must not already head another department.
func (s *Service) Create(ctx context.Context, actor *authz.Actor, dto CreateDepartmentDTO) (*Department, error) {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentCreate, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if dto.HeadUserID != nil {
		if err := s.checkHead(cctx, *dto.HeadUserID); err != nil {
			return nil, err
		}
	}

	dept := &Department{
		Name:        dto.Name,
		Description: dto.Description,
		HeadUserID:  dto.HeadUserID,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := s.repo.Create(cctx, dept); err != nil {
		return nil, err
	}

	s.logger.Info("department created", "department_id", dept.ID, "name", dept.Name, "actor_id", actor.ID)
	s.audit.RecordAsync(ctx, audit.ActionDepartmentCreate, actor.ID, "department created", map[string]any{
		"department_id": dept.ID,
		"name":          dept.Name,
	})

	return dept, nil
}

func (s *Service) Get(ctx context.Context, actor *authz.Actor, id int64) (*Department, error) {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.GetByID(cctx, id)
}

func (s *Service) List(ctx context.Context, actor *authz.Actor) ([]*Department, error) {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.repo.List(cctx)
}

// Update applies the non-nil fields. Reassigning the head re-runs the same
// role and single-headship checks as Create.
func (s *Service) Update(ctx context.Context, actor *authz.Actor, id int64, dto UpdateDepartmentDTO) (*Department, error) {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentUpdate, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	dept, err := s.repo.GetByID(cctx, id)
	if err != nil {
		return nil, err
	}

	if dto.Name != nil {
		dept.Name = *dto.Name
	}
	if dto.Description != nil {
		dept.Description = dto.Description
	}
	if dto.DetachHead {
		dept.HeadUserID = nil
	} else if dto.HeadUserID != nil {
		if dept.HeadUserID == nil || *dept.HeadUserID != *dto.HeadUserID {
			if err := s.checkHead(cctx, *dto.HeadUserID); err != nil {
				return nil, err
			}
		}
		dept.HeadUserID = dto.HeadUserID
	}
	dept.UpdatedAt = time.Now()

	if err := s.repo.Update(cctx, dept); err != nil {
		return nil, err
	}

	s.audit.RecordAsync(ctx, audit.ActionDepartmentUpdate, actor.ID, "department updated", map[string]any{
		"department_id": dept.ID,
	})

	return dept, nil
}

// Delete removes an empty department. Departments still referenced by staff
// or by reports stay.
func (s *Service) Delete(ctx context.Context, actor *authz.Actor, id int64) error {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentDelete, authz.Resource{}); !decision.Allowed {
		return internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.GetByID(cctx, id); err != nil {
		return err
	}

	inUse, err := s.repo.InUse(cctx, id)
	if err != nil {
		return err
	}
	if inUse {
		return internal.NewConflictError("department still has staff or reports", internal.ErrCodeDepartmentInUse)
	}

	if err := s.repo.Delete(cctx, id); err != nil {
		return err
	}

	s.logger.Info("department deleted", "department_id", id, "actor_id", actor.ID)
	s.audit.RecordAsync(ctx, audit.ActionDepartmentDelete, actor.ID, "department deleted", map[string]any{
		"department_id": id,
	})

	return nil
}

// AssignStaff moves the given users into the department.
func (s *Service) AssignStaff(ctx context.Context, actor *authz.Actor, id int64, dto AssignStaffDTO) error {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentAssignStaff, authz.Resource{}); !decision.Allowed {
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

	if err := s.repo.AssignStaff(cctx, id, dto.UserIDs); err != nil {
		return err
	}

	s.audit.RecordAsync(ctx, audit.ActionStaffAssign, actor.ID, "staff assigned to department", map[string]any{
		"department_id": id,
		"user_ids":      dto.UserIDs,
	})

	return nil
}

// UnassignStaff detaches a user from the department.
func (s *Service) UnassignStaff(ctx context.Context, actor *authz.Actor, id, userID int64) error {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentAssignStaff, authz.Resource{}); !decision.Allowed {
		return internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.repo.UnassignStaff(cctx, id, userID); err != nil {
		return err
	}

	s.audit.RecordAsync(ctx, audit.ActionStaffAssign, actor.ID, "staff unassigned from department", map[string]any{
		"department_id": id,
		"user_id":       userID,
	})

	return nil
}

// Staff lists the directory view of a department's members.
func (s *Service) Staff(ctx context.Context, actor *authz.Actor, id int64) ([]StaffMember, error) {
	if decision := authz.Authorize(*actor, authz.ActionDepartmentRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.repo.GetByID(cctx, id); err != nil {
		return nil, err
	}
	return s.repo.StaffOf(cctx, id)
}

func (s *Service) checkHead(ctx context.Context, headUserID int64) error {
	role, err := s.repo.RoleOf(ctx, headUserID)
	if err != nil {
		return err
	}
	if role != authz.RoleHOD {
		return internal.NewFieldValidationError("head_user_id", "department head must hold the HOD role", internal.ErrCodeValidationFailed)
	}
	return nil
}
