package dashboard

import (
	"context"
	"log/slog"
	"time"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/report"
)

const (
	topPerformerCount = 5
	recentFeedCount   = 10
)

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

// Analytics assembles the role-scoped dashboard. The departmentID filter is
// honored only for actors who can see across departments; staff and heads
// keep their own scope regardless.
func (s *Service) Analytics(ctx context.Context, actor *authz.Actor, period Period, departmentID *int64) (*Analytics, error) {
	if decision := authz.Authorize(*actor, authz.ActionDashboardRead, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	now := time.Now()
	scope := s.scopeFor(actor, period.Start(now))
	if departmentID != nil && scope.StaffID == nil && scope.DepartmentID == nil {
		scope.DepartmentID = departmentID
	}

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	byStatus, err := s.repo.CountsByStatus(cctx, scope)
	if err != nil {
		return nil, err
	}

	out := &Analytics{
		Summary:         summarize(byStatus),
		ReportsByStatus: byStatus,
		Period:          period,
		GeneratedAt:     now,
	}

	out.MonthlyTrends, err = s.repo.MonthlyTrends(cctx, scope)
	if err != nil {
		return nil, err
	}

	out.RecentActivity, err = s.repo.RecentReports(cctx, scope, recentFeedCount)
	if err != nil {
		return nil, err
	}

	// cross-staff breakdowns are meaningless for a single-staff scope
	if scope.StaffID == nil {
		out.ReportsByDepartment, err = s.repo.CountsByDepartment(cctx, scope)
		if err != nil {
			return nil, err
		}
		out.TopPerformers, err = s.repo.TopPerformers(cctx, scope, topPerformerCount)
		if err != nil {
			return nil, err
		}
	}

	if actor.Role == authz.RoleAdmin {
		users, err := s.repo.CountUsers(cctx)
		if err != nil {
			return nil, err
		}
		departments, err := s.repo.CountDepartments(cctx)
		if err != nil {
			return nil, err
		}
		out.Summary.TotalUsers = &users
		out.Summary.TotalDepartments = &departments
	}

	return out, nil
}

// DepartmentPerformance compares departments across the window. Staff are
// denied; heads, HR and admins see all departments.
func (s *Service) DepartmentPerformance(ctx context.Context, actor *authz.Actor, period Period) (*Performance, error) {
	if decision := authz.Authorize(*actor, authz.ActionDashboardPerformance, authz.Resource{}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	now := time.Now()

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	metrics, err := s.repo.DepartmentMetrics(cctx, period.Start(now))
	if err != nil {
		return nil, err
	}

	return &Performance{
		Departments: metrics,
		Period:      period,
		GeneratedAt: now,
	}, nil
}

// Activity summarizes the actor's own recent throughput.
func (s *Service) Activity(ctx context.Context, actor *authz.Actor, period Period) (*ActivitySummary, error) {
	if decision := authz.Authorize(*actor, authz.ActionDashboardRead, authz.Resource{OwnerID: actor.ID}); !decision.Allowed {
		return nil, internal.ErrForbidden.WithDetails(decision.Reason)
	}

	now := time.Now()

	cctx, cancel := internal.WithTimeout(ctx, s.timeout)
	defer cancel()

	activity, err := s.repo.ActorActivity(cctx, actor.ID, period.Start(now))
	if err != nil {
		return nil, err
	}

	activity.Period = period
	activity.GeneratedAt = now
	return activity, nil
}

func (s *Service) scopeFor(actor *authz.Actor, since time.Time) Scope {
	scope := Scope{Since: since}

	switch actor.Role {
	case authz.RoleStaff:
		id := actor.ID
		scope.StaffID = &id
	case authz.RoleHOD:
		if actor.HeadedDepartmentID != nil {
			scope.DepartmentID = actor.HeadedDepartmentID
		} else {
			// a head without a department sees only their own reports
			id := actor.ID
			scope.StaffID = &id
		}
	}

	return scope
}

func summarize(byStatus []StatusCount) Summary {
	var sum Summary
	for _, sc := range byStatus {
		sum.TotalReports += sc.Count
		switch report.Status(sc.Status) {
		case report.StatusSubmitted:
			sum.Submitted = sc.Count
		case report.StatusUnderReview:
			sum.UnderReview = sc.Count
		case report.StatusApproved:
			sum.Approved = sc.Count
		case report.StatusRejected:
			sum.Rejected = sc.Count
		}
	}
	if sum.TotalReports > 0 {
		sum.ApprovalRate = int(sum.Approved * 100 / sum.TotalReports)
	}
	return sum
}
