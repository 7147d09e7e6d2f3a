package postgres

import (
	"context"
	"errors"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/dashboard"
	"github.com/frahmantamala/report-management/internal/report"
	"github.com/frahmantamala/report-management/internal/user"
)

// DashboardRepository answers analytics queries with GORM aggregates.
// Monthly bucketing happens in Go from the window's rows so the same queries
// run against both the production store and the in-memory test store.
type DashboardRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

func (r *DashboardRepository) scoped(ctx context.Context, scope dashboard.Scope) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("reports.created_at >= ?", scope.Since)
	if scope.StaffID != nil {
		q = q.Where("reports.staff_id = ?", *scope.StaffID)
	}
	if scope.DepartmentID != nil {
		q = q.Where("reports.department_id = ?", *scope.DepartmentID)
	}
	return q
}

func (r *DashboardRepository) CountsByStatus(ctx context.Context, scope dashboard.Scope) ([]dashboard.StatusCount, error) {
	var out []dashboard.StatusCount
	err := r.scoped(ctx, scope).
		Select("reports.status AS status, COUNT(*) AS count").
		Group("reports.status").
		Scan(&out).Error
	return out, err
}

func (r *DashboardRepository) CountsByDepartment(ctx context.Context, scope dashboard.Scope) ([]dashboard.DepartmentCount, error) {
	var out []dashboard.DepartmentCount
	err := r.scoped(ctx, scope).
		Select("reports.department_id AS department_id, departments.name AS department_name, COUNT(*) AS count").
		Joins("JOIN departments ON departments.id = reports.department_id").
		Group("reports.department_id, departments.name").
		Order("count DESC").
		Scan(&out).Error
	return out, err
}

func (r *DashboardRepository) MonthlyTrends(ctx context.Context, scope dashboard.Scope) ([]dashboard.MonthlyTrend, error) {
	var rows []struct {
		CreatedAt time.Time
		Status    report.Status
	}
	err := r.scoped(ctx, scope).
		Select("reports.created_at AS created_at, reports.status AS status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	buckets := make(map[string]*dashboard.MonthlyTrend)
	for _, row := range rows {
		month := row.CreatedAt.Format("2006-01")
		trend, ok := buckets[month]
		if !ok {
			trend = &dashboard.MonthlyTrend{Month: month}
			buckets[month] = trend
		}
		trend.Count++
		switch row.Status {
		case report.StatusApproved:
			trend.Approved++
		case report.StatusRejected:
			trend.Rejected++
		}
	}

	out := make([]dashboard.MonthlyTrend, 0, len(buckets))
	for _, trend := range buckets {
		out = append(out, *trend)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Month < out[j].Month })
	return out, nil
}

func (r *DashboardRepository) TopPerformers(ctx context.Context, scope dashboard.Scope, limit int) ([]dashboard.TopPerformer, error) {
	var out []dashboard.TopPerformer
	err := r.scoped(ctx, scope).
		Select("reports.staff_id AS user_id, users.name AS name, users.username AS username, COUNT(*) AS approved_reports").
		Joins("JOIN users ON users.id = reports.staff_id").
		Where("reports.status = ?", report.StatusApproved).
		Group("reports.staff_id, users.name, users.username").
		Order("approved_reports DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *DashboardRepository) RecentReports(ctx context.Context, scope dashboard.Scope, limit int) ([]dashboard.RecentReport, error) {
	var out []dashboard.RecentReport
	err := r.scoped(ctx, scope).
		Select("reports.id AS id, reports.staff_id AS staff_id, users.name AS staff_name, departments.name AS department_name, reports.status AS status, reports.week_ending AS week_ending, reports.created_at AS created_at").
		Joins("JOIN users ON users.id = reports.staff_id").
		Joins("LEFT JOIN departments ON departments.id = reports.department_id").
		Order("reports.created_at DESC").
		Limit(limit).
		Scan(&out).Error
	return out, err
}

func (r *DashboardRepository) CountUsers(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).Count(&count).Error
	return count, err
}

func (r *DashboardRepository) CountDepartments(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Table("departments").Count(&count).Error
	return count, err
}

func (r *DashboardRepository) DepartmentMetrics(ctx context.Context, since time.Time) ([]dashboard.DepartmentMetrics, error) {
	var metrics []dashboard.DepartmentMetrics
	err := r.db.WithContext(ctx).
		Table("departments").
		Select("departments.id AS id, departments.name AS name, departments.description AS description, departments.head_user_id AS head_user_id").
		Order("departments.name ASC").
		Scan(&metrics).Error
	if err != nil {
		return nil, err
	}

	var staffCounts []struct {
		DepartmentID int64
		Count        int64
	}
	err = r.db.WithContext(ctx).Model(&user.User{}).
		Select("department_id, COUNT(*) AS count").
		Where("department_id IS NOT NULL AND role = ?", authz.RoleStaff).
		Group("department_id").
		Scan(&staffCounts).Error
	if err != nil {
		return nil, err
	}

	var statusCounts []struct {
		DepartmentID int64
		Status       report.Status
		Count        int64
	}
	err = r.db.WithContext(ctx).Model(&report.Report{}).
		Select("department_id, status, COUNT(*) AS count").
		Where("department_id IS NOT NULL AND created_at >= ?", since).
		Group("department_id, status").
		Scan(&statusCounts).Error
	if err != nil {
		return nil, err
	}

	byDept := make(map[int64]*dashboard.DepartmentMetrics, len(metrics))
	for i := range metrics {
		byDept[metrics[i].ID] = &metrics[i]
	}
	for _, sc := range staffCounts {
		if m, ok := byDept[sc.DepartmentID]; ok {
			m.StaffCount = sc.Count
		}
	}
	for _, sc := range statusCounts {
		m, ok := byDept[sc.DepartmentID]
		if !ok {
			continue
		}
		m.TotalReports += sc.Count
		switch sc.Status {
		case report.StatusApproved:
			m.Approved = sc.Count
		case report.StatusRejected:
			m.Rejected = sc.Count
		case report.StatusSubmitted, report.StatusUnderReview:
			m.Pending += sc.Count
		}
	}
	for i := range metrics {
		if metrics[i].TotalReports > 0 {
			metrics[i].ApprovalRate = int(metrics[i].Approved * 100 / metrics[i].TotalReports)
		}
	}

	return metrics, nil
}

func (r *DashboardRepository) ActorActivity(ctx context.Context, userID int64, since time.Time) (*dashboard.ActivitySummary, error) {
	db := r.db.WithContext(ctx)
	out := &dashboard.ActivitySummary{}

	err := db.Model(&report.Report{}).
		Where("staff_id = ? AND created_at >= ?", userID, since).
		Count(&out.ReportsSubmitted).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&report.Report{}).
		Where("staff_id = ? AND status = ? AND approved_at >= ?", userID, report.StatusApproved, since).
		Count(&out.ReportsApproved).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&report.Report{}).
		Where("staff_id = ? AND status = ? AND rejected_at >= ?", userID, report.StatusRejected, since).
		Count(&out.ReportsRejected).Error
	if err != nil {
		return nil, err
	}

	err = db.Model(&report.Comment{}).
		Where("author_id = ? AND created_at >= ?", userID, since).
		Count(&out.CommentsMade).Error
	if err != nil {
		return nil, err
	}

	var last report.Report
	err = db.Where("staff_id = ?", userID).Order("created_at DESC").First(&last).Error
	if err == nil {
		out.LastSubmission = &last.CreatedAt
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	return out, nil
}
