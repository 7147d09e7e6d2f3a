package dashboard

import (
	"context"
	"time"
)

// Period is the reporting window for every analytics query.
type Period string

const (
	PeriodWeek    Period = "7d"
	PeriodMonth   Period = "30d"
	PeriodQuarter Period = "90d"
	PeriodYear    Period = "1y"
)

// ParsePeriod maps a query parameter onto a known window, defaulting to the
// last 30 days for anything unrecognized.
func ParsePeriod(raw string) Period {
	switch Period(raw) {
	case PeriodWeek, PeriodMonth, PeriodQuarter, PeriodYear:
		return Period(raw)
	}
	return PeriodMonth
}

func (p Period) Start(now time.Time) time.Time {
	switch p {
	case PeriodWeek:
		return now.AddDate(0, 0, -7)
	case PeriodQuarter:
		return now.AddDate(0, 0, -90)
	case PeriodYear:
		return now.AddDate(-1, 0, 0)
	}
	return now.AddDate(0, 0, -30)
}

// Scope narrows analytics queries to what the actor is allowed to see:
// staff see their own reports, heads their department, admins and HR
// everything.
type Scope struct {
	StaffID      *int64
	DepartmentID *int64
	Since        time.Time
}

type Summary struct {
	TotalReports     int64  `json:"total_reports"`
	Submitted        int64  `json:"submitted"`
	UnderReview      int64  `json:"under_review"`
	Approved         int64  `json:"approved"`
	Rejected         int64  `json:"rejected"`
	ApprovalRate     int    `json:"approval_rate"`
	TotalUsers       *int64 `json:"total_users,omitempty"`
	TotalDepartments *int64 `json:"total_departments,omitempty"`
}

type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

type DepartmentCount struct {
	DepartmentID   int64  `json:"department_id"`
	DepartmentName string `json:"department_name"`
	Count          int64  `json:"count"`
}

type MonthlyTrend struct {
	Month    string `json:"month"`
	Count    int64  `json:"count"`
	Approved int64  `json:"approved"`
	Rejected int64  `json:"rejected"`
}

type TopPerformer struct {
	UserID          int64  `json:"user_id"`
	Name            string `json:"name"`
	Username        string `json:"username"`
	ApprovedReports int64  `json:"approved_reports"`
}

// RecentReport is the activity-feed view of a report.
type RecentReport struct {
	ID             int64     `json:"id"`
	StaffID        int64     `json:"staff_id"`
	StaffName      string    `json:"staff_name"`
	DepartmentName *string   `json:"department_name,omitempty"`
	Status         string    `json:"status"`
	WeekEnding     time.Time `json:"week_ending"`
	CreatedAt      time.Time `json:"created_at"`
}

type Analytics struct {
	Summary             Summary           `json:"summary"`
	ReportsByStatus     []StatusCount     `json:"reports_by_status"`
	ReportsByDepartment []DepartmentCount `json:"reports_by_department,omitempty"`
	MonthlyTrends       []MonthlyTrend    `json:"monthly_trends"`
	TopPerformers       []TopPerformer    `json:"top_performers,omitempty"`
	RecentActivity      []RecentReport    `json:"recent_activity"`
	Period              Period            `json:"period"`
	GeneratedAt         time.Time         `json:"generated_at"`
}

// DepartmentMetrics aggregates one department's throughput for the window.
type DepartmentMetrics struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Description  *string `json:"description,omitempty"`
	HeadUserID   *int64  `json:"head_user_id,omitempty"`
	StaffCount   int64   `json:"staff_count"`
	TotalReports int64   `json:"total_reports"`
	Approved     int64   `json:"approved"`
	Pending      int64   `json:"pending"`
	Rejected     int64   `json:"rejected"`
	ApprovalRate int     `json:"approval_rate"`
}

type Performance struct {
	Departments []DepartmentMetrics `json:"departments"`
	Period      Period              `json:"period"`
	GeneratedAt time.Time           `json:"generated_at"`
}

// ActivitySummary is the actor's own throughput for the window.
type ActivitySummary struct {
	ReportsSubmitted int64      `json:"reports_submitted"`
	ReportsApproved  int64      `json:"reports_approved"`
	ReportsRejected  int64      `json:"reports_rejected"`
	CommentsMade     int64      `json:"comments_made"`
	LastSubmission   *time.Time `json:"last_submission,omitempty"`
	Period           Period     `json:"period"`
	GeneratedAt      time.Time  `json:"generated_at"`
}

type Repository interface {
	CountsByStatus(ctx context.Context, scope Scope) ([]StatusCount, error)
	CountsByDepartment(ctx context.Context, scope Scope) ([]DepartmentCount, error)
	MonthlyTrends(ctx context.Context, scope Scope) ([]MonthlyTrend, error)
	TopPerformers(ctx context.Context, scope Scope, limit int) ([]TopPerformer, error)
	RecentReports(ctx context.Context, scope Scope, limit int) ([]RecentReport, error)
	CountUsers(ctx context.Context) (int64, error)
	CountDepartments(ctx context.Context) (int64, error)
	DepartmentMetrics(ctx context.Context, since time.Time) ([]DepartmentMetrics, error)
	ActorActivity(ctx context.Context, userID int64, since time.Time) (*ActivitySummary, error)
}
