package dashboard_test

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/dashboard"
)

func TestDashboard(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Dashboard Suite")
}

func appCode(err error) internal.ErrorCode {
	var appErr *internal.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// mockDashboardRepository records the scope each query ran under so specs can
// assert how the service narrowed it per role.
type mockDashboardRepository struct {
	lastScope        dashboard.Scope
	byStatus         []dashboard.StatusCount
	byDepartment     []dashboard.DepartmentCount
	trends           []dashboard.MonthlyTrend
	performers       []dashboard.TopPerformer
	recent           []dashboard.RecentReport
	users            int64
	departments      int64
	metrics          []dashboard.DepartmentMetrics
	activity         *dashboard.ActivitySummary
	activityUserID   int64
	departmentCalled bool
	performersCalled bool
}

func (m *mockDashboardRepository) CountsByStatus(ctx context.Context, scope dashboard.Scope) ([]dashboard.StatusCount, error) {
	m.lastScope = scope
	return m.byStatus, nil
}

func (m *mockDashboardRepository) CountsByDepartment(ctx context.Context, scope dashboard.Scope) ([]dashboard.DepartmentCount, error) {
	m.departmentCalled = true
	return m.byDepartment, nil
}

func (m *mockDashboardRepository) MonthlyTrends(ctx context.Context, scope dashboard.Scope) ([]dashboard.MonthlyTrend, error) {
	return m.trends, nil
}

func (m *mockDashboardRepository) TopPerformers(ctx context.Context, scope dashboard.Scope, limit int) ([]dashboard.TopPerformer, error) {
	m.performersCalled = true
	if limit < len(m.performers) {
		return m.performers[:limit], nil
	}
	return m.performers, nil
}

func (m *mockDashboardRepository) RecentReports(ctx context.Context, scope dashboard.Scope, limit int) ([]dashboard.RecentReport, error) {
	return m.recent, nil
}

func (m *mockDashboardRepository) CountUsers(ctx context.Context) (int64, error) {
	return m.users, nil
}

func (m *mockDashboardRepository) CountDepartments(ctx context.Context) (int64, error) {
	return m.departments, nil
}

func (m *mockDashboardRepository) DepartmentMetrics(ctx context.Context, since time.Time) ([]dashboard.DepartmentMetrics, error) {
	return m.metrics, nil
}

func (m *mockDashboardRepository) ActorActivity(ctx context.Context, userID int64, since time.Time) (*dashboard.ActivitySummary, error) {
	m.activityUserID = userID
	if m.activity != nil {
		return m.activity, nil
	}
	return &dashboard.ActivitySummary{}, nil
}

var _ = Describe("DashboardService", func() {
	var (
		service *dashboard.Service
		repo    *mockDashboardRepository

		deptID = int64(7)

		admin       = &authz.Actor{ID: 1, Role: authz.RoleAdmin}
		hr          = &authz.Actor{ID: 2, Role: authz.RoleHR}
		staff       = &authz.Actor{ID: 3, Role: authz.RoleStaff}
		head        = &authz.Actor{ID: 4, Role: authz.RoleHOD, HeadedDepartmentID: &deptID}
		idleHead    = &authz.Actor{ID: 5, Role: authz.RoleHOD}
		monthPeriod = dashboard.PeriodMonth
	)

	BeforeEach(func() {
		repo = &mockDashboardRepository{
			byStatus: []dashboard.StatusCount{
				{Status: "SUBMITTED", Count: 2},
				{Status: "APPROVED", Count: 6},
				{Status: "REJECTED", Count: 2},
			},
			users:       42,
			departments: 4,
		}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = dashboard.NewService(repo, time.Second, logger)
	})

	Describe("Analytics", func() {
		It("should scope staff to their own reports and skip cross-staff breakdowns", func() {
			out, err := service.Analytics(context.Background(), staff, monthPeriod, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastScope.StaffID).ToNot(BeNil())
			Expect(*repo.lastScope.StaffID).To(Equal(staff.ID))
			Expect(repo.lastScope.DepartmentID).To(BeNil())
			Expect(repo.departmentCalled).To(BeFalse())
			Expect(repo.performersCalled).To(BeFalse())
			Expect(out.ReportsByDepartment).To(BeEmpty())
			Expect(out.TopPerformers).To(BeEmpty())
		})

		It("should scope a head to the headed department", func() {
			_, err := service.Analytics(context.Background(), head, monthPeriod, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastScope.StaffID).To(BeNil())
			Expect(repo.lastScope.DepartmentID).ToNot(BeNil())
			Expect(*repo.lastScope.DepartmentID).To(Equal(deptID))
			Expect(repo.departmentCalled).To(BeTrue())
		})

		It("should fall back to own reports for a head without a department", func() {
			_, err := service.Analytics(context.Background(), idleHead, monthPeriod, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastScope.StaffID).ToNot(BeNil())
			Expect(*repo.lastScope.StaffID).To(Equal(idleHead.ID))
		})

		It("should honor the department filter for admins", func() {
			filter := int64(11)
			_, err := service.Analytics(context.Background(), admin, monthPeriod, &filter)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.lastScope.DepartmentID).ToNot(BeNil())
			Expect(*repo.lastScope.DepartmentID).To(Equal(filter))
		})

		It("should ignore the department filter for heads", func() {
			filter := int64(11)
			_, err := service.Analytics(context.Background(), head, monthPeriod, &filter)

			Expect(err).ToNot(HaveOccurred())
			Expect(*repo.lastScope.DepartmentID).To(Equal(deptID))
		})

		It("should include user and department totals only for admins", func() {
			adminOut, err := service.Analytics(context.Background(), admin, monthPeriod, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(adminOut.Summary.TotalUsers).ToNot(BeNil())
			Expect(*adminOut.Summary.TotalUsers).To(Equal(int64(42)))
			Expect(*adminOut.Summary.TotalDepartments).To(Equal(int64(4)))

			hrOut, err := service.Analytics(context.Background(), hr, monthPeriod, nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(hrOut.Summary.TotalUsers).To(BeNil())
			Expect(hrOut.Summary.TotalDepartments).To(BeNil())
		})

		It("should compute the summary from the status counts", func() {
			out, err := service.Analytics(context.Background(), hr, monthPeriod, nil)

			Expect(err).ToNot(HaveOccurred())
			Expect(out.Summary.TotalReports).To(Equal(int64(10)))
			Expect(out.Summary.Approved).To(Equal(int64(6)))
			Expect(out.Summary.Rejected).To(Equal(int64(2)))
			Expect(out.Summary.ApprovalRate).To(Equal(60))
		})
	})

	Describe("DepartmentPerformance", func() {
		It("should deny staff", func() {
			_, err := service.DepartmentPerformance(context.Background(), staff, monthPeriod)

			Expect(appCode(err)).To(Equal(internal.ErrCodeForbidden))
		})

		It("should return metrics for heads", func() {
			repo.metrics = []dashboard.DepartmentMetrics{{ID: deptID, Name: "Engineering", TotalReports: 3}}

			out, err := service.DepartmentPerformance(context.Background(), head, monthPeriod)

			Expect(err).ToNot(HaveOccurred())
			Expect(out.Departments).To(HaveLen(1))
			Expect(out.Departments[0].Name).To(Equal("Engineering"))
		})
	})

	Describe("Activity", func() {
		It("should query the actor's own activity", func() {
			repo.activity = &dashboard.ActivitySummary{ReportsSubmitted: 3, CommentsMade: 5}

			out, err := service.Activity(context.Background(), staff, monthPeriod)

			Expect(err).ToNot(HaveOccurred())
			Expect(repo.activityUserID).To(Equal(staff.ID))
			Expect(out.ReportsSubmitted).To(Equal(int64(3)))
			Expect(out.Period).To(Equal(monthPeriod))
		})
	})

	Describe("ParsePeriod", func() {
		It("should default unknown values to the last 30 days", func() {
			Expect(dashboard.ParsePeriod("")).To(Equal(dashboard.PeriodMonth))
			Expect(dashboard.ParsePeriod("2w")).To(Equal(dashboard.PeriodMonth))
			Expect(dashboard.ParsePeriod("1y")).To(Equal(dashboard.PeriodYear))
		})
	})
})
