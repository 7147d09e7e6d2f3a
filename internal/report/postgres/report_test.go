package postgres

import (
	"context"
	"testing"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/report"
)

func TestReportRepository(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "ReportRepository Suite")
}

var _ = Describe("ReportRepository", func() {
	var (
		db   *gorm.DB
		repo report.Repository
		ctx  context.Context
	)

	BeforeEach(func() {
		var err error
		ctx = context.Background()

		db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
		Expect(err).NotTo(HaveOccurred())

		err = db.AutoMigrate(&report.Report{}, &report.Comment{}, &audit.Entry{})
		Expect(err).NotTo(HaveOccurred())

		repo = NewReportRepository(db)
	})

	AfterEach(func() {
		sqlDB, err := db.DB()
		Expect(err).NotTo(HaveOccurred())
		err = sqlDB.Close()
		Expect(err).NotTo(HaveOccurred())
	})

	deptID := int64(1)

	newSubmitted := func(staffID int64) *report.Report {
		rep := &report.Report{
			StaffID:      staffID,
			DepartmentID: &deptID,
			WeekEnding:   time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
			FileName:     "week.pdf",
			FilePath:     "handle.pdf",
			FileSize:     2048,
			Status:       report.StatusSubmitted,
			CreatedAt:    time.Now(),
		}
		entry := audit.NewEntry(audit.ActionReportSubmit, staffID, "report submitted", nil)
		Expect(repo.Create(ctx, rep, entry)).To(Succeed())
		return rep
	}

	Describe("Create", func() {
		It("should persist the report together with its audit entry", func() {
			rep := newSubmitted(10)
			Expect(rep.ID).To(BeNumerically(">", 0))

			var auditCount int64
			Expect(db.Model(&audit.Entry{}).Count(&auditCount).Error).To(Succeed())
			Expect(auditCount).To(Equal(int64(1)))
		})
	})

	Describe("GetByID", func() {
		It("should return ReportNotFound for an unknown id", func() {
			_, err := repo.GetByID(ctx, 999)
			Expect(err).To(MatchError(internal.ErrReportNotFound))
		})
	})

	Describe("Transition", func() {
		It("should approve a submitted report and stamp approved_at only", func() {
			rep := newSubmitted(10)
			now := time.Now()

			updated, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     report.DecisionPredecessors(),
				To:       report.StatusApproved,
				At:       now,
				Audit:    audit.NewEntry(audit.ActionReportApprove, 20, "APPROVED report", nil),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(report.StatusApproved))
			Expect(updated.ApprovedAt).NotTo(BeNil())
			Expect(updated.RejectedAt).To(BeNil())
		})

		It("should reject a report under review and stamp rejected_at only", func() {
			rep := newSubmitted(10)

			_, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     []report.Status{report.StatusSubmitted},
				To:       report.StatusUnderReview,
				At:       time.Now(),
			})
			Expect(err).NotTo(HaveOccurred())

			updated, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     report.DecisionPredecessors(),
				To:       report.StatusRejected,
				At:       time.Now(),
			})

			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Status).To(Equal(report.StatusRejected))
			Expect(updated.RejectedAt).NotTo(BeNil())
			Expect(updated.ApprovedAt).To(BeNil())
		})

		It("should return AlreadyFinalized once the row is terminal", func() {
			rep := newSubmitted(10)

			_, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     report.DecisionPredecessors(),
				To:       report.StatusApproved,
				At:       time.Now(),
			})
			Expect(err).NotTo(HaveOccurred())

			_, err = repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     report.DecisionPredecessors(),
				To:       report.StatusRejected,
				At:       time.Now(),
			})

			Expect(err).To(MatchError(internal.ErrAlreadyFinalized))
		})

		It("should return InvalidTransition when the guard fails on a live row", func() {
			rep := newSubmitted(10)

			_, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     []report.Status{report.StatusUnderReview},
				To:       report.StatusApproved,
				At:       time.Now(),
			})

			Expect(err).To(MatchError(internal.ErrInvalidTransition))
		})

		It("should return ReportNotFound for an unknown report", func() {
			_, err := repo.Transition(ctx, report.Transition{
				ReportID: 999,
				From:     report.DecisionPredecessors(),
				To:       report.StatusApproved,
				At:       time.Now(),
			})

			Expect(err).To(MatchError(internal.ErrReportNotFound))
		})

		It("should commit the audit entry with the transition", func() {
			rep := newSubmitted(10)

			_, err := repo.Transition(ctx, report.Transition{
				ReportID: rep.ID,
				From:     report.DecisionPredecessors(),
				To:       report.StatusApproved,
				At:       time.Now(),
				Audit:    audit.NewEntry(audit.ActionReportApprove, 20, "APPROVED report", map[string]any{"report_id": rep.ID}),
			})
			Expect(err).NotTo(HaveOccurred())

			var entries []audit.Entry
			Expect(db.Where("action = ?", audit.ActionReportApprove).Find(&entries).Error).To(Succeed())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].UserID).To(Equal(int64(20)))
		})
	})

	Describe("listing", func() {
		It("should scope by staff and by department", func() {
			otherDept := int64(2)
			newSubmitted(10)
			newSubmitted(10)
			other := &report.Report{
				StaffID:      11,
				DepartmentID: &otherDept,
				WeekEnding:   time.Date(2025, 3, 7, 0, 0, 0, 0, time.UTC),
				FileName:     "week.pdf",
				FilePath:     "handle2.pdf",
				Status:       report.StatusSubmitted,
				CreatedAt:    time.Now(),
			}
			Expect(repo.Create(ctx, other, nil)).To(Succeed())

			mine, err := repo.ListByStaff(ctx, 10, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(mine).To(HaveLen(2))

			dept, err := repo.ListByDepartment(ctx, otherDept, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dept).To(HaveLen(1))

			all, err := repo.ListAll(ctx, 20, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(all).To(HaveLen(3))
		})
	})

	Describe("comments", func() {
		It("should store and list comments in creation order", func() {
			rep := newSubmitted(10)

			first := &report.Comment{ReportID: rep.ID, AuthorID: 10, Content: "first", CreatedAt: time.Now()}
			second := &report.Comment{ReportID: rep.ID, AuthorID: 20, Content: "second", CreatedAt: time.Now()}
			Expect(repo.CreateComment(ctx, first)).To(Succeed())
			Expect(repo.CreateComment(ctx, second)).To(Succeed())

			comments, err := repo.ListComments(ctx, rep.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(comments).To(HaveLen(2))
			Expect(comments[0].Content).To(Equal("first"))
			Expect(comments[1].Content).To(Equal("second"))
		})
	})
})
