package authz_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/report-management/internal/authz"
)

func TestAuthz(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Authz Suite")
}

func ptr(v int64) *int64 {
	return &v
}

var _ = Describe("Authorize", func() {
	var (
		deptA = ptr(1)
		deptB = ptr(2)

		admin = authz.Actor{ID: 1, Role: authz.RoleAdmin}
		hr    = authz.Actor{ID: 2, Role: authz.RoleHR}
		hod   = authz.Actor{ID: 3, Role: authz.RoleHOD, HeadedDepartmentID: deptA}
		staff = authz.Actor{ID: 4, Role: authz.RoleStaff, DepartmentID: deptA}
	)

	Describe("admin rule", func() {
		It("should allow every action", func() {
			actions := []authz.Action{
				authz.ActionReportCreate,
				authz.ActionReportApprove,
				authz.ActionUserDelete,
				authz.ActionDepartmentDelete,
				authz.ActionAuditRead,
				authz.ActionStatsRead,
			}
			for _, action := range actions {
				decision := authz.Authorize(admin, action, authz.Resource{})
				Expect(decision.Allowed).To(BeTrue(), "admin should be allowed %s", action)
			}
		})
	})

	Describe("HR rule", func() {
		It("should allow user and department administration", func() {
			Expect(authz.Authorize(hr, authz.ActionUserCreate, authz.Resource{}).Allowed).To(BeTrue())
			Expect(authz.Authorize(hr, authz.ActionUserUpdate, authz.Resource{}).Allowed).To(BeTrue())
			Expect(authz.Authorize(hr, authz.ActionUserResetPassword, authz.Resource{}).Allowed).To(BeTrue())
			Expect(authz.Authorize(hr, authz.ActionDepartmentCreate, authz.Resource{}).Allowed).To(BeTrue())
			Expect(authz.Authorize(hr, authz.ActionDepartmentAssignStaff, authz.Resource{}).Allowed).To(BeTrue())
		})

		It("should allow reading reports", func() {
			decision := authz.Authorize(hr, authz.ActionReportRead, authz.Resource{OwnerID: 99, DepartmentID: deptB})
			Expect(decision.Allowed).To(BeTrue())
		})

		It("should never allow deciding on reports", func() {
			for _, action := range []authz.Action{authz.ActionReportApprove, authz.ActionReportReject, authz.ActionReportReview} {
				decision := authz.Authorize(hr, action, authz.Resource{OwnerID: 99, DepartmentID: deptA})
				Expect(decision.Allowed).To(BeFalse())
				Expect(decision.Reason).To(ContainSubstring("HR cannot decide"))
			}
		})

		It("should deny user and department deletes", func() {
			Expect(authz.Authorize(hr, authz.ActionUserDelete, authz.Resource{OwnerID: 99}).Allowed).To(BeFalse())
			Expect(authz.Authorize(hr, authz.ActionDepartmentDelete, authz.Resource{}).Allowed).To(BeFalse())
		})
	})

	Describe("HOD rule", func() {
		It("should allow decisions on reports of the headed department", func() {
			res := authz.Resource{OwnerID: 4, DepartmentID: deptA}
			Expect(authz.Authorize(hod, authz.ActionReportRead, res).Allowed).To(BeTrue())
			Expect(authz.Authorize(hod, authz.ActionReportReview, res).Allowed).To(BeTrue())
			Expect(authz.Authorize(hod, authz.ActionReportApprove, res).Allowed).To(BeTrue())
			Expect(authz.Authorize(hod, authz.ActionReportReject, res).Allowed).To(BeTrue())
			Expect(authz.Authorize(hod, authz.ActionReportComment, res).Allowed).To(BeTrue())
		})

		It("should deny decisions on another department's reports", func() {
			decision := authz.Authorize(hod, authz.ActionReportApprove, authz.Resource{OwnerID: 9, DepartmentID: deptB})
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(ContainSubstring("another department"))
		})

		It("should deny decisions when the report has no department", func() {
			decision := authz.Authorize(hod, authz.ActionReportApprove, authz.Resource{OwnerID: 9})
			Expect(decision.Allowed).To(BeFalse())
		})

		It("should deny decisions for a HOD without a department", func() {
			headless := authz.Actor{ID: 7, Role: authz.RoleHOD}
			decision := authz.Authorize(headless, authz.ActionReportApprove, authz.Resource{OwnerID: 9, DepartmentID: deptA})
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(ContainSubstring("does not head"))
		})

		It("should deny user administration", func() {
			Expect(authz.Authorize(hod, authz.ActionUserCreate, authz.Resource{}).Allowed).To(BeFalse())
			Expect(authz.Authorize(hod, authz.ActionUserDelete, authz.Resource{}).Allowed).To(BeFalse())
		})
	})

	Describe("staff rule", func() {
		It("should allow creating reports and reading own ones", func() {
			Expect(authz.Authorize(staff, authz.ActionReportCreate, authz.Resource{OwnerID: staff.ID}).Allowed).To(BeTrue())
			Expect(authz.Authorize(staff, authz.ActionReportRead, authz.Resource{OwnerID: staff.ID, DepartmentID: deptA}).Allowed).To(BeTrue())
			Expect(authz.Authorize(staff, authz.ActionReportComment, authz.Resource{OwnerID: staff.ID, DepartmentID: deptA}).Allowed).To(BeTrue())
		})

		It("should deny reading another staff member's report", func() {
			decision := authz.Authorize(staff, authz.ActionReportRead, authz.Resource{OwnerID: 99, DepartmentID: deptA})
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(ContainSubstring("another staff member"))
		})

		It("should deny deciding on any report, own included", func() {
			res := authz.Resource{OwnerID: staff.ID, DepartmentID: deptA}
			Expect(authz.Authorize(staff, authz.ActionReportApprove, res).Allowed).To(BeFalse())
			Expect(authz.Authorize(staff, authz.ActionReportReject, res).Allowed).To(BeFalse())
		})
	})

	Describe("default deny", func() {
		It("should deny unknown roles", func() {
			unknown := authz.Actor{ID: 8, Role: authz.Role("AUDITOR")}
			decision := authz.Authorize(unknown, authz.ActionReportRead, authz.Resource{OwnerID: 8})
			Expect(decision.Allowed).To(BeFalse())
			Expect(decision.Reason).To(Equal("unknown role"))
		})
	})

	Describe("determinism", func() {
		It("should yield identical decisions for identical inputs", func() {
			res := authz.Resource{OwnerID: 4, DepartmentID: deptA}
			first := authz.Authorize(hod, authz.ActionReportApprove, res)
			for i := 0; i < 100; i++ {
				Expect(authz.Authorize(hod, authz.ActionReportApprove, res)).To(Equal(first))
			}
		})
	})
})
