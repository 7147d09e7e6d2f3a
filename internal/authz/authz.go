// Package authz is the single authorization gate for the whole system.
// Every state-changing or scoped read operation asks Authorize before acting,
// so the role policy lives in one pure function instead of being scattered
// across route handlers.
package authz

type Role string

const (
	RoleStaff Role = "STAFF"
	RoleHOD   Role = "HOD"
	RoleAdmin Role = "ADMIN"
	RoleHR    Role = "HR"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStaff, RoleHOD, RoleAdmin, RoleHR:
		return true
	}
	return false
}

type Action string

const (
	ActionReportCreate  Action = "report.create"
	ActionReportRead    Action = "report.read"
	ActionReportList    Action = "report.list"
	ActionReportReview  Action = "report.review"
	ActionReportApprove Action = "report.approve"
	ActionReportReject  Action = "report.reject"
	ActionReportComment Action = "report.comment"

	ActionUserCreate        Action = "user.create"
	ActionUserRead          Action = "user.read"
	ActionUserUpdate        Action = "user.update"
	ActionUserDelete        Action = "user.delete"
	ActionUserResetPassword Action = "user.reset_password"

	ActionDepartmentCreate      Action = "department.create"
	ActionDepartmentRead        Action = "department.read"
	ActionDepartmentUpdate      Action = "department.update"
	ActionDepartmentDelete      Action = "department.delete"
	ActionDepartmentAssignStaff Action = "department.assign_staff"

	ActionAuditRead Action = "audit.read"
	ActionStatsRead Action = "stats.read"

	ActionDashboardRead        Action = "dashboard.read"
	ActionDashboardPerformance Action = "dashboard.performance"

	ActionSettingsRead   Action = "settings.read"
	ActionSettingsUpdate Action = "settings.update"
)

// Actor is the authenticated principal making a request.
type Actor struct {
	ID                 int64
	Role               Role
	DepartmentID       *int64 // owning department for staff
	HeadedDepartmentID *int64 // department this actor heads, when role is HOD
}

// Resource carries the ownership attributes of the entity being acted on.
// For actions without a concrete target (create, list) the zero value is fine.
type Resource struct {
	OwnerID      int64
	DepartmentID *int64
}

type Decision struct {
	Allowed bool
	Reason  string
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason string) Decision {
	return Decision{Allowed: false, Reason: reason}
}

// Authorize evaluates the role policy. Rules are ordered, first match wins:
//  1. ADMIN may perform any action.
//  2. HR may perform user and department administration (not deletes) and
//     read reports, but may never approve or reject.
//  3. HOD may read, review, approve, reject and comment on reports of the
//     department they head, and read staff and departments.
//  4. STAFF may create reports and read or comment on their own.
//  5. Everything else is denied.
//
// The function is pure: no I/O, no clock, identical inputs always yield the
// identical decision.
func Authorize(actor Actor, action Action, res Resource) Decision {
	if actor.Role == RoleAdmin {
		return allow()
	}

	if actor.Role == RoleHR {
		return authorizeHR(action)
	}

	if actor.Role == RoleHOD {
		return authorizeHOD(actor, action, res)
	}

	if actor.Role == RoleStaff {
		return authorizeStaff(actor, action, res)
	}

	return deny("unknown role")
}

func authorizeHR(action Action) Decision {
	switch action {
	case ActionReportApprove, ActionReportReject, ActionReportReview:
		return deny("HR cannot decide on reports")
	case ActionUserCreate, ActionUserRead, ActionUserUpdate, ActionUserResetPassword:
		return allow()
	case ActionDepartmentCreate, ActionDepartmentRead, ActionDepartmentUpdate, ActionDepartmentAssignStaff:
		return allow()
	case ActionReportRead, ActionReportList:
		return allow()
	case ActionDashboardRead, ActionDashboardPerformance:
		return allow()
	}
	return deny("action not permitted for HR")
}

func authorizeHOD(actor Actor, action Action, res Resource) Decision {
	switch action {
	case ActionReportList, ActionDepartmentRead, ActionUserRead,
		ActionDashboardRead, ActionDashboardPerformance:
		// listing, directory and analytics reads are scoped to the headed
		// department by the querying service
		return allow()
	case ActionReportRead, ActionReportReview, ActionReportApprove, ActionReportReject, ActionReportComment:
		if actor.HeadedDepartmentID == nil {
			return deny("HOD does not head a department")
		}
		if res.DepartmentID == nil || *res.DepartmentID != *actor.HeadedDepartmentID {
			return deny("report belongs to another department")
		}
		return allow()
	}
	return deny("action not permitted for HOD")
}

func authorizeStaff(actor Actor, action Action, res Resource) Decision {
	switch action {
	case ActionReportCreate, ActionReportList, ActionDepartmentRead:
		return allow()
	case ActionDashboardRead:
		// scoped to the actor's own reports by the querying service
		return allow()
	case ActionDashboardPerformance:
		return deny("staff cannot view department performance")
	case ActionReportRead, ActionReportComment:
		if res.OwnerID != actor.ID {
			return deny("report belongs to another staff member")
		}
		return allow()
	case ActionReportApprove, ActionReportReject, ActionReportReview:
		return deny("staff cannot decide on reports")
	}
	return deny("action not permitted for staff")
}
