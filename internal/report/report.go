package report

import (
	"time"
)

type Status string

const (
	StatusDraft       Status = "DRAFT"
	StatusSubmitted   Status = "SUBMITTED"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusApproved    Status = "APPROVED"
	StatusRejected    Status = "REJECTED"
)

// Report is a periodic PDF report owned by the staff member who submitted
// it. The owner and the department snapshot never change after creation;
// resubmission after rejection is a new row, never a mutation of the old one.
type Report struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	StaffID      int64      `json:"staff_id" gorm:"column:staff_id;not null"`
	DepartmentID *int64     `json:"department_id,omitempty" gorm:"column:department_id"`
	WeekEnding   time.Time  `json:"week_ending" gorm:"column:week_ending;type:date;not null"`
	FileName     string     `json:"file_name" gorm:"column:file_name;not null"`
	FilePath     string     `json:"file_path" gorm:"column:file_path;not null"`
	FileSize     int64      `json:"file_size" gorm:"column:file_size"`
	Status       Status     `json:"status" gorm:"type:varchar(16);default:SUBMITTED"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	ApprovedAt   *time.Time `json:"approved_at,omitempty" gorm:"column:approved_at"`
	RejectedAt   *time.Time `json:"rejected_at,omitempty" gorm:"column:rejected_at"`
}

func (Report) TableName() string {
	return "reports"
}

// IsTerminal reports whether the status admits no further transitions.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// DecisionPredecessors are the statuses from which a report may be approved
// or rejected.
func DecisionPredecessors() []Status {
	return []Status{StatusSubmitted, StatusUnderReview}
}

func (r *Report) CanBeApproved() bool {
	return r.Status == StatusSubmitted || r.Status == StatusUnderReview
}

func (r *Report) CanBeRejected() bool {
	return r.CanBeApproved()
}

// Comment is append-only and attached to exactly one report.
type Comment struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	ReportID  int64     `json:"report_id" gorm:"column:report_id;not null"`
	AuthorID  int64     `json:"author_id" gorm:"column:author_id;not null"`
	Content   string    `json:"content" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at"`
}

func (Comment) TableName() string {
	return "comments"
}
