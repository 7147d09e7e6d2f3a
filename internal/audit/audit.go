package audit

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one append-only audit record. Entries are never mutated; the only
// deletion path is the administrative cascade when the actor itself is
// deleted.
type Entry struct {
	ID        int64     `json:"id" gorm:"primaryKey"`
	Action    string    `json:"action" gorm:"not null;index"`
	Details   string    `json:"details"`
	UserID    int64     `json:"user_id" gorm:"column:user_id;not null;index"`
	Metadata  string    `json:"metadata,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;index"`
}

func (Entry) TableName() string {
	return "audit_logs"
}

// Actions recorded by the system.
const (
	ActionLogin             = "LOGIN"
	ActionReportSubmit      = "REPORT_SUBMIT"
	ActionReportReview      = "REPORT_REVIEW"
	ActionReportApprove     = "REPORT_APPROVE"
	ActionReportReject      = "REPORT_REJECT"
	ActionReportView        = "REPORT_VIEW"
	ActionCommentCreate     = "COMMENT_CREATE"
	ActionUserCreate        = "USER_CREATE"
	ActionUserUpdate        = "USER_UPDATE"
	ActionUserDelete        = "USER_DELETE"
	ActionUserPasswordReset = "USER_PASSWORD_RESET"
	ActionDepartmentCreate  = "DEPARTMENT_CREATE"
	ActionDepartmentUpdate  = "DEPARTMENT_UPDATE"
	ActionDepartmentDelete  = "DEPARTMENT_DELETE"
	ActionStaffAssign       = "STAFF_ASSIGN"
	ActionSettingsUpdate    = "SETTINGS_UPDATE"
)

// NewEntry builds an entry with the metadata serialized as JSON. Metadata is
// advisory, a marshal failure leaves it empty rather than failing the action.
func NewEntry(action string, actorID int64, details string, metadata map[string]any) *Entry {
	entry := &Entry{
		Action:    action,
		Details:   details,
		UserID:    actorID,
		CreatedAt: time.Now(),
	}
	if len(metadata) > 0 {
		if raw, err := json.Marshal(metadata); err == nil {
			entry.Metadata = string(raw)
		}
	}
	return entry
}

// Recorder records audit entries outside of transactional units. Writes that
// must commit atomically with a state mutation go through the mutating
// repository instead, inside the same transaction.
type Recorder interface {
	// RecordAsync is best-effort, used for read actions: a failure is logged
	// locally and never surfaced.
	RecordAsync(ctx context.Context, action string, actorID int64, details string, metadata map[string]any)
}

// ListFilter narrows audit log queries for the admin surface.
type ListFilter struct {
	Action   string
	UserID   *int64
	DateFrom *time.Time
	DateTo   *time.Time
	Limit    int
	Offset   int
}
