package department

import (
	"context"
	"time"
)

// Department groups staff under an optional head of department. At most one
// department per head, enforced at write time.
type Department struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"uniqueIndex;not null"`
	Description *string   `json:"description,omitempty"`
	HeadUserID  *int64    `json:"head_user_id,omitempty" gorm:"column:head_user_id;uniqueIndex"`
	CreatedAt   time.Time `json:"created_at" gorm:"column:created_at"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Department) TableName() string {
	return "departments"
}

// StaffMember is the directory view of a user inside a department.
type StaffMember struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// Directory resolves staff-to-department and department-to-head associations.
// It is the scoping source for HOD and admin visibility.
type Directory interface {
	DepartmentOf(ctx context.Context, userID int64) (*Department, error)
	HeadOf(ctx context.Context, departmentID int64) (*int64, error)
	StaffOf(ctx context.Context, departmentID int64) ([]StaffMember, error)
}
