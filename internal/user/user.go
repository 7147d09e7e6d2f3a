package user

import (
	"time"

	"github.com/frahmantamala/report-management/internal/authz"
)

// User is a staff directory entry. The password hash never leaves the
// persistence layer in API responses.
type User struct {
	ID           int64      `json:"id" gorm:"primaryKey"`
	Name         string     `json:"name" gorm:"not null"`
	Username     string     `json:"username" gorm:"uniqueIndex;not null"`
	Email        string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash string     `json:"-" gorm:"column:password_hash;not null"`
	Role         authz.Role `json:"role" gorm:"type:varchar(16);default:STAFF"`
	DepartmentID *int64     `json:"department_id,omitempty" gorm:"column:department_id"`
	Phone        *string    `json:"phone,omitempty"`
	IsActive     bool       `json:"is_active" gorm:"column:is_active;default:true"`
	LastLogin    *time.Time `json:"last_login,omitempty" gorm:"column:last_login"`
	CreatedAt    time.Time  `json:"created_at" gorm:"column:created_at"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"column:updated_at"`
}

func (User) TableName() string {
	return "users"
}

// ListFilter narrows user listings for the admin surface.
type ListFilter struct {
	Role         *authz.Role
	DepartmentID *int64
	IsActive     *bool
	Search       string
	Limit        int
	Offset       int
}
