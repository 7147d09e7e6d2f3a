package user

import (
	"net/mail"
	"strings"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
)

type CreateUserDTO struct {
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	Email        string  `json:"email"`
	Password     string  `json:"password"`
	Role         string  `json:"role"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
}

func (dto CreateUserDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewFieldValidationError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Username) == "" {
		return internal.NewFieldValidationError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if _, err := mail.ParseAddress(dto.Email); err != nil {
		return internal.NewFieldValidationError("email", "valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return internal.NewFieldValidationError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	if !authz.Role(dto.Role).Valid() {
		return internal.NewFieldValidationError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateUserDTO applies only the fields present in the request body.
type UpdateUserDTO struct {
	Name         *string `json:"name,omitempty"`
	Email        *string `json:"email,omitempty"`
	Role         *string `json:"role,omitempty"`
	DepartmentID *int64  `json:"department_id,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

func (dto UpdateUserDTO) Validate() error {
	if dto.Name != nil && strings.TrimSpace(*dto.Name) == "" {
		return internal.NewFieldValidationError("name", "name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.Email != nil {
		if _, err := mail.ParseAddress(*dto.Email); err != nil {
			return internal.NewFieldValidationError("email", "valid email is required", internal.ErrCodeValidationFailed)
		}
	}
	if dto.Role != nil && !authz.Role(*dto.Role).Valid() {
		return internal.NewFieldValidationError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	return nil
}

type ResetPasswordDTO struct {
	NewPassword string `json:"new_password"`
}

func (dto ResetPasswordDTO) Validate() error {
	if len(dto.NewPassword) < 8 {
		return internal.NewFieldValidationError("new_password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// Page is a window of the admin user listing.
type Page struct {
	Users  []*User `json:"users"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// Stats is the admin overview of the whole system.
type Stats struct {
	TotalUsers       int64            `json:"total_users"`
	ActiveUsers      int64            `json:"active_users"`
	TotalReports     int64            `json:"total_reports"`
	TotalDepartments int64            `json:"total_departments"`
	ReportsByStatus  map[string]int64 `json:"reports_by_status"`
	UsersByRole      map[string]int64 `json:"users_by_role"`
}
