package department

import (
	"strings"

	"github.com/frahmantamala/report-management/internal"
)

type CreateDepartmentDTO struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	HeadUserID  *int64  `json:"head_user_id,omitempty"`
}

func (dto CreateDepartmentDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewFieldValidationError("name", "department name is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Name) > 120 {
		return internal.NewFieldValidationError("name", "department name must be at most 120 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateDepartmentDTO uses pointers so absent fields stay untouched. Setting
// DetachHead removes the current head without assigning a new one.
type UpdateDepartmentDTO struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	HeadUserID  *int64  `json:"head_user_id,omitempty"`
	DetachHead  bool    `json:"detach_head,omitempty"`
}

func (dto UpdateDepartmentDTO) Validate() error {
	if dto.Name != nil && strings.TrimSpace(*dto.Name) == "" {
		return internal.NewFieldValidationError("name", "department name cannot be empty", internal.ErrCodeValidationFailed)
	}
	if dto.HeadUserID != nil && dto.DetachHead {
		return internal.NewFieldValidationError("head_user_id", "cannot assign and detach a head in the same request", internal.ErrCodeValidationFailed)
	}
	return nil
}

type AssignStaffDTO struct {
	UserIDs []int64 `json:"user_ids"`
}

func (dto AssignStaffDTO) Validate() error {
	if len(dto.UserIDs) == 0 {
		return internal.NewFieldValidationError("user_ids", "at least one user_id is required", internal.ErrCodeValidationFailed)
	}
	for _, id := range dto.UserIDs {
		if id <= 0 {
			return internal.NewFieldValidationError("user_ids", "user ids must be positive", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}
