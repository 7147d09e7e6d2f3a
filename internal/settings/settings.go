package settings

import (
	"context"
	"strings"
	"time"

	"github.com/frahmantamala/report-management/internal"
)

// Setting is one keyed system configuration value, admin-managed at runtime.
type Setting struct {
	ID          int64     `json:"-" gorm:"primaryKey"`
	Key         string    `json:"key" gorm:"uniqueIndex;not null"`
	Value       string    `json:"value" gorm:"not null"`
	Description *string   `json:"description,omitempty"`
	UpdatedBy   *int64    `json:"updated_by,omitempty" gorm:"column:updated_by"`
	UpdatedAt   time.Time `json:"updated_at" gorm:"column:updated_at"`
}

func (Setting) TableName() string {
	return "system_settings"
}

// SettingValue is the write shape for one key in an update request.
type SettingValue struct {
	Value       string  `json:"value"`
	Description *string `json:"description,omitempty"`
}

// UpdateSettingsDTO upserts the named keys; keys absent from the request are
// left untouched.
type UpdateSettingsDTO map[string]SettingValue

const maxKeyLength = 128

func (dto UpdateSettingsDTO) Validate() error {
	if len(dto) == 0 {
		return internal.NewValidationError("no settings to update", internal.ErrCodeValidationFailed)
	}
	for key := range dto {
		if strings.TrimSpace(key) == "" {
			return internal.NewFieldValidationError("key", "setting key is required", internal.ErrCodeValidationFailed)
		}
		if len(key) > maxKeyLength {
			return internal.NewFieldValidationError("key", "setting key is too long", internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

type Repository interface {
	List(ctx context.Context) ([]*Setting, error)
	Upsert(ctx context.Context, setting *Setting) error
}
