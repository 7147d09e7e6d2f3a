package postgres

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/frahmantamala/report-management/internal/settings"
)

type SettingsRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) List(ctx context.Context) ([]*settings.Setting, error) {
	var out []*settings.Setting
	err := r.db.WithContext(ctx).
		Order("key ASC").
		Find(&out).Error
	return out, err
}

func (r *SettingsRepository) Upsert(ctx context.Context, setting *settings.Setting) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "description", "updated_by", "updated_at"}),
		}).
		Create(setting).Error
}
