package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/audit"
	"github.com/frahmantamala/report-management/internal/department"
	"github.com/frahmantamala/report-management/internal/notification"
	"github.com/frahmantamala/report-management/internal/report"
	"github.com/frahmantamala/report-management/internal/user"
)

type UserRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).
		Where("username = ? OR email = ?", u.Username, u.Email).
		Count(&count).Error
	if err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrUserExists
	}
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*user.User, error) {
	var u user.User
	err := r.db.WithContext(ctx).First(&u, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&user.User{})

	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("name ILIKE ? OR username ILIKE ? OR email ILIKE ?", pattern, pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var users []*user.User
	err := query.Order("created_at DESC").Limit(filter.Limit).Offset(filter.Offset).Find(&users).Error
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	return r.db.WithContext(ctx).Model(&user.User{}).Where("id = ?", u.ID).Updates(map[string]any{
		"name":          u.Name,
		"email":         u.Email,
		"role":          u.Role,
		"department_id": u.DepartmentID,
		"phone":         u.Phone,
		"is_active":     u.IsActive,
		"updated_at":    u.UpdatedAt,
	}).Error
}

func (r *UserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) HasDependentReports(ctx context.Context, id int64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("staff_id = ?", id).
		Count(&count).Error
	return count > 0, err
}

// DeleteCascade removes the user's comments, notifications and audit entries
// before the user row, all in one transaction. FK order matters here.
func (r *UserRepository) DeleteCascade(ctx context.Context, id int64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("author_id = ?", id).Delete(&report.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&notification.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&audit.Entry{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&user.User{}, id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return internal.ErrUserNotFound
		}
		return nil
	})
}

func (r *UserRepository) Stats(ctx context.Context) (*user.Stats, error) {
	stats := &user.Stats{
		ReportsByStatus: map[string]int64{},
		UsersByRole:     map[string]int64{},
	}

	db := r.db.WithContext(ctx)
	if err := db.Model(&user.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&user.User{}).Where("is_active = ?", true).Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&report.Report{}).Count(&stats.TotalReports).Error; err != nil {
		return nil, err
	}
	if err := db.Model(&department.Department{}).Count(&stats.TotalDepartments).Error; err != nil {
		return nil, err
	}

	type bucket struct {
		Key   string
		Count int64
	}

	var byStatus []bucket
	if err := db.Model(&report.Report{}).
		Select("status AS key, COUNT(*) AS count").
		Group("status").
		Scan(&byStatus).Error; err != nil {
		return nil, err
	}
	for _, b := range byStatus {
		stats.ReportsByStatus[b.Key] = b.Count
	}

	var byRole []bucket
	if err := db.Model(&user.User{}).
		Select("role AS key, COUNT(*) AS count").
		Group("role").
		Scan(&byRole).Error; err != nil {
		return nil, err
	}
	for _, b := range byRole {
		stats.UsersByRole[b.Key] = b.Count
	}

	return stats, nil
}
