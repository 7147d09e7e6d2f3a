package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/department"
	"github.com/frahmantamala/report-management/internal/report"
	"github.com/frahmantamala/report-management/internal/user"
)

type DepartmentRepository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *DepartmentRepository {
	return &DepartmentRepository{db: db}
}

func (r *DepartmentRepository) Create(ctx context.Context, dept *department.Department) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkNameUnique(tx, dept.Name, 0); err != nil {
			return err
		}
		if dept.HeadUserID != nil {
			if err := r.checkHeadUnique(tx, *dept.HeadUserID, 0); err != nil {
				return err
			}
		}
		return tx.Create(dept).Error
	})
}

func (r *DepartmentRepository) GetByID(ctx context.Context, id int64) (*department.Department, error) {
	var dept department.Department
	err := r.db.WithContext(ctx).First(&dept, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrDepartmentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &dept, nil
}

func (r *DepartmentRepository) List(ctx context.Context) ([]*department.Department, error) {
	var departments []*department.Department
	err := r.db.WithContext(ctx).Order("name ASC").Find(&departments).Error
	return departments, err
}

func (r *DepartmentRepository) Update(ctx context.Context, dept *department.Department) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := r.checkNameUnique(tx, dept.Name, dept.ID); err != nil {
			return err
		}
		if dept.HeadUserID != nil {
			if err := r.checkHeadUnique(tx, *dept.HeadUserID, dept.ID); err != nil {
				return err
			}
		}
		// Save with a map so a nil head clears the column
		return tx.Model(&department.Department{}).Where("id = ?", dept.ID).Updates(map[string]any{
			"name":         dept.Name,
			"description":  dept.Description,
			"head_user_id": dept.HeadUserID,
			"updated_at":   dept.UpdatedAt,
		}).Error
	})
}

func (r *DepartmentRepository) Delete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&department.Department{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrDepartmentNotFound
	}
	return nil
}

// InUse reports whether any user or report still references the department.
func (r *DepartmentRepository) InUse(ctx context.Context, departmentID int64) (bool, error) {
	var staff int64
	if err := r.db.WithContext(ctx).Model(&user.User{}).
		Where("department_id = ?", departmentID).Count(&staff).Error; err != nil {
		return false, err
	}
	if staff > 0 {
		return true, nil
	}

	var reports int64
	if err := r.db.WithContext(ctx).Model(&report.Report{}).
		Where("department_id = ?", departmentID).Count(&reports).Error; err != nil {
		return false, err
	}
	return reports > 0, nil
}

func (r *DepartmentRepository) RoleOf(ctx context.Context, userID int64) (authz.Role, error) {
	var u user.User
	err := r.db.WithContext(ctx).Select("id", "role").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", internal.ErrUserNotFound
	}
	if err != nil {
		return "", err
	}
	return authz.Role(u.Role), nil
}

func (r *DepartmentRepository) AssignStaff(ctx context.Context, departmentID int64, userIDs []int64) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id IN ?", userIDs).
		Update("department_id", departmentID)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected != int64(len(userIDs)) {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *DepartmentRepository) UnassignStaff(ctx context.Context, departmentID, userID int64) error {
	res := r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ? AND department_id = ?", userID, departmentID).
		Update("department_id", nil)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return internal.ErrUserNotFound
	}
	return nil
}

func (r *DepartmentRepository) DepartmentOf(ctx context.Context, userID int64) (*department.Department, error) {
	var u user.User
	err := r.db.WithContext(ctx).Select("id", "department_id").First(&u, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, internal.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	if u.DepartmentID == nil {
		return nil, internal.ErrDepartmentNotFound
	}
	return r.GetByID(ctx, *u.DepartmentID)
}

func (r *DepartmentRepository) HeadOf(ctx context.Context, departmentID int64) (*int64, error) {
	dept, err := r.GetByID(ctx, departmentID)
	if err != nil {
		return nil, err
	}
	return dept.HeadUserID, nil
}

func (r *DepartmentRepository) StaffOf(ctx context.Context, departmentID int64) ([]department.StaffMember, error) {
	var staff []department.StaffMember
	err := r.db.WithContext(ctx).Model(&user.User{}).
		Select("id", "name", "username", "email", "role", "is_active").
		Where("department_id = ?", departmentID).
		Order("name ASC").
		Find(&staff).Error
	return staff, err
}

func (r *DepartmentRepository) checkNameUnique(tx *gorm.DB, name string, excludeID int64) error {
	var count int64
	query := tx.Model(&department.Department{}).Where("name = ?", name)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrDepartmentExists
	}
	return nil
}

func (r *DepartmentRepository) checkHeadUnique(tx *gorm.DB, headUserID, excludeID int64) error {
	var count int64
	query := tx.Model(&department.Department{}).Where("head_user_id = ?", headUserID)
	if excludeID > 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return internal.ErrHeadAlreadyAssigned
	}
	return nil
}
