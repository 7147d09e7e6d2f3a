package postgres

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/auth"
	"github.com/frahmantamala/report-management/internal/authz"
	"github.com/frahmantamala/report-management/internal/department"
	"github.com/frahmantamala/report-management/internal/user"
)

// AuthRepository implements auth.Repository using GORM over the users and
// departments tables.
type AuthRepository struct {
	db *gorm.DB
}

func NewAuthRepository(db *gorm.DB) auth.Repository {
	return &AuthRepository{db: db}
}

func (r *AuthRepository) GetCredentials(ctx context.Context, username string) (*auth.Credential, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}
	return &auth.Credential{
		UserID:       u.ID,
		PasswordHash: u.PasswordHash,
		IsActive:     u.IsActive,
	}, nil
}

func (r *AuthRepository) GetAccount(ctx context.Context, userID int64) (*auth.Account, error) {
	var u user.User
	err := r.db.WithContext(ctx).Where("id = ?", userID).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, internal.ErrUserNotFound
		}
		return nil, err
	}

	actor := authz.Actor{
		ID:           u.ID,
		Role:         u.Role,
		DepartmentID: u.DepartmentID,
	}

	if u.Role == authz.RoleHOD {
		var dept department.Department
		err := r.db.WithContext(ctx).Where("head_user_id = ?", u.ID).First(&dept).Error
		switch {
		case err == nil:
			actor.HeadedDepartmentID = &dept.ID
		case errors.Is(err, gorm.ErrRecordNotFound):
			// a HOD without a department heads nothing; the gate denies
			// department-scoped actions
		default:
			return nil, err
		}
	}

	return &auth.Account{Actor: actor, IsActive: u.IsActive}, nil
}

func (r *AuthRepository) CreateAccount(ctx context.Context, name, username, email, passwordHash string, role authz.Role) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&user.User{}).
		Where("username = ? OR email = ?", username, email).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, internal.ErrUserExists
	}

	now := time.Now()
	u := user.User{
		Name:         name,
		Username:     username,
		Email:        email,
		PasswordHash: passwordHash,
		Role:         role,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		return 0, err
	}
	return u.ID, nil
}

func (r *AuthRepository) TouchLastLogin(ctx context.Context, userID int64) error {
	return r.db.WithContext(ctx).Model(&user.User{}).
		Where("id = ?", userID).
		Update("last_login", time.Now()).Error
}
