package auth

import (
	"strings"

	"github.com/frahmantamala/report-management/internal"
)

type LoginDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if strings.TrimSpace(dto.Username) == "" {
		return internal.NewFieldValidationError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if dto.Password == "" {
		return internal.NewFieldValidationError("password", "password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RegisterDTO struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

func (dto RegisterDTO) Validate() error {
	if strings.TrimSpace(dto.Name) == "" {
		return internal.NewFieldValidationError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if strings.TrimSpace(dto.Username) == "" {
		return internal.NewFieldValidationError("username", "username is required", internal.ErrCodeValidationFailed)
	}
	if !strings.Contains(dto.Email, "@") {
		return internal.NewFieldValidationError("email", "valid email is required", internal.ErrCodeValidationFailed)
	}
	if len(dto.Password) < 8 {
		return internal.NewFieldValidationError("password", "password must be at least 8 characters", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RefreshTokenDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshTokenDTO) Validate() error {
	if dto.RefreshToken == "" {
		return internal.NewFieldValidationError("refresh_token", "refresh token is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type LoginResponse struct {
	AuthTokens
	User LoginUser `json:"user"`
}

type LoginUser struct {
	ID   int64  `json:"id"`
	Role string `json:"role"`
}
