package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/frahmantamala/report-management/internal"
	"github.com/frahmantamala/report-management/internal/authz"
)

// Repository is the persistence surface the identity context needs.
type Repository interface {
	GetCredentials(ctx context.Context, username string) (*Credential, error)
	GetAccount(ctx context.Context, userID int64) (*Account, error)
	CreateAccount(ctx context.Context, name, username, email, passwordHash string, role authz.Role) (int64, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type AuditRecorder interface {
	RecordAsync(ctx context.Context, action string, actorID int64, details string, metadata map[string]any)
}

type Service struct {
	repo       Repository
	tokens     TokenGenerator
	audit      AuditRecorder
	bcryptCost int
	logger     *slog.Logger
}

func NewService(repo Repository, tokens TokenGenerator, audit AuditRecorder, bcryptCost int, logger *slog.Logger) *Service {
	return &Service{
		repo:       repo,
		tokens:     tokens,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

func NewJWTTokenGenerator(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *JWTTokenGenerator {
	return &JWTTokenGenerator{
		AccessTokenSecret:  []byte(accessSecret),
		RefreshTokenSecret: []byte(refreshSecret),
		AccessTokenTTL:     accessTTL,
		RefreshTokenTTL:    refreshTTL,
	}
}

// Authenticate validates credentials and returns tokens.
func (s *Service) Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, LoginUser, error) {
	if err := dto.Validate(); err != nil {
		return AuthTokens{}, LoginUser{}, err
	}

	cred, err := s.repo.GetCredentials(ctx, dto.Username)
	if err != nil {
		return AuthTokens{}, LoginUser{}, internal.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(dto.Password)); err != nil {
		return AuthTokens{}, LoginUser{}, internal.ErrInvalidCredentials
	}

	if !cred.IsActive {
		s.logger.Warn("login rejected: inactive account", "user_id", cred.UserID)
		return AuthTokens{}, LoginUser{}, internal.ErrAccountInactive
	}

	account, err := s.repo.GetAccount(ctx, cred.UserID)
	if err != nil {
		return AuthTokens{}, LoginUser{}, internal.NewInternalError("failed to load account", err)
	}

	tokens, err := s.issueTokens(account.Actor.ID, account.Actor.Role)
	if err != nil {
		return AuthTokens{}, LoginUser{}, err
	}

	if err := s.repo.TouchLastLogin(ctx, cred.UserID); err != nil {
		s.logger.Warn("failed to update last login", "error", err, "user_id", cred.UserID)
	}

	s.audit.RecordAsync(ctx, "LOGIN", cred.UserID, fmt.Sprintf("user %s logged in", dto.Username), nil)

	return tokens, LoginUser{ID: account.Actor.ID, Role: string(account.Actor.Role)}, nil
}

// Register creates a new staff or HOD account. Administrative roles are only
// assignable through user administration, never at self-registration.
func (s *Service) Register(ctx context.Context, dto RegisterDTO) (int64, error) {
	if err := dto.Validate(); err != nil {
		return 0, err
	}

	role := authz.RoleStaff
	if dto.Role == "hod" || dto.Role == string(authz.RoleHOD) {
		role = authz.RoleHOD
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
	if err != nil {
		return 0, internal.NewInternalError("failed to hash password", err)
	}

	id, err := s.repo.CreateAccount(ctx, dto.Name, dto.Username, dto.Email, string(hash), role)
	if err != nil {
		return 0, err
	}

	s.logger.Info("account registered", "user_id", id, "role", role)
	return id, nil
}

// RefreshTokens validates a refresh token and issues a new pair.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (AuthTokens, error) {
	claims, err := s.tokens.ValidateToken(refreshToken)
	if err != nil {
		return AuthTokens{}, err
	}
	if claims.TokenType != TokenTypeRefresh {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return AuthTokens{}, internal.ErrInvalidToken
	}
	if !account.IsActive {
		return AuthTokens{}, internal.ErrAccountInactive
	}

	return s.issueTokens(account.Actor.ID, account.Actor.Role)
}

// ResolveActor re-verifies the subject behind a validated token: the user
// must still exist and still be active, independent of token validity.
func (s *Service) ResolveActor(ctx context.Context, tokenString string) (*authz.Actor, error) {
	claims, err := s.tokens.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TokenTypeAccess {
		return nil, internal.ErrInvalidToken
	}

	userID, err := strconv.ParseInt(claims.UserID, 10, 64)
	if err != nil {
		return nil, internal.ErrInvalidToken
	}

	account, err := s.repo.GetAccount(ctx, userID)
	if err != nil {
		return nil, internal.ErrAccountInactive.WithCause(err)
	}
	if !account.IsActive {
		return nil, internal.ErrAccountInactive
	}

	actor := account.Actor
	return &actor, nil
}

func (s *Service) issueTokens(userID int64, role authz.Role) (AuthTokens, error) {
	accessToken, err := s.tokens.GenerateAccessToken(userID, role)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(userID, role)
	if err != nil {
		return AuthTokens{}, internal.NewInternalError("failed to sign refresh token", err)
	}

	return AuthTokens{AccessToken: accessToken, RefreshToken: refreshToken}, nil
}

func (j *JWTTokenGenerator) GenerateAccessToken(userID int64, role authz.Role) (string, error) {
	return j.sign(userID, role, TokenTypeAccess, j.AccessTokenSecret, j.AccessTokenTTL)
}

func (j *JWTTokenGenerator) GenerateRefreshToken(userID int64, role authz.Role) (string, error) {
	return j.sign(userID, role, TokenTypeRefresh, j.RefreshTokenSecret, j.RefreshTokenTTL)
}

func (j *JWTTokenGenerator) sign(userID int64, role authz.Role, tokenType string, secret []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	subject := strconv.FormatInt(userID, 10)

	claims := &Claims{
		UserID:    subject,
		Role:      string(role),
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   subject,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret)
}

// ValidateToken validates a JWT token and returns claims.
func (j *JWTTokenGenerator) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		// The declared token type picks the verification secret; a lying
		// claim just fails the signature check.
		if claims, ok := token.Claims.(*Claims); ok && claims.TokenType == TokenTypeRefresh {
			return j.RefreshTokenSecret, nil
		}
		return j.AccessTokenSecret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, internal.ErrInvalidToken
}
