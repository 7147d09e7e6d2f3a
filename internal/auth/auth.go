package auth

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/frahmantamala/report-management/internal/authz"
)

type ctxKey string

const ContextActorKey ctxKey = "actor"

// ActorFromContext returns the authenticated actor installed by the auth
// middleware.
func ActorFromContext(ctx context.Context) (*authz.Actor, bool) {
	a, ok := ctx.Value(ContextActorKey).(*authz.Actor)
	return a, ok
}

func ContextWithActor(ctx context.Context, actor *authz.Actor) context.Context {
	return context.WithValue(ctx, ContextActorKey, actor)
}

// Credential is what the repository hands back for a login attempt.
type Credential struct {
	UserID       int64
	PasswordHash string
	IsActive     bool
}

// Account is the re-verified identity behind a validated token: the token
// proving who the caller is and the account still being active are
// independent facts, both checked on every request.
type Account struct {
	Actor    authz.Actor
	IsActive bool
}

type AuthTokens struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Token types carried in the claims. Access and refresh tokens are signed
// with different secrets and are never interchangeable.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims represents JWT token claims.
type Claims struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}

// TokenGenerator creates and validates credential tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, role authz.Role) (string, error)
	GenerateRefreshToken(userID int64, role authz.Role) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

type JWTTokenGenerator struct {
	AccessTokenSecret  []byte
	RefreshTokenSecret []byte
	AccessTokenTTL     time.Duration
	RefreshTokenTTL    time.Duration
}
