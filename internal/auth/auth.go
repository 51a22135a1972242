package auth

import (
	"context"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/golang-jwt/jwt/v5"
)

// Account is the public view of a user record; the password hash never leaves the store.
type Account struct {
	ID    int64         `json:"id"`
	Email string        `json:"email"`
	Role  internal.Role `json:"role"`
}

// Credentials pairs an account with its stored bcrypt hash.
type Credentials struct {
	Account
	PasswordHash string
}

// CredentialStore persists user records for registration and login.
type CredentialStore interface {
	CreateUser(ctx context.Context, email, passwordHash string, role internal.Role) (*Account, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error)
}

// TokenGenerator issues and verifies signed identity tokens.
type TokenGenerator interface {
	GenerateAccessToken(userID int64, role internal.Role) (token string, claims *Claims, err error)
	ValidateToken(tokenString string) (*Claims, error)
}

// AuthService performs authentication-related business logic.
type AuthService interface {
	Register(ctx context.Context, dto RegisterDTO) (*Account, error)
	Authenticate(ctx context.Context, dto LoginDTO) (AuthTokens, error)
	ValidateAccessToken(ctx context.Context, tokenString string) (*Claims, error)
	Logout(ctx context.Context, tokenString string) error
}

type AuthTokens struct {
	Token     string    `json:"token"`
	TokenType string    `json:"tokenType"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Claims carries the caller id and role; ID (jti) keys revocation.
type Claims struct {
	UserID int64         `json:"userId"`
	Role   internal.Role `json:"role"`
	jwt.RegisteredClaims
}

func (c *Claims) Caller(token string) internal.Caller {
	return internal.Caller{ID: c.UserID, Role: c.Role, Token: token, JTI: c.ID}
}

type JWTTokenGenerator struct {
	Secret         []byte
	AccessTokenTTL time.Duration
	Issuer         string
	now            func() time.Time
}
