package shared

import (
	"context"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenResponse represents the response containing JWT tokens.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	TokenType    string    `json:"token_type"`
}

// TokenSubject is the user data needed for token generation.
type TokenSubject interface {
	GetID() uuid.UUID
	GetEmail() string
	GetRole() Role
}

// TokenService defines the interface for JWT operations.
type TokenService interface {
	GenerateAccessToken(subject TokenSubject) (string, time.Time, error)
	GenerateRefreshToken(subject TokenSubject) (string, time.Time, error)
	ValidateToken(tokenString string) (*Claims, error)
	ParseRefreshToken(refreshTokenString string) (*Claims, error)
}

// Token kinds carried in Claims.Kind.
const (
	TokenKindAccess  = "access"
	TokenKindRefresh = "refresh"
)

// Claims represents the JWT claims structure. The jti (RegisteredClaims.ID)
// identifies the token in the logout blocklist.
type Claims struct {
	UserID uuid.UUID `json:"user_id"`
	Email  string    `json:"email"`
	Role   Role      `json:"role"`
	Kind   string    `json:"kind"`
	jwt.RegisteredClaims
}

// Principal returns the caller identity carried by the claims.
func (c *Claims) Principal() Principal {
	return Principal{UserID: c.UserID, Role: c.Role}
}

// TokenBlocklist records revoked token IDs (jti) until the token would have expired.
type TokenBlocklist interface {
	AddToBlocklist(ctx context.Context, jti string, expiresAt time.Time) error
	IsBlocklisted(ctx context.Context, jti string) (bool, error)
}
