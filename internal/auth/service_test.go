package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/shared"
)

type subject struct {
	id    uuid.UUID
	email string
	role  shared.Role
}

func (s subject) GetID() uuid.UUID     { return s.id }
func (s subject) GetEmail() string     { return s.email }
func (s subject) GetRole() shared.Role { return s.role }

func newTestJWTService(secret string) *JWTService {
	cfg := &config.Config{
		JWTSecretKey:          secret,
		JWTAccessTokenExpiry:  15 * time.Minute,
		JWTRefreshTokenExpiry: 24 * time.Hour,
	}
	return NewJWTService(cfg, zap.NewNop()).(*JWTService)
}

func TestJWTService_AccessTokenRoundTrip(t *testing.T) {
	svc := newTestJWTService("secret")
	sub := subject{id: uuid.New(), email: "r@example.com", role: shared.RoleReceiver}

	token, exp, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), exp, 5*time.Second)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, sub.id, claims.UserID)
	assert.Equal(t, sub.email, claims.Email)
	assert.Equal(t, shared.RoleReceiver, claims.Role)
	assert.Equal(t, shared.TokenKindAccess, claims.Kind)
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, shared.Principal{UserID: sub.id, Role: shared.RoleReceiver}, claims.Principal())
}

func TestJWTService_RefreshTokenKind(t *testing.T) {
	svc := newTestJWTService("secret")
	sub := subject{id: uuid.New(), email: "d@example.com", role: shared.RoleDonor}

	access, _, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)
	refresh, _, err := svc.GenerateRefreshToken(sub)
	require.NoError(t, err)

	claims, err := svc.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, shared.TokenKindRefresh, claims.Kind)

	_, err = svc.ParseRefreshToken(access)
	assert.Error(t, err)
}

func TestJWTService_RejectsForeignAndExpiredTokens(t *testing.T) {
	svc := newTestJWTService("secret")
	sub := subject{id: uuid.New(), email: "d@example.com", role: shared.RoleDonor}

	other := newTestJWTService("another-secret")
	foreign, _, err := other.GenerateAccessToken(sub)
	require.NoError(t, err)
	_, err = svc.ValidateToken(foreign)
	assert.Error(t, err, "signature from another key")

	past := time.Now().Add(-time.Hour)
	svc.now = func() time.Time { return past }
	expired, _, err := svc.GenerateAccessToken(sub)
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(expired)
	assert.Error(t, err)

	_, err = svc.ValidateToken("not-a-jwt")
	assert.Error(t, err)
}

func TestJWTService_RejectsOtherAlgorithmsAndBadClaims(t *testing.T) {
	svc := newTestJWTService("secret")

	claims := &shared.Claims{
		UserID: uuid.New(),
		Role:   shared.RoleDonor,
		Kind:   shared.TokenKindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    tokenIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(hs512)
	assert.Error(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": uuid.NewString(),
		"role":    "superuser",
		"kind":    shared.TokenKindAccess,
		"iss":     tokenIssuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(badRole)
	assert.Error(t, err)

	claims.Issuer = "someone-else"
	wrongIssuer, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	_, err = svc.ValidateToken(wrongIssuer)
	assert.Error(t, err)
}
