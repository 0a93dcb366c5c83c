// File: internal/auth/service.go
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/config"
	"wecare_donations_backend/internal/shared"
)

const tokenIssuer = "wecare_donations_backend"

// JWTService issues and validates HS256 tokens.
type JWTService struct {
	secret        []byte
	accessExpiry  time.Duration
	refreshExpiry time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewJWTService creates a new JWT service.
func NewJWTService(cfg *config.Config, logger *zap.Logger) shared.TokenService {
	return &JWTService{
		secret:        []byte(cfg.JWTSecretKey),
		accessExpiry:  cfg.JWTAccessTokenExpiry,
		refreshExpiry: cfg.JWTRefreshTokenExpiry,
		logger:        logger.Named("jwt"),
		now:           time.Now,
	}
}

func (s *JWTService) GenerateAccessToken(subject shared.TokenSubject) (string, time.Time, error) {
	return s.sign(subject, shared.TokenKindAccess, s.accessExpiry)
}

func (s *JWTService) GenerateRefreshToken(subject shared.TokenSubject) (string, time.Time, error) {
	return s.sign(subject, shared.TokenKindRefresh, s.refreshExpiry)
}

func (s *JWTService) sign(subject shared.TokenSubject, kind string, ttl time.Duration) (string, time.Time, error) {
	now := s.now()
	expirationTime := now.Add(ttl)
	claims := &shared.Claims{
		UserID: subject.GetID(),
		Email:  subject.GetEmail(),
		Role:   subject.GetRole(),
		Kind:   kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expirationTime),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   subject.GetID().String(),
			ID:        uuid.NewString(),
		},
	}

	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		s.logger.Error("Failed to sign token", zap.String("kind", kind), zap.Error(err))
		return "", time.Time{}, fmt.Errorf("could not sign %s token: %w", kind, err)
	}
	return tokenString, expirationTime, nil
}

// ValidateToken verifies signature, algorithm, issuer and expiry and returns the claims.
func (s *JWTService) ValidateToken(tokenString string) (*shared.Claims, error) {
	claims := &shared.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid || claims.UserID == uuid.Nil || !claims.Role.Valid() {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

// ParseRefreshToken validates a token and requires it to be a refresh token.
func (s *JWTService) ParseRefreshToken(refreshTokenString string) (*shared.Claims, error) {
	claims, err := s.ValidateToken(refreshTokenString)
	if err != nil {
		return nil, err
	}
	if claims.Kind != shared.TokenKindRefresh {
		return nil, errors.New("not a refresh token")
	}
	return claims, nil
}
