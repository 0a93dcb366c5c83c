// File: internal/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/shared"
)

// AuthMiddleware validates the bearer access token and stores the caller's
// Principal and claims in the Gin context.
func AuthMiddleware(tokenService shared.TokenService, blocklist shared.TokenBlocklist, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := common.GetTokenFromContext(c)
		if tokenString == "" {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authorization header must be 'Bearer <token>'."))
			return
		}

		claims, err := tokenService.ValidateToken(tokenString)
		if err != nil {
			logger.Debug("Token validation failed", zap.Error(err))
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired token."))
			return
		}
		if claims.Kind != shared.TokenKindAccess {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("An access token is required."))
			return
		}

		if blocklist != nil && claims.ID != "" {
			revoked, err := blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
			if err != nil {
				logger.Error("Blocklist lookup failed", zap.Error(err))
				common.RespondWithError(c, common.ErrServiceUnavailable.WithCause(err))
				return
			}
			if revoked {
				common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Token has been revoked."))
				return
			}
		}

		c.Set(common.PrincipalKey, claims.Principal())
		c.Set(common.ClaimsKey, claims)
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller, if any.
func GetPrincipal(c *gin.Context) (shared.Principal, bool) {
	val, exists := c.Get(common.PrincipalKey)
	if !exists {
		return shared.Principal{}, false
	}
	p, ok := val.(shared.Principal)
	return p, ok
}

// RequirePrincipal is GetPrincipal for handlers behind AuthMiddleware; it
// answers 401 itself when no principal is present.
func RequirePrincipal(c *gin.Context) (shared.Principal, bool) {
	p, ok := GetPrincipal(c)
	if !ok {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Authentication required."))
	}
	return p, ok
}

// GetUserClaimsFromContext retrieves the full claims object from the Gin context.
func GetUserClaimsFromContext(c *gin.Context) *shared.Claims {
	val, exists := c.Get(common.ClaimsKey)
	if !exists {
		return nil
	}
	claims, _ := val.(*shared.Claims)
	return claims
}

// RoleAuthMiddleware rejects callers whose role is not among allowedRoles.
func RoleAuthMiddleware(allowedRoles ...shared.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok {
			common.RespondWithError(c, common.ErrForbidden.WithDetails("User role not found in context."))
			return
		}
		for _, role := range allowedRoles {
			if p.Role == role {
				c.Next()
				return
			}
		}
		common.RespondWithError(c, common.ErrForbidden.WithDetails("You do not have sufficient permissions for this resource."))
	}
}
