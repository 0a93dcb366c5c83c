// File: internal/common/context_keys.go
package common

const (
	// AuthorizationHeader is the header name for authorization token
	AuthorizationHeader = "Authorization"
	// AuthorizationTypeBearer is the prefix for Bearer tokens
	AuthorizationTypeBearer = "Bearer"
	// PrincipalKey is the context key for the authenticated shared.Principal
	PrincipalKey = "principal"
	// ClaimsKey is the context key for the validated token claims
	ClaimsKey = "userClaims"
	// LoggerKey is the context key for the request-scoped zap logger
	LoggerKey = "logger"
)
