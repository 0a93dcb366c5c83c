// File: internal/auth/handler.go
package auth

import (
	"errors"
	"io"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/middleware"
	"wecare_donations_backend/internal/shared"
	"wecare_donations_backend/internal/user"
)

// Handler struct holds dependencies for auth handlers.
type Handler struct {
	userService  user.Service
	tokenService shared.TokenService
	blocklist    shared.TokenBlocklist
	logger       *zap.Logger
}

// NewHandler creates a new auth handler.
func NewHandler(
	userService user.Service,
	tokenService shared.TokenService,
	blocklist shared.TokenBlocklist,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		userService:  userService,
		tokenService: tokenService,
		blocklist:    blocklist,
		logger:       logger.Named("auth_handler"),
	}
}

// RegisterRoutes sets up the routes for authentication operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", h.register)
		authGroup.POST("/login", h.login)
		authGroup.POST("/refresh", h.refreshToken)
		authGroup.POST("/logout", authMW, h.logout)
	}
}

// bindJSON binds the body and answers the validation error itself.
func (h *Handler) bindJSON(c *gin.Context, dst interface{}, op string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.logger.Debug(op+": invalid request body", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return false
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Malformed JSON body."))
		return false
	}
	return true
}

func (h *Handler) register(c *gin.Context) {
	var req user.CreateUserRequest
	if !h.bindJSON(c, &req, "Register") {
		return
	}
	usr, tokenResponse, err := h.userService.Register(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "User registered successfully.", user.AuthResponse{
		User:  user.ToUserResponse(usr, h.userService.AvatarURL),
		Token: tokenResponse,
	})
}

func (h *Handler) login(c *gin.Context) {
	var req LoginRequest
	if !h.bindJSON(c, &req, "Login") {
		return
	}
	usr, tokenResponse, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Login successful.", user.AuthResponse{
		User:  user.ToUserResponse(usr, h.userService.AvatarURL),
		Token: tokenResponse,
	})
}

func (h *Handler) refreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if !h.bindJSON(c, &req, "Refresh token") {
		return
	}

	claims, err := h.tokenService.ParseRefreshToken(req.RefreshToken)
	if err != nil {
		h.logger.Debug("Refresh token validation failed", zap.Error(err))
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Invalid or expired refresh token."))
		return
	}
	revoked, err := h.blocklist.IsBlocklisted(c.Request.Context(), claims.ID)
	if err != nil {
		common.RespondWithError(c, common.ErrServiceUnavailable.WithCause(err))
		return
	}
	if revoked {
		common.RespondWithError(c, common.ErrUnauthorized.WithDetails("Refresh token has been revoked."))
		return
	}

	u, err := h.userService.GetUserByID(c.Request.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			common.RespondWithError(c, common.ErrUnauthorized.WithDetails("User associated with refresh token not found."))
			return
		}
		common.RespondWithError(c, err)
		return
	}

	newAccessToken, newAccessExpiresAt, err := h.tokenService.GenerateAccessToken(u)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	common.RespondOK(c, "Token refreshed successfully.", &shared.TokenResponse{
		AccessToken:  newAccessToken,
		RefreshToken: req.RefreshToken,
		TokenType:    "Bearer",
		ExpiresAt:    newAccessExpiresAt,
	})
}

func (h *Handler) logout(c *gin.Context) {
	claims := middleware.GetUserClaimsFromContext(c)
	if claims == nil {
		common.RespondWithError(c, common.ErrUnauthorized)
		return
	}

	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Malformed JSON body."))
		return
	}

	ctx := c.Request.Context()
	if err := h.blocklist.AddToBlocklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
		common.RespondWithError(c, common.ErrServiceUnavailable.WithCause(err))
		return
	}
	if req.RefreshToken != "" {
		refreshClaims, err := h.tokenService.ParseRefreshToken(req.RefreshToken)
		if err == nil && refreshClaims.UserID == claims.UserID {
			if err := h.blocklist.AddToBlocklist(ctx, refreshClaims.ID, refreshClaims.ExpiresAt.Time); err != nil {
				common.RespondWithError(c, common.ErrServiceUnavailable.WithCause(err))
				return
			}
		}
	}

	h.logger.Info("User logged out", zap.String("userID", claims.UserID.String()))
	common.RespondOK(c, "Logged out successfully.", nil)
}
