// File: internal/notification/handler.go
package notification

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/middleware"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("notification_handler"),
	}
}

// RegisterRoutes sets up the routes for notification operations.
// All routes in this group are authenticated.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	group := router.Group("/notifications", authMW)
	{
		group.GET("", h.getNotifications)
		group.GET("/unread-count", h.unreadCount)
		group.PATCH("/read-all", h.markAllNotificationsAsRead)
		group.PATCH("/:id/read", h.markNotificationAsRead)
	}
}

func (h *Handler) getNotifications(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	notifications, pagination, err := h.service.GetNotificationsForUser(c.Request.Context(), principal.UserID, common.GetPaginationQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Notifications retrieved successfully.", ToNotificationResponses(notifications), pagination)
}

func (h *Handler) unreadCount(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	count, err := h.service.UnreadCount(c.Request.Context(), principal.UserID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Unread notification count retrieved.", gin.H{"unread": count})
}

func (h *Handler) markNotificationAsRead(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	notificationID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.MarkNotificationAsRead(c.Request.Context(), notificationID, principal.UserID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Notification marked as read.", nil)
}

func (h *Handler) markAllNotificationsAsRead(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	count, err := h.service.MarkAllUserNotificationsAsRead(c.Request.Context(), principal.UserID)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "All notifications marked as read.", MarkAllResponse{Updated: count})
}
