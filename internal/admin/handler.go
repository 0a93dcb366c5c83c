// File: internal/admin/handler.go
package admin

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/user"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("admin_handler")}
}

// RegisterRoutes mounts the admin console. Every route requires an admin.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW, adminMW gin.HandlerFunc) {
	group := router.Group("/admin", authMW, adminMW)
	{
		group.GET("/donations", h.listDonations)
		group.GET("/users", h.listUsers)
		group.GET("/stats", h.stats)
		group.DELETE("/users/:id", h.deleteUser)
	}
}

func (h *Handler) listDonations(c *gin.Context) {
	donations, pagination, err := h.service.ListDonations(c.Request.Context(), common.GetPaginationQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Donations retrieved successfully.", donation.ToDonationResponses(donations, h.service.FileURL), pagination)
}

func (h *Handler) listUsers(c *gin.Context) {
	users, pagination, err := h.service.ListUsers(c.Request.Context(), common.GetPaginationQuery(c))
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	out := make([]user.UserResponse, 0, len(users))
	for i := range users {
		out = append(out, user.ToUserResponse(&users[i], h.service.FileURL))
	}
	common.RespondPaginated(c, "Users retrieved successfully.", out, pagination)
}

func (h *Handler) stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Statistics retrieved successfully.", stats)
}

func (h *Handler) deleteUser(c *gin.Context) {
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "User deleted successfully.", nil)
}
