// File: internal/donation/handler.go
package donation

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/filestorage"
	"wecare_donations_backend/internal/middleware"
	"wecare_donations_backend/internal/shared"
)

// Handler struct holds dependencies for donation handlers.
type Handler struct {
	service    Service
	imageRules filestorage.ImageRules
	logger     *zap.Logger
}

// NewHandler creates a new donation handler.
func NewHandler(service Service, imageRules filestorage.ImageRules, logger *zap.Logger) *Handler {
	return &Handler{
		service:    service,
		imageRules: imageRules,
		logger:     logger.Named("donation_handler"),
	}
}

// RegisterRoutes sets up the routes for donation operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc) {
	donationGroup := router.Group("/donations")
	{
		donationGroup.GET("", h.listPending)
		donationGroup.GET("/search", h.search)
		donationGroup.GET("/category/:id", h.listByCategory)
		donationGroup.GET("/:id", h.getDonation)

		authedGroup := donationGroup.Group("")
		authedGroup.Use(authMW)
		{
			authedGroup.POST("", h.createDonation)
			authedGroup.PUT("/:id/accept", h.acceptDonation)
			authedGroup.PUT("/:id/complete", h.completeDonation)
			authedGroup.DELETE("/:id", h.deleteDonation)
			authedGroup.GET("/user/:id", h.listByUser)
		}
	}
}

// multipartLimit is the in-memory budget for parsing a create request.
func (h *Handler) multipartLimit() int64 {
	return int64(h.imageRules.MaxCount)*h.imageRules.MaxBytes + 1<<20
}

func (h *Handler) createDonation(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	switch principal.Role {
	case shared.RoleDonor:
	case shared.RoleReceiver, shared.RoleAdmin:
		common.RespondWithError(c, common.ErrForbidden.WithDetails("Only donors can create donations."))
		return
	default:
		common.RespondWithError(c, common.ErrForbidden.WithDetails("Only donors can create donations."))
		return
	}

	if err := c.Request.ParseMultipartForm(h.multipartLimit()); err != nil {
		h.logger.Warn("Create donation: failed to parse multipart form", zap.Error(err))
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Request must be multipart/form-data."))
		return
	}

	var req CreateDonationRequest
	if err := c.ShouldBindWith(&req, binding.FormMultipart); err != nil {
		h.logger.Debug("Create donation: invalid form data", zap.Error(err))
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrValidation.WithDetails("Invalid form data."))
		return
	}

	images := c.Request.MultipartForm.File["images"]
	created, err := h.service.CreateDonation(c.Request.Context(), principal, req, images)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Donation created successfully.", CreatedResponse{ID: created.ID})
}

func (h *Handler) acceptDonation(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	updated, err := h.service.AcceptDonation(c.Request.Context(), principal, id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Donation accepted successfully.", ToDonationResponse(updated, h.service.FileURL, false))
}

func (h *Handler) completeDonation(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	updated, err := h.service.CompleteDonation(c.Request.Context(), principal, id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Donation marked as completed.", ToDonationResponse(updated, h.service.FileURL, false))
}

func (h *Handler) deleteDonation(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.DeleteDonation(c.Request.Context(), principal, id); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Donation deleted successfully.", nil)
}

func (h *Handler) getDonation(c *gin.Context) {
	id, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	d, err := h.service.GetDonation(c.Request.Context(), id)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Donation retrieved successfully.", ToDonationResponse(d, h.service.FileURL, true))
}

func (h *Handler) listPending(c *gin.Context) {
	pq := common.GetPaginationQuery(c)
	donations, pagination, err := h.service.ListPending(c.Request.Context(), pq)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Donations retrieved successfully.", ToDonationResponses(donations, h.service.FileURL), pagination)
}

func (h *Handler) listByCategory(c *gin.Context) {
	categoryID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	pq := common.GetPaginationQuery(c)
	donations, pagination, err := h.service.ListByCategory(c.Request.Context(), categoryID, pq)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Donations retrieved successfully.", ToDonationResponses(donations, h.service.FileURL), pagination)
}

func (h *Handler) listByUser(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	userID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	pq := common.GetPaginationQuery(c)
	donations, pagination, err := h.service.ListByUser(c.Request.Context(), principal, userID, pq)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Donations retrieved successfully.", ToDonationResponses(donations, h.service.FileURL), pagination)
}

func (h *Handler) search(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			common.RespondWithError(c, common.NewValidationAPIError(common.FormatValidationErrors(ve)))
			return
		}
		common.RespondWithError(c, common.ErrBadRequest.WithDetails("Invalid search parameters."))
		return
	}
	pq := common.GetPaginationQuery(c)
	donations, pagination, err := h.service.Search(c.Request.Context(), query, pq)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondPaginated(c, "Search results retrieved successfully.", ToDonationResponses(donations, h.service.FileURL), pagination)
}
