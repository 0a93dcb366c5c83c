// File: internal/category/handler.go
package category

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
)

// Handler struct holds dependencies for category handlers.
type Handler struct {
	service Service
	logger  *zap.Logger
}

// NewHandler creates a new category handler.
func NewHandler(service Service, logger *zap.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger.Named("category_handler"),
	}
}

// RegisterRoutes sets up the routes for category operations.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, adminRoleMW gin.HandlerFunc) {
	categoryGroup := router.Group("/categories")
	{
		categoryGroup.GET("", h.getAllCategories)
		categoryGroup.GET("/:idOrSlug", h.getCategory)

		adminGroup := categoryGroup.Group("")
		adminGroup.Use(authMW, adminRoleMW)
		{
			adminGroup.POST("", h.adminCreateCategory)
			adminGroup.PUT("/:idOrSlug", h.adminUpdateCategory)
			adminGroup.DELETE("/:idOrSlug", h.adminDeleteCategory)
		}
	}
}

func (h *Handler) getAllCategories(c *gin.Context) {
	categories, err := h.service.GetAllCategories(c.Request.Context())
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	categoryResponses := make([]CategoryResponse, len(categories))
	for i := range categories {
		categoryResponses[i] = ToCategoryResponse(&categories[i])
	}
	common.RespondOK(c, "Categories retrieved successfully.", categoryResponses)
}

func (h *Handler) getCategory(c *gin.Context) {
	idOrSlug := c.Param("idOrSlug")
	var (
		catModel *Category
		err      error
	)
	if catID, parseErr := uuid.Parse(idOrSlug); parseErr == nil {
		catModel, err = h.service.GetCategoryByID(c.Request.Context(), catID)
	} else {
		catModel, err = h.service.GetCategoryBySlug(c.Request.Context(), idOrSlug)
	}
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Category retrieved successfully.", ToCategoryResponse(catModel))
}

func (h *Handler) bindCategory(c *gin.Context, req *AdminCreateCategoryRequest) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		h.logger.Warn("Admin category: invalid request body", zap.Error(err))
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

func (h *Handler) adminCreateCategory(c *gin.Context) {
	var req AdminCreateCategoryRequest
	if !h.bindCategory(c, &req) {
		return
	}
	catModel, err := h.service.AdminCreateCategory(c.Request.Context(), req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondCreated(c, "Category created successfully.", ToCategoryResponse(catModel))
}

func (h *Handler) adminUpdateCategory(c *gin.Context) {
	categoryID, err := common.ParseUUIDParam(c, "idOrSlug")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	var req AdminCreateCategoryRequest
	if !h.bindCategory(c, &req) {
		return
	}
	catModel, err := h.service.AdminUpdateCategory(c.Request.Context(), categoryID, req)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Category updated successfully.", ToCategoryResponse(catModel))
}

func (h *Handler) adminDeleteCategory(c *gin.Context) {
	categoryID, err := common.ParseUUIDParam(c, "idOrSlug")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	if err := h.service.AdminDeleteCategory(c.Request.Context(), categoryID); err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondNoContent(c)
}
