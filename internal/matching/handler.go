// File: internal/matching/handler.go
package matching

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"wecare_donations_backend/internal/common"
	"wecare_donations_backend/internal/donation"
	"wecare_donations_backend/internal/middleware"
)

// MatchResponse is the data of GET /ai/match/:userId.
type MatchResponse struct {
	Matches []MatchItem `json:"matches"`
}

// MatchItem is one recommended donation with its full payload.
type MatchItem struct {
	ID         uuid.UUID                 `json:"id"`
	Score      int                       `json:"score"`
	Reason     string                    `json:"reason"`
	DistanceKm float64                   `json:"distance_km"`
	Donation   donation.DonationResponse `json:"donation"`
}

// ToMatchResponse converts orchestrator results to the response form.
func ToMatchResponse(results []Result, fileURL func(string) string) MatchResponse {
	resp := MatchResponse{Matches: make([]MatchItem, 0, len(results))}
	for _, r := range results {
		d := r.Candidate.Donation
		resp.Matches = append(resp.Matches, MatchItem{
			ID:         r.DonationID,
			Score:      r.Score,
			Reason:     r.Reason,
			DistanceKm: r.Candidate.DistanceKm,
			Donation:   donation.ToDonationResponse(&d, fileURL, true),
		})
	}
	return resp
}

// Handler struct holds dependencies for matching handlers.
type Handler struct {
	service *Service
	logger  *zap.Logger
}

// NewHandler creates a new matching handler.
func NewHandler(service *Service, logger *zap.Logger) *Handler {
	return &Handler{service: service, logger: logger.Named("matching_handler")}
}

// RegisterRoutes mounts GET /ai/match/:userId behind authMW and the optional rate limiter.
func (h *Handler) RegisterRoutes(router *gin.RouterGroup, authMW gin.HandlerFunc, rateLimitMW gin.HandlerFunc) {
	aiGroup := router.Group("/ai")
	aiGroup.Use(authMW)
	if rateLimitMW != nil {
		aiGroup.Use(rateLimitMW)
	}
	aiGroup.GET("/match/:userId", h.match)
}

func (h *Handler) match(c *gin.Context) {
	principal, ok := middleware.RequirePrincipal(c)
	if !ok {
		return
	}
	userID, err := common.ParseUUIDParam(c, "userId")
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	origin, err := originFromQuery(c)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}

	results, err := h.service.MatchForUser(c.Request.Context(), principal, userID, origin)
	if err != nil {
		common.RespondWithError(c, err)
		return
	}
	common.RespondOK(c, "Matches generated successfully.", ToMatchResponse(results, h.service.FileURL))
}

// originFromQuery reads the optional lat/lon pair.
func originFromQuery(c *gin.Context) (*Point, error) {
	latRaw, lonRaw := c.Query("lat"), c.Query("lon")
	if latRaw == "" && lonRaw == "" {
		return nil, nil
	}
	if latRaw == "" || lonRaw == "" {
		return nil, common.FieldError("lat", "lat and lon must be provided together.")
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || !finite(lat) || lat < -90 || lat > 90 {
		return nil, common.FieldError("lat", "lat must be a number between -90 and 90.")
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil || !finite(lon) || lon < -180 || lon > 180 {
		return nil, common.FieldError("lon", "lon must be a number between -180 and 180.")
	}
	return &Point{Latitude: lat, Longitude: lon}, nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
