package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jengzang/quota-backend-go/internal/service"
	"github.com/jengzang/quota-backend-go/pkg/response"
)

// DefaultWindowDays is used when the window query parameter is absent
const DefaultWindowDays = 7

// AnalyticsHandler handles HTTP requests for analytics reads
type AnalyticsHandler struct {
	service *service.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(service *service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{service: service}
}

// GetOverview summarises a date range
// GET /api/v1/analytics/overview?start=YYYY-MM-DD&end=YYYY-MM-DD
func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	start, end := c.Query("start"), c.Query("end")
	if start == "" || end == "" {
		response.BadRequest(c, "start and end are required")
		return
	}

	overview, err := h.service.GetOverview(c.Request.Context(), userID, start, end)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Analytics(c, overview, overview.HasGaps)
}

// GetSlidingWindow returns the trailing-window percentage series
// GET /api/v1/analytics/sliding-window?window=7&resourceGroupId=&start=&end=
func (h *AnalyticsHandler) GetSlidingWindow(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	q := service.SlidingWindowQuery{
		WindowDays: DefaultWindowDays,
		Start:      c.Query("start"),
		End:        c.Query("end"),
	}
	if q.Start == "" || q.End == "" {
		response.BadRequest(c, "start and end are required")
		return
	}

	if raw := c.Query("window"); raw != "" {
		window, err := strconv.Atoi(raw)
		if err != nil {
			response.BadRequest(c, "Invalid window")
			return
		}
		q.WindowDays = window
	}

	if raw := c.Query("resourceGroupId"); raw != "" {
		groupID, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			response.BadRequest(c, "Invalid resourceGroupId")
			return
		}
		q.ResourceGroupID = &groupID
	}

	window, err := h.service.GetSlidingWindow(c.Request.Context(), userID, q)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Analytics(c, window, window.HasGaps)
}

// GetQuota returns per-period usage against quotas
// GET /api/v1/analytics/quota
func (h *AnalyticsHandler) GetQuota(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	stats, err := h.service.GetQuota(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, stats)
}
