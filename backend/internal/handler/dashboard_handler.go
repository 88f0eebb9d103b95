package handler

import (
	"net/http"

	response "jkd-coach-app/backend/internal/infra/common"
	"jkd-coach-app/backend/internal/service/stats"

	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the aggregate stats endpoint.
type DashboardHandler struct {
	service *stats.Service
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service *stats.Service) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// Stats handles GET /api/dashboard/stats.
func (h *DashboardHandler) Stats(c *gin.Context) {
	userID, ok := extractUserID(c)
	if !ok {
		return
	}

	summary, err := h.service.Summary(c.Request.Context(), userID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal, "failed to compute dashboard stats", nil)
		return
	}

	response.Success(c, http.StatusOK, summary, nil)
}
