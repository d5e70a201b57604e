package handler

import (
	"github.com/gin-gonic/gin"

	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// DashboardHandler serves the admin dashboard stats.
type DashboardHandler struct {
	dashboardSvc *service.DashboardService
}

// NewDashboardHandler creates the DashboardHandler.
func NewDashboardHandler(dashboardSvc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{dashboardSvc: dashboardSvc}
}

// Stats returns the dashboard counts and rates (admin).
// GET /api/v1/dashboard/stats
func (h *DashboardHandler) Stats(c *gin.Context) {
	stats, err := h.dashboardSvc.Stats(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, stats)
}
