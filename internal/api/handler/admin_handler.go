package handler

import (
	"github.com/gin-gonic/gin"

	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// AdminHandler serves the maintenance operations.
type AdminHandler struct {
	gearSvc    *service.GearService
	requestSvc *service.RequestService
}

// NewAdminHandler creates the AdminHandler.
func NewAdminHandler(gearSvc *service.GearService, requestSvc *service.RequestService) *AdminHandler {
	return &AdminHandler{gearSvc: gearSvc, requestSvc: requestSvc}
}

// RecomputeAvailability re-derives every gear's available quantity from
// open request lines and reports the fixes (admin).
// POST /api/v1/admin/recompute-availability
func (h *AdminHandler) RecomputeAvailability(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	fixes, err := h.gearSvc.RecomputeAvailability(c.Request.Context(), adminID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"fixed": len(fixes), "changes": fixes})
}

// RunOverdueSweep flips past-due approved requests to Overdue now instead
// of waiting for the background ticker (admin).
// POST /api/v1/admin/overdue-sweep
func (h *AdminHandler) RunOverdueSweep(c *gin.Context) {
	flipped, err := h.requestSvc.RunOverdueSweep(c.Request.Context())
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"flipped": flipped})
}
