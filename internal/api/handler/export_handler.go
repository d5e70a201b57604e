package handler

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// ExportHandler serves the downloadable artifacts.
type ExportHandler struct {
	exportSvc *service.ExportService
}

// NewExportHandler creates the ExportHandler.
func NewExportHandler(exportSvc *service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// InventoryReport downloads the inventory workbook (admin).
// GET /api/v1/exports/inventory
func (h *ExportHandler) InventoryReport(c *gin.Context) {
	filename := fmt.Sprintf("inventory_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := h.exportSvc.InventoryReport(c.Request.Context(), c.Writer); err != nil {
		response.InternalError(c)
	}
}

// Calendar downloads the caller's due-date feed.
// GET /api/v1/exports/calendar
func (h *ExportHandler) Calendar(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	feed, err := h.exportSvc.DueDateCalendar(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}

	c.Header("Content-Type", "text/calendar; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="nest_due_dates.ics"`)
	c.String(200, feed)
}
