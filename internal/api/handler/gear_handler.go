package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// maxImportSize caps uploaded CSV files.
const maxImportSize = 5 << 20 // 5MB

// GearHandler serves the inventory routes.
type GearHandler struct {
	gearSvc *service.GearService
}

// NewGearHandler creates the GearHandler.
func NewGearHandler(gearSvc *service.GearService) *GearHandler {
	return &GearHandler{gearSvc: gearSvc}
}

// List lists gear with filters.
// GET /api/v1/gears
func (h *GearHandler) List(c *gin.Context) {
	var req dto.ListGearsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	gears, total, err := h.gearSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, gears, total, req.GetPage(), req.GetPageSize())
}

// Get returns one gear item.
// GET /api/v1/gears/:id
func (h *GearHandler) Get(c *gin.Context) {
	gear, err := h.gearSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 30001, "gear not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, gear)
}

// Create adds gear (admin).
// POST /api/v1/gears
func (h *GearHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateGearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	gear, err := h.gearSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		if errors.Is(err, service.ErrSerialTaken) {
			response.Conflict(c, 30002, "serial number already in use")
			return
		}
		response.InternalError(c)
		return
	}
	response.Created(c, gear)
}

// Update edits gear (admin).
// PUT /api/v1/gears/:id
func (h *GearHandler) Update(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateGearRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	gear, err := h.gearSvc.Update(c.Request.Context(), userID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 30001, "gear not found")
		case errors.Is(err, service.ErrSerialTaken):
			response.Conflict(c, 30002, "serial number already in use")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, gear)
}

// Delete removes gear (admin). Gear with units still out is refused.
// DELETE /api/v1/gears/:id
func (h *GearHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.gearSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 30001, "gear not found")
		case errors.Is(err, service.ErrGearInUse):
			response.Conflict(c, 30003, "gear has units checked out")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, nil)
}

// ImportCSV ingests a gear CSV upload (admin).
// POST /api/v1/gears/import
func (h *GearHandler) ImportCSV(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		response.BadRequest(c, 10001, "missing csv file upload")
		return
	}
	defer file.Close()

	if header.Size > maxImportSize {
		response.BadRequest(c, 10005, "csv file too large")
		return
	}

	result, err := h.gearSvc.ImportCSV(c.Request.Context(), file)
	if err != nil {
		response.BadRequest(c, 10001, "csv could not be parsed")
		return
	}
	response.OK(c, result)
}

// ExportCSV downloads the inventory as CSV (admin).
// GET /api/v1/gears/export
func (h *GearHandler) ExportCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", `attachment; filename="gear_inventory.csv"`)

	if err := h.gearSvc.ExportCSV(c.Request.Context(), c.Writer); err != nil {
		response.InternalError(c)
	}
}

// QRCode renders a gear's QR label as PNG.
// GET /api/v1/gears/:id/qrcode
func (h *GearHandler) QRCode(c *gin.Context) {
	size, _ := strconv.Atoi(c.DefaultQuery("size", "256"))
	if size < 64 || size > 1024 {
		size = 256
	}

	png, err := h.gearSvc.QRCode(c.Request.Context(), c.Param("id"), size)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 30001, "gear not found")
			return
		}
		response.InternalError(c)
		return
	}
	c.Data(200, "image/png", png)
}

// Lookup resolves a scanned code or serial to a gear item.
// GET /api/v1/gears/lookup?code=...
func (h *GearHandler) Lookup(c *gin.Context) {
	code := c.Query("code")
	if code == "" {
		response.BadRequest(c, 10001, "code is required")
		return
	}

	gear, err := h.gearSvc.Lookup(c.Request.Context(), code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 30001, "no gear matches this code")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, gear)
}
