package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/repository"
	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// CheckinHandler serves the gear return routes.
type CheckinHandler struct {
	checkinSvc *service.CheckinService
}

// NewCheckinHandler creates the CheckinHandler.
func NewCheckinHandler(checkinSvc *service.CheckinService) *CheckinHandler {
	return &CheckinHandler{checkinSvc: checkinSvc}
}

// Create files a return for admin approval.
// POST /api/v1/checkins
func (h *CheckinHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateCheckinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	checkin, err := h.checkinSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		var excess *repository.ExcessReturnError
		switch {
		case errors.As(err, &excess):
			response.ErrorWithDetails(c, 409, 50002, "return exceeds outstanding quantity", excess.Error())
		case errors.Is(err, repository.ErrLineNotFound):
			response.NotFound(c, 50004, "gear is not part of this request")
		case errors.Is(err, repository.ErrRequestNotCheckedOut):
			response.Conflict(c, 50005, "request has no gear checked out")
		case errors.Is(err, repository.ErrNotRequestOwner):
			response.Forbidden(c, 50006, "request belongs to another user")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 40001, "request not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, checkin)
}

// ListMine lists the caller's checkins.
// GET /api/v1/checkins/mine
func (h *CheckinHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	checkins, total, err := h.checkinSvc.ListMine(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, checkins, total, page.GetPage(), page.GetPageSize())
}

// List lists all checkins (admin).
// GET /api/v1/checkins
func (h *CheckinHandler) List(c *gin.Context) {
	var req dto.ListCheckinsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	checkins, total, err := h.checkinSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, checkins, total, req.GetPage(), req.GetPageSize())
}

// Get returns one checkin (admin).
// GET /api/v1/checkins/:id
func (h *CheckinHandler) Get(c *gin.Context) {
	checkin, err := h.checkinSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 50001, "checkin not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, checkin)
}

// Approve settles a pending checkin (admin).
// PUT /api/v1/checkins/:id/approve
func (h *CheckinHandler) Approve(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	checkin, err := h.checkinSvc.Approve(c.Request.Context(), adminID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCheckinNotPending):
			response.Conflict(c, 50003, "checkin is not pending")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 50001, "checkin not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, checkin)
}

// Reject declines a pending checkin (admin).
// PUT /api/v1/checkins/:id/reject
func (h *CheckinHandler) Reject(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes" binding:"omitempty,max=500"`
	}
	_ = c.ShouldBindJSON(&req)

	checkin, err := h.checkinSvc.Reject(c.Request.Context(), adminID, c.Param("id"), req.Notes)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrCheckinNotPending):
			response.Conflict(c, 50003, "checkin is not pending")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 50001, "checkin not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, checkin)
}
