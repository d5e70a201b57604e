package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// RequestHandler serves the gear request lifecycle routes.
type RequestHandler struct {
	requestSvc *service.RequestService
}

// NewRequestHandler creates the RequestHandler.
func NewRequestHandler(requestSvc *service.RequestService) *RequestHandler {
	return &RequestHandler{requestSvc: requestSvc}
}

// Create files a new gear request.
// POST /api/v1/requests
func (h *RequestHandler) Create(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	request, err := h.requestSvc.Create(c.Request.Context(), userID, &req)
	if err != nil {
		var insufficient *repository.InsufficientQuantityError
		switch {
		case errors.As(err, &insufficient):
			response.ErrorWithDetails(c, 409, 40002, "insufficient quantity", insufficient.Error())
		case errors.Is(err, repository.ErrGearNotRequestable):
			response.Conflict(c, 30004, "gear is not available for requests")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 30001, "gear not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.Created(c, request)
}

// ListMine lists the caller's requests.
// GET /api/v1/requests/mine
func (h *RequestHandler) ListMine(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var page dto.PaginationRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	requests, total, err := h.requestSvc.ListMine(c.Request.Context(), userID, &page)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, requests, total, page.GetPage(), page.GetPageSize())
}

// List lists all requests (admin).
// GET /api/v1/requests
func (h *RequestHandler) List(c *gin.Context) {
	var req dto.ListRequestsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	requests, total, err := h.requestSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, requests, total, req.GetPage(), req.GetPageSize())
}

// Get returns one request. Regular users can only read their own.
// GET /api/v1/requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	role, ok := MustGetRole(c)
	if !ok {
		return
	}

	request, err := h.requestSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 40001, "request not found")
			return
		}
		response.InternalError(c)
		return
	}

	if role != model.RoleAdmin && request.UserID != userID {
		response.Forbidden(c, 10003, "insufficient permissions")
		return
	}
	response.OK(c, request)
}

// Approve approves a pending request (admin).
// PUT /api/v1/requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ApproveRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	request, err := h.requestSvc.Approve(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		var insufficient *repository.InsufficientQuantityError
		switch {
		case errors.As(err, &insufficient):
			response.ErrorWithDetails(c, 409, 40002, "insufficient quantity", insufficient.Error())
		case errors.Is(err, repository.ErrRequestNotPending):
			response.Conflict(c, 40003, "request is not pending")
		case errors.Is(err, service.ErrInvalidDueDate):
			response.BadRequest(c, 40004, "due date must be a future date")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 40001, "request not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, request)
}

// Reject rejects a pending request (admin).
// PUT /api/v1/requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	adminID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "a rejection note is required")
		return
	}

	request, err := h.requestSvc.Reject(c.Request.Context(), adminID, c.Param("id"), &req)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			response.Conflict(c, 40003, "request is not pending")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 40001, "request not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, request)
}

// Cancel withdraws the caller's own pending request.
// PUT /api/v1/requests/:id/cancel
func (h *RequestHandler) Cancel(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	request, err := h.requestSvc.Cancel(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrRequestNotPending):
			response.Conflict(c, 40003, "request is not pending")
		case errors.Is(err, gorm.ErrRecordNotFound):
			response.NotFound(c, 40001, "request not found")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, request)
}
