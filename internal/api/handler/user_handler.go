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

// UserHandler serves profile reads and the admin user-management routes.
type UserHandler struct {
	userSvc *service.UserService
}

// NewUserHandler creates the UserHandler.
func NewUserHandler(userSvc *service.UserService) *UserHandler {
	return &UserHandler{userSvc: userSvc}
}

// List lists users (admin).
// GET /api/v1/users
func (h *UserHandler) List(c *gin.Context) {
	var req dto.ListUsersRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	users, total, err := h.userSvc.List(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, users, total, req.GetPage(), req.GetPageSize())
}

// Get returns one user (admin).
// GET /api/v1/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userSvc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 20001, "user not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}

// UpdateMe edits the caller's own profile.
// PUT /api/v1/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}
	h.update(c, userID)
}

// Update edits any profile (admin).
// PUT /api/v1/users/:id
func (h *UserHandler) Update(c *gin.Context) {
	h.update(c, c.Param("id"))
}

func (h *UserHandler) update(c *gin.Context, targetID string) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "invalid request payload")
		return
	}

	user, err := h.userSvc.Update(c.Request.Context(), targetID, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 20001, "user not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, user)
}

// SetRole promotes or demotes a user (admin).
// PUT /api/v1/users/:id/role
func (h *UserHandler) SetRole(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "role must be Admin or User")
		return
	}

	user, err := h.userSvc.SetRole(c.Request.Context(), actorID, c.Param("id"), req.Role)
	if err != nil {
		h.writeGuardError(c, err)
		return
	}
	response.OK(c, user)
}

// SetStatus suspends or reactivates a user (admin).
// PUT /api/v1/users/:id/status
func (h *UserHandler) SetStatus(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.SetStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "status must be Active or Inactive")
		return
	}

	user, err := h.userSvc.SetStatus(c.Request.Context(), actorID, c.Param("id"), req.Status)
	if err != nil {
		h.writeGuardError(c, err)
		return
	}
	response.OK(c, user)
}

// Delete soft-deletes a user (admin).
// DELETE /api/v1/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	actorID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.userSvc.Delete(c.Request.Context(), actorID, c.Param("id")); err != nil {
		h.writeGuardError(c, err)
		return
	}
	response.OK(c, nil)
}

func (h *UserHandler) writeGuardError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSelfAction):
		response.Forbidden(c, 20006, "cannot perform this action on your own account")
	case errors.Is(err, repository.ErrLastAdmin):
		response.Conflict(c, 20007, "cannot remove the last active admin")
	case errors.Is(err, gorm.ErrRecordNotFound):
		response.NotFound(c, 20001, "user not found")
	default:
		response.InternalError(c)
	}
}
