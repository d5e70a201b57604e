package handler

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/service"
	"nest/backend/pkg/response"
)

// NotificationHandler serves the notification inbox and activity log.
type NotificationHandler struct {
	notificationSvc *service.NotificationService
}

// NewNotificationHandler creates the NotificationHandler.
func NewNotificationHandler(notificationSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List lists the caller's notifications.
// GET /api/v1/notifications
func (h *NotificationHandler) List(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	var req dto.ListNotificationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	notifications, total, err := h.notificationSvc.List(c.Request.Context(), userID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, notifications, total, req.GetPage(), req.GetPageSize())
}

// UnreadCount returns the caller's badge count.
// GET /api/v1/notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	count, err := h.notificationSvc.CountUnread(c.Request.Context(), userID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, gin.H{"unread": count})
}

// MarkRead flags one notification as read.
// PUT /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkRead(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 10001, "notification not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// MarkAllRead clears the caller's unread set.
// PUT /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.MarkAllRead(c.Request.Context(), userID); err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// Delete removes one notification.
// DELETE /api/v1/notifications/:id
func (h *NotificationHandler) Delete(c *gin.Context) {
	userID, ok := MustGetUserID(c)
	if !ok {
		return
	}

	if err := h.notificationSvc.Delete(c.Request.Context(), userID, c.Param("id")); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.NotFound(c, 10001, "notification not found")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// ListActivities returns the audit trail (admin).
// GET /api/v1/activities
func (h *NotificationHandler) ListActivities(c *gin.Context) {
	var req dto.ListActivitiesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, 10001, "invalid query parameters")
		return
	}

	activities, total, err := h.notificationSvc.ListActivities(c.Request.Context(), &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OKPage(c, activities, total, req.GetPage(), req.GetPageSize())
}
