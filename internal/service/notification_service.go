package service

import (
	"context"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// NotificationService handles the in-app notification inbox and the
// activity log reads.
type NotificationService struct {
	notifications repository.NotificationRepository
	activity      repository.ActivityRepository
	publisher     ChangePublisher
	logger        *zap.Logger
}

// NewNotificationService creates the notification service.
func NewNotificationService(notifications repository.NotificationRepository, activity repository.ActivityRepository, publisher ChangePublisher, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		notifications: notifications,
		activity:      activity,
		publisher:     publisher,
		logger:        logger,
	}
}

// List returns the caller's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, req *dto.ListNotificationsRequest) ([]model.Notification, int64, error) {
	return s.notifications.List(ctx, userID, req.UnreadOnly, req.GetOffset(), req.GetPageSize())
}

// CountUnread returns the caller's unread badge count.
func (s *NotificationService) CountUnread(ctx context.Context, userID string) (int64, error) {
	return s.notifications.CountUnread(ctx, userID)
}

// MarkRead marks one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.MarkRead(ctx, userID, notificationID); err != nil {
		return err
	}
	s.publisher.Publish("notifications", "UPDATE", notificationID)
	return nil
}

// MarkAllRead clears the caller's unread set.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.notifications.MarkAllRead(ctx, userID); err != nil {
		return err
	}
	s.publisher.Publish("notifications", "UPDATE", "*")
	return nil
}

// Delete removes one of the caller's notifications.
func (s *NotificationService) Delete(ctx context.Context, userID, notificationID string) error {
	if err := s.notifications.Delete(ctx, userID, notificationID); err != nil {
		return err
	}
	s.publisher.Publish("notifications", "DELETE", notificationID)
	return nil
}

// ListActivities returns the audit trail (admin view).
func (s *NotificationService) ListActivities(ctx context.Context, req *dto.ListActivitiesRequest) ([]model.ActivityLog, int64, error) {
	return s.activity.List(ctx, req)
}
