package repository

import (
	"context"

	"gorm.io/gorm"

	"nest/backend/internal/model"
)

// NotificationRepository is the in-app notifications access interface.
type NotificationRepository interface {
	Create(ctx context.Context, n *model.Notification) error
	CreateBatch(ctx context.Context, ns []model.Notification) error
	List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error)
	MarkRead(ctx context.Context, userID, notificationID string) error
	MarkAllRead(ctx context.Context, userID string) error
	Delete(ctx context.Context, userID, notificationID string) error
	CountUnread(ctx context.Context, userID string) (int64, error)
	CountAllUnread(ctx context.Context) (int64, error)
}

type notificationRepo struct {
	db *gorm.DB
}

// NewNotificationRepo creates the GORM-backed NotificationRepository.
func NewNotificationRepo(db *gorm.DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, n *model.Notification) error {
	return r.db.WithContext(ctx).Create(n).Error
}

func (r *notificationRepo) CreateBatch(ctx context.Context, ns []model.Notification) error {
	if len(ns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&ns, 100).Error
}

func (r *notificationRepo) List(ctx context.Context, userID string, unreadOnly bool, offset, limit int) ([]model.Notification, int64, error) {
	var ns []model.Notification
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Notification{}).Where("user_id = ?", userID)
	if unreadOnly {
		db = db.Where("is_read = false")
	}
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&ns).Error; err != nil {
		return nil, 0, err
	}
	return ns, total, nil
}

func (r *notificationRepo) MarkRead(ctx context.Context, userID, notificationID string) error {
	res := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Update("is_read", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepo) MarkAllRead(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Update("is_read", true).Error
}

func (r *notificationRepo) Delete(ctx context.Context, userID, notificationID string) error {
	res := r.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		Delete(&model.Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *notificationRepo) CountUnread(ctx context.Context, userID string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("user_id = ? AND is_read = false", userID).
		Count(&n).Error
	return n, err
}

func (r *notificationRepo) CountAllUnread(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notification{}).
		Where("is_read = false").
		Count(&n).Error
	return n, err
}
