package repository

import (
	"context"

	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
)

// ActivityRepository is the append-only gear_activity_log access interface.
type ActivityRepository interface {
	Append(ctx context.Context, a *model.ActivityLog) error
	List(ctx context.Context, q *dto.ListActivitiesRequest) ([]model.ActivityLog, int64, error)
}

type activityRepo struct {
	db *gorm.DB
}

// NewActivityRepo creates the GORM-backed ActivityRepository.
func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) Append(ctx context.Context, a *model.ActivityLog) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *activityRepo) List(ctx context.Context, q *dto.ListActivitiesRequest) ([]model.ActivityLog, int64, error) {
	var logs []model.ActivityLog
	var total int64

	db := r.db.WithContext(ctx).Model(&model.ActivityLog{})
	if q.Action != "" {
		db = db.Where("action = ?", q.Action)
	}
	if q.GearID != "" {
		db = db.Where("gear_id = ?", q.GearID)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(q.GetOffset()).Limit(q.GetPageSize()).
		Order("created_at DESC").
		Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
