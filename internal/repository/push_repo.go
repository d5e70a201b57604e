package repository

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nest/backend/internal/model"
)

// PushRepository is the push_queue access interface used by the delivery
// worker.
type PushRepository interface {
	Enqueue(ctx context.Context, m *model.PushMessage) error

	// DequeuePending claims up to limit pending messages: the locked
	// select and the flip to Processing commit together, so concurrent
	// workers never claim the same row. A batch whose worker died is
	// requeued after requeueAfter, so delivery is at-least-once.
	DequeuePending(ctx context.Context, limit int) ([]model.PushMessage, error)

	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string) error
}

type pushRepo struct {
	db *gorm.DB
}

// NewPushRepo creates the GORM-backed PushRepository.
func NewPushRepo(db *gorm.DB) PushRepository {
	return &pushRepo{db: db}
}

func (r *pushRepo) Enqueue(ctx context.Context, m *model.PushMessage) error {
	m.Status = model.PushStatusPending
	return r.db.WithContext(ctx).Create(m).Error
}

// requeueAfter is how long a message may sit in Processing before it is
// handed back to the queue.
const requeueAfter = 5 * time.Minute

func (r *pushRepo) DequeuePending(ctx context.Context, limit int) ([]model.PushMessage, error) {
	var msgs []model.PushMessage
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reclaim batches from workers that died mid-delivery.
		if err := tx.Model(&model.PushMessage{}).
			Where("status = ? AND updated_at < ?", model.PushStatusProcessing, time.Now().Add(-requeueAfter)).
			Update("status", model.PushStatusPending).Error; err != nil {
			return err
		}

		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", model.PushStatusPending).
			Order("created_at ASC").
			Limit(limit).
			Find(&msgs).Error; err != nil {
			return err
		}
		if len(msgs) == 0 {
			return nil
		}

		ids := make([]string, len(msgs))
		for i := range msgs {
			ids[i] = msgs[i].PushID
			msgs[i].Status = model.PushStatusProcessing
		}
		return tx.Model(&model.PushMessage{}).
			Where("push_id IN ?", ids).
			Update("status", model.PushStatusProcessing).Error
	})
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

func (r *pushRepo) MarkSent(ctx context.Context, id string) error {
	now := time.Now()
	return r.db.WithContext(ctx).Model(&model.PushMessage{}).
		Where("push_id = ?", id).
		Updates(map[string]interface{}{
			"status":   model.PushStatusSent,
			"sent_at":  now,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}

func (r *pushRepo) MarkFailed(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.PushMessage{}).
		Where("push_id = ?", id).
		Updates(map[string]interface{}{
			"status":   model.PushStatusFailed,
			"attempts": gorm.Expr("attempts + 1"),
		}).Error
}
