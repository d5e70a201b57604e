package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
)

var (
	// ErrCheckinNotPending guards approve/reject on already-settled checkins.
	ErrCheckinNotPending = errors.New("checkin is not pending")

	// ErrLineNotFound means the checkin references a gear that is not part
	// of the named request.
	ErrLineNotFound = errors.New("gear is not part of this request")

	// ErrRequestNotCheckedOut means the parent request has nothing checked
	// out, so there is nothing to return against.
	ErrRequestNotCheckedOut = errors.New("request has no gear checked out")

	// ErrNotRequestOwner means the caller is returning against a request
	// filed by someone else.
	ErrNotRequestOwner = errors.New("request belongs to another user")
)

// ExcessReturnError reports a checkin quantity above what the request line
// still has outstanding.
type ExcessReturnError struct {
	GearName    string
	Returned    int
	Outstanding int
}

func (e *ExcessReturnError) Error() string {
	return fmt.Sprintf("cannot return %d of %q: only %d outstanding",
		e.Returned, e.GearName, e.Outstanding)
}

// CheckinRepository is the checkins access interface.
type CheckinRepository interface {
	// Create validates that the caller owns the request, that the request
	// has gear out, and that the quantity fits the line's outstanding
	// amount, then inserts the pending checkin.
	Create(ctx context.Context, c *model.Checkin) error

	// Approve settles a pending checkin in one transaction: restores
	// availability, advances the line's returned quantity, clears checkout
	// fields once everything is back and completes the request when all
	// lines are fully returned. Damaged returns route the gear to repair.
	Approve(ctx context.Context, checkinID, adminID string) (*model.Checkin, error)

	Reject(ctx context.Context, checkinID, adminID, notes string) (*model.Checkin, error)

	GetByID(ctx context.Context, id string) (*model.Checkin, error)
	List(ctx context.Context, q *dto.ListCheckinsRequest) ([]model.Checkin, int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Checkin, int64, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
}

type checkinRepo struct {
	db *gorm.DB
}

// NewCheckinRepo creates the GORM-backed CheckinRepository.
func NewCheckinRepo(db *gorm.DB) CheckinRepository {
	return &checkinRepo{db: db}
}

func (r *checkinRepo) Create(ctx context.Context, c *model.Checkin) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req model.GearRequest
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", c.RequestID).
			First(&req).Error; err != nil {
			return err
		}
		if req.UserID != c.UserID {
			return ErrNotRequestOwner
		}
		if req.Status != model.RequestStatusApproved && req.Status != model.RequestStatusOverdue {
			return ErrRequestNotCheckedOut
		}

		var line model.GearRequestGear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ? AND gear_id = ?", c.RequestID, c.GearID).
			First(&line).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLineNotFound
			}
			return err
		}

		// Pending checkins against the same line count toward the cap so a
		// user cannot queue returns exceeding what they hold.
		var pending int64
		if err := tx.Model(&model.Checkin{}).
			Select("COALESCE(SUM(quantity), 0)").
			Where("request_id = ? AND gear_id = ? AND status = ?",
				c.RequestID, c.GearID, model.CheckinStatusPending).
			Scan(&pending).Error; err != nil {
			return err
		}

		outstanding := line.Outstanding() - int(pending)
		if c.Quantity > outstanding {
			var gear model.Gear
			name := c.GearID
			if err := tx.Where("gear_id = ?", c.GearID).First(&gear).Error; err == nil {
				name = gear.Name
			}
			return &ExcessReturnError{
				GearName:    name,
				Returned:    c.Quantity,
				Outstanding: outstanding,
			}
		}

		c.Status = model.CheckinStatusPending
		return tx.Create(c).Error
	})
}

func (r *checkinRepo) Approve(ctx context.Context, checkinID, adminID string) (*model.Checkin, error) {
	var c model.Checkin

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("checkin_id = ?", checkinID).
			First(&c).Error; err != nil {
			return err
		}
		if c.Status != model.CheckinStatusPending {
			return ErrCheckinNotPending
		}

		var line model.GearRequestGear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ? AND gear_id = ?", c.RequestID, c.GearID).
			First(&line).Error; err != nil {
			return err
		}

		var gear model.Gear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("gear_id = ?", c.GearID).
			First(&gear).Error; err != nil {
			return err
		}

		returned := line.ReturnedQuantity + c.Quantity
		if returned > line.Quantity {
			returned = line.Quantity
		}
		if err := tx.Model(&model.GearRequestGear{}).
			Where("line_id = ?", line.LineID).
			Update("returned_quantity", returned).Error; err != nil {
			return err
		}

		available := gear.AvailableQuantity + c.Quantity
		if available > gear.Quantity {
			available = gear.Quantity
		}
		updates := map[string]interface{}{
			"available_quantity": available,
		}
		switch {
		case c.Condition == model.ConditionDamaged:
			updates["status"] = model.GearStatusUnderRepair
		case gear.Status == model.GearStatusCheckedOut && available > 0:
			updates["status"] = model.GearStatusAvailable
		}
		if available == gear.Quantity {
			updates["checked_out_to"] = gorm.Expr("NULL")
			updates["current_request_id"] = gorm.Expr("NULL")
			updates["due_date"] = gorm.Expr("NULL")
		}
		if err := tx.Model(&model.Gear{}).
			Where("gear_id = ?", gear.GearID).
			Updates(updates).Error; err != nil {
			return err
		}

		now := time.Now()
		c.Status = model.CheckinStatusCompleted
		c.ApprovedBy = &adminID
		c.CompletedAt = &now
		if err := tx.Model(&model.Checkin{}).
			Where("checkin_id = ?", checkinID).
			Updates(map[string]interface{}{
				"status":       model.CheckinStatusCompleted,
				"approved_by":  adminID,
				"completed_at": now,
			}).Error; err != nil {
			return err
		}

		// Complete the request once every line is fully returned.
		var open int64
		if err := tx.Model(&model.GearRequestGear{}).
			Where("request_id = ? AND returned_quantity < quantity", c.RequestID).
			Count(&open).Error; err != nil {
			return err
		}
		if open == 0 {
			if err := tx.Model(&model.GearRequest{}).
				Where("request_id = ? AND status IN ?", c.RequestID,
					[]string{model.RequestStatusApproved, model.RequestStatusOverdue}).
				Update("status", model.RequestStatusCompleted).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkinRepo) Reject(ctx context.Context, checkinID, adminID, notes string) (*model.Checkin, error) {
	var c model.Checkin

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("checkin_id = ?", checkinID).
			First(&c).Error; err != nil {
			return err
		}
		if c.Status != model.CheckinStatusPending {
			return ErrCheckinNotPending
		}
		c.Status = model.CheckinStatusRejected
		c.ApprovedBy = &adminID
		if notes != "" {
			c.Notes = notes
		}
		return tx.Model(&model.Checkin{}).
			Where("checkin_id = ?", checkinID).
			Updates(map[string]interface{}{
				"status":      model.CheckinStatusRejected,
				"approved_by": adminID,
				"notes":       c.Notes,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkinRepo) GetByID(ctx context.Context, id string) (*model.Checkin, error) {
	var c model.Checkin
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Gear").
		Where("checkin_id = ?", id).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *checkinRepo) List(ctx context.Context, q *dto.ListCheckinsRequest) ([]model.Checkin, int64, error) {
	var checkins []model.Checkin
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Checkin{})
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}
	if q.GearID != "" {
		db = db.Where("gear_id = ?", q.GearID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("User").Preload("Gear").
		Offset(q.GetOffset()).Limit(q.GetPageSize()).
		Order("created_at DESC").
		Find(&checkins).Error; err != nil {
		return nil, 0, err
	}
	return checkins, total, nil
}

func (r *checkinRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.Checkin, int64, error) {
	var checkins []model.Checkin
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Checkin{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Gear").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&checkins).Error; err != nil {
		return nil, 0, err
	}
	return checkins, total, nil
}

func (r *checkinRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Checkin{}).Count(&n).Error
	return n, err
}

func (r *checkinRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Checkin{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}
