package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
)

var (
	// ErrGearNotRequestable is returned when a line references gear that is
	// retired, damaged or under repair.
	ErrGearNotRequestable = errors.New("gear is not available for requests")

	// ErrRequestNotPending guards lifecycle transitions that require a
	// still-pending request.
	ErrRequestNotPending = errors.New("request is not pending")
)

// InsufficientQuantityError reports the first line whose quantity exceeds
// what the locked gear row has available.
type InsufficientQuantityError struct {
	GearID    string
	GearName  string
	Requested int
	Available int
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity for %q: requested %d, available %d",
		e.GearName, e.Requested, e.Available)
}

// RequestRepository is the gear_requests (+ lines) access interface.
type RequestRepository interface {
	// CreateWithLines inserts the request row and all line rows in one
	// transaction, validating each line's quantity against the locked gear
	// row. Any failure rolls the whole write back.
	CreateWithLines(ctx context.Context, req *model.GearRequest, lines []model.GearRequestGear) error

	// Approve re-validates and decrements availability under row locks,
	// stamps the due date and marks affected gear as checked out.
	Approve(ctx context.Context, requestID, adminID string, dueDate time.Time, notes string) (*model.GearRequest, error)

	Reject(ctx context.Context, requestID, adminID, notes string) (*model.GearRequest, error)
	Cancel(ctx context.Context, requestID, userID string) (*model.GearRequest, error)

	GetByID(ctx context.Context, id string) (*model.GearRequest, error)
	List(ctx context.Context, q *dto.ListRequestsRequest) ([]model.GearRequest, int64, error)
	ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.GearRequest, int64, error)
	ListApprovedByUser(ctx context.Context, userID string) ([]model.GearRequest, error)

	// MarkOverdue flips approved requests past the cutoff to Overdue and
	// returns the affected rows.
	MarkOverdue(ctx context.Context, cutoff time.Time) ([]model.GearRequest, error)

	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	CountDistinctRequesters(ctx context.Context) (int64, error)
}

type requestRepo struct {
	db *gorm.DB
}

// NewRequestRepo creates the GORM-backed RequestRepository.
func NewRequestRepo(db *gorm.DB) RequestRepository {
	return &requestRepo{db: db}
}

func (r *requestRepo) CreateWithLines(ctx context.Context, req *model.GearRequest, lines []model.GearRequestGear) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Lock gear rows in gear_id order so two concurrent multi-line
		// requests cannot deadlock against each other.
		ordered := make([]*model.GearRequestGear, len(lines))
		for i := range lines {
			ordered[i] = &lines[i]
		}
		sort.Slice(ordered, func(i, j int) bool { return ordered[i].GearID < ordered[j].GearID })

		for _, line := range ordered {
			var gear model.Gear
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("gear_id = ?", line.GearID).
				First(&gear).Error; err != nil {
				return err
			}
			if !gear.Requestable() {
				return ErrGearNotRequestable
			}
			if line.Quantity > gear.AvailableQuantity {
				return &InsufficientQuantityError{
					GearID:    gear.GearID,
					GearName:  gear.Name,
					Requested: line.Quantity,
					Available: gear.AvailableQuantity,
				}
			}
		}

		if err := tx.Create(req).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].RequestID = req.RequestID
		}
		if err := tx.Create(&lines).Error; err != nil {
			return err
		}
		req.Lines = lines
		return nil
	})
}

func (r *requestRepo) Approve(ctx context.Context, requestID, adminID string, dueDate time.Time, notes string) (*model.GearRequest, error) {
	var req model.GearRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&req).Error; err != nil {
			return err
		}
		if req.Status != model.RequestStatusPending {
			return ErrRequestNotPending
		}

		// gear_id order keeps the lock order consistent with CreateWithLines.
		var lines []model.GearRequestGear
		if err := tx.Where("request_id = ?", requestID).
			Order("gear_id ASC").Find(&lines).Error; err != nil {
			return err
		}

		for _, line := range lines {
			var gear model.Gear
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				Where("gear_id = ?", line.GearID).
				First(&gear).Error; err != nil {
				return err
			}
			// Availability may have shrunk since the request was filed;
			// approval re-validates against the locked row.
			if line.Quantity > gear.AvailableQuantity {
				return &InsufficientQuantityError{
					GearID:    gear.GearID,
					GearName:  gear.Name,
					Requested: line.Quantity,
					Available: gear.AvailableQuantity,
				}
			}

			remaining := gear.AvailableQuantity - line.Quantity
			updates := map[string]interface{}{
				"available_quantity": remaining,
				"checked_out_to":     req.UserID,
				"current_request_id": requestID,
				"due_date":           dueDate,
			}
			if remaining == 0 {
				updates["status"] = model.GearStatusCheckedOut
			}
			if err := tx.Model(&model.Gear{}).
				Where("gear_id = ?", gear.GearID).
				Updates(updates).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		req.Status = model.RequestStatusApproved
		req.DueDate = &dueDate
		req.AdminNotes = notes
		req.ApprovedAt = &now
		req.ApprovedBy = &adminID
		req.Lines = lines
		return tx.Model(&model.GearRequest{}).
			Where("request_id = ?", requestID).
			Updates(map[string]interface{}{
				"status":      req.Status,
				"due_date":    dueDate,
				"admin_notes": notes,
				"approved_at": now,
				"approved_by": adminID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Reject(ctx context.Context, requestID, adminID, notes string) (*model.GearRequest, error) {
	var req model.GearRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ?", requestID).
			First(&req).Error; err != nil {
			return err
		}
		if req.Status != model.RequestStatusPending {
			return ErrRequestNotPending
		}
		req.Status = model.RequestStatusRejected
		req.AdminNotes = notes
		req.ApprovedBy = &adminID
		return tx.Model(&model.GearRequest{}).
			Where("request_id = ?", requestID).
			Updates(map[string]interface{}{
				"status":      model.RequestStatusRejected,
				"admin_notes": notes,
				"approved_by": adminID,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) Cancel(ctx context.Context, requestID, userID string) (*model.GearRequest, error) {
	var req model.GearRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("request_id = ? AND user_id = ?", requestID, userID).
			First(&req).Error; err != nil {
			return err
		}
		if req.Status != model.RequestStatusPending {
			return ErrRequestNotPending
		}
		req.Status = model.RequestStatusCancelled
		return tx.Model(&model.GearRequest{}).
			Where("request_id = ?", requestID).
			Update("status", model.RequestStatusCancelled).Error
	})
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) GetByID(ctx context.Context, id string) (*model.GearRequest, error) {
	var req model.GearRequest
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Lines").
		Preload("Lines.Gear").
		Where("request_id = ?", id).
		First(&req).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepo) List(ctx context.Context, q *dto.ListRequestsRequest) ([]model.GearRequest, int64, error) {
	var reqs []model.GearRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.GearRequest{})
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.UserID != "" {
		db = db.Where("user_id = ?", q.UserID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("User").Preload("Lines").Preload("Lines.Gear").
		Offset(q.GetOffset()).Limit(q.GetPageSize()).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *requestRepo) ListByUser(ctx context.Context, userID string, offset, limit int) ([]model.GearRequest, int64, error) {
	var reqs []model.GearRequest
	var total int64

	db := r.db.WithContext(ctx).Model(&model.GearRequest{}).Where("user_id = ?", userID)
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Preload("Lines").Preload("Lines.Gear").
		Offset(offset).Limit(limit).
		Order("created_at DESC").
		Find(&reqs).Error; err != nil {
		return nil, 0, err
	}
	return reqs, total, nil
}

func (r *requestRepo) ListApprovedByUser(ctx context.Context, userID string) ([]model.GearRequest, error) {
	var reqs []model.GearRequest
	err := r.db.WithContext(ctx).
		Preload("Lines").Preload("Lines.Gear").
		Where("user_id = ? AND status IN ?", userID,
			[]string{model.RequestStatusApproved, model.RequestStatusOverdue}).
		Order("due_date ASC").
		Find(&reqs).Error
	return reqs, err
}

func (r *requestRepo) MarkOverdue(ctx context.Context, cutoff time.Time) ([]model.GearRequest, error) {
	var overdue []model.GearRequest

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("status = ? AND due_date IS NOT NULL AND due_date < ?",
				model.RequestStatusApproved, cutoff).
			Find(&overdue).Error; err != nil {
			return err
		}
		if len(overdue) == 0 {
			return nil
		}
		ids := make([]string, len(overdue))
		for i := range overdue {
			ids[i] = overdue[i].RequestID
			overdue[i].Status = model.RequestStatusOverdue
		}
		return tx.Model(&model.GearRequest{}).
			Where("request_id IN ?", ids).
			Update("status", model.RequestStatusOverdue).Error
	})
	if err != nil {
		return nil, err
	}
	return overdue, nil
}

func (r *requestRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.GearRequest{}).Count(&n).Error
	return n, err
}

func (r *requestRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.GearRequest{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *requestRepo) CountDistinctRequesters(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.GearRequest{}).
		Distinct("user_id").Count(&n).Error
	return n, err
}
