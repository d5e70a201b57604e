package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
)

// GearRepository is the gears table access interface.
type GearRepository interface {
	Create(ctx context.Context, gear *model.Gear) error
	BatchCreate(ctx context.Context, gears []model.Gear) error
	GetByID(ctx context.Context, id string) (*model.Gear, error)
	GetBySerial(ctx context.Context, serial string) (*model.Gear, error)
	List(ctx context.Context, q *dto.ListGearsRequest) ([]model.Gear, int64, error)
	ListAll(ctx context.Context) ([]model.Gear, error)
	Update(ctx context.Context, gear *model.Gear) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
	CountByStatus(ctx context.Context, status string) (int64, error)
	SumQuantities(ctx context.Context) (total int64, available int64, err error)
	RecomputeAvailability(ctx context.Context) ([]dto.AvailabilityFix, error)
}

type gearRepo struct {
	db *gorm.DB
}

// NewGearRepo creates the GORM-backed GearRepository.
func NewGearRepo(db *gorm.DB) GearRepository {
	return &gearRepo{db: db}
}

func (r *gearRepo) Create(ctx context.Context, gear *model.Gear) error {
	return r.db.WithContext(ctx).Create(gear).Error
}

func (r *gearRepo) BatchCreate(ctx context.Context, gears []model.Gear) error {
	if len(gears) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(gears, 100).Error
}

func (r *gearRepo) GetByID(ctx context.Context, id string) (*model.Gear, error) {
	var gear model.Gear
	err := r.db.WithContext(ctx).
		Preload("Holder").
		Where("gear_id = ?", id).
		First(&gear).Error
	if err != nil {
		return nil, err
	}
	return &gear, nil
}

func (r *gearRepo) GetBySerial(ctx context.Context, serial string) (*model.Gear, error) {
	var gear model.Gear
	err := r.db.WithContext(ctx).
		Where("serial_number = ?", serial).
		First(&gear).Error
	if err != nil {
		return nil, err
	}
	return &gear, nil
}

func (r *gearRepo) List(ctx context.Context, q *dto.ListGearsRequest) ([]model.Gear, int64, error) {
	var gears []model.Gear
	var total int64

	db := r.db.WithContext(ctx).Model(&model.Gear{})
	if q.Search != "" {
		like := "%" + q.Search + "%"
		db = db.Where("name ILIKE ? OR serial_number ILIKE ? OR description ILIKE ?", like, like, like)
	}
	if q.Category != "" {
		db = db.Where("category = ?", q.Category)
	}
	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.AvailableOnly {
		db = db.Where("available_quantity > 0 AND status NOT IN ?",
			[]string{model.GearStatusUnderRepair, model.GearStatusDamaged, model.GearStatusRetired})
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := db.Offset(q.GetOffset()).Limit(q.GetPageSize()).
		Order("name ASC").
		Find(&gears).Error; err != nil {
		return nil, 0, err
	}
	return gears, total, nil
}

func (r *gearRepo) ListAll(ctx context.Context) ([]model.Gear, error) {
	var gears []model.Gear
	err := r.db.WithContext(ctx).Order("name ASC").Find(&gears).Error
	return gears, err
}

func (r *gearRepo) Update(ctx context.Context, gear *model.Gear) error {
	return r.db.WithContext(ctx).Save(gear).Error
}

func (r *gearRepo) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("gear_id = ?", id).Delete(&model.Gear{}).Error
}

func (r *gearRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Gear{}).Count(&n).Error
	return n, err
}

func (r *gearRepo) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Gear{}).
		Where("status = ?", status).Count(&n).Error
	return n, err
}

func (r *gearRepo) SumQuantities(ctx context.Context) (int64, int64, error) {
	var row struct {
		Total     int64
		Available int64
	}
	err := r.db.WithContext(ctx).Model(&model.Gear{}).
		Select("COALESCE(SUM(quantity),0) AS total, COALESCE(SUM(available_quantity),0) AS available").
		Scan(&row).Error
	return row.Total, row.Available, err
}

// RecomputeAvailability rebuilds available_quantity for every gear from
// quantity minus the outstanding line items of open requests, inside one
// transaction with the gear rows locked. This is the surviving form of the
// source application's drift-fix utilities: availability is owned by this
// code, but a recompute endpoint remains for operators.
func (r *gearRepo) RecomputeAvailability(ctx context.Context) ([]dto.AvailabilityFix, error) {
	var fixes []dto.AvailabilityFix

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var gears []model.Gear
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Find(&gears).Error; err != nil {
			return err
		}

		type outstandingRow struct {
			GearID      string
			Outstanding int64
		}
		var rows []outstandingRow
		if err := tx.Model(&model.GearRequestGear{}).
			Select("gear_request_gears.gear_id, COALESCE(SUM(gear_request_gears.quantity - gear_request_gears.returned_quantity),0) AS outstanding").
			Joins("JOIN gear_requests ON gear_requests.request_id = gear_request_gears.request_id").
			Where("gear_requests.status IN ? AND gear_requests.deleted_at IS NULL",
				[]string{model.RequestStatusApproved, model.RequestStatusOverdue}).
			Group("gear_request_gears.gear_id").
			Scan(&rows).Error; err != nil {
			return err
		}

		outstanding := make(map[string]int64, len(rows))
		for _, row := range rows {
			outstanding[row.GearID] = row.Outstanding
		}

		for i := range gears {
			g := &gears[i]
			computed := g.Quantity - int(outstanding[g.GearID])
			if computed < 0 {
				computed = 0
			}
			if computed > g.Quantity {
				computed = g.Quantity
			}
			if computed == g.AvailableQuantity {
				continue
			}
			fixes = append(fixes, dto.AvailabilityFix{
				GearID:   g.GearID,
				Name:     g.Name,
				Previous: g.AvailableQuantity,
				Computed: computed,
			})
			if err := tx.Model(&model.Gear{}).
				Where("gear_id = ?", g.GearID).
				Update("available_quantity", computed).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fixes, nil
}
