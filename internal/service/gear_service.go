package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/skip2/go-qrcode"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// qrPrefix is the scheme encoded into gear QR labels so a scanner can tell
// gear codes apart from arbitrary URLs.
const qrPrefix = "nest:gear:"

// GearService handles the inventory: CRUD, CSV import/export, QR labels
// and the availability recompute.
type GearService struct {
	gears     repository.GearRepository
	activity  repository.ActivityRepository
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewGearService creates the gear service.
func NewGearService(gears repository.GearRepository, activity repository.ActivityRepository, publisher ChangePublisher, logger *zap.Logger) *GearService {
	return &GearService{gears: gears, activity: activity, publisher: publisher, logger: logger}
}

// Create adds a gear item. New gear starts fully available.
func (s *GearService) Create(ctx context.Context, actorID string, req *dto.CreateGearRequest) (*model.Gear, error) {
	gear := &model.Gear{
		Name:              req.Name,
		Category:          req.Category,
		Description:       req.Description,
		Status:            model.GearStatusAvailable,
		Quantity:          req.Quantity,
		AvailableQuantity: req.Quantity,
		ImageURL:          req.ImageURL,
	}
	if req.SerialNumber != "" {
		if _, err := s.gears.GetBySerial(ctx, req.SerialNumber); err == nil {
			return nil, ErrSerialTaken
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		serial := req.SerialNumber
		gear.SerialNumber = &serial
	}

	if err := s.gears.Create(ctx, gear); err != nil {
		return nil, err
	}

	s.publisher.Publish("gears", "INSERT", gear.GearID)
	s.logAction(ctx, actorID, gear.GearID, model.ActivityMaintenance, gear.Status, "added to inventory")
	return gear, nil
}

// Get returns one gear item with its current holder preloaded.
func (s *GearService) Get(ctx context.Context, id string) (*model.Gear, error) {
	return s.gears.GetByID(ctx, id)
}

// List returns a filtered, paginated gear page.
func (s *GearService) List(ctx context.Context, req *dto.ListGearsRequest) ([]model.Gear, int64, error) {
	return s.gears.List(ctx, req)
}

// Update edits gear fields. A quantity change shifts available_quantity by
// the same delta, clamped to [0, quantity]. Status changes land in the
// activity log.
func (s *GearService) Update(ctx context.Context, actorID, id string, req *dto.UpdateGearRequest) (*model.Gear, error) {
	gear, err := s.gears.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	prevStatus := gear.Status

	if req.Name != nil {
		gear.Name = *req.Name
	}
	if req.Category != nil {
		gear.Category = *req.Category
	}
	if req.Description != nil {
		gear.Description = *req.Description
	}
	if req.Status != nil {
		gear.Status = *req.Status
	}
	if req.Quantity != nil {
		delta := *req.Quantity - gear.Quantity
		gear.Quantity = *req.Quantity
		gear.AvailableQuantity += delta
		if gear.AvailableQuantity < 0 {
			gear.AvailableQuantity = 0
		}
		if gear.AvailableQuantity > gear.Quantity {
			gear.AvailableQuantity = gear.Quantity
		}
	}
	if req.SerialNumber != nil {
		if *req.SerialNumber == "" {
			gear.SerialNumber = nil
		} else {
			if other, err := s.gears.GetBySerial(ctx, *req.SerialNumber); err == nil && other.GearID != gear.GearID {
				return nil, ErrSerialTaken
			} else if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, err
			}
			serial := *req.SerialNumber
			gear.SerialNumber = &serial
		}
	}
	if req.ImageURL != nil {
		gear.ImageURL = *req.ImageURL
	}

	if err := s.gears.Update(ctx, gear); err != nil {
		return nil, err
	}

	s.publisher.Publish("gears", "UPDATE", gear.GearID)
	if gear.Status != prevStatus {
		s.logAction(ctx, actorID, gear.GearID, model.ActivityStatusChange, gear.Status,
			fmt.Sprintf("%s -> %s", prevStatus, gear.Status))
	}
	return gear, nil
}

// Delete soft-deletes gear. Gear with units still checked out is refused.
func (s *GearService) Delete(ctx context.Context, actorID, id string) error {
	gear, err := s.gears.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if gear.AvailableQuantity < gear.Quantity {
		return ErrGearInUse
	}
	if err := s.gears.Delete(ctx, id); err != nil {
		return err
	}
	s.publisher.Publish("gears", "DELETE", id)
	s.logAction(ctx, actorID, id, model.ActivityMaintenance, model.GearStatusRetired, "removed from inventory")
	return nil
}

// ── CSV import/export ──

// ImportCSV ingests a gear CSV. Rows are validated individually: bad rows
// are reported and skipped, good rows are inserted in one batch.
func (s *GearService) ImportCSV(ctx context.Context, r io.Reader) (*dto.ImportResult, error) {
	var rows []*dto.GearCSVRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}

	result := &dto.ImportResult{}
	var gears []model.Gear

	for i, row := range rows {
		rowNum := i + 1
		if strings.TrimSpace(row.Name) == "" {
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportError{Row: rowNum, Reason: "name is required"})
			continue
		}
		if row.Quantity < 1 {
			result.Skipped++
			result.Errors = append(result.Errors, dto.ImportError{Row: rowNum, Reason: "quantity must be at least 1"})
			continue
		}

		status := row.Status
		if status == "" {
			status = model.GearStatusAvailable
		}
		available := row.AvailableQuantity
		if available <= 0 || available > row.Quantity {
			available = row.Quantity
		}

		gear := model.Gear{
			Name:              strings.TrimSpace(row.Name),
			Category:          row.Category,
			Description:       row.Description,
			Status:            status,
			Quantity:          row.Quantity,
			AvailableQuantity: available,
			ImageURL:          row.ImageURL,
		}
		if row.SerialNumber != "" {
			serial := row.SerialNumber
			gear.SerialNumber = &serial
		}
		gears = append(gears, gear)
	}

	if err := s.gears.BatchCreate(ctx, gears); err != nil {
		return nil, err
	}
	result.Imported = len(gears)

	if result.Imported > 0 {
		s.publisher.Publish("gears", "INSERT", "*")
		s.logger.Info("gear csv imported",
			zap.Int("imported", result.Imported),
			zap.Int("skipped", result.Skipped))
	}
	return result, nil
}

// ExportCSV writes the full inventory as CSV. The column schema matches the
// import format, so an export can be re-imported as-is.
func (s *GearService) ExportCSV(ctx context.Context, w io.Writer) error {
	gears, err := s.gears.ListAll(ctx)
	if err != nil {
		return err
	}

	rows := make([]*dto.GearCSVRow, len(gears))
	for i := range gears {
		g := &gears[i]
		row := &dto.GearCSVRow{
			Name:              g.Name,
			Category:          g.Category,
			Description:       g.Description,
			Status:            g.Status,
			Quantity:          g.Quantity,
			AvailableQuantity: g.AvailableQuantity,
			ImageURL:          g.ImageURL,
		}
		if g.SerialNumber != nil {
			row.SerialNumber = *g.SerialNumber
		}
		rows[i] = row
	}
	return gocsv.Marshal(rows, w)
}

// ── QR labels ──

// QRCode renders a PNG label for one gear item.
func (s *GearService) QRCode(ctx context.Context, id string, size int) ([]byte, error) {
	gear, err := s.gears.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if size <= 0 {
		size = 256
	}
	return qrcode.Encode(qrPrefix+gear.GearID, qrcode.Medium, size)
}

// Lookup resolves a scanned code to a gear item. Accepts the label form
// ("nest:gear:<id>"), a bare gear ID, or a serial number.
func (s *GearService) Lookup(ctx context.Context, code string) (*model.Gear, error) {
	code = strings.TrimSpace(code)
	if id, ok := strings.CutPrefix(code, qrPrefix); ok {
		return s.gears.GetByID(ctx, id)
	}
	if gear, err := s.gears.GetByID(ctx, code); err == nil {
		return gear, nil
	}
	return s.gears.GetBySerial(ctx, code)
}

// ── Availability recompute ──

// RecomputeAvailability re-derives every gear's available_quantity from
// open request lines and reports what changed.
func (s *GearService) RecomputeAvailability(ctx context.Context, actorID string) ([]dto.AvailabilityFix, error) {
	fixes, err := s.gears.RecomputeAvailability(ctx)
	if err != nil {
		return nil, err
	}
	for _, fix := range fixes {
		s.publisher.Publish("gears", "UPDATE", fix.GearID)
		s.logAction(ctx, actorID, fix.GearID, model.ActivityMaintenance, "",
			fmt.Sprintf("availability recomputed: %d -> %d", fix.Previous, fix.Computed))
	}
	if len(fixes) > 0 {
		s.logger.Info("availability recomputed", zap.Int("fixed", len(fixes)))
	}
	return fixes, nil
}

func (s *GearService) logAction(ctx context.Context, actorID, gearID, action, status, notes string) {
	entry := &model.ActivityLog{
		Action: action,
		Status: status,
		Notes:  notes,
	}
	if actorID != "" {
		entry.UserID = &actorID
	}
	if gearID != "" {
		entry.GearID = &gearID
	}
	if err := s.activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity failed", zap.Error(err))
	}
}
