package service

import (
	"context"
	"fmt"
	"io"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"nest/backend/internal/repository"
)

// ExportService produces the downloadable artifacts: the inventory
// workbook and the per-user due-date calendar feed.
type ExportService struct {
	gears    repository.GearRepository
	requests repository.RequestRepository
	logger   *zap.Logger
}

// NewExportService creates the export service.
func NewExportService(gears repository.GearRepository, requests repository.RequestRepository, logger *zap.Logger) *ExportService {
	return &ExportService{gears: gears, requests: requests, logger: logger}
}

// InventoryReport writes the full inventory as an .xlsx workbook.
func (s *ExportService) InventoryReport(ctx context.Context, w io.Writer) error {
	gears, err := s.gears.ListAll(ctx)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Inventory"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Name", "Category", "Status", "Quantity", "Available", "Serial Number", "Due Date"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		f.SetCellStyle(sheet, "A1", "G1", headerStyle)
	}

	for i := range gears {
		g := &gears[i]
		row := i + 2
		serial := ""
		if g.SerialNumber != nil {
			serial = *g.SerialNumber
		}
		due := ""
		if g.DueDate != nil {
			due = g.DueDate.Format("2006-01-02")
		}
		values := []interface{}{g.Name, g.Category, g.Status, g.Quantity, g.AvailableQuantity, serial, due}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			f.SetCellValue(sheet, cell, v)
		}
	}

	f.SetColWidth(sheet, "A", "A", 32)
	f.SetColWidth(sheet, "B", "C", 18)
	f.SetColWidth(sheet, "F", "G", 20)

	s.logger.Info("inventory report generated", zap.Int("rows", len(gears)))
	return f.Write(w)
}

// DueDateCalendar renders the caller's open checkout due dates as an
// iCalendar feed, one all-day event per request.
func (s *ExportService) DueDateCalendar(ctx context.Context, userID string) (string, error) {
	requests, err := s.requests.ListApprovedByUser(ctx, userID)
	if err != nil {
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//Nest//Gear Due Dates//EN")
	cal.SetName("Nest gear due dates")

	now := time.Now()
	for i := range requests {
		req := &requests[i]
		if req.DueDate == nil {
			continue
		}

		event := cal.AddEvent(fmt.Sprintf("request-%s@nest", req.RequestID))
		event.SetCreatedTime(now)
		event.SetDtStampTime(now)
		event.SetAllDayStartAt(*req.DueDate)
		event.SetAllDayEndAt(req.DueDate.Add(24 * time.Hour))

		items := 0
		for _, line := range req.Lines {
			items += line.Outstanding()
		}
		event.SetSummary(fmt.Sprintf("Return gear (%d item(s))", items))
		if req.Reason != "" {
			event.SetDescription(req.Reason)
		}
	}

	return cal.Serialize(), nil
}
