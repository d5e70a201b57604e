package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
)

func setupTestGearService() (*GearService, *testEnv) {
	env := newTestEnv()
	return NewGearService(env.gears, env.activity, env.publisher, zap.NewNop()), env
}

func intPtr(n int) *int       { return &n }
func strPtr(s string) *string { return &s }

func TestCreateGear_StartsFullyAvailable(t *testing.T) {
	svc, env := setupTestGearService()

	gear, err := svc.Create(context.Background(), "admin-1", &dto.CreateGearRequest{
		Name:     "Canon R5",
		Quantity: 4,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if gear.AvailableQuantity != 4 {
		t.Errorf("expected available 4, got %d", gear.AvailableQuantity)
	}
	if gear.Status != model.GearStatusAvailable {
		t.Errorf("expected status Available, got %q", gear.Status)
	}
	if n := env.publisher.count("gears", "INSERT"); n != 1 {
		t.Errorf("expected exactly 1 gears INSERT event, got %d", n)
	}
}

func TestCreateGear_DuplicateSerial(t *testing.T) {
	svc, _ := setupTestGearService()

	if _, err := svc.Create(context.Background(), "admin-1", &dto.CreateGearRequest{
		Name: "Canon R5", Quantity: 1, SerialNumber: "SN-001",
	}); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := svc.Create(context.Background(), "admin-1", &dto.CreateGearRequest{
		Name: "Canon R5 (2)", Quantity: 1, SerialNumber: "SN-001",
	})
	if !errors.Is(err, ErrSerialTaken) {
		t.Errorf("expected ErrSerialTaken, got %v", err)
	}
}

func TestUpdateGear_QuantityDeltaClamped(t *testing.T) {
	svc, env := setupTestGearService()
	gear := env.seedGear("Camera", 5)
	gear.AvailableQuantity = 2 // 3 units out on loan

	// Shrinking 5 -> 3 removes 2 available units.
	updated, err := svc.Update(context.Background(), "admin-1", gear.GearID, &dto.UpdateGearRequest{
		Quantity: intPtr(3),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.AvailableQuantity != 0 {
		t.Errorf("expected available 0, got %d", updated.AvailableQuantity)
	}

	// Shrinking further cannot push availability below zero.
	updated, err = svc.Update(context.Background(), "admin-1", gear.GearID, &dto.UpdateGearRequest{
		Quantity: intPtr(1),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.AvailableQuantity != 0 {
		t.Errorf("availability went negative: %d", updated.AvailableQuantity)
	}
}

func TestUpdateGear_StatusChangeLogged(t *testing.T) {
	svc, env := setupTestGearService()
	gear := env.seedGear("Camera", 1)

	if _, err := svc.Update(context.Background(), "admin-1", gear.GearID, &dto.UpdateGearRequest{
		Status: strPtr(model.GearStatusUnderRepair),
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	found := false
	for _, entry := range env.activity.entries {
		if entry.Action == model.ActivityStatusChange {
			found = true
		}
	}
	if !found {
		t.Error("status change not recorded in activity log")
	}
}

func TestDeleteGear_InUse(t *testing.T) {
	svc, env := setupTestGearService()
	gear := env.seedGear("Camera", 3)
	gear.AvailableQuantity = 1

	if err := svc.Delete(context.Background(), "admin-1", gear.GearID); !errors.Is(err, ErrGearInUse) {
		t.Errorf("expected ErrGearInUse, got %v", err)
	}
}

func TestImportCSV_SkipsInvalidRows(t *testing.T) {
	svc, env := setupTestGearService()

	csv := strings.Join([]string{
		"name,category,description,status,quantity,available_quantity,serial_number,image_url",
		"Canon R5,Camera,,Available,2,2,SN-100,",
		",Camera,,Available,1,1,,",     // missing name
		"Tripod,Support,,Available,0,0,,", // bad quantity
	}, "\n")

	result, err := svc.ImportCSV(context.Background(), strings.NewReader(csv))
	if err != nil {
		t.Fatalf("ImportCSV failed: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("expected 1 imported, got %d", result.Imported)
	}
	if result.Skipped != 2 {
		t.Errorf("expected 2 skipped, got %d", result.Skipped)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("expected 2 row errors, got %d", len(result.Errors))
	}
	if result.Errors[0].Row != 2 {
		t.Errorf("expected first error on row 2, got %d", result.Errors[0].Row)
	}
	if len(env.gears.gears) != 1 {
		t.Errorf("expected 1 gear persisted, got %d", len(env.gears.gears))
	}
}

func TestGearCSV_RoundTrip(t *testing.T) {
	svc, env := setupTestGearService()
	env.seedGear("Camera", 2)
	env.seedGear("Tripod", 1)

	var buf bytes.Buffer
	if err := svc.ExportCSV(context.Background(), &buf); err != nil {
		t.Fatalf("ExportCSV failed: %v", err)
	}

	dst, _ := setupTestGearService()
	result, err := dst.ImportCSV(context.Background(), &buf)
	if err != nil {
		t.Fatalf("re-import failed: %v", err)
	}
	if result.Imported != 2 || result.Skipped != 0 {
		t.Errorf("round trip lost rows: imported %d, skipped %d", result.Imported, result.Skipped)
	}
}

func TestQRCode_EncodesPNG(t *testing.T) {
	svc, env := setupTestGearService()
	gear := env.seedGear("Camera", 1)

	png, err := svc.QRCode(context.Background(), gear.GearID, 0)
	if err != nil {
		t.Fatalf("QRCode failed: %v", err)
	}
	if !bytes.HasPrefix(png, []byte("\x89PNG")) {
		t.Error("expected PNG output")
	}
}

func TestLookup_ResolvesAllForms(t *testing.T) {
	svc, env := setupTestGearService()
	gear := env.seedGear("Camera", 1)
	serial := "SN-200"
	gear.SerialNumber = &serial

	byLabel, err := svc.Lookup(context.Background(), qrPrefix+gear.GearID)
	if err != nil || byLabel.GearID != gear.GearID {
		t.Errorf("lookup by label failed: %v", err)
	}
	byID, err := svc.Lookup(context.Background(), gear.GearID)
	if err != nil || byID.GearID != gear.GearID {
		t.Errorf("lookup by id failed: %v", err)
	}
	bySerial, err := svc.Lookup(context.Background(), "SN-200")
	if err != nil || bySerial.GearID != gear.GearID {
		t.Errorf("lookup by serial failed: %v", err)
	}
	if _, err := svc.Lookup(context.Background(), "no-such-code"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("expected ErrRecordNotFound, got %v", err)
	}
}

func TestRecomputeAvailability_PublishesFixes(t *testing.T) {
	svc, env := setupTestGearService()
	env.gears.fixes = []dto.AvailabilityFix{
		{GearID: "gear-1", Name: "Camera", Previous: 3, Computed: 2},
	}

	fixes, err := svc.RecomputeAvailability(context.Background(), "admin-1")
	if err != nil {
		t.Fatalf("RecomputeAvailability failed: %v", err)
	}
	if len(fixes) != 1 {
		t.Fatalf("expected 1 fix, got %d", len(fixes))
	}
	if n := env.publisher.count("gears", "UPDATE"); n != 1 {
		t.Errorf("expected 1 gears UPDATE event, got %d", n)
	}
}
