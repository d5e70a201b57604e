package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

func setupTestCheckinService() (*CheckinService, *RequestService, *testEnv) {
	env := newTestEnv()
	n := env.newNotifier()
	checkins := NewCheckinService(env.repo, n, env.publisher, zap.NewNop())
	requests := NewRequestService(env.repo, n, env.publisher, zap.NewNop())
	return checkins, requests, env
}

// checkedOutFixture seeds an admin, a user and gear with `quantity` units
// all checked out to the user, and returns the approved request.
func checkedOutFixture(t *testing.T, requests *RequestService, env *testEnv, quantity int) (*model.User, *model.User, *model.Gear, *model.GearRequest) {
	t.Helper()
	admin := env.seedUser("Admin One", model.RoleAdmin)
	user := env.seedUser("Regular User", model.RoleUser)
	gear := env.seedGear("Camera", quantity)

	req, err := requests.Create(context.Background(), user.UserID, &dto.CreateRequestRequest{
		Reason: "field shoot",
		Lines:  []dto.RequestLine{{GearID: gear.GearID, Quantity: quantity}},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	due := time.Now().Add(48 * time.Hour).Format(time.RFC3339)
	if _, err := requests.Approve(context.Background(), admin.UserID, req.RequestID, &dto.ApproveRequestRequest{DueDate: due}); err != nil {
		t.Fatalf("approve request: %v", err)
	}
	return admin, user, gear, req
}

func TestCreateCheckin_Success(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 3)

	checkin, err := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID,
		GearID:    gear.GearID,
		Quantity:  2,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if checkin.Status != model.CheckinStatusPending {
		t.Errorf("expected status %q, got %q", model.CheckinStatusPending, checkin.Status)
	}
	if checkin.Condition != model.ConditionGood {
		t.Errorf("expected default condition Good, got %q", checkin.Condition)
	}

	// Inventory does not move until an admin approves.
	if gear.AvailableQuantity != 0 {
		t.Errorf("availability moved before approval: %d", gear.AvailableQuantity)
	}
	if !containsType(env.notifications.forUser(admin.UserID), model.NotificationTypeCheckinPending) {
		t.Error("admin was not notified about the pending checkin")
	}
	if n := env.publisher.count("checkins", "INSERT"); n != 1 {
		t.Errorf("expected exactly 1 checkins INSERT event, got %d", n)
	}
}

func TestCreateCheckin_ExcessReturn(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	_, user, gear, req := checkedOutFixture(t, requests, env, 3)

	_, err := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID,
		GearID:    gear.GearID,
		Quantity:  4,
	})

	var excess *repository.ExcessReturnError
	if !errors.As(err, &excess) {
		t.Fatalf("expected ExcessReturnError, got %v", err)
	}
	if excess.Outstanding != 3 || excess.Returned != 4 {
		t.Errorf("unexpected error detail: %+v", excess)
	}
	if len(env.checkins.checkins) != 0 {
		t.Error("a rejected checkin was persisted")
	}
}

func TestCreateCheckin_PendingCountsAgainstOutstanding(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	_, user, gear, req := checkedOutFixture(t, requests, env, 3)

	if _, err := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 2,
	}); err != nil {
		t.Fatalf("first checkin failed: %v", err)
	}

	// 2 of 3 already queued: only 1 more may be filed.
	_, err := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 2,
	})
	var excess *repository.ExcessReturnError
	if !errors.As(err, &excess) {
		t.Fatalf("expected ExcessReturnError, got %v", err)
	}
	if excess.Outstanding != 1 {
		t.Errorf("expected outstanding 1, got %d", excess.Outstanding)
	}
}

func TestCreateCheckin_RequestNotApproved(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	user := env.seedUser("Regular User", model.RoleUser)
	gear := env.seedGear("Camera", 2)

	// Still pending: nothing is checked out, so there is nothing to return.
	req, err := requests.Create(context.Background(), user.UserID, &dto.CreateRequestRequest{
		Reason: "field shoot",
		Lines:  []dto.RequestLine{{GearID: gear.GearID, Quantity: 2}},
	})
	if err != nil {
		t.Fatalf("create request: %v", err)
	}

	_, err = svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 1,
	})
	if !errors.Is(err, repository.ErrRequestNotCheckedOut) {
		t.Fatalf("expected ErrRequestNotCheckedOut, got %v", err)
	}
	if len(env.checkins.checkins) != 0 {
		t.Error("a checkin was persisted against a pending request")
	}
	if gear.AvailableQuantity != 2 {
		t.Errorf("availability moved: %d", gear.AvailableQuantity)
	}
}

func TestCreateCheckin_NotRequestOwner(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	_, _, gear, req := checkedOutFixture(t, requests, env, 2)
	other := env.seedUser("Other User", model.RoleUser)

	_, err := svc.Create(context.Background(), other.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 1,
	})
	if !errors.Is(err, repository.ErrNotRequestOwner) {
		t.Fatalf("expected ErrNotRequestOwner, got %v", err)
	}
	if len(env.checkins.checkins) != 0 {
		t.Error("a checkin was persisted for a non-owner")
	}
}

func TestApproveCheckin_RestoresAvailability(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 3)

	checkin, err := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 3,
	})
	if err != nil {
		t.Fatalf("create checkin: %v", err)
	}

	approved, err := svc.Approve(context.Background(), admin.UserID, checkin.CheckinID)
	if err != nil {
		t.Fatalf("Approve failed: %v", err)
	}
	if approved.Status != model.CheckinStatusCompleted {
		t.Errorf("expected status Completed, got %q", approved.Status)
	}

	if gear.AvailableQuantity != 3 {
		t.Errorf("expected available 3, got %d", gear.AvailableQuantity)
	}
	if gear.Status != model.GearStatusAvailable {
		t.Errorf("expected status Available, got %q", gear.Status)
	}
	if gear.CheckedOutTo != nil || gear.CurrentRequestID != nil || gear.DueDate != nil {
		t.Error("checkout fields not cleared after full return")
	}
	if env.requests.requests[req.RequestID].Status != model.RequestStatusCompleted {
		t.Errorf("request not completed: %q", env.requests.requests[req.RequestID].Status)
	}
	if !containsType(env.notifications.forUser(user.UserID), model.NotificationTypeCheckinApproved) {
		t.Error("user was not notified about the approval")
	}
}

func TestApproveCheckin_PartialReturnKeepsRequestOpen(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 3)

	checkin, _ := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 1,
	})
	if _, err := svc.Approve(context.Background(), admin.UserID, checkin.CheckinID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if gear.AvailableQuantity != 1 {
		t.Errorf("expected available 1, got %d", gear.AvailableQuantity)
	}
	if gear.Status != model.GearStatusAvailable {
		t.Errorf("partially returned gear should be Available again, got %q", gear.Status)
	}
	if gear.CheckedOutTo == nil {
		t.Error("checkout fields cleared while units are still out")
	}
	if env.requests.requests[req.RequestID].Status != model.RequestStatusApproved {
		t.Errorf("request closed with units still out: %q", env.requests.requests[req.RequestID].Status)
	}
}

func TestApproveCheckin_DamagedRoutesToRepair(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 1)

	checkin, _ := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 1,
		Condition: model.ConditionDamaged,
	})
	if _, err := svc.Approve(context.Background(), admin.UserID, checkin.CheckinID); err != nil {
		t.Fatalf("Approve failed: %v", err)
	}

	if gear.Status != model.GearStatusUnderRepair {
		t.Errorf("damaged return should route gear to repair, got %q", gear.Status)
	}
}

func TestApproveCheckin_NotPending(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 1)

	checkin, _ := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 1,
	})
	if _, err := svc.Approve(context.Background(), admin.UserID, checkin.CheckinID); err != nil {
		t.Fatalf("first Approve failed: %v", err)
	}
	if _, err := svc.Approve(context.Background(), admin.UserID, checkin.CheckinID); !errors.Is(err, repository.ErrCheckinNotPending) {
		t.Errorf("expected ErrCheckinNotPending, got %v", err)
	}
	if gear.AvailableQuantity != 1 {
		t.Errorf("double approval restored availability twice: %d", gear.AvailableQuantity)
	}
}

func TestRejectCheckin_KeepsGearOut(t *testing.T) {
	svc, requests, env := setupTestCheckinService()
	admin, user, gear, req := checkedOutFixture(t, requests, env, 2)

	checkin, _ := svc.Create(context.Background(), user.UserID, &dto.CreateCheckinRequest{
		RequestID: req.RequestID, GearID: gear.GearID, Quantity: 2,
	})

	rejected, err := svc.Reject(context.Background(), admin.UserID, checkin.CheckinID, "items not received")
	if err != nil {
		t.Fatalf("Reject failed: %v", err)
	}
	if rejected.Status != model.CheckinStatusRejected {
		t.Errorf("expected status Rejected, got %q", rejected.Status)
	}
	if gear.AvailableQuantity != 0 {
		t.Errorf("rejected checkin moved inventory: %d", gear.AvailableQuantity)
	}
}
