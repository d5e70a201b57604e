package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// CheckinService handles gear returns: users file a checkin, admins settle
// it. Inventory only moves when an admin approves.
type CheckinService struct {
	repo      *repository.Repository
	notifier  *notifier
	publisher ChangePublisher
	logger    *zap.Logger
}

// NewCheckinService creates the checkin service.
func NewCheckinService(repo *repository.Repository, n *notifier, publisher ChangePublisher, logger *zap.Logger) *CheckinService {
	return &CheckinService{repo: repo, notifier: n, publisher: publisher, logger: logger}
}

// Create files a return for admin approval. The quantity is validated
// against what the request line still has outstanding, minus any returns
// already waiting for approval.
func (s *CheckinService) Create(ctx context.Context, userID string, req *dto.CreateCheckinRequest) (*model.Checkin, error) {
	condition := req.Condition
	if condition == "" {
		condition = model.ConditionGood
	}

	checkin := &model.Checkin{
		UserID:    userID,
		GearID:    req.GearID,
		RequestID: req.RequestID,
		Quantity:  req.Quantity,
		Condition: condition,
		Notes:     req.Notes,
	}
	if err := s.repo.Checkin.Create(ctx, checkin); err != nil {
		return nil, err
	}

	s.publisher.Publish("checkins", "INSERT", checkin.CheckinID)

	if admins, err := s.repo.User.ListAdmins(ctx); err == nil {
		s.notifier.sendToAll(ctx, admins, notice{
			ntype:       model.NotificationTypeCheckinPending,
			title:       "Check-in awaiting approval",
			message:     fmt.Sprintf("A return of %d item(s) in %s condition needs review.", req.Quantity, condition),
			relatedType: "checkin",
			relatedID:   checkin.CheckinID,
		})
	}

	return checkin, nil
}

// Approve settles a pending checkin: availability is restored and the
// request completes once every line is back.
func (s *CheckinService) Approve(ctx context.Context, adminID, checkinID string) (*model.Checkin, error) {
	checkin, err := s.repo.Checkin.Approve(ctx, checkinID, adminID)
	if err != nil {
		return nil, err
	}

	s.publisher.Publish("checkins", "UPDATE", checkinID)
	s.publisher.Publish("gears", "UPDATE", checkin.GearID)

	gearID := checkin.GearID
	requestID := checkin.RequestID
	entry := &model.ActivityLog{
		UserID:    &checkin.UserID,
		GearID:    &gearID,
		RequestID: &requestID,
		Action:    model.ActivityCheckin,
		Status:    checkin.Condition,
		Notes:     fmt.Sprintf("returned %d", checkin.Quantity),
	}
	if err := s.repo.Activity.Append(ctx, entry); err != nil {
		s.logger.Error("append activity failed", zap.Error(err))
	}

	if user, err := s.repo.User.GetByID(ctx, checkin.UserID); err == nil {
		s.notifier.send(ctx, notice{
			user:        user,
			ntype:       model.NotificationTypeCheckinApproved,
			title:       "Check-in approved",
			message:     fmt.Sprintf("Your return of %d item(s) was accepted.", checkin.Quantity),
			relatedType: "checkin",
			relatedID:   checkinID,
		})
	}

	s.logger.Info("checkin approved",
		zap.String("checkin_id", checkinID),
		zap.String("admin_id", adminID))
	return checkin, nil
}

// Reject declines a pending checkin; the gear stays checked out.
func (s *CheckinService) Reject(ctx context.Context, adminID, checkinID, notes string) (*model.Checkin, error) {
	checkin, err := s.repo.Checkin.Reject(ctx, checkinID, adminID, notes)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish("checkins", "UPDATE", checkinID)
	return checkin, nil
}

// Get returns one checkin.
func (s *CheckinService) Get(ctx context.Context, id string) (*model.Checkin, error) {
	return s.repo.Checkin.GetByID(ctx, id)
}

// List returns a filtered, paginated checkin page (admin view).
func (s *CheckinService) List(ctx context.Context, req *dto.ListCheckinsRequest) ([]model.Checkin, int64, error) {
	return s.repo.Checkin.List(ctx, req)
}

// ListMine returns the caller's own checkins.
func (s *CheckinService) ListMine(ctx context.Context, userID string, page *dto.PaginationRequest) ([]model.Checkin, int64, error) {
	return s.repo.Checkin.ListByUser(ctx, userID, page.GetOffset(), page.GetPageSize())
}
