package service

import (
	"context"
	"math"

	"go.uber.org/zap"

	"nest/backend/internal/dto"
	"nest/backend/internal/model"
	"nest/backend/internal/repository"
)

// DashboardService computes the admin dashboard figures on demand from
// row counts. Nothing is cached or persisted.
type DashboardService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewDashboardService creates the dashboard service.
func NewDashboardService(repo *repository.Repository, logger *zap.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: logger}
}

// Stats gathers the counts and derived rates.
func (s *DashboardService) Stats(ctx context.Context) (*dto.DashboardStats, error) {
	stats := &dto.DashboardStats{}
	var err error

	if stats.Gear.Total, err = s.repo.Gear.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Gear.Available, err = s.repo.Gear.CountByStatus(ctx, model.GearStatusAvailable); err != nil {
		return nil, err
	}
	if stats.Gear.CheckedOut, err = s.repo.Gear.CountByStatus(ctx, model.GearStatusCheckedOut); err != nil {
		return nil, err
	}
	if stats.Gear.UnderRepair, err = s.repo.Gear.CountByStatus(ctx, model.GearStatusUnderRepair); err != nil {
		return nil, err
	}
	if stats.Gear.Retired, err = s.repo.Gear.CountByStatus(ctx, model.GearStatusRetired); err != nil {
		return nil, err
	}

	if stats.Users.Total, err = s.repo.User.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Users.Active, err = s.repo.User.CountByStatus(ctx, model.UserStatusActive); err != nil {
		return nil, err
	}
	if stats.Users.Admins, err = s.repo.User.CountActiveAdmins(ctx); err != nil {
		return nil, err
	}
	if stats.Users.Engaged, err = s.repo.Request.CountDistinctRequesters(ctx); err != nil {
		return nil, err
	}

	if stats.Requests.Total, err = s.repo.Request.Count(ctx); err != nil {
		return nil, err
	}
	if stats.Requests.Pending, err = s.repo.Request.CountByStatus(ctx, model.RequestStatusPending); err != nil {
		return nil, err
	}
	if stats.Requests.Approved, err = s.repo.Request.CountByStatus(ctx, model.RequestStatusApproved); err != nil {
		return nil, err
	}
	if stats.Requests.Rejected, err = s.repo.Request.CountByStatus(ctx, model.RequestStatusRejected); err != nil {
		return nil, err
	}
	if stats.Requests.Overdue, err = s.repo.Request.CountByStatus(ctx, model.RequestStatusOverdue); err != nil {
		return nil, err
	}

	if stats.Checkins.PendingApproval, err = s.repo.Checkin.CountByStatus(ctx, model.CheckinStatusPending); err != nil {
		return nil, err
	}
	if stats.Notifications.Unread, err = s.repo.Notification.CountAllUnread(ctx); err != nil {
		return nil, err
	}

	totalUnits, availableUnits, err := s.repo.Gear.SumQuantities(ctx)
	if err != nil {
		return nil, err
	}
	stats.UtilizationRate = rate(totalUnits-availableUnits, totalUnits)

	// Overdue requests were approved once, so they count on both sides.
	decided := stats.Requests.Approved + stats.Requests.Rejected + stats.Requests.Overdue
	stats.ApprovalRate = rate(stats.Requests.Approved+stats.Requests.Overdue, decided)
	stats.EngagementRate = rate(stats.Users.Engaged, stats.Users.Active)

	return stats, nil
}

// rate is part/whole as a percentage rounded to one decimal. Zero whole
// yields zero rather than NaN.
func rate(part, whole int64) float64 {
	if whole <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(whole)*1000) / 10
}
