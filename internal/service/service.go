package service

import (
	"go.uber.org/zap"

	"nest/backend/config"
	"nest/backend/internal/repository"
	"nest/backend/pkg/jwt"
	"nest/backend/pkg/mail"
	"nest/backend/pkg/redis"
)

// ChangePublisher fans a table-level change event out to realtime
// subscribers. Each committed mutation publishes exactly one event.
type ChangePublisher interface {
	Publish(table, action, id string)
}

// NopPublisher discards events. Used when the realtime hub is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(table, action, id string) {}

// Service aggregates the business logic layer.
type Service struct {
	Auth         *AuthService
	User         *UserService
	Gear         *GearService
	Request      *RequestService
	Checkin      *CheckinService
	Notification *NotificationService
	Dashboard    *DashboardService
	Export       *ExportService
}

// NewService wires every service against the shared repositories,
// token manager, Redis client, mailer and realtime publisher.
func NewService(
	repo *repository.Repository,
	rdb *redis.Client,
	jwtMgr *jwt.Manager,
	mailer *mail.Mailer,
	cfg *config.Config,
	logger *zap.Logger,
	publisher ChangePublisher,
) *Service {
	if publisher == nil {
		publisher = NopPublisher{}
	}

	n := newNotifier(repo.Notification, repo.Push, mailer, publisher, logger)

	return &Service{
		Auth:         NewAuthService(repo.User, rdb, jwtMgr, logger),
		User:         NewUserService(repo.User, n, publisher, logger),
		Gear:         NewGearService(repo.Gear, repo.Activity, publisher, logger),
		Request:      NewRequestService(repo, n, publisher, logger),
		Checkin:      NewCheckinService(repo, n, publisher, logger),
		Notification: NewNotificationService(repo.Notification, repo.Activity, publisher, logger),
		Dashboard:    NewDashboardService(repo, logger),
		Export:       NewExportService(repo.Gear, repo.Request, logger),
	}
}
