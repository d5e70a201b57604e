package repository

import "gorm.io/gorm"

// Repository aggregates every table's data access behind one entry point.
type Repository struct {
	User         UserRepository
	Gear         GearRepository
	Request      RequestRepository
	Checkin      CheckinRepository
	Notification NotificationRepository
	Activity     ActivityRepository
	Push         PushRepository
}

// NewRepository wires the GORM implementations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		User:         NewUserRepo(db),
		Gear:         NewGearRepo(db),
		Request:      NewRequestRepo(db),
		Checkin:      NewCheckinRepo(db),
		Notification: NewNotificationRepo(db),
		Activity:     NewActivityRepo(db),
		Push:         NewPushRepo(db),
	}
}
