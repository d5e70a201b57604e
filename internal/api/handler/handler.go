package handler

import "nest/backend/internal/service"

// Handler aggregates the HTTP handlers.
type Handler struct {
	Auth         *AuthHandler
	User         *UserHandler
	Gear         *GearHandler
	Request      *RequestHandler
	Checkin      *CheckinHandler
	Notification *NotificationHandler
	Dashboard    *DashboardHandler
	Export       *ExportHandler
	Admin        *AdminHandler
}

// NewHandler creates the handler aggregate.
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Auth:         NewAuthHandler(svc.Auth),
		User:         NewUserHandler(svc.User),
		Gear:         NewGearHandler(svc.Gear),
		Request:      NewRequestHandler(svc.Request),
		Checkin:      NewCheckinHandler(svc.Checkin),
		Notification: NewNotificationHandler(svc.Notification),
		Dashboard:    NewDashboardHandler(svc.Dashboard),
		Export:       NewExportHandler(svc.Export),
		Admin:        NewAdminHandler(svc.Gear, svc.Request),
	}
}
