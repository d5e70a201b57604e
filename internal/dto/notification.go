package dto

// ListNotificationsRequest is the notification listing query.
type ListNotificationsRequest struct {
	PaginationRequest
	UnreadOnly bool `form:"unread_only"`
}

// ListActivitiesRequest is the activity log query.
type ListActivitiesRequest struct {
	PaginationRequest
	Action string `form:"action"  binding:"omitempty,max=50"`
	GearID string `form:"gear_id" binding:"omitempty,uuid"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}
