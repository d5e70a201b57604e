package model

// Notification types.
const (
	NotificationTypeRequestCreated  = "request_created"
	NotificationTypeRequestApproved = "request_approved"
	NotificationTypeRequestRejected = "request_rejected"
	NotificationTypeRequestOverdue  = "request_overdue"
	NotificationTypeCheckinPending  = "checkin_pending"
	NotificationTypeCheckinApproved = "checkin_approved"
	NotificationTypeAccountChanged  = "account_changed"
)

// Notification is an in-app user-facing message — table notifications.
type Notification struct {
	NotificationID string  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"notification_id"`
	UserID         string  `gorm:"type:uuid;not null;index"                       json:"user_id"`
	Type           string  `gorm:"type:varchar(50);not null"                      json:"type"`
	Title          string  `gorm:"type:varchar(200);not null"                     json:"title"`
	Message        string  `gorm:"type:text;not null"                             json:"message"`
	IsRead         bool    `gorm:"not null;default:false"                         json:"is_read"`
	Metadata       JSONMap `gorm:"type:jsonb"                                     json:"metadata,omitempty"`
	RelatedType    *string `gorm:"type:varchar(30)"                               json:"related_type,omitempty"` // gear | request | checkin
	RelatedID      *string `gorm:"type:uuid"                                      json:"related_id,omitempty"`
	SoftDeleteModel
}

// TableName sets the table name.
func (Notification) TableName() string { return "notifications" }
