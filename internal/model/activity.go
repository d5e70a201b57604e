package model

import "time"

// Activity actions recorded in the audit trail.
const (
	ActivityRequest      = "Request"
	ActivityCheckout     = "Checkout"
	ActivityCheckin      = "Checkin"
	ActivityMaintenance  = "Maintenance"
	ActivityStatusChange = "Status Change"
)

// ActivityLog is an append-only audit row — table gear_activity_log.
// Rows are never updated or deleted.
type ActivityLog struct {
	ActivityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"activity_id"`
	UserID     *string   `gorm:"type:uuid;index"                                json:"user_id,omitempty"`
	GearID     *string   `gorm:"type:uuid;index"                                json:"gear_id,omitempty"`
	RequestID  *string   `gorm:"type:uuid"                                      json:"request_id,omitempty"`
	Action     string    `gorm:"type:varchar(50);not null"                      json:"action"`
	Status     string    `gorm:"type:varchar(30);not null;default:''"           json:"status"`
	Notes      string    `gorm:"type:varchar(500);not null;default:''"          json:"notes"`
	Details    JSONMap   `gorm:"type:jsonb"                                     json:"details,omitempty"`
	CreatedAt  time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"created_at"`

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Gear *Gear `gorm:"foreignKey:GearID;references:GearID" json:"gear,omitempty"`
}

// TableName sets the table name.
func (ActivityLog) TableName() string { return "gear_activity_log" }
