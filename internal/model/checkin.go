package model

import "time"

// Checkin statuses and gear return conditions.
const (
	CheckinStatusPending   = "Pending Admin Approval"
	CheckinStatusCompleted = "Completed"
	CheckinStatusRejected  = "Rejected"

	ConditionGood    = "Good"
	ConditionWorn    = "Worn"
	ConditionDamaged = "Damaged"
)

// Checkin is a return event for previously checked-out gear — table checkins.
type Checkin struct {
	CheckinID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"            json:"checkin_id"`
	UserID      string     `gorm:"type:uuid;not null"                                        json:"user_id"`
	GearID      string     `gorm:"type:uuid;not null"                                        json:"gear_id"`
	RequestID   string     `gorm:"type:uuid;not null"                                        json:"request_id"`
	Quantity    int        `gorm:"not null"                                                  json:"quantity"`
	Condition   string     `gorm:"type:varchar(30);not null;default:'Good'"                  json:"condition"`
	Notes       string     `gorm:"type:varchar(500);not null;default:''"                     json:"notes"`
	Status      string     `gorm:"type:varchar(30);not null;default:'Pending Admin Approval'" json:"status"`
	ApprovedBy  *string    `gorm:"type:uuid"                                                 json:"approved_by,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	BaseModel

	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
	Gear *Gear `gorm:"foreignKey:GearID;references:GearID" json:"gear,omitempty"`
}

// TableName sets the table name.
func (Checkin) TableName() string { return "checkins" }
