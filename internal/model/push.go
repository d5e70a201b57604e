package model

import "time"

// Push delivery states.
const (
	PushStatusPending    = "Pending"
	PushStatusProcessing = "Processing"
	PushStatusSent       = "Sent"
	PushStatusFailed     = "Failed"
)

// PushMessage is a queued push notification — table push_queue. Rows are
// written alongside in-app notifications and drained by the push worker.
type PushMessage struct {
	PushID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"push_id"`
	UserID   string     `gorm:"type:uuid;not null"                             json:"user_id"`
	Title    string     `gorm:"type:varchar(200);not null"                     json:"title"`
	Body     string     `gorm:"type:text;not null"                             json:"body"`
	Payload  JSONMap    `gorm:"type:jsonb"                                     json:"payload,omitempty"`
	Status   string     `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	Attempts int        `gorm:"not null;default:0"                             json:"attempts"`
	SentAt   *time.Time `json:"sent_at,omitempty"`
	BaseModel
}

// TableName sets the table name.
func (PushMessage) TableName() string { return "push_queue" }
