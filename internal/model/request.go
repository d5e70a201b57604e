package model

import "time"

// Gear request statuses.
const (
	RequestStatusPending   = "Pending"
	RequestStatusApproved  = "Approved"
	RequestStatusRejected  = "Rejected"
	RequestStatusOverdue   = "Overdue"
	RequestStatusCompleted = "Completed"
	RequestStatusCancelled = "Cancelled"
)

// GearRequest is a user's ask to check out one or more gear items —
// table gear_requests.
type GearRequest struct {
	RequestID   string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"request_id"`
	UserID      string     `gorm:"type:uuid;not null"                             json:"user_id"`
	Reason      string     `gorm:"type:varchar(500);not null"                     json:"reason"`
	Destination string     `gorm:"type:varchar(200);not null;default:''"          json:"destination"`
	Duration    string     `gorm:"type:varchar(50);not null;default:''"           json:"duration"`
	Status      string     `gorm:"type:varchar(20);not null;default:'Pending'"    json:"status"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	AdminNotes  string     `gorm:"type:varchar(500);not null;default:''"          json:"admin_notes"`
	ApprovedAt  *time.Time `json:"approved_at,omitempty"`
	ApprovedBy  *string    `gorm:"type:uuid"                                      json:"approved_by,omitempty"`
	SoftDeleteModel

	User  *User             `gorm:"foreignKey:UserID;references:UserID"       json:"user,omitempty"`
	Lines []GearRequestGear `gorm:"foreignKey:RequestID;references:RequestID" json:"lines,omitempty"`
}

// TableName sets the table name.
func (GearRequest) TableName() string { return "gear_requests" }

// Open reports whether the request still holds (or could hold) gear.
func (r *GearRequest) Open() bool {
	switch r.Status {
	case RequestStatusPending, RequestStatusApproved, RequestStatusOverdue:
		return true
	}
	return false
}

// GearRequestGear is a request line item — table gear_request_gears.
type GearRequestGear struct {
	LineID           string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"line_id"`
	RequestID        string `gorm:"type:uuid;not null;index"                       json:"request_id"`
	GearID           string `gorm:"type:uuid;not null;index"                       json:"gear_id"`
	Quantity         int    `gorm:"not null"                                       json:"quantity"`
	ReturnedQuantity int    `gorm:"not null;default:0"                             json:"returned_quantity"`
	BaseModel

	Gear *Gear `gorm:"foreignKey:GearID;references:GearID" json:"gear,omitempty"`
}

// TableName sets the table name.
func (GearRequestGear) TableName() string { return "gear_request_gears" }

// Outstanding is the quantity still checked out on this line.
func (l *GearRequestGear) Outstanding() int {
	n := l.Quantity - l.ReturnedQuantity
	if n < 0 {
		return 0
	}
	return n
}
