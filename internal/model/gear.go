package model

import "time"

// Gear statuses. "Checked Out" only means fully exhausted; partially
// checked-out gear stays Available with a reduced available_quantity.
const (
	GearStatusAvailable   = "Available"
	GearStatusCheckedOut  = "Checked Out"
	GearStatusUnderRepair = "Under Repair"
	GearStatusDamaged     = "Damaged"
	GearStatusRetired     = "Retired"
)

// Gear is a trackable equipment asset — table gears.
type Gear struct {
	GearID            string     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"gear_id"`
	Name              string     `gorm:"type:varchar(200);not null"                     json:"name"`
	Category          string     `gorm:"type:varchar(100);not null;default:''"          json:"category"`
	Description       string     `gorm:"type:text;not null;default:''"                  json:"description"`
	Status            string     `gorm:"type:varchar(30);not null;default:'Available'"  json:"status"`
	Quantity          int        `gorm:"not null;default:1"                             json:"quantity"`
	AvailableQuantity int        `gorm:"not null;default:1"                             json:"available_quantity"`
	SerialNumber      *string    `gorm:"type:varchar(120)"                              json:"serial_number,omitempty"`
	ImageURL          string     `gorm:"type:varchar(500);not null;default:''"          json:"image_url"`
	CheckedOutTo      *string    `gorm:"type:uuid"                                      json:"checked_out_to,omitempty"`
	CurrentRequestID  *string    `gorm:"type:uuid"                                      json:"current_request_id,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	SoftDeleteModel

	Holder *User `gorm:"foreignKey:CheckedOutTo;references:UserID" json:"holder,omitempty"`
}

// TableName sets the table name.
func (Gear) TableName() string { return "gears" }

// Requestable reports whether new requests may reference this gear.
func (g *Gear) Requestable() bool {
	switch g.Status {
	case GearStatusUnderRepair, GearStatusDamaged, GearStatusRetired:
		return false
	}
	return true
}
