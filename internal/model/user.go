package model

// User roles and account statuses stored on profiles rows.
const (
	RoleAdmin = "Admin"
	RoleUser  = "User"

	UserStatusActive   = "Active"
	UserStatusInactive = "Inactive"
)

// User is an account profile — table profiles.
type User struct {
	UserID       string `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Email        string `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	FullName     string `gorm:"type:varchar(100);not null"                     json:"full_name"`
	PasswordHash string `gorm:"type:varchar(255);not null"                     json:"-"`
	Role         string `gorm:"type:varchar(20);not null;default:'User'"       json:"role"`
	Status       string `gorm:"type:varchar(20);not null;default:'Active'"     json:"status"`
	Department   string `gorm:"type:varchar(100);not null;default:''"          json:"department"`
	Phone        string `gorm:"type:varchar(30);not null;default:''"           json:"phone"`
	SoftDeleteModel
}

// TableName sets the table name.
func (User) TableName() string { return "profiles" }

// IsAdmin reports whether the profile has the Admin role.
func (u *User) IsAdmin() bool { return u.Role == RoleAdmin }

// IsActive reports whether the account may sign in.
func (u *User) IsActive() bool { return u.Status == UserStatusActive }
