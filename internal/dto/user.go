package dto

// UserResponse is the profile shape returned by the API.
type UserResponse struct {
	ID         string `json:"id"`
	Email      string `json:"email"`
	FullName   string `json:"full_name"`
	Role       string `json:"role"`
	Status     string `json:"status"`
	Department string `json:"department"`
	Phone      string `json:"phone,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// ListUsersRequest is the admin user listing query.
type ListUsersRequest struct {
	PaginationRequest
	Search string `form:"search" binding:"omitempty,max=100"` // substring on name/email/department
	Role   string `form:"role"   binding:"omitempty,oneof=Admin User"`
	Status string `form:"status" binding:"omitempty,oneof=Active Inactive"`
}

// UpdateUserRequest updates profile fields (self or admin).
type UpdateUserRequest struct {
	FullName   string `json:"full_name"  binding:"omitempty,min=2,max=100"`
	Department string `json:"department" binding:"omitempty,max=100"`
	Phone      string `json:"phone"      binding:"omitempty,max=30"`
}

// SetRoleRequest promotes or demotes a user.
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=Admin User"`
}

// SetStatusRequest suspends or reactivates a user.
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=Active Inactive"`
}
