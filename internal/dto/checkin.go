package dto

// CreateCheckinRequest submits a gear return for admin approval.
type CreateCheckinRequest struct {
	RequestID string `json:"request_id" binding:"required,uuid"`
	GearID    string `json:"gear_id"    binding:"required,uuid"`
	Quantity  int    `json:"quantity"   binding:"required,min=1"`
	Condition string `json:"condition"  binding:"omitempty,oneof=Good Worn Damaged"`
	Notes     string `json:"notes"      binding:"omitempty,max=500"`
}

// ListCheckinsRequest is the checkin listing query.
type ListCheckinsRequest struct {
	PaginationRequest
	Status string `form:"status"  binding:"omitempty"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
	GearID string `form:"gear_id" binding:"omitempty,uuid"`
}
