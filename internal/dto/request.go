package dto

// RequestLine is one {gear, quantity} line of a gear request.
type RequestLine struct {
	GearID   string `json:"gear_id"  binding:"required,uuid"`
	Quantity int    `json:"quantity" binding:"required,min=1"`
}

// CreateRequestRequest submits a new gear request.
type CreateRequestRequest struct {
	Reason      string        `json:"reason"      binding:"required,min=3,max=500"`
	Destination string        `json:"destination" binding:"omitempty,max=200"`
	Duration    string        `json:"duration"    binding:"omitempty,max=50"`
	Lines       []RequestLine `json:"lines"       binding:"required,min=1,dive"`
}

// ListRequestsRequest is the request listing query.
type ListRequestsRequest struct {
	PaginationRequest
	Status string `form:"status"  binding:"omitempty,oneof=Pending Approved Rejected Overdue Completed Cancelled"`
	UserID string `form:"user_id" binding:"omitempty,uuid"`
}

// ApproveRequestRequest approves a pending request.
type ApproveRequestRequest struct {
	DueDate    string `json:"due_date"    binding:"required"` // RFC 3339 or 2006-01-02
	AdminNotes string `json:"admin_notes" binding:"omitempty,max=500"`
}

// RejectRequestRequest rejects a pending request.
type RejectRequestRequest struct {
	AdminNotes string `json:"admin_notes" binding:"required,min=3,max=500"`
}
