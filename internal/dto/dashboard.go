package dto

// DashboardStats is the aggregate view computed on demand from row counts.
// Nothing here is persisted; every call recomputes (the source application
// recomputed the same figures from fetched arrays on each refresh).
type DashboardStats struct {
	Gear struct {
		Total       int64 `json:"total"`
		Available   int64 `json:"available"`
		CheckedOut  int64 `json:"checked_out"`
		UnderRepair int64 `json:"under_repair"`
		Retired     int64 `json:"retired"`
	} `json:"gear"`

	Users struct {
		Total    int64 `json:"total"`
		Active   int64 `json:"active"`
		Admins   int64 `json:"admins"`
		Engaged  int64 `json:"engaged"` // users with at least one request
	} `json:"users"`

	Requests struct {
		Total    int64 `json:"total"`
		Pending  int64 `json:"pending"`
		Approved int64 `json:"approved"`
		Rejected int64 `json:"rejected"`
		Overdue  int64 `json:"overdue"`
	} `json:"requests"`

	Checkins struct {
		PendingApproval int64 `json:"pending_approval"`
	} `json:"checkins"`

	Notifications struct {
		Unread int64 `json:"unread"`
	} `json:"notifications"`

	// Derived percentages, rounded to one decimal.
	UtilizationRate float64 `json:"utilization_rate"` // checked-out units / total units
	ApprovalRate    float64 `json:"approval_rate"`    // approved / decided requests
	EngagementRate  float64 `json:"engagement_rate"`  // engaged users / active users
}
