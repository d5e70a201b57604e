package dto

// CreateGearRequest adds a gear item to inventory.
type CreateGearRequest struct {
	Name         string `json:"name"          binding:"required,min=1,max=200"`
	Category     string `json:"category"      binding:"omitempty,max=100"`
	Description  string `json:"description"   binding:"omitempty,max=2000"`
	Quantity     int    `json:"quantity"      binding:"required,min=1"`
	SerialNumber string `json:"serial_number" binding:"omitempty,max=120"`
	ImageURL     string `json:"image_url"     binding:"omitempty,max=500,url"`
}

// UpdateGearRequest edits gear fields. Quantity changes adjust
// available_quantity by the same delta, floored at zero.
type UpdateGearRequest struct {
	Name         *string `json:"name"          binding:"omitempty,min=1,max=200"`
	Category     *string `json:"category"      binding:"omitempty,max=100"`
	Description  *string `json:"description"   binding:"omitempty,max=2000"`
	Status       *string `json:"status"        binding:"omitempty,oneof='Available' 'Checked Out' 'Under Repair' 'Damaged' 'Retired'"`
	Quantity     *int    `json:"quantity"      binding:"omitempty,min=0"`
	SerialNumber *string `json:"serial_number" binding:"omitempty,max=120"`
	ImageURL     *string `json:"image_url"     binding:"omitempty,max=500"`
}

// ListGearsRequest is the gear listing query.
type ListGearsRequest struct {
	PaginationRequest
	Search        string `form:"search"         binding:"omitempty,max=100"`
	Category      string `form:"category"       binding:"omitempty,max=100"`
	Status        string `form:"status"         binding:"omitempty,max=30"`
	AvailableOnly bool   `form:"available_only"`
}

// GearCSVRow is the CSV import/export row shape. Column headers are the
// struct tags; export and import share the schema so a round trip is
// lossless.
type GearCSVRow struct {
	Name              string `csv:"name"`
	Category          string `csv:"category"`
	Description       string `csv:"description"`
	Status            string `csv:"status"`
	Quantity          int    `csv:"quantity"`
	AvailableQuantity int    `csv:"available_quantity"`
	SerialNumber      string `csv:"serial_number"`
	ImageURL          string `csv:"image_url"`
}

// ImportResult reports the outcome of a CSV import.
type ImportResult struct {
	Imported int           `json:"imported"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// ImportError describes a rejected CSV row.
type ImportError struct {
	Row    int    `json:"row"` // 1-based, excluding header
	Reason string `json:"reason"`
}

// AvailabilityFix reports one gear whose availability was recomputed.
type AvailabilityFix struct {
	GearID   string `json:"gear_id"`
	Name     string `json:"name"`
	Previous int    `json:"previous"`
	Computed int    `json:"computed"`
}
