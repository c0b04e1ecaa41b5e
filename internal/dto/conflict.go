package dto

// ConflictQuery filters the stored conflicts.
type ConflictQuery struct {
	RoomID   string `form:"room_id"`
	Day      string `form:"day"`
	Severity string `form:"severity" validate:"omitempty,oneof=Critical High Medium Low"`
	Notified *bool  `form:"notified"`
	Page     int    `form:"page" validate:"omitempty,min=1"`
	PerPage  int    `form:"per_page" validate:"omitempty,min=1,max=100"`
}

// ConflictExportQuery selects the stored conflicts to export and the format.
type ConflictExportQuery struct {
	ConflictQuery
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}

// ScanRequest triggers a manual conflict scan.
type ScanRequest struct {
	AdminID   string `json:"admin_id,omitempty"`
	NotifyAll *bool  `json:"notify_all,omitempty"`
}
