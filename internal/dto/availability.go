package dto

// OverlapCheckRequest asks for a room's conflicts on a day. With start and end
// the requested window is checked; without them every pair is analysed.
type OverlapCheckRequest struct {
	RoomID  string `json:"room_id" validate:"required"`
	Day     string `json:"day" validate:"required"`
	Start   string `json:"start_time,omitempty"`
	End     string `json:"end_time,omitempty"`
	Page    int    `json:"page,omitempty" validate:"omitempty,min=1"`
	PerPage int    `json:"per_page,omitempty" validate:"omitempty,min=1"`
}

// FreeSlotsQuery selects the room and day for a free-slot listing.
type FreeSlotsQuery struct {
	RoomID string `form:"room_id" validate:"required"`
	Day    string `form:"day" validate:"required"`
}

// SuggestRoomsRequest asks which rooms are free for a window.
type SuggestRoomsRequest struct {
	Day    string  `json:"day" validate:"required"`
	Date   *string `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Start  string  `json:"start_time" validate:"required"`
	End    string  `json:"end_time" validate:"required"`
	RoomID string  `json:"room_id,omitempty"`
}
