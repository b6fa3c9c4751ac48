package dto

// GenerateSessionsRequest triggers asynchronous session materialization for
// a class. Dates travel as "2006-01-02" strings.
type GenerateSessionsRequest struct {
	FromDate    *string `json:"fromDate" validate:"omitempty,datetime=2006-01-02"`
	MaxSessions *int    `json:"maxSessions" validate:"omitempty,min=1,max=1000"`
	Reset       bool    `json:"reset"`
}

// GenerationJobResponse reports the queued job back to the caller.
type GenerationJobResponse struct {
	JobID           string  `json:"jobId"`
	ClassID         string  `json:"classId"`
	Status          string  `json:"status"`
	SessionsCreated int     `json:"sessionsCreated"`
	Error           *string `json:"error,omitempty"`
}

// UpdateSessionRequest edits one session individually (manual override).
// Nil fields are left untouched.
type UpdateSessionRequest struct {
	Date      *string `json:"date" validate:"omitempty,datetime=2006-01-02"`
	StartTime *string `json:"startTime" validate:"omitempty,datetime=15:04"`
	EndTime   *string `json:"endTime" validate:"omitempty,datetime=15:04"`
	Status    *string `json:"status" validate:"omitempty,oneof=planned moved canceled"`
	Note      *string `json:"note" validate:"omitempty,max=500"`
}

// AssignRoomRequest sets the room of a single session, vetoed on overlap.
type AssignRoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// BulkAssignRoomRequest assigns a room to many sessions with per-row
// conflict handling.
type BulkAssignRoomRequest struct {
	SessionIDs []string `json:"sessionIds" validate:"required,min=1,max=500,dive,required"`
	RoomID     string   `json:"roomId" validate:"required"`
}

// CreateWeeklyScheduleRequest adds a recurring slot to a class template.
type CreateWeeklyScheduleRequest struct {
	Weekday   int    `json:"weekday" validate:"min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,datetime=15:04"`
	EndTime   string `json:"endTime" validate:"required,datetime=15:04"`
}
