package models

import "time"

// SessionStatus enumerates the state of a materialized class session.
type SessionStatus string

const (
	SessionStatusPlanned  SessionStatus = "planned"
	SessionStatusMoved    SessionStatus = "moved"
	SessionStatusCanceled SessionStatus = "canceled"
)

// ClassSession is one concrete occurrence of a class on a specific date.
// SessionNo is 1-based and unique within the class, assigned in generation
// order. Times are zero-padded "HH:MM" so string comparison follows clock
// order.
type ClassSession struct {
	ID        string        `db:"id" json:"id"`
	ClassID   string        `db:"class_id" json:"class_id"`
	SessionNo int           `db:"session_no" json:"session_no"`
	Date      time.Time     `db:"date" json:"date"`
	StartTime string        `db:"start_time" json:"start_time"`
	EndTime   string        `db:"end_time" json:"end_time"`
	RoomID    *string       `db:"room_id" json:"room_id,omitempty"`
	Status    SessionStatus `db:"status" json:"status"`
	Note      string        `db:"note" json:"note"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionFilter narrows session listings.
type SessionFilter struct {
	ClassID  string
	BranchID string
	RoomID   string
	DateFrom *time.Time
	DateTo   *time.Time
	Status   []SessionStatus
	Page     int
	PageSize int
}

// BulkRoomAssignResult reports the per-row outcome of a bulk room
// assignment: rows that were updated and rows skipped due to a time
// conflict in the target room.
type BulkRoomAssignResult struct {
	Updated   int      `json:"updated"`
	Conflicts []string `json:"conflicts"`
}
