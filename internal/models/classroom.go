package models

import "time"

// ClassroomStatus enumerates the lifecycle of a class.
type ClassroomStatus string

const (
	ClassroomStatusOpen      ClassroomStatus = "open"
	ClassroomStatusActive    ClassroomStatus = "active"
	ClassroomStatusClosed    ClassroomStatus = "closed"
	ClassroomStatusCompleted ClassroomStatus = "completed"
	ClassroomStatusCancelled ClassroomStatus = "cancelled"
)

// Classroom is a concrete class opened at a branch, the owner of weekly
// schedules, generated sessions and the teaching assignment timeline.
type Classroom struct {
	ID            string          `db:"id" json:"id"`
	Code          string          `db:"code" json:"code"`
	Name          string          `db:"name" json:"name"`
	CourseID      string          `db:"course_id" json:"course_id"`
	BranchID      string          `db:"branch_id" json:"branch_id"`
	StartDate     time.Time       `db:"start_date" json:"start_date"`
	SessionsTotal int             `db:"sessions_total" json:"sessions_total"`
	TuitionFee    int64           `db:"tuition_fee" json:"tuition_fee"`
	Status        ClassroomStatus `db:"status" json:"status"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at" json:"updated_at"`
}

// WeeklySchedule is the recurring weekday/time template a class generates
// sessions from. Weekday follows time.Weekday numbering (0 = Sunday).
type WeeklySchedule struct {
	ID        string    `db:"id" json:"id"`
	ClassID   string    `db:"class_id" json:"class_id"`
	Weekday   int       `db:"weekday" json:"weekday"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ClassroomFilter narrows classroom listings.
type ClassroomFilter struct {
	BranchID string
	Status   []ClassroomStatus
	Search   string
	Page     int
	PageSize int
}
