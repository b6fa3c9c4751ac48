package models

import "time"

// TimesheetStatus enumerates the payroll state of a timesheet row.
type TimesheetStatus string

const (
	TimesheetStatusDraft    TimesheetStatus = "draft"
	TimesheetStatusApproved TimesheetStatus = "approved"
	TimesheetStatusLocked   TimesheetStatus = "locked"
)

// TeacherTimesheet is the single pay record for a session, always
// attributed to whoever is currently credited to teach it (the substitute
// when one exists, otherwise the resolved regular assignment). UNIQUE
// session_id enforces the one-row-per-session invariant at the schema
// level.
type TeacherTimesheet struct {
	ID         string          `db:"id" json:"id"`
	TeacherID  string          `db:"teacher_id" json:"teacher_id"`
	SessionID  string          `db:"session_id" json:"session_id"`
	Amount     int64           `db:"amount" json:"amount"`
	Status     TimesheetStatus `db:"status" json:"status"`
	ApprovedBy *string         `db:"approved_by" json:"approved_by,omitempty"`
	ApprovedAt *time.Time      `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt  time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at" json:"updated_at"`
}

// TimesheetFilter narrows timesheet listings for the payroll consumer.
type TimesheetFilter struct {
	TeacherID string
	Status    []TimesheetStatus
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
}

// TimesheetDetail joins the session date alongside the pay record.
type TimesheetDetail struct {
	TeacherTimesheet
	SessionDate time.Time `db:"session_date" json:"session_date"`
	SessionNo   int       `db:"session_no" json:"session_no"`
	ClassID     string    `db:"class_id" json:"class_id"`
}
