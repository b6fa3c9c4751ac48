package models

import "time"

// GenerationStatus tracks the lifecycle of an asynchronous session
// generation job.
type GenerationStatus string

const (
	GenerationStatusQueued   GenerationStatus = "QUEUED"
	GenerationStatusRunning  GenerationStatus = "RUNNING"
	GenerationStatusFinished GenerationStatus = "FINISHED"
	GenerationStatusFailed   GenerationStatus = "FAILED"
)

// GenerationJob is the persisted record of a session generation request.
// The row outlives the in-memory queue so job outcomes stay observable
// across restarts.
type GenerationJob struct {
	ID              string           `db:"id" json:"id"`
	ClassID         string           `db:"class_id" json:"class_id"`
	FromDate        *time.Time       `db:"from_date" json:"from_date,omitempty"`
	MaxSessions     *int             `db:"max_sessions" json:"max_sessions,omitempty"`
	Reset           bool             `db:"reset" json:"reset"`
	Status          GenerationStatus `db:"status" json:"status"`
	SessionsCreated int              `db:"sessions_created" json:"sessions_created"`
	ErrorMessage    *string          `db:"error_message" json:"error_message,omitempty"`
	StartedAt       *time.Time       `db:"started_at" json:"started_at,omitempty"`
	FinishedAt      *time.Time       `db:"finished_at" json:"finished_at,omitempty"`
	CreatedAt       time.Time        `db:"created_at" json:"created_at"`
}
