package models

import "time"

// SessionSubstitution overrides who teaches a single session. At most one
// substitution exists per session (UNIQUE session_id).
type SessionSubstitution struct {
	ID                  string     `db:"id" json:"id"`
	SessionID           string     `db:"session_id" json:"session_id"`
	SubstituteTeacherID string     `db:"substitute_teacher_id" json:"substitute_teacher_id"`
	RateOverride        *int64     `db:"rate_override" json:"rate_override,omitempty"`
	Reason              string     `db:"reason" json:"reason"`
	ApprovedBy          string     `db:"approved_by" json:"approved_by"`
	ApprovedAt          *time.Time `db:"approved_at" json:"approved_at,omitempty"`
	CreatedAt           time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updated_at"`
}
