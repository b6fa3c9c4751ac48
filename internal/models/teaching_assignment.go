package models

import "time"

// TeachingAssignment is a time-bounded binding of a teacher to a class.
// Nil EffectiveFrom means "since always", nil EffectiveTo means "still
// active". Assignments for a class are expected to form a non-overlapping
// timeline; the resolver still tie-breaks deterministically when they do
// not.
type TeachingAssignment struct {
	ID             string     `db:"id" json:"id"`
	ClassID        string     `db:"class_id" json:"class_id"`
	TeacherID      string     `db:"teacher_id" json:"teacher_id"`
	RatePerSession int64      `db:"rate_per_session" json:"rate_per_session"`
	EffectiveFrom  *time.Time `db:"effective_from" json:"effective_from,omitempty"`
	EffectiveTo    *time.Time `db:"effective_to" json:"effective_to,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at" json:"updated_at"`
}

// ActiveOn reports whether the assignment covers the given date.
func (a TeachingAssignment) ActiveOn(date time.Time) bool {
	if a.EffectiveFrom != nil && date.Before(*a.EffectiveFrom) {
		return false
	}
	if a.EffectiveTo != nil && date.After(*a.EffectiveTo) {
		return false
	}
	return true
}
