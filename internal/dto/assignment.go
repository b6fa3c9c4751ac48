package dto

// AssignmentRequest creates or rewrites a teaching assignment window.
type AssignmentRequest struct {
	TeacherID      string  `json:"teacherId" validate:"required"`
	RatePerSession int64   `json:"ratePerSession" validate:"min=0"`
	EffectiveFrom  *string `json:"effectiveFrom" validate:"omitempty,datetime=2006-01-02"`
	EffectiveTo    *string `json:"effectiveTo" validate:"omitempty,datetime=2006-01-02"`
}

// ResolveTeacherQuery asks who teaches a class on a date.
type ResolveTeacherQuery struct {
	Date string `form:"date" validate:"required,datetime=2006-01-02"`
}

// ResolveTeacherResponse names the teacher credited for the date, empty
// when no assignment covers it.
type ResolveTeacherResponse struct {
	ClassID   string  `json:"classId"`
	Date      string  `json:"date"`
	TeacherID *string `json:"teacherId,omitempty"`
	Rate      int64   `json:"rate"`
}
