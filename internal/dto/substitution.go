package dto

// SubstitutionRequest assigns or changes the substitute for a session.
type SubstitutionRequest struct {
	SubstituteTeacherID string `json:"substituteTeacherId" validate:"required"`
	RateOverride        *int64 `json:"rateOverride" validate:"omitempty,min=0"`
	Reason              string `json:"reason" validate:"max=500"`
	ApprovedBy          string `json:"approvedBy" validate:"max=100"`
}

// SubstitutionResponse reports the substitution together with the pay
// record it retargeted.
type SubstitutionResponse struct {
	SubstitutionID string `json:"substitutionId"`
	SessionID      string `json:"sessionId"`
	TeacherID      string `json:"teacherId"`
	Amount         int64  `json:"amount"`
	TimesheetID    string `json:"timesheetId"`
}

// RevertResponse reports the state after a substitution was removed.
// TeacherID and TimesheetID are empty when no regular assignment could be
// resolved for the session date.
type RevertResponse struct {
	SessionID   string  `json:"sessionId"`
	TeacherID   *string `json:"teacherId,omitempty"`
	Amount      int64   `json:"amount"`
	TimesheetID *string `json:"timesheetId,omitempty"`
}
