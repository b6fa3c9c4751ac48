package dto

// HolidayRequest creates or rewrites a calendar exclusion window.
type HolidayRequest struct {
	Name            string  `json:"name" validate:"required,max=200"`
	StartDate       string  `json:"startDate" validate:"required,datetime=2006-01-02"`
	EndDate         string  `json:"endDate" validate:"required,datetime=2006-01-02"`
	Scope           string  `json:"scope" validate:"required,oneof=global branch class"`
	BranchID        *string `json:"branchId" validate:"required_if=Scope branch"`
	ClassID         *string `json:"classId" validate:"required_if=Scope class"`
	RecurringYearly bool    `json:"recurringYearly"`
}

// HolidayCheckQuery asks whether a date is excluded for a class.
type HolidayCheckQuery struct {
	ClassID  string `form:"classId" validate:"required"`
	BranchID string `form:"branchId" validate:"required"`
	Date     string `form:"date" validate:"required,datetime=2006-01-02"`
}

// HolidayCheckResponse answers a holiday probe.
type HolidayCheckResponse struct {
	Date    string `json:"date"`
	Holiday bool   `json:"holiday"`
}
