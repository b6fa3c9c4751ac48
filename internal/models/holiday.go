package models

import "time"

// HolidayScope controls which classes a holiday window excludes.
type HolidayScope string

const (
	HolidayScopeGlobal HolidayScope = "global"
	HolidayScopeBranch HolidayScope = "branch"
	HolidayScopeClass  HolidayScope = "class"
)

// Holiday is a calendar exclusion window. BranchID is set iff scope=branch,
// ClassID iff scope=class. When RecurringYearly is true the stored year is
// ignored and only month/day of the range is compared.
type Holiday struct {
	ID              string       `db:"id" json:"id"`
	Name            string       `db:"name" json:"name"`
	StartDate       time.Time    `db:"start_date" json:"start_date"`
	EndDate         time.Time    `db:"end_date" json:"end_date"`
	Scope           HolidayScope `db:"scope" json:"scope"`
	BranchID        *string      `db:"branch_id" json:"branch_id,omitempty"`
	ClassID         *string      `db:"class_id" json:"class_id,omitempty"`
	RecurringYearly bool         `db:"recurring_yearly" json:"recurring_yearly"`
	CreatedAt       time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time    `db:"updated_at" json:"updated_at"`
}

// Covers reports whether the holiday window includes the given date,
// assuming the scope already matched. Recurring windows compare month/day
// only; a recurring range whose start falls after its end is treated as
// wrapping the year boundary (e.g. Dec 30 - Jan 2).
func (h Holiday) Covers(date time.Time) bool {
	d := date.Truncate(24 * time.Hour)
	if !h.RecurringYearly {
		start := h.StartDate.Truncate(24 * time.Hour)
		end := h.EndDate.Truncate(24 * time.Hour)
		return !d.Before(start) && !d.After(end)
	}

	md := monthDay(d)
	start := monthDay(h.StartDate)
	end := monthDay(h.EndDate)
	if start <= end {
		return md >= start && md <= end
	}
	return md >= start || md <= end
}

func monthDay(t time.Time) int {
	return int(t.Month())*100 + t.Day()
}

// HolidayFilter narrows holiday listings.
type HolidayFilter struct {
	Scope    []HolidayScope
	BranchID string
	ClassID  string
	DateFrom *time.Time
	DateTo   *time.Time
	Page     int
	PageSize int
}
