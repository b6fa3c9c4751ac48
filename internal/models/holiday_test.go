package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestHolidayCoversFixedRange(t *testing.T) {
	holiday := Holiday{
		StartDate: date(2025, time.April, 14),
		EndDate:   date(2025, time.April, 16),
	}

	assert.False(t, holiday.Covers(date(2025, time.April, 13)))
	assert.True(t, holiday.Covers(date(2025, time.April, 14)))
	assert.True(t, holiday.Covers(date(2025, time.April, 15)))
	assert.True(t, holiday.Covers(date(2025, time.April, 16)))
	assert.False(t, holiday.Covers(date(2025, time.April, 17)))
	assert.False(t, holiday.Covers(date(2026, time.April, 15)))
}

func TestHolidayCoversRecurringIgnoresYear(t *testing.T) {
	holiday := Holiday{
		StartDate:       date(2020, time.May, 1),
		EndDate:         date(2020, time.May, 1),
		RecurringYearly: true,
	}

	assert.True(t, holiday.Covers(date(2025, time.May, 1)))
	assert.True(t, holiday.Covers(date(2031, time.May, 1)))
	assert.False(t, holiday.Covers(date(2025, time.May, 2)))
}

func TestHolidayCoversRecurringWrapsYearBoundary(t *testing.T) {
	holiday := Holiday{
		StartDate:       date(2020, time.December, 30),
		EndDate:         date(2021, time.January, 2),
		RecurringYearly: true,
	}

	assert.True(t, holiday.Covers(date(2025, time.December, 30)))
	assert.True(t, holiday.Covers(date(2025, time.December, 31)))
	assert.True(t, holiday.Covers(date(2026, time.January, 1)))
	assert.True(t, holiday.Covers(date(2026, time.January, 2)))
	assert.False(t, holiday.Covers(date(2026, time.January, 3)))
	assert.False(t, holiday.Covers(date(2025, time.December, 29)))
	assert.False(t, holiday.Covers(date(2025, time.June, 15)))
}
