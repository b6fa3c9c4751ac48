package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type stubHolidayStore struct {
	holidays []models.Holiday
	created  []*models.Holiday
	updated  []*models.Holiday
	deleted  []string
}

func (s *stubHolidayStore) ListMatchingScope(ctx context.Context, classID, branchID string) ([]models.Holiday, error) {
	return s.holidays, nil
}

func (s *stubHolidayStore) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	return s.holidays, len(s.holidays), nil
}

func (s *stubHolidayStore) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	for i := range s.holidays {
		if s.holidays[i].ID == id {
			return &s.holidays[i], nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *stubHolidayStore) Create(ctx context.Context, holiday *models.Holiday) error {
	holiday.ID = "h-new"
	s.created = append(s.created, holiday)
	return nil
}

func (s *stubHolidayStore) Update(ctx context.Context, holiday *models.Holiday) error {
	s.updated = append(s.updated, holiday)
	return nil
}

func (s *stubHolidayStore) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	return nil
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestIsHolidayAnyCoveringWindowWins(t *testing.T) {
	store := &stubHolidayStore{holidays: []models.Holiday{
		{ID: "h1", Name: "New Year", StartDate: day(2025, time.January, 1), EndDate: day(2025, time.January, 1), Scope: models.HolidayScopeGlobal},
		{ID: "h2", Name: "Branch day", StartDate: day(2025, time.March, 10), EndDate: day(2025, time.March, 12), Scope: models.HolidayScopeBranch},
	}}
	svc := NewHolidayService(store, nil, nil)

	excluded, err := svc.IsHoliday(context.Background(), "c1", "b1", day(2025, time.March, 11))
	require.NoError(t, err)
	assert.True(t, excluded)

	excluded, err = svc.IsHoliday(context.Background(), "c1", "b1", day(2025, time.March, 13))
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestIsHolidayEmptyCalendar(t *testing.T) {
	svc := NewHolidayService(&stubHolidayStore{}, nil, nil)

	excluded, err := svc.IsHoliday(context.Background(), "c1", "b1", day(2025, time.January, 1))
	require.NoError(t, err)
	assert.False(t, excluded)
}

func TestCreateHolidayRejectsInvertedRange(t *testing.T) {
	store := &stubHolidayStore{}
	svc := NewHolidayService(store, nil, nil)

	_, err := svc.Create(context.Background(), dto.HolidayRequest{
		Name:      "Backwards",
		StartDate: "2025-05-10",
		EndDate:   "2025-05-01",
		Scope:     "global",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, store.created)
}

func TestCreateHolidayRecurringAllowsWrappedRange(t *testing.T) {
	store := &stubHolidayStore{}
	svc := NewHolidayService(store, nil, nil)

	holiday, err := svc.Create(context.Background(), dto.HolidayRequest{
		Name:            "Year end break",
		StartDate:       "2024-12-30",
		EndDate:         "2024-01-02",
		Scope:           "global",
		RecurringYearly: true,
	})
	require.NoError(t, err)
	assert.True(t, holiday.RecurringYearly)
	assert.True(t, holiday.Covers(day(2026, time.December, 31)))
	assert.True(t, holiday.Covers(day(2027, time.January, 1)))
	assert.False(t, holiday.Covers(day(2027, time.January, 3)))
}

func TestCreateHolidayBranchScopeCarriesBranch(t *testing.T) {
	store := &stubHolidayStore{}
	svc := NewHolidayService(store, nil, nil)
	branch := "b1"

	holiday, err := svc.Create(context.Background(), dto.HolidayRequest{
		Name:      "Branch closure",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-02",
		Scope:     "branch",
		BranchID:  &branch,
	})
	require.NoError(t, err)
	require.NotNil(t, holiday.BranchID)
	assert.Equal(t, "b1", *holiday.BranchID)
	assert.Nil(t, holiday.ClassID)
}

func TestCreateHolidayBranchScopeRequiresBranchID(t *testing.T) {
	svc := NewHolidayService(&stubHolidayStore{}, nil, nil)

	_, err := svc.Create(context.Background(), dto.HolidayRequest{
		Name:      "Orphan",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-02",
		Scope:     "branch",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestUpdateHolidayMissing(t *testing.T) {
	svc := NewHolidayService(&stubHolidayStore{}, nil, nil)

	_, err := svc.Update(context.Background(), "ghost", dto.HolidayRequest{
		Name:      "Renamed",
		StartDate: "2025-06-01",
		EndDate:   "2025-06-02",
		Scope:     "global",
	})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestUpdateHolidayKeepsIdentity(t *testing.T) {
	created := day(2024, time.November, 1)
	store := &stubHolidayStore{holidays: []models.Holiday{
		{ID: "h1", Name: "Old name", StartDate: day(2025, time.January, 1), EndDate: day(2025, time.January, 1), Scope: models.HolidayScopeGlobal, CreatedAt: created},
	}}
	svc := NewHolidayService(store, nil, nil)

	holiday, err := svc.Update(context.Background(), "h1", dto.HolidayRequest{
		Name:      "New name",
		StartDate: "2025-01-01",
		EndDate:   "2025-01-02",
		Scope:     "global",
	})
	require.NoError(t, err)
	assert.Equal(t, "h1", holiday.ID)
	assert.Equal(t, created, holiday.CreatedAt)
	assert.Equal(t, "New name", holiday.Name)
	require.Len(t, store.updated, 1)
}
