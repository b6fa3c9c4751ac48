package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/models"
)

func TestHolidayListMatchingScope(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewHolidayRepository(db)
	now := time.Now()

	branchID := "b1"
	rows := sqlmock.NewRows([]string{"id", "name", "start_date", "end_date", "scope", "branch_id", "class_id", "recurring_yearly", "created_at", "updated_at"}).
		AddRow("h1", "New Year", now, now, "global", nil, nil, true, now, now).
		AddRow("h2", "Branch day", now, now, "branch", &branchID, nil, false, now, now)

	mock.ExpectQuery("FROM holidays").
		WithArgs("b1", "c1").
		WillReturnRows(rows)

	holidays, err := repo.ListMatchingScope(context.Background(), "c1", "b1")
	require.NoError(t, err)
	require.Len(t, holidays, 2)
	assert.Equal(t, models.HolidayScopeGlobal, holidays[0].Scope)
	assert.Equal(t, models.HolidayScopeBranch, holidays[1].Scope)
	assert.NoError(t, mock.ExpectationsWereMet())
}
