package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeachingAssignmentResolveForDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeachingAssignmentRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "class_id", "teacher_id", "rate_per_session", "effective_from", "effective_to", "created_at", "updated_at"}).
		AddRow("a2", "c1", "t2", int64(250000), from, nil, time.Now(), time.Now())

	mock.ExpectQuery("ORDER BY effective_from DESC NULLS LAST, id ASC").
		WithArgs("c1", date).
		WillReturnRows(rows)

	assignment, err := repo.ResolveForDate(context.Background(), "c1", date)
	require.NoError(t, err)
	assert.Equal(t, "t2", assignment.TeacherID)
	assert.Equal(t, int64(250000), assignment.RatePerSession)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeachingAssignmentResolveForDateNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeachingAssignmentRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("ORDER BY effective_from DESC NULLS LAST, id ASC").
		WithArgs("c1", date).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.ResolveForDate(context.Background(), "c1", date)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeachingAssignmentRateForDefaultsToZero(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeachingAssignmentRepository(db)

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery("SELECT rate_per_session").
		WithArgs("c1", "t9", date).
		WillReturnError(sql.ErrNoRows)

	rate, err := repo.RateFor(context.Background(), "c1", "t9", date)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rate)
	assert.NoError(t, mock.ExpectationsWereMet())
}
