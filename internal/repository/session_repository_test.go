package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestSessionRepositoryMaxSessionNo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(session_no), 0) FROM class_sessions WHERE class_id = $1")).
		WithArgs("c1").
		WillReturnRows(sqlmock.NewRows([]string{"coalesce"}).AddRow(12))

	max, err := repo.MaxSessionNo(context.Background(), nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, 12, max)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryInsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("INSERT INTO class_sessions").
		WillReturnResult(sqlmock.NewResult(1, 1))

	session := &models.ClassSession{
		ClassID:   "c1",
		SessionNo: 1,
		Date:      time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC),
		StartTime: "18:00",
		EndTime:   "20:00",
		Status:    models.SessionStatusPlanned,
	}
	require.NoError(t, repo.Insert(context.Background(), nil, session))
	assert.NotEmpty(t, session.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteByClassCascades(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec("DELETE FROM attendances WHERE session_id IN").
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM teacher_timesheets WHERE session_id IN").
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM session_substitutions WHERE session_id IN").
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM class_sessions WHERE class_id = $1")).
		WithArgs("c1").WillReturnResult(sqlmock.NewResult(0, 24))

	deleted, err := repo.DeleteByClass(context.Background(), nil, "c1")
	require.NoError(t, err)
	assert.Equal(t, 24, deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryHasOverlap(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)
	date := time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("r1", date, "18:00", "20:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	overlap, err := repo.HasOverlap(context.Background(), "r1", date, "18:00", "20:00", "")
	require.NoError(t, err)
	assert.True(t, overlap)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("r1", date, "20:00", "22:00", "").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	overlap, err = repo.HasOverlap(context.Background(), "r1", date, "20:00", "22:00", "")
	require.NoError(t, err)
	assert.False(t, overlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateRoomMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	roomID := "r1"
	mock.ExpectExec("UPDATE class_sessions SET room_id").
		WithArgs("missing", &roomID, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateRoom(context.Background(), "missing", &roomID)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListByClassOrdersBySessionNo(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)
	now := time.Now()

	rows := sqlmock.NewRows([]string{"id", "class_id", "session_no", "date", "start_time", "end_time", "room_id", "status", "note", "created_at", "updated_at"}).
		AddRow("s1", "c1", 1, now, "18:00", "20:00", nil, "planned", "", now, now).
		AddRow("s2", "c1", 2, now, "18:00", "20:00", nil, "planned", "", now, now)
	mock.ExpectQuery("FROM class_sessions WHERE class_id = \\$1 ORDER BY session_no ASC").
		WithArgs("c1").
		WillReturnRows(rows)

	sessions, err := repo.ListByClass(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, 1, sessions[0].SessionNo)
	assert.Equal(t, 2, sessions[1].SessionNo)
	assert.NoError(t, mock.ExpectationsWereMet())
}
