package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lsa-api/internal/models"
)

// SessionRepository persists materialized class sessions. Mutations that
// are part of a larger transaction take an sqlx.ExtContext so services own
// the transaction boundary.
type SessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository constructs the repository.
func NewSessionRepository(db *sqlx.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

const sessionColumns = `id, class_id, session_no, date, start_time, end_time, room_id, status, note, created_at, updated_at`

// FindByID loads a session by primary key.
func (r *SessionRepository) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM class_sessions WHERE id = $1`
	var session models.ClassSession
	if err := r.db.GetContext(ctx, &session, query, id); err != nil {
		return nil, err
	}
	return &session, nil
}

// CountByClass returns the number of sessions a class already has, read
// through exec so generation can count inside its own transaction.
func (r *SessionRepository) CountByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	if exec == nil {
		exec = r.db
	}
	var count int
	if err := sqlx.GetContext(ctx, exec, &count, `SELECT COUNT(*) FROM class_sessions WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("count class sessions: %w", err)
	}
	return count, nil
}

// MaxSessionNo returns the highest assigned session_no for the class, 0
// when none exist. Reading it inside the inserting transaction serializes
// session_no assignment per class.
func (r *SessionRepository) MaxSessionNo(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	if exec == nil {
		exec = r.db
	}
	var max int
	if err := sqlx.GetContext(ctx, exec, &max, `SELECT COALESCE(MAX(session_no), 0) FROM class_sessions WHERE class_id = $1`, classID); err != nil {
		return 0, fmt.Errorf("max session_no: %w", err)
	}
	return max, nil
}

// Insert creates one session through exec.
func (r *SessionRepository) Insert(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	if exec == nil {
		exec = r.db
	}
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now
	const query = `INSERT INTO class_sessions (id, class_id, session_no, date, start_time, end_time, room_id, status, note, created_at, updated_at)
		VALUES (:id, :class_id, :session_no, :date, :start_time, :end_time, :room_id, :status, :note, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, session); err != nil {
		return fmt.Errorf("insert class session: %w", err)
	}
	return nil
}

// DeleteByClass removes every session of a class along with the dependent
// attendance, timesheet and substitution rows, in dependency order, through
// exec. Returns the number of sessions removed.
func (r *SessionRepository) DeleteByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	if exec == nil {
		exec = r.db
	}
	cascades := []string{
		`DELETE FROM attendances WHERE session_id IN (SELECT id FROM class_sessions WHERE class_id = $1)`,
		`DELETE FROM teacher_timesheets WHERE session_id IN (SELECT id FROM class_sessions WHERE class_id = $1)`,
		`DELETE FROM session_substitutions WHERE session_id IN (SELECT id FROM class_sessions WHERE class_id = $1)`,
	}
	for _, query := range cascades {
		if _, err := exec.ExecContext(ctx, query, classID); err != nil {
			return 0, fmt.Errorf("cascade delete for class sessions: %w", err)
		}
	}
	result, err := exec.ExecContext(ctx, `DELETE FROM class_sessions WHERE class_id = $1`, classID)
	if err != nil {
		return 0, fmt.Errorf("delete class sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check deleted session rows: %w", err)
	}
	return int(affected), nil
}

// HasOverlap reports whether any non-canceled session occupies the room in
// the half-open interval [start, end) on the given date. Touching
// endpoints do not overlap. excludeID removes the session itself when
// re-checking its own slot.
func (r *SessionRepository) HasOverlap(ctx context.Context, roomID string, date time.Time, start, end, excludeID string) (bool, error) {
	const query = `SELECT EXISTS (
	SELECT 1 FROM class_sessions
	WHERE room_id = $1 AND date = $2
	  AND start_time < $4 AND end_time > $3
	  AND status <> 'canceled'
	  AND ($5 = '' OR id <> $5)
)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, roomID, date, start, end, excludeID); err != nil {
		return false, fmt.Errorf("check room overlap: %w", err)
	}
	return exists, nil
}

// UpdateRoom sets the room of a single session.
func (r *SessionRepository) UpdateRoom(ctx context.Context, sessionID string, roomID *string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE class_sessions SET room_id = $2, updated_at = $3 WHERE id = $1`, sessionID, roomID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update session room: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated session rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Update rewrites the mutable fields of a session (manual override).
func (r *SessionRepository) Update(ctx context.Context, session *models.ClassSession) error {
	session.UpdatedAt = time.Now().UTC()
	const query = `UPDATE class_sessions
		SET date = :date, start_time = :start_time, end_time = :end_time, room_id = :room_id,
		    status = :status, note = :note, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, session)
	if err != nil {
		return fmt.Errorf("update class session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated session rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// List returns sessions matching the filter with a total count.
func (r *SessionRepository) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("s.class_id = $%d", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.BranchID != "" {
		where = append(where, fmt.Sprintf("s.class_id IN (SELECT id FROM classrooms WHERE branch_id = $%d)", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.RoomID != "" {
		where = append(where, fmt.Sprintf("s.room_id = $%d", len(args)+1))
		args = append(args, filter.RoomID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("s.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("s.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		where = append(where, fmt.Sprintf("s.status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM class_sessions s WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count sessions: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}

	query := fmt.Sprintf(`SELECT s.id, s.class_id, s.session_no, s.date, s.start_time, s.end_time, s.room_id, s.status, s.note, s.created_at, s.updated_at
FROM class_sessions s WHERE %s ORDER BY s.date ASC, s.start_time ASC LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, total, nil
}

// ListByClass returns the full ordered session sequence of one class.
func (r *SessionRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSession, error) {
	const query = `SELECT ` + sessionColumns + ` FROM class_sessions WHERE class_id = $1 ORDER BY session_no ASC`
	var sessions []models.ClassSession
	if err := r.db.SelectContext(ctx, &sessions, query, classID); err != nil {
		return nil, fmt.Errorf("list sessions by class: %w", err)
	}
	return sessions, nil
}
