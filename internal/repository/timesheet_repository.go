package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/lsa-api/internal/models"
)

// TimesheetRepository persists per-session pay records. The at-most-one-
// row-per-session invariant is owned here: retargeting goes through
// ReplaceForSession, which deletes and reinserts inside the caller's
// transaction, and the UNIQUE(session_id) constraint backstops it.
type TimesheetRepository struct {
	db *sqlx.DB
}

// NewTimesheetRepository constructs the repository.
func NewTimesheetRepository(db *sqlx.DB) *TimesheetRepository {
	return &TimesheetRepository{db: db}
}

const timesheetColumns = `id, teacher_id, session_id, amount, status, approved_by, approved_at, created_at, updated_at`

// FindBySession returns the session's pay record, sql.ErrNoRows when the
// session has none.
func (r *TimesheetRepository) FindBySession(ctx context.Context, sessionID string) (*models.TeacherTimesheet, error) {
	const query = `SELECT ` + timesheetColumns + ` FROM teacher_timesheets WHERE session_id = $1`
	var timesheet models.TeacherTimesheet
	if err := r.db.GetContext(ctx, &timesheet, query, sessionID); err != nil {
		return nil, err
	}
	return &timesheet, nil
}

// ReplaceForSession retargets the session's single pay record to the given
// teacher and amount: any existing row is removed and a fresh draft row is
// inserted, all through exec so the swap commits atomically with the
// substitution change that caused it.
func (r *TimesheetRepository) ReplaceForSession(ctx context.Context, exec sqlx.ExtContext, sessionID, teacherID string, amount int64) (*models.TeacherTimesheet, error) {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM teacher_timesheets WHERE session_id = $1`, sessionID); err != nil {
		return nil, fmt.Errorf("clear session timesheet: %w", err)
	}
	now := time.Now().UTC()
	timesheet := &models.TeacherTimesheet{
		ID:        uuid.NewString(),
		TeacherID: teacherID,
		SessionID: sessionID,
		Amount:    amount,
		Status:    models.TimesheetStatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	const query = `INSERT INTO teacher_timesheets (id, teacher_id, session_id, amount, status, approved_by, approved_at, created_at, updated_at)
		VALUES (:id, :teacher_id, :session_id, :amount, :status, :approved_by, :approved_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, timesheet); err != nil {
		return nil, fmt.Errorf("insert session timesheet: %w", err)
	}
	return timesheet, nil
}

// DeleteBySession removes the session's pay record through exec.
func (r *TimesheetRepository) DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM teacher_timesheets WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete session timesheet: %w", err)
	}
	return nil
}

// List returns pay records matching the filter joined with their session
// date, ready for the payroll batch consumer.
func (r *TimesheetRepository) List(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetDetail, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if filter.TeacherID != "" {
		where = append(where, fmt.Sprintf("t.teacher_id = $%d", len(args)+1))
		args = append(args, filter.TeacherID)
	}
	if len(filter.Status) > 0 {
		statuses := make([]string, len(filter.Status))
		for i, s := range filter.Status {
			statuses[i] = string(s)
		}
		where = append(where, fmt.Sprintf("t.status = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(statuses))
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("s.date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("s.date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	countQuery := `SELECT COUNT(*) FROM teacher_timesheets t JOIN class_sessions s ON s.id = t.session_id WHERE ` + whereClause
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count timesheets: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 500 {
		size = 100
	}

	query := fmt.Sprintf(`SELECT t.id, t.teacher_id, t.session_id, t.amount, t.status, t.approved_by, t.approved_at, t.created_at, t.updated_at,
       s.date AS session_date, s.session_no, s.class_id
FROM teacher_timesheets t
JOIN class_sessions s ON s.id = t.session_id
WHERE %s ORDER BY s.date ASC, s.session_no ASC LIMIT $%d OFFSET $%d`, whereClause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var timesheets []models.TimesheetDetail
	if err := r.db.SelectContext(ctx, &timesheets, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list timesheets: %w", err)
	}
	return timesheets, total, nil
}
