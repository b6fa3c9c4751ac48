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

// HolidayRepository persists calendar exclusion windows.
type HolidayRepository struct {
	db *sqlx.DB
}

// NewHolidayRepository constructs the repository.
func NewHolidayRepository(db *sqlx.DB) *HolidayRepository {
	return &HolidayRepository{db: db}
}

const holidayColumns = `id, name, start_date, end_date, scope, branch_id, class_id, recurring_yearly, created_at, updated_at`

// ListMatchingScope returns holidays whose scope could exclude the given
// class: global rows, rows for the class's branch, and rows for the class
// itself. Date coverage (including yearly recurrence) is evaluated by the
// caller so the recurrence rule lives in one tested place.
func (r *HolidayRepository) ListMatchingScope(ctx context.Context, classID, branchID string) ([]models.Holiday, error) {
	const query = `SELECT ` + holidayColumns + `
FROM holidays
WHERE scope = 'global'
   OR (scope = 'branch' AND branch_id = $1)
   OR (scope = 'class' AND class_id = $2)
ORDER BY start_date ASC`
	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, branchID, classID); err != nil {
		return nil, fmt.Errorf("list holidays by scope: %w", err)
	}
	return holidays, nil
}

// List returns holidays matching the filter with a total count.
func (r *HolidayRepository) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if len(filter.Scope) > 0 {
		scopes := make([]string, len(filter.Scope))
		for i, s := range filter.Scope {
			scopes[i] = string(s)
		}
		where = append(where, fmt.Sprintf("scope = ANY($%d)", len(args)+1))
		args = append(args, pq.Array(scopes))
	}
	if filter.BranchID != "" {
		where = append(where, fmt.Sprintf("(scope <> 'branch' OR branch_id = $%d)", len(args)+1))
		args = append(args, filter.BranchID)
	}
	if filter.ClassID != "" {
		where = append(where, fmt.Sprintf("(scope <> 'class' OR class_id = $%d)", len(args)+1))
		args = append(args, filter.ClassID)
	}
	if filter.DateFrom != nil {
		where = append(where, fmt.Sprintf("(recurring_yearly OR end_date >= $%d)", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		where = append(where, fmt.Sprintf("(recurring_yearly OR start_date <= $%d)", len(args)+1))
		args = append(args, *filter.DateTo)
	}
	whereClause := strings.Join(where, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM holidays WHERE "+whereClause, args...); err != nil {
		return nil, 0, fmt.Errorf("count holidays: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 200 {
		size = 50
	}

	query := fmt.Sprintf("SELECT %s FROM holidays WHERE %s ORDER BY start_date ASC LIMIT $%d OFFSET $%d",
		holidayColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, size, (page-1)*size)

	var holidays []models.Holiday
	if err := r.db.SelectContext(ctx, &holidays, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list holidays: %w", err)
	}
	return holidays, total, nil
}

// FindByID loads one holiday.
func (r *HolidayRepository) FindByID(ctx context.Context, id string) (*models.Holiday, error) {
	const query = `SELECT ` + holidayColumns + ` FROM holidays WHERE id = $1`
	var holiday models.Holiday
	if err := r.db.GetContext(ctx, &holiday, query, id); err != nil {
		return nil, err
	}
	return &holiday, nil
}

// Create inserts a new holiday.
func (r *HolidayRepository) Create(ctx context.Context, holiday *models.Holiday) error {
	if holiday.ID == "" {
		holiday.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if holiday.CreatedAt.IsZero() {
		holiday.CreatedAt = now
	}
	holiday.UpdatedAt = now
	const query = `INSERT INTO holidays (id, name, start_date, end_date, scope, branch_id, class_id, recurring_yearly, created_at, updated_at)
		VALUES (:id, :name, :start_date, :end_date, :scope, :branch_id, :class_id, :recurring_yearly, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, holiday); err != nil {
		return fmt.Errorf("create holiday: %w", err)
	}
	return nil
}

// Update rewrites an existing holiday.
func (r *HolidayRepository) Update(ctx context.Context, holiday *models.Holiday) error {
	holiday.UpdatedAt = time.Now().UTC()
	const query = `UPDATE holidays
		SET name = :name, start_date = :start_date, end_date = :end_date, scope = :scope,
		    branch_id = :branch_id, class_id = :class_id, recurring_yearly = :recurring_yearly, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, holiday)
	if err != nil {
		return fmt.Errorf("update holiday: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated holiday rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a holiday.
func (r *HolidayRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM holidays WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete holiday: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted holiday rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
