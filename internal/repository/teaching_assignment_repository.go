package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lsa-api/internal/models"
)

// TeachingAssignmentRepository persists the time-bounded teacher-to-class
// timeline and answers "who teaches class X on date D".
type TeachingAssignmentRepository struct {
	db *sqlx.DB
}

// NewTeachingAssignmentRepository constructs the repository.
func NewTeachingAssignmentRepository(db *sqlx.DB) *TeachingAssignmentRepository {
	return &TeachingAssignmentRepository{db: db}
}

const assignmentColumns = `id, class_id, teacher_id, rate_per_session, effective_from, effective_to, created_at, updated_at`

// ResolveForDate returns the assignment active for the class on the given
// date. When the timeline overlaps (it should not), the most recently
// started assignment wins; rows with a null effective_from sort last so an
// explicit start always beats "since always". sql.ErrNoRows when none.
func (r *TeachingAssignmentRepository) ResolveForDate(ctx context.Context, classID string, date time.Time) (*models.TeachingAssignment, error) {
	const query = `SELECT ` + assignmentColumns + `
FROM teaching_assignments
WHERE class_id = $1
  AND (effective_from IS NULL OR effective_from <= $2)
  AND (effective_to IS NULL OR effective_to >= $2)
ORDER BY effective_from DESC NULLS LAST, id ASC
LIMIT 1`
	var assignment models.TeachingAssignment
	if err := r.db.GetContext(ctx, &assignment, query, classID, date); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// RateFor returns the per-session rate for a specific teacher on a class
// and date, or 0 when no matching assignment exists.
func (r *TeachingAssignmentRepository) RateFor(ctx context.Context, classID, teacherID string, date time.Time) (int64, error) {
	const query = `SELECT rate_per_session
FROM teaching_assignments
WHERE class_id = $1 AND teacher_id = $2
  AND (effective_from IS NULL OR effective_from <= $3)
  AND (effective_to IS NULL OR effective_to >= $3)
ORDER BY effective_from DESC NULLS LAST, id ASC
LIMIT 1`
	var rate int64
	if err := r.db.GetContext(ctx, &rate, query, classID, teacherID, date); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("resolve assignment rate: %w", err)
	}
	return rate, nil
}

// ListByClass returns the full assignment timeline of a class.
func (r *TeachingAssignmentRepository) ListByClass(ctx context.Context, classID string) ([]models.TeachingAssignment, error) {
	const query = `SELECT ` + assignmentColumns + `
FROM teaching_assignments WHERE class_id = $1
ORDER BY effective_from ASC NULLS FIRST, id ASC`
	var assignments []models.TeachingAssignment
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list teaching assignments: %w", err)
	}
	return assignments, nil
}

// Create inserts a new assignment.
func (r *TeachingAssignmentRepository) Create(ctx context.Context, assignment *models.TeachingAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = now
	}
	assignment.UpdatedAt = now
	const query = `INSERT INTO teaching_assignments (id, class_id, teacher_id, rate_per_session, effective_from, effective_to, created_at, updated_at)
		VALUES (:id, :class_id, :teacher_id, :rate_per_session, :effective_from, :effective_to, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create teaching assignment: %w", err)
	}
	return nil
}

// Update rewrites an assignment.
func (r *TeachingAssignmentRepository) Update(ctx context.Context, assignment *models.TeachingAssignment) error {
	assignment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE teaching_assignments
		SET teacher_id = :teacher_id, rate_per_session = :rate_per_session,
		    effective_from = :effective_from, effective_to = :effective_to, updated_at = :updated_at
		WHERE id = :id`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("update teaching assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes an assignment.
func (r *TeachingAssignmentRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM teaching_assignments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete teaching assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
