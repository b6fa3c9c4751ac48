package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/lsa-api/internal/models"
)

// SubstitutionRepository persists per-session substitute records. All
// mutations go through exec because they always travel with a timesheet
// rewrite in the same transaction.
type SubstitutionRepository struct {
	db *sqlx.DB
}

// NewSubstitutionRepository constructs the repository.
func NewSubstitutionRepository(db *sqlx.DB) *SubstitutionRepository {
	return &SubstitutionRepository{db: db}
}

const substitutionColumns = `id, session_id, substitute_teacher_id, rate_override, reason, approved_by, approved_at, created_at, updated_at`

// FindBySession returns the substitution for a session, sql.ErrNoRows when
// the session has none.
func (r *SubstitutionRepository) FindBySession(ctx context.Context, sessionID string) (*models.SessionSubstitution, error) {
	const query = `SELECT ` + substitutionColumns + ` FROM session_substitutions WHERE session_id = $1`
	var substitution models.SessionSubstitution
	if err := r.db.GetContext(ctx, &substitution, query, sessionID); err != nil {
		return nil, err
	}
	return &substitution, nil
}

// Create inserts a substitution through exec.
func (r *SubstitutionRepository) Create(ctx context.Context, exec sqlx.ExtContext, substitution *models.SessionSubstitution) error {
	if exec == nil {
		exec = r.db
	}
	if substitution.ID == "" {
		substitution.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if substitution.CreatedAt.IsZero() {
		substitution.CreatedAt = now
	}
	substitution.UpdatedAt = now
	const query = `INSERT INTO session_substitutions (id, session_id, substitute_teacher_id, rate_override, reason, approved_by, approved_at, created_at, updated_at)
		VALUES (:id, :session_id, :substitute_teacher_id, :rate_override, :reason, :approved_by, :approved_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, substitution); err != nil {
		return fmt.Errorf("create substitution: %w", err)
	}
	return nil
}

// Update rewrites a substitution through exec.
func (r *SubstitutionRepository) Update(ctx context.Context, exec sqlx.ExtContext, substitution *models.SessionSubstitution) error {
	if exec == nil {
		exec = r.db
	}
	substitution.UpdatedAt = time.Now().UTC()
	const query = `UPDATE session_substitutions
		SET substitute_teacher_id = :substitute_teacher_id, rate_override = :rate_override,
		    reason = :reason, approved_by = :approved_by, approved_at = :approved_at, updated_at = :updated_at
		WHERE id = :id`
	if _, err := sqlx.NamedExecContext(ctx, exec, query, substitution); err != nil {
		return fmt.Errorf("update substitution: %w", err)
	}
	return nil
}

// DeleteBySession removes the substitution of a session through exec.
func (r *SubstitutionRepository) DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) error {
	if exec == nil {
		exec = r.db
	}
	if _, err := exec.ExecContext(ctx, `DELETE FROM session_substitutions WHERE session_id = $1`, sessionID); err != nil {
		return fmt.Errorf("delete substitution: %w", err)
	}
	return nil
}
