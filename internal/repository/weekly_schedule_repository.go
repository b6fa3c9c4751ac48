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

// WeeklyScheduleRepository persists the recurring weekday/time templates
// sessions are generated from.
type WeeklyScheduleRepository struct {
	db *sqlx.DB
}

// NewWeeklyScheduleRepository constructs the repository.
func NewWeeklyScheduleRepository(db *sqlx.DB) *WeeklyScheduleRepository {
	return &WeeklyScheduleRepository{db: db}
}

// ListByClass returns all slots for a class ordered by weekday and start time.
func (r *WeeklyScheduleRepository) ListByClass(ctx context.Context, classID string) ([]models.WeeklySchedule, error) {
	const query = `SELECT id, class_id, weekday, start_time, end_time, created_at
FROM weekly_schedules WHERE class_id = $1 ORDER BY weekday ASC, start_time ASC`
	var slots []models.WeeklySchedule
	if err := r.db.SelectContext(ctx, &slots, query, classID); err != nil {
		return nil, fmt.Errorf("list weekly schedules: %w", err)
	}
	return slots, nil
}

// CountByClass returns how many template slots the class has.
func (r *WeeklyScheduleRepository) CountByClass(ctx context.Context, classID string) (int, error) {
	const query = `SELECT COUNT(*) FROM weekly_schedules WHERE class_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, classID); err != nil {
		return 0, fmt.Errorf("count weekly schedules: %w", err)
	}
	return count, nil
}

// Create inserts a new slot.
func (r *WeeklyScheduleRepository) Create(ctx context.Context, slot *models.WeeklySchedule) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO weekly_schedules (id, class_id, weekday, start_time, end_time, created_at)
		VALUES (:id, :class_id, :weekday, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("create weekly schedule: %w", err)
	}
	return nil
}

// Delete removes a slot.
func (r *WeeklyScheduleRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM weekly_schedules WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete weekly schedule: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check deleted weekly schedule rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
