package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type classroomStore interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
}

type weeklyScheduleStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.WeeklySchedule, error)
	Create(ctx context.Context, slot *models.WeeklySchedule) error
	Delete(ctx context.Context, id string) error
}

// ClassroomService exposes class reads and manages the weekly schedule
// template the generator walks.
type ClassroomService struct {
	classrooms classroomStore
	weekly     weeklyScheduleStore
	validator  *validator.Validate
	logger     *zap.Logger
}

// NewClassroomService constructs the service.
func NewClassroomService(classrooms classroomStore, weekly weeklyScheduleStore, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{classrooms: classrooms, weekly: weekly, validator: validate, logger: logger}
}

// List returns classes matching the filter.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error) {
	classes, total, err := s.classrooms.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classes")
	}
	return classes, total, nil
}

// Get returns one class.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	class, err := s.classrooms.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	return class, nil
}

// WeeklySchedules returns the class's recurring slot template.
func (s *ClassroomService) WeeklySchedules(ctx context.Context, classID string) ([]models.WeeklySchedule, error) {
	if _, err := s.Get(ctx, classID); err != nil {
		return nil, err
	}
	slots, err := s.weekly.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list weekly schedules")
	}
	return slots, nil
}

// AddWeeklySchedule appends a slot to the template. The template only
// shapes future generation runs; existing sessions are untouched.
func (s *ClassroomService) AddWeeklySchedule(ctx context.Context, classID string, req dto.CreateWeeklyScheduleRequest) (*models.WeeklySchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid weekly schedule payload")
	}
	if req.EndTime <= req.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	if _, err := s.Get(ctx, classID); err != nil {
		return nil, err
	}

	slot := &models.WeeklySchedule{
		ClassID:   classID,
		Weekday:   req.Weekday,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.weekly.Create(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create weekly schedule")
	}
	s.logger.Sugar().Infow("weekly schedule added",
		"class_id", classID, "weekday", req.Weekday, "start_time", req.StartTime, "end_time", req.EndTime)
	return slot, nil
}

// RemoveWeeklySchedule deletes one slot from the template.
func (s *ClassroomService) RemoveWeeklySchedule(ctx context.Context, id string) error {
	if err := s.weekly.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "weekly schedule not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete weekly schedule")
	}
	return nil
}
