package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type assignmentStore interface {
	ResolveForDate(ctx context.Context, classID string, date time.Time) (*models.TeachingAssignment, error)
	RateFor(ctx context.Context, classID, teacherID string, date time.Time) (int64, error)
	ListByClass(ctx context.Context, classID string) ([]models.TeachingAssignment, error)
	Create(ctx context.Context, assignment *models.TeachingAssignment) error
	Update(ctx context.Context, assignment *models.TeachingAssignment) error
	Delete(ctx context.Context, id string) error
}

type assignmentClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

// AssignmentService resolves the teaching assignment ledger and manages
// the per-class assignment timeline.
type AssignmentService struct {
	repo      assignmentStore
	classes   assignmentClassReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(repo assignmentStore, classes assignmentClassReader, validate *validator.Validate, logger *zap.Logger) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssignmentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// ResolveTeacher returns the teacher assigned to the class on the date, or
// an empty string when no assignment covers it.
func (s *AssignmentService) ResolveTeacher(ctx context.Context, classID string, date time.Time) (string, error) {
	assignment, err := s.repo.ResolveForDate(ctx, classID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve teacher")
	}
	return assignment.TeacherID, nil
}

// Rate returns the per-session rate for the teacher on the class and date,
// 0 when no matching assignment exists.
func (s *AssignmentService) Rate(ctx context.Context, classID, teacherID string, date time.Time) (int64, error) {
	rate, err := s.repo.RateFor(ctx, classID, teacherID, date)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve rate")
	}
	return rate, nil
}

// ListByClass returns the class's assignment timeline.
func (s *AssignmentService) ListByClass(ctx context.Context, classID string) ([]models.TeachingAssignment, error) {
	assignments, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Create appends an assignment to the class timeline. Overlapping windows
// are accepted but logged; the resolver tie-breaks deterministically.
func (s *AssignmentService) Create(ctx context.Context, classID string, req dto.AssignmentRequest) (*models.TeachingAssignment, error) {
	assignment, err := s.buildAssignment(ctx, classID, req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, assignment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}
	return assignment, nil
}

// Update rewrites an assignment window.
func (s *AssignmentService) Update(ctx context.Context, classID, id string, req dto.AssignmentRequest) (*models.TeachingAssignment, error) {
	assignment, err := s.buildAssignment(ctx, classID, req)
	if err != nil {
		return nil, err
	}
	assignment.ID = id
	if err := s.repo.Update(ctx, assignment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment")
	}
	return assignment, nil
}

// Delete removes an assignment window.
func (s *AssignmentService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "assignment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete assignment")
	}
	return nil
}

func (s *AssignmentService) buildAssignment(ctx context.Context, classID string, req dto.AssignmentRequest) (*models.TeachingAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if s.classes != nil {
		if _, err := s.classes.FindByID(ctx, classID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
		}
	}

	assignment := &models.TeachingAssignment{
		ClassID:        classID,
		TeacherID:      req.TeacherID,
		RatePerSession: req.RatePerSession,
	}
	if req.EffectiveFrom != nil {
		from, err := parseDate(*req.EffectiveFrom)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "effectiveFrom must be YYYY-MM-DD")
		}
		assignment.EffectiveFrom = &from
	}
	if req.EffectiveTo != nil {
		to, err := parseDate(*req.EffectiveTo)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "effectiveTo must be YYYY-MM-DD")
		}
		assignment.EffectiveTo = &to
	}
	if assignment.EffectiveFrom != nil && assignment.EffectiveTo != nil && assignment.EffectiveTo.Before(*assignment.EffectiveFrom) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "effectiveTo must not precede effectiveFrom")
	}

	if existing, err := s.repo.ListByClass(ctx, classID); err == nil {
		for _, other := range existing {
			if other.ID == assignment.ID {
				continue
			}
			if windowsOverlap(assignment, &other) {
				s.logger.Sugar().Warnw("overlapping teaching assignment window",
					"class_id", classID, "teacher_id", req.TeacherID, "other_id", other.ID)
				break
			}
		}
	}
	return assignment, nil
}

// windowsOverlap treats nil bounds as open-ended.
func windowsOverlap(a, b *models.TeachingAssignment) bool {
	aStartsBeforeBEnds := b.EffectiveTo == nil || a.EffectiveFrom == nil || !a.EffectiveFrom.After(*b.EffectiveTo)
	bStartsBeforeAEnds := a.EffectiveTo == nil || b.EffectiveFrom == nil || !b.EffectiveFrom.After(*a.EffectiveTo)
	return aStartsBeforeBEnds && bStartsBeforeAEnds
}
