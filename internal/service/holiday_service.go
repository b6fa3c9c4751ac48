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

type holidayStore interface {
	ListMatchingScope(ctx context.Context, classID, branchID string) ([]models.Holiday, error)
	List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error)
	FindByID(ctx context.Context, id string) (*models.Holiday, error)
	Create(ctx context.Context, holiday *models.Holiday) error
	Update(ctx context.Context, holiday *models.Holiday) error
	Delete(ctx context.Context, id string) error
}

// HolidayService answers holiday probes and manages exclusion windows.
type HolidayService struct {
	repo      holidayStore
	validator *validator.Validate
	logger    *zap.Logger
}

// NewHolidayService constructs the service.
func NewHolidayService(repo holidayStore, validate *validator.Validate, logger *zap.Logger) *HolidayService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HolidayService{repo: repo, validator: validate, logger: logger}
}

// IsHoliday reports whether the date is excluded for the class: any stored
// window matching the class's scope chain (global, its branch, the class
// itself) and covering the date makes it a holiday. Pure read.
func (s *HolidayService) IsHoliday(ctx context.Context, classID, branchID string, date time.Time) (bool, error) {
	holidays, err := s.repo.ListMatchingScope(ctx, classID, branchID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holidays")
	}
	for _, holiday := range holidays {
		if holiday.Covers(date) {
			return true, nil
		}
	}
	return false, nil
}

// List returns holidays matching the filter.
func (s *HolidayService) List(ctx context.Context, filter models.HolidayFilter) ([]models.Holiday, int, error) {
	holidays, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list holidays")
	}
	return holidays, total, nil
}

// Create validates and stores a new exclusion window.
func (s *HolidayService) Create(ctx context.Context, req dto.HolidayRequest) (*models.Holiday, error) {
	holiday, err := s.buildHoliday(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, holiday); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create holiday")
	}
	return holiday, nil
}

// Update rewrites an existing window.
func (s *HolidayService) Update(ctx context.Context, id string, req dto.HolidayRequest) (*models.Holiday, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load holiday")
	}
	holiday, err := s.buildHoliday(req)
	if err != nil {
		return nil, err
	}
	holiday.ID = existing.ID
	holiday.CreatedAt = existing.CreatedAt
	if err := s.repo.Update(ctx, holiday); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update holiday")
	}
	return holiday, nil
}

// Delete removes a window.
func (s *HolidayService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "holiday not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete holiday")
	}
	return nil
}

func (s *HolidayService) buildHoliday(req dto.HolidayRequest) (*models.Holiday, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid holiday payload")
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "startDate must be YYYY-MM-DD")
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must be YYYY-MM-DD")
	}
	if end.Before(start) && !req.RecurringYearly {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endDate must not precede startDate")
	}

	scope := models.HolidayScope(req.Scope)
	holiday := &models.Holiday{
		Name:            req.Name,
		StartDate:       start,
		EndDate:         end,
		Scope:           scope,
		RecurringYearly: req.RecurringYearly,
	}
	switch scope {
	case models.HolidayScopeBranch:
		holiday.BranchID = req.BranchID
	case models.HolidayScopeClass:
		holiday.ClassID = req.ClassID
	}
	return holiday, nil
}

// parseDate parses the wire date format shared by all scheduling payloads.
func parseDate(raw string) (time.Time, error) {
	return time.Parse("2006-01-02", raw)
}
