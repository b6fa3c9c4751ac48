package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type timesheetReader interface {
	FindBySession(ctx context.Context, sessionID string) (*models.TeacherTimesheet, error)
	List(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetDetail, int, error)
}

// TimesheetService serves the payroll-facing read side of the per-session
// pay ledger. Writes happen only through substitution reconciliation and
// the generator's reset cascade.
type TimesheetService struct {
	timesheets timesheetReader
	logger     *zap.Logger
}

// NewTimesheetService constructs the service.
func NewTimesheetService(timesheets timesheetReader, logger *zap.Logger) *TimesheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TimesheetService{timesheets: timesheets, logger: logger}
}

// List returns pay records matching the filter, joined with their session
// dates so payroll can bucket by period.
func (s *TimesheetService) List(ctx context.Context, filter models.TimesheetFilter) ([]models.TimesheetDetail, int, error) {
	rows, total, err := s.timesheets.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timesheets")
	}
	return rows, total, nil
}

// FindBySession returns the single pay record of a session.
func (s *TimesheetService) FindBySession(ctx context.Context, sessionID string) (*models.TeacherTimesheet, error) {
	sheet, err := s.timesheets.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no timesheet exists for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timesheet")
	}
	return sheet, nil
}
