package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type substitutionStore interface {
	FindBySession(ctx context.Context, sessionID string) (*models.SessionSubstitution, error)
	Create(ctx context.Context, exec sqlx.ExtContext, substitution *models.SessionSubstitution) error
	Update(ctx context.Context, exec sqlx.ExtContext, substitution *models.SessionSubstitution) error
	DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) error
}

type timesheetWriter interface {
	ReplaceForSession(ctx context.Context, exec sqlx.ExtContext, sessionID, teacherID string, amount int64) (*models.TeacherTimesheet, error)
	DeleteBySession(ctx context.Context, exec sqlx.ExtContext, sessionID string) error
}

type substitutionSessionReader interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
}

type substitutionLedger interface {
	ResolveForDate(ctx context.Context, classID string, date time.Time) (*models.TeachingAssignment, error)
	RateFor(ctx context.Context, classID, teacherID string, date time.Time) (int64, error)
}

// SubstitutionService reassigns single sessions to substitute teachers and
// keeps the per-session pay record consistent with whoever is credited.
// Every mutation runs the substitution write and the timesheet rewrite in
// one transaction.
type SubstitutionService struct {
	substitutions substitutionStore
	timesheets    timesheetWriter
	sessions      substitutionSessionReader
	ledger        substitutionLedger
	tx            txProvider
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewSubstitutionService wires substitution dependencies.
func NewSubstitutionService(
	substitutions substitutionStore,
	timesheets timesheetWriter,
	sessions substitutionSessionReader,
	ledger substitutionLedger,
	tx txProvider,
	validate *validator.Validate,
	logger *zap.Logger,
) *SubstitutionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SubstitutionService{
		substitutions: substitutions,
		timesheets:    timesheets,
		sessions:      sessions,
		ledger:        ledger,
		tx:            tx,
		validator:     validate,
		logger:        logger,
	}
}

// Create records a substitution for a session that does not have one yet
// and retargets the session's pay record to the substitute.
func (s *SubstitutionService) Create(ctx context.Context, sessionID string, req dto.SubstitutionRequest) (*dto.SubstitutionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if _, err := s.substitutions.FindBySession(ctx, sessionID); err == nil {
		return nil, appErrors.ErrAlreadySubstituted
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing substitution")
	}

	amount, err := s.payAmount(ctx, session, req)
	if err != nil {
		return nil, err
	}

	sub := &models.SessionSubstitution{
		SessionID:           sessionID,
		SubstituteTeacherID: req.SubstituteTeacherID,
		RateOverride:        req.RateOverride,
		Reason:              req.Reason,
		ApprovedBy:          req.ApprovedBy,
	}
	if req.ApprovedBy != "" {
		now := time.Now().UTC()
		sub.ApprovedAt = &now
	}

	var sheet *models.TeacherTimesheet
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.substitutions.Create(ctx, tx, sub); err != nil {
			if isUniqueViolation(err) {
				return appErrors.ErrAlreadySubstituted
			}
			return err
		}
		sheet, err = s.timesheets.ReplaceForSession(ctx, tx, sessionID, req.SubstituteTeacherID, amount)
		return err
	})
	if err != nil {
		return nil, s.asAppError(err, "failed to record substitution")
	}

	s.logger.Sugar().Infow("substitution recorded",
		"session_id", sessionID, "substitute_teacher_id", req.SubstituteTeacherID, "amount", amount)
	return &dto.SubstitutionResponse{
		SubstitutionID: sub.ID,
		SessionID:      sessionID,
		TeacherID:      req.SubstituteTeacherID,
		Amount:         amount,
		TimesheetID:    sheet.ID,
	}, nil
}

// Update changes an existing substitution in place, typically to swap the
// substitute or adjust the agreed rate.
func (s *SubstitutionService) Update(ctx context.Context, sessionID string, req dto.SubstitutionRequest) (*dto.SubstitutionResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid substitution payload")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sub, err := s.substitutions.FindBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no substitution exists for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution")
	}

	amount, err := s.payAmount(ctx, session, req)
	if err != nil {
		return nil, err
	}

	sub.SubstituteTeacherID = req.SubstituteTeacherID
	sub.RateOverride = req.RateOverride
	sub.Reason = req.Reason
	sub.ApprovedBy = req.ApprovedBy
	if req.ApprovedBy != "" && sub.ApprovedAt == nil {
		now := time.Now().UTC()
		sub.ApprovedAt = &now
	}

	var sheet *models.TeacherTimesheet
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.substitutions.Update(ctx, tx, sub); err != nil {
			return err
		}
		sheet, err = s.timesheets.ReplaceForSession(ctx, tx, sessionID, req.SubstituteTeacherID, amount)
		return err
	})
	if err != nil {
		return nil, s.asAppError(err, "failed to update substitution")
	}

	return &dto.SubstitutionResponse{
		SubstitutionID: sub.ID,
		SessionID:      sessionID,
		TeacherID:      req.SubstituteTeacherID,
		Amount:         amount,
		TimesheetID:    sheet.ID,
	}, nil
}

// Destroy reverts a substitution. The pay record falls back to whoever the
// assignment ledger resolves for the session date; when no assignment
// covers the date the session is left without a pay record.
func (s *SubstitutionService) Destroy(ctx context.Context, sessionID string) (*dto.RevertResponse, error) {
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.substitutions.FindBySession(ctx, sessionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no substitution exists for this session")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load substitution")
	}

	assignment, err := s.ledger.ResolveForDate(ctx, session.ClassID, session.Date)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve regular teacher")
	}

	resp := &dto.RevertResponse{SessionID: sessionID}
	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.substitutions.DeleteBySession(ctx, tx, sessionID); err != nil {
			return err
		}
		if err := s.timesheets.DeleteBySession(ctx, tx, sessionID); err != nil {
			return err
		}
		if assignment == nil {
			return nil
		}
		sheet, err := s.timesheets.ReplaceForSession(ctx, tx, sessionID, assignment.TeacherID, assignment.RatePerSession)
		if err != nil {
			return err
		}
		resp.TeacherID = &sheet.TeacherID
		resp.Amount = sheet.Amount
		resp.TimesheetID = &sheet.ID
		return nil
	})
	if err != nil {
		return nil, s.asAppError(err, "failed to revert substitution")
	}

	s.logger.Sugar().Infow("substitution reverted", "session_id", sessionID)
	return resp, nil
}

// payAmount prefers the explicit override, then the substitute's own rate
// for this class on the session date.
func (s *SubstitutionService) payAmount(ctx context.Context, session *models.ClassSession, req dto.SubstitutionRequest) (int64, error) {
	if req.RateOverride != nil {
		return *req.RateOverride, nil
	}
	rate, err := s.ledger.RateFor(ctx, session.ClassID, req.SubstituteTeacherID, session.Date)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve substitute rate")
	}
	return rate, nil
}

func (s *SubstitutionService) loadSession(ctx context.Context, sessionID string) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *SubstitutionService) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (s *SubstitutionService) asAppError(err error, fallback string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fallback)
}
