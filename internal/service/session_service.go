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

type sessionStore interface {
	FindByID(ctx context.Context, id string) (*models.ClassSession, error)
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error)
	ListByClass(ctx context.Context, classID string) ([]models.ClassSession, error)
	HasOverlap(ctx context.Context, roomID string, date time.Time, start, end, excludeID string) (bool, error)
	UpdateRoom(ctx context.Context, sessionID string, roomID *string) error
	Update(ctx context.Context, session *models.ClassSession) error
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type calendarInvalidator interface {
	Invalidate(ctx context.Context)
}

// SessionService owns the synchronous session operations: listing, manual
// overrides, and conflict-aware room assignment.
type SessionService struct {
	sessions  sessionStore
	rooms     roomReader
	calendar  calendarInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewSessionService constructs the service.
func NewSessionService(sessions sessionStore, rooms roomReader, calendar calendarInvalidator, validate *validator.Validate, logger *zap.Logger) *SessionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionService{sessions: sessions, rooms: rooms, calendar: calendar, validator: validate, logger: logger}
}

// List returns sessions matching the filter.
func (s *SessionService) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	sessions, total, err := s.sessions.List(ctx, filter)
	if err != nil {
		return nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sessions")
	}
	return sessions, total, nil
}

// ListByClass returns the ordered session sequence of a class.
func (s *SessionService) ListByClass(ctx context.Context, classID string) ([]models.ClassSession, error) {
	sessions, err := s.sessions.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class sessions")
	}
	return sessions, nil
}

// Overlaps is the read contract behind room assignment: does any session
// already occupy the room on the date in the half-open range [start, end)?
func (s *SessionService) Overlaps(ctx context.Context, roomID string, date time.Time, start, end, excludeSessionID string) (bool, error) {
	overlap, err := s.sessions.HasOverlap(ctx, roomID, date, start, end, excludeSessionID)
	if err != nil {
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room overlap")
	}
	return overlap, nil
}

// AssignRoom sets the room of one session, vetoed when the room is already
// occupied in the session's time range.
func (s *SessionService) AssignRoom(ctx context.Context, sessionID string, req dto.AssignRoomRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid room assignment payload")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	overlap, err := s.Overlaps(ctx, req.RoomID, session.Date, session.StartTime, session.EndTime, session.ID)
	if err != nil {
		return nil, err
	}
	if overlap {
		return nil, appErrors.ErrRoomConflict
	}

	roomID := req.RoomID
	if err := s.sessions.UpdateRoom(ctx, session.ID, &roomID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign room")
	}
	session.RoomID = &roomID
	s.invalidateCalendar(ctx)
	return session, nil
}

// BulkAssignRoom assigns a room to many sessions in input order. Conflicting
// rows are skipped and reported, never aborting the rest of the batch.
func (s *SessionService) BulkAssignRoom(ctx context.Context, req dto.BulkAssignRoomRequest) (*models.BulkRoomAssignResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bulk room assignment payload")
	}
	if err := s.ensureRoom(ctx, req.RoomID); err != nil {
		return nil, err
	}

	result := &models.BulkRoomAssignResult{Conflicts: []string{}}
	for _, sessionID := range req.SessionIDs {
		session, err := s.sessions.FindByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				result.Conflicts = append(result.Conflicts, sessionID)
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
		}

		overlap, err := s.sessions.HasOverlap(ctx, req.RoomID, session.Date, session.StartTime, session.EndTime, session.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check room overlap")
		}
		if overlap {
			result.Conflicts = append(result.Conflicts, sessionID)
			continue
		}

		roomID := req.RoomID
		if err := s.sessions.UpdateRoom(ctx, session.ID, &roomID); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign room")
		}
		result.Updated++
	}
	if result.Updated > 0 {
		s.invalidateCalendar(ctx)
	}
	return result, nil
}

// UpdateSession edits one session individually (manual override). The
// generator never revisits committed sessions, so the override sticks.
// When the session holds a room and its date or time changes, the new slot
// is re-checked against the room.
func (s *SessionService) UpdateSession(ctx context.Context, sessionID string, req dto.UpdateSessionRequest) (*models.ClassSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid session payload")
	}
	session, err := s.loadSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	slotChanged := false
	if req.Date != nil {
		date, err := parseDate(*req.Date)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
		}
		if !date.Equal(session.Date) {
			session.Date = date
			slotChanged = true
			if req.Status == nil && session.Status == models.SessionStatusPlanned {
				session.Status = models.SessionStatusMoved
			}
		}
	}
	if req.StartTime != nil && *req.StartTime != session.StartTime {
		session.StartTime = *req.StartTime
		slotChanged = true
	}
	if req.EndTime != nil && *req.EndTime != session.EndTime {
		session.EndTime = *req.EndTime
		slotChanged = true
	}
	if session.EndTime <= session.StartTime {
		return nil, appErrors.Clone(appErrors.ErrValidation, "endTime must be after startTime")
	}
	if req.Status != nil {
		session.Status = models.SessionStatus(*req.Status)
	}
	if req.Note != nil {
		session.Note = *req.Note
	}

	if slotChanged && session.RoomID != nil && session.Status != models.SessionStatusCanceled {
		overlap, err := s.Overlaps(ctx, *session.RoomID, session.Date, session.StartTime, session.EndTime, session.ID)
		if err != nil {
			return nil, err
		}
		if overlap {
			return nil, appErrors.ErrRoomConflict
		}
	}

	if err := s.sessions.Update(ctx, session); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update session")
	}
	s.invalidateCalendar(ctx)
	return session, nil
}

func (s *SessionService) loadSession(ctx context.Context, sessionID string) (*models.ClassSession, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "session not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load session")
	}
	return session, nil
}

func (s *SessionService) ensureRoom(ctx context.Context, roomID string) error {
	if s.rooms == nil {
		return nil
	}
	if _, err := s.rooms.FindByID(ctx, roomID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "room not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room")
	}
	return nil
}

func (s *SessionService) invalidateCalendar(ctx context.Context) {
	if s.calendar != nil {
		s.calendar.Invalidate(ctx)
	}
}
