package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type calendarSessionReader interface {
	List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error)
}

// CalendarDay groups a month view's sessions under their date.
type CalendarDay struct {
	Date     string                `json:"date"`
	Sessions []models.ClassSession `json:"sessions"`
}

// CalendarMonth is the cached month-view payload.
type CalendarMonth struct {
	BranchID string        `json:"branch_id,omitempty"`
	Month    string        `json:"month"`
	Days     []CalendarDay `json:"days"`
}

// CalendarService renders the month view of generated sessions. Month
// payloads are cached per (branch, month) and invalidated whenever sessions
// change.
type CalendarService struct {
	sessions calendarSessionReader
	cache    *CacheService
	ttl      time.Duration
	logger   *zap.Logger
}

// NewCalendarService constructs the service.
func NewCalendarService(sessions calendarSessionReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *CalendarService {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarService{sessions: sessions, cache: cache, ttl: ttl, logger: logger}
}

// Month returns every non-canceled session of the month, grouped by date.
// month is formatted YYYY-MM; branchID narrows to one branch when set.
func (s *CalendarService) Month(ctx context.Context, branchID, month string) (*CalendarMonth, error) {
	first, err := time.Parse("2006-01", month)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "month must be YYYY-MM")
	}

	key := fmt.Sprintf("calendar:%s:%s", branchCacheSegment(branchID), month)
	var cached CalendarMonth
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	last := first.AddDate(0, 1, -1)
	sessions, _, err := s.sessions.List(ctx, models.SessionFilter{
		BranchID: branchID,
		DateFrom: &first,
		DateTo:   &last,
		Status:   []models.SessionStatus{models.SessionStatusPlanned, models.SessionStatusMoved},
		PageSize: 500,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load month sessions")
	}

	view := &CalendarMonth{BranchID: branchID, Month: month}
	var day *CalendarDay
	for _, session := range sessions {
		date := session.Date.Format("2006-01-02")
		if day == nil || day.Date != date {
			view.Days = append(view.Days, CalendarDay{Date: date})
			day = &view.Days[len(view.Days)-1]
		}
		day.Sessions = append(day.Sessions, session)
	}

	if err := s.cache.Set(ctx, key, view, s.ttl); err != nil {
		s.logger.Sugar().Debugw("calendar cache write failed", "key", key, "error", err)
	}
	return view, nil
}

// Invalidate drops every cached month. Session mutations call this so the
// calendar never serves stale slots.
func (s *CalendarService) Invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, "calendar:*"); err != nil {
		s.logger.Sugar().Debugw("calendar cache invalidation failed", "error", err)
	}
}

func branchCacheSegment(branchID string) string {
	if branchID == "" {
		return "all"
	}
	return branchID
}
