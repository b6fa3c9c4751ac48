package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

type memoryCache struct {
	entries map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
	return nil
}

type stubCalendarReader struct {
	sessions []models.ClassSession
	calls    int
	filter   models.SessionFilter
}

func (s *stubCalendarReader) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	s.calls++
	s.filter = filter
	return s.sessions, len(s.sessions), nil
}

func newCalendarFixture(sessions []models.ClassSession) (*CalendarService, *stubCalendarReader, *memoryCache) {
	reader := &stubCalendarReader{sessions: sessions}
	cache := newMemoryCache()
	cacheSvc := NewCacheService(cache, nil, time.Minute, nil, true)
	return NewCalendarService(reader, cacheSvc, time.Minute, nil), reader, cache
}

func janSession(no int, d int, start string) models.ClassSession {
	return models.ClassSession{
		ID:        "s" + start,
		ClassID:   "c1",
		SessionNo: no,
		Date:      time.Date(2025, 1, d, 0, 0, 0, 0, time.UTC),
		StartTime: start,
		EndTime:   "20:00",
		Status:    models.SessionStatusPlanned,
	}
}

func TestCalendarMonthGroupsByDate(t *testing.T) {
	svc, reader, _ := newCalendarFixture([]models.ClassSession{
		janSession(1, 7, "10:00"),
		janSession(2, 7, "18:00"),
		janSession(3, 9, "18:00"),
	})

	view, err := svc.Month(context.Background(), "b1", "2025-01")
	require.NoError(t, err)

	assert.Equal(t, "b1", view.BranchID)
	assert.Equal(t, "2025-01", view.Month)
	require.Len(t, view.Days, 2)
	assert.Equal(t, "2025-01-07", view.Days[0].Date)
	assert.Len(t, view.Days[0].Sessions, 2)
	assert.Equal(t, "2025-01-09", view.Days[1].Date)
	assert.Len(t, view.Days[1].Sessions, 1)

	assert.Equal(t, "b1", reader.filter.BranchID)
	require.NotNil(t, reader.filter.DateFrom)
	require.NotNil(t, reader.filter.DateTo)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), *reader.filter.DateFrom)
	assert.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), *reader.filter.DateTo)
	assert.NotContains(t, reader.filter.Status, models.SessionStatusCanceled)
}

func TestCalendarMonthServedFromCache(t *testing.T) {
	svc, reader, _ := newCalendarFixture([]models.ClassSession{janSession(1, 7, "18:00")})

	_, err := svc.Month(context.Background(), "", "2025-01")
	require.NoError(t, err)
	view, err := svc.Month(context.Background(), "", "2025-01")
	require.NoError(t, err)

	assert.Equal(t, 1, reader.calls)
	require.Len(t, view.Days, 1)
}

func TestCalendarInvalidateDropsCachedMonths(t *testing.T) {
	svc, reader, cache := newCalendarFixture([]models.ClassSession{janSession(1, 7, "18:00")})

	_, err := svc.Month(context.Background(), "b1", "2025-01")
	require.NoError(t, err)
	require.Len(t, cache.entries, 1)

	svc.Invalidate(context.Background())
	assert.Empty(t, cache.entries)

	_, err = svc.Month(context.Background(), "b1", "2025-01")
	require.NoError(t, err)
	assert.Equal(t, 2, reader.calls)
}

func TestCalendarMonthKeyedPerBranch(t *testing.T) {
	svc, reader, cache := newCalendarFixture([]models.ClassSession{janSession(1, 7, "18:00")})

	_, err := svc.Month(context.Background(), "b1", "2025-01")
	require.NoError(t, err)
	_, err = svc.Month(context.Background(), "", "2025-01")
	require.NoError(t, err)

	assert.Equal(t, 2, reader.calls)
	assert.Contains(t, cache.entries, "calendar:b1:2025-01")
	assert.Contains(t, cache.entries, "calendar:all:2025-01")
}

func TestCalendarMonthRejectsBadMonth(t *testing.T) {
	svc, _, _ := newCalendarFixture(nil)

	_, err := svc.Month(context.Background(), "", "January 2025")
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
