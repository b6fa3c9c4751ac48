package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
)

// stubRoomStore keeps sessions in memory and answers overlap probes with
// the same half-open interval rule the SQL uses.
type stubRoomStore struct {
	sessions map[string]*models.ClassSession
	updated  []string
}

func (s *stubRoomStore) FindByID(ctx context.Context, id string) (*models.ClassSession, error) {
	session, ok := s.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (s *stubRoomStore) List(ctx context.Context, filter models.SessionFilter) ([]models.ClassSession, int, error) {
	var out []models.ClassSession
	for _, session := range s.sessions {
		out = append(out, *session)
	}
	return out, len(out), nil
}

func (s *stubRoomStore) ListByClass(ctx context.Context, classID string) ([]models.ClassSession, error) {
	var out []models.ClassSession
	for _, session := range s.sessions {
		if session.ClassID == classID {
			out = append(out, *session)
		}
	}
	return out, nil
}

func (s *stubRoomStore) HasOverlap(ctx context.Context, roomID string, date time.Time, start, end, excludeID string) (bool, error) {
	for _, session := range s.sessions {
		if session.ID == excludeID || session.RoomID == nil || *session.RoomID != roomID {
			continue
		}
		if !session.Date.Equal(date) || session.Status == models.SessionStatusCanceled {
			continue
		}
		if session.StartTime < end && start < session.EndTime {
			return true, nil
		}
	}
	return false, nil
}

func (s *stubRoomStore) UpdateRoom(ctx context.Context, sessionID string, roomID *string) error {
	session, ok := s.sessions[sessionID]
	if !ok {
		return sql.ErrNoRows
	}
	session.RoomID = roomID
	s.updated = append(s.updated, sessionID)
	return nil
}

func (s *stubRoomStore) Update(ctx context.Context, session *models.ClassSession) error {
	if _, ok := s.sessions[session.ID]; !ok {
		return sql.ErrNoRows
	}
	copied := *session
	s.sessions[session.ID] = &copied
	return nil
}

type stubRooms struct{}

func (stubRooms) FindByID(ctx context.Context, id string) (*models.Room, error) {
	if id == "missing" {
		return nil, sql.ErrNoRows
	}
	return &models.Room{ID: id, BranchID: "b1", Name: "Room"}, nil
}

type countingInvalidator struct {
	calls int
}

func (c *countingInvalidator) Invalidate(ctx context.Context) { c.calls++ }

func jan7() time.Time { return time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC) }

func newSessionFixture() (*SessionService, *stubRoomStore, *countingInvalidator) {
	roomID := "r1"
	store := &stubRoomStore{sessions: map[string]*models.ClassSession{
		"occupied": {ID: "occupied", ClassID: "c2", SessionNo: 1, Date: jan7(), StartTime: "18:00", EndTime: "20:00", RoomID: &roomID, Status: models.SessionStatusPlanned},
		"free":     {ID: "free", ClassID: "c1", SessionNo: 1, Date: jan7(), StartTime: "19:00", EndTime: "21:00", Status: models.SessionStatusPlanned},
		"touching": {ID: "touching", ClassID: "c1", SessionNo: 2, Date: jan7(), StartTime: "20:00", EndTime: "22:00", Status: models.SessionStatusPlanned},
	}}
	invalidator := &countingInvalidator{}
	return NewSessionService(store, stubRooms{}, invalidator, nil, nil), store, invalidator
}

func TestAssignRoomVetoedOnOverlap(t *testing.T) {
	service, store, _ := newSessionFixture()

	_, err := service.AssignRoom(context.Background(), "free", dto.AssignRoomRequest{RoomID: "r1"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRoomConflict.Code, appErr.Code)
	assert.Empty(t, store.updated)
}

func TestAssignRoomTouchingEndpointsDoNotOverlap(t *testing.T) {
	service, store, invalidator := newSessionFixture()

	session, err := service.AssignRoom(context.Background(), "touching", dto.AssignRoomRequest{RoomID: "r1"})
	require.NoError(t, err)
	require.NotNil(t, session.RoomID)
	assert.Equal(t, "r1", *session.RoomID)
	assert.Equal(t, []string{"touching"}, store.updated)
	assert.Equal(t, 1, invalidator.calls)
}

func TestAssignRoomIgnoresCanceledOccupant(t *testing.T) {
	service, store, _ := newSessionFixture()
	store.sessions["occupied"].Status = models.SessionStatusCanceled

	_, err := service.AssignRoom(context.Background(), "free", dto.AssignRoomRequest{RoomID: "r1"})
	require.NoError(t, err)
}

func TestAssignRoomUnknownRoom(t *testing.T) {
	service, _, _ := newSessionFixture()

	_, err := service.AssignRoom(context.Background(), "free", dto.AssignRoomRequest{RoomID: "missing"})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestBulkAssignRoomPartialSuccess(t *testing.T) {
	service, store, _ := newSessionFixture()

	result, err := service.BulkAssignRoom(context.Background(), dto.BulkAssignRoomRequest{
		SessionIDs: []string{"free", "touching", "ghost"},
		RoomID:     "r1",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Updated)
	// "free" collides with the occupied 18:00-20:00 slot, "ghost" does not
	// exist; both are reported, the batch is never aborted.
	assert.Equal(t, []string{"free", "ghost"}, result.Conflicts)
	assert.Equal(t, []string{"touching"}, store.updated)
}

func TestUpdateSessionMoveFlipsStatus(t *testing.T) {
	service, store, _ := newSessionFixture()

	newDate := "2025-01-08"
	session, err := service.UpdateSession(context.Background(), "free", dto.UpdateSessionRequest{Date: &newDate})
	require.NoError(t, err)
	assert.Equal(t, models.SessionStatusMoved, session.Status)
	assert.Equal(t, "2025-01-08", store.sessions["free"].Date.Format("2006-01-02"))
}

func TestUpdateSessionRechecksRoomOnSlotChange(t *testing.T) {
	service, store, _ := newSessionFixture()
	roomID := "r1"
	store.sessions["touching"].RoomID = &roomID

	// Shifting the 20:00-22:00 session back into the occupied 18:00-20:00
	// window must be vetoed.
	start := "19:30"
	_, err := service.UpdateSession(context.Background(), "touching", dto.UpdateSessionRequest{StartTime: &start})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrRoomConflict.Code, appErr.Code)
}

func TestUpdateSessionRejectsInvertedTimes(t *testing.T) {
	service, _, _ := newSessionFixture()

	end := "18:30"
	_, err := service.UpdateSession(context.Background(), "free", dto.UpdateSessionRequest{EndTime: &end})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
