package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/repository"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/jobs"
)

type stubClassReader struct {
	class *models.Classroom
}

func (s *stubClassReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if s.class == nil || s.class.ID != id {
		return nil, sql.ErrNoRows
	}
	return s.class, nil
}

type stubWeeklyReader struct {
	slots []models.WeeklySchedule
}

func (s *stubWeeklyReader) ListByClass(ctx context.Context, classID string) ([]models.WeeklySchedule, error) {
	return s.slots, nil
}

func (s *stubWeeklyReader) CountByClass(ctx context.Context, classID string) (int, error) {
	return len(s.slots), nil
}

type stubSessionStore struct {
	sessions []models.ClassSession
	deleted  int
}

func (s *stubSessionStore) CountByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	count := 0
	for _, session := range s.sessions {
		if session.ClassID == classID {
			count++
		}
	}
	return count, nil
}

func (s *stubSessionStore) MaxSessionNo(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	max := 0
	for _, session := range s.sessions {
		if session.ClassID == classID && session.SessionNo > max {
			max = session.SessionNo
		}
	}
	return max, nil
}

func (s *stubSessionStore) Insert(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error {
	s.sessions = append(s.sessions, *session)
	return nil
}

func (s *stubSessionStore) DeleteByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error) {
	kept := s.sessions[:0]
	removed := 0
	for _, session := range s.sessions {
		if session.ClassID == classID {
			removed++
			continue
		}
		kept = append(kept, session)
	}
	s.sessions = kept
	s.deleted += removed
	return removed, nil
}

type stubHolidayChecker struct {
	holidays map[string]bool
}

func (s *stubHolidayChecker) IsHoliday(ctx context.Context, classID, branchID string, date time.Time) (bool, error) {
	return s.holidays[date.Format("2006-01-02")], nil
}

type stubJobStore struct {
	jobs map[string]*models.GenerationJob
	seq  int
}

func (s *stubJobStore) Create(ctx context.Context, job *models.GenerationJob) error {
	if s.jobs == nil {
		s.jobs = map[string]*models.GenerationJob{}
	}
	s.seq++
	job.ID = time.Now().Format("20060102") + "-" + string(rune('a'+s.seq))
	s.jobs[job.ID] = job
	return nil
}

func (s *stubJobStore) GetByID(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *job
	return &copied, nil
}

func (s *stubJobStore) Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error {
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.SessionsCreated != nil {
		job.SessionsCreated = *params.SessionsCreated
	}
	if params.ErrorMessage != nil {
		job.ErrorMessage = params.ErrorMessage
	}
	if params.StartedAt != nil {
		job.StartedAt = params.StartedAt
	}
	if params.FinishedAt != nil {
		job.FinishedAt = params.FinishedAt
	}
	return nil
}

func (s *stubJobStore) ListQueued(ctx context.Context, limit int) ([]models.GenerationJob, error) {
	var queued []models.GenerationJob
	for _, job := range s.jobs {
		if job.Status == models.GenerationStatusQueued {
			queued = append(queued, *job)
		}
	}
	return queued, nil
}

type stubDispatcher struct {
	enqueued []jobs.Job
}

func (s *stubDispatcher) Enqueue(job jobs.Job) error {
	s.enqueued = append(s.enqueued, job)
	return nil
}

func newTxProviderMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

type generatorFixture struct {
	service  *GeneratorService
	classes  *stubClassReader
	sessions *stubSessionStore
	jobStore *stubJobStore
	queue    *stubDispatcher
	holidays *stubHolidayChecker
	mock     sqlmock.Sqlmock
}

func newGeneratorFixture(t *testing.T, class *models.Classroom, slots []models.WeeklySchedule, holidays map[string]bool, cfg GeneratorConfig) *generatorFixture {
	tx, mock := newTxProviderMock(t)
	fixture := &generatorFixture{
		classes:  &stubClassReader{class: class},
		sessions: &stubSessionStore{},
		jobStore: &stubJobStore{},
		queue:    &stubDispatcher{},
		holidays: &stubHolidayChecker{holidays: holidays},
		mock:     mock,
	}
	fixture.service = NewGeneratorService(
		fixture.classes,
		&stubWeeklyReader{slots: slots},
		fixture.sessions,
		fixture.holidays,
		fixture.jobStore,
		fixture.queue,
		tx,
		nil,
		nil,
		nil,
		nil,
		cfg,
	)
	return fixture
}

func tuesThursClass() (*models.Classroom, []models.WeeklySchedule) {
	class := &models.Classroom{
		ID:            "c1",
		BranchID:      "b1",
		StartDate:     time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC),
		SessionsTotal: 4,
	}
	slots := []models.WeeklySchedule{
		{ID: "w1", ClassID: "c1", Weekday: 2, StartTime: "18:00", EndTime: "20:00"},
		{ID: "w2", ClassID: "c1", Weekday: 4, StartTime: "18:00", EndTime: "20:00"},
	}
	return class, slots
}

func TestGeneratorTriggerRequiresWeeklySchedule(t *testing.T) {
	class, _ := tuesThursClass()
	fixture := newGeneratorFixture(t, class, nil, nil, GeneratorConfig{})

	_, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNoWeeklySchedule.Code, appErr.Code)
	assert.Empty(t, fixture.queue.enqueued, "nothing should be enqueued")
	assert.Empty(t, fixture.jobStore.jobs, "no job row should be created")
}

func TestGeneratorTriggerUnknownClass(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	_, err := fixture.service.Trigger(context.Background(), "missing", dto.GenerateSessionsRequest{})
	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGeneratorTriggerEnqueuesJob(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	require.NoError(t, err)
	assert.Equal(t, string(models.GenerationStatusQueued), resp.Status)
	require.Len(t, fixture.queue.enqueued, 1)
	assert.Equal(t, resp.JobID, fixture.queue.enqueued[0].ID)
	assert.Equal(t, JobKindSessionGeneration, fixture.queue.enqueued[0].Kind)
}

func TestGeneratorWalkSkipsDaysWithoutSlots(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	require.NoError(t, err)

	// One commit per session day: Jan 7, 9, 14 and 16.
	for i := 0; i < 4; i++ {
		fixture.mock.ExpectBegin()
		fixture.mock.ExpectCommit()
	}

	require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))

	require.Len(t, fixture.sessions.sessions, 4)
	dates := make([]string, 0, 4)
	for _, session := range fixture.sessions.sessions {
		dates = append(dates, session.Date.Format("2006-01-02"))
	}
	assert.Equal(t, []string{"2025-01-07", "2025-01-09", "2025-01-14", "2025-01-16"}, dates)
	for i, session := range fixture.sessions.sessions {
		assert.Equal(t, i+1, session.SessionNo)
		assert.Equal(t, models.SessionStatusPlanned, session.Status)
		assert.Nil(t, session.RoomID)
	}

	job := fixture.jobStore.jobs[resp.JobID]
	assert.Equal(t, models.GenerationStatusFinished, job.Status)
	assert.Equal(t, 4, job.SessionsCreated)
}

func TestGeneratorWalkSkipsHolidays(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, map[string]bool{"2025-01-09": true}, GeneratorConfig{})

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		fixture.mock.ExpectBegin()
		fixture.mock.ExpectCommit()
	}

	require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))

	dates := make([]string, 0, 4)
	for _, session := range fixture.sessions.sessions {
		dates = append(dates, session.Date.Format("2006-01-02"))
	}
	assert.Equal(t, []string{"2025-01-07", "2025-01-14", "2025-01-16", "2025-01-21"}, dates,
		"the excluded Thursday is skipped and the walk continues")
}

func TestGeneratorResetRegeneratesFromOne(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})
	fixture.sessions.sessions = []models.ClassSession{
		{ID: "old1", ClassID: "c1", SessionNo: 1, Date: time.Date(2024, 12, 3, 0, 0, 0, 0, time.UTC)},
		{ID: "old2", ClassID: "c1", SessionNo: 2, Date: time.Date(2024, 12, 5, 0, 0, 0, 0, time.UTC)},
	}

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{Reset: true})
	require.NoError(t, err)

	fixture.mock.ExpectBegin()
	fixture.mock.ExpectCommit()

	require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))

	assert.Equal(t, 2, fixture.sessions.deleted)
	require.Len(t, fixture.sessions.sessions, 4)
	assert.Equal(t, "2025-01-07", fixture.sessions.sessions[0].Date.Format("2006-01-02"))
	assert.Equal(t, 1, fixture.sessions.sessions[0].SessionNo)
	assert.NoError(t, fixture.mock.ExpectationsWereMet())
}

func TestGeneratorResetIsIdempotent(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	for run := 0; run < 2; run++ {
		resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{Reset: true})
		require.NoError(t, err)
		fixture.mock.ExpectBegin()
		fixture.mock.ExpectCommit()
		require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))
	}

	require.Len(t, fixture.sessions.sessions, 4)
	assert.Equal(t, "2025-01-07", fixture.sessions.sessions[0].Date.Format("2006-01-02"))
}

func TestGeneratorHonoursMaxSessionsAndFromDate(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	from := "2025-01-13"
	max := 2
	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{FromDate: &from, MaxSessions: &max})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		fixture.mock.ExpectBegin()
		fixture.mock.ExpectCommit()
	}

	require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))

	require.Len(t, fixture.sessions.sessions, 2)
	assert.Equal(t, "2025-01-14", fixture.sessions.sessions[0].Date.Format("2006-01-02"))
	assert.Equal(t, "2025-01-16", fixture.sessions.sessions[1].Date.Format("2006-01-02"))
}

func TestGeneratorAdditiveTopsUpExistingSequence(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})
	fixture.sessions.sessions = []models.ClassSession{
		{ID: "s1", ClassID: "c1", SessionNo: 1, Date: time.Date(2025, 1, 7, 0, 0, 0, 0, time.UTC)},
		{ID: "s2", ClassID: "c1", SessionNo: 2, Date: time.Date(2025, 1, 9, 0, 0, 0, 0, time.UTC)},
	}

	from := "2025-01-13"
	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{FromDate: &from})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		fixture.mock.ExpectBegin()
		fixture.mock.ExpectCommit()
	}

	require.NoError(t, fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID}))

	require.Len(t, fixture.sessions.sessions, 4)
	assert.Equal(t, 3, fixture.sessions.sessions[2].SessionNo)
	assert.Equal(t, 4, fixture.sessions.sessions[3].SessionNo)
}

func TestGeneratorWalkBoundFailsLoudly(t *testing.T) {
	class, slots := tuesThursClass()
	// Every candidate day is a holiday, the walk can never finish.
	always := map[string]bool{}
	cursor := class.StartDate
	for i := 0; i < 40; i++ {
		always[cursor.AddDate(0, 0, i).Format("2006-01-02")] = true
	}
	fixture := newGeneratorFixture(t, class, slots, always, GeneratorConfig{MaxWalkDays: 30})

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	require.NoError(t, err)

	err = fixture.service.HandleJob(context.Background(), jobs.Job{ID: resp.JobID})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrGenerationBound.Code, appErr.Code)

	job := fixture.jobStore.jobs[resp.JobID]
	assert.Equal(t, models.GenerationStatusFailed, job.Status)
	assert.NotNil(t, job.ErrorMessage)
	assert.Empty(t, fixture.sessions.sessions)
}

func TestGeneratorRecoverPendingJobsRequeues(t *testing.T) {
	class, slots := tuesThursClass()
	fixture := newGeneratorFixture(t, class, slots, nil, GeneratorConfig{})

	resp, err := fixture.service.Trigger(context.Background(), "c1", dto.GenerateSessionsRequest{})
	require.NoError(t, err)
	fixture.queue.enqueued = nil

	fixture.service.RecoverPendingJobs(context.Background())
	require.Len(t, fixture.queue.enqueued, 1)
	assert.Equal(t, resp.JobID, fixture.queue.enqueued[0].ID)
}
