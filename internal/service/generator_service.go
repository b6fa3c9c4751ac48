package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/noah-isme/lsa-api/internal/dto"
	"github.com/noah-isme/lsa-api/internal/models"
	"github.com/noah-isme/lsa-api/internal/repository"
	appErrors "github.com/noah-isme/lsa-api/pkg/errors"
	"github.com/noah-isme/lsa-api/pkg/jobs"
)

// JobKindSessionGeneration labels generation jobs on the queue.
const JobKindSessionGeneration = "session_generation"

type generatorClassReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

type weeklyScheduleReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.WeeklySchedule, error)
	CountByClass(ctx context.Context, classID string) (int, error)
}

type generatorSessionStore interface {
	CountByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error)
	MaxSessionNo(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error)
	Insert(ctx context.Context, exec sqlx.ExtContext, session *models.ClassSession) error
	DeleteByClass(ctx context.Context, exec sqlx.ExtContext, classID string) (int, error)
}

type holidayChecker interface {
	IsHoliday(ctx context.Context, classID, branchID string, date time.Time) (bool, error)
}

type generationJobStore interface {
	Create(ctx context.Context, job *models.GenerationJob) error
	GetByID(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, params repository.UpdateGenerationJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.GenerationJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type generatorMetrics interface {
	ObserveGeneration(outcome string, sessions int)
}

// GeneratorConfig governs the day-by-day walk. MaxWalkDays is the hard
// bound that turns an unsatisfiable schedule into a loud failure instead
// of an endless loop.
type GeneratorConfig struct {
	MaxWalkDays int
}

// GeneratorService materializes sessions from a class's weekly schedule.
// The HTTP trigger only validates preconditions and enqueues; the walk runs
// on the background queue and owns its own transaction boundaries.
type GeneratorService struct {
	classes   generatorClassReader
	weekly    weeklyScheduleReader
	sessions  generatorSessionStore
	holidays  holidayChecker
	jobsRepo  generationJobStore
	queue     jobDispatcher
	tx        txProvider
	calendar  calendarInvalidator
	metrics   generatorMetrics
	validator *validator.Validate
	logger    *zap.Logger
	cfg       GeneratorConfig
}

// NewGeneratorService wires generator dependencies.
func NewGeneratorService(
	classes generatorClassReader,
	weekly weeklyScheduleReader,
	sessions generatorSessionStore,
	holidays holidayChecker,
	jobsRepo generationJobStore,
	queue jobDispatcher,
	tx txProvider,
	calendar calendarInvalidator,
	metrics generatorMetrics,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg GeneratorConfig,
) *GeneratorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxWalkDays <= 0 {
		cfg.MaxWalkDays = 1830
	}
	return &GeneratorService{
		classes:   classes,
		weekly:    weekly,
		sessions:  sessions,
		holidays:  holidays,
		jobsRepo:  jobsRepo,
		queue:     queue,
		tx:        tx,
		calendar:  calendar,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// SetQueue attaches the dispatcher. The queue's handler is this service's
// HandleJob, so wiring happens in two steps at startup.
func (s *GeneratorService) SetQueue(queue jobDispatcher) {
	s.queue = queue
}

// Trigger validates preconditions, persists a job row and enqueues the
// walk. It returns immediately; the outcome is observed via the job row.
func (s *GeneratorService) Trigger(ctx context.Context, classID string, req dto.GenerateSessionsRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	slotCount, err := s.weekly.CountByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count weekly schedules")
	}
	if slotCount == 0 {
		return nil, appErrors.ErrNoWeeklySchedule
	}

	job := &models.GenerationJob{
		ClassID: classID,
		Reset:   req.Reset,
		Status:  models.GenerationStatusQueued,
	}
	if req.FromDate != nil {
		from, err := parseDate(*req.FromDate)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "fromDate must be YYYY-MM-DD")
		}
		job.FromDate = &from
	}
	if req.MaxSessions != nil {
		max := *req.MaxSessions
		job.MaxSessions = &max
	}
	if err := s.jobsRepo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create generation job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindSessionGeneration}); err != nil {
		status := models.GenerationStatusFailed
		msg := "failed to enqueue generation job"
		now := time.Now().UTC()
		_ = s.jobsRepo.Update(ctx, job.ID, repository.UpdateGenerationJobParams{
			Status:       &status,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, msg)
	}

	return &dto.GenerationJobResponse{JobID: job.ID, ClassID: classID, Status: string(job.Status)}, nil
}

// Status exposes the job row to clients.
func (s *GeneratorService) Status(ctx context.Context, jobID string) (*dto.GenerationJobResponse, error) {
	job, err := s.jobsRepo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation job")
	}
	resp := &dto.GenerationJobResponse{
		JobID:           job.ID,
		ClassID:         job.ClassID,
		Status:          string(job.Status),
		SessionsCreated: job.SessionsCreated,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *GeneratorService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.jobsRepo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued generation jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Kind: JobKindSessionGeneration}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending generation job", "job_id", job.ID, "error", err)
		}
	}
}

// HandleJob is the queue handler. Re-running a job is safe: reset walks
// are idempotent and additive walks stop at the target count.
func (s *GeneratorService) HandleJob(ctx context.Context, job jobs.Job) error {
	row, err := s.jobsRepo.GetByID(ctx, job.ID)
	if err != nil {
		return fmt.Errorf("load generation job %s: %w", job.ID, err)
	}
	if row.Status == models.GenerationStatusFinished {
		return nil
	}

	now := time.Now().UTC()
	running := models.GenerationStatusRunning
	if err := s.jobsRepo.Update(ctx, row.ID, repository.UpdateGenerationJobParams{Status: &running, StartedAt: &now}); err != nil {
		return fmt.Errorf("mark generation job running: %w", err)
	}

	created, runErr := s.run(ctx, row)

	finished := time.Now().UTC()
	if runErr != nil {
		failed := models.GenerationStatusFailed
		msg := runErr.Error()
		_ = s.jobsRepo.Update(ctx, row.ID, repository.UpdateGenerationJobParams{
			Status:          &failed,
			SessionsCreated: &created,
			ErrorMessage:    &msg,
			FinishedAt:      &finished,
		})
		if s.metrics != nil {
			s.metrics.ObserveGeneration("failed", created)
		}
		s.logger.Sugar().Errorw("session generation failed",
			"job_id", row.ID, "class_id", row.ClassID, "reset", row.Reset, "sessions_created", created, "error", runErr)
		return runErr
	}

	done := models.GenerationStatusFinished
	if err := s.jobsRepo.Update(ctx, row.ID, repository.UpdateGenerationJobParams{
		Status:          &done,
		SessionsCreated: &created,
		FinishedAt:      &finished,
	}); err != nil {
		return fmt.Errorf("mark generation job finished: %w", err)
	}
	if s.metrics != nil {
		s.metrics.ObserveGeneration("finished", created)
	}
	if s.calendar != nil {
		s.calendar.Invalidate(ctx)
	}
	s.logger.Sugar().Infow("session generation finished",
		"job_id", row.ID, "class_id", row.ClassID, "reset", row.Reset, "sessions_created", created)
	return nil
}

func (s *GeneratorService) run(ctx context.Context, job *models.GenerationJob) (int, error) {
	class, err := s.classes.FindByID(ctx, job.ClassID)
	if err != nil {
		return 0, fmt.Errorf("load class %s: %w", job.ClassID, err)
	}
	slots, err := s.weekly.ListByClass(ctx, job.ClassID)
	if err != nil {
		return 0, fmt.Errorf("load weekly schedules: %w", err)
	}
	if len(slots) == 0 {
		return 0, appErrors.ErrNoWeeklySchedule
	}
	byWeekday := make(map[int][]models.WeeklySchedule)
	for _, slot := range slots {
		byWeekday[slot.Weekday] = append(byWeekday[slot.Weekday], slot)
	}

	target := class.SessionsTotal
	if job.MaxSessions != nil {
		target = *job.MaxSessions
	}
	cursor := class.StartDate
	if job.FromDate != nil {
		cursor = *job.FromDate
	}

	if job.Reset {
		return s.runReset(ctx, class, byWeekday, cursor, target)
	}
	return s.runAdditive(ctx, class, byWeekday, cursor, target)
}

// runReset deletes every prior session of the class and regenerates the
// full sequence inside one transaction, so a mid-walk failure never leaves
// the class emptied.
func (s *GeneratorService) runReset(ctx context.Context, class *models.Classroom, byWeekday map[int][]models.WeeklySchedule, cursor time.Time, target int) (created int, err error) {
	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin generation transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
			created = 0
		}
	}()

	if _, err = s.sessions.DeleteByClass(ctx, tx, class.ID); err != nil {
		return 0, err
	}

	nextNo := 1
	for day := 0; created < target; day++ {
		if day >= s.cfg.MaxWalkDays {
			err = appErrors.Clone(appErrors.ErrGenerationBound,
				fmt.Sprintf("walked %d days without reaching %d sessions", s.cfg.MaxWalkDays, target))
			return 0, err
		}
		date := cursor.AddDate(0, 0, day)
		daySlots, skip, dayErr := s.slotsForDay(ctx, class, byWeekday, date)
		if dayErr != nil {
			err = dayErr
			return 0, err
		}
		if skip {
			continue
		}
		for _, slot := range daySlots {
			if created >= target {
				break
			}
			if err = s.insertSession(ctx, tx, class.ID, nextNo, date, slot); err != nil {
				return 0, err
			}
			nextNo++
			created++
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit generation transaction: %w", err)
	}
	return created, nil
}

// runAdditive tops the class up to the target count. Each day's inserts
// commit as their own unit, so an interrupted walk stays resumable:
// re-triggering without reset simply continues from the committed count.
func (s *GeneratorService) runAdditive(ctx context.Context, class *models.Classroom, byWeekday map[int][]models.WeeklySchedule, cursor time.Time, target int) (int, error) {
	count, err := s.sessions.CountByClass(ctx, nil, class.ID)
	if err != nil {
		return 0, err
	}
	created := 0
	for day := 0; count < target; day++ {
		if day >= s.cfg.MaxWalkDays {
			return created, appErrors.Clone(appErrors.ErrGenerationBound,
				fmt.Sprintf("walked %d days without reaching %d sessions", s.cfg.MaxWalkDays, target))
		}
		date := cursor.AddDate(0, 0, day)
		daySlots, skip, err := s.slotsForDay(ctx, class, byWeekday, date)
		if err != nil {
			return created, err
		}
		if skip {
			continue
		}
		if remaining := target - count; len(daySlots) > remaining {
			daySlots = daySlots[:remaining]
		}
		inserted, err := s.commitDay(ctx, class.ID, date, daySlots)
		if err != nil {
			return created, err
		}
		count += inserted
		created += inserted
	}
	return created, nil
}

// slotsForDay resolves the weekly slots for the date and applies the
// holiday exclusion: a holiday skips every slot of that day.
func (s *GeneratorService) slotsForDay(ctx context.Context, class *models.Classroom, byWeekday map[int][]models.WeeklySchedule, date time.Time) ([]models.WeeklySchedule, bool, error) {
	daySlots := byWeekday[int(date.Weekday())]
	if len(daySlots) == 0 {
		return nil, true, nil
	}
	holiday, err := s.holidays.IsHoliday(ctx, class.ID, class.BranchID, date)
	if err != nil {
		return nil, false, fmt.Errorf("holiday check for %s: %w", date.Format("2006-01-02"), err)
	}
	if holiday {
		return nil, true, nil
	}
	return daySlots, false, nil
}

// commitDay inserts one day's sessions in their own transaction, computing
// session_no from the in-transaction maximum. A concurrent walk for the
// same class surfaces as a unique violation on (class_id, session_no); the
// day is retried once against the new maximum.
func (s *GeneratorService) commitDay(ctx context.Context, classID string, date time.Time, daySlots []models.WeeklySchedule) (int, error) {
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		tx, err := s.tx.BeginTxx(ctx, nil)
		if err != nil {
			return 0, fmt.Errorf("begin day transaction: %w", err)
		}
		maxNo, err := s.sessions.MaxSessionNo(ctx, tx, classID)
		if err != nil {
			_ = tx.Rollback()
			return 0, err
		}
		insertErr := func() error {
			for i, slot := range daySlots {
				session := &models.ClassSession{
					ClassID:   classID,
					SessionNo: maxNo + 1 + i,
					Date:      date,
					StartTime: slot.StartTime,
					EndTime:   slot.EndTime,
					Status:    models.SessionStatusPlanned,
				}
				if err := s.sessions.Insert(ctx, tx, session); err != nil {
					return err
				}
			}
			return nil
		}()
		if insertErr != nil {
			_ = tx.Rollback()
			if isUniqueViolation(insertErr) {
				lastErr = insertErr
				continue
			}
			return 0, insertErr
		}
		if err := tx.Commit(); err != nil {
			if isUniqueViolation(err) {
				lastErr = err
				continue
			}
			return 0, fmt.Errorf("commit day transaction: %w", err)
		}
		return len(daySlots), nil
	}
	return 0, fmt.Errorf("session_no contention for class %s: %w", classID, lastErr)
}

func (s *GeneratorService) insertSession(ctx context.Context, tx *sqlx.Tx, classID string, no int, date time.Time, slot models.WeeklySchedule) error {
	session := &models.ClassSession{
		ClassID:   classID,
		SessionNo: no,
		Date:      date,
		StartTime: slot.StartTime,
		EndTime:   slot.EndTime,
		Status:    models.SessionStatusPlanned,
	}
	return s.sessions.Insert(ctx, tx, session)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
