package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// TimeLogRepository captures the persistence operations needed by the time log service.
type TimeLogRepository interface {
	CreateTimeLog(ctx context.Context, log persistence.TimeLog) error
	LatestOpenLog(ctx context.Context, userID, stageID string) (persistence.TimeLog, error)
	CloseTimeLog(ctx context.Context, id, endedAt string, hoursWorked float64) error
	SumHours(ctx context.Context, stageID, userID string) (float64, error)
	ListHistoryForUser(ctx context.Context, userID string) ([]persistence.TimeLogHistoryEntry, error)
}

// TimeLogStageAccess exposes the stage operations the timer needs: lookups
// and the pending to active transition on first start.
type TimeLogStageAccess interface {
	GetStage(ctx context.Context, id string) (persistence.Stage, error)
	UpdateStage(ctx context.Context, stage persistence.Stage) error
}

// TimeLogService runs the per-stage work timers. A user holds at most one
// open timer per stage.
type TimeLogService struct {
	logs        TimeLogRepository
	stages      TimeLogStageAccess
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTimeLogService wires dependencies for the time log service.
func NewTimeLogService(logs TimeLogRepository, stages TimeLogStageAccess, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TimeLogService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TimeLogService{
		logs:        logs,
		stages:      stages,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TimeLogService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TimeLogService", operation, attrs...)
}

// StartTimer opens a timer for the principal against a stage. Starting a
// timer on a pending stage activates it.
func (s *TimeLogService) StartTimer(ctx context.Context, params StartTimerParams) (persistence.TimeLog, error) {
	if s == nil {
		return persistence.TimeLog{}, fmt.Errorf("TimeLogService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.TimeLog{}, ErrUnauthorized
	}

	stage, err := s.stages.GetStage(ctx, params.StageID)
	if err != nil {
		return persistence.TimeLog{}, mapRepoError(err)
	}

	logger := s.loggerWith(ctx, "StartTimer", "stage_id", params.StageID, "user_id", params.Principal.UserID)

	if _, err := s.logs.LatestOpenLog(ctx, params.Principal.UserID, params.StageID); err == nil {
		return persistence.TimeLog{}, ErrTimerRunning
	} else if !errors.Is(err, persistence.ErrNotFound) {
		return persistence.TimeLog{}, mapRepoError(err)
	}

	now := s.now()
	log := persistence.TimeLog{
		ID:        s.idGenerator(),
		UserID:    params.Principal.UserID,
		StageID:   params.StageID,
		LogDate:   now.Format("2006-01-02"),
		StartedAt: now.Format("15:04:05"),
		CreatedAt: now,
	}

	if err := s.logs.CreateTimeLog(ctx, log); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to start timer", "error", err, "error_kind", ErrorKind(err))
		return persistence.TimeLog{}, err
	}

	if stage.Status == persistence.StageStatusPending {
		stage.Status = persistence.StageStatusActive
		stage.UpdatedAt = now
		if err := s.stages.UpdateStage(ctx, stage); err != nil {
			logger.WarnContext(ctx, "failed to activate stage", "error", err)
		}
	}

	logger.InfoContext(ctx, "timer started", "log_id", log.ID)
	return log, nil
}

// StopTimer closes the principal's open timer on a stage and records the
// elapsed hours.
func (s *TimeLogService) StopTimer(ctx context.Context, params StopTimerParams) (persistence.TimeLog, error) {
	if s == nil {
		return persistence.TimeLog{}, fmt.Errorf("TimeLogService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.TimeLog{}, ErrUnauthorized
	}

	open, err := s.logs.LatestOpenLog(ctx, params.Principal.UserID, params.StageID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.TimeLog{}, ErrNoTimerRunning
		}
		return persistence.TimeLog{}, mapRepoError(err)
	}

	logger := s.loggerWith(ctx, "StopTimer", "stage_id", params.StageID, "user_id", params.Principal.UserID)

	now := s.now()
	endedAt := now.Format("15:04:05")
	hours := elapsedHours(open.LogDate, open.StartedAt, now)

	if err := s.logs.CloseTimeLog(ctx, open.ID, endedAt, hours); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to stop timer", "error", err, "error_kind", ErrorKind(err))
		return persistence.TimeLog{}, err
	}

	logger.InfoContext(ctx, "timer stopped", "log_id", open.ID, "hours_worked", hours)

	open.EndedAt = &endedAt
	open.HoursWorked = &hours
	return open, nil
}

// ActiveTimer reports whether the principal has an open timer on a stage
// and returns the open log when one exists.
func (s *TimeLogService) ActiveTimer(ctx context.Context, principal Principal, stageID string) (persistence.TimeLog, bool, error) {
	if s == nil {
		return persistence.TimeLog{}, false, fmt.Errorf("TimeLogService is nil")
	}
	if principal.UserID == "" {
		return persistence.TimeLog{}, false, ErrUnauthorized
	}

	open, err := s.logs.LatestOpenLog(ctx, principal.UserID, stageID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			return persistence.TimeLog{}, false, nil
		}
		return persistence.TimeLog{}, false, mapRepoError(err)
	}
	return open, true, nil
}

// SumHours totals the closed hours a user logged against a stage.
func (s *TimeLogService) SumHours(ctx context.Context, stageID, userID string) (float64, error) {
	if s == nil {
		return 0, fmt.Errorf("TimeLogService is nil")
	}

	total, err := s.logs.SumHours(ctx, stageID, userID)
	if err != nil {
		return 0, mapRepoError(err)
	}
	return total, nil
}

// History returns the principal's timer history, newest first.
func (s *TimeLogService) History(ctx context.Context, principal Principal) ([]persistence.TimeLogHistoryEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("TimeLogService is nil")
	}
	if principal.UserID == "" {
		return nil, ErrUnauthorized
	}

	entries, err := s.logs.ListHistoryForUser(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return entries, nil
}

// elapsedHours computes the fractional hours between the log's start and the
// stop instant, rounded to two decimals. A timer left open across days or a
// clock moved backwards yields zero for the unparseable or negative cases.
func elapsedHours(logDate, startedAt string, stop time.Time) float64 {
	start, err := time.ParseInLocation("2006-01-02 15:04:05", logDate+" "+startedAt, stop.Location())
	if err != nil {
		return 0
	}
	elapsed := stop.Sub(start).Hours()
	if elapsed < 0 {
		return 0
	}
	return math.Round(elapsed*100) / 100
}
