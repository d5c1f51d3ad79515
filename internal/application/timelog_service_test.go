package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

type timeLogRepoStub struct {
	open      map[string]persistence.TimeLog
	created   []persistence.TimeLog
	closedID  string
	closedEnd string
	closedHrs float64
	history   []persistence.TimeLogHistoryEntry
}

func (r *timeLogRepoStub) CreateTimeLog(ctx context.Context, log persistence.TimeLog) error {
	r.created = append(r.created, log)
	if r.open == nil {
		r.open = make(map[string]persistence.TimeLog)
	}
	r.open[log.UserID+"/"+log.StageID] = log
	return nil
}

func (r *timeLogRepoStub) LatestOpenLog(ctx context.Context, userID, stageID string) (persistence.TimeLog, error) {
	log, ok := r.open[userID+"/"+stageID]
	if !ok {
		return persistence.TimeLog{}, persistence.ErrNotFound
	}
	return log, nil
}

func (r *timeLogRepoStub) CloseTimeLog(ctx context.Context, id, endedAt string, hoursWorked float64) error {
	r.closedID = id
	r.closedEnd = endedAt
	r.closedHrs = hoursWorked
	for key, log := range r.open {
		if log.ID == id {
			delete(r.open, key)
		}
	}
	return nil
}

func (r *timeLogRepoStub) SumHours(ctx context.Context, stageID, userID string) (float64, error) {
	return r.closedHrs, nil
}

func (r *timeLogRepoStub) ListHistoryForUser(ctx context.Context, userID string) ([]persistence.TimeLogHistoryEntry, error) {
	return r.history, nil
}

type stageAccessStub struct {
	stage   persistence.Stage
	getErr  error
	updated *persistence.Stage
}

func (s *stageAccessStub) GetStage(ctx context.Context, id string) (persistence.Stage, error) {
	if s.getErr != nil {
		return persistence.Stage{}, s.getErr
	}
	return s.stage, nil
}

func (s *stageAccessStub) UpdateStage(ctx context.Context, stage persistence.Stage) error {
	s.updated = &stage
	return nil
}

func TestTimeLogService_StartTimer(t *testing.T) {
	principal := Principal{UserID: "u1", Role: persistence.RoleTechnician}

	t.Run("opens a log and activates a pending stage", func(t *testing.T) {
		repo := &timeLogRepoStub{}
		stages := &stageAccessStub{stage: persistence.Stage{
			ID: "s1", ProjectID: "p1", Status: persistence.StageStatusPending,
		}}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		log, err := svc.StartTimer(context.Background(), StartTimerParams{Principal: principal, StageID: "s1"})
		if err != nil {
			t.Fatalf("StartTimer: %v", err)
		}
		if log.LogDate != "2024-01-15" || log.StartedAt != "10:00:00" {
			t.Errorf("unexpected log: %+v", log)
		}
		if stages.updated == nil || stages.updated.Status != persistence.StageStatusActive {
			t.Errorf("pending stage should become active, got %+v", stages.updated)
		}
	})

	t.Run("second start on the same stage is rejected", func(t *testing.T) {
		repo := &timeLogRepoStub{}
		stages := &stageAccessStub{stage: persistence.Stage{ID: "s1", Status: persistence.StageStatusActive}}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		if _, err := svc.StartTimer(context.Background(), StartTimerParams{Principal: principal, StageID: "s1"}); err != nil {
			t.Fatalf("first StartTimer: %v", err)
		}
		_, err := svc.StartTimer(context.Background(), StartTimerParams{Principal: principal, StageID: "s1"})
		if !errors.Is(err, ErrTimerRunning) {
			t.Errorf("expected ErrTimerRunning, got %v", err)
		}
	})

	t.Run("missing stage yields ErrNotFound", func(t *testing.T) {
		repo := &timeLogRepoStub{}
		stages := &stageAccessStub{getErr: persistence.ErrNotFound}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.StartTimer(context.Background(), StartTimerParams{Principal: principal, StageID: "nope"})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestTimeLogService_StopTimer(t *testing.T) {
	principal := Principal{UserID: "u1", Role: persistence.RoleTechnician}

	t.Run("closes the open log with elapsed hours", func(t *testing.T) {
		repo := &timeLogRepoStub{open: map[string]persistence.TimeLog{
			"u1/s1": {ID: "t1", UserID: "u1", StageID: "s1", LogDate: "2024-01-15", StartedAt: "07:30:00"},
		}}
		stages := &stageAccessStub{stage: persistence.Stage{ID: "s1", Status: persistence.StageStatusActive}}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		log, err := svc.StopTimer(context.Background(), StopTimerParams{Principal: principal, StageID: "s1"})
		if err != nil {
			t.Fatalf("StopTimer: %v", err)
		}
		if repo.closedID != "t1" || repo.closedEnd != "10:00:00" {
			t.Errorf("unexpected close: id=%s end=%s", repo.closedID, repo.closedEnd)
		}
		if repo.closedHrs != 2.5 {
			t.Errorf("expected 2.5 hours, got %v", repo.closedHrs)
		}
		if log.HoursWorked == nil || *log.HoursWorked != 2.5 {
			t.Errorf("returned log should carry hours, got %+v", log)
		}
	})

	t.Run("stopping without an open log is rejected", func(t *testing.T) {
		repo := &timeLogRepoStub{}
		stages := &stageAccessStub{stage: persistence.Stage{ID: "s1"}}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.StopTimer(context.Background(), StopTimerParams{Principal: principal, StageID: "s1"})
		if !errors.Is(err, ErrNoTimerRunning) {
			t.Errorf("expected ErrNoTimerRunning, got %v", err)
		}
	})
}

func TestTimeLogService_ActiveTimer(t *testing.T) {
	principal := Principal{UserID: "u1", Role: persistence.RoleTechnician}
	stages := &stageAccessStub{stage: persistence.Stage{ID: "s1", Status: persistence.StageStatusActive}}

	t.Run("reports an open timer", func(t *testing.T) {
		repo := &timeLogRepoStub{open: map[string]persistence.TimeLog{
			"u1/s1": {ID: "t1", UserID: "u1", StageID: "s1", LogDate: "2024-01-15", StartedAt: "09:00:00"},
		}}
		svc := NewTimeLogService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		open, running, err := svc.ActiveTimer(context.Background(), principal, "s1")
		if err != nil {
			t.Fatalf("ActiveTimer: %v", err)
		}
		if !running || open.StartedAt != "09:00:00" {
			t.Errorf("expected running timer from 09:00:00, got running=%v log=%+v", running, open)
		}
	})

	t.Run("no open timer is not an error", func(t *testing.T) {
		svc := NewTimeLogService(&timeLogRepoStub{}, stages, sequentialIDs(), fixedNow(t), nil)

		_, running, err := svc.ActiveTimer(context.Background(), principal, "s1")
		if err != nil {
			t.Fatalf("ActiveTimer: %v", err)
		}
		if running {
			t.Error("expected no running timer")
		}
	})
}

func TestElapsedHours(t *testing.T) {
	stop, err := time.Parse(time.RFC3339, "2024-01-15T17:15:00Z")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	cases := []struct {
		name      string
		logDate   string
		startedAt string
		want      float64
	}{
		{"same day", "2024-01-15", "09:00:00", 8.25},
		{"fraction rounds to two decimals", "2024-01-15", "17:05:00", 0.17},
		{"start after stop clamps to zero", "2024-01-15", "18:00:00", 0},
		{"garbage start yields zero", "2024-01-15", "nope", 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := elapsedHours(tc.logDate, tc.startedAt, stop.UTC()); got != tc.want {
				t.Errorf("elapsedHours(%s %s) = %v, want %v", tc.logDate, tc.startedAt, got, tc.want)
			}
		})
	}
}
