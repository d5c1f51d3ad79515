package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type statisticsRepoStub struct {
	summary    persistence.StatisticsSummary
	stageHours []persistence.StageHours
	onTime     []string

	lastFilter persistence.StageHoursFilter
}

func (r *statisticsRepoStub) Summary(ctx context.Context) (persistence.StatisticsSummary, error) {
	return r.summary, nil
}

func (r *statisticsRepoStub) ListStageHours(ctx context.Context, filter persistence.StageHoursFilter) ([]persistence.StageHours, error) {
	r.lastFilter = filter
	return r.stageHours, nil
}

func (r *statisticsRepoStub) ListProjectsFinishedOnTime(ctx context.Context) ([]string, error) {
	return r.onTime, nil
}

type delayReaderStub struct {
	reasons []persistence.DelayReason
}

func (r *delayReaderStub) ListDelayReasons(ctx context.Context, filter persistence.DelayReasonFilter) ([]persistence.DelayReason, error) {
	return r.reasons, nil
}

func TestStatisticsService_Summary(t *testing.T) {
	repo := &statisticsRepoStub{
		summary: persistence.StatisticsSummary{
			TotalProjects:        4,
			ProjectsOnTime:       2,
			TotalStages:          10,
			StagesWithinEstimate: 7,
			StagesOverEstimate:   3,
		},
		onTime: []string{"Portal", "Migración"},
	}
	svc := NewStatisticsService(repo, &delayReaderStub{}, nil)

	report, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if report.TotalProjects != 4 || report.StagesOverEstimate != 3 {
		t.Errorf("unexpected counters: %+v", report.StatisticsSummary)
	}
	if len(report.OnTimeProjects) != 2 || report.OnTimeProjects[0] != "Portal" {
		t.Errorf("unexpected on-time projects: %v", report.OnTimeProjects)
	}
}

func TestStatisticsService_HoursComparison(t *testing.T) {
	repo := &statisticsRepoStub{stageHours: []persistence.StageHours{
		{StageID: "s1", StageName: "Diseño", EstimatedHours: 3, RealHours: 4.5},
	}}
	svc := NewStatisticsService(repo, &delayReaderStub{}, nil)

	t.Run("passes the filter through", func(t *testing.T) {
		rows, err := svc.HoursComparison(context.Background(), persistence.StageHoursFilter{
			TechnicianID: "u9",
			StageStatus:  persistence.StageStatusActive,
		})
		if err != nil {
			t.Fatalf("HoursComparison: %v", err)
		}
		if len(rows) != 1 || rows[0].RealHours != 4.5 {
			t.Errorf("unexpected rows: %+v", rows)
		}
		if repo.lastFilter.TechnicianID != "u9" {
			t.Errorf("filter not forwarded: %+v", repo.lastFilter)
		}
	})

	t.Run("rejects unknown filter values", func(t *testing.T) {
		_, err := svc.HoursComparison(context.Background(), persistence.StageHoursFilter{StageStatus: "paused"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["stage_status"]; !ok {
			t.Errorf("expected error for stage_status, got %v", vErr.FieldErrors)
		}
	})
}

func TestStatisticsService_DelayReasons(t *testing.T) {
	delays := &delayReaderStub{reasons: []persistence.DelayReason{
		{Reason: "falta de material", Count: 3},
		{Reason: "cliente no disponible", Count: 1},
	}}
	svc := NewStatisticsService(&statisticsRepoStub{}, delays, nil)

	reasons, err := svc.DelayReasons(context.Background(), persistence.DelayReasonFilter{})
	if err != nil {
		t.Fatalf("DelayReasons: %v", err)
	}
	if len(reasons) != 2 || reasons[0].Count != 3 {
		t.Errorf("unexpected reasons: %+v", reasons)
	}

	t.Run("rejects unknown project types", func(t *testing.T) {
		_, err := svc.DelayReasons(context.Background(), persistence.DelayReasonFilter{ProjectType: "eternal"})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
	})
}
