package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/project-tracker/internal/persistence"
)

// StatisticsRepository captures the aggregate queries behind the statistics views.
type StatisticsRepository interface {
	Summary(ctx context.Context) (persistence.StatisticsSummary, error)
	ListStageHours(ctx context.Context, filter persistence.StageHoursFilter) ([]persistence.StageHours, error)
	ListProjectsFinishedOnTime(ctx context.Context) ([]string, error)
}

// StatisticsDelayReader exposes the delay reason grouping.
type StatisticsDelayReader interface {
	ListDelayReasons(ctx context.Context, filter persistence.DelayReasonFilter) ([]persistence.DelayReason, error)
}

// StatisticsReport is the summary view: health counters plus the names of
// projects delivered on time.
type StatisticsReport struct {
	persistence.StatisticsSummary
	OnTimeProjects []string
}

// StatisticsService answers the reporting questions: how healthy are the
// projects, where do estimates diverge from reality, and why work slips.
type StatisticsService struct {
	repo   StatisticsRepository
	delays StatisticsDelayReader
	logger *slog.Logger
}

// NewStatisticsService wires dependencies for the statistics service.
func NewStatisticsService(repo StatisticsRepository, delays StatisticsDelayReader, logger *slog.Logger) *StatisticsService {
	return &StatisticsService{repo: repo, delays: delays, logger: defaultLogger(logger)}
}

// Summary returns the project and stage health counters.
func (s *StatisticsService) Summary(ctx context.Context) (StatisticsReport, error) {
	if s == nil {
		return StatisticsReport{}, fmt.Errorf("StatisticsService is nil")
	}

	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return StatisticsReport{}, mapRepoError(err)
	}

	onTime, err := s.repo.ListProjectsFinishedOnTime(ctx)
	if err != nil {
		return StatisticsReport{}, mapRepoError(err)
	}

	return StatisticsReport{StatisticsSummary: summary, OnTimeProjects: onTime}, nil
}

// HoursComparison returns estimated against real hours per stage, narrowed by
// the optional filter fields.
func (s *StatisticsService) HoursComparison(ctx context.Context, filter persistence.StageHoursFilter) ([]persistence.StageHours, error) {
	if s == nil {
		return nil, fmt.Errorf("StatisticsService is nil")
	}

	if filter.StageStatus != "" && !stageStatuses[filter.StageStatus] {
		vErr := &ValidationError{}
		vErr.add("stage_status", "is not a valid status")
		return nil, vErr
	}
	if filter.ProjectType != "" && !projectTypes[filter.ProjectType] {
		vErr := &ValidationError{}
		vErr.add("project_type", "is not a valid project type")
		return nil, vErr
	}

	rows, err := s.repo.ListStageHours(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return rows, nil
}

// DelayReasons groups delay comments by body with occurrence counts, narrowed
// by the optional filter fields.
func (s *StatisticsService) DelayReasons(ctx context.Context, filter persistence.DelayReasonFilter) ([]persistence.DelayReason, error) {
	if s == nil {
		return nil, fmt.Errorf("StatisticsService is nil")
	}

	if filter.ProjectType != "" && !projectTypes[filter.ProjectType] {
		vErr := &ValidationError{}
		vErr.add("project_type", "is not a valid project type")
		return nil, vErr
	}

	reasons, err := s.delays.ListDelayReasons(ctx, filter)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return reasons, nil
}
