package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/project-tracker/internal/persistence"
)

// DashboardRepository captures the alert queries behind the dashboard.
type DashboardRepository interface {
	ListProjectsFinishedOnTime(ctx context.Context) ([]string, error)
	ListOverrunActiveStages(ctx context.Context) ([]persistence.AlertStage, error)
	ListUnassignedStages(ctx context.Context) ([]persistence.AlertStage, error)
}

// DashboardAlerts groups the landing page panels: successes, warnings, and
// errors.
type DashboardAlerts struct {
	OnTimeProjects   []string
	OverrunStages    []persistence.AlertStage
	UnassignedStages []persistence.AlertStage
}

// DashboardService surfaces the stages that need attention.
type DashboardService struct {
	repo   DashboardRepository
	logger *slog.Logger
}

// NewDashboardService wires dependencies for the dashboard service.
func NewDashboardService(repo DashboardRepository, logger *slog.Logger) *DashboardService {
	return &DashboardService{repo: repo, logger: defaultLogger(logger)}
}

// Alerts returns projects delivered on time, active stages over their
// estimate, and open stages nobody is assigned to.
func (s *DashboardService) Alerts(ctx context.Context) (DashboardAlerts, error) {
	if s == nil {
		return DashboardAlerts{}, fmt.Errorf("DashboardService is nil")
	}

	onTime, err := s.repo.ListProjectsFinishedOnTime(ctx)
	if err != nil {
		return DashboardAlerts{}, mapRepoError(err)
	}
	overrun, err := s.repo.ListOverrunActiveStages(ctx)
	if err != nil {
		return DashboardAlerts{}, mapRepoError(err)
	}
	unassigned, err := s.repo.ListUnassignedStages(ctx)
	if err != nil {
		return DashboardAlerts{}, mapRepoError(err)
	}

	return DashboardAlerts{OnTimeProjects: onTime, OverrunStages: overrun, UnassignedStages: unassigned}, nil
}
