package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type dashboardService interface {
	Alerts(ctx context.Context) (application.DashboardAlerts, error)
}

// DashboardHandler exposes the stage alert endpoint.
type DashboardHandler struct {
	service   dashboardService
	responder responder
	logger    *slog.Logger
}

func NewDashboardHandler(service dashboardService, logger *slog.Logger) *DashboardHandler {
	base := defaultLogger(logger)
	return &DashboardHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *DashboardHandler) Alerts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := handlerLogger(r.Context(), h.logger, "DashboardHandler", "Alerts")
	alerts, err := h.service.Alerts(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "dashboard alerts failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, dashboardAlertsResponse{
		OnTimeProjects:   alerts.OnTimeProjects,
		OverrunStages:    toAlertStageDTOs(alerts.OverrunStages),
		UnassignedStages: toAlertStageDTOs(alerts.UnassignedStages),
	})
}

type dashboardAlertsResponse struct {
	OnTimeProjects   []string        `json:"on_time_projects"`
	OverrunStages    []alertStageDTO `json:"overrun_stages"`
	UnassignedStages []alertStageDTO `json:"unassigned_stages"`
}

type alertStageDTO struct {
	StageName   string `json:"stage_name"`
	ProjectName string `json:"project_name"`
}

func toAlertStageDTOs(stages []persistence.AlertStage) []alertStageDTO {
	if len(stages) == 0 {
		return nil
	}
	out := make([]alertStageDTO, 0, len(stages))
	for _, stage := range stages {
		out = append(out, alertStageDTO{StageName: stage.StageName, ProjectName: stage.ProjectName})
	}
	return out
}
