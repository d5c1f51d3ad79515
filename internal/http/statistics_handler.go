package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type statisticsService interface {
	Summary(ctx context.Context) (application.StatisticsReport, error)
	HoursComparison(ctx context.Context, filter persistence.StageHoursFilter) ([]persistence.StageHours, error)
	DelayReasons(ctx context.Context, filter persistence.DelayReasonFilter) ([]persistence.DelayReason, error)
}

// StatisticsHandler exposes reporting endpoints.
type StatisticsHandler struct {
	service   statisticsService
	responder responder
	logger    *slog.Logger
}

func NewStatisticsHandler(service statisticsService, logger *slog.Logger) *StatisticsHandler {
	base := defaultLogger(logger)
	return &StatisticsHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StatisticsHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StatisticsHandler", operation, attrs...)
}

func (h *StatisticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "Summary")
	report, err := h.service.Summary(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "statistics summary failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, statisticsSummaryResponse{
		TotalProjects:        report.TotalProjects,
		ProjectsOnTime:       report.ProjectsOnTime,
		TotalStages:          report.TotalStages,
		StagesWithinEstimate: report.StagesWithinEstimate,
		StagesOverEstimate:   report.StagesOverEstimate,
		OnTimeProjects:       report.OnTimeProjects,
	})
}

func (h *StatisticsHandler) Hours(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := persistence.StageHoursFilter{
		TechnicianID: strings.TrimSpace(query.Get("technician_id")),
		ProjectID:    strings.TrimSpace(query.Get("project_id")),
		StageStatus:  strings.TrimSpace(query.Get("stage_status")),
		ProjectType:  strings.TrimSpace(query.Get("project_type")),
	}

	logger := h.log(r.Context(), "Hours")
	rows, err := h.service.HoursComparison(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "hours comparison failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(rows)).InfoContext(r.Context(), "hours comparison listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stageHoursResponse{Stages: toStageHoursDTOs(rows)})
}

func (h *StatisticsHandler) DelayReasons(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query()
	filter := persistence.DelayReasonFilter{
		TechnicianID: strings.TrimSpace(query.Get("technician_id")),
		ProjectID:    strings.TrimSpace(query.Get("project_id")),
		ProjectType:  strings.TrimSpace(query.Get("project_type")),
	}

	logger := h.log(r.Context(), "DelayReasons")
	reasons, err := h.service.DelayReasons(r.Context(), filter)
	if err != nil {
		logger.ErrorContext(r.Context(), "delay reason list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(reasons)).InfoContext(r.Context(), "delay reasons listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, delayReasonsResponse{Reasons: toDelayReasonDTOs(reasons)})
}

type statisticsSummaryResponse struct {
	TotalProjects        int      `json:"total_projects"`
	ProjectsOnTime       int      `json:"projects_on_time"`
	TotalStages          int      `json:"total_stages"`
	StagesWithinEstimate int      `json:"stages_within_estimate"`
	StagesOverEstimate   int      `json:"stages_over_estimate"`
	OnTimeProjects       []string `json:"on_time_projects"`
}

type stageHoursResponse struct {
	Stages []stageHoursDTO `json:"stages"`
}

type stageHoursDTO struct {
	StageID        string  `json:"stage_id"`
	ProjectID      string  `json:"project_id"`
	StageName      string  `json:"stage_name"`
	ProjectName    string  `json:"project_name"`
	EstimatedHours int     `json:"estimated_hours"`
	RealHours      float64 `json:"real_hours"`
}

func toStageHoursDTOs(rows []persistence.StageHours) []stageHoursDTO {
	if len(rows) == 0 {
		return nil
	}
	out := make([]stageHoursDTO, 0, len(rows))
	for _, row := range rows {
		out = append(out, stageHoursDTO{
			StageID:        row.StageID,
			ProjectID:      row.ProjectID,
			StageName:      row.StageName,
			ProjectName:    row.ProjectName,
			EstimatedHours: row.EstimatedHours,
			RealHours:      row.RealHours,
		})
	}
	return out
}

type delayReasonsResponse struct {
	Reasons []delayReasonDTO `json:"reasons"`
}

type delayReasonDTO struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

func toDelayReasonDTOs(reasons []persistence.DelayReason) []delayReasonDTO {
	if len(reasons) == 0 {
		return nil
	}
	out := make([]delayReasonDTO, 0, len(reasons))
	for _, reason := range reasons {
		out = append(out, delayReasonDTO{Reason: reason.Reason, Count: reason.Count})
	}
	return out
}
