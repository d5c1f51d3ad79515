package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/availability"
	"github.com/example/project-tracker/internal/persistence"
)

type suggestionService interface {
	Suggestions(ctx context.Context) ([]availability.Suggestion, error)
	ShortTasks(ctx context.Context) ([]persistence.ShortStage, error)
}

// SuggestionHandler exposes the availability matcher endpoints.
type SuggestionHandler struct {
	service   suggestionService
	responder responder
	logger    *slog.Logger
}

func NewSuggestionHandler(service suggestionService, logger *slog.Logger) *SuggestionHandler {
	base := defaultLogger(logger)
	return &SuggestionHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *SuggestionHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "SuggestionHandler", operation, attrs...)
}

func (h *SuggestionHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	suggestions, err := h.service.Suggestions(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "suggestion computation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(suggestions)).InfoContext(r.Context(), "suggestions computed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, suggestionsResponse{Suggestions: toSuggestionDTOs(suggestions)})
}

func (h *SuggestionHandler) ShortTasks(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ShortTasks")
	stages, err := h.service.ShortTasks(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "short task list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(stages)).InfoContext(r.Context(), "short tasks listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, shortTasksResponse{Stages: toShortStageDTOs(stages)})
}

type suggestionsResponse struct {
	Suggestions []suggestionDTO `json:"suggestions"`
}

type suggestionDTO struct {
	TechnicianID   string           `json:"technician_id"`
	TechnicianName string           `json:"technician_name"`
	Date           string           `json:"date"`
	FreeHours      int              `json:"free_hours"`
	Task           suggestedTaskDTO `json:"suggested_task"`
}

type suggestedTaskDTO struct {
	StageID       string `json:"stage_id"`
	ProjectID     string `json:"project_id"`
	ProjectName   string `json:"project_name"`
	StageName     string `json:"stage_name"`
	DurationHours int    `json:"duration_hours"`
}

func toSuggestionDTOs(suggestions []availability.Suggestion) []suggestionDTO {
	if len(suggestions) == 0 {
		return nil
	}
	out := make([]suggestionDTO, 0, len(suggestions))
	for _, suggestion := range suggestions {
		out = append(out, suggestionDTO{
			TechnicianID:   suggestion.TechnicianID,
			TechnicianName: suggestion.TechnicianName,
			Date:           suggestion.Date.String(),
			FreeHours:      suggestion.FreeHours,
			Task: suggestedTaskDTO{
				StageID:       suggestion.Task.StageID,
				ProjectID:     suggestion.Task.ProjectID,
				ProjectName:   suggestion.Task.ProjectName,
				StageName:     suggestion.Task.StageName,
				DurationHours: suggestion.Task.DurationHours,
			},
		})
	}
	return out
}

type shortTasksResponse struct {
	Stages []shortStageDTO `json:"stages"`
}

type shortStageDTO struct {
	StageID        string `json:"stage_id"`
	ProjectID      string `json:"project_id"`
	StageName      string `json:"stage_name"`
	ProjectName    string `json:"project_name"`
	EstimatedHours int    `json:"estimated_hours"`
	Status         string `json:"status"`
}

func toShortStageDTOs(stages []persistence.ShortStage) []shortStageDTO {
	if len(stages) == 0 {
		return nil
	}
	out := make([]shortStageDTO, 0, len(stages))
	for _, stage := range stages {
		out = append(out, shortStageDTO{
			StageID:        stage.StageID,
			ProjectID:      stage.ProjectID,
			StageName:      stage.StageName,
			ProjectName:    stage.ProjectName,
			EstimatedHours: stage.EstimatedHours,
			Status:         stage.Status,
		})
	}
	return out
}
