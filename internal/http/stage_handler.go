package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type stageService interface {
	CreateStage(ctx context.Context, params application.CreateStageParams) (persistence.StageDetail, error)
	GetStage(ctx context.Context, id string) (persistence.StageDetail, error)
	ListStages(ctx context.Context, projectID string) ([]persistence.StageDetail, error)
	UpdateStage(ctx context.Context, params application.UpdateStageParams) (persistence.StageDetail, error)
	DeleteStage(ctx context.Context, params application.DeleteStageParams) error
}

// StageHandler exposes stage CRUD endpoints.
type StageHandler struct {
	service   stageService
	responder responder
	logger    *slog.Logger
}

func NewStageHandler(service stageService, logger *slog.Logger) *StageHandler {
	base := defaultLogger(logger)
	return &StageHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *StageHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "StageHandler", operation, attrs...)
}

func (h *StageHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID := strings.TrimSpace(mux.Vars(r)["id"])
	if projectID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req stageRequestEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", projectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode stage request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", projectID)

	stage, err := h.service.CreateStage(r.Context(), application.CreateStageParams{
		Principal: principal,
		ProjectID: projectID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "stage creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("stage_id", stage.ID).InfoContext(r.Context(), "stage created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, stageResponse{Stage: toStageDTO(stage)})
}

func (h *StageHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	stage, err := h.service.GetStage(r.Context(), stageID)
	if err != nil {
		h.log(r.Context(), "Get", "stage_id", stageID).ErrorContext(r.Context(), "stage lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, stageResponse{Stage: toStageDTO(stage)})
}

func (h *StageHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID := strings.TrimSpace(mux.Vars(r)["id"])
	if projectID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	logger := h.log(r.Context(), "ListForProject", "project_id", projectID)
	stages, err := h.service.ListStages(r.Context(), projectID)
	if err != nil {
		logger.ErrorContext(r.Context(), "stage list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(stages)).InfoContext(r.Context(), "stages listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listStagesResponse{Stages: toStageDTOs(stages)})
}

func (h *StageHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req stageRequestEntry
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "stage_id", stageID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode stage update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "stage_id", stageID)

	stage, err := h.service.UpdateStage(r.Context(), application.UpdateStageParams{
		Principal: principal,
		StageID:   stageID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "stage update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "stage updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, stageResponse{Stage: toStageDTO(stage)})
}

func (h *StageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "stage_id", stageID)

	if err := h.service.DeleteStage(r.Context(), application.DeleteStageParams{
		Principal: principal,
		StageID:   stageID,
	}); err != nil {
		logger.ErrorContext(r.Context(), "stage delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "stage deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type stageResponse struct {
	Stage stageDTO `json:"stage"`
}

type listStagesResponse struct {
	Stages []stageDTO `json:"stages"`
}

type stageDTO struct {
	ID             string  `json:"id"`
	ProjectID      string  `json:"project_id"`
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	EstimatedHours int     `json:"estimated_hours"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	AssigneeID     *string `json:"assignee_id"`
	AssigneeName   *string `json:"assignee_name"`
	RealHours      float64 `json:"real_hours"`
	CreatedAt      string  `json:"created_at"`
	UpdatedAt      string  `json:"updated_at"`
}

func toStageDTO(stage persistence.StageDetail) stageDTO {
	return stageDTO{
		ID:             stage.ID,
		ProjectID:      stage.ProjectID,
		Name:           stage.Name,
		Status:         stage.Status,
		EstimatedHours: stage.EstimatedHours,
		StartDate:      stage.StartDate,
		EndDate:        stage.EndDate,
		AssigneeID:     stage.AssigneeID,
		AssigneeName:   stage.AssigneeName,
		CreatedAt:      stage.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      stage.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toStageDTOs(stages []persistence.StageDetail) []stageDTO {
	if len(stages) == 0 {
		return nil
	}
	out := make([]stageDTO, 0, len(stages))
	for _, stage := range stages {
		out = append(out, toStageDTO(stage))
	}
	return out
}
