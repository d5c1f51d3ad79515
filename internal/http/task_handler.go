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

type taskService interface {
	CreateTask(ctx context.Context, params application.CreateTaskParams) (persistence.Task, error)
	GetTask(ctx context.Context, id string) (persistence.Task, error)
	ListTasksForProject(ctx context.Context, projectID string) ([]persistence.Task, error)
	UpdateTask(ctx context.Context, params application.UpdateTaskParams) (persistence.Task, error)
	DeleteTask(ctx context.Context, params application.DeleteTaskParams) error
}

// TaskHandler exposes endpoints for work items nested under stages.
type TaskHandler struct {
	service   taskService
	responder responder
	logger    *slog.Logger
}

func NewTaskHandler(service taskService, logger *slog.Logger) *TaskHandler {
	base := defaultLogger(logger)
	return &TaskHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TaskHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TaskHandler", operation, attrs...)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "stage_id", stageID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "stage_id", stageID)

	task, err := h.service.CreateTask(r.Context(), application.CreateTaskParams{
		Principal: principal,
		StageID:   stageID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "task creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("task_id", task.ID).InfoContext(r.Context(), "task created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID := strings.TrimSpace(mux.Vars(r)["id"])
	if taskID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	task, err := h.service.GetTask(r.Context(), taskID)
	if err != nil {
		h.log(r.Context(), "Get", "task_id", taskID).ErrorContext(r.Context(), "task lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) ListForProject(w http.ResponseWriter, r *http.Request) {
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
	tasks, err := h.service.ListTasksForProject(r.Context(), projectID)
	if err != nil {
		logger.ErrorContext(r.Context(), "task list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(tasks)).InfoContext(r.Context(), "tasks listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listTasksResponse{Tasks: toTaskDTOs(tasks)})
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID := strings.TrimSpace(mux.Vars(r)["id"])
	if taskID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req taskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "task_id", taskID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode task update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "task_id", taskID)

	task, err := h.service.UpdateTask(r.Context(), application.UpdateTaskParams{
		Principal: principal,
		TaskID:    taskID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "task update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, taskResponse{Task: toTaskDTO(task)})
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	taskID := strings.TrimSpace(mux.Vars(r)["id"])
	if taskID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidTaskID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "task_id", taskID)

	if err := h.service.DeleteTask(r.Context(), application.DeleteTaskParams{
		Principal: principal,
		TaskID:    taskID,
	}); err != nil {
		logger.ErrorContext(r.Context(), "task delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "task deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type taskRequest struct {
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	EstimatedHours int    `json:"estimated_hours"`
	Status         string `json:"status"`
}

func (r taskRequest) toInput() application.TaskInput {
	return application.TaskInput{
		Name:           strings.TrimSpace(r.Name),
		StartDate:      strings.TrimSpace(r.StartDate),
		EndDate:        strings.TrimSpace(r.EndDate),
		EstimatedHours: r.EstimatedHours,
		Status:         strings.TrimSpace(r.Status),
	}
}

type taskResponse struct {
	Task taskDTO `json:"task"`
}

type listTasksResponse struct {
	Tasks []taskDTO `json:"tasks"`
}

type taskDTO struct {
	ID             string `json:"id"`
	StageID        string `json:"stage_id"`
	Name           string `json:"name"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
	EstimatedHours int    `json:"estimated_hours"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
	UpdatedAt      string `json:"updated_at"`
}

func toTaskDTO(task persistence.Task) taskDTO {
	return taskDTO{
		ID:             task.ID,
		StageID:        task.StageID,
		Name:           task.Name,
		StartDate:      task.StartDate,
		EndDate:        task.EndDate,
		EstimatedHours: task.EstimatedHours,
		Status:         task.Status,
		CreatedAt:      task.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt:      task.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toTaskDTOs(tasks []persistence.Task) []taskDTO {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]taskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, toTaskDTO(task))
	}
	return out
}
