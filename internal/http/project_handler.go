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

type projectService interface {
	CreateProject(ctx context.Context, params application.CreateProjectParams) (application.ProjectDetail, error)
	GetProject(ctx context.Context, id string) (application.ProjectDetail, error)
	ListProjects(ctx context.Context) ([]persistence.Project, error)
	UpdateProject(ctx context.Context, params application.UpdateProjectParams) (application.ProjectDetail, error)
	DeleteProject(ctx context.Context, params application.DeleteProjectParams) error
}

// ProjectHandler exposes project CRUD endpoints.
type ProjectHandler struct {
	service   projectService
	responder responder
	logger    *slog.Logger
}

func NewProjectHandler(service projectService, logger *slog.Logger) *ProjectHandler {
	base := defaultLogger(logger)
	return &ProjectHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ProjectHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ProjectHandler", operation, attrs...)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode project request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	detail, err := h.service.CreateProject(r.Context(), application.CreateProjectParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "project creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("project_id", detail.ID).InfoContext(r.Context(), "project created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, projectDetailResponse{Project: toProjectDetailDTO(detail)})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID := strings.TrimSpace(mux.Vars(r)["id"])
	if projectID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	detail, err := h.service.GetProject(r.Context(), projectID)
	if err != nil {
		h.log(r.Context(), "Get", "project_id", projectID).ErrorContext(r.Context(), "project lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectDetailResponse{Project: toProjectDetailDTO(detail)})
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	projects, err := h.service.ListProjects(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "project list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(projects)).InfoContext(r.Context(), "projects listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listProjectsResponse{Projects: toProjectDTOs(projects)})
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode project update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Update", "principal_id", principal.UserID, "project_id", projectID)

	detail, err := h.service.UpdateProject(r.Context(), application.UpdateProjectParams{
		Principal: principal,
		ProjectID: projectID,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "project update failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "project updated")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectDetailResponse{Project: toProjectDetailDTO(detail)})
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	logger := h.log(r.Context(), "Delete", "principal_id", principal.UserID, "project_id", projectID)

	if err := h.service.DeleteProject(r.Context(), application.DeleteProjectParams{
		Principal: principal,
		ProjectID: projectID,
	}); err != nil {
		logger.ErrorContext(r.Context(), "project delete failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "project deleted")
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

type projectRequest struct {
	Name      string              `json:"name"`
	Client    string              `json:"client"`
	StartDate string              `json:"start_date"`
	DueDate   string              `json:"due_date"`
	Status    string              `json:"status"`
	Type      string              `json:"type"`
	Stages    []stageRequestEntry `json:"stages"`
}

type stageRequestEntry struct {
	Name           string  `json:"name"`
	Status         string  `json:"status"`
	EstimatedHours int     `json:"estimated_hours"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	AssigneeID     string  `json:"assignee_id"`
}

func (r projectRequest) toInput() application.ProjectInput {
	stages := make([]application.StageInput, 0, len(r.Stages))
	for _, stage := range r.Stages {
		stages = append(stages, stage.toInput())
	}
	return application.ProjectInput{
		Name:      strings.TrimSpace(r.Name),
		Client:    strings.TrimSpace(r.Client),
		StartDate: strings.TrimSpace(r.StartDate),
		DueDate:   strings.TrimSpace(r.DueDate),
		Status:    strings.TrimSpace(r.Status),
		Type:      strings.TrimSpace(r.Type),
		Stages:    stages,
	}
}

func (r stageRequestEntry) toInput() application.StageInput {
	return application.StageInput{
		Name:           strings.TrimSpace(r.Name),
		Status:         strings.TrimSpace(r.Status),
		EstimatedHours: r.EstimatedHours,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		AssigneeID:     strings.TrimSpace(r.AssigneeID),
	}
}

type projectDetailResponse struct {
	Project projectDetailDTO `json:"project"`
}

type listProjectsResponse struct {
	Projects []projectDTO `json:"projects"`
}

type projectDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Client    string `json:"client"`
	StartDate string `json:"start_date"`
	DueDate   string `json:"due_date"`
	Status    string `json:"status"`
	Type      string `json:"type"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type projectDetailDTO struct {
	projectDTO
	Stages []stageDTO `json:"stages"`
}

func toProjectDTO(project persistence.Project) projectDTO {
	return projectDTO{
		ID:        project.ID,
		Name:      project.Name,
		Client:    project.Client,
		StartDate: project.StartDate,
		DueDate:   project.DueDate,
		Status:    project.Status,
		Type:      project.Type,
		CreatedAt: project.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: project.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toProjectDTOs(projects []persistence.Project) []projectDTO {
	if len(projects) == 0 {
		return nil
	}
	out := make([]projectDTO, 0, len(projects))
	for _, project := range projects {
		out = append(out, toProjectDTO(project))
	}
	return out
}

func toProjectDetailDTO(detail application.ProjectDetail) projectDetailDTO {
	stages := make([]stageDTO, 0, len(detail.Stages))
	for _, stage := range detail.Stages {
		dto := toStageDTO(stage.StageDetail)
		dto.RealHours = stage.RealHours
		stages = append(stages, dto)
	}
	return projectDetailDTO{
		projectDTO: toProjectDTO(detail.Project),
		Stages:     stages,
	}
}
