package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type assignmentService interface {
	AssignStage(ctx context.Context, params application.AssignStageParams) (persistence.AssignmentDetail, error)
	GetAssignmentForStage(ctx context.Context, stageID string) (persistence.AssignmentDetail, error)
	ListAssignments(ctx context.Context) ([]persistence.AssignmentDetail, error)
}

// AssignmentHandler exposes stage assignment endpoints.
type AssignmentHandler struct {
	service   assignmentService
	responder responder
	logger    *slog.Logger
}

func NewAssignmentHandler(service assignmentService, logger *slog.Logger) *AssignmentHandler {
	base := defaultLogger(logger)
	return &AssignmentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AssignmentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "AssignmentHandler", operation, attrs...)
}

func (h *AssignmentHandler) Assign(w http.ResponseWriter, r *http.Request) {
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

	var req assignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Assign", "principal_id", principal.UserID, "stage_id", stageID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode assignment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Assign", "principal_id", principal.UserID, "stage_id", stageID, "user_id", req.UserID)

	assignment, err := h.service.AssignStage(r.Context(), application.AssignStageParams{
		Principal: principal,
		StageID:   stageID,
		UserID:    strings.TrimSpace(req.UserID),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "stage assignment failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.InfoContext(r.Context(), "stage assigned")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(assignment)})
}

func (h *AssignmentHandler) GetForStage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	assignment, err := h.service.GetAssignmentForStage(r.Context(), stageID)
	if err != nil {
		h.log(r.Context(), "GetForStage", "stage_id", stageID).ErrorContext(r.Context(), "assignment lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, assignmentResponse{Assignment: toAssignmentDTO(assignment)})
}

func (h *AssignmentHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "List")
	assignments, err := h.service.ListAssignments(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "assignment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(assignments)).InfoContext(r.Context(), "assignments listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listAssignmentsResponse{Assignments: toAssignmentDTOs(assignments)})
}

type assignRequest struct {
	UserID string `json:"user_id"`
}

type assignmentResponse struct {
	Assignment assignmentDTO `json:"assignment"`
}

type listAssignmentsResponse struct {
	Assignments []assignmentDTO `json:"assignments"`
}

type assignmentDTO struct {
	ID          string `json:"id"`
	UserID      string `json:"user_id"`
	Username    string `json:"username"`
	StageID     string `json:"stage_id"`
	StageName   string `json:"stage_name"`
	ProjectName string `json:"project_name"`
}

func toAssignmentDTO(assignment persistence.AssignmentDetail) assignmentDTO {
	return assignmentDTO{
		ID:          assignment.ID,
		UserID:      assignment.UserID,
		Username:    assignment.Username,
		StageID:     assignment.StageID,
		StageName:   assignment.StageName,
		ProjectName: assignment.ProjectName,
	}
}

func toAssignmentDTOs(assignments []persistence.AssignmentDetail) []assignmentDTO {
	if len(assignments) == 0 {
		return nil
	}
	out := make([]assignmentDTO, 0, len(assignments))
	for _, assignment := range assignments {
		out = append(out, toAssignmentDTO(assignment))
	}
	return out
}
