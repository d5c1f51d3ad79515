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

type commentService interface {
	AddComment(ctx context.Context, params application.AddCommentParams) (persistence.Comment, error)
	ListForStage(ctx context.Context, stageID string) ([]persistence.Comment, error)
	ProjectLog(ctx context.Context, projectID string) ([]persistence.ProjectLogEntry, error)
}

// CommentHandler exposes comment and project log endpoints.
type CommentHandler struct {
	service   commentService
	responder responder
	logger    *slog.Logger
}

func NewCommentHandler(service commentService, logger *slog.Logger) *CommentHandler {
	base := defaultLogger(logger)
	return &CommentHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *CommentHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "CommentHandler", operation, attrs...)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode comment request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID, "project_id", req.ProjectID)

	comment, err := h.service.AddComment(r.Context(), application.AddCommentParams{
		Principal: principal,
		Input: application.CommentInput{
			ProjectID: strings.TrimSpace(req.ProjectID),
			StageID:   req.StageID,
			Kind:      strings.TrimSpace(req.Kind),
			Body:      strings.TrimSpace(req.Body),
		},
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "comment creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("comment_id", comment.ID).InfoContext(r.Context(), "comment recorded")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, commentResponse{Comment: toCommentDTO(comment)})
}

func (h *CommentHandler) ListForStage(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	comments, err := h.service.ListForStage(r.Context(), stageID)
	if err != nil {
		h.log(r.Context(), "ListForStage", "stage_id", stageID).ErrorContext(r.Context(), "comment list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, listCommentsResponse{Comments: toCommentDTOs(comments)})
}

func (h *CommentHandler) ProjectLog(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	projectID := strings.TrimSpace(mux.Vars(r)["id"])
	if projectID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidProjectID)
		return
	}

	logger := h.log(r.Context(), "ProjectLog", "project_id", projectID)
	entries, err := h.service.ProjectLog(r.Context(), projectID)
	if err != nil {
		logger.ErrorContext(r.Context(), "project log failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "project log listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, projectLogResponse{Entries: toProjectLogDTOs(entries)})
}

type commentRequest struct {
	ProjectID string  `json:"project_id"`
	StageID   *string `json:"stage_id"`
	Kind      string  `json:"kind"`
	Body      string  `json:"body"`
}

type commentResponse struct {
	Comment commentDTO `json:"comment"`
}

type listCommentsResponse struct {
	Comments []commentDTO `json:"comments"`
}

type commentDTO struct {
	ID        string  `json:"id"`
	ProjectID string  `json:"project_id"`
	StageID   *string `json:"stage_id"`
	UserID    string  `json:"user_id"`
	Kind      string  `json:"kind"`
	Body      string  `json:"body"`
	CreatedAt string  `json:"created_at"`
}

func toCommentDTO(comment persistence.Comment) commentDTO {
	return commentDTO{
		ID:        comment.ID,
		ProjectID: comment.ProjectID,
		StageID:   comment.StageID,
		UserID:    comment.UserID,
		Kind:      comment.Kind,
		Body:      comment.Body,
		CreatedAt: comment.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toCommentDTOs(comments []persistence.Comment) []commentDTO {
	if len(comments) == 0 {
		return nil
	}
	out := make([]commentDTO, 0, len(comments))
	for _, comment := range comments {
		out = append(out, toCommentDTO(comment))
	}
	return out
}

type projectLogResponse struct {
	Entries []projectLogDTO `json:"entries"`
}

type projectLogDTO struct {
	Body       string  `json:"body"`
	Author     string  `json:"author"`
	StageID    *string `json:"stage_id"`
	RecordedAt string  `json:"recorded_at"`
}

func toProjectLogDTOs(entries []persistence.ProjectLogEntry) []projectLogDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]projectLogDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, projectLogDTO{
			Body:       entry.Body,
			Author:     entry.Author,
			StageID:    entry.StageID,
			RecordedAt: entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
