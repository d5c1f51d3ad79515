package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// CommentRepository captures the persistence operations needed by the comment service.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment persistence.Comment) error
	ListCommentsForStage(ctx context.Context, stageID string) ([]persistence.Comment, error)
	ListProjectLog(ctx context.Context, projectID string) ([]persistence.ProjectLogEntry, error)
}

// CommentService records discussion and delay reasons against projects and stages.
type CommentService struct {
	comments    CommentRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewCommentService wires dependencies for the comment service.
func NewCommentService(comments CommentRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *CommentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &CommentService{
		comments:    comments,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// AddComment validates and records a comment. A comment without a stage
// attaches to the project at large.
func (s *CommentService) AddComment(ctx context.Context, params AddCommentParams) (persistence.Comment, error) {
	if s == nil {
		return persistence.Comment{}, fmt.Errorf("CommentService is nil")
	}
	if params.Principal.UserID == "" {
		return persistence.Comment{}, ErrUnauthorized
	}

	input := params.Input
	input.Body = trimmed(input.Body)
	input.Kind = trimmed(input.Kind)
	if input.Kind == "" {
		input.Kind = persistence.CommentKindGeneral
	}

	vErr := &ValidationError{}
	if input.ProjectID == "" {
		vErr.add("project_id", "is required")
	}
	if input.Body == "" {
		vErr.add("body", "is required")
	}
	if input.Kind != persistence.CommentKindGeneral && input.Kind != persistence.CommentKindDelay {
		vErr.add("kind", "is not a valid comment kind")
	}
	if input.Kind == persistence.CommentKindDelay && (input.StageID == nil || *input.StageID == "") {
		vErr.add("stage_id", "is required for delay reasons")
	}
	if vErr.HasErrors() {
		return persistence.Comment{}, vErr
	}

	comment := persistence.Comment{
		ID:        s.idGenerator(),
		ProjectID: input.ProjectID,
		StageID:   input.StageID,
		UserID:    params.Principal.UserID,
		Kind:      input.Kind,
		Body:      input.Body,
		CreatedAt: s.now(),
	}

	logger := serviceLogger(ctx, s.logger, "CommentService", "AddComment", "project_id", input.ProjectID)

	if err := s.comments.CreateComment(ctx, comment); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to add comment", "error", err, "error_kind", ErrorKind(err))
		return persistence.Comment{}, err
	}

	logger.InfoContext(ctx, "comment added", "comment_id", comment.ID, "kind", comment.Kind)
	return comment, nil
}

// ListForStage returns a stage's comments, oldest first.
func (s *CommentService) ListForStage(ctx context.Context, stageID string) ([]persistence.Comment, error) {
	if s == nil {
		return nil, fmt.Errorf("CommentService is nil")
	}

	comments, err := s.comments.ListCommentsForStage(ctx, stageID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return comments, nil
}

// ProjectLog returns a project's merged history of bitácora lines and
// comments, newest first.
func (s *CommentService) ProjectLog(ctx context.Context, projectID string) ([]persistence.ProjectLogEntry, error) {
	if s == nil {
		return nil, fmt.Errorf("CommentService is nil")
	}

	entries, err := s.comments.ListProjectLog(ctx, projectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return entries, nil
}
