package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// AssignmentRepository captures the persistence operations needed by the assignment service.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment persistence.Assignment) error
	GetAssignmentForStage(ctx context.Context, stageID string) (persistence.AssignmentDetail, error)
	ListAssignments(ctx context.Context) ([]persistence.AssignmentDetail, error)
	UpdateAssignmentUser(ctx context.Context, id, userID string, updatedAt time.Time) error
}

// AssignmentUserReader looks up accounts to validate assignment targets.
type AssignmentUserReader interface {
	GetUser(ctx context.Context, id string) (persistence.User, error)
}

// AssignmentStageReader looks up stages to validate assignment targets.
type AssignmentStageReader interface {
	GetStage(ctx context.Context, id string) (persistence.Stage, error)
}

// AssignmentService binds technicians to stages. A stage holds at most one
// assignment, so assigning an already assigned stage reassigns it.
type AssignmentService struct {
	assignments AssignmentRepository
	users       AssignmentUserReader
	stages      AssignmentStageReader
	audit       Recorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAssignmentService wires dependencies for the assignment service.
func NewAssignmentService(assignments AssignmentRepository, users AssignmentUserReader, stages AssignmentStageReader, audit Recorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AssignmentService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AssignmentService{
		assignments: assignments,
		users:       users,
		stages:      stages,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *AssignmentService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "AssignmentService", operation, attrs...)
}

// AssignStage binds a technician to a stage, replacing any current assignee.
func (s *AssignmentService) AssignStage(ctx context.Context, params AssignStageParams) (persistence.AssignmentDetail, error) {
	if s == nil {
		return persistence.AssignmentDetail{}, fmt.Errorf("AssignmentService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return persistence.AssignmentDetail{}, ErrUnauthorized
	}

	vErr := &ValidationError{}
	if params.StageID == "" {
		vErr.add("stage_id", "is required")
	}
	if params.UserID == "" {
		vErr.add("user_id", "is required")
	}
	if vErr.HasErrors() {
		return persistence.AssignmentDetail{}, vErr
	}

	stage, err := s.stages.GetStage(ctx, params.StageID)
	if err != nil {
		return persistence.AssignmentDetail{}, mapRepoError(err)
	}

	user, err := s.users.GetUser(ctx, params.UserID)
	if err != nil {
		return persistence.AssignmentDetail{}, mapRepoError(err)
	}
	if user.Role != persistence.RoleTechnician {
		vErr.add("user_id", "must refer to a technician")
		return persistence.AssignmentDetail{}, vErr
	}

	logger := s.loggerWith(ctx, "AssignStage", "stage_id", params.StageID, "user_id", params.UserID)
	now := s.now()

	current, err := s.assignments.GetAssignmentForStage(ctx, params.StageID)
	switch {
	case err == nil:
		if err := s.assignments.UpdateAssignmentUser(ctx, current.ID, params.UserID, now); err != nil {
			err = mapRepoError(err)
			logger.ErrorContext(ctx, "failed to reassign stage", "error", err, "error_kind", ErrorKind(err))
			return persistence.AssignmentDetail{}, err
		}
		logger.InfoContext(ctx, "stage reassigned", "previous_user_id", current.UserID)
	case errors.Is(err, persistence.ErrNotFound):
		assignment := persistence.Assignment{
			ID:        s.idGenerator(),
			StageID:   params.StageID,
			UserID:    params.UserID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.assignments.CreateAssignment(ctx, assignment); err != nil {
			err = mapRepoError(err)
			logger.ErrorContext(ctx, "failed to assign stage", "error", err, "error_kind", ErrorKind(err))
			return persistence.AssignmentDetail{}, err
		}
		logger.InfoContext(ctx, "stage assigned")
	default:
		return persistence.AssignmentDetail{}, mapRepoError(err)
	}

	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &stage.ProjectID,
			fmt.Sprintf("asignó la etapa %q a %s", stage.Name, user.Username))
	}

	detail, err := s.assignments.GetAssignmentForStage(ctx, params.StageID)
	if err != nil {
		return persistence.AssignmentDetail{}, mapRepoError(err)
	}
	return detail, nil
}

// GetAssignmentForStage returns the stage's assignment with joined names.
func (s *AssignmentService) GetAssignmentForStage(ctx context.Context, stageID string) (persistence.AssignmentDetail, error) {
	if s == nil {
		return persistence.AssignmentDetail{}, fmt.Errorf("AssignmentService is nil")
	}

	detail, err := s.assignments.GetAssignmentForStage(ctx, stageID)
	if err != nil {
		return persistence.AssignmentDetail{}, mapRepoError(err)
	}
	return detail, nil
}

// ListAssignments returns every assignment with joined names.
func (s *AssignmentService) ListAssignments(ctx context.Context) ([]persistence.AssignmentDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("AssignmentService is nil")
	}

	details, err := s.assignments.ListAssignments(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return details, nil
}
