package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// TaskRepository captures the persistence operations needed by the task service.
type TaskRepository interface {
	CreateTask(ctx context.Context, task persistence.Task) error
	GetTask(ctx context.Context, id string) (persistence.Task, error)
	ListTasksForProject(ctx context.Context, projectID string) ([]persistence.Task, error)
	UpdateTask(ctx context.Context, task persistence.Task) error
	DeleteTask(ctx context.Context, id string) error
}

// TaskStageReader looks up stages to validate task parents.
type TaskStageReader interface {
	GetStage(ctx context.Context, id string) (persistence.Stage, error)
}

// TaskService manages the work items nested under stages.
type TaskService struct {
	tasks       TaskRepository
	stages      TaskStageReader
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewTaskService wires dependencies for the task service.
func NewTaskService(tasks TaskRepository, stages TaskStageReader, idGenerator func() string, now func() time.Time, logger *slog.Logger) *TaskService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		tasks:       tasks,
		stages:      stages,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *TaskService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "TaskService", operation, attrs...)
}

// CreateTask validates input and adds a task under an existing stage.
func (s *TaskService) CreateTask(ctx context.Context, params CreateTaskParams) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return persistence.Task{}, ErrUnauthorized
	}

	if _, err := s.stages.GetStage(ctx, params.StageID); err != nil {
		return persistence.Task{}, mapRepoError(err)
	}

	input := normalizeTaskInput(params.Input)
	if input.Status == "" {
		input.Status = persistence.StageStatusPending
	}
	vErr := validateTaskInput(input)
	if vErr.HasErrors() {
		return persistence.Task{}, vErr
	}

	now := s.now()
	task := persistence.Task{
		ID:             s.idGenerator(),
		StageID:        params.StageID,
		Name:           input.Name,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		EstimatedHours: input.EstimatedHours,
		Status:         input.Status,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	logger := s.loggerWith(ctx, "CreateTask", "task_id", task.ID, "stage_id", task.StageID)

	if err := s.tasks.CreateTask(ctx, task); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create task", "error", err, "error_kind", ErrorKind(err))
		return persistence.Task{}, err
	}

	logger.InfoContext(ctx, "task created")
	return task, nil
}

// GetTask returns a task by ID.
func (s *TaskService) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}

	task, err := s.tasks.GetTask(ctx, id)
	if err != nil {
		return persistence.Task{}, mapRepoError(err)
	}
	return task, nil
}

// ListTasksForProject returns every task under the project's stages.
func (s *TaskService) ListTasksForProject(ctx context.Context, projectID string) ([]persistence.Task, error) {
	if s == nil {
		return nil, fmt.Errorf("TaskService is nil")
	}

	tasks, err := s.tasks.ListTasksForProject(ctx, projectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tasks, nil
}

// UpdateTask validates input and updates an existing task.
func (s *TaskService) UpdateTask(ctx context.Context, params UpdateTaskParams) (persistence.Task, error) {
	if s == nil {
		return persistence.Task{}, fmt.Errorf("TaskService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return persistence.Task{}, ErrUnauthorized
	}

	existing, err := s.tasks.GetTask(ctx, params.TaskID)
	if err != nil {
		return persistence.Task{}, mapRepoError(err)
	}

	input := normalizeTaskInput(params.Input)
	if input.Status == "" {
		input.Status = existing.Status
	}
	vErr := validateTaskInput(input)
	if vErr.HasErrors() {
		return persistence.Task{}, vErr
	}

	existing.Name = input.Name
	existing.StartDate = input.StartDate
	existing.EndDate = input.EndDate
	existing.EstimatedHours = input.EstimatedHours
	existing.Status = input.Status
	existing.UpdatedAt = s.now()

	logger := s.loggerWith(ctx, "UpdateTask", "task_id", existing.ID)

	if err := s.tasks.UpdateTask(ctx, existing); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to update task", "error", err, "error_kind", ErrorKind(err))
		return persistence.Task{}, err
	}

	logger.InfoContext(ctx, "task updated", "status", existing.Status)
	return existing, nil
}

// DeleteTask removes a task.
func (s *TaskService) DeleteTask(ctx context.Context, params DeleteTaskParams) error {
	if s == nil {
		return fmt.Errorf("TaskService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return ErrUnauthorized
	}

	logger := s.loggerWith(ctx, "DeleteTask", "task_id", params.TaskID)

	if err := s.tasks.DeleteTask(ctx, params.TaskID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete task", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "task deleted")
	return nil
}

func normalizeTaskInput(input TaskInput) TaskInput {
	input.Name = trimmed(input.Name)
	input.StartDate = trimmed(input.StartDate)
	input.EndDate = trimmed(input.EndDate)
	input.Status = trimmed(input.Status)
	return input
}

func validateTaskInput(input TaskInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "is required")
	} else if len(input.Name) > 100 {
		vErr.add("name", "must not exceed 100 characters")
	}
	if input.EstimatedHours < 0 {
		vErr.add("estimated_hours", "must not be negative")
	}
	if input.Status != "" && !stageStatuses[input.Status] {
		vErr.add("status", "is not a valid status")
	}
	if input.StartDate != "" && !isValidDate(input.StartDate) {
		vErr.add("start_date", "must be a YYYY-MM-DD date")
	}
	if input.EndDate != "" && !isValidDate(input.EndDate) {
		vErr.add("end_date", "must be a YYYY-MM-DD date")
	}
	if input.StartDate != "" && input.EndDate != "" {
		validateDateOrder(vErr, "end_date", &input.StartDate, &input.EndDate)
	}

	return vErr
}
