package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// StageRepository captures the persistence operations needed by the stage service.
type StageRepository interface {
	CreateStage(ctx context.Context, stage persistence.Stage) error
	GetStage(ctx context.Context, id string) (persistence.Stage, error)
	GetStageDetail(ctx context.Context, id string) (persistence.StageDetail, error)
	ListStagesForProject(ctx context.Context, projectID string) ([]persistence.StageDetail, error)
	UpdateStage(ctx context.Context, stage persistence.Stage) error
	DeleteStageCascade(ctx context.Context, id string) error
}

// StageService orchestrates validation, authorization, and persistence for stages.
type StageService struct {
	stages      StageRepository
	audit       Recorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewStageService wires dependencies for the stage service.
func NewStageService(stages StageRepository, audit Recorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *StageService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &StageService{
		stages:      stages,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *StageService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "StageService", operation, attrs...)
}

// CreateStage validates input and adds a stage to an existing project.
func (s *StageService) CreateStage(ctx context.Context, params CreateStageParams) (persistence.StageDetail, error) {
	if s == nil {
		return persistence.StageDetail{}, fmt.Errorf("StageService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return persistence.StageDetail{}, ErrUnauthorized
	}
	if params.ProjectID == "" {
		return persistence.StageDetail{}, ErrNotFound
	}

	input := normalizeStageInput(params.Input)
	if input.Status == "" {
		input.Status = persistence.StageStatusPending
	}
	vErr := validateStageInput(input, "")
	if vErr.HasErrors() {
		return persistence.StageDetail{}, vErr
	}

	now := s.now()
	stage := persistence.Stage{
		ID:             s.idGenerator(),
		ProjectID:      params.ProjectID,
		Name:           input.Name,
		Status:         input.Status,
		EstimatedHours: input.EstimatedHours,
		StartDate:      input.StartDate,
		EndDate:        input.EndDate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	logger := s.loggerWith(ctx, "CreateStage", "stage_id", stage.ID, "project_id", stage.ProjectID)

	if err := s.stages.CreateStage(ctx, stage); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create stage", "error", err, "error_kind", ErrorKind(err))
		return persistence.StageDetail{}, err
	}

	logger.InfoContext(ctx, "stage created")
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &stage.ProjectID, fmt.Sprintf("creó la etapa %q", stage.Name))
	}

	detail, err := s.stages.GetStageDetail(ctx, stage.ID)
	if err != nil {
		return persistence.StageDetail{}, mapRepoError(err)
	}
	return detail, nil
}

// GetStage returns a stage with its assigned technician.
func (s *StageService) GetStage(ctx context.Context, id string) (persistence.StageDetail, error) {
	if s == nil {
		return persistence.StageDetail{}, fmt.Errorf("StageService is nil")
	}

	detail, err := s.stages.GetStageDetail(ctx, id)
	if err != nil {
		return persistence.StageDetail{}, mapRepoError(err)
	}
	return detail, nil
}

// ListStages returns the stages of a project with their assignees.
func (s *StageService) ListStages(ctx context.Context, projectID string) ([]persistence.StageDetail, error) {
	if s == nil {
		return nil, fmt.Errorf("StageService is nil")
	}

	details, err := s.stages.ListStagesForProject(ctx, projectID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return details, nil
}

// UpdateStage validates input and updates an existing stage. Status changes
// travel through the same path.
func (s *StageService) UpdateStage(ctx context.Context, params UpdateStageParams) (persistence.StageDetail, error) {
	if s == nil {
		return persistence.StageDetail{}, fmt.Errorf("StageService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return persistence.StageDetail{}, ErrUnauthorized
	}

	existing, err := s.stages.GetStage(ctx, params.StageID)
	if err != nil {
		return persistence.StageDetail{}, mapRepoError(err)
	}

	input := normalizeStageInput(params.Input)
	if input.Status == "" {
		input.Status = existing.Status
	}
	vErr := validateStageInput(input, "")
	if vErr.HasErrors() {
		return persistence.StageDetail{}, vErr
	}

	existing.Name = input.Name
	existing.Status = input.Status
	existing.EstimatedHours = input.EstimatedHours
	existing.StartDate = input.StartDate
	existing.EndDate = input.EndDate
	existing.UpdatedAt = s.now()

	logger := s.loggerWith(ctx, "UpdateStage", "stage_id", existing.ID)

	if err := s.stages.UpdateStage(ctx, existing); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to update stage", "error", err, "error_kind", ErrorKind(err))
		return persistence.StageDetail{}, err
	}

	logger.InfoContext(ctx, "stage updated", "status", existing.Status)
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &existing.ProjectID, fmt.Sprintf("actualizó la etapa %q", existing.Name))
	}

	detail, err := s.stages.GetStageDetail(ctx, existing.ID)
	if err != nil {
		return persistence.StageDetail{}, mapRepoError(err)
	}
	return detail, nil
}

// DeleteStage removes a stage and its dependent records.
func (s *StageService) DeleteStage(ctx context.Context, params DeleteStageParams) error {
	if s == nil {
		return fmt.Errorf("StageService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return ErrUnauthorized
	}

	stage, err := s.stages.GetStage(ctx, params.StageID)
	if err != nil {
		return mapRepoError(err)
	}

	logger := s.loggerWith(ctx, "DeleteStage", "stage_id", params.StageID)

	if err := s.stages.DeleteStageCascade(ctx, params.StageID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete stage", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "stage deleted")
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &stage.ProjectID, fmt.Sprintf("eliminó la etapa %q", stage.Name))
	}

	return nil
}

func normalizeStageInput(input StageInput) StageInput {
	input.Name = trimmed(input.Name)
	input.Status = trimmed(input.Status)
	input.AssigneeID = trimmed(input.AssigneeID)
	return input
}
