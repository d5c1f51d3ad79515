package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// ProjectRepository captures the persistence operations needed by the project service.
type ProjectRepository interface {
	CreateProjectGraph(ctx context.Context, project persistence.Project, stages []persistence.Stage, assignments []persistence.Assignment) error
	GetProject(ctx context.Context, id string) (persistence.Project, error)
	ListProjects(ctx context.Context) ([]persistence.Project, error)
	UpdateProject(ctx context.Context, project persistence.Project) error
	DeleteProjectCascade(ctx context.Context, id string) error
}

// ProjectStageReader exposes the stage listings the project detail view needs.
type ProjectStageReader interface {
	ListStagesWithHours(ctx context.Context, projectID string) ([]persistence.StageWithHours, error)
}

// ProjectService orchestrates validation, authorization, and persistence for projects.
type ProjectService struct {
	projects    ProjectRepository
	stages      ProjectStageReader
	audit       Recorder
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewProjectService wires dependencies for the project service.
func NewProjectService(projects ProjectRepository, stages ProjectStageReader, audit Recorder, idGenerator func() string, now func() time.Time, logger *slog.Logger) *ProjectService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ProjectService{
		projects:    projects,
		stages:      stages,
		audit:       audit,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *ProjectService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ProjectService", operation, attrs...)
}

// CreateProject validates input and persists a project with its stages and
// any initial assignments in one transaction.
func (s *ProjectService) CreateProject(ctx context.Context, params CreateProjectParams) (ProjectDetail, error) {
	if s == nil {
		return ProjectDetail{}, fmt.Errorf("ProjectService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return ProjectDetail{}, ErrUnauthorized
	}

	input := normalizeProjectInput(params.Input)
	if input.Status == "" {
		input.Status = persistence.ProjectStatusActive
	}
	vErr := validateProjectInput(input, true)
	if vErr.HasErrors() {
		return ProjectDetail{}, vErr
	}

	now := s.now()
	project := persistence.Project{
		ID:        s.idGenerator(),
		Name:      input.Name,
		Client:    input.Client,
		StartDate: input.StartDate,
		DueDate:   input.DueDate,
		Status:    input.Status,
		Type:      input.Type,
		CreatedAt: now,
		UpdatedAt: now,
	}

	var stages []persistence.Stage
	var assignments []persistence.Assignment
	for _, si := range input.Stages {
		status := si.Status
		if status == "" {
			status = persistence.StageStatusPending
		}
		stage := persistence.Stage{
			ID:             s.idGenerator(),
			ProjectID:      project.ID,
			Name:           si.Name,
			Status:         status,
			EstimatedHours: si.EstimatedHours,
			StartDate:      si.StartDate,
			EndDate:        si.EndDate,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		stages = append(stages, stage)

		if si.AssigneeID != "" {
			assignments = append(assignments, persistence.Assignment{
				ID:        s.idGenerator(),
				StageID:   stage.ID,
				UserID:    si.AssigneeID,
				CreatedAt: now,
				UpdatedAt: now,
			})
		}
	}

	logger := s.loggerWith(ctx, "CreateProject", "project_id", project.ID)

	if err := s.projects.CreateProjectGraph(ctx, project, stages, assignments); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create project", "error", err, "error_kind", ErrorKind(err))
		return ProjectDetail{}, err
	}

	logger.InfoContext(ctx, "project created", "stage_count", len(stages))
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &project.ID, fmt.Sprintf("creó el proyecto %q", project.Name))
	}

	return s.GetProject(ctx, project.ID)
}

// GetProject returns a project with its stages and accumulated hours.
func (s *ProjectService) GetProject(ctx context.Context, id string) (ProjectDetail, error) {
	if s == nil {
		return ProjectDetail{}, fmt.Errorf("ProjectService is nil")
	}

	project, err := s.projects.GetProject(ctx, id)
	if err != nil {
		return ProjectDetail{}, mapRepoError(err)
	}

	detail := ProjectDetail{Project: project}
	if s.stages != nil {
		stages, err := s.stages.ListStagesWithHours(ctx, id)
		if err != nil {
			return ProjectDetail{}, mapRepoError(err)
		}
		detail.Stages = stages
	}

	return detail, nil
}

// ListProjects returns every project.
func (s *ProjectService) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	if s == nil {
		return nil, fmt.Errorf("ProjectService is nil")
	}

	projects, err := s.projects.ListProjects(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return projects, nil
}

// UpdateProject validates input and updates the project's own fields. Stages
// are managed through the stage service.
func (s *ProjectService) UpdateProject(ctx context.Context, params UpdateProjectParams) (ProjectDetail, error) {
	if s == nil {
		return ProjectDetail{}, fmt.Errorf("ProjectService is nil")
	}
	if !params.Principal.CanManageProjects() {
		return ProjectDetail{}, ErrUnauthorized
	}

	existing, err := s.projects.GetProject(ctx, params.ProjectID)
	if err != nil {
		return ProjectDetail{}, mapRepoError(err)
	}

	input := normalizeProjectInput(params.Input)
	if input.Status == "" {
		input.Status = existing.Status
	}
	vErr := validateProjectInput(input, false)
	if vErr.HasErrors() {
		return ProjectDetail{}, vErr
	}

	existing.Name = input.Name
	existing.Client = input.Client
	existing.StartDate = input.StartDate
	existing.DueDate = input.DueDate
	existing.Status = input.Status
	existing.Type = input.Type
	existing.UpdatedAt = s.now()

	logger := s.loggerWith(ctx, "UpdateProject", "project_id", existing.ID)

	if err := s.projects.UpdateProject(ctx, existing); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to update project", "error", err, "error_kind", ErrorKind(err))
		return ProjectDetail{}, err
	}

	logger.InfoContext(ctx, "project updated", "status", existing.Status)
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, &existing.ID, fmt.Sprintf("actualizó el proyecto %q", existing.Name))
	}

	return s.GetProject(ctx, existing.ID)
}

// DeleteProject removes a project and every dependent record. Administrators only.
func (s *ProjectService) DeleteProject(ctx context.Context, params DeleteProjectParams) error {
	if s == nil {
		return fmt.Errorf("ProjectService is nil")
	}
	if !params.Principal.IsAdmin() {
		return ErrUnauthorized
	}

	project, err := s.projects.GetProject(ctx, params.ProjectID)
	if err != nil {
		return mapRepoError(err)
	}

	logger := s.loggerWith(ctx, "DeleteProject", "project_id", params.ProjectID)

	if err := s.projects.DeleteProjectCascade(ctx, params.ProjectID); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to delete project", "error", err, "error_kind", ErrorKind(err))
		return err
	}

	logger.InfoContext(ctx, "project deleted")
	if s.audit != nil {
		s.audit.Record(ctx, params.Principal.UserID, nil, fmt.Sprintf("eliminó el proyecto %q", project.Name))
	}

	return nil
}

func normalizeProjectInput(input ProjectInput) ProjectInput {
	input.Name = trimmed(input.Name)
	input.Client = trimmed(input.Client)
	input.StartDate = trimmed(input.StartDate)
	input.DueDate = trimmed(input.DueDate)
	input.Status = trimmed(input.Status)
	input.Type = trimmed(input.Type)
	for i := range input.Stages {
		input.Stages[i].Name = trimmed(input.Stages[i].Name)
		input.Stages[i].Status = trimmed(input.Stages[i].Status)
		input.Stages[i].AssigneeID = trimmed(input.Stages[i].AssigneeID)
	}
	return input
}

func validateProjectInput(input ProjectInput, withStages bool) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add("name", "is required")
	}
	if input.StartDate == "" || !isValidDate(input.StartDate) {
		vErr.add("start_date", "must be a YYYY-MM-DD date")
	}
	if input.DueDate == "" || !isValidDate(input.DueDate) {
		vErr.add("due_date", "must be a YYYY-MM-DD date")
	} else {
		validateDateOrder(vErr, "due_date", &input.StartDate, &input.DueDate)
	}
	if !projectStatuses[input.Status] {
		vErr.add("status", "is not a valid status")
	}
	if !projectTypes[input.Type] {
		vErr.add("type", "is not a valid project type")
	}

	if withStages {
		for i, si := range input.Stages {
			vErr.merge(validateStageInput(si, fmt.Sprintf("stages[%d].", i)))
		}
	}

	return vErr
}

func validateStageInput(input StageInput, prefix string) *ValidationError {
	vErr := &ValidationError{}

	if input.Name == "" {
		vErr.add(prefix+"name", "is required")
	}
	if input.EstimatedHours < 0 {
		vErr.add(prefix+"estimated_hours", "must not be negative")
	}
	if input.Status != "" && !stageStatuses[input.Status] {
		vErr.add(prefix+"status", "is not a valid status")
	}
	validateDateField(vErr, prefix+"start_date", input.StartDate)
	validateDateField(vErr, prefix+"end_date", input.EndDate)
	validateDateOrder(vErr, prefix+"end_date", input.StartDate, input.EndDate)

	return vErr
}
