package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type projectRepoStub struct {
	createErr          error
	createdProject     persistence.Project
	createdStages      []persistence.Stage
	createdAssignments []persistence.Assignment

	projects map[string]persistence.Project

	updated   *persistence.Project
	deletedID string
}

func (r *projectRepoStub) CreateProjectGraph(ctx context.Context, project persistence.Project, stages []persistence.Stage, assignments []persistence.Assignment) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.createdProject = project
	r.createdStages = stages
	r.createdAssignments = assignments
	if r.projects == nil {
		r.projects = make(map[string]persistence.Project)
	}
	r.projects[project.ID] = project
	return nil
}

func (r *projectRepoStub) GetProject(ctx context.Context, id string) (persistence.Project, error) {
	p, ok := r.projects[id]
	if !ok {
		return persistence.Project{}, persistence.ErrNotFound
	}
	return p, nil
}

func (r *projectRepoStub) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	var out []persistence.Project
	for _, p := range r.projects {
		out = append(out, p)
	}
	return out, nil
}

func (r *projectRepoStub) UpdateProject(ctx context.Context, project persistence.Project) error {
	if _, ok := r.projects[project.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.updated = &project
	r.projects[project.ID] = project
	return nil
}

func (r *projectRepoStub) DeleteProjectCascade(ctx context.Context, id string) error {
	if _, ok := r.projects[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deletedID = id
	delete(r.projects, id)
	return nil
}

type stageReaderStub struct {
	stages []persistence.StageWithHours
}

func (s *stageReaderStub) ListStagesWithHours(ctx context.Context, projectID string) ([]persistence.StageWithHours, error) {
	return s.stages, nil
}

type recorderStub struct {
	actions []string
}

func (r *recorderStub) Record(ctx context.Context, userID string, projectID *string, action string) {
	r.actions = append(r.actions, action)
}

func validProjectInput() ProjectInput {
	start := "2024-01-01"
	end := "2024-01-05"
	return ProjectInput{
		Name:      "Portal",
		Client:    "ACME",
		StartDate: "2024-01-01",
		DueDate:   "2024-06-30",
		Type:      persistence.ProjectTypeShort,
		Stages: []StageInput{{
			Name:           "Diseño",
			EstimatedHours: 3,
			StartDate:      &start,
			EndDate:        &end,
			AssigneeID:     "u9",
		}},
	}
}

func TestProjectService_CreateProject(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}

	t.Run("requires a managing role", func(t *testing.T) {
		svc := NewProjectService(&projectRepoStub{}, &stageReaderStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateProject(context.Background(), CreateProjectParams{
			Principal: Principal{UserID: "u2", Role: persistence.RoleTechnician},
			Input:     validProjectInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("persists the project graph and records the action", func(t *testing.T) {
		repo := &projectRepoStub{}
		audit := &recorderStub{}
		svc := NewProjectService(repo, &stageReaderStub{}, audit, sequentialIDs(), fixedNow(t), nil)

		detail, err := svc.CreateProject(context.Background(), CreateProjectParams{
			Principal: admin,
			Input:     validProjectInput(),
		})
		if err != nil {
			t.Fatalf("CreateProject: %v", err)
		}
		if detail.Name != "Portal" || detail.Status != persistence.ProjectStatusActive {
			t.Errorf("unexpected project: %+v", detail.Project)
		}
		if len(repo.createdStages) != 1 || repo.createdStages[0].Status != persistence.StageStatusPending {
			t.Errorf("unexpected stages: %+v", repo.createdStages)
		}
		if len(repo.createdAssignments) != 1 || repo.createdAssignments[0].UserID != "u9" {
			t.Errorf("unexpected assignments: %+v", repo.createdAssignments)
		}
		if len(audit.actions) != 1 {
			t.Errorf("expected one audit action, got %v", audit.actions)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		svc := NewProjectService(&projectRepoStub{}, &stageReaderStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		input := validProjectInput()
		input.Name = "  "
		input.DueDate = "2023-12-31"
		input.Type = "eternal"

		_, err := svc.CreateProject(context.Background(), CreateProjectParams{Principal: admin, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "due_date", "type"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestProjectService_UpdateProject(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}

	repo := &projectRepoStub{projects: map[string]persistence.Project{
		"p1": {ID: "p1", Name: "Portal", StartDate: "2024-01-01", DueDate: "2024-06-30",
			Status: persistence.ProjectStatusActive, Type: persistence.ProjectTypeShort},
	}}
	svc := NewProjectService(repo, &stageReaderStub{}, nil, sequentialIDs(), fixedNow(t), nil)

	input := validProjectInput()
	input.Status = persistence.ProjectStatusFinished

	detail, err := svc.UpdateProject(context.Background(), UpdateProjectParams{
		Principal: admin, ProjectID: "p1", Input: input,
	})
	if err != nil {
		t.Fatalf("UpdateProject: %v", err)
	}
	if detail.Status != persistence.ProjectStatusFinished {
		t.Errorf("expected finished status, got %s", detail.Status)
	}

	t.Run("unknown project yields ErrNotFound", func(t *testing.T) {
		_, err := svc.UpdateProject(context.Background(), UpdateProjectParams{
			Principal: admin, ProjectID: "missing", Input: validProjectInput(),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestProjectService_DeleteProject(t *testing.T) {
	t.Run("administrators only", func(t *testing.T) {
		svc := NewProjectService(&projectRepoStub{}, &stageReaderStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		err := svc.DeleteProject(context.Background(), DeleteProjectParams{
			Principal: Principal{UserID: "u1", Role: persistence.RoleSupervisor},
			ProjectID: "p1",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("removes the project", func(t *testing.T) {
		repo := &projectRepoStub{projects: map[string]persistence.Project{
			"p1": {ID: "p1", Name: "Portal"},
		}}
		svc := NewProjectService(repo, &stageReaderStub{}, &recorderStub{}, sequentialIDs(), fixedNow(t), nil)

		err := svc.DeleteProject(context.Background(), DeleteProjectParams{
			Principal: Principal{UserID: "u1", Role: persistence.RoleAdmin},
			ProjectID: "p1",
		})
		if err != nil {
			t.Fatalf("DeleteProject: %v", err)
		}
		if repo.deletedID != "p1" {
			t.Errorf("expected p1 deleted, got %q", repo.deletedID)
		}
	})
}
