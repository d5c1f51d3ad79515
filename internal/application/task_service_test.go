package application

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type taskRepoStub struct {
	tasks map[string]persistence.Task

	deletedID string
}

func (r *taskRepoStub) CreateTask(ctx context.Context, task persistence.Task) error {
	if r.tasks == nil {
		r.tasks = make(map[string]persistence.Task)
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *taskRepoStub) GetTask(ctx context.Context, id string) (persistence.Task, error) {
	task, ok := r.tasks[id]
	if !ok {
		return persistence.Task{}, persistence.ErrNotFound
	}
	return task, nil
}

func (r *taskRepoStub) ListTasksForProject(ctx context.Context, projectID string) ([]persistence.Task, error) {
	var out []persistence.Task
	for _, task := range r.tasks {
		out = append(out, task)
	}
	return out, nil
}

func (r *taskRepoStub) UpdateTask(ctx context.Context, task persistence.Task) error {
	if _, ok := r.tasks[task.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.tasks[task.ID] = task
	return nil
}

func (r *taskRepoStub) DeleteTask(ctx context.Context, id string) error {
	if _, ok := r.tasks[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deletedID = id
	delete(r.tasks, id)
	return nil
}

func TestTaskService_CreateTask(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}
	stages := &assignmentStageReaderStub{stages: map[string]persistence.Stage{
		"s1": {ID: "s1", ProjectID: "p1", Name: "Diseño"},
	}}

	t.Run("persists a task under the stage", func(t *testing.T) {
		repo := &taskRepoStub{}
		svc := NewTaskService(repo, stages, sequentialIDs(), fixedNow(t), nil)

		task, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: admin,
			StageID:   "s1",
			Input:     TaskInput{Name: "Wireframes", EstimatedHours: 2, StartDate: "2024-01-08", EndDate: "2024-01-09"},
		})
		if err != nil {
			t.Fatalf("CreateTask: %v", err)
		}
		if task.StageID != "s1" || task.Status != persistence.StageStatusPending {
			t.Errorf("unexpected task: %+v", task)
		}
		if len(repo.tasks) != 1 {
			t.Errorf("expected one persisted task, got %d", len(repo.tasks))
		}
	})

	t.Run("unknown stage yields ErrNotFound", func(t *testing.T) {
		svc := NewTaskService(&taskRepoStub{}, stages, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: admin, StageID: "missing", Input: TaskInput{Name: "Wireframes"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		svc := NewTaskService(&taskRepoStub{}, stages, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateTask(context.Background(), CreateTaskParams{
			Principal: admin,
			StageID:   "s1",
			Input: TaskInput{
				Name:      strings.Repeat("x", 101),
				StartDate: "2024-01-09",
				EndDate:   "2024-01-08",
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "end_date"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestTaskService_UpdateTask(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}
	stages := &assignmentStageReaderStub{}

	repo := &taskRepoStub{tasks: map[string]persistence.Task{
		"t1": {ID: "t1", StageID: "s1", Name: "Wireframes", Status: persistence.StageStatusPending},
	}}
	svc := NewTaskService(repo, stages, sequentialIDs(), fixedNow(t), nil)

	task, err := svc.UpdateTask(context.Background(), UpdateTaskParams{
		Principal: admin,
		TaskID:    "t1",
		Input:     TaskInput{Name: "Wireframes v2", Status: persistence.StageStatusFinished},
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.Name != "Wireframes v2" || task.Status != persistence.StageStatusFinished {
		t.Errorf("unexpected task: %+v", task)
	}

	t.Run("technicians may not edit", func(t *testing.T) {
		_, err := svc.UpdateTask(context.Background(), UpdateTaskParams{
			Principal: Principal{UserID: "u9", Role: persistence.RoleTechnician},
			TaskID:    "t1",
			Input:     TaskInput{Name: "Wireframes"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestTaskService_DeleteTask(t *testing.T) {
	repo := &taskRepoStub{tasks: map[string]persistence.Task{
		"t1": {ID: "t1", StageID: "s1", Name: "Wireframes"},
	}}
	svc := NewTaskService(repo, &assignmentStageReaderStub{}, sequentialIDs(), fixedNow(t), nil)

	err := svc.DeleteTask(context.Background(), DeleteTaskParams{
		Principal: Principal{UserID: "u1", Role: persistence.RoleSupervisor},
		TaskID:    "t1",
	})
	if err != nil {
		t.Fatalf("DeleteTask: %v", err)
	}
	if repo.deletedID != "t1" {
		t.Errorf("expected t1 deleted, got %q", repo.deletedID)
	}
}
