package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type stageRepoStub struct {
	stages map[string]persistence.Stage

	created   *persistence.Stage
	updated   *persistence.Stage
	deletedID string
}

func (r *stageRepoStub) CreateStage(ctx context.Context, stage persistence.Stage) error {
	if r.stages == nil {
		r.stages = make(map[string]persistence.Stage)
	}
	r.created = &stage
	r.stages[stage.ID] = stage
	return nil
}

func (r *stageRepoStub) GetStage(ctx context.Context, id string) (persistence.Stage, error) {
	stage, ok := r.stages[id]
	if !ok {
		return persistence.Stage{}, persistence.ErrNotFound
	}
	return stage, nil
}

func (r *stageRepoStub) GetStageDetail(ctx context.Context, id string) (persistence.StageDetail, error) {
	stage, ok := r.stages[id]
	if !ok {
		return persistence.StageDetail{}, persistence.ErrNotFound
	}
	return persistence.StageDetail{Stage: stage}, nil
}

func (r *stageRepoStub) ListStagesForProject(ctx context.Context, projectID string) ([]persistence.StageDetail, error) {
	var out []persistence.StageDetail
	for _, stage := range r.stages {
		if stage.ProjectID == projectID {
			out = append(out, persistence.StageDetail{Stage: stage})
		}
	}
	return out, nil
}

func (r *stageRepoStub) UpdateStage(ctx context.Context, stage persistence.Stage) error {
	if _, ok := r.stages[stage.ID]; !ok {
		return persistence.ErrNotFound
	}
	r.updated = &stage
	r.stages[stage.ID] = stage
	return nil
}

func (r *stageRepoStub) DeleteStageCascade(ctx context.Context, id string) error {
	if _, ok := r.stages[id]; !ok {
		return persistence.ErrNotFound
	}
	r.deletedID = id
	delete(r.stages, id)
	return nil
}

func TestStageService_CreateStage(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}

	t.Run("requires a managing role", func(t *testing.T) {
		svc := NewStageService(&stageRepoStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateStage(context.Background(), CreateStageParams{
			Principal: Principal{UserID: "u2", Role: persistence.RoleTechnician},
			ProjectID: "p1",
			Input:     StageInput{Name: "Diseño"},
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("defaults a blank status to pending and records the action", func(t *testing.T) {
		repo := &stageRepoStub{}
		audit := &recorderStub{}
		svc := NewStageService(repo, audit, sequentialIDs(), fixedNow(t), nil)

		detail, err := svc.CreateStage(context.Background(), CreateStageParams{
			Principal: admin,
			ProjectID: "p1",
			Input:     StageInput{Name: "  Diseño  ", EstimatedHours: 3},
		})
		if err != nil {
			t.Fatalf("CreateStage: %v", err)
		}
		if detail.Name != "Diseño" || detail.Status != persistence.StageStatusPending {
			t.Errorf("unexpected stage: %+v", detail.Stage)
		}
		if repo.created == nil || repo.created.ProjectID != "p1" {
			t.Errorf("unexpected persisted stage: %+v", repo.created)
		}
		if len(audit.actions) != 1 {
			t.Errorf("expected one audit action, got %v", audit.actions)
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		svc := NewStageService(&stageRepoStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		start := "2024-02-10"
		end := "2024-02-01"
		_, err := svc.CreateStage(context.Background(), CreateStageParams{
			Principal: admin,
			ProjectID: "p1",
			Input:     StageInput{Name: "", EstimatedHours: -1, StartDate: &start, EndDate: &end},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"name", "estimated_hours", "end_date"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})
}

func TestStageService_UpdateStage(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}

	repo := &stageRepoStub{stages: map[string]persistence.Stage{
		"s1": {ID: "s1", ProjectID: "p1", Name: "Diseño",
			Status: persistence.StageStatusPending, EstimatedHours: 3},
	}}
	svc := NewStageService(repo, &recorderStub{}, sequentialIDs(), fixedNow(t), nil)

	detail, err := svc.UpdateStage(context.Background(), UpdateStageParams{
		Principal: admin,
		StageID:   "s1",
		Input:     StageInput{Name: "Diseño", Status: persistence.StageStatusFinished, EstimatedHours: 5},
	})
	if err != nil {
		t.Fatalf("UpdateStage: %v", err)
	}
	if detail.Status != persistence.StageStatusFinished || detail.EstimatedHours != 5 {
		t.Errorf("unexpected stage: %+v", detail.Stage)
	}

	t.Run("keeps the stored status when the input omits one", func(t *testing.T) {
		detail, err := svc.UpdateStage(context.Background(), UpdateStageParams{
			Principal: admin,
			StageID:   "s1",
			Input:     StageInput{Name: "Diseño", EstimatedHours: 5},
		})
		if err != nil {
			t.Fatalf("UpdateStage: %v", err)
		}
		if detail.Status != persistence.StageStatusFinished {
			t.Errorf("expected status to carry over, got %s", detail.Status)
		}
	})

	t.Run("unknown stage yields ErrNotFound", func(t *testing.T) {
		_, err := svc.UpdateStage(context.Background(), UpdateStageParams{
			Principal: admin, StageID: "missing", Input: StageInput{Name: "Diseño"},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStageService_DeleteStage(t *testing.T) {
	repo := &stageRepoStub{stages: map[string]persistence.Stage{
		"s1": {ID: "s1", ProjectID: "p1", Name: "Diseño"},
	}}
	audit := &recorderStub{}
	svc := NewStageService(repo, audit, sequentialIDs(), fixedNow(t), nil)

	err := svc.DeleteStage(context.Background(), DeleteStageParams{
		Principal: Principal{UserID: "u1", Role: persistence.RoleSupervisor},
		StageID:   "s1",
	})
	if err != nil {
		t.Fatalf("DeleteStage: %v", err)
	}
	if repo.deletedID != "s1" {
		t.Errorf("expected s1 deleted, got %q", repo.deletedID)
	}
	if len(audit.actions) != 1 {
		t.Errorf("expected one audit action, got %v", audit.actions)
	}
}
