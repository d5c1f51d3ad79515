package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/availability"
	"github.com/example/project-tracker/internal/persistence"
)

type suggestionRepoStub struct {
	loads    []persistence.AssignmentLoad
	loadsErr error

	eligible    []persistence.EligibleStage
	eligibleMax int
	eligibleErr error

	short    []persistence.ShortStage
	shortMax int
	shortErr error
}

func (r *suggestionRepoStub) ListAssignmentLoads(ctx context.Context) ([]persistence.AssignmentLoad, error) {
	if r.loadsErr != nil {
		return nil, r.loadsErr
	}
	return r.loads, nil
}

func (r *suggestionRepoStub) ListEligibleStages(ctx context.Context, maxHours int) ([]persistence.EligibleStage, error) {
	r.eligibleMax = maxHours
	if r.eligibleErr != nil {
		return nil, r.eligibleErr
	}
	return r.eligible, nil
}

func (r *suggestionRepoStub) ListShortStages(ctx context.Context, maxHours int) ([]persistence.ShortStage, error) {
	r.shortMax = maxHours
	if r.shortErr != nil {
		return nil, r.shortErr
	}
	return r.short, nil
}

func strPtr(s string) *string { return &s }

func TestSuggestionService_Suggestions(t *testing.T) {
	t.Run("matches free hours with short stages", func(t *testing.T) {
		repo := &suggestionRepoStub{
			loads: []persistence.AssignmentLoad{{
				UserID:         "u1",
				Username:       "ana",
				StageStartDate: strPtr("2024-01-01"),
				StageEndDate:   strPtr("2024-01-02"),
				EstimatedHours: 5,
			}},
			eligible: []persistence.EligibleStage{{
				StageID:        "s9",
				ProjectID:      "p2",
				StageName:      "Revisión",
				ProjectName:    "Portal",
				EstimatedHours: 3,
				StartDate:      strPtr("2024-01-01"),
				EndDate:        strPtr("2024-01-10"),
			}},
		}
		svc := NewSuggestionService(repo, nil)

		got, err := svc.Suggestions(context.Background())
		if err != nil {
			t.Fatalf("Suggestions: %v", err)
		}
		if repo.eligibleMax != availability.MatchThreshold {
			t.Errorf("eligible query used threshold %d, want %d", repo.eligibleMax, availability.MatchThreshold)
		}
		if len(got) != 1 {
			t.Fatalf("expected one suggestion, got %+v", got)
		}
		s := got[0]
		if s.TechnicianID != "u1" || s.Task.StageID != "s9" {
			t.Errorf("unexpected suggestion: %+v", s)
		}
		if s.Date.String() != "2024-01-01" {
			t.Errorf("expected earliest free day, got %s", s.Date)
		}
		if s.FreeHours != availability.DailyCapacity-5 {
			t.Errorf("expected %d free hours, got %d", availability.DailyCapacity-5, s.FreeHours)
		}
	})

	t.Run("rows with unusable dates are skipped", func(t *testing.T) {
		repo := &suggestionRepoStub{
			loads: []persistence.AssignmentLoad{
				{UserID: "u1", Username: "ana", StageStartDate: nil, EstimatedHours: 2},
				{UserID: "u2", Username: "eva", StageStartDate: strPtr("not-a-date"), EstimatedHours: 2},
			},
			eligible: []persistence.EligibleStage{
				{StageID: "s1", StartDate: strPtr("2024-13-40"), EstimatedHours: 1},
			},
		}
		svc := NewSuggestionService(repo, nil)

		got, err := svc.Suggestions(context.Background())
		if err != nil {
			t.Fatalf("Suggestions: %v", err)
		}
		if len(got) != 0 {
			t.Errorf("expected no suggestions, got %+v", got)
		}
	})

	t.Run("missing candidate end date means single-day window", func(t *testing.T) {
		repo := &suggestionRepoStub{
			loads: []persistence.AssignmentLoad{{
				UserID: "u1", Username: "ana",
				StageStartDate: strPtr("2024-01-01"),
				StageEndDate:   strPtr("2024-01-02"),
				EstimatedHours: 5,
			}},
			eligible: []persistence.EligibleStage{{
				StageID: "s9", StageName: "Revisión", ProjectID: "p2",
				EstimatedHours: 2,
				StartDate:      strPtr("2024-01-02"),
			}},
		}
		svc := NewSuggestionService(repo, nil)

		got, err := svc.Suggestions(context.Background())
		if err != nil {
			t.Fatalf("Suggestions: %v", err)
		}
		if len(got) != 1 || got[0].Date.String() != "2024-01-02" {
			t.Fatalf("expected one suggestion on 2024-01-02, got %+v", got)
		}
	})

	t.Run("repository errors are mapped", func(t *testing.T) {
		repo := &suggestionRepoStub{loadsErr: persistence.ErrNotFound}
		svc := NewSuggestionService(repo, nil)

		if _, err := svc.Suggestions(context.Background()); !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestSuggestionService_ShortTasks(t *testing.T) {
	repo := &suggestionRepoStub{
		short: []persistence.ShortStage{{StageID: "s1", EstimatedHours: 2}},
	}
	svc := NewSuggestionService(repo, nil)

	got, err := svc.ShortTasks(context.Background())
	if err != nil {
		t.Fatalf("ShortTasks: %v", err)
	}
	if repo.shortMax != availability.ShortTaskThreshold {
		t.Errorf("short query used threshold %d, want %d", repo.shortMax, availability.ShortTaskThreshold)
	}
	if len(got) != 1 || got[0].StageID != "s1" {
		t.Errorf("unexpected result: %+v", got)
	}
}
