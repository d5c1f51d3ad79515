package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type scheduleRepoStub struct {
	onDate   []persistence.ScheduleAssignment
	spans    []persistence.ScheduleAssignment
	projects []persistence.Project
	pspans   []persistence.ProjectSpan
}

func (r *scheduleRepoStub) ListAssignmentsOnDate(ctx context.Context, date string) ([]persistence.ScheduleAssignment, error) {
	return r.onDate, nil
}

func (r *scheduleRepoStub) ListAssignmentSpans(ctx context.Context) ([]persistence.ScheduleAssignment, error) {
	return r.spans, nil
}

func (r *scheduleRepoStub) ListProjects(ctx context.Context) ([]persistence.Project, error) {
	return r.projects, nil
}

func (r *scheduleRepoStub) ListProjectSpans(ctx context.Context) ([]persistence.ProjectSpan, error) {
	return r.pspans, nil
}

func TestScheduleService_Day(t *testing.T) {
	repo := &scheduleRepoStub{onDate: []persistence.ScheduleAssignment{
		{Username: "ana", ProjectName: "Portal", StageName: "Diseño", StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-20")},
	}}
	svc := NewScheduleService(repo, fixedNow(t), nil)

	day, err := svc.Day(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Day: %v", err)
	}

	if len(day.Rows) != 11 {
		t.Fatalf("expected 11 hour rows, got %d", len(day.Rows))
	}
	if day.Rows[0].Time != "08:00" || day.Rows[10].Time != "18:00" {
		t.Errorf("unexpected hour range: %s..%s", day.Rows[0].Time, day.Rows[10].Time)
	}

	for _, row := range day.Rows {
		if len(row.Blocks) != 1 {
			t.Fatalf("expected one block per technician, got %d at %s", len(row.Blocks), row.Time)
		}
		block := row.Blocks[0]
		if row.Time == "13:00" {
			if block.Class != "lunch-block" {
				t.Errorf("13:00 should be lunch, got %+v", block)
			}
			continue
		}
		if block.Project != "Portal" || block.Color == "" {
			t.Errorf("unexpected block at %s: %+v", row.Time, block)
		}
	}

	if len(day.Legend) != 1 || day.Legend[0].Name != "Portal" {
		t.Errorf("unexpected legend: %+v", day.Legend)
	}

	t.Run("invalid date is a validation error", func(t *testing.T) {
		_, err := svc.Day(context.Background(), "15-01-2024")
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Errorf("expected ValidationError, got %v", err)
		}
	})
}

func TestScheduleService_Week(t *testing.T) {
	repo := &scheduleRepoStub{spans: []persistence.ScheduleAssignment{
		{Username: "ana", ProjectName: "Portal", StartDate: strPtr("2024-01-15"), EndDate: strPtr("2024-01-16")},
		{Username: "ana", ProjectName: "Tienda", StartDate: strPtr("2024-01-17"), EndDate: strPtr("2024-01-19")},
	}}
	svc := NewScheduleService(repo, fixedNow(t), nil)

	// 2024-01-17 is a Wednesday; the week runs Mon 15 through Fri 19.
	week, err := svc.Week(context.Background(), "2024-01-17")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}

	wantDays := []string{"2024-01-15", "2024-01-16", "2024-01-17", "2024-01-18", "2024-01-19"}
	if len(week.Days) != len(wantDays) {
		t.Fatalf("expected 5 days, got %v", week.Days)
	}
	for i, d := range wantDays {
		if week.Days[i] != d {
			t.Errorf("day %d = %s, want %s", i, week.Days[i], d)
		}
	}

	ana := week.Summary["ana"]
	if len(ana["2024-01-15"]) != 1 || ana["2024-01-15"][0] != "Portal" {
		t.Errorf("Monday should be Portal, got %v", ana["2024-01-15"])
	}
	if len(ana["2024-01-19"]) != 1 || ana["2024-01-19"][0] != "Tienda" {
		t.Errorf("Friday should be Tienda, got %v", ana["2024-01-19"])
	}

	t.Run("sunday base still lands on the same monday", func(t *testing.T) {
		week, err := svc.Week(context.Background(), "2024-01-21")
		if err != nil {
			t.Fatalf("Week: %v", err)
		}
		if week.Days[0] != "2024-01-15" {
			t.Errorf("expected Monday 2024-01-15, got %s", week.Days[0])
		}
	})
}

func TestScheduleService_Month(t *testing.T) {
	repo := &scheduleRepoStub{
		projects: []persistence.Project{
			{ID: "p1", Name: "Portal", Status: persistence.ProjectStatusActive},
			{ID: "p2", Name: "Tienda", Status: persistence.ProjectStatusFinished},
		},
		pspans: []persistence.ProjectSpan{
			{ProjectID: "p1", StartDate: strPtr("2024-01-01"), EndDate: strPtr("2024-01-07")},
		},
	}
	svc := NewScheduleService(repo, fixedNow(t), nil)

	month, err := svc.Month(context.Background(), "2024-01-15")
	if err != nil {
		t.Fatalf("Month: %v", err)
	}
	if len(month.Weeks) == 0 || month.Weeks[0] != "2024-01-01" {
		t.Fatalf("expected weeks starting 2024-01-01, got %v", month.Weeks)
	}

	var portal, tienda MonthProject
	for _, p := range month.Projects {
		switch p.Name {
		case "Portal":
			portal = p
		case "Tienda":
			tienda = p
		}
	}

	if portal.WeeklyStatus["week1"] != SlotInProgress {
		t.Errorf("Portal week1 = %s, want %s", portal.WeeklyStatus["week1"], SlotInProgress)
	}
	// Week 2 (Jan 8-14) has no stage and already passed on Jan 15.
	if portal.WeeklyStatus["week2"] != SlotDelayed {
		t.Errorf("Portal week2 = %s, want %s", portal.WeeklyStatus["week2"], SlotDelayed)
	}
	for week, status := range tienda.WeeklyStatus {
		if status != SlotFinished {
			t.Errorf("Tienda %s = %s, want %s", week, status, SlotFinished)
		}
	}
}
