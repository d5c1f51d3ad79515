package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/project-tracker/internal/persistence"
	"github.com/example/project-tracker/internal/testfixtures"
)

func seedUser(t *testing.T, h *testfixtures.SQLiteHarness, opts ...testfixtures.UserOption) persistence.User {
	t.Helper()
	user := testfixtures.NewUserFixture(opts...)
	if err := h.Users.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("seed user %s: %v", user.Username, err)
	}
	return user
}

func seedProjectWithStage(t *testing.T, h *testfixtures.SQLiteHarness, opts ...testfixtures.StageOption) (persistence.Project, persistence.Stage) {
	t.Helper()
	project := testfixtures.NewProjectFixture()
	stage := testfixtures.NewStageFixture(project.ID, opts...)
	err := h.Projects.CreateProjectGraph(context.Background(), project, []persistence.Stage{stage}, nil)
	if err != nil {
		t.Fatalf("seed project %s: %v", project.ID, err)
	}
	return project, stage
}

func datePtr(date string) *string {
	return &date
}

func TestUserRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()

	ana := seedUser(t, h, testfixtures.WithUsername("ana"), testfixtures.WithRole(persistence.RoleTechnician))

	t.Run("round trip by id and username", func(t *testing.T) {
		got, err := h.Users.GetUser(ctx, ana.ID)
		if err != nil {
			t.Fatalf("GetUser: %v", err)
		}
		if got.Username != "ana" || got.Role != persistence.RoleTechnician {
			t.Errorf("unexpected user: %+v", got)
		}

		byName, err := h.Users.GetUserByUsername(ctx, "  ANA ")
		if err != nil {
			t.Fatalf("GetUserByUsername: %v", err)
		}
		if byName.ID != ana.ID {
			t.Errorf("expected %s, got %s", ana.ID, byName.ID)
		}
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		dup := testfixtures.NewUserFixture(testfixtures.WithUsername("ana"))
		if err := h.Users.CreateUser(ctx, dup); !errors.Is(err, persistence.ErrDuplicate) {
			t.Errorf("expected ErrDuplicate, got %v", err)
		}
	})

	t.Run("unknown id yields ErrNotFound", func(t *testing.T) {
		if _, err := h.Users.GetUser(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("technician listing excludes other roles", func(t *testing.T) {
		seedUser(t, h, testfixtures.WithRole(persistence.RoleAdmin))

		technicians, err := h.Users.ListTechnicians(ctx)
		if err != nil {
			t.Fatalf("ListTechnicians: %v", err)
		}
		for _, u := range technicians {
			if u.Role != persistence.RoleTechnician {
				t.Errorf("non-technician in listing: %+v", u)
			}
		}
	})
}

func TestProjectRepositoryCascade(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	tech := seedUser(t, h, testfixtures.WithRole(persistence.RoleTechnician))
	project, stage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(3))

	if err := h.Assignments.CreateAssignment(ctx, persistence.Assignment{
		ID: "a1", StageID: stage.ID, UserID: tech.ID, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	stageID := stage.ID
	if err := h.Comments.CreateComment(ctx, persistence.Comment{
		ID: "c1", ProjectID: project.ID, StageID: &stageID, UserID: tech.ID,
		Kind: persistence.CommentKindGeneral, Body: "arrancamos", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateComment: %v", err)
	}

	if err := h.Projects.DeleteProjectCascade(ctx, project.ID); err != nil {
		t.Fatalf("DeleteProjectCascade: %v", err)
	}

	if _, err := h.Projects.GetProject(ctx, project.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("project should be gone, got %v", err)
	}
	if _, err := h.Stages.GetStage(ctx, stage.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("stage should be gone, got %v", err)
	}
	if _, err := h.Assignments.GetAssignment(ctx, "a1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Errorf("assignment should be gone, got %v", err)
	}

	t.Run("deleting a missing project yields ErrNotFound", func(t *testing.T) {
		if err := h.Projects.DeleteProjectCascade(ctx, project.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStageRepositoryEligibility(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	tech := seedUser(t, h, testfixtures.WithRole(persistence.RoleTechnician))
	freeProject, freeStage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(2))
	seedProjectWithStage(t, h, testfixtures.WithStageEstimate(8))
	_, assignedStage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(3))

	if err := h.Assignments.CreateAssignment(ctx, persistence.Assignment{
		ID: "a1", StageID: assignedStage.ID, UserID: tech.ID, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	t.Run("eligible excludes oversize and assigned stages", func(t *testing.T) {
		eligible, err := h.Stages.ListEligibleStages(ctx, 3)
		if err != nil {
			t.Fatalf("ListEligibleStages: %v", err)
		}
		if len(eligible) != 1 || eligible[0].StageID != freeStage.ID {
			t.Fatalf("expected only %s eligible, got %+v", freeStage.ID, eligible)
		}
		if eligible[0].ProjectName != freeProject.Name {
			t.Errorf("expected joined project name %q, got %q", freeProject.Name, eligible[0].ProjectName)
		}
	})

	t.Run("short listing keeps assigned stages", func(t *testing.T) {
		short, err := h.Stages.ListShortStages(ctx, 3)
		if err != nil {
			t.Fatalf("ListShortStages: %v", err)
		}
		if len(short) != 2 {
			t.Fatalf("expected %s and %s, got %+v", freeStage.ID, assignedStage.ID, short)
		}
	})

	t.Run("zero-hour stages stay listed", func(t *testing.T) {
		_, zeroStage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(0))

		eligible, err := h.Stages.ListEligibleStages(ctx, 3)
		if err != nil {
			t.Fatalf("ListEligibleStages: %v", err)
		}
		var found bool
		for _, e := range eligible {
			if e.StageID == zeroStage.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("zero-hour stage missing from eligible listing: %+v", eligible)
		}

		short, err := h.Stages.ListShortStages(ctx, 3)
		if err != nil {
			t.Fatalf("ListShortStages: %v", err)
		}
		found = false
		for _, s := range short {
			if s.StageID == zeroStage.ID {
				found = true
			}
		}
		if !found {
			t.Errorf("zero-hour stage missing from short listing: %+v", short)
		}
	})

	t.Run("cancelled stages still contribute load", func(t *testing.T) {
		stage, err := h.Stages.GetStage(ctx, assignedStage.ID)
		if err != nil {
			t.Fatalf("GetStage: %v", err)
		}
		stage.Status = persistence.StageStatusCancelled
		stage.UpdatedAt = now
		if err := h.Stages.UpdateStage(ctx, stage); err != nil {
			t.Fatalf("UpdateStage: %v", err)
		}

		loads, err := h.Assignments.ListAssignmentLoads(ctx)
		if err != nil {
			t.Fatalf("ListAssignmentLoads: %v", err)
		}
		if len(loads) != 1 {
			t.Fatalf("cancelled stage should keep its technician busy, got %+v", loads)
		}
		if loads[0].UserID != tech.ID || loads[0].EstimatedHours != 3 {
			t.Errorf("unexpected load row: %+v", loads[0])
		}
	})

	t.Run("assignment loads skip finished stages", func(t *testing.T) {
		stage, err := h.Stages.GetStage(ctx, assignedStage.ID)
		if err != nil {
			t.Fatalf("GetStage: %v", err)
		}
		stage.Status = persistence.StageStatusFinished
		stage.UpdatedAt = now
		if err := h.Stages.UpdateStage(ctx, stage); err != nil {
			t.Fatalf("UpdateStage: %v", err)
		}

		loads, err := h.Assignments.ListAssignmentLoads(ctx)
		if err != nil {
			t.Fatalf("ListAssignmentLoads: %v", err)
		}
		if len(loads) != 0 {
			t.Errorf("finished stage should not contribute load, got %+v", loads)
		}
	})
}

func TestTimeLogRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()

	tech := seedUser(t, h, testfixtures.WithRole(persistence.RoleTechnician))
	project, stage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(5))

	if err := h.TimeLogs.CreateTimeLog(ctx, persistence.TimeLog{
		ID: "t1", UserID: tech.ID, StageID: stage.ID,
		LogDate: "2024-01-02", StartedAt: "09:00:00", CreatedAt: now,
	}); err != nil {
		t.Fatalf("CreateTimeLog: %v", err)
	}

	t.Run("open log is found until closed", func(t *testing.T) {
		open, err := h.TimeLogs.LatestOpenLog(ctx, tech.ID, stage.ID)
		if err != nil {
			t.Fatalf("LatestOpenLog: %v", err)
		}
		if open.ID != "t1" || open.EndedAt != nil {
			t.Fatalf("unexpected open log: %+v", open)
		}

		if err := h.TimeLogs.CloseTimeLog(ctx, "t1", "12:30:00", 3.5); err != nil {
			t.Fatalf("CloseTimeLog: %v", err)
		}

		if _, err := h.TimeLogs.LatestOpenLog(ctx, tech.ID, stage.ID); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected ErrNotFound after close, got %v", err)
		}
	})

	t.Run("closing twice yields ErrNotFound", func(t *testing.T) {
		if err := h.TimeLogs.CloseTimeLog(ctx, "t1", "13:00:00", 4); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("sum counts only closed logs", func(t *testing.T) {
		if err := h.TimeLogs.CreateTimeLog(ctx, persistence.TimeLog{
			ID: "t2", UserID: tech.ID, StageID: stage.ID,
			LogDate: "2024-01-03", StartedAt: "14:00:00", CreatedAt: now,
		}); err != nil {
			t.Fatalf("CreateTimeLog: %v", err)
		}

		total, err := h.TimeLogs.SumHours(ctx, stage.ID, tech.ID)
		if err != nil {
			t.Fatalf("SumHours: %v", err)
		}
		if total != 3.5 {
			t.Errorf("expected 3.5 hours, got %v", total)
		}
	})

	t.Run("history joins stage and project names", func(t *testing.T) {
		history, err := h.TimeLogs.ListHistoryForUser(ctx, tech.ID)
		if err != nil {
			t.Fatalf("ListHistoryForUser: %v", err)
		}
		if len(history) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(history))
		}
		if history[0].ProjectName != project.Name {
			t.Errorf("expected joined project name %q, got %q", project.Name, history[0].ProjectName)
		}
	})
}

func TestSessionRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	clock := testfixtures.NewClock(time.Time{})

	tech := seedUser(t, h, testfixtures.WithRole(persistence.RoleTechnician))
	now := clock.Now()

	created, err := h.Sessions.CreateSession(ctx, persistence.Session{
		ID: "sess1", UserID: tech.ID, Token: "tok-1",
		ExpiresAt: now.Add(time.Hour), CreatedAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if created.Token != "tok-1" {
		t.Fatalf("unexpected session: %+v", created)
	}

	t.Run("lookup by token", func(t *testing.T) {
		got, err := h.Sessions.GetSession(ctx, "tok-1")
		if err != nil {
			t.Fatalf("GetSession: %v", err)
		}
		if got.UserID != tech.ID || got.RevokedAt != nil {
			t.Errorf("unexpected session: %+v", got)
		}
	})

	t.Run("revoke marks the session", func(t *testing.T) {
		revoked, err := h.Sessions.RevokeSession(ctx, "tok-1", clock.Advance(10*time.Minute))
		if err != nil {
			t.Fatalf("RevokeSession: %v", err)
		}
		if revoked.RevokedAt == nil {
			t.Fatal("RevokedAt should be set")
		}

		if _, err := h.Sessions.RevokeSession(ctx, "tok-1", clock.Now()); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("second revoke should yield ErrNotFound, got %v", err)
		}
	})

	t.Run("expired sessions are purged", func(t *testing.T) {
		if _, err := h.Sessions.CreateSession(ctx, persistence.Session{
			ID: "sess2", UserID: tech.ID, Token: "tok-2",
			ExpiresAt: now.Add(-time.Minute), CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			t.Fatalf("CreateSession: %v", err)
		}

		if err := h.Sessions.DeleteExpiredSessions(ctx, clock.Now()); err != nil {
			t.Fatalf("DeleteExpiredSessions: %v", err)
		}
		if _, err := h.Sessions.GetSession(ctx, "tok-2"); !errors.Is(err, persistence.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestReportingRepository(t *testing.T) {
	h := testfixtures.NewSQLiteHarness(t)
	ctx := context.Background()
	now := testfixtures.ReferenceTime()
	window := testfixtures.WithStageDates(datePtr("2024-01-01"), datePtr("2024-01-03"))

	tech := seedUser(t, h, testfixtures.WithRole(persistence.RoleTechnician))
	_, assignedStage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(2), window)
	onTimeProject, _ := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(2), window)
	_, idleStage := seedProjectWithStage(t, h, testfixtures.WithStageEstimate(2), window)

	if err := h.Assignments.CreateAssignment(ctx, persistence.Assignment{
		ID: "a1", StageID: assignedStage.ID, UserID: tech.ID, CreatedAt: now, UpdatedAt: now,
	}); err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	t.Run("summary counts projects and stages", func(t *testing.T) {
		summary, err := h.Reporting.Summary(ctx)
		if err != nil {
			t.Fatalf("Summary: %v", err)
		}
		if summary.TotalProjects != 3 || summary.TotalStages != 3 {
			t.Errorf("unexpected summary: %+v", summary)
		}
	})

	t.Run("unassigned alert skips assigned stages", func(t *testing.T) {
		alerts, err := h.Reporting.ListUnassignedStages(ctx)
		if err != nil {
			t.Fatalf("ListUnassignedStages: %v", err)
		}
		if len(alerts) != 2 {
			t.Fatalf("expected 2 alerts, got %+v", alerts)
		}
	})

	t.Run("active stages without a technician stay alerted", func(t *testing.T) {
		stage, err := h.Stages.GetStage(ctx, idleStage.ID)
		if err != nil {
			t.Fatalf("GetStage: %v", err)
		}
		stage.Status = persistence.StageStatusActive
		stage.UpdatedAt = now
		if err := h.Stages.UpdateStage(ctx, stage); err != nil {
			t.Fatalf("UpdateStage: %v", err)
		}

		alerts, err := h.Reporting.ListUnassignedStages(ctx)
		if err != nil {
			t.Fatalf("ListUnassignedStages: %v", err)
		}
		var found bool
		for _, a := range alerts {
			if a.StageName == idleStage.Name {
				found = true
			}
		}
		if len(alerts) != 2 || !found {
			t.Errorf("active unassigned stage should stay alerted, got %+v", alerts)
		}
	})

	t.Run("finished projects within deadline are listed", func(t *testing.T) {
		project, err := h.Projects.GetProject(ctx, onTimeProject.ID)
		if err != nil {
			t.Fatalf("GetProject: %v", err)
		}
		project.Status = persistence.ProjectStatusFinished
		project.UpdatedAt = now
		if err := h.Projects.UpdateProject(ctx, project); err != nil {
			t.Fatalf("UpdateProject: %v", err)
		}

		names, err := h.Reporting.ListProjectsFinishedOnTime(ctx)
		if err != nil {
			t.Fatalf("ListProjectsFinishedOnTime: %v", err)
		}
		if len(names) != 1 || names[0] != onTimeProject.Name {
			t.Errorf("expected %q listed, got %+v", onTimeProject.Name, names)
		}
	})

	t.Run("schedule rows honor the date window", func(t *testing.T) {
		inWindow, err := h.Reporting.ListAssignmentsOnDate(ctx, "2024-01-02")
		if err != nil {
			t.Fatalf("ListAssignmentsOnDate: %v", err)
		}
		if len(inWindow) != 1 || inWindow[0].Username != tech.Username {
			t.Fatalf("expected %s's row, got %+v", tech.Username, inWindow)
		}

		outOfWindow, err := h.Reporting.ListAssignmentsOnDate(ctx, "2024-02-01")
		if err != nil {
			t.Fatalf("ListAssignmentsOnDate: %v", err)
		}
		if len(outOfWindow) != 0 {
			t.Errorf("expected no rows, got %+v", outOfWindow)
		}
	})

	t.Run("stage hours filter by technician", func(t *testing.T) {
		rows, err := h.Reporting.ListStageHours(ctx, persistence.StageHoursFilter{TechnicianID: tech.ID})
		if err != nil {
			t.Fatalf("ListStageHours: %v", err)
		}
		if len(rows) != 1 || rows[0].StageID != assignedStage.ID {
			t.Fatalf("expected only %s, got %+v", assignedStage.ID, rows)
		}
	})
}
