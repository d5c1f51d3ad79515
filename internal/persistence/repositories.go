package persistence

import (
	"context"
	"time"
)

// ProjectRepository exposes storage operations for projects.
type ProjectRepository interface {
	// CreateProjectGraph persists a project together with its stages and any
	// initial assignments in a single transaction.
	CreateProjectGraph(ctx context.Context, project Project, stages []Stage, assignments []Assignment) error
	GetProject(ctx context.Context, id string) (Project, error)
	ListProjects(ctx context.Context) ([]Project, error)
	UpdateProject(ctx context.Context, project Project) error
	// DeleteProjectCascade removes the project and every dependent record:
	// comments, time logs, assignments, tasks, and stages.
	DeleteProjectCascade(ctx context.Context, id string) error
}

// StageRepository exposes storage operations for stages.
type StageRepository interface {
	CreateStage(ctx context.Context, stage Stage) error
	GetStage(ctx context.Context, id string) (Stage, error)
	GetStageDetail(ctx context.Context, id string) (StageDetail, error)
	ListStagesForProject(ctx context.Context, projectID string) ([]StageDetail, error)
	ListStagesWithHours(ctx context.Context, projectID string) ([]StageWithHours, error)
	UpdateStage(ctx context.Context, stage Stage) error
	// DeleteStageCascade removes the stage after its assignment, comments, and
	// time logs.
	DeleteStageCascade(ctx context.Context, id string) error
	// ListEligibleStages returns pending stages with estimated hours at or
	// below maxHours and no current assignment.
	ListEligibleStages(ctx context.Context, maxHours int) ([]EligibleStage, error)
	// ListShortStages returns pending stages with estimated hours at or below
	// maxHours regardless of assignment state.
	ListShortStages(ctx context.Context, maxHours int) ([]ShortStage, error)
}

// AssignmentRepository exposes storage operations for technician assignments.
type AssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment Assignment) error
	GetAssignment(ctx context.Context, id string) (Assignment, error)
	GetAssignmentForStage(ctx context.Context, stageID string) (AssignmentDetail, error)
	ListAssignments(ctx context.Context) ([]AssignmentDetail, error)
	UpdateAssignmentUser(ctx context.Context, id, userID string, updatedAt time.Time) error
	// ListAssignmentLoads returns the availability query rows: every
	// assignment joined with its stage, excluding finished stages.
	ListAssignmentLoads(ctx context.Context) ([]AssignmentLoad, error)
}

// UserRepository exposes storage operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
	GetUserByUsername(ctx context.Context, username string) (User, error)
	ListTechnicians(ctx context.Context) ([]User, error)
	ListTechnicianStages(ctx context.Context, userID string) ([]TechnicianStage, error)
	ListTechnicianTasks(ctx context.Context, userID string) ([]TechnicianTask, error)
}

// CommentRepository exposes storage operations for comments.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment Comment) error
	ListCommentsForStage(ctx context.Context, stageID string) ([]Comment, error)
	// ListProjectLog merges bitácora entries and comments for a project,
	// including project-general comments with no stage.
	ListProjectLog(ctx context.Context, projectID string) ([]ProjectLogEntry, error)
	ListDelayReasons(ctx context.Context, filter DelayReasonFilter) ([]DelayReason, error)
}

// TimeLogRepository exposes storage operations for timer records.
type TimeLogRepository interface {
	CreateTimeLog(ctx context.Context, log TimeLog) error
	// LatestOpenLog returns the newest record without an end time for the
	// user and stage, or ErrNotFound.
	LatestOpenLog(ctx context.Context, userID, stageID string) (TimeLog, error)
	CloseTimeLog(ctx context.Context, id, endedAt string, hoursWorked float64) error
	SumHours(ctx context.Context, stageID, userID string) (float64, error)
	ListHistoryForUser(ctx context.Context, userID string) ([]TimeLogHistoryEntry, error)
}

// AuditRepository exposes storage operations for the bitácora.
type AuditRepository interface {
	CreateEntry(ctx context.Context, entry AuditEntry) error
	ListEntries(ctx context.Context) ([]AuditRecord, error)
}

// TaskRepository exposes storage operations for stage tasks.
type TaskRepository interface {
	CreateTask(ctx context.Context, task Task) error
	GetTask(ctx context.Context, id string) (Task, error)
	ListTasksForProject(ctx context.Context, projectID string) ([]Task, error)
	UpdateTask(ctx context.Context, task Task) error
	DeleteTask(ctx context.Context, id string) error
}

// SessionRepository exposes storage operations for authentication sessions.
type SessionRepository interface {
	CreateSession(ctx context.Context, session Session) (Session, error)
	GetSession(ctx context.Context, token string) (Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// ReportingRepository exposes the read-only aggregate queries behind
// statistics, dashboard alerts, and schedule views.
type ReportingRepository interface {
	Summary(ctx context.Context) (StatisticsSummary, error)
	ListStageHours(ctx context.Context, filter StageHoursFilter) ([]StageHours, error)
	ListProjectsFinishedOnTime(ctx context.Context) ([]string, error)
	ListOverrunActiveStages(ctx context.Context) ([]AlertStage, error)
	ListUnassignedStages(ctx context.Context) ([]AlertStage, error)
	// ListAssignmentsOnDate returns schedule rows whose stage window contains
	// the given calendar date.
	ListAssignmentsOnDate(ctx context.Context, date string) ([]ScheduleAssignment, error)
	// ListAssignmentSpans returns every schedule row regardless of date.
	ListAssignmentSpans(ctx context.Context) ([]ScheduleAssignment, error)
	ListProjects(ctx context.Context) ([]Project, error)
	ListProjectSpans(ctx context.Context) ([]ProjectSpan, error)
}
