package persistence

import "time"

// Project statuses and types stored in the projects table.
const (
	ProjectStatusActive    = "active"
	ProjectStatusStopped   = "stopped"
	ProjectStatusFinished  = "finished"
	ProjectStatusCancelled = "cancelled"

	ProjectTypeLong     = "long"
	ProjectTypeShort    = "short"
	ProjectTypeFlexible = "flexible"
)

// Stage statuses stored in the stages table.
const (
	StageStatusPending   = "pending"
	StageStatusActive    = "active"
	StageStatusStopped   = "stopped"
	StageStatusFinished  = "finished"
	StageStatusCancelled = "cancelled"
)

// Comment kinds stored in the comments table.
const (
	CommentKindGeneral = "general"
	CommentKindDelay   = "delay"
)

// User roles stored in the users table.
const (
	RoleAdmin      = "admin"
	RoleTechnician = "technician"
	RoleSupervisor = "supervisor"
)

// Project represents a tracked client project.
type Project struct {
	ID        string
	Name      string
	Client    string
	StartDate string // YYYY-MM-DD
	DueDate   string // YYYY-MM-DD
	Status    string
	Type      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Stage represents a phase of a project with its own date range, effort
// estimate, and status. Calendar dates are stored as YYYY-MM-DD text and may
// be absent for stages created without planning data.
type Stage struct {
	ID             string
	ProjectID      string
	Name           string
	Status         string
	EstimatedHours int
	StartDate      *string
	EndDate        *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Assignment binds one technician to one stage. A stage carries at most one
// current assignment.
type Assignment struct {
	ID        string
	StageID   string
	UserID    string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// User represents a system account.
type User struct {
	ID           string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	Role         string
	Phone        string
	Email        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Comment is attached to a stage, or to the project at large when StageID is
// nil.
type Comment struct {
	ID        string
	ProjectID string
	StageID   *string
	UserID    string
	Kind      string
	Body      string
	CreatedAt time.Time
}

// TimeLog records a technician's timer interval against a stage. EndedAt and
// HoursWorked remain nil while the timer is running.
type TimeLog struct {
	ID          string
	UserID      string
	StageID     string
	LogDate     string // YYYY-MM-DD
	StartedAt   string // HH:MM:SS
	EndedAt     *string
	HoursWorked *float64
	CreatedAt   time.Time
}

// AuditEntry is one bitácora record: a textual action attributed to a user,
// optionally tied to a project.
type AuditEntry struct {
	ID         string
	UserID     string
	ProjectID  *string
	Action     string
	RecordedAt time.Time
}

// Task is a work item nested under a stage.
type Task struct {
	ID             string
	StageID        string
	Name           string
	StartDate      string
	EndDate        string
	EstimatedHours int
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Session represents an authentication session persisted for a user.
type Session struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	RevokedAt *time.Time
}

// --- Derived query rows ---

// AssignmentLoad is one row of the availability query: a technician's
// commitment from a non-finished assigned stage.
type AssignmentLoad struct {
	UserID         string
	Username       string
	StageStartDate *string
	StageEndDate   *string
	EstimatedHours int
}

// EligibleStage is one row of the eligible-stage query: pending, under the
// matching threshold, and without an assignment.
type EligibleStage struct {
	StageID        string
	ProjectID      string
	StageName      string
	ProjectName    string
	EstimatedHours int
	StartDate      *string
	EndDate        *string
}

// ShortStage is one row of the independent short-task listing: pending stages
// under the listing threshold regardless of assignment state.
type ShortStage struct {
	StageID        string
	ProjectID      string
	StageName      string
	ProjectName    string
	EstimatedHours int
	Status         string
}

// StageDetail is a stage joined with its assigned technician, when any.
type StageDetail struct {
	Stage
	AssigneeID   *string
	AssigneeName *string
}

// StageWithHours extends StageDetail with accumulated real hours.
type StageWithHours struct {
	StageDetail
	RealHours float64
}

// AssignmentDetail is an assignment joined with user, stage, and project
// names for listings.
type AssignmentDetail struct {
	ID          string
	UserID      string
	Username    string
	StageID     string
	StageName   string
	ProjectName string
}

// AuditRecord is an audit entry joined with the acting user's name.
type AuditRecord struct {
	ID         string
	Action     string
	RecordedAt time.Time
	Username   string
}

// ProjectLogEntry is one merged line of a project's history: either a
// bitácora action or a comment. StageID is nil for bitácora lines and for
// project-general comments.
type ProjectLogEntry struct {
	Body       string
	Author     string
	StageID    *string
	RecordedAt time.Time
}

// TechnicianStage is a stage assigned to a technician joined with project
// information.
type TechnicianStage struct {
	StageID     string
	StageName   string
	Status      string
	StartDate   *string
	EndDate     *string
	ProjectName string
	Client      string
	DueDate     string
}

// TechnicianTask is an assigned stage with accumulated hours and latest
// comment, used for the technician task board.
type TechnicianTask struct {
	StageID        string
	ProjectName    string
	StageName      string
	StartDate      *string
	EndDate        *string
	EstimatedHours int
	Status         string
	RealHours      float64
	Comment        *string
}

// TimeLogHistoryEntry is one line of a technician's timer history.
type TimeLogHistoryEntry struct {
	LogDate     string
	StartedAt   string
	EndedAt     *string
	HoursWorked *float64
	StageName   string
	ProjectName string
	Comment     *string
}

// ScheduleAssignment is one row of the schedule queries: a technician working
// a stage of a project over a date span.
type ScheduleAssignment struct {
	Username    string
	ProjectName string
	StageName   string
	StartDate   *string
	EndDate     *string
}

// ProjectSpan pairs a project with the date spans of its stages, for the
// month view.
type ProjectSpan struct {
	ProjectID string
	StartDate *string
	EndDate   *string
}

// StageHours compares estimated against accumulated real hours for a stage.
type StageHours struct {
	StageID        string
	ProjectID      string
	StageName      string
	ProjectName    string
	EstimatedHours int
	RealHours      float64
}

// StageHoursFilter narrows the hours-comparison query.
type StageHoursFilter struct {
	TechnicianID string
	ProjectID    string
	StageStatus  string
	ProjectType  string
}

// DelayReason groups identical comment bodies with their occurrence count.
type DelayReason struct {
	Reason string
	Count  int
}

// DelayReasonFilter narrows the delay-reason query.
type DelayReasonFilter struct {
	TechnicianID string
	ProjectID    string
	ProjectType  string
}

// StatisticsSummary aggregates project and stage health counters.
type StatisticsSummary struct {
	TotalProjects        int
	ProjectsOnTime       int
	TotalStages          int
	StagesWithinEstimate int
	StagesOverEstimate   int
}

// AlertStage names a stage and its project for dashboard alerts.
type AlertStage struct {
	StageName   string
	ProjectName string
}
