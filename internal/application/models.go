package application

import (
	"github.com/example/project-tracker/internal/persistence"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID string
	Role   string
}

// IsAdmin reports whether the principal holds the administrator role.
func (p Principal) IsAdmin() bool {
	return p.Role == persistence.RoleAdmin
}

// CanManageProjects reports whether the principal can create and edit
// projects, stages, and assignments.
func (p Principal) CanManageProjects() bool {
	return p.Role == persistence.RoleAdmin || p.Role == persistence.RoleSupervisor
}

// StageInput captures caller provided stage fields.
type StageInput struct {
	Name           string
	Status         string
	EstimatedHours int
	StartDate      *string
	EndDate        *string
	AssigneeID     string
}

// ProjectInput captures caller provided project fields.
type ProjectInput struct {
	Name      string
	Client    string
	StartDate string
	DueDate   string
	Status    string
	Type      string
	Stages    []StageInput
}

// CreateProjectParams wraps the data required to create a project graph.
type CreateProjectParams struct {
	Principal Principal
	Input     ProjectInput
}

// UpdateProjectParams wraps the data required to update a project.
type UpdateProjectParams struct {
	Principal Principal
	ProjectID string
	Input     ProjectInput
}

// DeleteProjectParams wraps the data required to delete a project.
type DeleteProjectParams struct {
	Principal Principal
	ProjectID string
}

// ProjectDetail pairs a project with its stages and their accumulated hours.
type ProjectDetail struct {
	persistence.Project
	Stages []persistence.StageWithHours
}

// CreateStageParams wraps the data required to add a stage to a project.
type CreateStageParams struct {
	Principal Principal
	ProjectID string
	Input     StageInput
}

// UpdateStageParams wraps the data required to update a stage.
type UpdateStageParams struct {
	Principal Principal
	StageID   string
	Input     StageInput
}

// DeleteStageParams wraps the data required to delete a stage.
type DeleteStageParams struct {
	Principal Principal
	StageID   string
}

// AssignStageParams wraps the data required to assign a technician to a stage.
type AssignStageParams struct {
	Principal Principal
	StageID   string
	UserID    string
}

// StartTimerParams wraps the data required to open a timer against a stage.
type StartTimerParams struct {
	Principal Principal
	StageID   string
}

// StopTimerParams wraps the data required to close an open timer.
type StopTimerParams struct {
	Principal Principal
	StageID   string
}

// CommentInput captures caller provided comment fields.
type CommentInput struct {
	ProjectID string
	StageID   *string
	Kind      string
	Body      string
}

// AddCommentParams wraps the data required to record a comment.
type AddCommentParams struct {
	Principal Principal
	Input     CommentInput
}

// UserInput captures caller provided account fields.
type UserInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Phone     string
	Email     string
}

// CreateUserParams wraps the data required to create a user account.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// AuthenticateParams carries login credentials.
type AuthenticateParams struct {
	Username string
	Password string
}

// AuthenticateResult carries the outcome of a successful login.
type AuthenticateResult struct {
	User    persistence.User
	Session persistence.Session
}

// TaskInput captures caller provided task fields.
type TaskInput struct {
	Name           string
	StartDate      string
	EndDate        string
	EstimatedHours int
	Status         string
}

// CreateTaskParams wraps the data required to create a task under a stage.
type CreateTaskParams struct {
	Principal Principal
	StageID   string
	Input     TaskInput
}

// UpdateTaskParams wraps the data required to update a task.
type UpdateTaskParams struct {
	Principal Principal
	TaskID    string
	Input     TaskInput
}

// DeleteTaskParams wraps the data required to delete a task.
type DeleteTaskParams struct {
	Principal Principal
	TaskID    string
}
