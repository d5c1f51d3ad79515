package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

var (
	userCounter    uint64
	projectCounter uint64
	stageCounter   uint64
)

var referenceTime = time.Date(2024, time.January, 2, 15, 4, 5, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// UserOption configures a generated user fixture.
type UserOption func(*persistence.User)

// NewUserFixture returns a deterministic user record with optional overrides.
func NewUserFixture(opts ...UserOption) persistence.User {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	user := persistence.User{
		ID:           id,
		Username:     fmt.Sprintf("usuario%03d", idx),
		FirstName:    "Nombre",
		LastName:     fmt.Sprintf("Apellido %03d", idx),
		PasswordHash: fmt.Sprintf("hash-%03d", idx),
		Role:         persistence.RoleTechnician,
		Email:        fmt.Sprintf("%s@example.com", id),
		CreatedAt:    created,
		UpdatedAt:    created,
	}
	for _, opt := range opts {
		opt(&user)
	}
	return user
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(u *persistence.User) { u.ID = id }
}

// WithUsername overrides the generated username.
func WithUsername(username string) UserOption {
	return func(u *persistence.User) { u.Username = username }
}

// WithRole overrides the generated role.
func WithRole(role string) UserOption {
	return func(u *persistence.User) { u.Role = role }
}

// ProjectOption configures a generated project fixture.
type ProjectOption func(*persistence.Project)

// NewProjectFixture returns a deterministic project record with optional
// overrides. Projects default to active long projects spanning Q1 2024.
func NewProjectFixture(opts ...ProjectOption) persistence.Project {
	idx := atomic.AddUint64(&projectCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	project := persistence.Project{
		ID:        fmt.Sprintf("project-%03d", idx),
		Name:      fmt.Sprintf("Proyecto %03d", idx),
		Client:    fmt.Sprintf("Cliente %03d", idx),
		StartDate: "2024-01-01",
		DueDate:   "2024-03-31",
		Status:    persistence.ProjectStatusActive,
		Type:      persistence.ProjectTypeLong,
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, opt := range opts {
		opt(&project)
	}
	return project
}

// WithProjectID overrides the generated project ID.
func WithProjectID(id string) ProjectOption {
	return func(p *persistence.Project) { p.ID = id }
}

// WithProjectStatus overrides the generated project status.
func WithProjectStatus(status string) ProjectOption {
	return func(p *persistence.Project) { p.Status = status }
}

// WithProjectType overrides the generated project type.
func WithProjectType(projectType string) ProjectOption {
	return func(p *persistence.Project) { p.Type = projectType }
}

// StageOption configures a generated stage fixture.
type StageOption func(*persistence.Stage)

// NewStageFixture returns a deterministic stage record belonging to the given
// project. Stages default to pending with a one-week window.
func NewStageFixture(projectID string, opts ...StageOption) persistence.Stage {
	idx := atomic.AddUint64(&stageCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	start := "2024-01-08"
	end := "2024-01-12"
	stage := persistence.Stage{
		ID:             fmt.Sprintf("stage-%03d", idx),
		ProjectID:      projectID,
		Name:           fmt.Sprintf("Etapa %03d", idx),
		Status:         persistence.StageStatusPending,
		EstimatedHours: 8,
		StartDate:      &start,
		EndDate:        &end,
		CreatedAt:      created,
		UpdatedAt:      created,
	}
	for _, opt := range opts {
		opt(&stage)
	}
	return stage
}

// WithStageID overrides the generated stage ID.
func WithStageID(id string) StageOption {
	return func(s *persistence.Stage) { s.ID = id }
}

// WithStageStatus overrides the generated stage status.
func WithStageStatus(status string) StageOption {
	return func(s *persistence.Stage) { s.Status = status }
}

// WithStageEstimate overrides the generated effort estimate.
func WithStageEstimate(hours int) StageOption {
	return func(s *persistence.Stage) { s.EstimatedHours = hours }
}

// WithStageDates overrides the generated stage window. Pass nil to clear a
// boundary.
func WithStageDates(start, end *string) StageOption {
	return func(s *persistence.Stage) {
		s.StartDate = start
		s.EndDate = end
	}
}
