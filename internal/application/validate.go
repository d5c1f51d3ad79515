package application

import (
	"strings"

	"github.com/example/project-tracker/internal/availability"
	"github.com/example/project-tracker/internal/persistence"
)

var stageStatuses = map[string]bool{
	persistence.StageStatusPending:   true,
	persistence.StageStatusActive:    true,
	persistence.StageStatusStopped:   true,
	persistence.StageStatusFinished:  true,
	persistence.StageStatusCancelled: true,
}

var projectStatuses = map[string]bool{
	persistence.ProjectStatusActive:    true,
	persistence.ProjectStatusStopped:   true,
	persistence.ProjectStatusFinished:  true,
	persistence.ProjectStatusCancelled: true,
}

var projectTypes = map[string]bool{
	persistence.ProjectTypeLong:     true,
	persistence.ProjectTypeShort:    true,
	persistence.ProjectTypeFlexible: true,
}

var userRoles = map[string]bool{
	persistence.RoleAdmin:      true,
	persistence.RoleTechnician: true,
	persistence.RoleSupervisor: true,
}

func isValidDate(value string) bool {
	_, err := availability.ParseDate(value)
	return err == nil
}

func trimmed(value string) string {
	return strings.TrimSpace(value)
}

// validateDateField checks an optional YYYY-MM-DD field.
func validateDateField(vErr *ValidationError, field string, value *string) {
	if value == nil || *value == "" {
		return
	}
	if !isValidDate(*value) {
		vErr.add(field, "must be a YYYY-MM-DD date")
	}
}

// validateDateOrder records an error when both dates parse and end precedes
// start.
func validateDateOrder(vErr *ValidationError, field string, start, end *string) {
	if start == nil || end == nil || *start == "" || *end == "" {
		return
	}
	s, errS := availability.ParseDate(*start)
	e, errE := availability.ParseDate(*end)
	if errS != nil || errE != nil {
		return
	}
	if e.Before(s) {
		vErr.add(field, "must not precede the start date")
	}
}
