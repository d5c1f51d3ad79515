package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/example/project-tracker/internal/availability"
	"github.com/example/project-tracker/internal/persistence"
)

// SuggestionRepository captures the queries feeding the availability matcher.
type SuggestionRepository interface {
	ListAssignmentLoads(ctx context.Context) ([]persistence.AssignmentLoad, error)
	ListEligibleStages(ctx context.Context, maxHours int) ([]persistence.EligibleStage, error)
	ListShortStages(ctx context.Context, maxHours int) ([]persistence.ShortStage, error)
}

// SuggestionService pairs technicians' free daily hours with short unassigned
// stages. The pure matching lives in the availability package; this service
// feeds it from storage and filters out rows it cannot interpret.
type SuggestionService struct {
	repo   SuggestionRepository
	logger *slog.Logger
}

// NewSuggestionService wires dependencies for the suggestion service.
func NewSuggestionService(repo SuggestionRepository, logger *slog.Logger) *SuggestionService {
	return &SuggestionService{repo: repo, logger: defaultLogger(logger)}
}

// Suggestions computes the current task suggestions: for each day a
// technician has free hours left, every short unassigned stage whose window
// covers that day and whose estimate fits the free hours.
func (s *SuggestionService) Suggestions(ctx context.Context) ([]availability.Suggestion, error) {
	if s == nil {
		return nil, fmt.Errorf("SuggestionService is nil")
	}

	logger := serviceLogger(ctx, s.logger, "SuggestionService", "Suggestions")

	loads, err := s.repo.ListAssignmentLoads(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}
	eligible, err := s.repo.ListEligibleStages(ctx, availability.MatchThreshold)
	if err != nil {
		return nil, mapRepoError(err)
	}

	assignments := make([]availability.Assignment, 0, len(loads))
	for _, load := range loads {
		a, ok := convertLoad(load)
		if !ok {
			logger.WarnContext(ctx, "skipping assignment with unusable dates",
				"user_id", load.UserID)
			continue
		}
		assignments = append(assignments, a)
	}

	stages := make([]availability.CandidateStage, 0, len(eligible))
	for _, row := range eligible {
		c, ok := convertEligibleStage(row)
		if !ok {
			logger.WarnContext(ctx, "skipping candidate stage with unusable dates",
				"stage_id", row.StageID)
			continue
		}
		stages = append(stages, c)
	}

	suggestions := availability.ComputeSuggestions(assignments, stages)
	logger.InfoContext(ctx, "suggestions computed",
		"assignment_count", len(assignments),
		"candidate_count", len(stages),
		"suggestion_count", len(suggestions))

	return suggestions, nil
}

// ShortTasks lists pending stages short enough to slot into spare capacity,
// independent of anyone's availability.
func (s *SuggestionService) ShortTasks(ctx context.Context) ([]persistence.ShortStage, error) {
	if s == nil {
		return nil, fmt.Errorf("SuggestionService is nil")
	}

	stages, err := s.repo.ListShortStages(ctx, availability.ShortTaskThreshold)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return stages, nil
}

// convertLoad turns a storage row into a matcher assignment. A row without a
// parseable start date carries no calendar information and is dropped.
func convertLoad(load persistence.AssignmentLoad) (availability.Assignment, bool) {
	if load.StageStartDate == nil {
		return availability.Assignment{}, false
	}
	start, err := availability.ParseDate(*load.StageStartDate)
	if err != nil {
		return availability.Assignment{}, false
	}

	end := start
	if load.StageEndDate != nil && *load.StageEndDate != "" {
		end, err = availability.ParseDate(*load.StageEndDate)
		if err != nil {
			return availability.Assignment{}, false
		}
	}

	return availability.Assignment{
		TechnicianID:   load.UserID,
		TechnicianName: load.Username,
		Start:          start,
		End:            end,
		EstimatedHours: load.EstimatedHours,
	}, true
}

// convertEligibleStage turns a storage row into a matcher candidate. A
// missing end date leaves the zero value, which the matcher treats as a
// single-day window.
func convertEligibleStage(row persistence.EligibleStage) (availability.CandidateStage, bool) {
	if row.StartDate == nil {
		return availability.CandidateStage{}, false
	}
	start, err := availability.ParseDate(*row.StartDate)
	if err != nil {
		return availability.CandidateStage{}, false
	}

	var end availability.Date
	if row.EndDate != nil && *row.EndDate != "" {
		end, err = availability.ParseDate(*row.EndDate)
		if err != nil {
			return availability.CandidateStage{}, false
		}
	}

	return availability.CandidateStage{
		ID:             row.StageID,
		ProjectID:      row.ProjectID,
		ProjectName:    row.ProjectName,
		Name:           row.StageName,
		EstimatedHours: row.EstimatedHours,
		Start:          start,
		End:            end,
	}, true
}
