// Package availability pairs technicians' free time-blocks with short
// unassigned stages. It is a pure computation over already-fetched rows: the
// caller materialises the two query results and receives the full suggestion
// list, with no retries and no partial output.
package availability

import "sort"

const (
	// DailyCapacity is the fixed number of workable hours per technician per day.
	DailyCapacity = 8
	// MatchThreshold is the maximum estimated effort, in hours, for a stage to
	// be considered a short stage during matching.
	MatchThreshold = 4
	// ShortTaskThreshold bounds the independent short-task listing exposed
	// alongside the matcher.
	ShortTaskThreshold = 3
	// MinFreeHours is the smallest remaining capacity worth suggesting against.
	MinFreeHours = 1
)

// Assignment is one row of the assignment-join-stage query: a technician
// committed to a stage whose status is not finished.
type Assignment struct {
	TechnicianID   string
	TechnicianName string
	Start          Date
	End            Date
	EstimatedHours int
}

// CandidateStage is one eligible-stage row: pending, at most MatchThreshold
// estimated hours, and currently without an assignment.
type CandidateStage struct {
	ID             string
	ProjectID      string
	ProjectName    string
	Name           string
	EstimatedHours int
	Start          Date
	End            Date
}

// Slot keys availability by technician and calendar day. A composite struct
// key avoids the collisions a delimiter-joined string key would allow.
type Slot struct {
	TechnicianID string
	Date         Date
}

// SuggestedTask identifies the stage a suggestion proposes.
type SuggestedTask struct {
	StageID       string
	ProjectID     string
	ProjectName   string
	StageName     string
	DurationHours int
}

// Suggestion pairs a technician's free hours on a day with a short stage.
type Suggestion struct {
	TechnicianID   string
	TechnicianName string
	Date           Date
	FreeHours      int
	Task           SuggestedTask
}

// BuildAvailability accumulates committed hours per technician per day from
// active assignments. Every day in [Start, End] contributes the stage's full
// estimate; an inverted range contributes nothing. Technicians without
// assignments never gain an entry, so they are invisible to the matcher.
func BuildAvailability(assignments []Assignment) map[Slot]int {
	committed := make(map[Slot]int)
	for _, assignment := range assignments {
		if assignment.Start.IsZero() || assignment.End.IsZero() {
			continue
		}
		if assignment.End.Before(assignment.Start) {
			continue
		}
		for day := assignment.Start; !day.After(assignment.End); day = day.Next() {
			committed[Slot{TechnicianID: assignment.TechnicianID, Date: day}] += assignment.EstimatedHours
		}
	}
	return committed
}

// ComputeSuggestions builds the availability map from assignments and matches
// it against candidate stages. A technician-day qualifies when at least
// MinFreeHours remain under DailyCapacity; a stage matches when the day falls
// inside the stage's own date window and its estimate fits the free hours. At
// most one suggestion is emitted per (technician, stage) pair, regardless of
// how many days qualify.
//
// Output order is deterministic: slots ascending by technician then date,
// stages in input order.
func ComputeSuggestions(assignments []Assignment, stages []CandidateStage) []Suggestion {
	committed := BuildAvailability(assignments)

	names := make(map[string]string, len(assignments))
	for _, assignment := range assignments {
		names[assignment.TechnicianID] = assignment.TechnicianName
	}

	slots := make([]Slot, 0, len(committed))
	for slot := range committed {
		slots = append(slots, slot)
	}
	sort.Slice(slots, func(i, j int) bool {
		if slots[i].TechnicianID != slots[j].TechnicianID {
			return slots[i].TechnicianID < slots[j].TechnicianID
		}
		return slots[i].Date.Before(slots[j].Date)
	})

	type pair struct {
		technicianID string
		stageID      string
	}
	suggested := make(map[pair]struct{})

	suggestions := make([]Suggestion, 0)
	for _, slot := range slots {
		free := DailyCapacity - committed[slot]
		if free < MinFreeHours {
			continue
		}
		for _, stage := range stages {
			if !stageCoversDay(stage, slot.Date) {
				continue
			}
			if stage.EstimatedHours > free {
				continue
			}
			key := pair{technicianID: slot.TechnicianID, stageID: stage.ID}
			if _, seen := suggested[key]; seen {
				continue
			}
			suggested[key] = struct{}{}
			suggestions = append(suggestions, Suggestion{
				TechnicianID:   slot.TechnicianID,
				TechnicianName: names[slot.TechnicianID],
				Date:           slot.Date,
				FreeHours:      free,
				Task: SuggestedTask{
					StageID:       stage.ID,
					ProjectID:     stage.ProjectID,
					ProjectName:   stage.ProjectName,
					StageName:     stage.Name,
					DurationHours: stage.EstimatedHours,
				},
			})
		}
	}

	return suggestions
}

// stageCoversDay reports whether the candidate day falls inside the stage's
// date window. A stage without an end date is treated as a single-day window.
func stageCoversDay(stage CandidateStage, day Date) bool {
	if stage.Start.IsZero() {
		return false
	}
	end := stage.End
	if end.IsZero() {
		end = stage.Start
	}
	return !day.Before(stage.Start) && !day.After(end)
}
