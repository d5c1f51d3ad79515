package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/example/project-tracker/internal/availability"
	"github.com/example/project-tracker/internal/persistence"
)

// Week slot statuses shown on the month view.
const (
	SlotAvailable  = "available"
	SlotInProgress = "in_progress"
	SlotFinished   = "finished"
	SlotStopped    = "stopped"
	SlotDelayed    = "delayed"
)

// projectPalette assigns stable colors to projects by first appearance.
var projectPalette = []string{
	"#2c7be5", "#47c363", "#f5b041", "#e74c3c", "#8e44ad",
	"#1abc9c", "#ff7f0e", "#3498db", "#27ae60", "#d35400",
}

// ScheduleRepository captures the read queries behind the schedule views.
type ScheduleRepository interface {
	ListAssignmentsOnDate(ctx context.Context, date string) ([]persistence.ScheduleAssignment, error)
	ListAssignmentSpans(ctx context.Context) ([]persistence.ScheduleAssignment, error)
	ListProjects(ctx context.Context) ([]persistence.Project, error)
	ListProjectSpans(ctx context.Context) ([]persistence.ProjectSpan, error)
}

// ScheduleBlock is one cell of the day grid.
type ScheduleBlock struct {
	Class      string `json:"class"`
	Technician string `json:"technician"`
	Project    string `json:"project"`
	Stage      string `json:"stage,omitempty"`
	Color      string `json:"color,omitempty"`
}

// ScheduleHourRow is one hour line of the day grid.
type ScheduleHourRow struct {
	Time   string          `json:"time"`
	Blocks []ScheduleBlock `json:"blocks"`
}

// LegendEntry names a color used in a schedule view.
type LegendEntry struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

// DaySchedule is the hour-by-hour view of one working day.
type DaySchedule struct {
	Date        string            `json:"date"`
	Technicians []string          `json:"technicians"`
	Rows        []ScheduleHourRow `json:"rows"`
	Legend      []LegendEntry     `json:"legend"`
}

// WeekSchedule summarises each technician's projects per weekday.
type WeekSchedule struct {
	Days        []string                       `json:"days"`
	Technicians []string                       `json:"technicians"`
	Summary     map[string]map[string][]string `json:"summary"`
	Legend      []LegendEntry                  `json:"legend"`
}

// MonthProject is one project line of the month view.
type MonthProject struct {
	Name         string            `json:"name"`
	Status       string            `json:"status"`
	WeeklyStatus map[string]string `json:"weekly_status"`
}

// MonthSchedule summarises project health per week of a month.
type MonthSchedule struct {
	Weeks    []string       `json:"weeks"`
	Projects []MonthProject `json:"projects"`
	Legend   []LegendEntry  `json:"legend"`
}

// ScheduleService renders the day, week, and month planning views.
type ScheduleService struct {
	repo   ScheduleRepository
	now    func() time.Time
	logger *slog.Logger
}

// NewScheduleService wires dependencies for the schedule service.
func NewScheduleService(repo ScheduleRepository, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{repo: repo, now: now, logger: defaultLogger(logger)}
}

// Day builds the hour grid for one date: working hours 08:00 through 18:00
// with a 13:00 lunch row, one block per technician working that day.
func (s *ScheduleService) Day(ctx context.Context, date string) (DaySchedule, error) {
	if s == nil {
		return DaySchedule{}, fmt.Errorf("ScheduleService is nil")
	}
	if _, err := availability.ParseDate(date); err != nil {
		vErr := &ValidationError{}
		vErr.add("date", "must be a YYYY-MM-DD date")
		return DaySchedule{}, vErr
	}

	rows, err := s.repo.ListAssignmentsOnDate(ctx, date)
	if err != nil {
		return DaySchedule{}, mapRepoError(err)
	}

	technicians := uniqueStrings(rows, func(r persistence.ScheduleAssignment) string { return r.Username })
	colors := assignColors(uniqueStrings(rows, func(r persistence.ScheduleAssignment) string { return r.ProjectName }))

	byTechnician := make(map[string]persistence.ScheduleAssignment)
	for _, row := range rows {
		if _, seen := byTechnician[row.Username]; !seen {
			byTechnician[row.Username] = row
		}
	}

	schedule := DaySchedule{Date: date, Technicians: technicians}
	for h := 8; h <= 18; h++ {
		hour := fmt.Sprintf("%02d:00", h)
		row := ScheduleHourRow{Time: hour}
		for _, technician := range technicians {
			if hour == "13:00" {
				row.Blocks = append(row.Blocks, ScheduleBlock{
					Class: "lunch-block", Technician: technician, Project: "Lunch",
				})
				continue
			}
			assignment := byTechnician[technician]
			row.Blocks = append(row.Blocks, ScheduleBlock{
				Class:      "custom-block",
				Technician: technician,
				Project:    assignment.ProjectName,
				Stage:      assignment.StageName,
				Color:      colors[assignment.ProjectName],
			})
		}
		schedule.Rows = append(schedule.Rows, row)
	}

	schedule.Legend = legendFor(colors)
	return schedule, nil
}

// Week summarises the working week (Monday through Friday) containing the
// base date: per technician and day, the projects assigned to them.
func (s *ScheduleService) Week(ctx context.Context, base string) (WeekSchedule, error) {
	if s == nil {
		return WeekSchedule{}, fmt.Errorf("ScheduleService is nil")
	}
	baseDate, err := availability.ParseDate(base)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("base", "must be a YYYY-MM-DD date")
		return WeekSchedule{}, vErr
	}

	monday := mondayOf(baseDate)
	days := make([]string, 0, 5)
	day := monday
	for i := 0; i < 5; i++ {
		days = append(days, day.String())
		day = day.Next()
	}

	rows, err := s.repo.ListAssignmentSpans(ctx)
	if err != nil {
		return WeekSchedule{}, mapRepoError(err)
	}

	technicians := uniqueStrings(rows, func(r persistence.ScheduleAssignment) string { return r.Username })
	summary := make(map[string]map[string][]string, len(technicians))
	for _, technician := range technicians {
		summary[technician] = make(map[string][]string, len(days))
		for _, d := range days {
			var projects []string
			seen := make(map[string]bool)
			for _, row := range rows {
				if row.Username != technician || seen[row.ProjectName] {
					continue
				}
				if spanCoversDay(row.StartDate, row.EndDate, d) {
					projects = append(projects, row.ProjectName)
					seen[row.ProjectName] = true
				}
			}
			summary[technician][d] = projects
		}
	}

	colors := assignColors(uniqueStrings(rows, func(r persistence.ScheduleAssignment) string { return r.ProjectName }))

	return WeekSchedule{
		Days:        days,
		Technicians: technicians,
		Summary:     summary,
		Legend:      legendFor(colors),
	}, nil
}

// Month summarises project health for each week of the base date's month. A
// week counts as delayed when the project is unfinished, no stage spans the
// week, and the week already passed.
func (s *ScheduleService) Month(ctx context.Context, base string) (MonthSchedule, error) {
	if s == nil {
		return MonthSchedule{}, fmt.Errorf("ScheduleService is nil")
	}
	baseDate, err := availability.ParseDate(base)
	if err != nil {
		vErr := &ValidationError{}
		vErr.add("base", "must be a YYYY-MM-DD date")
		return MonthSchedule{}, vErr
	}

	weeks := monthWeeks(baseDate)

	projects, err := s.repo.ListProjects(ctx)
	if err != nil {
		return MonthSchedule{}, mapRepoError(err)
	}
	spans, err := s.repo.ListProjectSpans(ctx)
	if err != nil {
		return MonthSchedule{}, mapRepoError(err)
	}

	spansByProject := make(map[string][]persistence.ProjectSpan)
	for _, span := range spans {
		spansByProject[span.ProjectID] = append(spansByProject[span.ProjectID], span)
	}

	today := s.now().Format("2006-01-02")

	month := MonthSchedule{Weeks: weeks}
	for _, project := range projects {
		mp := MonthProject{
			Name:         project.Name,
			Status:       project.Status,
			WeeklyStatus: make(map[string]string, len(weeks)),
		}
		for i, weekStart := range weeks {
			weekEnd := addDays(weekStart, 6)

			active := false
			for _, span := range spansByProject[project.ID] {
				if span.StartDate == nil || span.EndDate == nil {
					continue
				}
				if *span.StartDate <= weekEnd && *span.EndDate >= weekStart {
					active = true
					break
				}
			}

			status := SlotAvailable
			if active {
				status = SlotInProgress
			}
			switch project.Status {
			case persistence.ProjectStatusFinished:
				status = SlotFinished
			case persistence.ProjectStatusStopped:
				status = SlotStopped
			default:
				if !active && today > weekEnd {
					status = SlotDelayed
				}
			}

			mp.WeeklyStatus[fmt.Sprintf("week%d", i+1)] = status
		}
		month.Projects = append(month.Projects, mp)
	}

	month.Legend = []LegendEntry{
		{Name: SlotInProgress, Color: "#2c7be5"},
		{Name: SlotFinished, Color: "#47c363"},
		{Name: SlotDelayed, Color: "#f5b041"},
		{Name: SlotAvailable, Color: "#ccc"},
		{Name: SlotStopped, Color: "#e74c3c"},
	}
	return month, nil
}

// mondayOf returns the Monday of the week containing d.
func mondayOf(d availability.Date) availability.Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
	offset := int(t.Weekday()) - 1
	if offset < 0 {
		offset = 6
	}
	t = t.AddDate(0, 0, -offset)
	return availability.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// monthWeeks lists the Monday of each week touching the base date's month,
// at most six, as YYYY-MM-DD strings.
func monthWeeks(base availability.Date) []string {
	first := availability.Date{Year: base.Year, Month: base.Month, Day: 1}
	lastOfMonth := time.Date(base.Year, base.Month, 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, -1).Format("2006-01-02")

	weeks := make([]string, 0, 6)
	week := mondayOf(first)
	for i := 0; i < 6; i++ {
		if week.String() > lastOfMonth {
			break
		}
		weeks = append(weeks, week.String())
		week = addDaysDate(week, 7)
	}
	return weeks
}

func addDaysDate(d availability.Date, n int) availability.Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return availability.Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// addDays shifts a YYYY-MM-DD string by n days.
func addDays(date string, n int) string {
	d, err := availability.ParseDate(date)
	if err != nil {
		return date
	}
	return addDaysDate(d, n).String()
}

// spanCoversDay reports whether a stage's window contains the day. A missing
// end date makes the window single-day.
func spanCoversDay(start, end *string, day string) bool {
	if start == nil || *start == "" {
		return false
	}
	last := *start
	if end != nil && *end != "" {
		last = *end
	}
	return *start <= day && last >= day
}

func uniqueStrings(rows []persistence.ScheduleAssignment, key func(persistence.ScheduleAssignment) string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, row := range rows {
		k := key(row)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}

func assignColors(names []string) map[string]string {
	colors := make(map[string]string, len(names))
	for i, name := range names {
		colors[name] = projectPalette[i%len(projectPalette)]
	}
	return colors
}

func legendFor(colors map[string]string) []LegendEntry {
	legend := make([]LegendEntry, 0, len(colors))
	for name, color := range colors {
		legend = append(legend, LegendEntry{Name: name, Color: color})
	}
	sort.Slice(legend, func(i, j int) bool { return legend[i].Name < legend[j].Name })
	return legend
}
