package http

import (
	"net/http"

	"github.com/gorilla/mux"
)

// RouterConfig wires handlers and middleware into the API router. Nil
// handlers leave their routes unregistered, which keeps partial wiring
// possible in tests.
type RouterConfig struct {
	Auth        *AuthHandler
	Users       *UserHandler
	Projects    *ProjectHandler
	Stages      *StageHandler
	Assignments *AssignmentHandler
	TimeLogs    *TimeLogHandler
	Comments    *CommentHandler
	Tasks       *TaskHandler
	Audit       *AuditHandler
	Suggestions *SuggestionHandler
	Schedule    *ScheduleHandler
	Statistics  *StatisticsHandler
	Dashboard   *DashboardHandler

	// Middleware wraps every route except POST /login, outermost first.
	Middleware []func(http.Handler) http.Handler
	// RequestLogger additionally wraps the login route so unauthenticated
	// requests still carry request-scoped loggers.
	RequestLogger func(http.Handler) http.Handler
}

// NewRouter builds the API route table.
func NewRouter(cfg RouterConfig) http.Handler {
	router := mux.NewRouter()

	protected := router.PathPrefix("/").Subrouter()
	for _, middleware := range cfg.Middleware {
		if middleware != nil {
			protected.Use(mux.MiddlewareFunc(middleware))
		}
	}

	if cfg.Auth != nil {
		login := http.Handler(http.HandlerFunc(cfg.Auth.Login))
		if cfg.RequestLogger != nil {
			login = cfg.RequestLogger(login)
		}
		router.Handle("/login", login).Methods(http.MethodPost)
		protected.HandleFunc("/logout", cfg.Auth.Logout).Methods(http.MethodPost)
	}

	if cfg.Users != nil {
		protected.HandleFunc("/users", cfg.Users.Create).Methods(http.MethodPost)
		protected.HandleFunc("/users/{id}", cfg.Users.Get).Methods(http.MethodGet)
		protected.HandleFunc("/technicians", cfg.Users.ListTechnicians).Methods(http.MethodGet)
		protected.HandleFunc("/technicians/{id}/stages", cfg.Users.TechnicianStages).Methods(http.MethodGet)
		protected.HandleFunc("/technicians/{id}/tasks", cfg.Users.TechnicianTasks).Methods(http.MethodGet)
	}

	if cfg.Projects != nil {
		protected.HandleFunc("/projects", cfg.Projects.List).Methods(http.MethodGet)
		protected.HandleFunc("/projects", cfg.Projects.Create).Methods(http.MethodPost)
		protected.HandleFunc("/projects/{id}", cfg.Projects.Get).Methods(http.MethodGet)
		protected.HandleFunc("/projects/{id}", cfg.Projects.Update).Methods(http.MethodPut)
		protected.HandleFunc("/projects/{id}", cfg.Projects.Delete).Methods(http.MethodDelete)
	}

	if cfg.Stages != nil {
		protected.HandleFunc("/projects/{id}/stages", cfg.Stages.ListForProject).Methods(http.MethodGet)
		protected.HandleFunc("/projects/{id}/stages", cfg.Stages.Create).Methods(http.MethodPost)
		protected.HandleFunc("/stages/{id}", cfg.Stages.Get).Methods(http.MethodGet)
		protected.HandleFunc("/stages/{id}", cfg.Stages.Update).Methods(http.MethodPut)
		protected.HandleFunc("/stages/{id}", cfg.Stages.Delete).Methods(http.MethodDelete)
	}

	if cfg.Assignments != nil {
		protected.HandleFunc("/assignments", cfg.Assignments.List).Methods(http.MethodGet)
		protected.HandleFunc("/stages/{id}/assignment", cfg.Assignments.GetForStage).Methods(http.MethodGet)
		protected.HandleFunc("/stages/{id}/assignment", cfg.Assignments.Assign).Methods(http.MethodPut)
	}

	if cfg.TimeLogs != nil {
		protected.HandleFunc("/stages/{id}/timer/start", cfg.TimeLogs.Start).Methods(http.MethodPost)
		protected.HandleFunc("/stages/{id}/timer/stop", cfg.TimeLogs.Stop).Methods(http.MethodPost)
		protected.HandleFunc("/stages/{id}/timer", cfg.TimeLogs.Active).Methods(http.MethodGet)
		protected.HandleFunc("/stages/{id}/hours", cfg.TimeLogs.Hours).Methods(http.MethodGet)
		protected.HandleFunc("/timelogs/history", cfg.TimeLogs.History).Methods(http.MethodGet)
	}

	if cfg.Comments != nil {
		protected.HandleFunc("/comments", cfg.Comments.Create).Methods(http.MethodPost)
		protected.HandleFunc("/stages/{id}/comments", cfg.Comments.ListForStage).Methods(http.MethodGet)
		protected.HandleFunc("/projects/{id}/log", cfg.Comments.ProjectLog).Methods(http.MethodGet)
	}

	if cfg.Tasks != nil {
		protected.HandleFunc("/stages/{id}/tasks", cfg.Tasks.Create).Methods(http.MethodPost)
		protected.HandleFunc("/projects/{id}/tasks", cfg.Tasks.ListForProject).Methods(http.MethodGet)
		protected.HandleFunc("/tasks/{id}", cfg.Tasks.Get).Methods(http.MethodGet)
		protected.HandleFunc("/tasks/{id}", cfg.Tasks.Update).Methods(http.MethodPut)
		protected.HandleFunc("/tasks/{id}", cfg.Tasks.Delete).Methods(http.MethodDelete)
	}

	if cfg.Audit != nil {
		protected.HandleFunc("/audit", cfg.Audit.List).Methods(http.MethodGet)
	}

	if cfg.Suggestions != nil {
		protected.HandleFunc("/suggestions", cfg.Suggestions.List).Methods(http.MethodGet)
		protected.HandleFunc("/suggestions/short-tasks", cfg.Suggestions.ShortTasks).Methods(http.MethodGet)
	}

	if cfg.Schedule != nil {
		protected.HandleFunc("/schedule/day", cfg.Schedule.Day).Methods(http.MethodGet)
		protected.HandleFunc("/schedule/week", cfg.Schedule.Week).Methods(http.MethodGet)
		protected.HandleFunc("/schedule/month", cfg.Schedule.Month).Methods(http.MethodGet)
	}

	if cfg.Statistics != nil {
		protected.HandleFunc("/statistics/summary", cfg.Statistics.Summary).Methods(http.MethodGet)
		protected.HandleFunc("/statistics/hours", cfg.Statistics.Hours).Methods(http.MethodGet)
		protected.HandleFunc("/statistics/delay-reasons", cfg.Statistics.DelayReasons).Methods(http.MethodGet)
	}

	if cfg.Dashboard != nil {
		protected.HandleFunc("/dashboard/alerts", cfg.Dashboard.Alerts).Methods(http.MethodGet)
	}

	return router
}
