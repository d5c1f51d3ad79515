package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/config"
	httptransport "github.com/example/project-tracker/internal/http"
	"github.com/example/project-tracker/internal/logging"
	"github.com/example/project-tracker/internal/persistence/sqlite"
)

func main() {
	// A missing .env file is fine; the environment may be set directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuración no válida: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewLogger(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := sqlite.NewConnectionPool(cfg.SQLiteDSN)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := pool.Close(); cerr != nil {
			logger.Error("failed to close database", "error", cerr)
		}
	}()

	if err := sqlite.Migrate(context.Background(), pool); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	idGenerator := uuid.NewString
	tokenGenerator := uuid.NewString
	now := time.Now
	hashPassword := func(password string) (string, error) {
		return application.HashPassword(password, application.DefaultHashParams)
	}

	userRepo := sqlite.NewUserRepository(pool)
	projectRepo := sqlite.NewProjectRepository(pool)
	stageRepo := sqlite.NewStageRepository(pool)
	assignmentRepo := sqlite.NewAssignmentRepository(pool)
	commentRepo := sqlite.NewCommentRepository(pool)
	timeLogRepo := sqlite.NewTimeLogRepository(pool)
	auditRepo := sqlite.NewAuditRepository(pool)
	taskRepo := sqlite.NewTaskRepository(pool)
	sessionRepo := sqlite.NewSessionRepository(pool)
	reportingRepo := sqlite.NewReportingRepository(pool)

	auditService := application.NewAuditService(auditRepo, idGenerator, now, logger)
	projectService := application.NewProjectService(projectRepo, stageRepo, auditService, idGenerator, now, logger)
	stageService := application.NewStageService(stageRepo, auditService, idGenerator, now, logger)
	assignmentService := application.NewAssignmentService(assignmentRepo, userRepo, stageRepo, auditService, idGenerator, now, logger)
	userService := application.NewUserService(userRepo, hashPassword, idGenerator, now, logger)
	authService := application.NewAuthService(userRepo, sessionRepo, application.VerifyPassword, tokenGenerator, now, cfg.SessionTTL, logger)
	timeLogService := application.NewTimeLogService(timeLogRepo, stageRepo, idGenerator, now, logger)
	commentService := application.NewCommentService(commentRepo, idGenerator, now, logger)
	taskService := application.NewTaskService(taskRepo, stageRepo, idGenerator, now, logger)
	suggestionService := application.NewSuggestionService(suggestionStore{assignmentRepo, stageRepo}, logger)
	scheduleService := application.NewScheduleService(reportingRepo, now, logger)
	statisticsService := application.NewStatisticsService(reportingRepo, commentRepo, logger)
	dashboardService := application.NewDashboardService(reportingRepo, logger)

	router := httptransport.NewRouter(httptransport.RouterConfig{
		Auth:        httptransport.NewAuthHandler(authService, logger),
		Users:       httptransport.NewUserHandler(userService, logger),
		Projects:    httptransport.NewProjectHandler(projectService, logger),
		Stages:      httptransport.NewStageHandler(stageService, logger),
		Assignments: httptransport.NewAssignmentHandler(assignmentService, logger),
		TimeLogs:    httptransport.NewTimeLogHandler(timeLogService, logger),
		Comments:    httptransport.NewCommentHandler(commentService, logger),
		Tasks:       httptransport.NewTaskHandler(taskService, logger),
		Audit:       httptransport.NewAuditHandler(auditService, logger),
		Suggestions: httptransport.NewSuggestionHandler(suggestionService, logger),
		Schedule:    httptransport.NewScheduleHandler(scheduleService, logger),
		Statistics:  httptransport.NewStatisticsHandler(statisticsService, logger),
		Dashboard:   httptransport.NewDashboardHandler(dashboardService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireSession(authService, logger),
		},
		RequestLogger: httptransport.RequestLogger(logger),
	})

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("tracker API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// suggestionStore combines the assignment and stage repositories into the
// read surface the availability matcher consumes.
type suggestionStore struct {
	*sqlite.AssignmentRepository
	*sqlite.StageRepository
}
