package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type timeLogService interface {
	StartTimer(ctx context.Context, params application.StartTimerParams) (persistence.TimeLog, error)
	StopTimer(ctx context.Context, params application.StopTimerParams) (persistence.TimeLog, error)
	ActiveTimer(ctx context.Context, principal application.Principal, stageID string) (persistence.TimeLog, bool, error)
	SumHours(ctx context.Context, stageID, userID string) (float64, error)
	History(ctx context.Context, principal application.Principal) ([]persistence.TimeLogHistoryEntry, error)
}

// TimeLogHandler exposes timer start/stop and history endpoints.
type TimeLogHandler struct {
	service   timeLogService
	responder responder
	logger    *slog.Logger
}

func NewTimeLogHandler(service timeLogService, logger *slog.Logger) *TimeLogHandler {
	base := defaultLogger(logger)
	return &TimeLogHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *TimeLogHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "TimeLogHandler", operation, attrs...)
}

func (h *TimeLogHandler) Start(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Start", "principal_id", principal.UserID, "stage_id", stageID)

	log, err := h.service.StartTimer(r.Context(), application.StartTimerParams{
		Principal: principal,
		StageID:   stageID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "timer start failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("time_log_id", log.ID).InfoContext(r.Context(), "timer started")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, timeLogResponse{TimeLog: toTimeLogDTO(log)})
}

func (h *TimeLogHandler) Stop(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Stop", "principal_id", principal.UserID, "stage_id", stageID)

	log, err := h.service.StopTimer(r.Context(), application.StopTimerParams{
		Principal: principal,
		StageID:   stageID,
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "timer stop failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("time_log_id", log.ID).InfoContext(r.Context(), "timer stopped")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timeLogResponse{TimeLog: toTimeLogDTO(log)})
}

func (h *TimeLogHandler) Active(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Active", "principal_id", principal.UserID, "stage_id", stageID)

	open, running, err := h.service.ActiveTimer(r.Context(), principal, stageID)
	if err != nil {
		logger.ErrorContext(r.Context(), "active timer lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	resp := activeTimerResponse{Running: running}
	if running {
		resp.StartedAt = &open.StartedAt
		resp.LogDate = &open.LogDate
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, resp)
}

func (h *TimeLogHandler) Hours(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	stageID := strings.TrimSpace(mux.Vars(r)["id"])
	if stageID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidStageID)
		return
	}
	userID := strings.TrimSpace(r.URL.Query().Get("user_id"))
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	logger := h.log(r.Context(), "Hours", "stage_id", stageID, "user_id", userID)

	hours, err := h.service.SumHours(r.Context(), stageID, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "hours lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, stageHoursSumResponse{StageID: stageID, UserID: userID, Hours: hours})
}

func (h *TimeLogHandler) History(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "History", "principal_id", principal.UserID)

	entries, err := h.service.History(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "time log history failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "time log history listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, timeLogHistoryResponse{Entries: toTimeLogHistoryDTOs(entries)})
}

type timeLogResponse struct {
	TimeLog timeLogDTO `json:"time_log"`
}

type timeLogDTO struct {
	ID          string   `json:"id"`
	UserID      string   `json:"user_id"`
	StageID     string   `json:"stage_id"`
	LogDate     string   `json:"log_date"`
	StartedAt   string   `json:"started_at"`
	EndedAt     *string  `json:"ended_at"`
	HoursWorked *float64 `json:"hours_worked"`
	CreatedAt   string   `json:"created_at"`
}

func toTimeLogDTO(log persistence.TimeLog) timeLogDTO {
	return timeLogDTO{
		ID:          log.ID,
		UserID:      log.UserID,
		StageID:     log.StageID,
		LogDate:     log.LogDate,
		StartedAt:   log.StartedAt,
		EndedAt:     log.EndedAt,
		HoursWorked: log.HoursWorked,
		CreatedAt:   log.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

type activeTimerResponse struct {
	Running   bool    `json:"running"`
	StartedAt *string `json:"started_at,omitempty"`
	LogDate   *string `json:"log_date,omitempty"`
}

type stageHoursSumResponse struct {
	StageID string  `json:"stage_id"`
	UserID  string  `json:"user_id"`
	Hours   float64 `json:"hours"`
}

type timeLogHistoryResponse struct {
	Entries []timeLogHistoryDTO `json:"entries"`
}

type timeLogHistoryDTO struct {
	LogDate     string   `json:"log_date"`
	StartedAt   string   `json:"started_at"`
	EndedAt     *string  `json:"ended_at"`
	HoursWorked *float64 `json:"hours_worked"`
	StageName   string   `json:"stage_name"`
	ProjectName string   `json:"project_name"`
	Comment     *string  `json:"comment"`
}

func toTimeLogHistoryDTOs(entries []persistence.TimeLogHistoryEntry) []timeLogHistoryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]timeLogHistoryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, timeLogHistoryDTO{
			LogDate:     entry.LogDate,
			StartedAt:   entry.StartedAt,
			EndedAt:     entry.EndedAt,
			HoursWorked: entry.HoursWorked,
			StageName:   entry.StageName,
			ProjectName: entry.ProjectName,
			Comment:     entry.Comment,
		})
	}
	return out
}
