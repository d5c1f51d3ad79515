package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/project-tracker/internal/application"
)

type scheduleService interface {
	Day(ctx context.Context, date string) (application.DaySchedule, error)
	Week(ctx context.Context, base string) (application.WeekSchedule, error)
	Month(ctx context.Context, base string) (application.MonthSchedule, error)
}

// ScheduleHandler exposes the day, week, and month calendar views. The
// schedule view types carry their own JSON tags, so no DTO mapping happens
// here.
type ScheduleHandler struct {
	service   scheduleService
	responder responder
	logger    *slog.Logger
}

func NewScheduleHandler(service scheduleService, logger *slog.Logger) *ScheduleHandler {
	base := defaultLogger(logger)
	return &ScheduleHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *ScheduleHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ScheduleHandler", operation, attrs...)
}

func (h *ScheduleHandler) Day(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	logger := h.log(r.Context(), "Day", "date", date)
	view, err := h.service.Day(r.Context(), date)
	if err != nil {
		logger.ErrorContext(r.Context(), "day view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *ScheduleHandler) Week(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	logger := h.log(r.Context(), "Week", "date", date)
	view, err := h.service.Week(r.Context(), date)
	if err != nil {
		logger.ErrorContext(r.Context(), "week view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}

func (h *ScheduleHandler) Month(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	date := strings.TrimSpace(r.URL.Query().Get("date"))
	if date == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errMissingDate)
		return
	}

	logger := h.log(r.Context(), "Month", "date", date)
	view, err := h.service.Month(r.Context(), date)
	if err != nil {
		logger.ErrorContext(r.Context(), "month view failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, view)
}
