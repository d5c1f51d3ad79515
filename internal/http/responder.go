package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/example/project-tracker/internal/application"
)

var (
	errBadRequestBody      = errors.New("el formato de la solicitud no es válido")
	errInvalidProjectID    = errors.New("el identificador del proyecto no es válido")
	errInvalidStageID      = errors.New("el identificador de la etapa no es válido")
	errInvalidUserID       = errors.New("el identificador del usuario no es válido")
	errInvalidTaskID       = errors.New("el identificador de la tarea no es válido")
	errMissingDate         = errors.New("debe indicar una fecha")
	errMissingSessionToken = errors.New("debe indicar un token de sesión")
)

type responder struct {
	logger *slog.Logger
}

func newResponder(logger *slog.Logger) responder {
	if logger == nil {
		logger = slog.Default()
	}
	return responder{logger: logger}
}

func (r responder) writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	if w == nil {
		return
	}

	if status == http.StatusNoContent || payload == nil {
		w.WriteHeader(status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		r.loggerFor(ctx).ErrorContext(ctx, "failed to encode response", "error", err)
	}
}

func (r responder) writeError(ctx context.Context, w http.ResponseWriter, status int, err error) {
	message := statusMessage(status)
	if err != nil {
		if msg := strings.TrimSpace(err.Error()); msg != "" {
			message = msg
		}
		r.loggerFor(ctx).ErrorContext(ctx, "request failed", "status", status, "error", err)
	}

	r.writeJSON(ctx, w, status, errorResponse{Message: message})
}

func (r responder) handleServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	if err == nil {
		r.writeError(ctx, w, http.StatusInternalServerError, errors.New("unknown error"))
		return
	}

	switch {
	case errors.Is(err, application.ErrUnauthorized):
		r.writeJSON(ctx, w, http.StatusForbidden, errorResponse{
			ErrorCode: "AUTH_FORBIDDEN",
			Message:   "no tiene permisos para realizar esta operación",
		})
	case errors.Is(err, application.ErrNotFound):
		r.writeJSON(ctx, w, http.StatusNotFound, errorResponse{Message: "el recurso indicado no existe"})
	case errors.Is(err, application.ErrAlreadyExists):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "ya existe un registro con esos datos"})
	case errors.Is(err, application.ErrTimerRunning):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "ya hay un temporizador en marcha para esta etapa"})
	case errors.Is(err, application.ErrNoTimerRunning):
		r.writeJSON(ctx, w, http.StatusConflict, errorResponse{Message: "no hay ningún temporizador en marcha para esta etapa"})
	default:
		var vErr *application.ValidationError
		if errors.As(err, &vErr) {
			r.writeJSON(ctx, w, http.StatusUnprocessableEntity, errorResponse{
				Message: "los datos enviados contienen errores",
				Errors:  vErr.FieldErrors,
			})
			return
		}

		r.writeJSON(ctx, w, http.StatusInternalServerError, errorResponse{Message: "se produjo un error interno del servidor"})
	}
}

func (r responder) loggerFor(ctx context.Context) *slog.Logger {
	if logger := LoggerFromContext(ctx); logger != nil {
		return logger
	}
	return r.logger
}

func statusMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "el contenido de la solicitud no es correcto"
	case http.StatusUnauthorized:
		return "se requiere autenticación"
	case http.StatusForbidden:
		return "no tiene permisos para realizar esta operación"
	case http.StatusNotFound:
		return "el recurso indicado no existe"
	case http.StatusConflict:
		return "la solicitud entra en conflicto con el estado actual del recurso"
	case http.StatusUnprocessableEntity:
		return "los datos enviados contienen errores"
	default:
		return "se produjo un error interno del servidor"
	}
}

type errorResponse struct {
	ErrorCode string            `json:"error_code,omitempty"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}
