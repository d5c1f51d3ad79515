package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type auditService interface {
	ListEntries(ctx context.Context, principal application.Principal) ([]persistence.AuditRecord, error)
}

// AuditHandler exposes the bitácora listing.
type AuditHandler struct {
	service   auditService
	responder responder
	logger    *slog.Logger
}

func NewAuditHandler(service auditService, logger *slog.Logger) *AuditHandler {
	base := defaultLogger(logger)
	return &AuditHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := handlerLogger(r.Context(), h.logger, "AuditHandler", "List", "principal_id", principal.UserID)

	entries, err := h.service.ListEntries(r.Context(), principal)
	if err != nil {
		logger.ErrorContext(r.Context(), "audit list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(entries)).InfoContext(r.Context(), "audit entries listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, auditEntriesResponse{Entries: toAuditDTOs(entries)})
}

type auditEntriesResponse struct {
	Entries []auditEntryDTO `json:"entries"`
}

type auditEntryDTO struct {
	ID         string `json:"id"`
	Action     string `json:"action"`
	Username   string `json:"username"`
	RecordedAt string `json:"recorded_at"`
}

func toAuditDTOs(entries []persistence.AuditRecord) []auditEntryDTO {
	if len(entries) == 0 {
		return nil
	}
	out := make([]auditEntryDTO, 0, len(entries))
	for _, entry := range entries {
		out = append(out, auditEntryDTO{
			ID:         entry.ID,
			Action:     entry.Action,
			Username:   entry.Username,
			RecordedAt: entry.RecordedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	return out
}
