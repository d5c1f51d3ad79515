package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/example/project-tracker/internal/application"
	"github.com/example/project-tracker/internal/persistence"
)

type userService interface {
	CreateUser(ctx context.Context, params application.CreateUserParams) (persistence.User, error)
	GetUser(ctx context.Context, id string) (persistence.User, error)
	ListTechnicians(ctx context.Context) ([]persistence.User, error)
	TechnicianStages(ctx context.Context, principal application.Principal, userID string) ([]persistence.TechnicianStage, error)
	TechnicianTasks(ctx context.Context, principal application.Principal, userID string) ([]persistence.TechnicianTask, error)
}

// UserHandler exposes account management and technician board endpoints.
type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.log(r.Context(), "Create", "principal_id", principal.UserID, "error_kind", "bad_request").ErrorContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	user, err := h.service.CreateUser(r.Context(), application.CreateUserParams{
		Principal: principal,
		Input:     req.toInput(),
	})
	if err != nil {
		logger.ErrorContext(r.Context(), "user creation failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := strings.TrimSpace(mux.Vars(r)["id"])
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		h.log(r.Context(), "Get", "user_id", userID).ErrorContext(r.Context(), "user lookup failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, userResponse{User: toUserDTO(user)})
}

func (h *UserHandler) ListTechnicians(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	logger := h.log(r.Context(), "ListTechnicians")
	technicians, err := h.service.ListTechnicians(r.Context())
	if err != nil {
		logger.ErrorContext(r.Context(), "technician list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("result_count", len(technicians)).InfoContext(r.Context(), "technicians listed")
	h.responder.writeJSON(r.Context(), w, http.StatusOK, listUsersResponse{Users: toUserDTOs(technicians)})
}

func (h *UserHandler) TechnicianStages(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := strings.TrimSpace(mux.Vars(r)["id"])
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "TechnicianStages", "principal_id", principal.UserID, "user_id", userID)

	stages, err := h.service.TechnicianStages(r.Context(), principal, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "technician stage list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, technicianStagesResponse{Stages: toTechnicianStageDTOs(stages)})
}

func (h *UserHandler) TechnicianTasks(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	userID := strings.TrimSpace(mux.Vars(r)["id"])
	if userID == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "TechnicianTasks", "principal_id", principal.UserID, "user_id", userID)

	tasks, err := h.service.TechnicianTasks(r.Context(), principal, userID)
	if err != nil {
		logger.ErrorContext(r.Context(), "technician task list failed", "error", err, "error_kind", application.ErrorKind(err))
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, technicianTasksResponse{Tasks: toTechnicianTaskDTOs(tasks)})
}

type userRequest struct {
	Username  string `json:"username"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
}

func (r userRequest) toInput() application.UserInput {
	return application.UserInput{
		Username:  strings.TrimSpace(r.Username),
		Password:  r.Password,
		FirstName: strings.TrimSpace(r.FirstName),
		LastName:  strings.TrimSpace(r.LastName),
		Role:      strings.TrimSpace(r.Role),
		Phone:     strings.TrimSpace(r.Phone),
		Email:     strings.TrimSpace(r.Email),
	}
}

type userResponse struct {
	User userDTO `json:"user"`
}

type listUsersResponse struct {
	Users []userDTO `json:"users"`
}

type userDTO struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      string `json:"role"`
	Phone     string `json:"phone,omitempty"`
	Email     string `json:"email,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

func toUserDTO(user persistence.User) userDTO {
	return userDTO{
		ID:        user.ID,
		Username:  user.Username,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Role:      user.Role,
		Phone:     user.Phone,
		Email:     user.Email,
		CreatedAt: user.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: user.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toUserDTOs(users []persistence.User) []userDTO {
	if len(users) == 0 {
		return nil
	}
	out := make([]userDTO, 0, len(users))
	for _, user := range users {
		out = append(out, toUserDTO(user))
	}
	return out
}

type technicianStagesResponse struct {
	Stages []technicianStageDTO `json:"stages"`
}

type technicianStageDTO struct {
	StageID     string  `json:"stage_id"`
	StageName   string  `json:"stage_name"`
	Status      string  `json:"status"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	ProjectName string  `json:"project_name"`
	Client      string  `json:"client"`
	DueDate     string  `json:"due_date"`
}

func toTechnicianStageDTOs(stages []persistence.TechnicianStage) []technicianStageDTO {
	if len(stages) == 0 {
		return nil
	}
	out := make([]technicianStageDTO, 0, len(stages))
	for _, stage := range stages {
		out = append(out, technicianStageDTO{
			StageID:     stage.StageID,
			StageName:   stage.StageName,
			Status:      stage.Status,
			StartDate:   stage.StartDate,
			EndDate:     stage.EndDate,
			ProjectName: stage.ProjectName,
			Client:      stage.Client,
			DueDate:     stage.DueDate,
		})
	}
	return out
}

type technicianTasksResponse struct {
	Tasks []technicianTaskDTO `json:"tasks"`
}

type technicianTaskDTO struct {
	StageID        string  `json:"stage_id"`
	ProjectName    string  `json:"project_name"`
	StageName      string  `json:"stage_name"`
	StartDate      *string `json:"start_date"`
	EndDate        *string `json:"end_date"`
	EstimatedHours int     `json:"estimated_hours"`
	Status         string  `json:"status"`
	RealHours      float64 `json:"real_hours"`
	Comment        *string `json:"comment"`
}

func toTechnicianTaskDTOs(tasks []persistence.TechnicianTask) []technicianTaskDTO {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]technicianTaskDTO, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, technicianTaskDTO{
			StageID:        task.StageID,
			ProjectName:    task.ProjectName,
			StageName:      task.StageName,
			StartDate:      task.StartDate,
			EndDate:        task.EndDate,
			EstimatedHours: task.EstimatedHours,
			Status:         task.Status,
			RealHours:      task.RealHours,
			Comment:        task.Comment,
		})
	}
	return out
}
