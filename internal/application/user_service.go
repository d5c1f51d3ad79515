package application

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"time"

	"github.com/example/project-tracker/internal/persistence"
)

// UserRepository captures the persistence operations needed by the user service.
type UserRepository interface {
	CreateUser(ctx context.Context, user persistence.User) error
	GetUser(ctx context.Context, id string) (persistence.User, error)
	ListTechnicians(ctx context.Context) ([]persistence.User, error)
	ListTechnicianStages(ctx context.Context, userID string) ([]persistence.TechnicianStage, error)
	ListTechnicianTasks(ctx context.Context, userID string) ([]persistence.TechnicianTask, error)
}

// PasswordHasher turns a plain password into a stored hash.
type PasswordHasher func(password string) (string, error)

// UserService orchestrates validation, authorization, and persistence for accounts.
type UserService struct {
	users        UserRepository
	hashPassword PasswordHasher
	idGenerator  func() string
	now          func() time.Time
	logger       *slog.Logger
}

// NewUserService wires dependencies for the user service.
func NewUserService(users UserRepository, hashPassword PasswordHasher, idGenerator func() string, now func() time.Time, logger *slog.Logger) *UserService {
	if hashPassword == nil {
		hashPassword = func(password string) (string, error) {
			return HashPassword(password, DefaultHashParams)
		}
	}
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &UserService{
		users:        users,
		hashPassword: hashPassword,
		idGenerator:  idGenerator,
		now:          now,
		logger:       defaultLogger(logger),
	}
}

// CreateUser validates input and persists a new account for administrators.
func (s *UserService) CreateUser(ctx context.Context, params CreateUserParams) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}
	if !params.Principal.IsAdmin() {
		return persistence.User{}, ErrUnauthorized
	}

	input := normalizeUserInput(params.Input)
	vErr := validateUserInput(input)
	if vErr.HasErrors() {
		return persistence.User{}, vErr
	}

	hash, err := s.hashPassword(input.Password)
	if err != nil {
		return persistence.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := persistence.User{
		ID:           s.idGenerator(),
		Username:     input.Username,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PasswordHash: hash,
		Role:         input.Role,
		Phone:        input.Phone,
		Email:        input.Email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	logger := serviceLogger(ctx, s.logger, "UserService", "CreateUser", "username", user.Username)

	if err := s.users.CreateUser(ctx, user); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "failed to create user", "error", err, "error_kind", ErrorKind(err))
		return persistence.User{}, err
	}

	logger.InfoContext(ctx, "user created", "user_id", user.ID, "role", user.Role)

	user.PasswordHash = ""
	return user, nil
}

// GetUser returns an account by ID with the password hash stripped.
func (s *UserService) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if s == nil {
		return persistence.User{}, fmt.Errorf("UserService is nil")
	}

	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		return persistence.User{}, mapRepoError(err)
	}

	user.PasswordHash = ""
	return user, nil
}

// ListTechnicians returns every technician account with hashes stripped.
func (s *UserService) ListTechnicians(ctx context.Context) ([]persistence.User, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}

	technicians, err := s.users.ListTechnicians(ctx)
	if err != nil {
		return nil, mapRepoError(err)
	}

	for i := range technicians {
		technicians[i].PasswordHash = ""
	}
	return technicians, nil
}

// TechnicianStages returns the stages assigned to a technician. Technicians
// may only see their own board.
func (s *UserService) TechnicianStages(ctx context.Context, principal Principal, userID string) ([]persistence.TechnicianStage, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := authorizeTechnicianView(principal, userID); err != nil {
		return nil, err
	}

	stages, err := s.users.ListTechnicianStages(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return stages, nil
}

// TechnicianTasks returns the technician task board: assigned stages with
// accumulated hours and latest comments.
func (s *UserService) TechnicianTasks(ctx context.Context, principal Principal, userID string) ([]persistence.TechnicianTask, error) {
	if s == nil {
		return nil, fmt.Errorf("UserService is nil")
	}
	if err := authorizeTechnicianView(principal, userID); err != nil {
		return nil, err
	}

	tasks, err := s.users.ListTechnicianTasks(ctx, userID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return tasks, nil
}

func authorizeTechnicianView(principal Principal, userID string) error {
	if principal.CanManageProjects() {
		return nil
	}
	if principal.UserID != "" && principal.UserID == userID {
		return nil
	}
	return ErrUnauthorized
}

func normalizeUserInput(input UserInput) UserInput {
	input.Username = trimmed(input.Username)
	input.FirstName = trimmed(input.FirstName)
	input.LastName = trimmed(input.LastName)
	input.Role = trimmed(input.Role)
	input.Phone = trimmed(input.Phone)
	input.Email = trimmed(input.Email)
	return input
}

func validateUserInput(input UserInput) *ValidationError {
	vErr := &ValidationError{}

	if input.Username == "" {
		vErr.add("username", "is required")
	}
	if len(input.Password) < 8 {
		vErr.add("password", "must be at least 8 characters")
	}
	if input.FirstName == "" {
		vErr.add("first_name", "is required")
	}
	if input.LastName == "" {
		vErr.add("last_name", "is required")
	}
	if !userRoles[input.Role] {
		vErr.add("role", "is not a valid role")
	}
	if input.Email != "" {
		if _, err := mail.ParseAddress(input.Email); err != nil {
			vErr.add("email", "must be a valid email address")
		}
	}

	return vErr
}
