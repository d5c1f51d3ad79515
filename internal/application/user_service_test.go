package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/project-tracker/internal/persistence"
)

type userRepoStub struct {
	createErr error
	created   *persistence.User

	users map[string]persistence.User

	technicianStages []persistence.TechnicianStage
	technicianTasks  []persistence.TechnicianTask
}

func (r *userRepoStub) CreateUser(ctx context.Context, user persistence.User) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.created = &user
	return nil
}

func (r *userRepoStub) GetUser(ctx context.Context, id string) (persistence.User, error) {
	u, ok := r.users[id]
	if !ok {
		return persistence.User{}, persistence.ErrNotFound
	}
	return u, nil
}

func (r *userRepoStub) ListTechnicians(ctx context.Context) ([]persistence.User, error) {
	var out []persistence.User
	for _, u := range r.users {
		if u.Role == persistence.RoleTechnician {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *userRepoStub) ListTechnicianStages(ctx context.Context, userID string) ([]persistence.TechnicianStage, error) {
	return r.technicianStages, nil
}

func (r *userRepoStub) ListTechnicianTasks(ctx context.Context, userID string) ([]persistence.TechnicianTask, error) {
	return r.technicianTasks, nil
}

func validUserInput() UserInput {
	return UserInput{
		Username:  "eva",
		Password:  "secreto123",
		FirstName: "Eva",
		LastName:  "Luna",
		Role:      persistence.RoleTechnician,
		Email:     "eva@example.com",
	}
}

func TestUserService_CreateUser(t *testing.T) {
	admin := Principal{UserID: "u1", Role: persistence.RoleAdmin}

	t.Run("requires administrator privileges", func(t *testing.T) {
		svc := NewUserService(&userRepoStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{
			Principal: Principal{UserID: "u2", Role: persistence.RoleSupervisor},
			Input:     validUserInput(),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("hashes the password and strips it from the result", func(t *testing.T) {
		repo := &userRepoStub{}
		hasher := func(password string) (string, error) { return "hashed:" + password, nil }
		svc := NewUserService(repo, hasher, sequentialIDs(), fixedNow(t), nil)

		user, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: validUserInput()})
		if err != nil {
			t.Fatalf("CreateUser: %v", err)
		}
		if repo.created == nil || repo.created.PasswordHash != "hashed:secreto123" {
			t.Errorf("stored hash wrong: %+v", repo.created)
		}
		if user.PasswordHash != "" {
			t.Error("result must not carry the hash")
		}
	})

	t.Run("collects field errors", func(t *testing.T) {
		svc := NewUserService(&userRepoStub{}, nil, sequentialIDs(), fixedNow(t), nil)

		input := validUserInput()
		input.Password = "corta"
		input.Role = "boss"
		input.Email = "no-es-correo"

		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: input})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"password", "role", "email"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Errorf("expected error for %s, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("duplicate username maps to ErrAlreadyExists", func(t *testing.T) {
		repo := &userRepoStub{createErr: persistence.ErrDuplicate}
		svc := NewUserService(repo, nil, sequentialIDs(), fixedNow(t), nil)

		_, err := svc.CreateUser(context.Background(), CreateUserParams{Principal: admin, Input: validUserInput()})
		if !errors.Is(err, ErrAlreadyExists) {
			t.Errorf("expected ErrAlreadyExists, got %v", err)
		}
	})
}

func TestUserService_TechnicianBoards(t *testing.T) {
	repo := &userRepoStub{
		technicianStages: []persistence.TechnicianStage{{StageID: "s1"}},
		technicianTasks:  []persistence.TechnicianTask{{StageID: "s1"}},
	}
	svc := NewUserService(repo, nil, sequentialIDs(), fixedNow(t), nil)

	t.Run("technicians see their own board", func(t *testing.T) {
		principal := Principal{UserID: "u1", Role: persistence.RoleTechnician}
		stages, err := svc.TechnicianStages(context.Background(), principal, "u1")
		if err != nil {
			t.Fatalf("TechnicianStages: %v", err)
		}
		if len(stages) != 1 {
			t.Errorf("unexpected stages: %+v", stages)
		}
	})

	t.Run("technicians cannot see another board", func(t *testing.T) {
		principal := Principal{UserID: "u1", Role: persistence.RoleTechnician}
		if _, err := svc.TechnicianTasks(context.Background(), principal, "u2"); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("supervisors see any board", func(t *testing.T) {
		principal := Principal{UserID: "u3", Role: persistence.RoleSupervisor}
		if _, err := svc.TechnicianTasks(context.Background(), principal, "u2"); err != nil {
			t.Errorf("TechnicianTasks: %v", err)
		}
	})
}
