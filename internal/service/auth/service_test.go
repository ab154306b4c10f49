package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/repository"
	"github.com/umn33q/adom-testovoe/internal/utils"
)

type fakeUserRepo struct {
	nextID int64
	users  map[int64]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[int64]*models.User{}}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *models.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return repository.ErrDuplicateEmail
		}
	}
	f.nextID++
	u.ID = f.nextID
	stored := *u
	f.users[u.ID] = &stored
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string, role models.UserRole) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email && u.Role == role {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) GetAll(ctx context.Context) ([]models.User, error) {
	var out []models.User
	for _, u := range f.users {
		out = append(out, *u)
	}
	return out, nil
}

func (f *fakeUserRepo) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	return nil, nil
}

func newTestService(t *testing.T) (*Service, *fakeUserRepo) {
	t.Helper()
	repo := newFakeUserRepo()
	return NewService(repo, utils.NewAuthManager("test-secret", time.Hour)), repo
}

func seedUser(t *testing.T, repo *fakeUserRepo, email string, role models.UserRole) *models.User {
	t.Helper()
	hash, err := utils.HashPassword("correct horse")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	user := &models.User{Name: "Test", Email: email, PasswordHash: hash, Role: role}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestLoginRealms(t *testing.T) {
	service, repo := newTestService(t)
	seedUser(t, repo, "admin@example.com", models.RoleAdmin)
	seedUser(t, repo, "user@example.com", models.RoleUser)

	t.Run("admin realm accepts admin", func(t *testing.T) {
		result, err := service.Login(context.Background(), models.RoleAdmin, models.LoginRequest{
			Email: "admin@example.com", Password: "correct horse",
		})
		if err != nil {
			t.Fatalf("Login failed: %v", err)
		}
		if result.Token == "" {
			t.Error("expected a token")
		}
	})

	t.Run("admin realm rejects regular user", func(t *testing.T) {
		_, err := service.Login(context.Background(), models.RoleAdmin, models.LoginRequest{
			Email: "user@example.com", Password: "correct horse",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("public realm rejects admin", func(t *testing.T) {
		_, err := service.Login(context.Background(), models.RoleUser, models.LoginRequest{
			Email: "admin@example.com", Password: "correct horse",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})

	t.Run("wrong password rejected", func(t *testing.T) {
		_, err := service.Login(context.Background(), models.RoleUser, models.LoginRequest{
			Email: "user@example.com", Password: "incorrect horse",
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Errorf("expected ErrUnauthorized, got %v", err)
		}
	})
}

func TestLoginTokenClaims(t *testing.T) {
	service, repo := newTestService(t)
	user := seedUser(t, repo, "user@example.com", models.RoleUser)

	result, err := service.Login(context.Background(), models.RoleUser, models.LoginRequest{
		Email: "user@example.com", Password: "correct horse",
	})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}

	claims, err := utils.NewAuthManager("test-secret", time.Hour).ParseToken(result.Token)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if claims.UserID != user.ID {
		t.Errorf("claims user id = %d, want %d", claims.UserID, user.ID)
	}
	if claims.Role != models.RoleUser {
		t.Errorf("claims role = %s, want %s", claims.Role, models.RoleUser)
	}
}

func TestRegister(t *testing.T) {
	service, _ := newTestService(t)

	t.Run("creates public-realm account", func(t *testing.T) {
		result, err := service.Register(context.Background(), models.RegisterRequest{
			Name: "New User", Email: "new@example.com", Password: "longenough",
		})
		if err != nil {
			t.Fatalf("Register failed: %v", err)
		}
		if result.User.Email != "new@example.com" {
			t.Errorf("unexpected user: %+v", result.User)
		}
		// The account must land in the public realm only.
		if _, err := service.Login(context.Background(), models.RoleAdmin, models.LoginRequest{
			Email: "new@example.com", Password: "longenough",
		}); !errors.Is(err, ErrUnauthorized) {
			t.Errorf("registered account must not work in the admin realm, got %v", err)
		}
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		_, err := service.Register(context.Background(), models.RegisterRequest{
			Name: "Other", Email: "new@example.com", Password: "longenough",
		})
		if !errors.Is(err, repository.ErrDuplicateEmail) {
			t.Errorf("expected ErrDuplicateEmail, got %v", err)
		}
	})

	t.Run("validation", func(t *testing.T) {
		tests := []models.RegisterRequest{
			{Name: "", Email: "a@example.com", Password: "longenough"},
			{Name: "A", Email: "not-an-email", Password: "longenough"},
			{Name: "A", Email: "a@example.com", Password: "short"},
		}
		for _, input := range tests {
			if _, err := service.Register(context.Background(), input); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation for %+v, got %v", input, err)
			}
		}
	})
}
