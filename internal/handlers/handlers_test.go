package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/repository"
	"github.com/umn33q/adom-testovoe/internal/service/auth"
	"github.com/umn33q/adom-testovoe/internal/service/tasks"
	"github.com/umn33q/adom-testovoe/internal/utils"
)

type stubAuthService struct{}

func (stubAuthService) Login(ctx context.Context, realm models.UserRole, input models.LoginRequest) (*models.LoginResponse, error) {
	if input.Email == "admin@example.com" && realm == models.RoleAdmin {
		return &models.LoginResponse{Token: "t", User: models.UserSummary{ID: 1}}, nil
	}
	return nil, auth.ErrUnauthorized
}

func (stubAuthService) Register(ctx context.Context, input models.RegisterRequest) (*models.LoginResponse, error) {
	if input.Email == "" {
		return nil, fmt.Errorf("%w: invalid email", auth.ErrValidation)
	}
	return &models.LoginResponse{Token: "t", User: models.UserSummary{ID: 2, Email: input.Email}}, nil
}

func (stubAuthService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return &models.User{ID: id, Name: "Test", Email: "test@example.com", Role: models.RoleUser}, nil
}

func (stubAuthService) ListUsers(ctx context.Context) ([]models.User, error) { return nil, nil }

func (stubAuthService) SearchUsers(ctx context.Context, term string) ([]models.User, error) {
	return nil, nil
}

type stubTaskService struct{}

func (stubTaskService) Create(ctx context.Context, input models.CreateTaskRequest) (*models.Task, error) {
	if len(input.Participants) == 0 {
		return nil, fmt.Errorf("%w: participants are required", tasks.ErrValidation)
	}
	return &models.Task{ID: 1, Title: input.Title}, nil
}

func (stubTaskService) Update(ctx context.Context, id int64, patch models.UpdateTaskRequest, callerID int64) (*models.Task, error) {
	return nil, repository.ErrNotFound
}

func (stubTaskService) Delete(ctx context.Context, id, callerID int64) error {
	return repository.ErrNotFound
}

func (stubTaskService) Get(ctx context.Context, id, callerID int64, scope models.Scope, includeComments bool) (*models.Task, error) {
	if id == 7 {
		return &models.Task{ID: 7, Title: "Visible"}, nil
	}
	return nil, repository.ErrNotFound
}

func (stubTaskService) List(ctx context.Context, filter models.TaskFilter, callerID int64, scope models.Scope) (*models.TaskPage, error) {
	return &models.TaskPage{Tasks: []models.Task{{ID: 7}}, CurrentPage: 1, LastPage: 1, PerPage: 15, Total: 1}, nil
}

type stubCommentService struct{}

func (stubCommentService) Create(ctx context.Context, taskID int64, input models.CreateCommentRequest, authorID int64, scope models.Scope) (*models.Comment, error) {
	return &models.Comment{ID: 1, Content: input.Content, TaskID: taskID}, nil
}

func (stubCommentService) ListForTask(ctx context.Context, taskID, callerID int64, scope models.Scope) ([]models.Comment, error) {
	return nil, nil
}

func (stubCommentService) Get(ctx context.Context, taskID, id int64) (*models.Comment, error) {
	return nil, repository.ErrNotFound
}

func (stubCommentService) Update(ctx context.Context, taskID, id int64, patch models.UpdateCommentRequest, authorID int64) (*models.Comment, error) {
	return nil, repository.ErrNotFound
}

func (stubCommentService) Delete(ctx context.Context, taskID, id, authorID int64) error {
	return repository.ErrNotFound
}

func newTestRouter(t *testing.T) (*chi.Mux, *utils.AuthManager) {
	t.Helper()
	tokens := utils.NewAuthManager("test-secret", time.Hour)
	h := NewHandler(stubAuthService{}, stubTaskService{}, stubCommentService{}, tokens,
		slog.New(slog.NewTextHandler(io.Discard, nil)))

	router := chi.NewRouter()
	router.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)
		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Use(h.RequireRole(models.RoleAdmin))
			r.Get("/tasks", h.AdminListTasks)
			r.Post("/tasks", h.CreateTask)
			r.Get("/tasks/{id}", h.AdminGetTask)
		})
	})
	return router, tokens
}

func token(t *testing.T, tokens *utils.AuthManager, role models.UserRole) string {
	t.Helper()
	value, err := tokens.GenerateToken(&models.User{ID: 1, Name: "Test", Role: role})
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return value
}

func doRequest(t *testing.T, router http.Handler, method, path, bearer, body string) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	request := httptest.NewRequest(method, path, reader)
	if bearer != "" {
		request.Header.Set("Authorization", "Bearer "+bearer)
	}
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, request)

	var envelope response
	if err := json.Unmarshal(recorder.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not the JSON envelope: %v (%s)", err, recorder.Body.String())
	}
	return recorder, envelope
}

func TestAuthRequired(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder, envelope := doRequest(t, router, http.MethodGet, "/api/admin/tasks", "", "")
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
}

func TestWrongRealmForbidden(t *testing.T) {
	router, tokens := newTestRouter(t)

	recorder, envelope := doRequest(t, router, http.MethodGet, "/api/admin/tasks",
		token(t, tokens, models.RoleUser), "")
	if recorder.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", recorder.Code)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
}

func TestTaskNotFound(t *testing.T) {
	router, tokens := newTestRouter(t)

	recorder, _ := doRequest(t, router, http.MethodGet, "/api/admin/tasks/99",
		token(t, tokens, models.RoleAdmin), "")
	if recorder.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", recorder.Code)
	}
}

func TestValidationErrorStatus(t *testing.T) {
	router, tokens := newTestRouter(t)

	recorder, envelope := doRequest(t, router, http.MethodPost, "/api/admin/tasks",
		token(t, tokens, models.RoleAdmin),
		`{"title":"x","status":"published","participants":[]}`)
	if recorder.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", recorder.Code)
	}
	if envelope.Message == "" {
		t.Error("validation failures should carry a message")
	}
}

func TestGetTaskEnvelope(t *testing.T) {
	router, tokens := newTestRouter(t)

	recorder, envelope := doRequest(t, router, http.MethodGet, "/api/admin/tasks/7",
		token(t, tokens, models.RoleAdmin), "")
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", recorder.Code)
	}
	if !envelope.Success {
		t.Error("expected success=true")
	}
	if envelope.Data == nil {
		t.Error("expected data payload")
	}
}

func TestLoginStatuses(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder, _ := doRequest(t, router, http.MethodPost, "/api/admin/login", "",
		`{"email":"admin@example.com","password":"pw"}`)
	if recorder.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", recorder.Code)
	}

	recorder, envelope := doRequest(t, router, http.MethodPost, "/api/admin/login", "",
		`{"email":"user@example.com","password":"pw"}`)
	if recorder.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", recorder.Code)
	}
	if envelope.Success {
		t.Error("expected success=false")
	}
}
