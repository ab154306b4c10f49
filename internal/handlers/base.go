package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/repository"
	"github.com/umn33q/adom-testovoe/internal/service/auth"
	"github.com/umn33q/adom-testovoe/internal/service/comments"
	"github.com/umn33q/adom-testovoe/internal/service/tasks"
	"github.com/umn33q/adom-testovoe/internal/utils"
)

type authService interface {
	Login(ctx context.Context, realm models.UserRole, input models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, input models.RegisterRequest) (*models.LoginResponse, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	SearchUsers(ctx context.Context, term string) ([]models.User, error)
}

type taskService interface {
	Create(ctx context.Context, input models.CreateTaskRequest) (*models.Task, error)
	Update(ctx context.Context, id int64, patch models.UpdateTaskRequest, callerID int64) (*models.Task, error)
	Delete(ctx context.Context, id, callerID int64) error
	Get(ctx context.Context, id, callerID int64, scope models.Scope, includeComments bool) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter, callerID int64, scope models.Scope) (*models.TaskPage, error)
}

type commentService interface {
	Create(ctx context.Context, taskID int64, input models.CreateCommentRequest, authorID int64, scope models.Scope) (*models.Comment, error)
	ListForTask(ctx context.Context, taskID, callerID int64, scope models.Scope) ([]models.Comment, error)
	Get(ctx context.Context, taskID, id int64) (*models.Comment, error)
	Update(ctx context.Context, taskID, id int64, patch models.UpdateCommentRequest, authorID int64) (*models.Comment, error)
	Delete(ctx context.Context, taskID, id, authorID int64) error
}

type Handler struct {
	Auth     authService
	Tasks    taskService
	Comments commentService
	Tokens   *utils.AuthManager
	Logger   *slog.Logger
}

func NewHandler(as authService, ts taskService, cs commentService, tokens *utils.AuthManager, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		Auth:     as,
		Tasks:    ts,
		Comments: cs,
		Tokens:   tokens,
		Logger:   logger,
	}
}

type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
}

func (h *Handler) respond(w http.ResponseWriter, status int, data any) {
	h.write(w, status, response{Success: true, Data: data})
}

func (h *Handler) respondMessage(w http.ResponseWriter, status int, message string) {
	h.write(w, status, response{Success: true, Message: message})
}

func (h *Handler) fail(w http.ResponseWriter, status int, message string) {
	h.write(w, status, response{Success: false, Message: message})
}

func (h *Handler) write(w http.ResponseWriter, status int, body response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.Logger.Error("write response failed", "error", err)
	}
}

// respondError maps service errors onto the JSON envelope. Not-found
// and out-of-scope are the same 404; integrity violations and anything
// unrecognized become an opaque 500.
func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		h.fail(w, http.StatusNotFound, "not found")
	case errors.Is(err, auth.ErrUnauthorized):
		h.fail(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, tasks.ErrValidation),
		errors.Is(err, comments.ErrValidation),
		errors.Is(err, auth.ErrValidation),
		errors.Is(err, repository.ErrDuplicateEmail):
		h.fail(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.Logger.Error("request failed", "error", err)
		h.fail(w, http.StatusInternalServerError, "internal error")
	}
}

type ctxKey int

const claimsKey ctxKey = iota

// AuthMiddleware parses the bearer token and stores the claims in the
// request context.
func (h *Handler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.fail(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		claims, err := h.Tokens.ParseToken(token)
		if err != nil {
			h.fail(w, http.StatusUnauthorized, "not authenticated")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), claimsKey, claims)))
	})
}

// RequireRole gates a surface to its realm: the admin console only
// admits admin tokens, the public app only user tokens.
func (h *Handler) RequireRole(role models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := callerClaims(r)
			if claims == nil || claims.Role != role {
				h.fail(w, http.StatusForbidden, "access denied")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func callerClaims(r *http.Request) *models.Claims {
	claims, _ := r.Context().Value(claimsKey).(*models.Claims)
	return claims
}
