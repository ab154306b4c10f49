package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/umn33q/adom-testovoe/internal/broadcast"
	"github.com/umn33q/adom-testovoe/internal/config"
	"github.com/umn33q/adom-testovoe/internal/handlers"
	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/repository"
	"github.com/umn33q/adom-testovoe/internal/service/auth"
	"github.com/umn33q/adom-testovoe/internal/service/comments"
	"github.com/umn33q/adom-testovoe/internal/service/tasks"
	"github.com/umn33q/adom-testovoe/internal/utils"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg := config.MustLoad()

	conn, err := repository.NewConnection(ctx, cfg.PostgresConfig)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}

	userRepo := repository.NewUserRepository(conn)
	taskRepo := repository.NewTaskRepository(conn)
	commentRepo := repository.NewCommentRepository(conn)

	gateway, err := broadcast.NewGateway(broadcast.GatewayConfig{
		BaseURL: cfg.RealtimeConfig.GatewayURL,
		AppKey:  cfg.RealtimeConfig.AppKey,
		Logger:  logger,
	})
	if err != nil {
		log.Fatalf("failed to create realtime gateway: %v", err)
	}
	fanout := broadcast.NewFanout(gateway, cfg.RealtimeConfig.SendTimeout, logger)

	authManager := utils.NewAuthManager(cfg.AuthConfig.JWTSecret, cfg.AuthConfig.TokenTTL)
	authService := auth.NewService(userRepo, authManager)
	taskService := tasks.NewService(taskRepo, commentRepo, fanout)
	commentService := comments.NewService(commentRepo, taskRepo, fanout)

	h := handlers.NewHandler(authService, taskService, commentService, authManager, logger)

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)

	router.Route("/api/public", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.PublicLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Use(h.RequireRole(models.RoleUser))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)
			r.Get("/tasks", h.PublicListTasks)
			r.Get("/tasks/{id}", h.PublicGetTask)
			r.Post("/tasks/{taskID}/comments", h.PublicCreateComment)
		})
	})

	router.Route("/api/admin", func(r chi.Router) {
		r.Post("/login", h.AdminLogin)

		r.Group(func(r chi.Router) {
			r.Use(h.AuthMiddleware)
			r.Use(h.RequireRole(models.RoleAdmin))
			r.Post("/logout", h.Logout)
			r.Get("/me", h.Me)

			r.Get("/users", h.ListUsers)
			r.Get("/users/search", h.SearchUsers)

			r.Get("/tasks", h.AdminListTasks)
			r.Post("/tasks", h.CreateTask)
			r.Get("/tasks/{id}", h.AdminGetTask)
			r.Put("/tasks/{id}", h.UpdateTask)
			r.Delete("/tasks/{id}", h.DeleteTask)

			r.Get("/tasks/{taskID}/comments", h.ListComments)
			r.Post("/tasks/{taskID}/comments", h.AdminCreateComment)
			r.Get("/tasks/{taskID}/comments/{id}", h.GetComment)
			r.Put("/tasks/{taskID}/comments/{id}", h.UpdateComment)
			r.Delete("/tasks/{taskID}/comments/{id}", h.DeleteComment)
		})
	})

	logger.Info("start listening", "port", cfg.ServerConfig.Port)
	log.Fatal(http.ListenAndServe("[::]:"+cfg.ServerConfig.Port, router))
}
