package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umn33q/adom-testovoe/internal/config"
)

var (
	// ErrNotFound covers both "row absent" and "row outside the caller's
	// access scope" so existence never leaks through error codes.
	ErrNotFound = errors.New("not found in database")

	// ErrNoCreator reports a task whose participant set has no creator
	// edge. The create path guarantees one, so hitting this means the
	// data is corrupted and the operation must not proceed.
	ErrNoCreator = errors.New("task has no creator participant")

	// ErrDuplicateRole reports more than one edge holding a role the
	// model treats as unique (creator, executor). Rejected instead of
	// resolved by picking an arbitrary edge.
	ErrDuplicateRole = errors.New("task has duplicate edges for a unique role")

	// ErrDuplicateEmail reports a unique violation on users.email.
	ErrDuplicateEmail = errors.New("email already registered")
)

func NewConnection(ctx context.Context, cfg config.PostgresConfig) (*pgxpool.Pool, error) {
	dbPath := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName)

	deadline := time.After(cfg.Timeout)
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			conn, err := pgxpool.New(ctx, dbPath)
			if err != nil {
				continue
			}
			if err = conn.Ping(ctx); err != nil {
				continue
			}
			slog.Info("connected to database", "host", cfg.Host, "dbname", cfg.DBName)
			return conn, nil

		case <-deadline:
			return nil, fmt.Errorf("unable to connect to database")
		}
	}
}
