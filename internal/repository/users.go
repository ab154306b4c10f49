package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umn33q/adom-testovoe/internal/models"
)

type UserRepository struct {
	db      *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *UserRepository) Create(ctx context.Context, u *models.User) error {
	query, args, err := r.builder.
		Insert("users").
		Columns("name", "email", "password_hash", "role").
		Values(u.Name, u.Email, u.PasswordHash, u.Role).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	err = r.db.QueryRow(ctx, query, args...).Scan(&u.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByEmail looks up a user within one authentication realm: the row
// must match both the email and the given role.
func (r *UserRepository) GetByEmail(ctx context.Context, email string, role models.UserRole) (*models.User, error) {
	query, args, err := r.builder.
		Select("id", "name", "email", "password_hash", "role").
		From("users").
		Where(squirrel.Eq{"email": email, "role": role}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	err = r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query, args, err := r.builder.
		Select("id", "name", "email", "password_hash", "role").
		From("users").
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var u models.User
	err = r.db.QueryRow(ctx, query, args...).Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role)
	if err != nil {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *UserRepository) GetAll(ctx context.Context) ([]models.User, error) {
	query, args, err := r.builder.
		Select("id", "name", "email", "role").
		From("users").
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, query, args)
}

// Search matches name or email case-insensitively, for the participant
// picker in the admin console.
func (r *UserRepository) Search(ctx context.Context, term string, limit int) ([]models.User, error) {
	pattern := "%" + term + "%"
	query, args, err := r.builder.
		Select("id", "name", "email", "role").
		From("users").
		Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"email": pattern},
		}).
		OrderBy("name").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, err
	}
	return r.queryUsers(ctx, query, args)
}

func (r *UserRepository) queryUsers(ctx context.Context, query string, args []any) ([]models.User, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
