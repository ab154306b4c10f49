package repository

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umn33q/adom-testovoe/internal/models"
)

type CommentRepository struct {
	db      *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

func NewCommentRepository(db *pgxpool.Pool) *CommentRepository {
	return &CommentRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (r *CommentRepository) Create(ctx context.Context, c *models.Comment) error {
	query, args, err := r.builder.
		Insert("comments").
		Columns("content", "task_id", "user_id", "created_at", "updated_at").
		Values(c.Content, c.TaskID, c.User.ID, c.CreatedAt, c.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(&c.ID); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}
	return nil
}

func (r *CommentRepository) GetByID(ctx context.Context, id int64) (*models.Comment, error) {
	query, args, err := r.selectComments().
		Where(squirrel.Eq{"c.id": id}).
		ToSql()
	if err != nil {
		return nil, err
	}

	var c models.Comment
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&c.ID, &c.Content, &c.TaskID, &c.User.ID, &c.User.Name, &c.User.Email, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (r *CommentRepository) ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error) {
	query, args, err := r.selectComments().
		Where(squirrel.Eq{"c.task_id": taskID}).
		OrderBy("c.created_at ASC", "c.id ASC").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []models.Comment
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.Content, &c.TaskID, &c.User.ID, &c.User.Name, &c.User.Email, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

// Update rewrites the comment body. The author condition is part of the
// statement, so a non-author caller gets the same ErrNotFound as a
// missing comment.
func (r *CommentRepository) Update(ctx context.Context, c *models.Comment, authorID int64) error {
	query, args, err := r.builder.
		Update("comments").
		Set("content", c.Content).
		Set("updated_at", c.UpdatedAt).
		Where(squirrel.Eq{"id": c.ID, "user_id": authorID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepository) Delete(ctx context.Context, id, authorID int64) error {
	query, args, err := r.builder.
		Delete("comments").
		Where(squirrel.Eq{"id": id, "user_id": authorID}).
		ToSql()
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *CommentRepository) selectComments() squirrel.SelectBuilder {
	return r.builder.
		Select("c.id", "c.content", "c.task_id", "u.id", "u.name", "u.email", "c.created_at", "c.updated_at").
		From("comments c").
		Join("users u ON u.id = c.user_id")
}
