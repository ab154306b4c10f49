package comments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umn33q/adom-testovoe/internal/models"
	"github.com/umn33q/adom-testovoe/internal/repository"
)

var ErrValidation = errors.New("validation failed")

type commentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id int64) (*models.Comment, error)
	ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error)
	Update(ctx context.Context, c *models.Comment, authorID int64) error
	Delete(ctx context.Context, id, authorID int64) error
}

type taskReader interface {
	GetByID(ctx context.Context, id, userID int64, scope models.Scope) (*models.Task, error)
}

type eventPublisher interface {
	CommentCreated(ctx context.Context, comment *models.Comment, task *models.Task)
}

type Service struct {
	repo   commentRepository
	tasks  taskReader
	events eventPublisher
}

func NewService(r commentRepository, tasks taskReader, events eventPublisher) *Service {
	return &Service{repo: r, tasks: tasks, events: events}
}

// Create posts a comment on a task the author can see under the calling
// surface's scope, then notifies every other participant.
func (s *Service) Create(ctx context.Context, taskID int64, input models.CreateCommentRequest, authorID int64, scope models.Scope) (*models.Comment, error) {
	if input.Content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}

	task, err := s.tasks.GetByID(ctx, taskID, authorID, scope)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	comment := &models.Comment{
		Content:   input.Content,
		TaskID:    task.ID,
		User:      models.UserSummary{ID: authorID},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, err
	}
	comment, err = s.repo.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, err
	}

	s.events.CommentCreated(ctx, comment, task)
	return comment, nil
}

func (s *Service) ListForTask(ctx context.Context, taskID, callerID int64, scope models.Scope) ([]models.Comment, error) {
	if _, err := s.tasks.GetByID(ctx, taskID, callerID, scope); err != nil {
		return nil, err
	}
	return s.repo.ListByTask(ctx, taskID)
}

func (s *Service) Get(ctx context.Context, taskID, id int64) (*models.Comment, error) {
	comment, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.TaskID != taskID {
		return nil, repository.ErrNotFound
	}
	return comment, nil
}

// Update rewrites the comment body. Only the author may modify a
// comment; anyone else gets the same not-found as a missing comment.
func (s *Service) Update(ctx context.Context, taskID, id int64, patch models.UpdateCommentRequest, authorID int64) (*models.Comment, error) {
	comment, err := s.Get(ctx, taskID, id)
	if err != nil {
		return nil, err
	}
	if patch.Content != nil {
		if *patch.Content == "" {
			return nil, fmt.Errorf("%w: content cannot be empty", ErrValidation)
		}
		comment.Content = *patch.Content
	}
	comment.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, comment, authorID); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *Service) Delete(ctx context.Context, taskID, id, authorID int64) error {
	if _, err := s.Get(ctx, taskID, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id, authorID)
}
