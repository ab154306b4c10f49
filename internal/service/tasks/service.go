package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/umn33q/adom-testovoe/internal/models"
)

var ErrValidation = errors.New("validation failed")

type taskRepository interface {
	Create(ctx context.Context, t *models.Task, assignments []models.RoleAssignment) error
	GetByID(ctx context.Context, id, userID int64, scope models.Scope) (*models.Task, error)
	List(ctx context.Context, filter models.TaskFilter, userID int64, scope models.Scope) ([]models.Task, int, error)
	Update(ctx context.Context, t *models.Task, assignments []models.RoleAssignment) error
	Delete(ctx context.Context, id, userID int64, scope models.Scope) error
}

type commentRepository interface {
	ListByTask(ctx context.Context, taskID int64) ([]models.Comment, error)
}

type eventPublisher interface {
	TaskCreated(ctx context.Context, task *models.Task)
	TaskUpdated(ctx context.Context, task *models.Task)
}

type Service struct {
	repo     taskRepository
	comments commentRepository
	events   eventPublisher
}

func NewService(r taskRepository, cr commentRepository, events eventPublisher) *Service {
	return &Service{repo: r, comments: cr, events: events}
}

func (s *Service) Create(ctx context.Context, input models.CreateTaskRequest) (*models.Task, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}
	if !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, input.Status)
	}
	if err := validateAssignments(input.Participants, true); err != nil {
		return nil, err
	}

	now := time.Now()
	task := &models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, task, input.Participants); err != nil {
		return nil, err
	}

	// Notification is a side effect of the committed write, never part
	// of its atomicity boundary.
	s.events.TaskCreated(ctx, task)
	return task, nil
}

// Update applies a partial patch: nil fields keep the current value.
// When the patch carries a participant list without a creator entry,
// the task's existing creator is preserved by the repository sync
// rather than the update being rejected.
func (s *Service) Update(ctx context.Context, id int64, patch models.UpdateTaskRequest, callerID int64) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id, callerID, models.ScopeAdmin)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		if *patch.Title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrValidation)
		}
		task.Title = *patch.Title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Status != nil {
		if !patch.Status.Valid() {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *patch.Status)
		}
		task.Status = *patch.Status
	}
	if patch.DueDate != nil {
		task.DueDate = patch.DueDate
	}
	if patch.Participants != nil {
		if err := validateAssignments(patch.Participants, false); err != nil {
			return nil, err
		}
	}
	task.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, task, patch.Participants); err != nil {
		return nil, err
	}

	// Audience and payload reflect the post-update state.
	s.events.TaskUpdated(ctx, task)
	return task, nil
}

func (s *Service) Delete(ctx context.Context, id, callerID int64) error {
	return s.repo.Delete(ctx, id, callerID, models.ScopeAdmin)
}

func (s *Service) Get(ctx context.Context, id, callerID int64, scope models.Scope, includeComments bool) (*models.Task, error) {
	task, err := s.repo.GetByID(ctx, id, callerID, scope)
	if err != nil {
		return nil, err
	}
	if includeComments {
		task.Comments, err = s.comments.ListByTask(ctx, task.ID)
		if err != nil {
			return nil, err
		}
	}
	return task, nil
}

func (s *Service) List(ctx context.Context, filter models.TaskFilter, callerID int64, scope models.Scope) (*models.TaskPage, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, filter.Status)
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = 15
	}
	if filter.PerPage > 100 {
		filter.PerPage = 100
	}

	tasks, total, err := s.repo.List(ctx, filter, callerID, scope)
	if err != nil {
		return nil, err
	}

	lastPage := (total + filter.PerPage - 1) / filter.PerPage
	if lastPage < 1 {
		lastPage = 1
	}
	return &models.TaskPage{
		Tasks:       tasks,
		CurrentPage: filter.Page,
		LastPage:    lastPage,
		PerPage:     filter.PerPage,
		Total:       total,
	}, nil
}

// validateAssignments checks role values and the creator requirement.
// Create demands exactly one creator entry; update tolerates zero (the
// sync falls back to the existing creator) but still rejects more than
// one.
func validateAssignments(assignments []models.RoleAssignment, require bool) error {
	if require && len(assignments) == 0 {
		return fmt.Errorf("%w: participants are required", ErrValidation)
	}
	creators := map[int64]bool{}
	seen := map[int64]models.ParticipantRole{}
	for _, a := range assignments {
		if !a.Role.Valid() {
			return fmt.Errorf("%w: unknown participant role %q", ErrValidation, a.Role)
		}
		// A repeated user id replaces the earlier role, so only the
		// final role counts toward the creator tally.
		if seen[a.UserID] == models.RoleCreator {
			delete(creators, a.UserID)
		}
		if a.Role == models.RoleCreator {
			creators[a.UserID] = true
		}
		seen[a.UserID] = a.Role
	}
	if require && len(creators) == 0 {
		return fmt.Errorf("%w: participants must include a creator", ErrValidation)
	}
	if len(creators) > 1 {
		return fmt.Errorf("%w: participants cannot include more than one creator", ErrValidation)
	}
	return nil
}
