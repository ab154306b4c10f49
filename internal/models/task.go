package models

import "time"

type TaskStatus string

const (
	StatusPublished  TaskStatus = "published"
	StatusInProgress TaskStatus = "in-progress"
	StatusDone       TaskStatus = "done"
	StatusCanceled   TaskStatus = "canceled"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPublished, StatusInProgress, StatusDone, StatusCanceled:
		return true
	}
	return false
}

type ParticipantRole string

const (
	RoleCreator  ParticipantRole = "creator"
	RoleExecutor ParticipantRole = "executor"
	RoleObserver ParticipantRole = "observer"
)

func (r ParticipantRole) Valid() bool {
	switch r {
	case RoleCreator, RoleExecutor, RoleObserver:
		return true
	}
	return false
}

// Scope selects which visibility predicate governs a read: the admin
// console sees tasks the user participates in under any role, the
// public app only tasks where the user is executor or observer.
type Scope int

const (
	ScopeAdmin Scope = iota
	ScopePublic
)

// Participant is a (task, user, role) edge with the user fields joined in.
type Participant struct {
	ID    int64           `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Role  ParticipantRole `json:"role"`
}

type Task struct {
	ID           int64         `json:"id"`
	Title        string        `json:"title"`
	Description  string        `json:"description"`
	Status       TaskStatus    `json:"status"`
	DueDate      *time.Time    `json:"due_date"`
	Creator      *UserSummary  `json:"creator"`
	Executor     *UserSummary  `json:"executor"`
	Participants []Participant `json:"participants"`
	Comments     []Comment     `json:"comments,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

// RoleAssignment is one entry of the participants array in task
// create/update requests.
type RoleAssignment struct {
	UserID int64           `json:"user_id"`
	Role   ParticipantRole `json:"role"`
}

type CreateTaskRequest struct {
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Status       TaskStatus       `json:"status"`
	DueDate      *time.Time       `json:"due_date"`
	Participants []RoleAssignment `json:"participants"`
}

// UpdateTaskRequest carries a partial patch: nil fields keep the task's
// current value.
type UpdateTaskRequest struct {
	Title        *string          `json:"title"`
	Description  *string          `json:"description"`
	Status       *TaskStatus      `json:"status"`
	DueDate      *time.Time       `json:"due_date"`
	Participants []RoleAssignment `json:"participants"`
}

type TaskFilter struct {
	Status  TaskStatus
	Page    int
	PerPage int
}

type TaskPage struct {
	Tasks       []Task `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
}
