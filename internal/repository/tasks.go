package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/umn33q/adom-testovoe/internal/models"
)

type TaskRepository struct {
	db      *pgxpool.Pool
	builder squirrel.StatementBuilderType
}

func NewTaskRepository(db *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{
		db:      db,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// scopePredicate builds the visibility condition pushed into every read
// query. Filtering happens in SQL so pagination counts never reveal the
// existence of tasks outside the caller's scope.
func scopePredicate(userID int64, scope models.Scope) squirrel.Sqlizer {
	if scope == models.ScopePublic {
		return squirrel.Expr(
			"EXISTS (SELECT 1 FROM task_participants tp WHERE tp.task_id = tasks.id AND tp.user_id = ? AND tp.role IN (?, ?))",
			userID, models.RoleExecutor, models.RoleObserver,
		)
	}
	return squirrel.Expr(
		"EXISTS (SELECT 1 FROM task_participants tp WHERE tp.task_id = tasks.id AND tp.user_id = ?)",
		userID,
	)
}

func (r *TaskRepository) Create(ctx context.Context, t *models.Task, assignments []models.RoleAssignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.builder.
		Insert("tasks").
		Columns("title", "description", "status", "due_date", "created_at", "updated_at").
		Values(t.Title, t.Description, t.Status, t.DueDate, t.CreatedAt, t.UpdatedAt).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, query, args...).Scan(&t.ID); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	if err := r.insertEdges(ctx, tx, t.ID, dedupeAssignments(assignments)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task create: %w", err)
	}

	t.Participants, err = r.GetParticipants(ctx, t.ID)
	if err != nil {
		return err
	}
	return deriveRoles(t)
}

func (r *TaskRepository) GetByID(ctx context.Context, id, userID int64, scope models.Scope) (*models.Task, error) {
	query, args, err := r.builder.
		Select("id", "title", "description", "status", "due_date", "created_at", "updated_at").
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		Where(scopePredicate(userID, scope)).
		ToSql()
	if err != nil {
		return nil, err
	}

	var t models.Task
	err = r.db.QueryRow(ctx, query, args...).Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, ErrNotFound
	}

	t.Participants, err = r.GetParticipants(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	if err := deriveRoles(&t); err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, filter models.TaskFilter, userID int64, scope models.Scope) ([]models.Task, int, error) {
	base := r.builder.
		Select().
		From("tasks").
		Where(scopePredicate(userID, scope))
	if filter.Status != "" {
		base = base.Where(squirrel.Eq{"status": filter.Status})
	}

	countQuery, countArgs, err := base.Column("COUNT(*)").ToSql()
	if err != nil {
		return nil, 0, err
	}
	var total int
	if err := r.db.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tasks: %w", err)
	}

	offset := (filter.Page - 1) * filter.PerPage
	query, args, err := base.
		Columns("id", "title", "description", "status", "due_date", "created_at", "updated_at").
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(filter.PerPage)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tasks []models.Task
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	if err := r.loadParticipants(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

// Update writes the patched task row and, when assignments is non-nil,
// replaces the participant edge set in the same transaction. The row
// update takes the task's row lock first, so concurrent participant
// replacements on one task serialize and the creator-fallback read in
// syncParticipants observes a consistent snapshot.
func (r *TaskRepository) Update(ctx context.Context, t *models.Task, assignments []models.RoleAssignment) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.builder.
		Update("tasks").
		Set("title", t.Title).
		Set("description", t.Description).
		Set("status", t.Status).
		Set("due_date", t.DueDate).
		Set("updated_at", t.UpdatedAt).
		Where(squirrel.Eq{"id": t.ID}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("update task: %w", err)
	}

	if assignments != nil {
		if err := r.syncParticipants(ctx, tx, t.ID, assignments); err != nil {
			return err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit task update: %w", err)
	}

	t.Participants, err = r.GetParticipants(ctx, t.ID)
	if err != nil {
		return err
	}
	return deriveRoles(t)
}

// Delete removes the task together with everything it owns: comments
// and participant edges go in the same transaction so nothing is
// orphaned.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64, scope models.Scope) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query, args, err := r.builder.
		Select("id").
		From("tasks").
		Where(squirrel.Eq{"id": id}).
		Where(scopePredicate(userID, scope)).
		Suffix("FOR UPDATE").
		ToSql()
	if err != nil {
		return err
	}
	var found int64
	if err := tx.QueryRow(ctx, query, args...).Scan(&found); err != nil {
		return ErrNotFound
	}

	for _, del := range []squirrel.DeleteBuilder{
		r.builder.Delete("comments").Where(squirrel.Eq{"task_id": id}),
		r.builder.Delete("task_participants").Where(squirrel.Eq{"task_id": id}),
		r.builder.Delete("tasks").Where(squirrel.Eq{"id": id}),
	} {
		query, args, err := del.ToSql()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, query, args...); err != nil {
			return fmt.Errorf("cascade delete task %d: %w", id, err)
		}
	}
	return tx.Commit(ctx)
}

func (r *TaskRepository) GetParticipants(ctx context.Context, taskID int64) ([]models.Participant, error) {
	query, args, err := r.builder.
		Select("u.id", "u.name", "u.email", "tp.role").
		From("task_participants tp").
		Join("users u ON u.id = tp.user_id").
		Where(squirrel.Eq{"tp.task_id": taskID}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.Name, &p.Email, &p.Role); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

// syncParticipants replaces a task's edge set: edges absent from the
// new set are removed, present ones are upserted keyed by (task, user).
// If the new set contains no creator, the task's existing creator is
// re-inserted; a task with no prior creator at that point is corrupt
// and the sync fails with ErrNoCreator.
func (r *TaskRepository) syncParticipants(ctx context.Context, tx pgx.Tx, taskID int64, assignments []models.RoleAssignment) error {
	assignments = dedupeAssignments(assignments)

	if !hasCreator(assignments) {
		creatorID, err := r.currentCreator(ctx, tx, taskID)
		if err != nil {
			return err
		}
		assignments = withFallbackCreator(assignments, creatorID)
	}

	keep := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		keep = append(keep, a.UserID)
	}
	query, args, err := r.builder.
		Delete("task_participants").
		Where(squirrel.Eq{"task_id": taskID}).
		Where(squirrel.NotEq{"user_id": keep}).
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("remove stale participants: %w", err)
	}

	return r.insertEdges(ctx, tx, taskID, assignments)
}

func (r *TaskRepository) insertEdges(ctx context.Context, tx pgx.Tx, taskID int64, assignments []models.RoleAssignment) error {
	now := time.Now()
	insert := r.builder.
		Insert("task_participants").
		Columns("task_id", "user_id", "role", "created_at", "updated_at")
	for _, a := range assignments {
		insert = insert.Values(taskID, a.UserID, a.Role, now, now)
	}
	query, args, err := insert.
		Suffix("ON CONFLICT (task_id, user_id) DO UPDATE SET role = EXCLUDED.role, updated_at = EXCLUDED.updated_at").
		ToSql()
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("upsert participants: %w", err)
	}
	return nil
}

func (r *TaskRepository) currentCreator(ctx context.Context, tx pgx.Tx, taskID int64) (int64, error) {
	query, args, err := r.builder.
		Select("user_id").
		From("task_participants").
		Where(squirrel.Eq{"task_id": taskID, "role": models.RoleCreator}).
		ToSql()
	if err != nil {
		return 0, err
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, err
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	switch len(ids) {
	case 0:
		return 0, ErrNoCreator
	case 1:
		return ids[0], nil
	default:
		return 0, ErrDuplicateRole
	}
}

// loadParticipants fills the participant set for a page of tasks with a
// single query.
func (r *TaskRepository) loadParticipants(ctx context.Context, tasks []models.Task) error {
	if len(tasks) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(tasks))
	index := make(map[int64]*models.Task, len(tasks))
	for i := range tasks {
		ids = append(ids, tasks[i].ID)
		index[tasks[i].ID] = &tasks[i]
	}

	query, args, err := r.builder.
		Select("tp.task_id", "u.id", "u.name", "u.email", "tp.role").
		From("task_participants tp").
		Join("users u ON u.id = tp.user_id").
		Where(squirrel.Eq{"tp.task_id": ids}).
		OrderBy("u.id").
		ToSql()
	if err != nil {
		return err
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var taskID int64
		var p models.Participant
		if err := rows.Scan(&taskID, &p.ID, &p.Name, &p.Email, &p.Role); err != nil {
			return err
		}
		if t, ok := index[taskID]; ok {
			t.Participants = append(t.Participants, p)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for i := range tasks {
		if err := deriveRoles(&tasks[i]); err != nil {
			return err
		}
	}
	return nil
}

// dedupeAssignments collapses repeated user ids: the last role given
// for a user wins, so re-specifying a user updates their role instead
// of adding a second edge.
func dedupeAssignments(assignments []models.RoleAssignment) []models.RoleAssignment {
	roles := make(map[int64]models.ParticipantRole, len(assignments))
	order := make([]int64, 0, len(assignments))
	for _, a := range assignments {
		if _, seen := roles[a.UserID]; !seen {
			order = append(order, a.UserID)
		}
		roles[a.UserID] = a.Role
	}
	out := make([]models.RoleAssignment, 0, len(order))
	for _, id := range order {
		out = append(out, models.RoleAssignment{UserID: id, Role: roles[id]})
	}
	return out
}

func hasCreator(assignments []models.RoleAssignment) bool {
	for _, a := range assignments {
		if a.Role == models.RoleCreator {
			return true
		}
	}
	return false
}

// withFallbackCreator re-inserts the task's prior creator into an
// assignment set that lacks one. If the prior creator already appears
// under another role, that entry is promoted back to creator.
func withFallbackCreator(assignments []models.RoleAssignment, creatorID int64) []models.RoleAssignment {
	for i, a := range assignments {
		if a.UserID == creatorID {
			assignments[i].Role = models.RoleCreator
			return assignments
		}
	}
	return append(assignments, models.RoleAssignment{UserID: creatorID, Role: models.RoleCreator})
}

// deriveRoles fills the Creator and Executor fields from the loaded
// participant set. Creator and executor are unique roles; finding more
// than one edge for either means the stored set violates the model and
// the read is rejected instead of silently picking one.
func deriveRoles(t *models.Task) error {
	t.Creator = nil
	t.Executor = nil
	for _, p := range t.Participants {
		summary := models.UserSummary{ID: p.ID, Name: p.Name, Email: p.Email}
		switch p.Role {
		case models.RoleCreator:
			if t.Creator != nil {
				return ErrDuplicateRole
			}
			t.Creator = &summary
		case models.RoleExecutor:
			if t.Executor != nil {
				return ErrDuplicateRole
			}
			t.Executor = &summary
		case models.RoleObserver:
		}
	}
	return nil
}
