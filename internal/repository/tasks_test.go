package repository

import (
	"errors"
	"testing"

	"github.com/umn33q/adom-testovoe/internal/models"
)

func TestDedupeAssignments(t *testing.T) {
	t.Run("repeated user updates role instead of duplicating", func(t *testing.T) {
		got := dedupeAssignments([]models.RoleAssignment{
			{UserID: 1, Role: models.RoleCreator},
			{UserID: 2, Role: models.RoleExecutor},
			{UserID: 2, Role: models.RoleObserver},
		})
		if len(got) != 2 {
			t.Fatalf("expected 2 assignments, got %d", len(got))
		}
		if got[1].UserID != 2 || got[1].Role != models.RoleObserver {
			t.Errorf("expected user 2 to end up as observer, got %+v", got[1])
		}
	})

	t.Run("identical input is unchanged", func(t *testing.T) {
		in := []models.RoleAssignment{
			{UserID: 1, Role: models.RoleCreator},
			{UserID: 2, Role: models.RoleExecutor},
		}
		got := dedupeAssignments(in)
		if len(got) != len(in) {
			t.Fatalf("expected %d assignments, got %d", len(in), len(got))
		}
		for i := range in {
			if got[i] != in[i] {
				t.Errorf("assignment %d changed: %+v != %+v", i, got[i], in[i])
			}
		}
	})
}

func TestWithFallbackCreator(t *testing.T) {
	t.Run("prior creator re-inserted", func(t *testing.T) {
		got := withFallbackCreator([]models.RoleAssignment{
			{UserID: 2, Role: models.RoleObserver},
		}, 1)
		if !hasCreator(got) {
			t.Fatal("expected creator in resulting set")
		}
		found := false
		for _, a := range got {
			if a.UserID == 1 && a.Role == models.RoleCreator {
				found = true
			}
		}
		if !found {
			t.Errorf("expected user 1 as creator, got %+v", got)
		}
	})

	t.Run("prior creator listed under another role is promoted", func(t *testing.T) {
		got := withFallbackCreator([]models.RoleAssignment{
			{UserID: 1, Role: models.RoleObserver},
			{UserID: 2, Role: models.RoleExecutor},
		}, 1)
		if len(got) != 2 {
			t.Fatalf("expected 2 assignments, got %d", len(got))
		}
		if got[0].UserID != 1 || got[0].Role != models.RoleCreator {
			t.Errorf("expected user 1 promoted to creator, got %+v", got[0])
		}
	})
}

func TestDeriveRoles(t *testing.T) {
	t.Run("creator and executor derived", func(t *testing.T) {
		task := &models.Task{Participants: []models.Participant{
			{ID: 1, Name: "a", Email: "a@example.com", Role: models.RoleCreator},
			{ID: 2, Name: "b", Email: "b@example.com", Role: models.RoleExecutor},
			{ID: 3, Name: "c", Email: "c@example.com", Role: models.RoleObserver},
		}}
		if err := deriveRoles(task); err != nil {
			t.Fatalf("deriveRoles failed: %v", err)
		}
		if task.Creator == nil || task.Creator.ID != 1 {
			t.Errorf("unexpected creator: %+v", task.Creator)
		}
		if task.Executor == nil || task.Executor.ID != 2 {
			t.Errorf("unexpected executor: %+v", task.Executor)
		}
	})

	t.Run("executor optional", func(t *testing.T) {
		task := &models.Task{Participants: []models.Participant{
			{ID: 1, Role: models.RoleCreator},
		}}
		if err := deriveRoles(task); err != nil {
			t.Fatalf("deriveRoles failed: %v", err)
		}
		if task.Executor != nil {
			t.Errorf("expected nil executor, got %+v", task.Executor)
		}
	})

	t.Run("duplicate creator rejected", func(t *testing.T) {
		task := &models.Task{Participants: []models.Participant{
			{ID: 1, Role: models.RoleCreator},
			{ID: 2, Role: models.RoleCreator},
		}}
		if err := deriveRoles(task); !errors.Is(err, ErrDuplicateRole) {
			t.Errorf("expected ErrDuplicateRole, got %v", err)
		}
	})

	t.Run("duplicate executor rejected", func(t *testing.T) {
		task := &models.Task{Participants: []models.Participant{
			{ID: 1, Role: models.RoleCreator},
			{ID: 2, Role: models.RoleExecutor},
			{ID: 3, Role: models.RoleExecutor},
		}}
		if err := deriveRoles(task); !errors.Is(err, ErrDuplicateRole) {
			t.Errorf("expected ErrDuplicateRole, got %v", err)
		}
	})
}
