package repositories

import (
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		t.Fatalf("failed to enable foreign keys: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// createTestUser inserts a user and returns it with its generated ID
func createTestUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()

	repo := NewUserRepository(db)
	user := models.NewUser(0, email, "Test User")
	if err := repo.Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

// createTestTask inserts a task for an owner and returns it
func createTestTask(t *testing.T, repo *TaskRepository, ownerID, title string) *models.Task {
	t.Helper()

	task := models.NewTask(0, ownerID, title, "")
	if err := repo.Create(task); err != nil {
		t.Fatalf("failed to create task %q: %v", title, err)
	}
	return task
}

func TestUserRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewUserRepository(db)
		user := models.NewUser(0, "test@example.com", "Test User")

		if err := repo.Create(user); err != nil {
			t.Fatalf("failed to create user: %v", err)
		}

		if user.ID() == "" {
			t.Error("user ID should be set after creation")
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "test@example.com")
		repo := NewUserRepository(db)

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if retrieved.Email() != user.Email() {
			t.Errorf("expected email %s, got %s", user.Email(), retrieved.Email())
		}
		if retrieved.CalendarLinked() {
			t.Error("new user should not be calendar linked")
		}
		// created_at round-trips instead of reporting load time
		if retrieved.CreatedAt().Unix() != user.CreatedAt().Unix() {
			t.Errorf("expected creation time %v, got %v", user.CreatedAt(), retrieved.CreatedAt())
		}
	})

	t.Run("GetByEmail", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "lookup@example.com")
		repo := NewUserRepository(db)

		retrieved, err := repo.GetByEmail("lookup@example.com")
		if err != nil {
			t.Fatalf("failed to get user by email: %v", err)
		}

		if retrieved.ID() != user.ID() {
			t.Errorf("expected ID %s, got %s", user.ID(), retrieved.ID())
		}
	})

	t.Run("Update persists calendar linkage", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "linked@example.com")
		repo := NewUserRepository(db)

		expiry := time.Now().Add(time.Hour).UTC()
		user.LinkCalendar("access-token", "refresh-token", &expiry)
		if err := repo.Update(user); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		retrieved, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}

		if !retrieved.CalendarLinked() {
			t.Error("user should be calendar linked")
		}
		if retrieved.AccessToken() != "access-token" {
			t.Errorf("expected access token to round-trip, got %q", retrieved.AccessToken())
		}
		if retrieved.RefreshToken() != "refresh-token" {
			t.Errorf("expected refresh token to round-trip, got %q", retrieved.RefreshToken())
		}

		retrieved.UnlinkCalendar()
		if err := repo.Update(retrieved); err != nil {
			t.Fatalf("failed to update user: %v", err)
		}

		unlinked, err := repo.Get(user.ID())
		if err != nil {
			t.Fatalf("failed to get user: %v", err)
		}
		if unlinked.CalendarLinked() {
			t.Error("user should no longer be calendar linked")
		}
		if unlinked.AccessToken() != "" {
			t.Error("access token should be cleared after unlink")
		}
	})

	t.Run("Delete is soft", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "gone@example.com")
		repo := NewUserRepository(db)

		if err := repo.Delete(user.ID()); err != nil {
			t.Fatalf("failed to delete user: %v", err)
		}

		if _, err := repo.Get(user.ID()); err == nil {
			t.Error("expected error getting deleted user")
		}
	})
}

func TestTaskRepositoryCreate(t *testing.T) {
	t.Run("assigns id and first priority score", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		task := createTestTask(t, repo, user.ID(), "First")

		if task.ID() == "" {
			t.Error("task ID should be set after creation")
		}
		if task.PriorityScore() != 1 {
			t.Errorf("first task should get priority 1, got %d", task.PriorityScore())
		}
	})

	t.Run("priority scores increase monotonically", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		for i, want := range []int{1, 2, 3} {
			task := createTestTask(t, repo, user.ID(), "Task")
			if task.PriorityScore() != want {
				t.Errorf("task %d: expected priority %d, got %d", i, want, task.PriorityScore())
			}
		}
	})

	t.Run("priority scores are partitioned per owner", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := createTestUser(t, db, "alice@example.com")
		bob := createTestUser(t, db, "bob@example.com")
		repo := NewTaskRepository(db)

		createTestTask(t, repo, alice.ID(), "Alice 1")
		createTestTask(t, repo, alice.ID(), "Alice 2")

		bobTask := createTestTask(t, repo, bob.ID(), "Bob 1")
		if bobTask.PriorityScore() != 1 {
			t.Errorf("other owner's first task should get priority 1, got %d", bobTask.PriorityScore())
		}
	})

	t.Run("rejects invalid weight", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		task := models.NewTask(0, user.ID(), "Bad", "")
		task.SetWeight(9)

		if err := repo.Create(task); err == nil {
			t.Error("expected validation error for weight out of range")
		}
	})
}

func TestTaskRepositoryQueries(t *testing.T) {
	t.Run("GetByOwner scopes to owner", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := createTestUser(t, db, "alice@example.com")
		bob := createTestUser(t, db, "bob@example.com")
		repo := NewTaskRepository(db)

		task := createTestTask(t, repo, alice.ID(), "Alice's task")

		if _, err := repo.GetByOwner(task.ID(), alice.ID()); err != nil {
			t.Fatalf("owner should see own task: %v", err)
		}

		if _, err := repo.GetByOwner(task.ID(), bob.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound for foreign owner, got %v", err)
		}
	})

	t.Run("ListByOwner orders by priority score", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		a := createTestTask(t, repo, user.ID(), "A")
		b := createTestTask(t, repo, user.ID(), "B")
		c := createTestTask(t, repo, user.ID(), "C")

		if err := repo.SwapPriorityScores(a.ID(), c.ID()); err != nil {
			t.Fatalf("failed to swap: %v", err)
		}

		listed, err := repo.ListByOwner(user.ID())
		if err != nil {
			t.Fatalf("failed to list tasks: %v", err)
		}

		wantOrder := []string{c.ID(), b.ID(), a.ID()}
		if len(listed) != len(wantOrder) {
			t.Fatalf("expected %d tasks, got %d", len(wantOrder), len(listed))
		}
		for i, want := range wantOrder {
			if listed[i].ID() != want {
				t.Errorf("position %d: expected %s, got %s", i, want, listed[i].ID())
			}
		}
	})

	t.Run("Children returns direct subtasks only", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		parent := createTestTask(t, repo, user.ID(), "Parent")

		child := models.NewTask(0, user.ID(), "Child", "")
		parentID := parent.ID()
		child.SetParentID(&parentID)
		if err := repo.Create(child); err != nil {
			t.Fatalf("failed to create child: %v", err)
		}

		grandchild := models.NewTask(0, user.ID(), "Grandchild", "")
		childID := child.ID()
		grandchild.SetParentID(&childID)
		if err := repo.Create(grandchild); err != nil {
			t.Fatalf("failed to create grandchild: %v", err)
		}

		children, err := repo.Children(parent.ID(), user.ID())
		if err != nil {
			t.Fatalf("failed to list children: %v", err)
		}

		if len(children) != 1 || children[0].ID() != child.ID() {
			t.Errorf("expected only the direct child, got %d tasks", len(children))
		}
	})

	t.Run("MaxPriorityScore is nil with no tasks", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		max, err := repo.MaxPriorityScore(user.ID())
		if err != nil {
			t.Fatalf("failed to read max score: %v", err)
		}
		if max != nil {
			t.Errorf("expected nil max score, got %d", *max)
		}

		createTestTask(t, repo, user.ID(), "One")
		createTestTask(t, repo, user.ID(), "Two")

		max, err = repo.MaxPriorityScore(user.ID())
		if err != nil {
			t.Fatalf("failed to read max score: %v", err)
		}
		if max == nil || *max != 2 {
			t.Errorf("expected max score 2, got %v", max)
		}
	})

	t.Run("due dates round-trip", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		due := time.Date(2026, time.March, 14, 0, 0, 0, 0, time.Local)
		task := models.NewTask(0, user.ID(), "Dated", "")
		task.SetDueDate(&due)
		if err := repo.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		retrieved, err := repo.Get(task.ID())
		if err != nil {
			t.Fatalf("failed to get task: %v", err)
		}

		if retrieved.DueDate() == nil || !retrieved.DueDate().Equal(due) {
			t.Errorf("expected due date %v, got %v", due, retrieved.DueDate())
		}
	})
}

func TestTaskRepositoryMutations(t *testing.T) {
	t.Run("SwapPriorityScores exchanges exactly two scores", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		a := createTestTask(t, repo, user.ID(), "A")
		b := createTestTask(t, repo, user.ID(), "B")
		c := createTestTask(t, repo, user.ID(), "C")

		if err := repo.SwapPriorityScores(a.ID(), b.ID()); err != nil {
			t.Fatalf("failed to swap: %v", err)
		}

		gotA, _ := repo.Get(a.ID())
		gotB, _ := repo.Get(b.ID())
		gotC, _ := repo.Get(c.ID())

		if gotA.PriorityScore() != 2 || gotB.PriorityScore() != 1 {
			t.Errorf("expected scores 2/1 after swap, got %d/%d", gotA.PriorityScore(), gotB.PriorityScore())
		}
		if gotC.PriorityScore() != 3 {
			t.Errorf("bystander score changed: got %d", gotC.PriorityScore())
		}
	})

	t.Run("swap twice restores original order", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		a := createTestTask(t, repo, user.ID(), "A")
		b := createTestTask(t, repo, user.ID(), "B")

		if err := repo.SwapPriorityScores(a.ID(), b.ID()); err != nil {
			t.Fatalf("failed to swap: %v", err)
		}
		if err := repo.SwapPriorityScores(a.ID(), b.ID()); err != nil {
			t.Fatalf("failed to swap back: %v", err)
		}

		gotA, _ := repo.Get(a.ID())
		gotB, _ := repo.Get(b.ID())
		if gotA.PriorityScore() != 1 || gotB.PriorityScore() != 2 {
			t.Errorf("expected original scores 1/2, got %d/%d", gotA.PriorityScore(), gotB.PriorityScore())
		}
	})

	t.Run("SetCompletedAll updates every listed task", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		a := createTestTask(t, repo, user.ID(), "A")
		b := createTestTask(t, repo, user.ID(), "B")
		c := createTestTask(t, repo, user.ID(), "C")

		if err := repo.SetCompletedAll([]string{a.ID(), b.ID()}, true); err != nil {
			t.Fatalf("failed to set completion: %v", err)
		}

		gotA, _ := repo.Get(a.ID())
		gotB, _ := repo.Get(b.ID())
		gotC, _ := repo.Get(c.ID())

		if !gotA.Completed() || !gotB.Completed() {
			t.Error("listed tasks should be completed")
		}
		if gotC.Completed() {
			t.Error("unlisted task should be untouched")
		}
	})

	t.Run("SetEventID links and unlinks", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		task := createTestTask(t, repo, user.ID(), "Synced")

		eventID := "evt-123"
		if err := repo.SetEventID(task.ID(), &eventID); err != nil {
			t.Fatalf("failed to set event id: %v", err)
		}

		got, _ := repo.Get(task.ID())
		if !got.Linked() || *got.EventID() != eventID {
			t.Errorf("expected task linked to %s", eventID)
		}

		if err := repo.SetEventID(task.ID(), nil); err != nil {
			t.Fatalf("failed to clear event id: %v", err)
		}

		got, _ = repo.Get(task.ID())
		if got.Linked() {
			t.Error("expected task unlinked")
		}
	})

	t.Run("ClearEventIDs unlinks all owner tasks", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		alice := createTestUser(t, db, "alice@example.com")
		bob := createTestUser(t, db, "bob@example.com")
		repo := NewTaskRepository(db)

		aliceTask := createTestTask(t, repo, alice.ID(), "Alice")
		bobTask := createTestTask(t, repo, bob.ID(), "Bob")

		evt1, evt2 := "evt-1", "evt-2"
		repo.SetEventID(aliceTask.ID(), &evt1)
		repo.SetEventID(bobTask.ID(), &evt2)

		if err := repo.ClearEventIDs(alice.ID()); err != nil {
			t.Fatalf("failed to clear event ids: %v", err)
		}

		gotAlice, _ := repo.Get(aliceTask.ID())
		gotBob, _ := repo.Get(bobTask.ID())

		if gotAlice.Linked() {
			t.Error("alice's task should be unlinked")
		}
		if !gotBob.Linked() {
			t.Error("bob's task should remain linked")
		}
	})

	t.Run("ClearParent orphans children to top level", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		parent := createTestTask(t, repo, user.ID(), "Parent")
		child := models.NewTask(0, user.ID(), "Child", "")
		parentID := parent.ID()
		child.SetParentID(&parentID)
		if err := repo.Create(child); err != nil {
			t.Fatalf("failed to create child: %v", err)
		}

		if err := repo.ClearParent(parent.ID()); err != nil {
			t.Fatalf("failed to clear parent: %v", err)
		}

		got, _ := repo.Get(child.ID())
		if got.ParentID() != nil {
			t.Error("child should have no parent after clear")
		}
	})

	t.Run("Delete is soft and surfaces as not found", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		user := createTestUser(t, db, "owner@example.com")
		repo := NewTaskRepository(db)

		task := createTestTask(t, repo, user.ID(), "Doomed")

		if err := repo.Delete(task.ID()); err != nil {
			t.Fatalf("failed to delete task: %v", err)
		}

		if _, err := repo.Get(task.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}

		if err := repo.Delete(task.ID()); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("double delete should be ErrNotFound, got %v", err)
		}
	})
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	first, err := NextSequence(db, "tasks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	second, err := NextSequence(db, "tasks")
	if err != nil {
		t.Fatalf("failed to get sequence: %v", err)
	}

	if second != first+1 {
		t.Errorf("expected sequence to increment from %d, got %d", first, second)
	}
}
