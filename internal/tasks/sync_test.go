package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/akhilbawari/taskpal/internal/models"
	"github.com/akhilbawari/taskpal/internal/services"
	"github.com/akhilbawari/taskpal/internal/shared"
	tu "github.com/akhilbawari/taskpal/internal/testing"
)

// flakyCalendar fails the first N create calls, then delegates to the
// wrapped mock. Exercises the backfill retry path.
type flakyCalendar struct {
	*tu.MockCalendar

	mu       sync.Mutex
	failures int
}

func (f *flakyCalendar) CreateEvent(ctx context.Context, summary, description string, start, end time.Time) (string, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return "", fmt.Errorf("%w: transient", shared.ErrSyncFailed)
	}
	f.mu.Unlock()
	return f.MockCalendar.CreateEvent(ctx, summary, description, start, end)
}

// flakyProvider hands out one flakyCalendar for every linked user.
type flakyProvider struct {
	calendar *flakyCalendar
}

func (p *flakyProvider) ForUser(ctx context.Context, user *models.User) (services.Calendar, error) {
	if user == nil || !user.CalendarLinked() {
		return nil, shared.ErrNotLinked
	}
	return p.calendar, nil
}

func (p *flakyProvider) AuthURL(state string) string { return "https://example.com/auth?state=" + state }
func (p *flakyProvider) Name() string                { return "flaky" }

func TestEventWindow(t *testing.T) {
	t.Run("builds an all-day window", func(t *testing.T) {
		task := models.NewTask(0, "owner", "Dated", "")
		task.SetDueDate(dueOn(2026, time.July, 4))

		start, end, err := eventWindow(task)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if start.Hour() != 0 || start.Day() != 4 {
			t.Errorf("start should be midnight on the due date, got %v", start)
		}
		if !end.Equal(start.AddDate(0, 0, 1)) {
			t.Errorf("end should be the next midnight, got %v", end)
		}
	})

	t.Run("fails without a due date", func(t *testing.T) {
		task := models.NewTask(0, "owner", "Undated", "")

		_, _, err := eventWindow(task)
		if !errors.Is(err, shared.ErrMissingDueDate) {
			t.Errorf("expected ErrMissingDueDate, got %v", err)
		}
	})
}

func TestCalendarSyncerCreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("persists the returned event id", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Dated", "")
		task.SetDueDate(dueOn(2026, time.July, 4))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		if err := syncer.CreateEvent(ctx, user, task); err != nil {
			t.Fatalf("failed to sync: %v", err)
		}

		stored, _ := f.tasks.Get(task.ID())
		if !stored.Linked() {
			t.Error("event id should be persisted")
		}
	})

	t.Run("fails for an unlinked owner", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "unlinked@example.com", false)

		task := models.NewTask(0, user.ID(), "Dated", "")
		task.SetDueDate(dueOn(2026, time.July, 4))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		err := syncer.CreateEvent(ctx, user, task)
		if !errors.Is(err, shared.ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})
}

func TestCalendarSyncerDeleteEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("clears the link even when the remote event is already gone", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Synced", "")
		task.SetDueDate(dueOn(2026, time.July, 4))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		if err := syncer.CreateEvent(ctx, user, task); err != nil {
			t.Fatalf("failed to sync: %v", err)
		}

		f.provider.Calendar.DeleteErr = fmt.Errorf("%w: already gone", shared.ErrSyncFailed)

		err := syncer.DeleteEvent(ctx, user, task)
		if !errors.Is(err, shared.ErrSyncFailed) {
			t.Fatalf("expected the remote error back, got %v", err)
		}

		stored, _ := f.tasks.Get(task.ID())
		if stored.Linked() {
			t.Error("link should be cleared regardless of remote outcome")
		}
	})

	t.Run("is a no-op for unlinked tasks", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Plain", "")
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		if err := syncer.DeleteEvent(ctx, user, task); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if f.provider.Calendar.DeleteCount() != 0 {
			t.Error("no remote call should be made for unlinked tasks")
		}
	})
}

func TestBackfill(t *testing.T) {
	ctx := context.Background()

	t.Run("syncs every unlinked task with a due date", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		for i := 0; i < 3; i++ {
			task := models.NewTask(0, user.ID(), fmt.Sprintf("Task %d", i), "")
			task.SetDueDate(dueOn(2026, time.August, i+1))
			if err := f.tasks.Create(task); err != nil {
				t.Fatalf("failed to create task: %v", err)
			}
		}

		undated := models.NewTask(0, user.ID(), "Undated", "")
		if err := f.tasks.Create(undated); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		result, err := syncer.Backfill(ctx, nil, user, BackfillOpts{})
		if err != nil {
			t.Fatalf("backfill failed: %v", err)
		}

		if result.TotalTasks != 3 || result.Succeeded != 3 || result.Failed != 0 {
			t.Errorf("expected 3/3 synced, got %+v", result)
		}
		if result.Skipped != 1 {
			t.Errorf("undated task should be skipped, got %d skips", result.Skipped)
		}

		listed, _ := f.tasks.ListByOwner(user.ID())
		for _, task := range listed {
			if task.DueDate() != nil && !task.Linked() {
				t.Errorf("task %s should be linked after backfill", task.Title())
			}
		}
	})

	t.Run("skips tasks that already have events", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Linked", "")
		task.SetDueDate(dueOn(2026, time.August, 1))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}
		evt := "evt-existing"
		f.tasks.SetEventID(task.ID(), &evt)

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		result, err := syncer.Backfill(ctx, nil, user, BackfillOpts{})
		if err != nil {
			t.Fatalf("backfill failed: %v", err)
		}

		if result.TotalTasks != 0 || result.Skipped != 1 {
			t.Errorf("linked task should be skipped, got %+v", result)
		}
		if len(f.provider.Calendar.Created) != 0 {
			t.Error("no remote create should happen")
		}
	})

	t.Run("isolates per-task failures", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		for _, title := range []string{"Good 1", "Bad", "Good 2"} {
			task := models.NewTask(0, user.ID(), title, "")
			task.SetDueDate(dueOn(2026, time.August, 1))
			if err := f.tasks.Create(task); err != nil {
				t.Fatalf("failed to create task: %v", err)
			}
		}

		f.provider.Calendar.FailFor["Bad"] = fmt.Errorf("%w: rejected", shared.ErrInvalidInput)

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		result, err := syncer.Backfill(ctx, nil, user, BackfillOpts{})
		if err != nil {
			t.Fatalf("one bad task must not abort the batch: %v", err)
		}

		if result.Succeeded != 2 || result.Failed != 1 {
			t.Errorf("expected 2 ok / 1 failed, got %+v", result)
		}

		for _, res := range result.Results {
			if res.Title == "Bad" && res.Success {
				t.Error("the failing task should be reported failed")
			}
			if res.Title != "Bad" && !res.Success {
				t.Errorf("task %s should have succeeded", res.Title)
			}
		}
	})

	t.Run("retries transient failures once", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Flaky", "")
		task.SetDueDate(dueOn(2026, time.August, 1))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		provider := &flakyProvider{calendar: &flakyCalendar{
			MockCalendar: tu.NewMockCalendar(),
			failures:     1,
		}}

		syncer := NewCalendarSyncer(provider, f.tasks, shared.NewLogger(nil), time.Second)
		result, err := syncer.Backfill(ctx, nil, user, BackfillOpts{RateLimit: 100})
		if err != nil {
			t.Fatalf("backfill failed: %v", err)
		}

		if result.Succeeded != 1 {
			t.Errorf("the retry should have recovered the task, got %+v", result)
		}
	})

	t.Run("fails fast for an unlinked owner", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "unlinked@example.com", false)

		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		_, err := syncer.Backfill(ctx, nil, user, BackfillOpts{})
		if !errors.Is(err, shared.ErrNotLinked) {
			t.Errorf("expected ErrNotLinked, got %v", err)
		}
	})

	t.Run("streams progress updates", func(t *testing.T) {
		f := setupEngine(t)
		user := f.createUser(t, "linked@example.com", true)

		task := models.NewTask(0, user.ID(), "Tracked", "")
		task.SetDueDate(dueOn(2026, time.August, 1))
		if err := f.tasks.Create(task); err != nil {
			t.Fatalf("failed to create task: %v", err)
		}

		progress := make(chan ProgressUpdate, 16)
		syncer := NewCalendarSyncer(f.provider, f.tasks, shared.NewLogger(nil), time.Second)
		if _, err := syncer.Backfill(ctx, progress, user, BackfillOpts{}); err != nil {
			t.Fatalf("backfill failed: %v", err)
		}
		close(progress)

		var phases []Phase
		for update := range progress {
			phases = append(phases, update.Phase)
		}

		if len(phases) == 0 || phases[0] != LoadTasks {
			t.Errorf("expected a load phase first, got %v", phases)
		}
		if phases[len(phases)-1] != BackfillDone {
			t.Errorf("expected a done phase last, got %v", phases)
		}
	})
}
