package models

import (
	"testing"
	"time"
)

func TestTaskValidate(t *testing.T) {
	t.Run("valid task", func(t *testing.T) {
		task := NewTask(1, "owner-1", "Write report", "quarterly numbers")
		if err := task.Validate(); err != nil {
			t.Errorf("expected valid task, got %v", err)
		}
	})

	t.Run("missing owner", func(t *testing.T) {
		task := NewTask(1, "", "Write report", "")
		if err := task.Validate(); err == nil {
			t.Error("expected error for missing owner")
		}
	})

	t.Run("missing title", func(t *testing.T) {
		task := NewTask(1, "owner-1", "", "")
		if err := task.Validate(); err == nil {
			t.Error("expected error for missing title")
		}
	})

	t.Run("weight bounds", func(t *testing.T) {
		for _, w := range []int{0, 6, -1} {
			task := NewTask(1, "owner-1", "Write report", "")
			task.SetWeight(w)
			if err := task.Validate(); err == nil {
				t.Errorf("expected error for weight %d", w)
			}
		}

		for w := 1; w <= 5; w++ {
			task := NewTask(1, "owner-1", "Write report", "")
			task.SetWeight(w)
			if err := task.Validate(); err != nil {
				t.Errorf("expected weight %d to be valid, got %v", w, err)
			}
		}
	})

	t.Run("self parent", func(t *testing.T) {
		task := NewTask(1, "owner-1", "Write report", "")
		task.SetID("task-1")
		id := "task-1"
		task.SetParentID(&id)
		if err := task.Validate(); err == nil {
			t.Error("expected error for self-parenting task")
		}
	})
}

func TestTaskLinked(t *testing.T) {
	task := NewTask(1, "owner-1", "Write report", "")
	if task.Linked() {
		t.Error("new task should not be linked")
	}

	eventID := "evt-123"
	task.SetEventID(&eventID)
	if !task.Linked() {
		t.Error("task with event id should be linked")
	}

	empty := ""
	task.SetEventID(&empty)
	if task.Linked() {
		t.Error("task with empty event id should not be linked")
	}
}

func TestUserCalendarLinkage(t *testing.T) {
	user := NewUser(1, "test@example.com", "Test User")
	if user.CalendarLinked() {
		t.Error("new user should not be linked")
	}

	expiry := time.Now().Add(time.Hour)
	user.LinkCalendar("access", "refresh", &expiry)
	if !user.CalendarLinked() {
		t.Error("user should be linked after LinkCalendar")
	}
	if user.AccessToken() != "access" || user.RefreshToken() != "refresh" {
		t.Error("tokens should be stored on link")
	}

	user.UnlinkCalendar()
	if user.CalendarLinked() || user.AccessToken() != "" {
		t.Error("unlink should clear linkage and tokens")
	}
}
